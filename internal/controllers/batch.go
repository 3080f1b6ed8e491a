package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/services"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/utils"
)

type BatchController struct {
	batchService services.BatchServiceInterface
	logger       *zap.Logger
}

func NewBatchController(batchService services.BatchServiceInterface, logger *zap.Logger) *BatchController {
	return &BatchController{batchService: batchService, logger: logger}
}

// Enqueue ставит пакетную обработку в очередь. Выполняет её воркер,
// ответ приходит сразу.
func (c *BatchController) Enqueue(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.BatchProcessDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.batchService.Enqueue(reqCtx, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Пакетная обработка поставлена в очередь", http.StatusAccepted)
}

// Process выполняет пакетную обработку синхронно и возвращает счётчик.
func (c *BatchController) Process(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.BatchProcessDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	processed, err := c.batchService.Process(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	body := dto.BatchResultDTO{Processed: processed, Total: len(payload.OrderCodes)}
	return utils.SuccessResponse(ctx, body, "Пакетная обработка выполнена", http.StatusOK)
}
