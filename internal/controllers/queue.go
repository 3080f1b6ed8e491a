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

type QueueController struct {
	queueService services.QueueServiceInterface
	logger       *zap.Logger
}

func NewQueueController(queueService services.QueueServiceInterface, logger *zap.Logger) *QueueController {
	return &QueueController{queueService: queueService, logger: logger}
}

func (c *QueueController) GetQueues(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	queues, err := c.queueService.GetQueues(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, queues, "Очереди получены", http.StatusOK)
}

func (c *QueueController) FindQueue(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	queue, err := c.queueService.FindQueue(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, queue, "Очередь найдена", http.StatusOK)
}

func (c *QueueController) CreateQueue(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateQueueDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	queue, err := c.queueService.CreateQueue(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, queue, "Очередь создана", http.StatusCreated)
}

func (c *QueueController) UpdateQueue(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateQueueDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	if err := c.queueService.UpdateQueue(reqCtx, id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Очередь обновлена", http.StatusOK)
}

func (c *QueueController) SetMilestone(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.SetQueueMilestoneDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.queueService.SetMilestone(reqCtx, id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Веха настроена", http.StatusOK)
}

func (c *QueueController) GetQueueStatuses(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	statuses, err := c.queueService.GetQueueStatuses(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, statuses, "Статусы очереди получены", http.StatusOK)
}

func (c *QueueController) AddStatusToQueue(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreateQueueStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	qs, err := c.queueService.AddStatusToQueue(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, qs, "Статус добавлен в очередь", http.StatusCreated)
}

func (c *QueueController) GetStatuses(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	statuses, err := c.queueService.GetStatuses(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, statuses, "Статусы получены", http.StatusOK)
}

func (c *QueueController) CreateStatus(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	status, err := c.queueService.CreateStatus(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, status, "Статус создан", http.StatusCreated)
}
