package controllers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/services"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/utils"
)

type RuleController struct {
	ruleEngine services.RuleEngineServiceInterface
	logger     *zap.Logger
}

func NewRuleController(ruleEngine services.RuleEngineServiceInterface, logger *zap.Logger) *RuleController {
	return &RuleController{ruleEngine: ruleEngine, logger: logger}
}

func (c *RuleController) GetRules(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	rules, err := c.ruleEngine.GetRules(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rules, "Правила получены", http.StatusOK)
}

func (c *RuleController) CreateRule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateRuleDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id, err := c.ruleEngine.CreateRule(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]uint64{"id": id}, "Правило создано", http.StatusCreated)
}

func (c *RuleController) DeleteRule(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.ruleEngine.DeleteRule(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Правило удалено", http.StatusOK)
}

// Import принимает JSON-файл правил телом запроса.
func (c *RuleController) Import(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	data, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	count, err := c.ruleEngine.ImportFromJSON(reqCtx, data)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]int{"imported": count}, "Правила импортированы", http.StatusOK)
}
