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

type SettingsController struct {
	settingsService services.SettingsServiceInterface
	logger          *zap.Logger
}

func NewSettingsController(settingsService services.SettingsServiceInterface, logger *zap.Logger) *SettingsController {
	return &SettingsController{settingsService: settingsService, logger: logger}
}

func (c *SettingsController) Get(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	settings, err := c.settingsService.Get(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, settings, "Настройки получены", http.StatusOK)
}

func (c *SettingsController) Update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.UpdateSettingsDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	settings, err := c.settingsService.Update(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, settings, "Настройки обновлены", http.StatusOK)
}

func (c *SettingsController) Reload(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	settings, err := c.settingsService.Reload(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, settings, "Настройки перечитаны", http.StatusOK)
}
