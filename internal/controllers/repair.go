package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/services"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/utils"
)

type RepairController struct {
	repairService services.RepairServiceInterface
	logger        *zap.Logger
}

func NewRepairController(repairService services.RepairServiceInterface, logger *zap.Logger) *RepairController {
	return &RepairController{repairService: repairService, logger: logger}
}

func toRepairResponse(repair *entities.Repair) dto.RepairResponseDTO {
	return dto.RepairResponseDTO{
		ID:            repair.ID,
		OrderID:       repair.OrderID,
		DeviceID:      repair.DeviceID,
		Confirmation:  repair.Confirmation,
		SubmittedAt:   repair.SubmittedAt,
		Status:        repair.Status,
		StatusCode:    repair.StatusCode,
		CompletedAt:   repair.CompletedAt,
		RepairType:    repair.RepairType,
		Symptom:       repair.Symptom,
		Diagnosis:     repair.Diagnosis,
		MarkComplete:  repair.MarkComplete,
		ReplacementSN: repair.ReplacementSN,
	}
}

func (c *RepairController) Create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateRepairDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repair, err := c.repairService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, toRepairResponse(repair), "Ремонт создан", http.StatusCreated)
}

func (c *RepairController) FindRepair(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repair, err := c.repairService.FindRepair(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, toRepairResponse(repair), "Ремонт найден", http.StatusOK)
}

func (c *RepairController) ListByOrder(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orderID, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repairs, err := c.repairService.ListByOrder(reqCtx, orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	list := make([]dto.RepairResponseDTO, 0, len(repairs))
	for _, repair := range repairs {
		list = append(list, toRepairResponse(repair))
	}
	return utils.SuccessResponse(ctx, list, "Ремонты заявки получены", http.StatusOK)
}

func (c *RepairController) ListParts(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	parts, err := c.repairService.ListParts(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, parts, "Детали ремонта получены", http.StatusOK)
}

func (c *RepairController) Submit(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.Submit(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Ремонт подан в GSX", http.StatusOK)
}

func (c *RepairController) Close(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.Close(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Ремонт завершён", http.StatusOK)
}

func (c *RepairController) CanMarkComplete(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ok, err := c.repairService.CanMarkComplete(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]bool{"can_mark_complete": ok}, "Проверка выполнена", http.StatusOK)
}

func (c *RepairController) RefreshDetails(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.repairService.RefreshDetails(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Данные ремонта обновлены", http.StatusOK)
}

func (c *RepairController) Import(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.ImportRepairDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repair, err := c.repairService.CreateFromRemote(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, toRepairResponse(repair), "Ремонт импортирован из GSX", http.StatusCreated)
}

func (c *RepairController) ResendPart(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	partID, err := parseIDParam(ctx, "partId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	part, err := c.repairService.ResendPart(reqCtx, partID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, part, "Деталь перезаказана", http.StatusCreated)
}

func (c *RepairController) Duplicate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	repair, err := c.repairService.Duplicate(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, toRepairResponse(repair), "Копия ремонта создана", http.StatusCreated)
}
