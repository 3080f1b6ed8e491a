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

type PurchaseController struct {
	purchaseService services.PurchaseServiceInterface
	logger          *zap.Logger
}

func NewPurchaseController(purchaseService services.PurchaseServiceInterface, logger *zap.Logger) *PurchaseController {
	return &PurchaseController{purchaseService: purchaseService, logger: logger}
}

func (c *PurchaseController) Create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreatePurchaseOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	po, err := c.purchaseService.Create(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, po, "Заказ поставщику создан", http.StatusCreated)
}

func (c *PurchaseController) FindPurchaseOrder(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	po, err := c.purchaseService.FindPurchaseOrder(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, po, "Заказ поставщику найден", http.StatusOK)
}

func (c *PurchaseController) ListByOrder(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	orderID, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	list, err := c.purchaseService.ListByOrder(reqCtx, orderID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Заказы поставщику получены", http.StatusOK)
}

func (c *PurchaseController) ListItems(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	items, err := c.purchaseService.ListItems(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, items, "Позиции заказа получены", http.StatusOK)
}

func (c *PurchaseController) AddItem(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CreatePurchaseOrderItemDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	item, err := c.purchaseService.AddItem(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, item, "Позиция добавлена в заказ", http.StatusCreated)
}

func (c *PurchaseController) RemoveItem(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	itemID, err := parseIDParam(ctx, "itemId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.purchaseService.RemoveItem(reqCtx, itemID); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Позиция удалена из заказа", http.StatusOK)
}

func (c *PurchaseController) Submit(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.SubmitPurchaseOrderDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.purchaseService.Submit(reqCtx, id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ подан поставщику", http.StatusOK)
}

func (c *PurchaseController) ReceiveItem(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	itemID, err := parseIDParam(ctx, "itemId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.ReceiveItemDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.purchaseService.ReceiveItem(reqCtx, itemID, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Позиция принята на склад", http.StatusOK)
}

func (c *PurchaseController) Cancel(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.purchaseService.Cancel(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заказ поставщику отменён", http.StatusOK)
}
