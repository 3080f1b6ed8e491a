package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/repositories"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/utils"
)

type OrderItemServiceInterface interface {
	AddItem(ctx context.Context, orderID uint64, payload dto.CreateOrderItemDTO) (*entities.ServiceOrderItem, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.ServiceOrderItem, error)
	RemoveItem(ctx context.Context, itemID uint64) error
}

// OrderItemService — позиции заявки. Код, название и тип детали
// копируются из каталога при добавлении, цену можно переопределить.
type OrderItemService struct {
	txManager     repositories.TxManagerInterface
	itemRepo      repositories.OrderItemRepositoryInterface
	orderRepo     repositories.OrderRepositoryInterface
	inventoryRepo repositories.InventoryRepositoryInterface
	logger        *zap.Logger
}

func NewOrderItemService(
	txManager repositories.TxManagerInterface,
	itemRepo repositories.OrderItemRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	inventoryRepo repositories.InventoryRepositoryInterface,
	logger *zap.Logger,
) OrderItemServiceInterface {
	return &OrderItemService{
		txManager:     txManager,
		itemRepo:      itemRepo,
		orderRepo:     orderRepo,
		inventoryRepo: inventoryRepo,
		logger:        logger,
	}
}

func (s *OrderItemService) AddItem(ctx context.Context, orderID uint64, payload dto.CreateOrderItemDTO) (*entities.ServiceOrderItem, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var item *entities.ServiceOrderItem
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.IsClosed() {
			return apperrors.ErrOrderClosed
		}

		product, err := s.inventoryRepo.FindProduct(ctx, tx, payload.ProductID)
		if err != nil {
			return err
		}

		price := product.Price
		if payload.Price != nil {
			price = *payload.Price
		}

		item = &entities.ServiceOrderItem{
			OrderID:         order.ID,
			ProductID:       product.ID,
			Code:            product.Code,
			Title:           product.Title,
			Amount:          payload.Amount,
			Price:           price,
			SN:              payload.SN,
			KbbSN:           payload.KbbSN,
			IMEI:            payload.IMEI,
			PartType:        product.PartType,
			IsSerialized:    product.IsSerialized,
			ComptiaCode:     product.ComptiaCode,
			ComptiaModifier: product.ComptiaModifier,
			CreatedByID:     userID,
		}

		id, err := s.itemRepo.Create(ctx, tx, item)
		if err != nil {
			return err
		}
		item.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Позиция добавлена в заявку",
		zap.Uint64("order_id", orderID),
		zap.Uint64("item_id", item.ID),
		zap.String("code", item.Code),
	)
	return item, nil
}

func (s *OrderItemService) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.ServiceOrderItem, error) {
	return s.itemRepo.ListByOrder(ctx, nil, orderID)
}

func (s *OrderItemService) RemoveItem(ctx context.Context, itemID uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		item, err := s.itemRepo.FindByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		order, err := s.orderRepo.FindByID(ctx, tx, item.OrderID)
		if err != nil {
			return err
		}
		if order.IsClosed() {
			return apperrors.ErrOrderClosed
		}
		return s.itemRepo.Delete(ctx, tx, item.ID)
	})
}
