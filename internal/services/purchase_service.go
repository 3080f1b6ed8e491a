package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/integrations/gsx"
	"servo-system/internal/repositories"
	"servo-system/pkg/config"
	"servo-system/pkg/constants"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/utils"
)

type PurchaseServiceInterface interface {
	Create(ctx context.Context, payload dto.CreatePurchaseOrderDTO) (*entities.PurchaseOrder, error)
	FindPurchaseOrder(ctx context.Context, id uint64) (*entities.PurchaseOrder, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.PurchaseOrder, error)
	ListItems(ctx context.Context, id uint64) ([]*entities.PurchaseOrderItem, error)

	AddItem(ctx context.Context, id uint64, payload dto.CreatePurchaseOrderItemDTO) (*entities.PurchaseOrderItem, error)
	RemoveItem(ctx context.Context, itemID uint64) error

	Submit(ctx context.Context, id uint64, payload dto.SubmitPurchaseOrderDTO) error
	ReceiveItem(ctx context.Context, itemID uint64, payload dto.ReceiveItemDTO) error
	Cancel(ctx context.Context, id uint64) error
}

// PurchaseService — заказы поставщику: корзина до подачи, складской заказ
// во внешней системе и приёмка с ведением счётчиков склада.
type PurchaseService struct {
	txManager     repositories.TxManagerInterface
	purchaseRepo  repositories.PurchaseRepositoryInterface
	inventoryRepo repositories.InventoryRepositoryInterface
	accountRepo   repositories.GsxAccountRepositoryInterface
	gsxClient     gsx.ClientInterface
	orderService  OrderServiceInterface
	cfg           *config.Config
	logger        *zap.Logger
}

func NewPurchaseService(
	txManager repositories.TxManagerInterface,
	purchaseRepo repositories.PurchaseRepositoryInterface,
	inventoryRepo repositories.InventoryRepositoryInterface,
	accountRepo repositories.GsxAccountRepositoryInterface,
	gsxClient gsx.ClientInterface,
	orderService OrderServiceInterface,
	cfg *config.Config,
	logger *zap.Logger,
) PurchaseServiceInterface {
	return &PurchaseService{
		txManager:     txManager,
		purchaseRepo:  purchaseRepo,
		inventoryRepo: inventoryRepo,
		accountRepo:   accountRepo,
		gsxClient:     gsxClient,
		orderService:  orderService,
		cfg:           cfg,
		logger:        logger,
	}
}

func (s *PurchaseService) Create(ctx context.Context, payload dto.CreatePurchaseOrderDTO) (*entities.PurchaseOrder, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	po := &entities.PurchaseOrder{
		OrderID:      payload.OrderID,
		SupplierName: payload.SupplierName,
		Reference:    payload.Reference,
		CreatedByID:  userID,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.purchaseRepo.Create(ctx, tx, po)
		if err != nil {
			return err
		}
		po.ID = id

		for _, line := range payload.Items {
			if _, err := s.createItem(ctx, tx, id, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// createItem добавляет строку корзины, подставляя код, название и цену
// из номенклатуры, если цена не задана явно.
func (s *PurchaseService) createItem(ctx context.Context, tx pgx.Tx, poID uint64, payload dto.CreatePurchaseOrderItemDTO) (*entities.PurchaseOrderItem, error) {
	product, err := s.inventoryRepo.FindProduct(ctx, tx, payload.ProductID)
	if err != nil {
		return nil, err
	}

	item := &entities.PurchaseOrderItem{
		PurchaseOrderID: poID,
		ProductID:       product.ID,
		OrderItemID:     payload.OrderItemID,
		Code:            product.Code,
		Title:           product.Title,
		Amount:          payload.Amount,
		Price:           payload.Price,
	}
	if item.Price == 0 {
		item.Price = product.Price
	}

	id, err := s.purchaseRepo.CreateItem(ctx, tx, item)
	if err != nil {
		return nil, err
	}
	item.ID = id
	return item, nil
}

func (s *PurchaseService) FindPurchaseOrder(ctx context.Context, id uint64) (*entities.PurchaseOrder, error) {
	return s.purchaseRepo.FindByID(ctx, nil, id)
}

func (s *PurchaseService) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.PurchaseOrder, error) {
	return s.purchaseRepo.ListByOrder(ctx, orderID)
}

func (s *PurchaseService) ListItems(ctx context.Context, id uint64) ([]*entities.PurchaseOrderItem, error) {
	return s.purchaseRepo.ListItems(ctx, nil, id)
}

func (s *PurchaseService) AddItem(ctx context.Context, id uint64, payload dto.CreatePurchaseOrderItemDTO) (*entities.PurchaseOrderItem, error) {
	var item *entities.PurchaseOrderItem
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		po, err := s.purchaseRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !po.IsEditable() {
			return apperrors.NewInvalidInputError("заказ %d уже подан, позиции не изменяются", id)
		}
		item, err = s.createItem(ctx, tx, id, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *PurchaseService) RemoveItem(ctx context.Context, itemID uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		item, err := s.purchaseRepo.FindItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		po, err := s.purchaseRepo.FindByID(ctx, tx, item.PurchaseOrderID)
		if err != nil {
			return err
		}
		if !po.IsEditable() {
			return apperrors.NewInvalidInputError("заказ %d уже подан, позиции не изменяются", po.ID)
		}
		return s.purchaseRepo.DeleteItem(ctx, tx, itemID)
	})
}

// Submit подаёт корзину как складской заказ во внешнюю систему.
// После подачи счётчик заказанного растёт, а заявка (если есть)
// переходит на веху «детали заказаны».
func (s *PurchaseService) Submit(ctx context.Context, id uint64, payload dto.SubmitPurchaseOrderDTO) error {
	po, err := s.purchaseRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if po.IsSubmitted() {
		return apperrors.NewInvalidInputError("заказ %d уже подан", id)
	}
	items, err := s.purchaseRepo.ListItems(ctx, nil, id)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return apperrors.NewInvalidInputError("заказ %d подаётся без позиций", id)
	}
	account, err := s.accountRepo.FindByID(ctx, nil, payload.GsxAccountID)
	if err != nil {
		return err
	}

	request := gsx.StockingOrderRequest{
		PurchaseOrderNumber: po.Reference,
		ShipTo:              account.ShipTo,
	}
	for _, item := range items {
		request.Parts = append(request.Parts, gsx.StockingOrderLine{
			Code:   item.Code,
			Amount: item.Amount,
		})
	}

	confirmation, err := s.gsxClient.SubmitStockingOrder(ctx, account, request)
	if err != nil {
		return fmt.Errorf("ошибка подачи складского заказа %d: %w", id, err)
	}

	now := time.Now()
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		po.Confirmation = confirmation.Confirmation
		po.SubmittedAt = &now
		if err := s.purchaseRepo.Update(ctx, tx, po); err != nil {
			return err
		}
		for _, item := range items {
			item.OrderedAt = &now
			if err := s.purchaseRepo.UpdateItem(ctx, tx, item); err != nil {
				return err
			}
			if err := s.inventoryRepo.IncrementOrdered(ctx, tx, item.ProductID, s.cfg.Install.LocationID, item.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Складской заказ подан",
		zap.Uint64("purchase_order_id", id),
		zap.String("confirmation", po.Confirmation),
	)

	if po.OrderID == nil {
		return nil
	}
	if err := s.orderService.ApplyMilestone(ctx, *po.OrderID, constants.MilestoneProductsOrdered); err != nil {
		return err
	}
	_, err = s.orderService.Notify(ctx, *po.OrderID, constants.ActionPoCreated,
		fmt.Sprintf("Заказ поставщику %s подан", po.Confirmation))
	return err
}

// ReceiveItem принимает позицию на склад. Когда принята последняя позиция,
// заказ помечается прибывшим, а по заявке уходит уведомление о приходе
// товара (оно же двигает заявку на веху «детали получены»).
func (s *PurchaseService) ReceiveItem(ctx context.Context, itemID uint64, payload dto.ReceiveItemDTO) error {
	now := time.Now()

	var po *entities.PurchaseOrder
	var allReceived bool
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		item, err := s.purchaseRepo.FindItem(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item.IsReceived() {
			return apperrors.NewInvalidInputError("позиция %d уже принята", itemID)
		}
		po, err = s.purchaseRepo.FindByID(ctx, tx, item.PurchaseOrderID)
		if err != nil {
			return err
		}
		if !po.IsSubmitted() {
			return apperrors.NewInvalidInputError("заказ %d ещё не подан", po.ID)
		}

		item.ReceivedAt = &now
		if payload.SN != "" {
			item.SN = payload.SN
		}
		if err := s.purchaseRepo.UpdateItem(ctx, tx, item); err != nil {
			return err
		}
		if err := s.inventoryRepo.IncrementStocked(ctx, tx, item.ProductID, s.cfg.Install.LocationID, item.Amount); err != nil {
			return err
		}

		items, err := s.purchaseRepo.ListItems(ctx, tx, po.ID)
		if err != nil {
			return err
		}
		allReceived = true
		for _, other := range items {
			if !other.IsReceived() {
				allReceived = false
				break
			}
		}
		if allReceived && !po.HasArrived {
			po.HasArrived = true
			return s.purchaseRepo.Update(ctx, tx, po)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !allReceived || po.OrderID == nil {
		return nil
	}
	_, err = s.orderService.Notify(ctx, *po.OrderID, constants.ActionProductArrived,
		fmt.Sprintf("Товар по заказу %s поступил", po.Confirmation))
	if err != nil {
		// Заявка могла закрыться раньше прихода товара. Приёмка при этом
		// не откатывается.
		s.logger.Warn("Не удалось уведомить заявку о приходе товара",
			zap.Uint64("order_id", *po.OrderID), zap.Error(err))
	}
	return nil
}

// Cancel удаляет неподанный заказ вместе с позициями.
func (s *PurchaseService) Cancel(ctx context.Context, id uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		po, err := s.purchaseRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if po.IsSubmitted() {
			return apperrors.NewInvalidInputError("поданный заказ %d нельзя отменить", id)
		}
		items, err := s.purchaseRepo.ListItems(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.purchaseRepo.DeleteItem(ctx, tx, item.ID); err != nil {
				return err
			}
		}
		return s.purchaseRepo.Delete(ctx, tx, id)
	})
}
