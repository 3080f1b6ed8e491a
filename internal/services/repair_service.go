package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/integrations/gsx"
	"servo-system/internal/repositories"
	"servo-system/pkg/constants"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/utils"
)

type RepairServiceInterface interface {
	Create(ctx context.Context, payload dto.CreateRepairDTO) (*entities.Repair, error)
	FindRepair(ctx context.Context, id uint64) (*entities.Repair, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Repair, error)
	ListParts(ctx context.Context, repairID uint64) ([]*entities.ServicePart, error)

	Submit(ctx context.Context, id uint64) error
	Close(ctx context.Context, id uint64) error
	CanMarkComplete(ctx context.Context, id uint64) (bool, error)

	RefreshDetails(ctx context.Context, id uint64) error
	RefreshStatuses(ctx context.Context) (int, error)

	CreateFromRemote(ctx context.Context, payload dto.ImportRepairDTO) (*entities.Repair, error)
	ResendPart(ctx context.Context, partID uint64) (*entities.ServicePart, error)
	Duplicate(ctx context.Context, id uint64) (*entities.Repair, error)
}

// RepairService — жизненный цикл ремонтного протокола: локальный черновик,
// подача во внешнюю систему, сверка деталей и закрытие.
type RepairService struct {
	txManager    repositories.TxManagerInterface
	repairRepo   repositories.RepairRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	itemRepo     repositories.OrderItemRepositoryInterface
	purchaseRepo repositories.PurchaseRepositoryInterface
	deviceRepo   repositories.DeviceRepositoryInterface
	accountRepo  repositories.GsxAccountRepositoryInterface
	gsxClient    gsx.ClientInterface
	orderService OrderServiceInterface
	logger       *zap.Logger
}

func NewRepairService(
	txManager repositories.TxManagerInterface,
	repairRepo repositories.RepairRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	itemRepo repositories.OrderItemRepositoryInterface,
	purchaseRepo repositories.PurchaseRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	accountRepo repositories.GsxAccountRepositoryInterface,
	gsxClient gsx.ClientInterface,
	orderService OrderServiceInterface,
	logger *zap.Logger,
) RepairServiceInterface {
	return &RepairService{
		txManager:    txManager,
		repairRepo:   repairRepo,
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		purchaseRepo: purchaseRepo,
		deviceRepo:   deviceRepo,
		accountRepo:  accountRepo,
		gsxClient:    gsxClient,
		orderService: orderService,
		logger:       logger,
	}
}

// loadEditableOrder повторяет инвариант машины состояний заявки:
// ремонты закрытой заявки не изменяются.
func (s *RepairService) loadEditableOrder(ctx context.Context, tx pgx.Tx, orderID uint64) (*entities.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsClosed() {
		return nil, apperrors.ErrOrderClosed
	}
	return order, nil
}

func (s *RepairService) Create(ctx context.Context, payload dto.CreateRepairDTO) (*entities.Repair, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	repair := &entities.Repair{
		OrderID:        payload.OrderID,
		DeviceID:       payload.DeviceID,
		GsxAccountID:   payload.GsxAccountID,
		RepairType:     payload.RepairType,
		Symptom:        payload.Symptom,
		Diagnosis:      payload.Diagnosis,
		Notes:          payload.Notes,
		Reference:      payload.Reference,
		TechID:         payload.TechID,
		UnitReceivedAt: payload.UnitReceivedAt,
		MarkComplete:   payload.MarkComplete,
		ReplacementSN:  payload.ReplacementSN,
		RequestReview:  payload.RequestReview,
		ConsumerLaw:    payload.ConsumerLaw,
		AcPlus:         payload.AcPlus,
		CreatedByID:    userID,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadEditableOrder(ctx, tx, payload.OrderID); err != nil {
			return err
		}
		if _, err := s.deviceRepo.FindByID(ctx, tx, payload.DeviceID); err != nil {
			return err
		}
		if _, err := s.accountRepo.FindByID(ctx, tx, payload.GsxAccountID); err != nil {
			return err
		}

		items := make([]*entities.ServiceOrderItem, 0, len(payload.OrderItemIDs))
		replacements := 0
		for _, itemID := range payload.OrderItemIDs {
			item, err := s.itemRepo.FindByID(ctx, tx, itemID)
			if err != nil {
				return err
			}
			if item.OrderID != payload.OrderID {
				return apperrors.NewInvalidInputError("позиция %d принадлежит другой заявке", itemID)
			}
			if item.PartType == constants.PartTypeReplacement {
				replacements++
			}
			items = append(items, item)
		}
		if payload.MarkComplete && replacements != 1 {
			return apperrors.NewInvalidInputError(
				"mark_complete допустим только с одной заменяемой деталью, найдено %d", replacements)
		}

		id, err := s.repairRepo.Create(ctx, tx, repair)
		if err != nil {
			return err
		}
		repair.ID = id

		for i, item := range items {
			itemID := item.ID
			part := &entities.ServicePart{
				RepairID:        id,
				OrderItemID:     &itemID,
				Code:            item.Code,
				Title:           item.Title,
				ComptiaCode:     item.ComptiaCode,
				ComptiaModifier: item.ComptiaModifier,
				SequenceNo:      i + 1,
			}
			if _, err := s.repairRepo.CreatePart(ctx, tx, part); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return repair, nil
}

func (s *RepairService) FindRepair(ctx context.Context, id uint64) (*entities.Repair, error) {
	return s.repairRepo.FindByID(ctx, nil, id)
}

func (s *RepairService) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Repair, error) {
	return s.repairRepo.ListByOrder(ctx, orderID)
}

func (s *RepairService) ListParts(ctx context.Context, repairID uint64) ([]*entities.ServicePart, error) {
	return s.repairRepo.ListParts(ctx, nil, repairID)
}

// CanMarkComplete — ремонт можно отметить завершённым при подаче только
// когда в нём ровно одна деталь, и эта деталь заменяемая.
func (s *RepairService) CanMarkComplete(ctx context.Context, id uint64) (bool, error) {
	parts, err := s.repairRepo.ListParts(ctx, nil, id)
	if err != nil {
		return false, err
	}
	if len(parts) != 1 {
		return false, nil
	}
	// Деталь без позиции заявки (импорт из внешней системы) — тип неизвестен.
	if parts[0].OrderItemID == nil {
		return false, nil
	}
	item, err := s.itemRepo.FindByID(ctx, nil, *parts[0].OrderItemID)
	if err != nil {
		return false, err
	}
	return item.PartType == constants.PartTypeReplacement, nil
}

// Submit подаёт черновик во внешнюю систему. При успехе ремонт получает
// номер подтверждения, а по деталям автоматически создаётся заказ
// поставщику (один на ремонт).
func (s *RepairService) Submit(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	repair, err := s.repairRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if repair.IsSubmitted() {
		return apperrors.NewInvalidInputError("ремонт %d уже подан", id)
	}

	order, err := s.loadEditableOrder(ctx, nil, repair.OrderID)
	if err != nil {
		return err
	}
	device, err := s.deviceRepo.FindByID(ctx, nil, repair.DeviceID)
	if err != nil {
		return err
	}
	account, err := s.accountRepo.FindByID(ctx, nil, repair.GsxAccountID)
	if err != nil {
		return err
	}
	parts, err := s.repairRepo.ListParts(ctx, nil, id)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return apperrors.NewInvalidInputError("ремонт %d подаётся без деталей", id)
	}
	if repair.MarkComplete {
		ok, err := s.CanMarkComplete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewInvalidInputError(
				"mark_complete допустим только с одной заменяемой деталью")
		}
	}

	request := gsx.CreateRepairRequest{
		RepairType:     repair.RepairType,
		Notes:          repair.Notes,
		Symptom:        repair.Symptom,
		Diagnosis:      repair.Diagnosis,
		Reference:      repair.Reference,
		SerialNumber:   device.SN,
		UnitReceivedAt: repair.UnitReceivedAt,
		MarkComplete:   repair.MarkComplete,
		ReplacementSN:  repair.ReplacementSN,
		RequestReview:  repair.RequestReview,
		ConsumerLaw:    repair.ConsumerLaw,
		AcPlus:         repair.AcPlus,
		Customer: gsx.CustomerInfo{
			Name:  order.CustomerName,
			Phone: order.CustomerPhone,
			Email: order.CustomerEmail,
		},
	}
	for _, part := range parts {
		request.Parts = append(request.Parts, gsx.RepairPartRequest{
			Code:            part.Code,
			ComptiaCode:     part.ComptiaCode,
			ComptiaModifier: part.ComptiaModifier,
			CoverageCode:    part.CoverageCode,
		})
	}

	confirmation, err := s.gsxClient.CreateRepair(ctx, account, request)
	if err != nil {
		return fmt.Errorf("ошибка подачи ремонта %d: %w", id, err)
	}

	now := time.Now()
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair.Confirmation = confirmation.Confirmation
		repair.SubmittedAt = &now
		repair.Status = confirmation.Outcome
		if err := s.repairRepo.Update(ctx, tx, repair); err != nil {
			return err
		}
		if err := s.reconcileParts(ctx, tx, parts, confirmation.Parts); err != nil {
			return err
		}
		return s.createPurchaseOrder(ctx, tx, repair, parts, now, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Ремонт подан во внешнюю систему",
		zap.Uint64("repair_id", id),
		zap.String("confirmation", repair.Confirmation),
	)

	if err := s.orderService.ApplyMilestone(ctx, repair.OrderID, constants.MilestoneProductsOrdered); err != nil {
		return err
	}
	_, err = s.orderService.Notify(ctx, repair.OrderID, constants.ActionRepairCreated,
		fmt.Sprintf("Ремонт %s подан", repair.Confirmation))
	return err
}

// createPurchaseOrder создаёт заказ поставщику по деталям ремонта.
// На ремонт создаётся не больше одного заказа.
func (s *RepairService) createPurchaseOrder(ctx context.Context, tx pgx.Tx, repair *entities.Repair, parts []*entities.ServicePart, now time.Time, userID uint64) error {
	if _, err := s.purchaseRepo.FindByRepair(ctx, tx, repair.ID); err == nil {
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	po := &entities.PurchaseOrder{
		OrderID:      &repair.OrderID,
		RepairID:     &repair.ID,
		SupplierName: "GSX",
		Reference:    repair.Confirmation,
		SubmittedAt:  &now,
		CreatedByID:  userID,
	}
	poID, err := s.purchaseRepo.Create(ctx, tx, po)
	if err != nil {
		return err
	}

	for _, part := range parts {
		if part.OrderItemID == nil {
			continue
		}
		item, err := s.itemRepo.FindByID(ctx, tx, *part.OrderItemID)
		if err != nil {
			return err
		}
		partID := part.ID
		line := &entities.PurchaseOrderItem{
			PurchaseOrderID: poID,
			ProductID:       item.ProductID,
			OrderItemID:     part.OrderItemID,
			ServicePartID:   &partID,
			Code:            part.Code,
			Title:           part.Title,
			Amount:          1,
			Price:           item.Price,
			OrderedAt:       &now,
		}
		if _, err := s.purchaseRepo.CreateItem(ctx, tx, line); err != nil {
			return err
		}
	}
	return nil
}

// reconcileParts сопоставляет локальные детали с ответом внешней системы
// по позиции: порядок строк в ответе совпадает с порядком подачи.
func (s *RepairService) reconcileParts(ctx context.Context, tx pgx.Tx, parts []*entities.ServicePart, details []gsx.RepairPartDetail) error {
	n := len(parts)
	if len(details) < n {
		n = len(details)
	}
	for i := 0; i < n; i++ {
		part := parts[i]
		detail := details[i]

		part.OrderStatus = detail.OrderStatus
		part.ReturnOrder = detail.ReturnOrder
		part.ReturnStatus = detail.ReturnStatus
		part.ReturnCode = detail.ReturnCode
		if detail.Code != "" {
			part.PartNumber = detail.Code
		}
		if detail.SequenceNo > 0 {
			part.SequenceNo = detail.SequenceNo
		}
		if detail.ComptiaCode != "" {
			part.ComptiaCode = detail.ComptiaCode
		}
		if detail.ComptiaModifier != "" {
			part.ComptiaModifier = detail.ComptiaModifier
		}

		if err := s.repairRepo.UpdatePart(ctx, tx, part); err != nil {
			return err
		}
	}
	return nil
}

// RefreshDetails подтягивает полное состояние ремонта и сверяет детали.
func (s *RepairService) RefreshDetails(ctx context.Context, id uint64) error {
	repair, err := s.repairRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if !repair.IsSubmitted() {
		return apperrors.NewInvalidInputError("ремонт %d ещё не подан", id)
	}
	account, err := s.accountRepo.FindByID(ctx, nil, repair.GsxAccountID)
	if err != nil {
		return err
	}

	details, err := s.gsxClient.RepairDetails(ctx, account, repair.Confirmation)
	if err != nil {
		return fmt.Errorf("ошибка запроса состояния ремонта %s: %w", repair.Confirmation, err)
	}

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair.Status = details.Status
		repair.StatusCode = details.StatusCode
		if err := s.repairRepo.Update(ctx, tx, repair); err != nil {
			return err
		}
		parts, err := s.repairRepo.ListParts(ctx, tx, id)
		if err != nil {
			return err
		}
		return s.reconcileParts(ctx, tx, parts, details.Parts)
	})
}

// RefreshStatuses батчево опрашивает статусы всех открытых поданных
// ремонтов. Возвращает количество изменившихся.
func (s *RepairService) RefreshStatuses(ctx context.Context) (int, error) {
	repairs, err := s.repairRepo.ListOpenSubmitted(ctx)
	if err != nil {
		return 0, err
	}
	if len(repairs) == 0 {
		return 0, nil
	}

	// Опрос идёт отдельным батчем на каждую учётную запись.
	byAccount := make(map[uint64][]*entities.Repair)
	for _, repair := range repairs {
		byAccount[repair.GsxAccountID] = append(byAccount[repair.GsxAccountID], repair)
	}

	changed := 0
	for accountID, batch := range byAccount {
		account, err := s.accountRepo.FindByID(ctx, nil, accountID)
		if err != nil {
			s.logger.Error("Учётная запись для опроса не найдена",
				zap.Uint64("gsx_account_id", accountID), zap.Error(err))
			continue
		}

		confirmations := make([]string, 0, len(batch))
		byConfirmation := make(map[string]*entities.Repair, len(batch))
		for _, repair := range batch {
			confirmations = append(confirmations, repair.Confirmation)
			byConfirmation[repair.Confirmation] = repair
		}

		statuses, err := s.gsxClient.RepairStatus(ctx, account, confirmations)
		if err != nil {
			s.logger.Error("Ошибка батчевого опроса статусов",
				zap.Uint64("gsx_account_id", accountID), zap.Error(err))
			continue
		}

		for _, status := range statuses {
			repair, ok := byConfirmation[status.Confirmation]
			if !ok || repair.Status == status.Status {
				continue
			}
			previous := repair.Status
			repair.Status = status.Status
			repair.StatusCode = status.StatusCode
			err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
				return s.repairRepo.Update(ctx, tx, repair)
			})
			if err != nil {
				s.logger.Error("Ошибка сохранения статуса ремонта",
					zap.Uint64("repair_id", repair.ID), zap.Error(err))
				continue
			}
			changed++
			s.logger.Info("Статус ремонта изменился",
				zap.String("confirmation", repair.Confirmation),
				zap.String("from", previous),
				zap.String("to", repair.Status),
			)
			if _, err := s.orderService.Notify(ctx, repair.OrderID, constants.ActionRepairStatus,
				fmt.Sprintf("Ремонт %s: %s", repair.Confirmation, repair.Status)); err != nil {
				s.logger.Error("Ошибка уведомления о смене статуса",
					zap.Uint64("order_id", repair.OrderID), zap.Error(err))
			}
		}
	}
	return changed, nil
}

// Close завершает ремонт во внешней системе и переставляет серийники.
// Повторный вызов для уже закрытого ремонта — no-op: закрытие должно быть
// безопасным при повторах.
func (s *RepairService) Close(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}

	repair, err := s.repairRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if repair.IsClosed() {
		return nil
	}
	if !repair.IsSubmitted() {
		return apperrors.NewInvalidInputError("ремонт %d ещё не подан", id)
	}
	account, err := s.accountRepo.FindByID(ctx, nil, repair.GsxAccountID)
	if err != nil {
		return err
	}

	// Серийники переставляются до завершения: завершённый во внешней
	// системе ремонт может быть уже недоступен для правок.
	parts, err := s.repairRepo.ListParts(ctx, nil, id)
	if err != nil {
		return err
	}
	updates, err := s.serialUpdates(ctx, parts)
	if err != nil {
		return err
	}
	if len(updates) > 0 {
		if err := s.gsxClient.UpdateSerialNumbers(ctx, account, repair.Confirmation, updates); err != nil {
			if !gsx.IsToleratedOnClose(err) {
				return fmt.Errorf("ошибка обновления серийников ремонта %s: %w", repair.Confirmation, err)
			}
			s.logger.Warn("Обновление серийников отклонено внешней системой",
				zap.String("confirmation", repair.Confirmation), zap.Error(err))
		}
	}

	// Ряд кодов ошибок означает, что внешняя система уже считает ремонт
	// завершённым — такие ответы не прерывают закрытие.
	if err := s.gsxClient.MarkRepairComplete(ctx, account, repair.Confirmation, repair.ReplacementSN); err != nil {
		if !gsx.IsToleratedOnClose(err) {
			return fmt.Errorf("ошибка завершения ремонта %s: %w", repair.Confirmation, err)
		}
		s.logger.Warn("Ремонт уже завершён во внешней системе",
			zap.String("confirmation", repair.Confirmation), zap.Error(err))
	}

	now := time.Now()
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		repair.CompletedAt = &now
		repair.CompletedByID = &userID
		return s.repairRepo.Update(ctx, tx, repair)
	})
	if err != nil {
		return err
	}

	// При автозавершении ремонтов заявка уже закрыта: веху и уведомление
	// в этом случае пропускаем, само завершение остаётся в силе.
	if err := s.orderService.ApplyMilestone(ctx, repair.OrderID, constants.MilestoneRepairCompleted); err != nil {
		if errors.Is(err, apperrors.ErrOrderClosed) {
			return nil
		}
		return err
	}
	_, err = s.orderService.Notify(ctx, repair.OrderID, constants.ActionRepairStatus,
		fmt.Sprintf("Ремонт %s завершён", repair.Confirmation))
	if errors.Is(err, apperrors.ErrOrderClosed) {
		return nil
	}
	return err
}

// serialUpdates собирает перестановки серийников по деталям ремонта.
// GPR и «Convert To Stock» пропускаются, как и детали без позиции заявки.
func (s *RepairService) serialUpdates(ctx context.Context, parts []*entities.ServicePart) ([]gsx.SerialUpdate, error) {
	updates := make([]gsx.SerialUpdate, 0, len(parts))
	for _, part := range parts {
		if !part.ShouldUpdateSN() || part.OrderItemID == nil {
			continue
		}
		item, err := s.itemRepo.FindByID(ctx, nil, *part.OrderItemID)
		if err != nil {
			return nil, err
		}
		if item.SN == "" {
			continue
		}
		updates = append(updates, gsx.SerialUpdate{
			Code:  part.Code,
			NewSN: item.SN,
			OldSN: item.KbbSN,
			IMEI:  item.IMEI,
		})
	}
	return updates, nil
}

// CreateFromRemote импортирует существующий во внешней системе ремонт
// по номеру подтверждения. Детали импортируются без привязки к позициям
// заявки.
func (s *RepairService) CreateFromRemote(ctx context.Context, payload dto.ImportRepairDTO) (*entities.Repair, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.repairRepo.FindByConfirmation(ctx, payload.Confirmation); err == nil {
		return nil, apperrors.ErrConflict
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	account, err := s.accountRepo.FindByID(ctx, nil, payload.GsxAccountID)
	if err != nil {
		return nil, err
	}
	details, err := s.gsxClient.RepairDetails(ctx, account, payload.Confirmation)
	if err != nil {
		return nil, fmt.Errorf("ошибка импорта ремонта %s: %w", payload.Confirmation, err)
	}

	now := time.Now()
	repair := &entities.Repair{
		OrderID:      payload.OrderID,
		DeviceID:     payload.DeviceID,
		GsxAccountID: payload.GsxAccountID,
		Notes:        details.Notes,
		CreatedByID:  userID,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadEditableOrder(ctx, tx, payload.OrderID); err != nil {
			return err
		}
		id, err := s.repairRepo.Create(ctx, tx, repair)
		if err != nil {
			return err
		}
		repair.ID = id
		repair.Confirmation = details.Confirmation
		repair.SubmittedAt = &now
		repair.Status = details.Status
		repair.StatusCode = details.StatusCode
		repair.CompletedAt = details.CompletedAt
		if err := s.repairRepo.Update(ctx, tx, repair); err != nil {
			return err
		}

		for i, detail := range details.Parts {
			part := &entities.ServicePart{
				RepairID:        id,
				Code:            detail.Code,
				Title:           detail.Title,
				ComptiaCode:     detail.ComptiaCode,
				ComptiaModifier: detail.ComptiaModifier,
				SequenceNo:      i + 1,
			}
			if detail.SequenceNo > 0 {
				part.SequenceNo = detail.SequenceNo
			}
			partID, err := s.repairRepo.CreatePart(ctx, tx, part)
			if err != nil {
				return err
			}
			part.ID = partID
			part.OrderStatus = detail.OrderStatus
			part.ReturnOrder = detail.ReturnOrder
			part.ReturnStatus = detail.ReturnStatus
			part.ReturnCode = detail.ReturnCode
			part.PartNumber = detail.Code
			if err := s.repairRepo.UpdatePart(ctx, tx, part); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Ремонт импортирован",
		zap.Uint64("repair_id", repair.ID),
		zap.String("confirmation", repair.Confirmation),
	)
	return repair, nil
}

// ResendPart оформляет повторную отправку бракованной детали (DOA).
// Исходная деталь остаётся в истории, новая ссылается на неё.
func (s *RepairService) ResendPart(ctx context.Context, partID uint64) (*entities.ServicePart, error) {
	var replacement *entities.ServicePart
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		part, err := s.repairRepo.FindPart(ctx, tx, partID)
		if err != nil {
			return err
		}
		repair, err := s.repairRepo.FindByID(ctx, tx, part.RepairID)
		if err != nil {
			return err
		}
		if !repair.IsSubmitted() {
			return apperrors.NewInvalidInputError("ремонт %d ещё не подан", repair.ID)
		}
		if repair.IsClosed() {
			return apperrors.NewInvalidInputError("ремонт %d уже завершён", repair.ID)
		}

		parts, err := s.repairRepo.ListParts(ctx, tx, repair.ID)
		if err != nil {
			return err
		}
		replacement = part.DeriveReplacement()
		replacement.SequenceNo = len(parts) + 1
		id, err := s.repairRepo.CreatePart(ctx, tx, replacement)
		if err != nil {
			return err
		}
		replacement.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// Duplicate создаёт новый черновик по образцу: данные и детали переносятся,
// состояние подачи — нет.
func (s *RepairService) Duplicate(ctx context.Context, id uint64) (*entities.Repair, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	source, err := s.repairRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	parts, err := s.repairRepo.ListParts(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	duplicate := &entities.Repair{
		OrderID:        source.OrderID,
		DeviceID:       source.DeviceID,
		GsxAccountID:   source.GsxAccountID,
		RepairType:     source.RepairType,
		Symptom:        source.Symptom,
		Diagnosis:      source.Diagnosis,
		Notes:          source.Notes,
		TechID:         source.TechID,
		UnitReceivedAt: source.UnitReceivedAt,
		Reference:      source.Reference,
		MarkComplete:   source.MarkComplete,
		ReplacementSN:  source.ReplacementSN,
		RequestReview:  source.RequestReview,
		ConsumerLaw:    source.ConsumerLaw,
		AcPlus:         source.AcPlus,
		CreatedByID:    userID,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadEditableOrder(ctx, tx, source.OrderID); err != nil {
			return err
		}
		newID, err := s.repairRepo.Create(ctx, tx, duplicate)
		if err != nil {
			return err
		}
		duplicate.ID = newID

		for _, part := range parts {
			clone := &entities.ServicePart{
				RepairID:        newID,
				OrderItemID:     part.OrderItemID,
				Code:            part.Code,
				Title:           part.Title,
				ComptiaCode:     part.ComptiaCode,
				ComptiaModifier: part.ComptiaModifier,
				CoverageCode:    part.CoverageCode,
				SequenceNo:      part.SequenceNo,
			}
			if _, err := s.repairRepo.CreatePart(ctx, tx, clone); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return duplicate, nil
}
