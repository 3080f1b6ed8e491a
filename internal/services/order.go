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
	"servo-system/internal/events"
	"servo-system/internal/repositories"
	"servo-system/pkg/config"
	"servo-system/pkg/constants"
	"servo-system/pkg/eventbus"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/types"
	"servo-system/pkg/utils"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, payload dto.CreateOrderDTO) (*entities.Order, error)
	FindOrder(ctx context.Context, id uint64) (*entities.Order, error)
	GetOrders(ctx context.Context, filter types.Filter) ([]*entities.Order, uint64, error)
	UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO) error
	Duplicate(ctx context.Context, id uint64) (*entities.Order, error)

	Assign(ctx context.Context, id uint64, assigneeID uint64) error
	Unassign(ctx context.Context, id uint64) error
	SetQueue(ctx context.Context, id uint64, queueID uint64) error
	SetStatus(ctx context.Context, id uint64, queueStatusID uint64) error
	UnsetStatus(ctx context.Context, id uint64) error
	SetPriority(ctx context.Context, id uint64, priority int) error
	Close(ctx context.Context, id uint64) error
	Reopen(ctx context.Context, id uint64) error
	ApplyMilestone(ctx context.Context, id uint64, milestone string) error

	Notify(ctx context.Context, id uint64, action, description string) (uint64, error)

	AddFollower(ctx context.Context, id, userID uint64) error
	RemoveFollower(ctx context.Context, id, userID uint64) error
	ToggleFollower(ctx context.Context, id, userID uint64) (bool, error)
	AddTag(ctx context.Context, id, tagID uint64) error
	AddTagByTitle(ctx context.Context, id uint64, title string) error
	RemoveTag(ctx context.Context, id, tagID uint64) error
	AddDevice(ctx context.Context, id, deviceID uint64) error
	RemoveDevice(ctx context.Context, id, deviceID uint64) error
}

// OrderService — машина состояний сервисной заявки. Все мутирующие операции
// идут через одну транзакцию; события публикуются в шину после коммита.
type OrderService struct {
	txManager   repositories.TxManagerInterface
	orderRepo   repositories.OrderRepositoryInterface
	queueRepo   repositories.QueueRepositoryInterface
	eventRepo   repositories.EventRepositoryInterface
	userRepo    repositories.UserRepositoryInterface
	tagRepo     repositories.TagRepositoryInterface
	deviceRepo  repositories.DeviceRepositoryInterface
	repairRepo  repositories.RepairRepositoryInterface
	accountRepo repositories.GsxAccountRepositoryInterface
	timer       StatusTimerServiceInterface
	bus         *eventbus.Bus
	cfg         *config.Config
	logger      *zap.Logger
}

func NewOrderService(
	txManager repositories.TxManagerInterface,
	orderRepo repositories.OrderRepositoryInterface,
	queueRepo repositories.QueueRepositoryInterface,
	eventRepo repositories.EventRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	tagRepo repositories.TagRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	repairRepo repositories.RepairRepositoryInterface,
	accountRepo repositories.GsxAccountRepositoryInterface,
	timer StatusTimerServiceInterface,
	bus *eventbus.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) OrderServiceInterface {
	return &OrderService{
		txManager:   txManager,
		orderRepo:   orderRepo,
		queueRepo:   queueRepo,
		eventRepo:   eventRepo,
		userRepo:    userRepo,
		tagRepo:     tagRepo,
		deviceRepo:  deviceRepo,
		repairRepo:  repairRepo,
		accountRepo: accountRepo,
		timer:       timer,
		bus:         bus,
		cfg:         cfg,
		logger:      logger,
	}
}

// loadEditable возвращает заявку, пригодную для изменения.
// Для закрытой заявки любая мутация — ErrOrderClosed, без исключений.
func (s *OrderService) loadEditable(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if order.IsClosed() {
		return nil, apperrors.ErrOrderClosed
	}
	return order, nil
}

// notifyInTx пишет строку журнала события и возвращает её вместе с
// рассылкой: подписчики заявки минус инициатор и отключившие уведомления.
func (s *OrderService) notifyInTx(ctx context.Context, tx pgx.Tx, order *entities.Order, action, description string, userID uint64, now time.Time) (*entities.Event, error) {
	recipients := make([]uint64, 0, len(order.FollowerIDs))
	if len(order.FollowerIDs) > 0 {
		followers, err := s.userRepo.ListByIDs(ctx, order.FollowerIDs)
		if err != nil {
			return nil, err
		}
		for _, f := range followers {
			if f.ID == userID || !f.ShouldNotify {
				continue
			}
			recipients = append(recipients, f.ID)
		}
	}

	event := &entities.Event{
		OrderID:       order.ID,
		Action:        action,
		Description:   description,
		TriggeredByID: userID,
		TriggeredAt:   now,
		NotifyUserIDs: recipients,
	}
	id, err := s.eventRepo.Create(ctx, tx, event)
	if err != nil {
		return nil, err
	}
	event.ID = id
	return event, nil
}

// applyMilestone переводит заявку в статус-веху очереди, если веха задана.
// Отсутствие вехи — не ошибка: очередь может не отслеживать этот шаг.
func (s *OrderService) applyMilestone(ctx context.Context, tx pgx.Tx, order *entities.Order, milestoneID *uint64, userID uint64, now time.Time) error {
	if milestoneID == nil {
		return nil
	}
	if order.StatusID != nil && *order.StatusID == *milestoneID {
		return nil
	}
	qs, err := s.queueRepo.FindQueueStatus(ctx, tx, *milestoneID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewConfigurationError("статус-веха %d не найдена", *milestoneID)
		}
		return err
	}
	return s.timer.RecordStatusChange(ctx, tx, order, qs, userID, now)
}

// publish отправляет накопленные события в шину. Вызывается после коммита:
// слушатели не должны видеть незакоммиченные данные.
func (s *OrderService) publish(ctx context.Context, pending []events.OrderEvent) {
	for _, e := range pending {
		s.bus.Publish(ctx, e)
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, payload dto.CreateOrderDTO) (*entities.Order, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	order := &entities.Order{
		Description:   payload.Description,
		Priority:      constants.PrioNormal,
		State:         constants.StateQueued,
		QueueID:       payload.QueueID,
		UserID:        payload.UserID,
		CustomerName:  payload.CustomerName,
		CustomerPhone: payload.CustomerPhone,
		CustomerEmail: payload.CustomerEmail,
		CreatedByID:   userID,
	}
	if payload.Priority != nil {
		order.Priority = *payload.Priority
	}
	if payload.UserID != nil {
		order.State = constants.StateOpen
		order.StartedAt = &now
		order.StartedByID = &userID
	}

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.orderRepo.Create(ctx, tx, order)
		if err != nil {
			return err
		}
		order.ID = id

		// Код заявки: префикс инсталляции + порядковый номер. Назначается
		// один раз и больше не меняется.
		code := fmt.Sprintf("%s%06d", s.cfg.Install.ID, id)
		if err := s.orderRepo.SetCode(ctx, tx, id, code); err != nil {
			return err
		}
		order.Code = &code

		if order.QueueID != nil {
			queue, err := s.queueRepo.FindQueue(ctx, tx, *order.QueueID)
			if err != nil {
				return err
			}
			if err := s.applyMilestone(ctx, tx, order, queue.StatusCreatedID, userID, now); err != nil {
				return err
			}
			if payload.UserID != nil {
				if err := s.applyMilestone(ctx, tx, order, queue.StatusAssignedID, userID, now); err != nil {
					return err
				}
			}
			if err := s.orderRepo.Update(ctx, tx, order); err != nil {
				return err
			}
		}

		// Создатель автоматически подписан на уведомления.
		if err := s.orderRepo.AddFollower(ctx, tx, id, userID); err != nil {
			return err
		}
		if payload.UserID != nil {
			if err := s.orderRepo.AddFollower(ctx, tx, id, *payload.UserID); err != nil {
				return err
			}
		}

		event, err := s.notifyInTx(ctx, tx, order, constants.ActionCreated, "Заявка создана", userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderCreated(id, userID),
			events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	return order, nil
}

func (s *OrderService) FindOrder(ctx context.Context, id uint64) (*entities.Order, error) {
	return s.orderRepo.FindByID(ctx, nil, id)
}

func (s *OrderService) GetOrders(ctx context.Context, filter types.Filter) ([]*entities.Order, uint64, error) {
	return s.orderRepo.GetAll(ctx, filter)
}

func (s *OrderService) UpdateOrder(ctx context.Context, id uint64, payload dto.UpdateOrderDTO) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		if payload.Description.Valid {
			order.Description = payload.Description.String
		}
		if payload.CustomerName.Valid {
			order.CustomerName = payload.CustomerName.String
		}
		if payload.CustomerPhone.Valid {
			order.CustomerPhone = payload.CustomerPhone.String
		}
		if payload.CustomerEmail.Valid {
			order.CustomerEmail = payload.CustomerEmail.String
		}
		if payload.Priority.Valid {
			priority := int(payload.Priority.Int)
			if priority < constants.PrioLow || priority > constants.PrioHigh {
				return apperrors.NewInvalidInputError("недопустимый приоритет: %d", priority)
			}
			order.Priority = priority
		}
		s.logger.Debug("Заявка обновлена", zap.Uint64("order_id", id), zap.Uint64("user_id", userID))
		return s.orderRepo.Update(ctx, tx, order)
	})
}

// Duplicate создаёт копию заявки: описание, клиент и очередь переносятся,
// жизненный цикл начинается заново.
func (s *OrderService) Duplicate(ctx context.Context, id uint64) (*entities.Order, error) {
	source, err := s.orderRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return s.CreateOrder(ctx, dto.CreateOrderDTO{
		Description:   source.Description,
		Priority:      &source.Priority,
		QueueID:       source.QueueID,
		CustomerName:  source.CustomerName,
		CustomerPhone: source.CustomerPhone,
		CustomerEmail: source.CustomerEmail,
	})
}

// Assign назначает исполнителя. StartedAt ставится только при первом
// назначении: время взятия в работу не перезаписывается.
func (s *OrderService) Assign(ctx context.Context, id uint64, assigneeID uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		assignee, err := s.userRepo.FindByID(ctx, tx, assigneeID)
		if err != nil {
			return err
		}

		order.UserID = &assignee.ID
		order.State = constants.StateOpen
		if order.StartedAt == nil {
			order.StartedAt = &now
			order.StartedByID = &userID
		}

		if order.QueueID != nil {
			queue, err := s.queueRepo.FindQueue(ctx, tx, *order.QueueID)
			if err != nil {
				return err
			}
			if err := s.applyMilestone(ctx, tx, order, queue.StatusAssignedID, userID, now); err != nil {
				return err
			}
		}
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return err
		}
		if err := s.orderRepo.AddFollower(ctx, tx, id, assignee.ID); err != nil {
			return err
		}

		event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetUser,
			fmt.Sprintf("Исполнитель: %s", assignee.Fio), userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

func (s *OrderService) Unassign(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		previousAssignee := order.UserID
		order.UserID = nil
		order.State = constants.StateQueued
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return err
		}
		if previousAssignee != nil {
			if err := s.orderRepo.RemoveFollower(ctx, tx, id, *previousAssignee); err != nil {
				return err
			}
		}
		event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetUser, "Исполнитель снят", userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

// SetQueue переводит заявку в другую очередь: применяет её стартовую веху,
// перенимает её приоритет и переназначает учётную запись GSX у ещё не
// поданных ремонтов. queueID == 0 снимает очередь вместе со статусом.
func (s *OrderService) SetQueue(ctx context.Context, id uint64, queueID uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}

		if queueID == 0 {
			order.QueueID = nil
			if err := s.timer.RecordStatusChange(ctx, tx, order, nil, userID, now); err != nil {
				return err
			}
			if err := s.orderRepo.Update(ctx, tx, order); err != nil {
				return err
			}
			event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetQueue, "Очередь снята", userID, now)
			if err != nil {
				return err
			}
			pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
			return nil
		}

		queue, err := s.queueRepo.FindQueue(ctx, tx, queueID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewConfigurationError("очередь %d не найдена", queueID)
			}
			return err
		}

		order.QueueID = &queue.ID
		order.Priority = queue.Priority
		if err := s.applyMilestone(ctx, tx, order, queue.StatusCreatedID, userID, now); err != nil {
			return err
		}
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return err
		}

		if queue.GsxSoldTo != "" {
			account, err := s.accountRepo.FindBySoldTo(ctx, queue.GsxSoldTo)
			switch {
			case err == nil:
				if err := s.repairRepo.SetGsxAccountForOrder(ctx, tx, id, account.ID); err != nil {
					return err
				}
			case errors.Is(err, apperrors.ErrNotFound):
				s.logger.Warn("Sold-To очереди не привязан к учётной записи",
					zap.Uint64("queue_id", queue.ID),
					zap.String("sold_to", queue.GsxSoldTo),
				)
			default:
				return err
			}
		}

		event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetQueue,
			fmt.Sprintf("Очередь: %s", queue.Title), userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

func (s *OrderService) SetStatus(ctx context.Context, id uint64, queueStatusID uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		qs, err := s.queueRepo.FindQueueStatus(ctx, tx, queueStatusID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewConfigurationError("статус %d не найден", queueStatusID)
			}
			return err
		}
		if order.QueueID == nil {
			return apperrors.NewConfigurationError("заявка %d не находится в очереди", id)
		}
		if qs.QueueID != *order.QueueID {
			return apperrors.NewInvalidInputError("статус %d принадлежит другой очереди", queueStatusID)
		}

		if err := s.timer.RecordStatusChange(ctx, tx, order, qs, userID, now); err != nil {
			return err
		}
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return err
		}

		event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetStatus,
			fmt.Sprintf("Статус: %s", qs.StatusTitle), userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

func (s *OrderService) UnsetStatus(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.timer.RecordStatusChange(ctx, tx, order, nil, userID, now); err != nil {
			return err
		}
		return s.orderRepo.Update(ctx, tx, order)
	})
}

func (s *OrderService) SetPriority(ctx context.Context, id uint64, priority int) error {
	if priority < constants.PrioLow || priority > constants.PrioHigh {
		return apperrors.NewInvalidInputError("недопустимый приоритет: %d", priority)
	}
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		order.Priority = priority
		return s.orderRepo.Update(ctx, tx, order)
	})
}

// Close закрывает заявку. Повторное закрытие — ErrOrderClosed, как и любая
// другая мутация закрытой заявки.
func (s *OrderService) Close(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}

		if order.QueueID != nil {
			queue, err := s.queueRepo.FindQueue(ctx, tx, *order.QueueID)
			if err != nil {
				return err
			}
			if err := s.applyMilestone(ctx, tx, order, queue.StatusClosedID, userID, now); err != nil {
				return err
			}
		}

		order.State = constants.StateClosed
		order.ClosedAt = &now
		order.ClosedByID = &userID
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return err
		}

		event, err := s.notifyInTx(ctx, tx, order, constants.ActionCloseOrder, "Заявка закрыта", userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

// ApplyMilestone двигает заявку на именованную веху её очереди. Смежные
// модули (ремонты, заказы поставщику) отмечают прогресс именно так, не
// зная про конкретные статусы очередей.
func (s *OrderService) ApplyMilestone(ctx context.Context, id uint64, milestone string) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		if order.QueueID == nil {
			return nil
		}
		queue, err := s.queueRepo.FindQueue(ctx, tx, *order.QueueID)
		if err != nil {
			return err
		}
		if err := s.applyMilestone(ctx, tx, order, queue.MilestoneRef(milestone), userID, now); err != nil {
			return err
		}
		return s.orderRepo.Update(ctx, tx, order)
	})
}

// Reopen — единственная операция, допустимая для закрытой заявки.
func (s *OrderService) Reopen(ctx context.Context, id uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.orderRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if !order.IsClosed() {
			return apperrors.NewInvalidInputError("заявка %d не закрыта", id)
		}

		order.ClosedAt = nil
		order.ClosedByID = nil
		if order.UserID != nil {
			order.State = constants.StateOpen
		} else {
			order.State = constants.StateQueued
		}
		if err := s.orderRepo.Update(ctx, tx, order); err != nil {
			return err
		}

		event, err := s.notifyInTx(ctx, tx, order, constants.ActionReopen, "Заявка переоткрыта", userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

// Notify пишет событие в журнал заявки и рассылает его подписчикам.
// Приход товара дополнительно двигает заявку на веху «детали получены».
func (s *OrderService) Notify(ctx context.Context, id uint64, action, description string) (uint64, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()

	var pending []events.OrderEvent
	var eventID uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}

		if action == constants.ActionProductArrived && order.QueueID != nil {
			queue, err := s.queueRepo.FindQueue(ctx, tx, *order.QueueID)
			if err != nil {
				return err
			}
			if err := s.applyMilestone(ctx, tx, order, queue.StatusProductsReceivedID, userID, now); err != nil {
				return err
			}
			if err := s.orderRepo.Update(ctx, tx, order); err != nil {
				return err
			}
		}

		event, err := s.notifyInTx(ctx, tx, order, action, description, userID, now)
		if err != nil {
			return err
		}
		eventID = event.ID
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, pending)
	return eventID, nil
}

func (s *OrderService) AddFollower(ctx context.Context, id, userID uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadEditable(ctx, tx, id); err != nil {
			return err
		}
		return s.orderRepo.AddFollower(ctx, tx, id, userID)
	})
}

func (s *OrderService) RemoveFollower(ctx context.Context, id, userID uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadEditable(ctx, tx, id); err != nil {
			return err
		}
		return s.orderRepo.RemoveFollower(ctx, tx, id, userID)
	})
}

// ToggleFollower подписывает или отписывает пользователя и возвращает
// итоговое состояние подписки.
func (s *OrderService) ToggleFollower(ctx context.Context, id, userID uint64) (bool, error) {
	var following bool
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, followerID := range order.FollowerIDs {
			if followerID == userID {
				return s.orderRepo.RemoveFollower(ctx, tx, id, userID)
			}
		}
		following = true
		return s.orderRepo.AddFollower(ctx, tx, id, userID)
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

func (s *OrderService) AddTag(ctx context.Context, id, tagID uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		tag, err := s.tagRepo.FindByID(ctx, tx, tagID)
		if err != nil {
			return err
		}
		if err := s.orderRepo.AddTag(ctx, tx, id, tag.ID); err != nil {
			return err
		}
		event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetTag,
			fmt.Sprintf("Метка: %s", tag.Title), userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

// AddTagByTitle находит метку по имени или создаёт новую. Используется
// движком правил: правило оперирует именем, а не внутренним ID.
func (s *OrderService) AddTagByTitle(ctx context.Context, id uint64, title string) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		tag, err := s.tagRepo.FindByTitle(ctx, tx, title)
		if errors.Is(err, apperrors.ErrNotFound) {
			tagID, createErr := s.tagRepo.Create(ctx, tx, &entities.Tag{Title: title})
			if createErr != nil {
				return createErr
			}
			tag = &entities.Tag{ID: tagID, Title: title}
		} else if err != nil {
			return err
		}
		if err := s.orderRepo.AddTag(ctx, tx, id, tag.ID); err != nil {
			return err
		}
		event, err := s.notifyInTx(ctx, tx, order, constants.ActionSetTag,
			fmt.Sprintf("Метка: %s", tag.Title), userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

func (s *OrderService) RemoveTag(ctx context.Context, id, tagID uint64) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := s.loadEditable(ctx, tx, id); err != nil {
			return err
		}
		return s.orderRepo.RemoveTag(ctx, tx, id, tagID)
	})
}

func (s *OrderService) AddDevice(ctx context.Context, id, deviceID uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		device, err := s.deviceRepo.FindByID(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		if err := s.orderRepo.AddDevice(ctx, tx, id, device.ID); err != nil {
			return err
		}
		event, err := s.notifyInTx(ctx, tx, order, constants.ActionDeviceAdded,
			fmt.Sprintf("Устройство: %s", device.Description), userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}

func (s *OrderService) RemoveDevice(ctx context.Context, id, deviceID uint64) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()

	var pending []events.OrderEvent
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.loadEditable(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.orderRepo.RemoveDevice(ctx, tx, id, deviceID); err != nil {
			return err
		}
		event, err := s.notifyInTx(ctx, tx, order, constants.ActionDeviceRemoved, "Устройство откреплено", userID, now)
		if err != nil {
			return err
		}
		pending = append(pending, events.NewOrderNotified(id, event.ID, event.Action, event.Description, userID))
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pending)
	return nil
}
