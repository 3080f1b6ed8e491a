package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"servo-system/internal/entities"
	"servo-system/internal/repositories"
	apperrors "servo-system/pkg/errors"
)

// StatusTimerServiceInterface ведёт таймер статуса заявки: считает дедлайны
// SLA при входе в статус и пишет историю переходов.
type StatusTimerServiceInterface interface {
	Deadlines(qs *entities.QueueStatus, from time.Time) (green, yellow time.Time)
	Badge(order *entities.Order, now time.Time) string
	RecordStatusChange(ctx context.Context, tx pgx.Tx, order *entities.Order, newStatus *entities.QueueStatus, userID uint64, now time.Time) error
}

type StatusTimerService struct {
	historyRepo repositories.OrderHistoryRepositoryInterface
	logger      *zap.Logger
}

func NewStatusTimerService(
	historyRepo repositories.OrderHistoryRepositoryInterface,
	logger *zap.Logger,
) StatusTimerServiceInterface {
	return &StatusTimerService{historyRepo: historyRepo, logger: logger}
}

// Deadlines считает пороги SLA один раз при входе в статус. Дальше они
// не пересчитываются: бейдж сравнивает «сейчас» с зафиксированными порогами.
func (s *StatusTimerService) Deadlines(qs *entities.QueueStatus, from time.Time) (time.Time, time.Time) {
	green := from.Add(time.Duration(qs.LimitGreen*qs.LimitFactor) * time.Second)
	yellow := from.Add(time.Duration(qs.LimitYellow*qs.LimitFactor) * time.Second)
	return green, yellow
}

func (s *StatusTimerService) Badge(order *entities.Order, now time.Time) string {
	return order.GetColor(now)
}

// RecordStatusChange закрывает открытую строку истории (если есть) и,
// если задан новый статус, открывает новую. Кешированные поля заявки
// обновляются в памяти; сохранить заявку — обязанность вызывающего.
// Переходы одной операции связываются общим tx_id.
func (s *StatusTimerService) RecordStatusChange(ctx context.Context, tx pgx.Tx, order *entities.Order, newStatus *entities.QueueStatus, userID uint64, now time.Time) error {
	txID := uuid.New()

	open, err := s.historyRepo.FindOpenByOrder(ctx, tx, order.ID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if open != nil {
		badge := order.GetColor(now)
		duration := int64(now.Sub(open.StartedAt).Seconds())
		if err := s.historyRepo.Finish(ctx, tx, open.ID, now, userID, badge, duration); err != nil {
			// Строка уже завершена кем-то другим - это не повод ронять переход.
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			s.logger.Warn("Строка истории уже завершена",
				zap.Uint64("order_id", order.ID),
				zap.Uint64("history_id", open.ID),
			)
		}
	}

	if newStatus == nil {
		order.StatusID = nil
		order.StatusName = ""
		order.StatusStartedAt = nil
		order.StatusLimitGreen = nil
		order.StatusLimitYellow = nil
		return nil
	}

	green, yellow := s.Deadlines(newStatus, now)

	entry := &entities.OrderStatusHistory{
		OrderID:     order.ID,
		StatusID:    newStatus.ID,
		StatusTitle: newStatus.StatusTitle,
		StartedAt:   now,
		StartedByID: userID,
		GreenLimit:  &green,
		YellowLimit: &yellow,
		TxID:        &txID,
	}
	if _, err := s.historyRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	order.StatusID = &newStatus.ID
	order.StatusName = newStatus.StatusTitle
	order.StatusStartedAt = &now
	order.StatusLimitGreen = &green
	order.StatusLimitYellow = &yellow
	return nil
}
