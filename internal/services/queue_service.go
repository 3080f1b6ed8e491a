package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/repositories"
	apperrors "servo-system/pkg/errors"
)

type QueueServiceInterface interface {
	GetQueues(ctx context.Context) ([]*entities.Queue, error)
	FindQueue(ctx context.Context, id uint64) (*entities.Queue, error)
	CreateQueue(ctx context.Context, payload dto.CreateQueueDTO) (*entities.Queue, error)
	UpdateQueue(ctx context.Context, id uint64, payload dto.UpdateQueueDTO) error
	SetMilestone(ctx context.Context, id uint64, payload dto.SetQueueMilestoneDTO) error

	GetStatuses(ctx context.Context) ([]*entities.Status, error)
	CreateStatus(ctx context.Context, payload dto.CreateStatusDTO) (*entities.Status, error)

	GetQueueStatuses(ctx context.Context, queueID uint64) ([]*entities.QueueStatus, error)
	AddStatusToQueue(ctx context.Context, queueID uint64, payload dto.CreateQueueStatusDTO) (*entities.QueueStatus, error)
}

// QueueService — справочник очередей и их статусов. Вехи жизненного цикла
// настраиваются здесь, а применяет их уже OrderService.
type QueueService struct {
	txManager repositories.TxManagerInterface
	queueRepo repositories.QueueRepositoryInterface
	logger    *zap.Logger
}

func NewQueueService(
	txManager repositories.TxManagerInterface,
	queueRepo repositories.QueueRepositoryInterface,
	logger *zap.Logger,
) QueueServiceInterface {
	return &QueueService{
		txManager: txManager,
		queueRepo: queueRepo,
		logger:    logger,
	}
}

func (s *QueueService) GetQueues(ctx context.Context) ([]*entities.Queue, error) {
	return s.queueRepo.GetQueues(ctx)
}

func (s *QueueService) FindQueue(ctx context.Context, id uint64) (*entities.Queue, error) {
	return s.queueRepo.FindQueue(ctx, nil, id)
}

func (s *QueueService) CreateQueue(ctx context.Context, payload dto.CreateQueueDTO) (*entities.Queue, error) {
	queue := &entities.Queue{
		Title:       payload.Title,
		Description: payload.Description,
		Keywords:    payload.Keywords,
		Priority:    payload.Priority,
		GsxSoldTo:   payload.GsxSoldTo,
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.queueRepo.CreateQueue(ctx, tx, queue)
		if err != nil {
			return err
		}
		queue.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Очередь создана", zap.Uint64("queue_id", queue.ID), zap.String("title", queue.Title))
	return queue, nil
}

func (s *QueueService) UpdateQueue(ctx context.Context, id uint64, payload dto.UpdateQueueDTO) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		queue, err := s.queueRepo.FindQueue(ctx, tx, id)
		if err != nil {
			return err
		}

		if payload.Title.Valid {
			queue.Title = payload.Title.String
		}
		if payload.Description.Valid {
			queue.Description = payload.Description.String
		}
		if payload.Keywords.Valid {
			queue.Keywords = payload.Keywords.String
		}
		if payload.Priority.Valid {
			priority := int(payload.Priority.Int)
			if priority < 0 || priority > 2 {
				return apperrors.NewInvalidInputError("приоритет должен быть в диапазоне 0..2")
			}
			queue.Priority = priority
		}
		if payload.GsxSoldTo.Valid {
			queue.GsxSoldTo = payload.GsxSoldTo.String
		}

		return s.queueRepo.UpdateQueue(ctx, tx, queue)
	})
}

// SetMilestone привязывает статус очереди к вехе. Статус обязан
// принадлежать той же очереди, чужие ссылки не принимаются.
func (s *QueueService) SetMilestone(ctx context.Context, id uint64, payload dto.SetQueueMilestoneDTO) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		queue, err := s.queueRepo.FindQueue(ctx, tx, id)
		if err != nil {
			return err
		}

		var ref *uint64
		if payload.QueueStatusID != 0 {
			qs, err := s.queueRepo.FindQueueStatus(ctx, tx, payload.QueueStatusID)
			if err != nil {
				return err
			}
			if qs.QueueID != queue.ID {
				return apperrors.NewInvalidInputError("статус %d принадлежит другой очереди", qs.ID)
			}
			ref = &qs.ID
		}

		if !queue.SetMilestoneRef(payload.Milestone, ref) {
			return apperrors.NewInvalidInputError("неизвестная веха: %s", payload.Milestone)
		}
		return s.queueRepo.UpdateQueue(ctx, tx, queue)
	})
}

func (s *QueueService) GetStatuses(ctx context.Context) ([]*entities.Status, error) {
	return s.queueRepo.GetStatuses(ctx)
}

func (s *QueueService) CreateStatus(ctx context.Context, payload dto.CreateStatusDTO) (*entities.Status, error) {
	status := &entities.Status{
		Title:       payload.Title,
		Description: payload.Description,
		LimitGreen:  payload.LimitGreen,
		LimitYellow: payload.LimitYellow,
		LimitFactor: payload.LimitFactor,
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.queueRepo.CreateStatus(ctx, tx, status)
		if err != nil {
			return err
		}
		status.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (s *QueueService) GetQueueStatuses(ctx context.Context, queueID uint64) ([]*entities.QueueStatus, error) {
	return s.queueRepo.GetQueueStatuses(ctx, queueID)
}

// AddStatusToQueue копирует лимиты SLA из статуса; явно переданные
// значения имеют приоритет.
func (s *QueueService) AddStatusToQueue(ctx context.Context, queueID uint64, payload dto.CreateQueueStatusDTO) (*entities.QueueStatus, error) {
	var qs *entities.QueueStatus

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		queue, err := s.queueRepo.FindQueue(ctx, tx, queueID)
		if err != nil {
			return err
		}
		status, err := s.queueRepo.FindStatus(ctx, tx, payload.StatusID)
		if err != nil {
			return err
		}

		if _, err := s.queueRepo.FindQueueStatusByPair(ctx, tx, queue.ID, status.ID); err == nil {
			return apperrors.ErrConflict
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		qs = &entities.QueueStatus{
			QueueID:     queue.ID,
			StatusID:    status.ID,
			LimitGreen:  status.LimitGreen,
			LimitYellow: status.LimitYellow,
			LimitFactor: status.LimitFactor,
			StatusTitle: status.Title,
		}
		if payload.LimitGreen.Valid {
			qs.LimitGreen = int(payload.LimitGreen.Int)
		}
		if payload.LimitYellow.Valid {
			qs.LimitYellow = int(payload.LimitYellow.Int)
		}
		if payload.LimitFactor.Valid {
			qs.LimitFactor = int(payload.LimitFactor.Int)
		}

		id, err := s.queueRepo.CreateQueueStatus(ctx, tx, qs)
		if err != nil {
			return err
		}
		qs.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return qs, nil
}
