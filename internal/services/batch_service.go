package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/repositories"
	"servo-system/pkg/constants"
	"servo-system/pkg/contextkeys"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/taskqueue"
	"servo-system/pkg/utils"
)

type BatchServiceInterface interface {
	Process(ctx context.Context, payload dto.BatchProcessDTO) (int, error)
	Enqueue(ctx context.Context, payload dto.BatchProcessDTO) error
	HandleJob(ctx context.Context, job taskqueue.Job) error
}

// batchJobPayload — пакетная обработка, поставленная в очередь.
// UserID сохраняется при постановке: воркер выполняет операции от имени
// инициатора, а не от системного пользователя.
type batchJobPayload struct {
	UserID     uint64   `json:"user_id"`
	Action     string   `json:"action"`
	Value      string   `json:"value"`
	OrderCodes []string `json:"order_codes"`
}

// BatchService — массовые операции над заявками по их кодам. Ошибка на
// одной заявке не прерывает остальные: обработка продолжается, результат —
// количество успешно обработанных.
type BatchService struct {
	orderRepo    repositories.OrderRepositoryInterface
	orderService OrderServiceInterface
	taskQueue    taskqueue.QueueInterface
	logger       *zap.Logger
}

func NewBatchService(
	orderRepo repositories.OrderRepositoryInterface,
	orderService OrderServiceInterface,
	taskQueue taskqueue.QueueInterface,
	logger *zap.Logger,
) BatchServiceInterface {
	return &BatchService{
		orderRepo:    orderRepo,
		orderService: orderService,
		taskQueue:    taskQueue,
		logger:       logger,
	}
}

func (s *BatchService) Process(ctx context.Context, payload dto.BatchProcessDTO) (int, error) {
	processed := 0
	for _, code := range payload.OrderCodes {
		if err := s.processOne(ctx, code, payload.Action, payload.Value); err != nil {
			s.logger.Warn("Заявка пропущена при пакетной обработке",
				zap.String("code", code),
				zap.String("action", payload.Action),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	s.logger.Info("Пакетная обработка завершена",
		zap.String("action", payload.Action),
		zap.Int("processed", processed),
		zap.Int("total", len(payload.OrderCodes)),
	)
	return processed, nil
}

func (s *BatchService) processOne(ctx context.Context, code, action, value string) error {
	order, err := s.orderRepo.FindByCode(ctx, code)
	if err != nil {
		return err
	}

	switch action {
	case constants.ActSetQueue:
		queueID, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return apperrors.NewInvalidInputError("недопустимый ID очереди: %q", value)
		}
		return s.orderService.SetQueue(ctx, order.ID, queueID)

	case constants.ActSetStatus:
		statusID, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return apperrors.NewInvalidInputError("недопустимый ID статуса: %q", value)
		}
		return s.orderService.SetStatus(ctx, order.ID, statusID)

	case constants.ActSetUser:
		assigneeID, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return apperrors.NewInvalidInputError("недопустимый ID пользователя: %q", value)
		}
		return s.orderService.Assign(ctx, order.ID, assigneeID)

	case constants.ActSetPrio:
		priority, err := strconv.Atoi(value)
		if err != nil {
			return apperrors.NewInvalidInputError("недопустимый приоритет: %q", value)
		}
		return s.orderService.SetPriority(ctx, order.ID, priority)

	case constants.ActSendSMS:
		if order.CustomerPhone == "" {
			return apperrors.NewInvalidInputError("у заявки %s нет телефона клиента", code)
		}
		return s.taskQueue.Enqueue(ctx, constants.JobSendSMS, smsJobPayload{
			Recipient: order.CustomerPhone,
			Message:   value,
		})

	case constants.ActSendEmail:
		if order.CustomerEmail == "" {
			return apperrors.NewInvalidInputError("у заявки %s нет email клиента", code)
		}
		return s.taskQueue.Enqueue(ctx, constants.JobSendEmail, emailJobPayload{
			Recipient: order.CustomerEmail,
			Subject:   fmt.Sprintf("Заявка %s", code),
			Body:      value,
		})
	}
	return apperrors.NewInvalidInputError("неизвестное пакетное действие: %q", action)
}

// Enqueue ставит пакет в очередь задач и возвращает управление сразу.
func (s *BatchService) Enqueue(ctx context.Context, payload dto.BatchProcessDTO) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return err
	}
	return s.taskQueue.Enqueue(ctx, constants.JobBatchProcess, batchJobPayload{
		UserID:     userID,
		Action:     payload.Action,
		Value:      payload.Value,
		OrderCodes: payload.OrderCodes,
	})
}

// HandleJob — обработчик задачи воркера.
func (s *BatchService) HandleJob(ctx context.Context, job taskqueue.Job) error {
	var payload batchJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("не удалось разобрать пакетную задачу: %w", err)
	}

	ctx = context.WithValue(ctx, contextkeys.UserIDKey, payload.UserID)
	_, err := s.Process(ctx, dto.BatchProcessDTO{
		OrderCodes: payload.OrderCodes,
		Action:     payload.Action,
		Value:      payload.Value,
	})
	return err
}
