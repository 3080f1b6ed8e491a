package listeners

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"servo-system/internal/events"
	"servo-system/internal/repositories"
	"servo-system/internal/services"
	"servo-system/pkg/constants"
	"servo-system/pkg/eventbus"
	"servo-system/pkg/taskqueue"
)

type smsJobPayload struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type emailJobPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// NotificationListener рассылает события журнала подписчикам заявки.
// Сама отправка уходит в очередь задач: шина не должна ждать шлюз.
type NotificationListener struct {
	eventRepo repositories.EventRepositoryInterface
	userRepo  repositories.UserRepositoryInterface
	settings  services.SettingsServiceInterface
	taskQueue taskqueue.QueueInterface
	logger    *zap.Logger
}

func NewNotificationListener(
	eventRepo repositories.EventRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	settings services.SettingsServiceInterface,
	taskQueue taskqueue.QueueInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		settings:  settings,
		taskQueue: taskQueue,
		logger:    logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderNotifiedEvent, l.handle)
}

func (l *NotificationListener) handle(ctx context.Context, event eventbus.Event) error {
	orderEvent, ok := event.(events.OrderEvent)
	if !ok || orderEvent.EventID == 0 {
		return nil
	}

	stored, err := l.eventRepo.FindByID(ctx, orderEvent.EventID)
	if err != nil {
		return err
	}
	if len(stored.NotifyUserIDs) == 0 {
		return nil
	}

	settings, err := l.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.NotifyEmail && !settings.NotifySMS {
		return nil
	}

	recipients, err := l.userRepo.ListByIDs(ctx, stored.NotifyUserIDs)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Событие по заявке #%d", stored.OrderID)
	for _, user := range recipients {
		if settings.NotifyEmail && user.Email != "" {
			err := l.taskQueue.Enqueue(ctx, constants.JobSendEmail, emailJobPayload{
				Recipient: user.Email,
				Subject:   subject,
				Body:      stored.Description,
			})
			if err != nil {
				l.logger.Error("Не удалось поставить email в очередь",
					zap.Uint64("user_id", user.ID), zap.Error(err))
			}
		}
		if settings.NotifySMS && user.Phone != "" {
			err := l.taskQueue.Enqueue(ctx, constants.JobSendSMS, smsJobPayload{
				Recipient: user.Phone,
				Message:   stored.Description,
			})
			if err != nil {
				l.logger.Error("Не удалось поставить SMS в очередь",
					zap.Uint64("user_id", user.ID), zap.Error(err))
			}
		}
	}

	return l.eventRepo.MarkHandled(ctx, nil, stored.ID, time.Now())
}
