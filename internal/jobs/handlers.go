package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"servo-system/internal/services"
	"servo-system/pkg/constants"
	"servo-system/pkg/messaging"
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

// NewHandlers собирает обработчики фоновых задач для воркера очереди.
func NewHandlers(
	gateway messaging.ServiceInterface,
	batchService services.BatchServiceInterface,
	logger *zap.Logger,
) map[string]taskqueue.Handler {
	return map[string]taskqueue.Handler{
		constants.JobSendSMS: func(ctx context.Context, job taskqueue.Job) error {
			var payload smsJobPayload
			if err := json.Unmarshal(job.Payload, &payload); err != nil {
				return fmt.Errorf("не удалось разобрать SMS-задачу: %w", err)
			}
			messageID, err := gateway.SendSMS(ctx, payload.Recipient, payload.Message)
			if err != nil {
				return err
			}
			logger.Debug("SMS отправлено", zap.String("message_id", messageID))
			return nil
		},
		constants.JobSendEmail: func(ctx context.Context, job taskqueue.Job) error {
			var payload emailJobPayload
			if err := json.Unmarshal(job.Payload, &payload); err != nil {
				return fmt.Errorf("не удалось разобрать email-задачу: %w", err)
			}
			messageID, err := gateway.SendEmail(ctx, payload.Recipient, payload.Subject, payload.Body)
			if err != nil {
				return err
			}
			logger.Debug("Email отправлен", zap.String("message_id", messageID))
			return nil
		},
		constants.JobBatchProcess: batchService.HandleJob,
	}
}
