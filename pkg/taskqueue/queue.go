// Файл: pkg/taskqueue/queue.go
package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Job — единица фоновой работы. Очередь fire-and-forget, at-least-once:
// ядро не дожидается выполнения, а воркер может получить задачу повторно.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Handler func(ctx context.Context, job Job) error

type QueueInterface interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) error
}

// Queue — очередь задач поверх redis-списка (LPUSH / BRPOP).
type Queue struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

func New(client *redis.Client, key string, logger *zap.Logger) *Queue {
	return &Queue{client: client, key: key, logger: logger}
}

func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(Job{Type: jobType, Payload: raw})
	if err != nil {
		return err
	}

	return q.client.LPush(ctx, q.key, data).Err()
}

// Run — цикл воркера. Блокируется до отмены контекста.
// Ошибка обработчика логируется, задача не возвращается в очередь —
// at-least-once обеспечивается на уровне постановщика (повторная постановка).
func (q *Queue) Run(ctx context.Context, handlers map[string]Handler) {
	q.logger.Info("Воркер очереди задач запущен", zap.String("key", q.key))

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Воркер очереди задач остановлен")
			return
		default:
		}

		res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			q.logger.Error("Ошибка чтения из очереди задач", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		// BRPop возвращает [key, value]
		if len(res) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.logger.Error("Не удалось разобрать задачу", zap.Error(err))
			continue
		}

		handler, ok := handlers[job.Type]
		if !ok {
			q.logger.Warn("Нет обработчика для типа задачи", zap.String("type", job.Type))
			continue
		}

		if err := handler(ctx, job); err != nil {
			q.logger.Error("Ошибка выполнения фоновой задачи",
				zap.String("type", job.Type),
				zap.Error(err),
			)
		}
	}
}
