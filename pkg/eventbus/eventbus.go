package eventbus

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Event представляет собой любое событие в системе.
type Event interface {
	Name() string
}

// Listener - это обработчик (слушатель) событий.
type Listener func(ctx context.Context, event Event) error

// Bus - шина событий. Диспетчеризация синхронная: publish вызывается явно
// внутри операций машины состояний, и весь поток управления остаётся
// прослеживаемым (и тестируемым без живой БД). Ошибка слушателя логируется
// и не прерывает остальных.
type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	logger    *zap.Logger
}

// New создает новую шину событий.
func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Subscribe подписывает слушателя на определенное событие.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish публикует событие. Все подписчики будут вызваны по порядку.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	listeners := b.listeners[event.Name()]
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := l(ctx, event); err != nil {
			b.logger.Error("Ошибка в обработчике события",
				zap.String("event", event.Name()),
				zap.Error(err),
			)
		}
	}
}
