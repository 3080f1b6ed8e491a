package listeners

import (
	"context"

	"go.uber.org/zap"

	"servo-system/internal/events"
	"servo-system/internal/services"
	"servo-system/pkg/contextkeys"
	"servo-system/pkg/eventbus"
)

// RuleListener прогоняет правила автоматизации по каждому событию заявки.
// События, рождённые самим движком правил, пропускаются — иначе правило
// могло бы триггерить само себя по кругу.
type RuleListener struct {
	engine services.RuleEngineServiceInterface
	logger *zap.Logger
}

func NewRuleListener(engine services.RuleEngineServiceInterface, logger *zap.Logger) *RuleListener {
	return &RuleListener{engine: engine, logger: logger}
}

func (l *RuleListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderCreatedEvent, l.handle)
	bus.Subscribe(events.OrderNotifiedEvent, l.handle)
}

func (l *RuleListener) handle(ctx context.Context, event eventbus.Event) error {
	if ctx.Value(contextkeys.AutomationKey) != nil {
		return nil
	}
	orderEvent, ok := event.(events.OrderEvent)
	if !ok {
		return nil
	}
	l.logger.Debug("Применение правил к заявке", zap.Uint64("order_id", orderEvent.OrderID))
	return l.engine.Apply(ctx, orderEvent.OrderID)
}
