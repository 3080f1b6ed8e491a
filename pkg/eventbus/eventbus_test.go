package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestPublishOrder(t *testing.T) {
	bus := New(zap.NewNop())

	var calls []string
	bus.Subscribe("thing.happened", func(ctx context.Context, event Event) error {
		calls = append(calls, "first")
		return nil
	})
	bus.Subscribe("thing.happened", func(ctx context.Context, event Event) error {
		calls = append(calls, "second")
		return nil
	})
	bus.Subscribe("other.happened", func(ctx context.Context, event Event) error {
		calls = append(calls, "stranger")
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "thing.happened"})

	// Подписчики вызываются в порядке подписки, чужие события не доходят.
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestListenerErrorDoesNotStopOthers(t *testing.T) {
	bus := New(zap.NewNop())

	var reached bool
	bus.Subscribe("thing.happened", func(ctx context.Context, event Event) error {
		return errors.New("первый слушатель упал")
	})
	bus.Subscribe("thing.happened", func(ctx context.Context, event Event) error {
		reached = true
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "thing.happened"})
	assert.True(t, reached)
}

func TestPublishWithoutListeners(t *testing.T) {
	bus := New(zap.NewNop())
	// Событие без подписчиков просто теряется.
	bus.Publish(context.Background(), testEvent{name: "nobody.cares"})
}
