package listeners

import (
	"context"

	"go.uber.org/zap"

	"servo-system/internal/events"
	"servo-system/internal/services"
	"servo-system/pkg/constants"
	"servo-system/pkg/eventbus"
)

// RepairAutocloseListener завершает открытые ремонты при закрытии заявки,
// если это разрешено настройками инсталляции.
type RepairAutocloseListener struct {
	repairService services.RepairServiceInterface
	settings      services.SettingsServiceInterface
	logger        *zap.Logger
}

func NewRepairAutocloseListener(
	repairService services.RepairServiceInterface,
	settings services.SettingsServiceInterface,
	logger *zap.Logger,
) *RepairAutocloseListener {
	return &RepairAutocloseListener{
		repairService: repairService,
		settings:      settings,
		logger:        logger,
	}
}

func (l *RepairAutocloseListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.OrderNotifiedEvent, l.handle)
}

func (l *RepairAutocloseListener) handle(ctx context.Context, event eventbus.Event) error {
	orderEvent, ok := event.(events.OrderEvent)
	if !ok || orderEvent.Action != constants.ActionCloseOrder {
		return nil
	}

	settings, err := l.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.AutocompleteRepairs {
		return nil
	}

	repairs, err := l.repairService.ListByOrder(ctx, orderEvent.OrderID)
	if err != nil {
		return err
	}
	for _, repair := range repairs {
		if !repair.IsSubmitted() || repair.IsClosed() {
			continue
		}
		if err := l.repairService.Close(ctx, repair.ID); err != nil {
			// Остальные ремонты всё равно пытаемся закрыть.
			l.logger.Error("Не удалось автоматически завершить ремонт",
				zap.Uint64("repair_id", repair.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}
