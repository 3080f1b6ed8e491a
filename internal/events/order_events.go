package events

// Имена событий шины. Подписчики получают события синхронно,
// в той горутине, которая их опубликовала.
const (
	OrderCreatedEvent  = "order.created"
	OrderUpdatedEvent  = "order.updated"
	OrderNotifiedEvent = "order.notified"
)

// OrderEvent публикуется при создании заявки и при каждом событии
// её журнала. EventID ссылается на сохранённую строку журнала (0 — ещё нет).
type OrderEvent struct {
	name string

	OrderID       uint64
	EventID       uint64
	Action        string
	Description   string
	TriggeredByID uint64
}

func NewOrderCreated(orderID, userID uint64) OrderEvent {
	return OrderEvent{name: OrderCreatedEvent, OrderID: orderID, TriggeredByID: userID}
}

func NewOrderNotified(orderID, eventID uint64, action, description string, userID uint64) OrderEvent {
	return OrderEvent{
		name:          OrderNotifiedEvent,
		OrderID:       orderID,
		EventID:       eventID,
		Action:        action,
		Description:   description,
		TriggeredByID: userID,
	}
}

func (e OrderEvent) Name() string { return e.name }
