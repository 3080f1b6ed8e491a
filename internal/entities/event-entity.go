package entities

import "time"

// Event — неизменяемый факт о заявке. Только добавление, без правок.
type Event struct {
	ID          uint64 `json:"id"`
	OrderID     uint64 `json:"order_id"`
	Action      string `json:"action"`
	Description string `json:"description"`

	TriggeredByID uint64     `json:"triggered_by_id"`
	TriggeredAt   time.Time  `json:"triggered_at"`
	HandledAt     *time.Time `json:"handled_at"`

	// Получатели уведомления (подписчики минус инициатор и отключившие уведомления).
	NotifyUserIDs []uint64 `json:"notify_user_ids"`
}
