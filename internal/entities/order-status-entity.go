package entities

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusHistory — одна строка на каждый статус, через который прошла
// заявка. Инвариант: у заявки в любой момент не больше одной «открытой»
// (незавершённой) строки; завершается строка ровно один раз.
type OrderStatusHistory struct {
	ID      uint64 `json:"id"`
	OrderID uint64 `json:"order_id"`

	StatusID    uint64 `json:"status_id"`
	StatusTitle string `json:"status_title"`

	StartedAt    time.Time  `json:"started_at"`
	StartedByID  uint64     `json:"started_by_id"`
	FinishedAt   *time.Time `json:"finished_at"`
	FinishedByID *uint64    `json:"finished_by_id"`

	GreenLimit  *time.Time `json:"green_limit"`
	YellowLimit *time.Time `json:"yellow_limit"`

	// Бейдж, зафиксированный в момент завершения строки.
	Badge           string `json:"badge"`
	DurationSeconds int64  `json:"duration_seconds"`

	// TxID группирует строки, созданные в рамках одной операции.
	TxID *uuid.UUID `json:"tx_id"`
}

func (h *OrderStatusHistory) IsOpen() bool {
	return h.FinishedAt == nil
}
