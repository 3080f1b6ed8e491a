package entities

import (
	"time"

	"servo-system/pkg/constants"
)

// Order — сервисная заявка. Грубое состояние хранится в State,
// статусы-вехи — через StatusID (ссылка на QueueStatus очереди).
// Лимиты SLA считаются один раз при входе в статус и кешируются здесь же.
type Order struct {
	ID          uint64  `json:"id"`
	Code        *string `json:"code"` // назначается один раз при первом сохранении
	Description string  `json:"description"`
	Priority    int     `json:"priority"`
	State       int     `json:"state"`

	QueueID  *uint64 `json:"queue_id"`
	StatusID *uint64 `json:"status_id"` // ссылка на QueueStatus

	StatusName        string     `json:"status_name"`
	StatusStartedAt   *time.Time `json:"status_started_at"`
	StatusLimitGreen  *time.Time `json:"status_limit_green"`  // после него — warning
	StatusLimitYellow *time.Time `json:"status_limit_yellow"` // после него — danger

	UserID      *uint64    `json:"user_id"` // исполнитель
	StartedAt   *time.Time `json:"started_at"`
	StartedByID *uint64    `json:"started_by_id"`
	ClosedAt    *time.Time `json:"closed_at"`
	ClosedByID  *uint64    `json:"closed_by_id"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	// Подписчики заявки (получатели уведомлений).
	FollowerIDs []uint64 `json:"follower_ids"`

	CreatedAt   time.Time `json:"created_at"`
	CreatedByID uint64    `json:"created_by_id"`
}

func (o *Order) IsClosed() bool {
	return o.ClosedAt != nil
}

func (o *Order) IsEditable() bool {
	return o.ClosedAt == nil
}

func (o *Order) HasFollower(userID uint64) bool {
	for _, id := range o.FollowerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// GetColor возвращает текущий бейдж SLA по кешированным лимитам.
// Порядок проверок намеренный: success перекрывает warning, но не danger.
func (o *Order) GetColor(now time.Time) string {
	color := constants.BadgeUndefined
	if o.StatusID == nil {
		return color
	}
	if o.StatusLimitYellow != nil && !now.Before(*o.StatusLimitYellow) {
		color = constants.BadgeDanger
	} else if o.StatusLimitYellow != nil {
		color = constants.BadgeWarning
	}
	if o.StatusLimitGreen != nil && now.Before(*o.StatusLimitGreen) && color != constants.BadgeDanger {
		color = constants.BadgeSuccess
	}
	return color
}

// OrderDevice — устройство, прикреплённое к заявке.
// Одно устройство нельзя прикрепить дважды.
type OrderDevice struct {
	ID       uint64 `json:"id"`
	OrderID  uint64 `json:"order_id"`
	DeviceID uint64 `json:"device_id"`
}
