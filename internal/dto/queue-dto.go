package dto

import "github.com/aarondl/null/v8"

type CreateQueueDTO struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Keywords    string `json:"keywords" validate:"omitempty,max=255"`
	Priority    int    `json:"priority" validate:"gte=0,lte=2"`
	GsxSoldTo   string `json:"gsx_soldto" validate:"omitempty,max=32"`
}

type UpdateQueueDTO struct {
	Title       null.String `json:"title,omitempty"`
	Description null.String `json:"description,omitempty"`
	Keywords    null.String `json:"keywords,omitempty"`
	Priority    null.Int    `json:"priority,omitempty"`
	GsxSoldTo   null.String `json:"gsx_soldto,omitempty"`
}

// SetQueueMilestoneDTO привязывает статус очереди к вехе жизненного цикла.
// QueueStatusID = 0 снимает привязку.
type SetQueueMilestoneDTO struct {
	Milestone     string `json:"milestone" validate:"required,oneof=created assigned products_ordered products_received repair_completed dispatched closed"`
	QueueStatusID uint64 `json:"queue_status_id"`
}

type CreateStatusDTO struct {
	Title       string `json:"title" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	LimitGreen  int    `json:"limit_green" validate:"gte=0"`
	LimitYellow int    `json:"limit_yellow" validate:"gte=0"`
	LimitFactor int    `json:"limit_factor" validate:"gte=0"`
}

// CreateQueueStatusDTO добавляет статус в очередь. Незаданные лимиты
// наследуются от самого статуса.
type CreateQueueStatusDTO struct {
	StatusID    uint64   `json:"status_id" validate:"required,gt=0"`
	LimitGreen  null.Int `json:"limit_green,omitempty"`
	LimitYellow null.Int `json:"limit_yellow,omitempty"`
	LimitFactor null.Int `json:"limit_factor,omitempty"`
}
