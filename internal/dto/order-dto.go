package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateOrderDTO struct {
	Description   string  `json:"description" validate:"required,min=3,max=2000"`
	Priority      *int    `json:"priority,omitempty" validate:"omitempty,gte=0,lte=2"`
	QueueID       *uint64 `json:"queue_id,omitempty" validate:"omitempty,gt=0"`
	UserID        *uint64 `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	CustomerName  string  `json:"customer_name" validate:"omitempty,max=255"`
	CustomerPhone string  `json:"customer_phone" validate:"omitempty,max=32"`
	CustomerEmail string  `json:"customer_email" validate:"omitempty,email"`
}

type UpdateOrderDTO struct {
	Description   null.String `json:"description,omitempty"`
	Priority      null.Int    `json:"priority,omitempty"`
	CustomerName  null.String `json:"customer_name,omitempty"`
	CustomerPhone null.String `json:"customer_phone,omitempty"`
	CustomerEmail null.String `json:"customer_email,omitempty"`
}

type AssignOrderDTO struct {
	UserID uint64 `json:"user_id" validate:"required,gt=0"`
}

type SetQueueDTO struct {
	QueueID uint64 `json:"queue_id" validate:"required,gt=0"`
}

type SetStatusDTO struct {
	QueueStatusID uint64 `json:"queue_status_id" validate:"required,gt=0"`
}

type SetPriorityDTO struct {
	Priority int `json:"priority" validate:"gte=0,lte=2"`
}

type NotifyOrderDTO struct {
	Action      string `json:"action" validate:"required,max=64"`
	Description string `json:"description" validate:"required,max=2000"`
}

type OrderResponseDTO struct {
	ID            uint64     `json:"id"`
	Code          string     `json:"code"`
	Description   string     `json:"description"`
	Priority      int        `json:"priority"`
	State         int        `json:"state"`
	QueueID       *uint64    `json:"queue_id"`
	StatusID      *uint64    `json:"status_id"`
	StatusName    string     `json:"status_name"`
	Badge         string     `json:"badge"`
	UserID        *uint64    `json:"user_id"`
	StartedAt     *time.Time `json:"started_at"`
	ClosedAt      *time.Time `json:"closed_at"`
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	CustomerEmail string     `json:"customer_email"`
	FollowerIDs   []uint64   `json:"follower_ids"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedByID   uint64     `json:"created_by_id"`
}

type OrderListResponseDTO struct {
	List       []OrderResponseDTO `json:"list"`
	TotalCount uint64             `json:"total_count"`
}

type CreateOrderItemDTO struct {
	ProductID uint64   `json:"product_id" validate:"required,gt=0"`
	Amount    int      `json:"amount" validate:"required,gt=0"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	SN        string   `json:"sn" validate:"omitempty,max=64"`
	KbbSN     string   `json:"kbb_sn" validate:"omitempty,max=64"`
	IMEI      string   `json:"imei" validate:"omitempty,max=32"`
}

type AttachDeviceDTO struct {
	DeviceID uint64 `json:"device_id" validate:"required,gt=0"`
}

type TagOrderDTO struct {
	TagID uint64 `json:"tag_id" validate:"required,gt=0"`
}

// TagOrderByTitleDTO вешает метку по имени; отсутствующая метка создаётся.
type TagOrderByTitleDTO struct {
	Title string `json:"title" validate:"required,min=2,max=64"`
}
