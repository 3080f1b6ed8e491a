package dto

import "time"

type CreateRepairDTO struct {
	OrderID      uint64 `json:"order_id" validate:"required,gt=0"`
	DeviceID     uint64 `json:"device_id" validate:"required,gt=0"`
	GsxAccountID uint64 `json:"gsx_account_id" validate:"required,gt=0"`
	RepairType   string `json:"repair_type" validate:"required,max=32"`
	Symptom      string `json:"symptom" validate:"required,max=2000"`
	Diagnosis    string `json:"diagnosis" validate:"required,max=2000"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
	Reference    string `json:"reference" validate:"omitempty,max=64"`
	TechID       string `json:"tech_id" validate:"omitempty,max=32"`

	UnitReceivedAt *time.Time `json:"unit_received_at,omitempty"`
	MarkComplete   bool       `json:"mark_complete"`
	ReplacementSN  string     `json:"replacement_sn" validate:"omitempty,max=64"`
	RequestReview  bool       `json:"request_review"`
	ConsumerLaw    *bool      `json:"consumer_law,omitempty"`
	AcPlus         *bool      `json:"acplus,omitempty"`

	// Позиции заявки, которые становятся деталями ремонта.
	OrderItemIDs []uint64 `json:"order_item_ids" validate:"required,min=1,dive,gt=0"`
}

type ImportRepairDTO struct {
	OrderID      uint64 `json:"order_id" validate:"required,gt=0"`
	DeviceID     uint64 `json:"device_id" validate:"required,gt=0"`
	GsxAccountID uint64 `json:"gsx_account_id" validate:"required,gt=0"`
	Confirmation string `json:"confirmation" validate:"required,max=32"`
}

type RepairResponseDTO struct {
	ID            uint64     `json:"id"`
	OrderID       uint64     `json:"order_id"`
	DeviceID      uint64     `json:"device_id"`
	Confirmation  string     `json:"confirmation"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	Status        string     `json:"status"`
	StatusCode    string     `json:"status_code"`
	CompletedAt   *time.Time `json:"completed_at"`
	RepairType    string     `json:"repair_type"`
	Symptom       string     `json:"symptom"`
	Diagnosis     string     `json:"diagnosis"`
	MarkComplete  bool       `json:"mark_complete"`
	ReplacementSN string     `json:"replacement_sn"`
}
