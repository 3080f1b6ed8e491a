package entities

import "time"

// Repair — ремонтный протокол GSX, привязанный к заявке и устройству.
// Confirmation назначается внешней системой при успешной подаче.
type Repair struct {
	ID       uint64 `json:"id"`
	OrderID  uint64 `json:"order_id"`
	DeviceID uint64 `json:"device_id"`

	Confirmation string     `json:"confirmation"`
	SubmittedAt  *time.Time `json:"submitted_at"`

	Status        string     `json:"status"`
	StatusCode    string     `json:"status_code"`
	CompletedAt   *time.Time `json:"completed_at"`
	CompletedByID *uint64    `json:"completed_by_id"`

	GsxAccountID uint64 `json:"gsx_account_id"`
	RepairType   string `json:"repair_type"`

	Symptom   string `json:"symptom"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`

	TechID         string     `json:"tech_id"`
	UnitReceivedAt *time.Time `json:"unit_received_at"`
	Reference      string     `json:"reference"`

	// Флаг «отметить завершённым при подаче». Допустим только если в ремонте
	// ровно одна заменяемая деталь.
	MarkComplete  bool   `json:"mark_complete"`
	ReplacementSN string `json:"replacement_sn"`

	RequestReview bool  `json:"request_review"`
	ConsumerLaw   *bool `json:"consumer_law"`
	AcPlus        *bool `json:"acplus"`

	CreatedAt   time.Time `json:"created_at"`
	CreatedByID uint64    `json:"created_by_id"`
}

func (r *Repair) IsSubmitted() bool {
	return r.SubmittedAt != nil
}

func (r *Repair) IsClosed() bool {
	return r.CompletedAt != nil
}
