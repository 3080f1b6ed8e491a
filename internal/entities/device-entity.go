package entities

import "time"

// Device — обслуживаемое устройство клиента.
type Device struct {
	ID uint64 `json:"id"`

	SN            string `json:"sn"`
	IMEI          string `json:"imei"`
	Description   string `json:"description"`
	Configuration string `json:"configuration"`

	WarrantyStatus string     `json:"warranty_status"`
	PurchasedAt    *time.Time `json:"purchased_at"`

	Notes string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}
