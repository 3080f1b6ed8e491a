package entities

import "time"

// User — сотрудник сервиса.
type User struct {
	ID uint64 `json:"id"`

	Fio   string `json:"fio"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Password string `json:"-"`

	// Получает ли пользователь уведомления о событиях заявок.
	ShouldNotify bool `json:"should_notify"`
	IsActive     bool `json:"is_active"`

	LocationID *uint64 `json:"location_id"`
	GsxTechID  string  `json:"gsx_tech_id"`

	CreatedAt time.Time `json:"created_at"`
}

// Tag — метка заявки.
type Tag struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// Location — точка обслуживания (магазин/мастерская).
type Location struct {
	ID        uint64 `json:"id"`
	Title     string `json:"title"`
	Address   string `json:"address"`
	GsxShipTo string `json:"gsx_shipto"`
}
