package entities

// GsxAccount — учётные данные для запросов к GSX от имени точки.
type GsxAccount struct {
	ID uint64 `json:"id"`

	Title  string `json:"title"`
	SoldTo string `json:"sold_to"`
	ShipTo string `json:"ship_to"`
	TechID string `json:"tech_id"`

	Environment string `json:"environment"` // ut | it | prod
}
