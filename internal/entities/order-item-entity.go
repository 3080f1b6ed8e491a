package entities

// ServiceOrderItem — позиция заявки: товар или услуга с количеством
// и серийниками. PartType определяет участие в ремонте.
type ServiceOrderItem struct {
	ID        uint64 `json:"id"`
	OrderID   uint64 `json:"order_id"`
	ProductID uint64 `json:"product_id"`

	Code   string  `json:"code"`
	Title  string  `json:"title"`
	Amount int     `json:"amount"`
	Price  float64 `json:"price"`

	SN    string `json:"sn"`     // серийник установленной детали
	KbbSN string `json:"kbb_sn"` // серийник снятой детали
	IMEI  string `json:"imei"`

	PartType     string `json:"part_type"` // REPLACEMENT | MODULE | ADJUSTMENT
	IsSerialized bool   `json:"is_serialized"`

	ComptiaCode     string `json:"comptia_code"`
	ComptiaModifier string `json:"comptia_modifier"`

	PriceCategory string `json:"price_category"`

	CreatedByID uint64 `json:"created_by_id"`
}
