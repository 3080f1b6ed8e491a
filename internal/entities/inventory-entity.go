package entities

// Inventory — складские счётчики товара в точке.
// amount_ordered растёт при подаче заказа, amount_stocked — при приёмке.
type Inventory struct {
	ID         uint64 `json:"id"`
	ProductID  uint64 `json:"product_id"`
	LocationID uint64 `json:"location_id"`

	AmountOrdered  int `json:"amount_ordered"`
	AmountStocked  int `json:"amount_stocked"`
	AmountReserved int `json:"amount_reserved"`
}

// Product — номенклатура товара.
type Product struct {
	ID uint64 `json:"id"`

	Code  string  `json:"code"`
	Title string  `json:"title"`
	Price float64 `json:"price"`

	PartType     string `json:"part_type"`
	IsSerialized bool   `json:"is_serialized"`

	ComptiaCode     string `json:"comptia_code"`
	ComptiaModifier string `json:"comptia_modifier"`
}
