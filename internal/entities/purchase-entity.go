package entities

import "time"

// PurchaseOrder — заказ поставщику. Создаётся из корзины позиций заявки
// или автоматически при подаче ремонта (1:1 с ремонтом).
type PurchaseOrder struct {
	ID      uint64  `json:"id"`
	OrderID *uint64 `json:"order_id"`

	// Ремонт, при подаче которого заказ создан автоматически.
	// На один ремонт — не больше одного заказа.
	RepairID *uint64 `json:"repair_id"`

	SupplierName string `json:"supplier_name"`
	Reference    string `json:"reference"`
	Confirmation string `json:"confirmation"` // номер подтверждения GSX
	Carrier      string `json:"carrier"`
	TrackingID   string `json:"tracking_id"`

	SubmittedAt *time.Time `json:"submitted_at"`
	HasArrived  bool       `json:"has_arrived"`

	CreatedAt   time.Time `json:"created_at"`
	CreatedByID uint64    `json:"created_by_id"`
}

func (po *PurchaseOrder) IsSubmitted() bool {
	return po.SubmittedAt != nil
}

// IsEditable — позиции можно менять только до подачи.
func (po *PurchaseOrder) IsEditable() bool {
	return po.SubmittedAt == nil
}

// PurchaseOrderItem — позиция заказа поставщику.
type PurchaseOrderItem struct {
	ID              uint64  `json:"id"`
	PurchaseOrderID uint64  `json:"purchase_order_id"`
	ProductID       uint64  `json:"product_id"`
	OrderItemID     *uint64 `json:"order_item_id"` // обратная ссылка на позицию заявки
	ServicePartID   *uint64 `json:"service_part_id"`

	Code   string  `json:"code"`
	Title  string  `json:"title"`
	Amount int     `json:"amount"`
	Price  float64 `json:"price"`

	SN string `json:"sn"`

	OrderedAt  *time.Time `json:"ordered_at"`
	ReceivedAt *time.Time `json:"received_at"`
	ExpectedAt *time.Time `json:"expected_at"`
}

func (i *PurchaseOrderItem) IsReceived() bool {
	return i.ReceivedAt != nil
}
