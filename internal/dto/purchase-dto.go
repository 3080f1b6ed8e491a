package dto

import "time"

type CreatePurchaseOrderDTO struct {
	OrderID      *uint64                      `json:"order_id,omitempty" validate:"omitempty,gt=0"`
	SupplierName string                       `json:"supplier_name" validate:"omitempty,max=255"`
	Reference    string                       `json:"reference" validate:"omitempty,max=64"`
	Items        []CreatePurchaseOrderItemDTO `json:"items" validate:"omitempty,dive"`
}

type CreatePurchaseOrderItemDTO struct {
	ProductID   uint64  `json:"product_id" validate:"required,gt=0"`
	OrderItemID *uint64 `json:"order_item_id,omitempty" validate:"omitempty,gt=0"`
	Amount      int     `json:"amount" validate:"required,gt=0"`
	Price       float64 `json:"price" validate:"gte=0"`
}

type SubmitPurchaseOrderDTO struct {
	GsxAccountID uint64 `json:"gsx_account_id" validate:"required,gt=0"`
}

type ReceiveItemDTO struct {
	SN string `json:"sn" validate:"omitempty,max=64"`
}

type PurchaseOrderResponseDTO struct {
	ID           uint64     `json:"id"`
	OrderID      *uint64    `json:"order_id"`
	SupplierName string     `json:"supplier_name"`
	Reference    string     `json:"reference"`
	Confirmation string     `json:"confirmation"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	HasArrived   bool       `json:"has_arrived"`
	CreatedAt    time.Time  `json:"created_at"`
}
