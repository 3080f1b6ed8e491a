package entities

import (
	"servo-system/pkg/constants"
)

// ServicePart — деталь в составе ремонта. Ссылается на позицию заявки
// (откуда берутся код и серийники); у импортированных из GSX ремонтов
// позиции может не быть.
type ServicePart struct {
	ID          uint64  `json:"id"`
	RepairID    uint64  `json:"repair_id"`
	OrderItemID *uint64 `json:"order_item_id"`

	Code  string `json:"code"`
	Title string `json:"title"`

	ComptiaCode     string `json:"comptia_code"`
	ComptiaModifier string `json:"comptia_modifier"`

	ReturnOrder  string `json:"return_order"`
	ReturnStatus string `json:"return_status"`
	ReturnCode   string `json:"return_code"`
	ReturnLabel  []byte `json:"-"`

	OrderStatus  string `json:"order_status"`
	PartNumber   string `json:"part_number"` // номер, назначенный GSX при подаче
	SequenceNo   int    `json:"sequence_no"`
	CoverageCode string `json:"coverage_code"`

	// Ссылка на деталь, вместо которой эта создана при замене DOA.
	ReplacesPartID *uint64 `json:"replaces_part_id"`
}

// ShouldUpdateSN — нужно ли переставлять серийники по этой детали после
// закрытия ремонта. GPR и «Convert To Stock» пропускаются.
func (p *ServicePart) ShouldUpdateSN() bool {
	if p.ReturnCode == constants.ReturnCodeGPR {
		return false
	}
	if p.ReturnStatus == constants.ReturnStatusCTS {
		return false
	}
	return true
}

// DeriveReplacement строит новую деталь для повторной отправки взамен
// бракованной (DOA). Исходная деталь не изменяется, связь — через
// ReplacesPartID новой детали.
func (p *ServicePart) DeriveReplacement() *ServicePart {
	return &ServicePart{
		RepairID:        p.RepairID,
		OrderItemID:     p.OrderItemID,
		Code:            p.Code,
		Title:           p.Title,
		ComptiaCode:     p.ComptiaCode,
		ComptiaModifier: p.ComptiaModifier,
		CoverageCode:    p.CoverageCode,
		ReplacesPartID:  &p.ID,
	}
}
