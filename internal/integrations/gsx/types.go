package gsx

import "time"

// CreateRepairRequest — данные для создания ремонта во внешней системе.
type CreateRepairRequest struct {
	RepairType     string              `json:"repairType"`
	Notes          string              `json:"notes"`
	Symptom        string              `json:"symptom"`
	Diagnosis      string              `json:"diagnosis"`
	Reference      string              `json:"reference"`
	SerialNumber   string              `json:"serialNumber"`
	UnitReceivedAt *time.Time          `json:"unitReceivedDateTime,omitempty"`
	MarkComplete   bool                `json:"markCompleteFlag"`
	ReplacementSN  string              `json:"replacementSerialNumber,omitempty"`
	RequestReview  bool                `json:"requestReviewByApple"`
	ConsumerLaw    *bool               `json:"consumerLawEligible,omitempty"`
	AcPlus         *bool               `json:"acPlusFlag,omitempty"`
	Customer       CustomerInfo        `json:"customerAddress"`
	Parts          []RepairPartRequest `json:"orderLines"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type RepairPartRequest struct {
	Code            string `json:"partNumber"`
	ComptiaCode     string `json:"comptiaCode,omitempty"`
	ComptiaModifier string `json:"comptiaModifier,omitempty"`
	CoverageCode    string `json:"coverageOption,omitempty"`
	AbusedFlag      bool   `json:"abused"`
}

// RepairConfirmation — ответ внешней системы на создание ремонта.
type RepairConfirmation struct {
	Confirmation string             `json:"repairConfirmationNumber"`
	Outcome      string             `json:"outcome"`
	Parts        []RepairPartDetail `json:"parts"`
}

// RepairDetails — полное состояние ремонта во внешней системе.
type RepairDetails struct {
	Confirmation  string             `json:"repairConfirmationNumber"`
	Status        string             `json:"repairStatus"`
	StatusCode    string             `json:"repairStatusCode"`
	CompletedAt   *time.Time         `json:"repairCompleteTimestamp"`
	SerialNumber  string             `json:"serialNumber"`
	Notes         string             `json:"notes"`
	Parts         []RepairPartDetail `json:"parts"`
	CoverageCodes []string           `json:"coverageOptions"`
}

// RepairPartDetail — состояние детали внутри ремонта.
// Позиции в ответе соответствуют позициям при подаче.
type RepairPartDetail struct {
	Code            string `json:"partNumber"`
	Title           string `json:"partDescription"`
	SequenceNo      int    `json:"sequenceNumber"`
	OrderStatus     string `json:"orderStatus"`
	ReturnOrder     string `json:"returnOrderNumber"`
	ReturnStatus    string `json:"returnStatus"`
	ReturnCode      string `json:"returnCode"`
	ComptiaCode     string `json:"comptiaCode"`
	ComptiaModifier string `json:"comptiaModifier"`
}

// RepairStatus — краткий статус ремонта (батчевый опрос).
type RepairStatus struct {
	Confirmation string `json:"repairConfirmationNumber"`
	Status       string `json:"repairStatus"`
	StatusCode   string `json:"repairStatusCode"`
}

// SerialUpdate — пара «деталь → новые серийники» для перестановки
// серийных номеров после закрытия ремонта.
type SerialUpdate struct {
	Code  string `json:"partNumber"`
	NewSN string `json:"serialNumber"`
	OldSN string `json:"kbbSerialNumber"`
	IMEI  string `json:"imeiNumber,omitempty"`
}

// WarrantyInfo — гарантийный статус устройства.
type WarrantyInfo struct {
	SerialNumber   string     `json:"serialNumber"`
	WarrantyStatus string     `json:"warrantyStatus"`
	Description    string     `json:"productDescription"`
	Configuration  string     `json:"configDescription"`
	PurchasedAt    *time.Time `json:"estimatedPurchaseDate"`
	IMEI           string     `json:"imeiNumber"`
}

// PartInfo — позиция из справочника деталей.
type PartInfo struct {
	Code          string  `json:"partNumber"`
	Title         string  `json:"partDescription"`
	Price         float64 `json:"stockPrice"`
	IsSerialized  bool    `json:"isSerialized"`
	ComponentCode string  `json:"componentCode"`
	EEECode       string  `json:"eeeCode"`
}

// StockingOrderRequest — заказ деталей на склад (вне ремонта).
type StockingOrderRequest struct {
	PurchaseOrderNumber string              `json:"purchaseOrderNumber"`
	ShipTo              string              `json:"shipToCode"`
	Parts               []StockingOrderLine `json:"orderLines"`
}

type StockingOrderLine struct {
	Code   string `json:"partNumber"`
	Amount int    `json:"quantity"`
}

// StockingOrderConfirmation — подтверждение складского заказа.
type StockingOrderConfirmation struct {
	Confirmation string `json:"confirmationNumber"`
}
