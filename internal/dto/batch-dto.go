package dto

type BatchProcessDTO struct {
	OrderCodes []string `json:"order_codes" validate:"required,min=1,dive,required"`
	Action     string   `json:"action" validate:"required,oneof=SET_QUEUE SET_STATUS SET_USER SET_PRIO SEND_SMS SEND_EMAIL"`
	Value      string   `json:"value" validate:"required,max=2000"`
}

type BatchResultDTO struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}
