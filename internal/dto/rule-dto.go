package dto

type CreateRuleDTO struct {
	Description string             `json:"description" validate:"required,max=255"`
	Match       string             `json:"match" validate:"required,oneof=ANY ALL"`
	Conditions  []RuleConditionDTO `json:"conditions" validate:"required,min=1,dive"`
	Actions     []RuleActionDTO    `json:"actions" validate:"required,min=1,dive"`
}

type RuleConditionDTO struct {
	Key      string `json:"key" validate:"required,oneof=QUEUE STATUS CUSTOMER_NAME DEVICE"`
	Operator string `json:"operator" validate:"required,oneof=EQ CONTAINS LT GT"`
	Value    string `json:"value" validate:"required,max=255"`
}

type RuleActionDTO struct {
	Key   string `json:"key" validate:"required,oneof=SET_QUEUE SET_USER ADD_TAG SET_PRIO SEND_SMS SEND_EMAIL"`
	Value string `json:"value" validate:"required,max=2000"`
}

// ImportRulesDTO — формат файла импорта правил. JSON используется только
// как входной формат, источником истины остаётся БД.
type ImportRulesDTO struct {
	Replace bool            `json:"replace"`
	Rules   []CreateRuleDTO `json:"rules" validate:"required,min=1,dive"`
}
