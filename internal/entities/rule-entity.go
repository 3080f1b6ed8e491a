package entities

// Rule — правило автоматизации: набор условий (ANY/ALL) и действий.
// Читается на каждом событии, состояния не имеет.
type Rule struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	Match       string `json:"match"` // ANY | ALL

	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
}

type Condition struct {
	ID       uint64 `json:"id"`
	RuleID   uint64 `json:"rule_id"`
	Key      string `json:"key"`      // QUEUE | STATUS | CUSTOMER_NAME | DEVICE
	Operator string `json:"operator"` // EQ | CONTAINS | LT | GT
	Value    string `json:"value"`
}

type Action struct {
	ID     uint64 `json:"id"`
	RuleID uint64 `json:"rule_id"`
	Key    string `json:"key"` // SET_QUEUE | SET_USER | ADD_TAG | SET_PRIO | SEND_SMS | SEND_EMAIL
	Value  string `json:"value"`
}
