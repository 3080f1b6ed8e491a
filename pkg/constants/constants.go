package constants

//============== СОСТОЯНИЯ ЗАЯВКИ ==============

// Грубое состояние сервисной заявки. Статусы-вехи живут отдельно (QueueStatus).
const (
	StateQueued  = 0 // заявка ещё не взята в работу
	StateOpen    = 1 // заявка в работе
	StateClosed  = 2 // заявка закрыта
	StateWaiting = 3 // заявка в ожидании (время не учитывается)
)

//============== ПРИОРИТЕТЫ ОЧЕРЕДЕЙ ==============

const (
	PrioLow    = 0
	PrioNormal = 1
	PrioHigh   = 2
)

//============== БЕЙДЖИ SLA ==============

const (
	BadgeUndefined = "undefined"
	BadgeSuccess   = "success"
	BadgeWarning   = "warning"
	BadgeDanger    = "danger"
)

// Множители времени для лимитов статуса (секунды).
const (
	FactorMinutes = 60
	FactorHours   = 3600
	FactorDays    = 86400
	FactorWeeks   = 604800
	FactorMonths  = 2419200
)

//============== ВЕХИ ОЧЕРЕДИ ==============

// Имена статусов-вех жизненного цикла очереди.
const (
	MilestoneCreated          = "created"
	MilestoneAssigned         = "assigned"
	MilestoneProductsOrdered  = "products_ordered"
	MilestoneProductsReceived = "products_received"
	MilestoneRepairCompleted  = "repair_completed"
	MilestoneDispatched       = "dispatched"
	MilestoneClosed           = "closed"
)

//============== ДЕЙСТВИЯ СОБЫТИЙ ==============

const (
	ActionCreated        = "created"
	ActionSetQueue       = "set_queue"
	ActionSetStatus      = "set_status"
	ActionSetUser        = "set_user"
	ActionSetTag         = "set_tag"
	ActionCloseOrder     = "close_order"
	ActionReopen         = "reopen"
	ActionDeviceAdded    = "device_added"
	ActionDeviceRemoved  = "device_removed"
	ActionProductArrived = "product_arrived"
	ActionProductAdded   = "product_added"
	ActionProductRemoved = "product_removed"
	ActionPoCreated      = "po_created"
	ActionRepairCreated  = "gsx_repair_created"
	ActionRepairStatus   = "repair_status_changed"
	ActionSetLocation    = "set_location"
)

//============== ПРАВИЛА АВТОМАТИЗАЦИИ ==============

const (
	RuleMatchAny = "ANY"
	RuleMatchAll = "ALL"
)

// Ключи условий.
const (
	CondQueue        = "QUEUE"
	CondStatus       = "STATUS"
	CondCustomerName = "CUSTOMER_NAME"
	CondDevice       = "DEVICE"
)

// Операторы условий.
const (
	OpEquals      = "EQ"
	OpContains    = "CONTAINS"
	OpLessThan    = "LT"
	OpGreaterThan = "GT"
)

// Ключи действий. SET_STATUS доступен только пакетной обработке.
const (
	ActSetQueue  = "SET_QUEUE"
	ActSetStatus = "SET_STATUS"
	ActSetUser   = "SET_USER"
	ActAddTag    = "ADD_TAG"
	ActSetPrio   = "SET_PRIO"
	ActSendSMS   = "SEND_SMS"
	ActSendEmail = "SEND_EMAIL"
)

//============== ДЕТАЛИ (GSX) ==============

// Типы деталей по каталогу.
const (
	PartTypeReplacement = "REPLACEMENT"
	PartTypeModule      = "MODULE"
	PartTypeAdjustment  = "ADJUSTMENT"
)

// Код возврата, исключающий обновление серийников (Good Part Return).
const ReturnCodeGPR = "GPR"

// Статус возврата «Convert To Stock» — деталь не подлежит SN-обновлению.
const ReturnStatusCTS = "Convert To Stock"

//============== ТИПЫ ФОНОВЫХ ЗАДАЧ ==============

const (
	JobSendSMS      = "send_sms"
	JobSendEmail    = "send_email"
	JobBatchProcess = "batch_process"
)

//============== КЛЮЧИ КЕША ==============

const (
	// Ключ для кеша набора правил автоматизации.
	CacheKeyRules = "automation:rules"

	// Ключ для динамических настроек приложения.
	CacheKeySettings = "app:settings"
)
