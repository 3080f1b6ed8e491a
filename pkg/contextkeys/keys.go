package contextkeys

type contextKey string

const (
	UserIDKey contextKey = "UserID"

	// AutomationKey помечает контекст, в котором действия выполняет движок
	// правил. События из такого контекста правилами не обрабатываются,
	// иначе правило могло бы бесконечно триггерить само себя.
	AutomationKey contextKey = "Automation"
)
