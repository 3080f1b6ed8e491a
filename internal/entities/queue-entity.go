package entities

import "servo-system/pkg/constants"

// Queue — очередь маршрутизации заявок. Хранит ссылки на статусы-вехи
// жизненного цикла (все опциональны) и Sold-To для запросов к GSX.
type Queue struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	Priority    int    `json:"priority"`
	GsxSoldTo   string `json:"gsx_soldto"`

	// Вехи жизненного цикла — ссылки на QueueStatus этой очереди.
	StatusCreatedID          *uint64 `json:"status_created_id"`
	StatusAssignedID         *uint64 `json:"status_assigned_id"`
	StatusProductsOrderedID  *uint64 `json:"status_products_ordered_id"`
	StatusProductsReceivedID *uint64 `json:"status_products_received_id"`
	StatusRepairCompletedID  *uint64 `json:"status_repair_completed_id"`
	StatusDispatchedID       *uint64 `json:"status_dispatched_id"`
	StatusClosedID           *uint64 `json:"status_closed_id"`
}

// MilestoneRef возвращает ссылку на веху по её имени.
// Неизвестное имя — nil, как и не заданная веха.
func (q *Queue) MilestoneRef(milestone string) *uint64 {
	switch milestone {
	case constants.MilestoneCreated:
		return q.StatusCreatedID
	case constants.MilestoneAssigned:
		return q.StatusAssignedID
	case constants.MilestoneProductsOrdered:
		return q.StatusProductsOrderedID
	case constants.MilestoneProductsReceived:
		return q.StatusProductsReceivedID
	case constants.MilestoneRepairCompleted:
		return q.StatusRepairCompletedID
	case constants.MilestoneDispatched:
		return q.StatusDispatchedID
	case constants.MilestoneClosed:
		return q.StatusClosedID
	}
	return nil
}

// SetMilestoneRef переустанавливает ссылку вехи. Возвращает false для
// неизвестного имени.
func (q *Queue) SetMilestoneRef(milestone string, ref *uint64) bool {
	switch milestone {
	case constants.MilestoneCreated:
		q.StatusCreatedID = ref
	case constants.MilestoneAssigned:
		q.StatusAssignedID = ref
	case constants.MilestoneProductsOrdered:
		q.StatusProductsOrderedID = ref
	case constants.MilestoneProductsReceived:
		q.StatusProductsReceivedID = ref
	case constants.MilestoneRepairCompleted:
		q.StatusRepairCompletedID = ref
	case constants.MilestoneDispatched:
		q.StatusDispatchedID = ref
	case constants.MilestoneClosed:
		q.StatusClosedID = ref
	default:
		return false
	}
	return true
}

// Status — именованная веха с лимитами SLA по умолчанию.
// LimitFactor — множитель единицы времени в секундах (минуты/часы/дни/...).
type Status struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	LimitGreen  int    `json:"limit_green"`
	LimitYellow int    `json:"limit_yellow"`
	LimitFactor int    `json:"limit_factor"`
}

// QueueStatus — статус, привязанный к очереди. Позволяет задавать свои
// лимиты SLA для каждого статуса в каждой очереди. Именно эта сущность
// используется в рантайме; при создании копирует значения Status.
type QueueStatus struct {
	ID       uint64 `json:"id"`
	QueueID  uint64 `json:"queue_id"`
	StatusID uint64 `json:"status_id"`

	LimitGreen  int `json:"limit_green"`
	LimitYellow int `json:"limit_yellow"`
	LimitFactor int `json:"limit_factor"`

	// Денормализованное имя статуса (для кеширования на заявке).
	StatusTitle string `json:"status_title"`
}
