package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5"

	"servo-system/internal/entities"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/types"
)

// Фейки репозиториев для юнит-тестов сервисного слоя: данные в памяти,
// транзакции не нужны. FindByID возвращает копию, как это делает скан
// строки из БД: изменения видны только после Update.

type fakeTxManager struct{}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func copyOrder(o *entities.Order) *entities.Order {
	c := *o
	c.FollowerIDs = append([]uint64(nil), o.FollowerIDs...)
	return &c
}

type fakeOrderRepo struct {
	seq       uint64
	orders    map[uint64]*entities.Order
	followers map[uint64][]uint64
	tags      map[uint64][]uint64
	devices   map[uint64][]uint64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:    make(map[uint64]*entities.Order),
		followers: make(map[uint64][]uint64),
		tags:      make(map[uint64][]uint64),
		devices:   make(map[uint64][]uint64),
	}
}

func (r *fakeOrderRepo) Create(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error) {
	r.seq++
	order.ID = r.seq
	order.CreatedAt = time.Now()
	r.orders[order.ID] = copyOrder(order)
	return order.ID, nil
}

func (r *fakeOrderRepo) SetCode(ctx context.Context, tx pgx.Tx, id uint64, code string) error {
	order, ok := r.orders[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	order.Code = &code
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := copyOrder(order)
	c.FollowerIDs = append([]uint64(nil), r.followers[id]...)
	return c, nil
}

func (r *fakeOrderRepo) FindByCode(ctx context.Context, code string) (*entities.Order, error) {
	for id, order := range r.orders {
		if order.Code != nil && *order.Code == code {
			return r.FindByID(ctx, nil, id)
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeOrderRepo) GetAll(ctx context.Context, filter types.Filter) ([]*entities.Order, uint64, error) {
	list := make([]*entities.Order, 0, len(r.orders))
	for id := range r.orders {
		order, _ := r.FindByID(ctx, nil, id)
		list = append(list, order)
	}
	return list, uint64(len(list)), nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, tx pgx.Tx, order *entities.Order) error {
	if _, ok := r.orders[order.ID]; !ok {
		return apperrors.ErrNotFound
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) AddFollower(ctx context.Context, tx pgx.Tx, orderID, userID uint64) error {
	for _, id := range r.followers[orderID] {
		if id == userID {
			return nil
		}
	}
	r.followers[orderID] = append(r.followers[orderID], userID)
	return nil
}

func (r *fakeOrderRepo) RemoveFollower(ctx context.Context, tx pgx.Tx, orderID, userID uint64) error {
	kept := r.followers[orderID][:0]
	for _, id := range r.followers[orderID] {
		if id != userID {
			kept = append(kept, id)
		}
	}
	r.followers[orderID] = kept
	return nil
}

func (r *fakeOrderRepo) AddTag(ctx context.Context, tx pgx.Tx, orderID, tagID uint64) error {
	for _, id := range r.tags[orderID] {
		if id == tagID {
			return nil
		}
	}
	r.tags[orderID] = append(r.tags[orderID], tagID)
	return nil
}

func (r *fakeOrderRepo) RemoveTag(ctx context.Context, tx pgx.Tx, orderID, tagID uint64) error {
	kept := r.tags[orderID][:0]
	for _, id := range r.tags[orderID] {
		if id != tagID {
			kept = append(kept, id)
		}
	}
	r.tags[orderID] = kept
	return nil
}

func (r *fakeOrderRepo) GetTagIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error) {
	return append([]uint64(nil), r.tags[orderID]...), nil
}

func (r *fakeOrderRepo) AddDevice(ctx context.Context, tx pgx.Tx, orderID, deviceID uint64) error {
	for _, id := range r.devices[orderID] {
		if id == deviceID {
			return apperrors.ErrConflict
		}
	}
	r.devices[orderID] = append(r.devices[orderID], deviceID)
	return nil
}

func (r *fakeOrderRepo) RemoveDevice(ctx context.Context, tx pgx.Tx, orderID, deviceID uint64) error {
	kept := r.devices[orderID][:0]
	for _, id := range r.devices[orderID] {
		if id != deviceID {
			kept = append(kept, id)
		}
	}
	r.devices[orderID] = kept
	return nil
}

func (r *fakeOrderRepo) GetDeviceIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error) {
	return append([]uint64(nil), r.devices[orderID]...), nil
}

type fakeQueueRepo struct {
	queueSeq  uint64
	statusSeq uint64
	qsSeq     uint64
	queues    map[uint64]*entities.Queue
	statuses  map[uint64]*entities.Status
	qs        map[uint64]*entities.QueueStatus
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{
		queues:   make(map[uint64]*entities.Queue),
		statuses: make(map[uint64]*entities.Status),
		qs:       make(map[uint64]*entities.QueueStatus),
	}
}

func (r *fakeQueueRepo) FindQueue(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Queue, error) {
	queue, ok := r.queues[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *queue
	return &c, nil
}

func (r *fakeQueueRepo) GetQueues(ctx context.Context) ([]*entities.Queue, error) {
	list := make([]*entities.Queue, 0, len(r.queues))
	for _, queue := range r.queues {
		c := *queue
		list = append(list, &c)
	}
	return list, nil
}

func (r *fakeQueueRepo) CreateQueue(ctx context.Context, tx pgx.Tx, queue *entities.Queue) (uint64, error) {
	r.queueSeq++
	queue.ID = r.queueSeq
	c := *queue
	r.queues[queue.ID] = &c
	return queue.ID, nil
}

func (r *fakeQueueRepo) UpdateQueue(ctx context.Context, tx pgx.Tx, queue *entities.Queue) error {
	if _, ok := r.queues[queue.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *queue
	r.queues[queue.ID] = &c
	return nil
}

func (r *fakeQueueRepo) FindStatus(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Status, error) {
	status, ok := r.statuses[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *status
	return &c, nil
}

func (r *fakeQueueRepo) GetStatuses(ctx context.Context) ([]*entities.Status, error) {
	list := make([]*entities.Status, 0, len(r.statuses))
	for _, status := range r.statuses {
		c := *status
		list = append(list, &c)
	}
	return list, nil
}

func (r *fakeQueueRepo) CreateStatus(ctx context.Context, tx pgx.Tx, status *entities.Status) (uint64, error) {
	r.statusSeq++
	status.ID = r.statusSeq
	c := *status
	r.statuses[status.ID] = &c
	return status.ID, nil
}

func (r *fakeQueueRepo) FindQueueStatus(ctx context.Context, tx pgx.Tx, id uint64) (*entities.QueueStatus, error) {
	qs, ok := r.qs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *qs
	return &c, nil
}

func (r *fakeQueueRepo) FindQueueStatusByPair(ctx context.Context, tx pgx.Tx, queueID, statusID uint64) (*entities.QueueStatus, error) {
	for _, qs := range r.qs {
		if qs.QueueID == queueID && qs.StatusID == statusID {
			c := *qs
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeQueueRepo) GetQueueStatuses(ctx context.Context, queueID uint64) ([]*entities.QueueStatus, error) {
	list := make([]*entities.QueueStatus, 0)
	for _, qs := range r.qs {
		if qs.QueueID == queueID {
			c := *qs
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeQueueRepo) CreateQueueStatus(ctx context.Context, tx pgx.Tx, qs *entities.QueueStatus) (uint64, error) {
	r.qsSeq++
	qs.ID = r.qsSeq
	c := *qs
	r.qs[qs.ID] = &c
	return qs.ID, nil
}

type fakeEventRepo struct {
	seq    uint64
	events map[uint64]*entities.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uint64]*entities.Event)}
}

func (r *fakeEventRepo) Create(ctx context.Context, tx pgx.Tx, event *entities.Event) (uint64, error) {
	r.seq++
	event.ID = r.seq
	c := *event
	c.NotifyUserIDs = append([]uint64(nil), event.NotifyUserIDs...)
	r.events[event.ID] = &c
	return event.ID, nil
}

func (r *fakeEventRepo) FindByID(ctx context.Context, id uint64) (*entities.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *event
	return &c, nil
}

func (r *fakeEventRepo) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Event, error) {
	list := make([]*entities.Event, 0)
	for _, event := range r.events {
		if event.OrderID == orderID {
			c := *event
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeEventRepo) MarkHandled(ctx context.Context, tx pgx.Tx, id uint64, handledAt time.Time) error {
	event, ok := r.events[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	event.HandledAt = &handledAt
	return nil
}

type fakeUserRepo struct {
	seq   uint64
	users map[uint64]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint64]*entities.User)}
}

func (r *fakeUserRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			c := *user
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) ListByIDs(ctx context.Context, ids []uint64) ([]*entities.User, error) {
	list := make([]*entities.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			c := *user
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]*entities.User, error) {
	list := make([]*entities.User, 0, len(r.users))
	for _, user := range r.users {
		c := *user
		list = append(list, &c)
	}
	return list, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	r.seq++
	user.ID = r.seq
	c := *user
	r.users[user.ID] = &c
	return user.ID, nil
}

type fakeTagRepo struct {
	seq  uint64
	tags map[uint64]*entities.Tag
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: make(map[uint64]*entities.Tag)}
}

func (r *fakeTagRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Tag, error) {
	tag, ok := r.tags[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *tag
	return &c, nil
}

func (r *fakeTagRepo) FindByTitle(ctx context.Context, tx pgx.Tx, title string) (*entities.Tag, error) {
	for _, tag := range r.tags {
		if tag.Title == title {
			c := *tag
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeTagRepo) GetAll(ctx context.Context) ([]*entities.Tag, error) {
	list := make([]*entities.Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		c := *tag
		list = append(list, &c)
	}
	return list, nil
}

func (r *fakeTagRepo) Create(ctx context.Context, tx pgx.Tx, tag *entities.Tag) (uint64, error) {
	r.seq++
	tag.ID = r.seq
	c := *tag
	r.tags[tag.ID] = &c
	return tag.ID, nil
}

type fakeDeviceRepo struct {
	seq     uint64
	devices map[uint64]*entities.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[uint64]*entities.Device)}
}

func (r *fakeDeviceRepo) Create(ctx context.Context, tx pgx.Tx, device *entities.Device) (uint64, error) {
	r.seq++
	device.ID = r.seq
	c := *device
	r.devices[device.ID] = &c
	return device.ID, nil
}

func (r *fakeDeviceRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	device, ok := r.devices[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *device
	return &c, nil
}

func (r *fakeDeviceRepo) FindBySN(ctx context.Context, tx pgx.Tx, sn string) (*entities.Device, error) {
	for _, device := range r.devices {
		if device.SN == sn {
			c := *device
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeDeviceRepo) Update(ctx context.Context, tx pgx.Tx, device *entities.Device) error {
	if _, ok := r.devices[device.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *device
	r.devices[device.ID] = &c
	return nil
}

type fakeRepairRepo struct {
	seq     uint64
	partSeq uint64
	repairs map[uint64]*entities.Repair
	parts   map[uint64]*entities.ServicePart
}

func newFakeRepairRepo() *fakeRepairRepo {
	return &fakeRepairRepo{
		repairs: make(map[uint64]*entities.Repair),
		parts:   make(map[uint64]*entities.ServicePart),
	}
}

func (r *fakeRepairRepo) Create(ctx context.Context, tx pgx.Tx, repair *entities.Repair) (uint64, error) {
	r.seq++
	repair.ID = r.seq
	c := *repair
	r.repairs[repair.ID] = &c
	return repair.ID, nil
}

func (r *fakeRepairRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Repair, error) {
	repair, ok := r.repairs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *repair
	return &c, nil
}

func (r *fakeRepairRepo) FindByConfirmation(ctx context.Context, confirmation string) (*entities.Repair, error) {
	for _, repair := range r.repairs {
		if repair.Confirmation == confirmation {
			c := *repair
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeRepairRepo) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Repair, error) {
	list := make([]*entities.Repair, 0)
	for _, repair := range r.repairs {
		if repair.OrderID == orderID {
			c := *repair
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeRepairRepo) ListOpenSubmitted(ctx context.Context) ([]*entities.Repair, error) {
	list := make([]*entities.Repair, 0)
	for _, repair := range r.repairs {
		if repair.IsSubmitted() && !repair.IsClosed() {
			c := *repair
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeRepairRepo) Update(ctx context.Context, tx pgx.Tx, repair *entities.Repair) error {
	if _, ok := r.repairs[repair.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *repair
	r.repairs[repair.ID] = &c
	return nil
}

func (r *fakeRepairRepo) SetGsxAccountForOrder(ctx context.Context, tx pgx.Tx, orderID, accountID uint64) error {
	for _, repair := range r.repairs {
		if repair.OrderID == orderID && !repair.IsSubmitted() {
			repair.GsxAccountID = accountID
		}
	}
	return nil
}

func (r *fakeRepairRepo) CreatePart(ctx context.Context, tx pgx.Tx, part *entities.ServicePart) (uint64, error) {
	r.partSeq++
	part.ID = r.partSeq
	c := *part
	r.parts[part.ID] = &c
	return part.ID, nil
}

func (r *fakeRepairRepo) FindPart(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ServicePart, error) {
	part, ok := r.parts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *part
	return &c, nil
}

func (r *fakeRepairRepo) ListParts(ctx context.Context, tx pgx.Tx, repairID uint64) ([]*entities.ServicePart, error) {
	list := make([]*entities.ServicePart, 0)
	for id := uint64(1); id <= r.partSeq; id++ {
		part, ok := r.parts[id]
		if ok && part.RepairID == repairID {
			c := *part
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeRepairRepo) UpdatePart(ctx context.Context, tx pgx.Tx, part *entities.ServicePart) error {
	if _, ok := r.parts[part.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *part
	r.parts[part.ID] = &c
	return nil
}

type fakeAccountRepo struct {
	accounts map[uint64]*entities.GsxAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uint64]*entities.GsxAccount)}
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.GsxAccount, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *account
	return &c, nil
}

func (r *fakeAccountRepo) FindBySoldTo(ctx context.Context, soldTo string) (*entities.GsxAccount, error) {
	for _, account := range r.accounts {
		if account.SoldTo == soldTo {
			c := *account
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeAccountRepo) GetAll(ctx context.Context) ([]*entities.GsxAccount, error) {
	list := make([]*entities.GsxAccount, 0, len(r.accounts))
	for _, account := range r.accounts {
		c := *account
		list = append(list, &c)
	}
	return list, nil
}

type fakeHistoryRepo struct {
	seq     uint64
	entries map[uint64]*entities.OrderStatusHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: make(map[uint64]*entities.OrderStatusHistory)}
}

func (r *fakeHistoryRepo) Create(ctx context.Context, tx pgx.Tx, h *entities.OrderStatusHistory) (uint64, error) {
	r.seq++
	h.ID = r.seq
	c := *h
	r.entries[h.ID] = &c
	return h.ID, nil
}

func (r *fakeHistoryRepo) FindOpenByOrder(ctx context.Context, tx pgx.Tx, orderID uint64) (*entities.OrderStatusHistory, error) {
	for _, entry := range r.entries {
		if entry.OrderID == orderID && entry.IsOpen() {
			c := *entry
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeHistoryRepo) Finish(ctx context.Context, tx pgx.Tx, id uint64, finishedAt time.Time, finishedByID uint64, badge string, durationSeconds int64) error {
	entry, ok := r.entries[id]
	if !ok || !entry.IsOpen() {
		return apperrors.ErrNotFound
	}
	entry.FinishedAt = &finishedAt
	entry.FinishedByID = &finishedByID
	entry.Badge = badge
	entry.DurationSeconds = durationSeconds
	return nil
}

func (r *fakeHistoryRepo) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.OrderStatusHistory, error) {
	list := make([]*entities.OrderStatusHistory, 0)
	for id := uint64(1); id <= r.seq; id++ {
		entry, ok := r.entries[id]
		if ok && entry.OrderID == orderID {
			c := *entry
			list = append(list, &c)
		}
	}
	return list, nil
}

type fakeCacheRepo struct {
	values map[string]string
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: make(map[string]string)}
}

func (r *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	switch v := value.(type) {
	case string:
		r.values[key] = v
	case []byte:
		r.values[key] = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		r.values[key] = string(data)
	}
	return nil
}

// Get повторяет контракт redis: промах ключа — redis.Nil.
func (r *fakeCacheRepo) Get(ctx context.Context, key string) (string, error) {
	value, ok := r.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (r *fakeCacheRepo) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(r.values, key)
	}
	return nil
}

func (r *fakeCacheRepo) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	_, ok := r.values[key]
	return ok, nil
}

type fakeOrderItemRepo struct {
	seq   uint64
	items map[uint64]*entities.ServiceOrderItem
}

func newFakeOrderItemRepo() *fakeOrderItemRepo {
	return &fakeOrderItemRepo{items: make(map[uint64]*entities.ServiceOrderItem)}
}

func (r *fakeOrderItemRepo) Create(ctx context.Context, tx pgx.Tx, item *entities.ServiceOrderItem) (uint64, error) {
	r.seq++
	item.ID = r.seq
	c := *item
	r.items[item.ID] = &c
	return item.ID, nil
}

func (r *fakeOrderItemRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ServiceOrderItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *item
	return &c, nil
}

func (r *fakeOrderItemRepo) ListByOrder(ctx context.Context, tx pgx.Tx, orderID uint64) ([]*entities.ServiceOrderItem, error) {
	list := make([]*entities.ServiceOrderItem, 0)
	for id := uint64(1); id <= r.seq; id++ {
		item, ok := r.items[id]
		if ok && item.OrderID == orderID {
			c := *item
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeOrderItemRepo) Update(ctx context.Context, tx pgx.Tx, item *entities.ServiceOrderItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *fakeOrderItemRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type fakePurchaseRepo struct {
	seq     uint64
	itemSeq uint64
	pos     map[uint64]*entities.PurchaseOrder
	items   map[uint64]*entities.PurchaseOrderItem
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{
		pos:   make(map[uint64]*entities.PurchaseOrder),
		items: make(map[uint64]*entities.PurchaseOrderItem),
	}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, tx pgx.Tx, po *entities.PurchaseOrder) (uint64, error) {
	r.seq++
	po.ID = r.seq
	c := *po
	r.pos[po.ID] = &c
	return po.ID, nil
}

func (r *fakePurchaseRepo) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PurchaseOrder, error) {
	po, ok := r.pos[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *po
	return &c, nil
}

func (r *fakePurchaseRepo) FindByRepair(ctx context.Context, tx pgx.Tx, repairID uint64) (*entities.PurchaseOrder, error) {
	for _, po := range r.pos {
		if po.RepairID != nil && *po.RepairID == repairID {
			c := *po
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakePurchaseRepo) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.PurchaseOrder, error) {
	list := make([]*entities.PurchaseOrder, 0)
	for id := uint64(1); id <= r.seq; id++ {
		po, ok := r.pos[id]
		if ok && po.OrderID != nil && *po.OrderID == orderID {
			c := *po
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakePurchaseRepo) Update(ctx context.Context, tx pgx.Tx, po *entities.PurchaseOrder) error {
	if _, ok := r.pos[po.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *po
	r.pos[po.ID] = &c
	return nil
}

func (r *fakePurchaseRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.pos[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.pos, id)
	return nil
}

func (r *fakePurchaseRepo) CreateItem(ctx context.Context, tx pgx.Tx, item *entities.PurchaseOrderItem) (uint64, error) {
	r.itemSeq++
	item.ID = r.itemSeq
	c := *item
	r.items[item.ID] = &c
	return item.ID, nil
}

func (r *fakePurchaseRepo) FindItem(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PurchaseOrderItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *item
	return &c, nil
}

func (r *fakePurchaseRepo) ListItems(ctx context.Context, tx pgx.Tx, purchaseOrderID uint64) ([]*entities.PurchaseOrderItem, error) {
	list := make([]*entities.PurchaseOrderItem, 0)
	for id := uint64(1); id <= r.itemSeq; id++ {
		item, ok := r.items[id]
		if ok && item.PurchaseOrderID == purchaseOrderID {
			c := *item
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakePurchaseRepo) UpdateItem(ctx context.Context, tx pgx.Tx, item *entities.PurchaseOrderItem) error {
	if _, ok := r.items[item.ID]; !ok {
		return apperrors.ErrNotFound
	}
	c := *item
	r.items[item.ID] = &c
	return nil
}

func (r *fakePurchaseRepo) DeleteItem(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type counterKey struct {
	productID  uint64
	locationID uint64
}

type fakeInventoryRepo struct {
	seq      uint64
	products map[uint64]*entities.Product
	counters map[counterKey]*entities.Inventory
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		products: make(map[uint64]*entities.Product),
		counters: make(map[counterKey]*entities.Inventory),
	}
}

func (r *fakeInventoryRepo) FindProduct(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Product, error) {
	product, ok := r.products[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *product
	return &c, nil
}

func (r *fakeInventoryRepo) FindProductByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Product, error) {
	for _, product := range r.products {
		if product.Code == code {
			c := *product
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeInventoryRepo) CreateProduct(ctx context.Context, tx pgx.Tx, product *entities.Product) (uint64, error) {
	r.seq++
	product.ID = r.seq
	c := *product
	r.products[product.ID] = &c
	return product.ID, nil
}

func (r *fakeInventoryRepo) counterRow(productID, locationID uint64) *entities.Inventory {
	key := counterKey{productID, locationID}
	row, ok := r.counters[key]
	if !ok {
		row = &entities.Inventory{ProductID: productID, LocationID: locationID}
		r.counters[key] = row
	}
	return row
}

func (r *fakeInventoryRepo) IncrementOrdered(ctx context.Context, tx pgx.Tx, productID, locationID uint64, amount int) error {
	r.counterRow(productID, locationID).AmountOrdered += amount
	return nil
}

func (r *fakeInventoryRepo) IncrementStocked(ctx context.Context, tx pgx.Tx, productID, locationID uint64, amount int) error {
	row := r.counterRow(productID, locationID)
	row.AmountStocked += amount
	row.AmountOrdered -= amount
	if row.AmountOrdered < 0 {
		row.AmountOrdered = 0
	}
	return nil
}

func (r *fakeInventoryRepo) FindCounters(ctx context.Context, productID, locationID uint64) (*entities.Inventory, error) {
	row, ok := r.counters[counterKey{productID, locationID}]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *row
	return &c, nil
}

type fakeRuleRepo struct {
	seq   uint64
	rules map[uint64]*entities.Rule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: make(map[uint64]*entities.Rule)}
}

func (r *fakeRuleRepo) GetAll(ctx context.Context) ([]*entities.Rule, error) {
	list := make([]*entities.Rule, 0, len(r.rules))
	for id := uint64(1); id <= r.seq; id++ {
		rule, ok := r.rules[id]
		if ok {
			c := *rule
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r *fakeRuleRepo) FindByID(ctx context.Context, id uint64) (*entities.Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *rule
	return &c, nil
}

func (r *fakeRuleRepo) Create(ctx context.Context, tx pgx.Tx, rule *entities.Rule) (uint64, error) {
	r.seq++
	rule.ID = r.seq
	c := *rule
	r.rules[rule.ID] = &c
	return rule.ID, nil
}

func (r *fakeRuleRepo) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	if _, ok := r.rules[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.rules, id)
	return nil
}

func (r *fakeRuleRepo) DeleteAll(ctx context.Context, tx pgx.Tx) error {
	r.rules = make(map[uint64]*entities.Rule)
	return nil
}

type fakeTaskQueue struct {
	jobs []fakeJob
}

type fakeJob struct {
	Type    string
	Payload interface{}
}

func (q *fakeTaskQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	q.jobs = append(q.jobs, fakeJob{Type: jobType, Payload: payload})
	return nil
}
