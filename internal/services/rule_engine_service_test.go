package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/pkg/constants"
	apperrors "servo-system/pkg/errors"
)

type ruleFixture struct {
	*orderFixture

	engine    RuleEngineServiceInterface
	ruleRepo  *fakeRuleRepo
	cacheRepo *fakeCacheRepo
	taskQueue *fakeTaskQueue
}

func newRuleFixture() *ruleFixture {
	base := newOrderFixture()
	f := &ruleFixture{
		orderFixture: base,
		ruleRepo:     newFakeRuleRepo(),
		cacheRepo:    newFakeCacheRepo(),
		taskQueue:    &fakeTaskQueue{},
	}
	f.engine = NewRuleEngineService(
		&fakeTxManager{}, f.ruleRepo, base.orderRepo, base.queueRepo,
		base.deviceRepo, f.cacheRepo, base.service, f.taskQueue, zap.NewNop(),
	)
	return f
}

func (f *ruleFixture) addRule(match string, conds []entities.Condition, actions []entities.Action) uint64 {
	id, _ := f.ruleRepo.Create(context.Background(), nil, &entities.Rule{
		Description: "тестовое правило",
		Match:       match,
		Conditions:  conds,
		Actions:     actions,
	})
	// Набор изменился мимо сервиса - сбрасываем кеш руками.
	_ = f.cacheRepo.Del(context.Background(), constants.CacheKeyRules)
	return id
}

func TestRuleMatching(t *testing.T) {
	t.Run("ANY срабатывает при одном совпавшем условии", func(t *testing.T) {
		f := newRuleFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{
			Description:  "Не включается",
			CustomerName: "ООО Ромашка",
		})
		require.NoError(t, err)

		f.addRule(constants.RuleMatchAny,
			[]entities.Condition{
				{Key: constants.CondCustomerName, Operator: constants.OpContains, Value: "ромашка"},
				{Key: constants.CondQueue, Operator: constants.OpEquals, Value: "Нет такой очереди"},
			},
			[]entities.Action{
				{Key: constants.ActSetPrio, Value: "2"},
			},
		)

		require.NoError(t, f.engine.Apply(ctx, order.ID))

		saved, _ := f.orderRepo.FindByID(ctx, nil, order.ID)
		assert.Equal(t, constants.PrioHigh, saved.Priority)
	})

	t.Run("ALL требует совпадения всех условий", func(t *testing.T) {
		f := newRuleFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{
			Description:  "Не включается",
			CustomerName: "ООО Ромашка",
		})
		require.NoError(t, err)

		f.addRule(constants.RuleMatchAll,
			[]entities.Condition{
				{Key: constants.CondCustomerName, Operator: constants.OpContains, Value: "ромашка"},
				{Key: constants.CondQueue, Operator: constants.OpEquals, Value: "Нет такой очереди"},
			},
			[]entities.Action{
				{Key: constants.ActSetPrio, Value: "2"},
			},
		)

		require.NoError(t, f.engine.Apply(ctx, order.ID))

		saved, _ := f.orderRepo.FindByID(ctx, nil, order.ID)
		assert.Equal(t, constants.PrioNormal, saved.Priority)
	})

	t.Run("условие по устройству сверяется с каждым прикреплённым", func(t *testing.T) {
		f := newRuleFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Не включается"})
		require.NoError(t, err)
		deviceID, _ := f.deviceRepo.Create(ctx, nil, &entities.Device{SN: "C02XXTEST", Description: "MacBook Pro 14"})
		require.NoError(t, f.service.AddDevice(ctx, order.ID, deviceID))

		f.addRule(constants.RuleMatchAny,
			[]entities.Condition{
				{Key: constants.CondDevice, Operator: constants.OpContains, Value: "macbook"},
			},
			[]entities.Action{
				{Key: constants.ActAddTag, Value: "ноутбук"},
			},
		)

		require.NoError(t, f.engine.Apply(ctx, order.ID))

		tag, err := f.tagRepo.FindByTitle(ctx, nil, "ноутбук")
		require.NoError(t, err)
		tagIDs, _ := f.orderRepo.GetTagIDs(ctx, nil, order.ID)
		assert.Contains(t, tagIDs, tag.ID)
	})
}

func TestRuleActions(t *testing.T) {
	t.Run("SET_QUEUE перекладывает заявку", func(t *testing.T) {
		f := newRuleFixture()
		creator := f.addUser("Иванов И.И.", true)
		queue := f.addQueue(constants.PrioHigh)
		ctx := ctxWithUser(creator.ID)

		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{
			Description:  "Не включается",
			CustomerName: "ООО Ромашка",
		})
		require.NoError(t, err)

		f.addRule(constants.RuleMatchAny,
			[]entities.Condition{
				{Key: constants.CondCustomerName, Operator: constants.OpEquals, Value: "ООО Ромашка"},
			},
			[]entities.Action{
				{Key: constants.ActSetQueue, Value: "1"},
			},
		)

		require.NoError(t, f.engine.Apply(ctx, order.ID))

		saved, _ := f.orderRepo.FindByID(ctx, nil, order.ID)
		require.NotNil(t, saved.QueueID)
		assert.Equal(t, queue.ID, *saved.QueueID)
	})

	t.Run("SEND_SMS ставит фоновую задачу, без телефона — нет", func(t *testing.T) {
		f := newRuleFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		withPhone, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{
			Description:   "Не включается",
			CustomerPhone: "+79990001122",
		})
		require.NoError(t, err)
		withoutPhone, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{Description: "Разбит экран"})
		require.NoError(t, err)

		f.addRule(constants.RuleMatchAny,
			[]entities.Condition{
				{Key: constants.CondQueue, Operator: constants.OpEquals, Value: ""},
			},
			[]entities.Action{
				{Key: constants.ActSendSMS, Value: "Заявка принята"},
			},
		)

		require.NoError(t, f.engine.Apply(ctx, withPhone.ID))
		require.NoError(t, f.engine.Apply(ctx, withoutPhone.ID))

		require.Len(t, f.taskQueue.jobs, 1)
		assert.Equal(t, constants.JobSendSMS, f.taskQueue.jobs[0].Type)
	})

	t.Run("ошибка одного действия не прерывает остальные", func(t *testing.T) {
		f := newRuleFixture()
		creator := f.addUser("Иванов И.И.", true)
		ctx := ctxWithUser(creator.ID)

		order, err := f.service.CreateOrder(ctx, dto.CreateOrderDTO{
			Description:  "Не включается",
			CustomerName: "ООО Ромашка",
		})
		require.NoError(t, err)

		f.addRule(constants.RuleMatchAny,
			[]entities.Condition{
				{Key: constants.CondCustomerName, Operator: constants.OpEquals, Value: "ООО Ромашка"},
			},
			[]entities.Action{
				{Key: constants.ActSetQueue, Value: "999"}, // очереди нет
				{Key: constants.ActSetPrio, Value: "2"},
			},
		)

		require.NoError(t, f.engine.Apply(ctx, order.ID))

		saved, _ := f.orderRepo.FindByID(ctx, nil, order.ID)
		assert.Equal(t, constants.PrioHigh, saved.Priority)
	})
}

func TestRuleCache(t *testing.T) {
	f := newRuleFixture()
	ctx := context.Background()

	_, err := f.engine.CreateRule(ctx, dto.CreateRuleDTO{
		Description: "vip",
		Match:       constants.RuleMatchAny,
		Conditions:  []dto.RuleConditionDTO{{Key: constants.CondCustomerName, Operator: constants.OpContains, Value: "vip"}},
		Actions:     []dto.RuleActionDTO{{Key: constants.ActSetPrio, Value: "2"}},
	})
	require.NoError(t, err)

	// Первый запрос кладёт набор в кеш.
	rules, err := f.engine.GetRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	_, err = f.cacheRepo.Get(ctx, constants.CacheKeyRules)
	require.NoError(t, err)

	// Удаление инвалидирует кеш.
	require.NoError(t, f.engine.DeleteRule(ctx, rules[0].ID))
	_, err = f.cacheRepo.Get(ctx, constants.CacheKeyRules)
	assert.Error(t, err)

	rules, err = f.engine.GetRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestImportFromJSON(t *testing.T) {
	f := newRuleFixture()
	ctx := context.Background()

	t.Run("битый файл отклоняется", func(t *testing.T) {
		_, err := f.engine.ImportFromJSON(ctx, []byte("{не json"))
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("пустой набор отклоняется", func(t *testing.T) {
		_, err := f.engine.ImportFromJSON(ctx, []byte(`{"rules": []}`))
		var invalid *apperrors.InvalidInputError
		assert.ErrorAs(t, err, &invalid)
	})

	t.Run("replace заменяет весь набор", func(t *testing.T) {
		_, err := f.engine.CreateRule(ctx, dto.CreateRuleDTO{
			Description: "старое правило",
			Match:       constants.RuleMatchAny,
			Conditions:  []dto.RuleConditionDTO{{Key: constants.CondQueue, Operator: constants.OpEquals, Value: "x"}},
			Actions:     []dto.RuleActionDTO{{Key: constants.ActSetPrio, Value: "0"}},
		})
		require.NoError(t, err)

		data := []byte(`{
			"replace": true,
			"rules": [
				{
					"description": "vip клиенты",
					"match": "ANY",
					"conditions": [{"key": "CUSTOMER_NAME", "operator": "CONTAINS", "value": "vip"}],
					"actions": [{"key": "SET_PRIO", "value": "2"}]
				},
				{
					"description": "ноутбуки",
					"match": "ANY",
					"conditions": [{"key": "DEVICE", "operator": "CONTAINS", "value": "macbook"}],
					"actions": [{"key": "ADD_TAG", "value": "ноутбук"}]
				}
			]
		}`)

		imported, err := f.engine.ImportFromJSON(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, 2, imported)

		rules, err := f.engine.GetRules(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, "vip клиенты", rules[0].Description)
	})
}
