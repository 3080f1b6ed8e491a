package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"servo-system/internal/dto"
	"servo-system/internal/entities"
	"servo-system/internal/repositories"
	"servo-system/pkg/constants"
	"servo-system/pkg/contextkeys"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/taskqueue"
)

// smsJobPayload / emailJobPayload — полезная нагрузка фоновых задач рассылки.
type smsJobPayload struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type emailJobPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type RuleEngineServiceInterface interface {
	Apply(ctx context.Context, orderID uint64) error
	GetRules(ctx context.Context) ([]*entities.Rule, error)
	CreateRule(ctx context.Context, payload dto.CreateRuleDTO) (uint64, error)
	DeleteRule(ctx context.Context, id uint64) error
	ImportFromJSON(ctx context.Context, data []byte) (int, error)
}

// RuleEngineService применяет правила автоматизации к заявке. Правила
// без состояния: каждый вызов Apply читает актуальный набор (через кеш)
// и сверяет условия с текущим срезом заявки.
type RuleEngineService struct {
	txManager    repositories.TxManagerInterface
	ruleRepo     repositories.RuleRepositoryInterface
	orderRepo    repositories.OrderRepositoryInterface
	queueRepo    repositories.QueueRepositoryInterface
	deviceRepo   repositories.DeviceRepositoryInterface
	cacheRepo    repositories.CacheRepositoryInterface
	orderService OrderServiceInterface
	taskQueue    taskqueue.QueueInterface
	logger       *zap.Logger
}

func NewRuleEngineService(
	txManager repositories.TxManagerInterface,
	ruleRepo repositories.RuleRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	queueRepo repositories.QueueRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	orderService OrderServiceInterface,
	taskQueue taskqueue.QueueInterface,
	logger *zap.Logger,
) RuleEngineServiceInterface {
	return &RuleEngineService{
		txManager:    txManager,
		ruleRepo:     ruleRepo,
		orderRepo:    orderRepo,
		queueRepo:    queueRepo,
		deviceRepo:   deviceRepo,
		cacheRepo:    cacheRepo,
		orderService: orderService,
		taskQueue:    taskQueue,
		logger:       logger,
	}
}

// GetRules читает правила через кеш. Промах кеша - поход в БД и запись
// обратно без TTL: кеш инвалидируется явно при изменении набора.
func (s *RuleEngineService) GetRules(ctx context.Context) ([]*entities.Rule, error) {
	cached, err := s.cacheRepo.Get(ctx, constants.CacheKeyRules)
	if err == nil && cached != "" {
		var rules []*entities.Rule
		if err := json.Unmarshal([]byte(cached), &rules); err == nil {
			return rules, nil
		}
		s.logger.Warn("Кеш правил повреждён, читаем из БД")
	}

	rules, err := s.ruleRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(rules); err == nil {
		if err := s.cacheRepo.Set(ctx, constants.CacheKeyRules, string(raw), 0); err != nil {
			s.logger.Warn("Не удалось записать правила в кеш", zap.Error(err))
		}
	}
	return rules, nil
}

func (s *RuleEngineService) invalidateCache(ctx context.Context) {
	if err := s.cacheRepo.Del(ctx, constants.CacheKeyRules); err != nil {
		s.logger.Warn("Не удалось сбросить кеш правил", zap.Error(err))
	}
}

// Apply сверяет все правила с заявкой и выполняет действия совпавших.
// Ошибка одного действия логируется и не прерывает остальные.
func (s *RuleEngineService) Apply(ctx context.Context, orderID uint64) error {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return err
	}

	rules, err := s.GetRules(ctx)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	facts, err := s.collectFacts(ctx, order)
	if err != nil {
		return err
	}

	// Действия выполняются в «автоматическом» контексте: события, которые
	// они породят, движок правил пропустит.
	actionCtx := context.WithValue(ctx, contextkeys.AutomationKey, true)

	for _, rule := range rules {
		if !s.matches(rule, facts) {
			continue
		}
		s.logger.Info("Правило сработало",
			zap.Uint64("rule_id", rule.ID),
			zap.Uint64("order_id", order.ID),
			zap.String("rule", rule.Description),
		)
		for _, action := range rule.Actions {
			if err := s.execute(actionCtx, order, action); err != nil {
				s.logger.Error("Ошибка выполнения действия правила",
					zap.Uint64("rule_id", rule.ID),
					zap.String("action", action.Key),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// collectFacts собирает срез заявки, по которому сверяются условия.
func (s *RuleEngineService) collectFacts(ctx context.Context, order *entities.Order) (map[string][]string, error) {
	facts := map[string][]string{
		constants.CondStatus:       {order.StatusName},
		constants.CondCustomerName: {order.CustomerName},
	}

	if order.QueueID != nil {
		queue, err := s.queueRepo.FindQueue(ctx, nil, *order.QueueID)
		if err != nil {
			return nil, err
		}
		facts[constants.CondQueue] = []string{queue.Title}
	} else {
		facts[constants.CondQueue] = []string{""}
	}

	deviceIDs, err := s.orderRepo.GetDeviceIDs(ctx, nil, order.ID)
	if err != nil {
		return nil, err
	}
	descriptions := make([]string, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		device, err := s.deviceRepo.FindByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		descriptions = append(descriptions, device.Description)
	}
	facts[constants.CondDevice] = descriptions

	return facts, nil
}

// matches: ANY — хотя бы одно условие, ALL — все условия.
// Правило без условий совпадает только в режиме ALL.
func (s *RuleEngineService) matches(rule *entities.Rule, facts map[string][]string) bool {
	if rule.Match == constants.RuleMatchAll {
		for _, cond := range rule.Conditions {
			if !s.evaluate(cond, facts[cond.Key]) {
				return false
			}
		}
		return true
	}

	for _, cond := range rule.Conditions {
		if s.evaluate(cond, facts[cond.Key]) {
			return true
		}
	}
	return false
}

// evaluate проверяет условие против значений факта. Для фактов-множеств
// (устройства) достаточно совпадения по одному значению.
func (s *RuleEngineService) evaluate(cond entities.Condition, values []string) bool {
	for _, value := range values {
		switch cond.Operator {
		case constants.OpEquals:
			if value == cond.Value {
				return true
			}
		case constants.OpContains:
			if strings.Contains(strings.ToLower(value), strings.ToLower(cond.Value)) {
				return true
			}
		case constants.OpLessThan:
			left, err1 := strconv.ParseFloat(value, 64)
			right, err2 := strconv.ParseFloat(cond.Value, 64)
			if err1 == nil && err2 == nil && left < right {
				return true
			}
		case constants.OpGreaterThan:
			left, err1 := strconv.ParseFloat(value, 64)
			right, err2 := strconv.ParseFloat(cond.Value, 64)
			if err1 == nil && err2 == nil && left > right {
				return true
			}
		}
	}
	return false
}

func (s *RuleEngineService) execute(ctx context.Context, order *entities.Order, action entities.Action) error {
	switch action.Key {
	case constants.ActSetQueue:
		queueID, err := strconv.ParseUint(action.Value, 10, 64)
		if err != nil {
			return apperrors.NewInvalidInputError("SET_QUEUE: недопустимое значение %q", action.Value)
		}
		return s.orderService.SetQueue(ctx, order.ID, queueID)

	case constants.ActSetUser:
		assigneeID, err := strconv.ParseUint(action.Value, 10, 64)
		if err != nil {
			return apperrors.NewInvalidInputError("SET_USER: недопустимое значение %q", action.Value)
		}
		return s.orderService.Assign(ctx, order.ID, assigneeID)

	case constants.ActAddTag:
		return s.orderService.AddTagByTitle(ctx, order.ID, action.Value)

	case constants.ActSetPrio:
		priority, err := strconv.Atoi(action.Value)
		if err != nil {
			return apperrors.NewInvalidInputError("SET_PRIO: недопустимое значение %q", action.Value)
		}
		return s.orderService.SetPriority(ctx, order.ID, priority)

	case constants.ActSendSMS:
		if order.CustomerPhone == "" {
			return nil
		}
		return s.taskQueue.Enqueue(ctx, constants.JobSendSMS, smsJobPayload{
			Recipient: order.CustomerPhone,
			Message:   action.Value,
		})

	case constants.ActSendEmail:
		if order.CustomerEmail == "" {
			return nil
		}
		return s.taskQueue.Enqueue(ctx, constants.JobSendEmail, emailJobPayload{
			Recipient: order.CustomerEmail,
			Subject:   "Сервисная заявка " + orderCode(order),
			Body:      action.Value,
		})
	}
	return apperrors.NewInvalidInputError("неизвестное действие правила: %s", action.Key)
}

func orderCode(order *entities.Order) string {
	if order.Code != nil {
		return *order.Code
	}
	return strconv.FormatUint(order.ID, 10)
}

func (s *RuleEngineService) CreateRule(ctx context.Context, payload dto.CreateRuleDTO) (uint64, error) {
	rule := ruleFromDTO(payload)
	var id uint64
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.ruleRepo.Create(ctx, tx, rule)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return id, nil
}

func (s *RuleEngineService) DeleteRule(ctx context.Context, id uint64) error {
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.ruleRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// ImportFromJSON загружает набор правил из файла. JSON — только формат
// импорта: после загрузки источником истины становится БД.
// Возвращает количество импортированных правил.
func (s *RuleEngineService) ImportFromJSON(ctx context.Context, data []byte) (int, error) {
	var payload dto.ImportRulesDTO
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, apperrors.NewInvalidInputError("не удалось разобрать файл правил: %v", err)
	}
	if len(payload.Rules) == 0 {
		return 0, apperrors.NewInvalidInputError("файл правил пуст")
	}

	imported := 0
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if payload.Replace {
			if err := s.ruleRepo.DeleteAll(ctx, tx); err != nil {
				return err
			}
		}
		for _, ruleDTO := range payload.Rules {
			if _, err := s.ruleRepo.Create(ctx, tx, ruleFromDTO(ruleDTO)); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return imported, nil
}

func ruleFromDTO(payload dto.CreateRuleDTO) *entities.Rule {
	rule := &entities.Rule{
		Description: payload.Description,
		Match:       payload.Match,
	}
	for _, c := range payload.Conditions {
		rule.Conditions = append(rule.Conditions, entities.Condition{
			Key:      c.Key,
			Operator: c.Operator,
			Value:    c.Value,
		})
	}
	for _, a := range payload.Actions {
		rule.Actions = append(rule.Actions, entities.Action{
			Key:   a.Key,
			Value: a.Value,
		})
	}
	return rule
}
