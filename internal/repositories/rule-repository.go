package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servo-system/internal/entities"
	apperrors "servo-system/pkg/errors"
)

const (
	ruleTable  = "rules"
	ruleFields = "id, description, match"
)

type RuleRepositoryInterface interface {
	GetAll(ctx context.Context) ([]*entities.Rule, error)
	FindByID(ctx context.Context, id uint64) (*entities.Rule, error)
	Create(ctx context.Context, tx pgx.Tx, rule *entities.Rule) (uint64, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	DeleteAll(ctx context.Context, tx pgx.Tx) error
}

type ruleRepository struct{ storage *pgxpool.Pool }

func NewRuleRepository(storage *pgxpool.Pool) RuleRepositoryInterface {
	return &ruleRepository{storage: storage}
}

func (r *ruleRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

// GetAll возвращает правила вместе с условиями и действиями.
func (r *ruleRepository) GetAll(ctx context.Context) ([]*entities.Rule, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", ruleFields, ruleTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]*entities.Rule, 0)
	byID := make(map[uint64]*entities.Rule)
	for rows.Next() {
		var rule entities.Rule
		if err := rows.Scan(&rule.ID, &rule.Description, &rule.Match); err != nil {
			return nil, fmt.Errorf("ошибка сканирования rules: %w", err)
		}
		rule.Conditions = make([]entities.Condition, 0)
		rule.Actions = make([]entities.Action, 0)
		rules = append(rules, &rule)
		byID[rule.ID] = &rule
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	condRows, err := r.storage.Query(ctx, `SELECT id, rule_id, key, operator, value FROM rule_conditions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer condRows.Close()
	for condRows.Next() {
		var c entities.Condition
		if err := condRows.Scan(&c.ID, &c.RuleID, &c.Key, &c.Operator, &c.Value); err != nil {
			return nil, fmt.Errorf("ошибка сканирования rule_conditions: %w", err)
		}
		if rule, ok := byID[c.RuleID]; ok {
			rule.Conditions = append(rule.Conditions, c)
		}
	}
	if err := condRows.Err(); err != nil {
		return nil, err
	}

	actRows, err := r.storage.Query(ctx, `SELECT id, rule_id, key, value FROM rule_actions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer actRows.Close()
	for actRows.Next() {
		var a entities.Action
		if err := actRows.Scan(&a.ID, &a.RuleID, &a.Key, &a.Value); err != nil {
			return nil, fmt.Errorf("ошибка сканирования rule_actions: %w", err)
		}
		if rule, ok := byID[a.RuleID]; ok {
			rule.Actions = append(rule.Actions, a)
		}
	}
	return rules, actRows.Err()
}

func (r *ruleRepository) FindByID(ctx context.Context, id uint64) (*entities.Rule, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", ruleFields, ruleTable)
	var rule entities.Rule
	err := r.storage.QueryRow(ctx, query, id).Scan(&rule.ID, &rule.Description, &rule.Match)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования rules: %w", err)
	}

	condRows, err := r.storage.Query(ctx, `SELECT id, rule_id, key, operator, value FROM rule_conditions WHERE rule_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer condRows.Close()
	for condRows.Next() {
		var c entities.Condition
		if err := condRows.Scan(&c.ID, &c.RuleID, &c.Key, &c.Operator, &c.Value); err != nil {
			return nil, err
		}
		rule.Conditions = append(rule.Conditions, c)
	}
	if err := condRows.Err(); err != nil {
		return nil, err
	}

	actRows, err := r.storage.Query(ctx, `SELECT id, rule_id, key, value FROM rule_actions WHERE rule_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer actRows.Close()
	for actRows.Next() {
		var a entities.Action
		if err := actRows.Scan(&a.ID, &a.RuleID, &a.Key, &a.Value); err != nil {
			return nil, err
		}
		rule.Actions = append(rule.Actions, a)
	}
	return &rule, actRows.Err()
}

// Create сохраняет правило вместе с условиями и действиями одним вызовом.
func (r *ruleRepository) Create(ctx context.Context, tx pgx.Tx, rule *entities.Rule) (uint64, error) {
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx,
		`INSERT INTO rules (description, match) VALUES ($1, $2) RETURNING id`,
		rule.Description, rule.Match,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания правила: %w", err)
	}

	for _, c := range rule.Conditions {
		_, err := r.getQuerier(tx).Exec(ctx,
			`INSERT INTO rule_conditions (rule_id, key, operator, value) VALUES ($1, $2, $3, $4)`,
			id, c.Key, c.Operator, c.Value,
		)
		if err != nil {
			return 0, fmt.Errorf("ошибка создания условия правила: %w", err)
		}
	}
	for _, a := range rule.Actions {
		_, err := r.getQuerier(tx).Exec(ctx,
			`INSERT INTO rule_actions (rule_id, key, value) VALUES ($1, $2, $3)`,
			id, a.Key, a.Value,
		)
		if err != nil {
			return 0, fmt.Errorf("ошибка создания действия правила: %w", err)
		}
	}
	return id, nil
}

func (r *ruleRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	res, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ruleRepository) DeleteAll(ctx context.Context, tx pgx.Tx) error {
	_, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM rules`)
	return err
}
