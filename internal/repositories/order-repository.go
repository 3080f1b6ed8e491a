package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"servo-system/internal/entities"
	apperrors "servo-system/pkg/errors"
	"servo-system/pkg/types"
)

const (
	orderTable  = "orders"
	orderFields = `id, code, description, priority, state, queue_id, status_id, status_name,
		status_started_at, status_limit_green, status_limit_yellow,
		user_id, started_at, started_by_id, closed_at, closed_by_id,
		customer_name, customer_phone, customer_email, created_at, created_by_id`
)

// allowedOrderFilters - БЕЛЫЙ СПИСОК для фильтрации (защита от SQL Injection)
var allowedOrderFilters = map[string]string{
	"id":        "id",
	"state":     "state",
	"priority":  "priority",
	"queue_id":  "queue_id",
	"status_id": "status_id",
	"user_id":   "user_id",
}

var allowedOrderSortFields = map[string]bool{
	"id":         true,
	"priority":   true,
	"created_at": true,
	"closed_at":  true,
}

type OrderRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error)
	SetCode(ctx context.Context, tx pgx.Tx, id uint64, code string) error
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error)
	FindByCode(ctx context.Context, code string) (*entities.Order, error)
	GetAll(ctx context.Context, filter types.Filter) ([]*entities.Order, uint64, error)
	Update(ctx context.Context, tx pgx.Tx, order *entities.Order) error

	AddFollower(ctx context.Context, tx pgx.Tx, orderID, userID uint64) error
	RemoveFollower(ctx context.Context, tx pgx.Tx, orderID, userID uint64) error

	AddTag(ctx context.Context, tx pgx.Tx, orderID, tagID uint64) error
	RemoveTag(ctx context.Context, tx pgx.Tx, orderID, tagID uint64) error
	GetTagIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error)

	AddDevice(ctx context.Context, tx pgx.Tx, orderID, deviceID uint64) error
	RemoveDevice(ctx context.Context, tx pgx.Tx, orderID, deviceID uint64) error
	GetDeviceIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error)
}

type orderRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewOrderRepository(storage *pgxpool.Pool, logger *zap.Logger) OrderRepositoryInterface {
	return &orderRepository{storage: storage, logger: logger}
}

// getQuerier - возвращает транзакцию или пул соединений
func (r *orderRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *orderRepository) scanRow(row pgx.Row) (*entities.Order, error) {
	var o entities.Order
	err := row.Scan(
		&o.ID, &o.Code, &o.Description, &o.Priority, &o.State, &o.QueueID, &o.StatusID, &o.StatusName,
		&o.StatusStartedAt, &o.StatusLimitGreen, &o.StatusLimitYellow,
		&o.UserID, &o.StartedAt, &o.StartedByID, &o.ClosedAt, &o.ClosedByID,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &o.CreatedAt, &o.CreatedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования orders: %w", err)
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *entities.Order) (uint64, error) {
	query := `INSERT INTO orders (description, priority, state, queue_id, status_id, status_name,
		user_id, customer_name, customer_phone, customer_email, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		order.Description, order.Priority, order.State, order.QueueID, order.StatusID, order.StatusName,
		order.UserID, order.CustomerName, order.CustomerPhone, order.CustomerEmail, order.CreatedByID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return id, nil
}

// SetCode назначает заявке постоянный код. Код не перезаписывается.
func (r *orderRepository) SetCode(ctx context.Context, tx pgx.Tx, id uint64, code string) error {
	query := `UPDATE orders SET code = $1 WHERE id = $2 AND code IS NULL`
	_, err := r.getQuerier(tx).Exec(ctx, query, code, id)
	return err
}

func (r *orderRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", orderFields, orderTable)
	order, err := r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	order.FollowerIDs, err = r.getFollowerIDs(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) FindByCode(ctx context.Context, code string) (*entities.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE code = $1 LIMIT 1", orderFields, orderTable)
	order, err := r.scanRow(r.storage.QueryRow(ctx, query, code))
	if err != nil {
		return nil, err
	}
	order.FollowerIDs, err = r.getFollowerIDs(ctx, nil, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetAll(ctx context.Context, filter types.Filter) ([]*entities.Order, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(orderFields).From(orderTable)
	countBuilder := psql.Select("COUNT(*)").From(orderTable)

	if filter.Search != "" {
		cond := sq.Or{
			sq.ILike{"code": "%" + filter.Search + "%"},
			sq.ILike{"customer_name": "%" + filter.Search + "%"},
			sq.ILike{"description": "%" + filter.Search + "%"},
		}
		builder = builder.Where(cond)
		countBuilder = countBuilder.Where(cond)
	}
	for key, value := range filter.Filter {
		column, ok := allowedOrderFilters[key]
		if !ok {
			continue
		}
		builder = builder.Where(sq.Eq{column: value})
		countBuilder = countBuilder.Where(sq.Eq{column: value})
	}

	orderApplied := false
	for field, dir := range filter.Sort {
		if !allowedOrderSortFields[field] {
			continue
		}
		if dir != "desc" {
			dir = "asc"
		}
		builder = builder.OrderBy(field + " " + dir)
		orderApplied = true
	}
	if !orderApplied {
		builder = builder.OrderBy("id DESC")
	}

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit)).Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL для заявок: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*entities.Order, 0)
	for rows.Next() {
		order, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total uint64
	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) Update(ctx context.Context, tx pgx.Tx, order *entities.Order) error {
	query := `UPDATE orders SET
		description = $1, priority = $2, state = $3, queue_id = $4, status_id = $5, status_name = $6,
		status_started_at = $7, status_limit_green = $8, status_limit_yellow = $9,
		user_id = $10, started_at = $11, started_by_id = $12, closed_at = $13, closed_by_id = $14,
		customer_name = $15, customer_phone = $16, customer_email = $17
		WHERE id = $18`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		order.Description, order.Priority, order.State, order.QueueID, order.StatusID, order.StatusName,
		order.StatusStartedAt, order.StatusLimitGreen, order.StatusLimitYellow,
		order.UserID, order.StartedAt, order.StartedByID, order.ClosedAt, order.ClosedByID,
		order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления заявки: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) getFollowerIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error) {
	rows, err := r.getQuerier(tx).Query(ctx, `SELECT user_id FROM order_followers WHERE order_id = $1 ORDER BY user_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *orderRepository) AddFollower(ctx context.Context, tx pgx.Tx, orderID, userID uint64) error {
	query := `INSERT INTO order_followers (order_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.getQuerier(tx).Exec(ctx, query, orderID, userID)
	return err
}

func (r *orderRepository) RemoveFollower(ctx context.Context, tx pgx.Tx, orderID, userID uint64) error {
	_, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM order_followers WHERE order_id = $1 AND user_id = $2`, orderID, userID)
	return err
}

func (r *orderRepository) AddTag(ctx context.Context, tx pgx.Tx, orderID, tagID uint64) error {
	query := `INSERT INTO order_tags (order_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err := r.getQuerier(tx).Exec(ctx, query, orderID, tagID)
	return err
}

func (r *orderRepository) RemoveTag(ctx context.Context, tx pgx.Tx, orderID, tagID uint64) error {
	_, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM order_tags WHERE order_id = $1 AND tag_id = $2`, orderID, tagID)
	return err
}

func (r *orderRepository) GetTagIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error) {
	rows, err := r.getQuerier(tx).Query(ctx, `SELECT tag_id FROM order_tags WHERE order_id = $1 ORDER BY tag_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddDevice прикрепляет устройство. Повторное прикрепление - ErrConflict.
func (r *orderRepository) AddDevice(ctx context.Context, tx pgx.Tx, orderID, deviceID uint64) error {
	query := `INSERT INTO order_devices (order_id, device_id) VALUES ($1, $2)`
	_, err := r.getQuerier(tx).Exec(ctx, query, orderID, deviceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.ErrConflict
		}
		return fmt.Errorf("ошибка прикрепления устройства: %w", err)
	}
	return nil
}

func (r *orderRepository) RemoveDevice(ctx context.Context, tx pgx.Tx, orderID, deviceID uint64) error {
	res, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM order_devices WHERE order_id = $1 AND device_id = $2`, orderID, deviceID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) GetDeviceIDs(ctx context.Context, tx pgx.Tx, orderID uint64) ([]uint64, error) {
	rows, err := r.getQuerier(tx).Query(ctx, `SELECT device_id FROM order_devices WHERE order_id = $1 ORDER BY device_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
