package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servo-system/internal/entities"
	apperrors "servo-system/pkg/errors"
)

const (
	historyTable  = "order_status_history"
	historyFields = `id, order_id, status_id, status_title, started_at, started_by_id,
		finished_at, finished_by_id, green_limit, yellow_limit, badge, duration_seconds, tx_id`
)

type OrderHistoryRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, h *entities.OrderStatusHistory) (uint64, error)
	FindOpenByOrder(ctx context.Context, tx pgx.Tx, orderID uint64) (*entities.OrderStatusHistory, error)
	Finish(ctx context.Context, tx pgx.Tx, id uint64, finishedAt time.Time, finishedByID uint64, badge string, durationSeconds int64) error
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.OrderStatusHistory, error)
}

type orderHistoryRepository struct{ storage *pgxpool.Pool }

func NewOrderHistoryRepository(storage *pgxpool.Pool) OrderHistoryRepositoryInterface {
	return &orderHistoryRepository{storage: storage}
}

func (r *orderHistoryRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *orderHistoryRepository) scanRow(row pgx.Row) (*entities.OrderStatusHistory, error) {
	var h entities.OrderStatusHistory
	err := row.Scan(
		&h.ID, &h.OrderID, &h.StatusID, &h.StatusTitle, &h.StartedAt, &h.StartedByID,
		&h.FinishedAt, &h.FinishedByID, &h.GreenLimit, &h.YellowLimit, &h.Badge, &h.DurationSeconds, &h.TxID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования order_status_history: %w", err)
	}
	return &h, nil
}

func (r *orderHistoryRepository) Create(ctx context.Context, tx pgx.Tx, h *entities.OrderStatusHistory) (uint64, error) {
	query := `INSERT INTO order_status_history
		(order_id, status_id, status_title, started_at, started_by_id, green_limit, yellow_limit, badge, tx_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		h.OrderID, h.StatusID, h.StatusTitle, h.StartedAt, h.StartedByID,
		h.GreenLimit, h.YellowLimit, h.Badge, h.TxID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания строки истории статусов: %w", err)
	}
	return id, nil
}

func (r *orderHistoryRepository) FindOpenByOrder(ctx context.Context, tx pgx.Tx, orderID uint64) (*entities.OrderStatusHistory, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE order_id = $1 AND finished_at IS NULL
		ORDER BY started_at DESC LIMIT 1`, historyFields, historyTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, orderID))
}

// Finish завершает строку истории. Условие finished_at IS NULL гарантирует,
// что строка завершается не больше одного раза.
func (r *orderHistoryRepository) Finish(ctx context.Context, tx pgx.Tx, id uint64, finishedAt time.Time, finishedByID uint64, badge string, durationSeconds int64) error {
	query := `UPDATE order_status_history SET
		finished_at = $1, finished_by_id = $2, badge = $3, duration_seconds = $4
		WHERE id = $5 AND finished_at IS NULL`
	res, err := r.getQuerier(tx).Exec(ctx, query, finishedAt, finishedByID, badge, durationSeconds, id)
	if err != nil {
		return fmt.Errorf("ошибка завершения строки истории: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *orderHistoryRepository) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.OrderStatusHistory, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE order_id = $1 ORDER BY started_at", historyFields, historyTable)
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]*entities.OrderStatusHistory, 0)
	for rows.Next() {
		h, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
