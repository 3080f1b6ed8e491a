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
	eventTable  = "order_events"
	eventFields = "id, order_id, action, description, triggered_by_id, triggered_at, handled_at, notify_user_ids"
)

type EventRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, event *entities.Event) (uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Event, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Event, error)
	MarkHandled(ctx context.Context, tx pgx.Tx, id uint64, handledAt time.Time) error
}

type eventRepository struct{ storage *pgxpool.Pool }

func NewEventRepository(storage *pgxpool.Pool) EventRepositoryInterface {
	return &eventRepository{storage: storage}
}

func (r *eventRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *eventRepository) scanRow(row pgx.Row) (*entities.Event, error) {
	var e entities.Event
	err := row.Scan(&e.ID, &e.OrderID, &e.Action, &e.Description, &e.TriggeredByID, &e.TriggeredAt, &e.HandledAt, &e.NotifyUserIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования order_events: %w", err)
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, tx pgx.Tx, event *entities.Event) (uint64, error) {
	query := `INSERT INTO order_events (order_id, action, description, triggered_by_id, triggered_at, notify_user_ids)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		event.OrderID, event.Action, event.Description, event.TriggeredByID, event.TriggeredAt, event.NotifyUserIDs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания события: %w", err)
	}
	return id, nil
}

func (r *eventRepository) FindByID(ctx context.Context, id uint64) (*entities.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", eventFields, eventTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, id))
}

func (r *eventRepository) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE order_id = $1 ORDER BY triggered_at", eventFields, eventTable)
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	eventsList := make([]*entities.Event, 0)
	for rows.Next() {
		e, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		eventsList = append(eventsList, e)
	}
	return eventsList, rows.Err()
}

func (r *eventRepository) MarkHandled(ctx context.Context, tx pgx.Tx, id uint64, handledAt time.Time) error {
	query := `UPDATE order_events SET handled_at = $1 WHERE id = $2 AND handled_at IS NULL`
	_, err := r.getQuerier(tx).Exec(ctx, query, handledAt, id)
	return err
}
