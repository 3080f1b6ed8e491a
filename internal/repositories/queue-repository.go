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
	queueTable  = "queues"
	queueFields = `id, title, description, keywords, priority, gsx_soldto,
		status_created_id, status_assigned_id, status_products_ordered_id, status_products_received_id,
		status_repair_completed_id, status_dispatched_id, status_closed_id`

	statusTable  = "statuses"
	statusFields = "id, title, description, limit_green, limit_yellow, limit_factor"

	queueStatusTable  = "queue_statuses"
	queueStatusFields = `qs.id, qs.queue_id, qs.status_id, qs.limit_green, qs.limit_yellow, qs.limit_factor, s.title`
)

type QueueRepositoryInterface interface {
	FindQueue(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Queue, error)
	GetQueues(ctx context.Context) ([]*entities.Queue, error)
	CreateQueue(ctx context.Context, tx pgx.Tx, queue *entities.Queue) (uint64, error)
	UpdateQueue(ctx context.Context, tx pgx.Tx, queue *entities.Queue) error

	FindStatus(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Status, error)
	GetStatuses(ctx context.Context) ([]*entities.Status, error)
	CreateStatus(ctx context.Context, tx pgx.Tx, status *entities.Status) (uint64, error)

	FindQueueStatus(ctx context.Context, tx pgx.Tx, id uint64) (*entities.QueueStatus, error)
	FindQueueStatusByPair(ctx context.Context, tx pgx.Tx, queueID, statusID uint64) (*entities.QueueStatus, error)
	GetQueueStatuses(ctx context.Context, queueID uint64) ([]*entities.QueueStatus, error)
	CreateQueueStatus(ctx context.Context, tx pgx.Tx, qs *entities.QueueStatus) (uint64, error)
}

type queueRepository struct{ storage *pgxpool.Pool }

func NewQueueRepository(storage *pgxpool.Pool) QueueRepositoryInterface {
	return &queueRepository{storage: storage}
}

func (r *queueRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *queueRepository) scanQueue(row pgx.Row) (*entities.Queue, error) {
	var q entities.Queue
	err := row.Scan(
		&q.ID, &q.Title, &q.Description, &q.Keywords, &q.Priority, &q.GsxSoldTo,
		&q.StatusCreatedID, &q.StatusAssignedID, &q.StatusProductsOrderedID, &q.StatusProductsReceivedID,
		&q.StatusRepairCompletedID, &q.StatusDispatchedID, &q.StatusClosedID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования queues: %w", err)
	}
	return &q, nil
}

func (r *queueRepository) FindQueue(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Queue, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", queueFields, queueTable)
	return r.scanQueue(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *queueRepository) GetQueues(ctx context.Context) ([]*entities.Queue, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY title", queueFields, queueTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queues := make([]*entities.Queue, 0)
	for rows.Next() {
		queue, err := r.scanQueue(rows)
		if err != nil {
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

func (r *queueRepository) CreateQueue(ctx context.Context, tx pgx.Tx, queue *entities.Queue) (uint64, error) {
	query := `INSERT INTO queues (title, description, keywords, priority, gsx_soldto)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		queue.Title, queue.Description, queue.Keywords, queue.Priority, queue.GsxSoldTo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания очереди: %w", err)
	}
	return id, nil
}

func (r *queueRepository) UpdateQueue(ctx context.Context, tx pgx.Tx, queue *entities.Queue) error {
	query := `UPDATE queues SET
		title = $1, description = $2, keywords = $3, priority = $4, gsx_soldto = $5,
		status_created_id = $6, status_assigned_id = $7, status_products_ordered_id = $8,
		status_products_received_id = $9, status_repair_completed_id = $10,
		status_dispatched_id = $11, status_closed_id = $12
		WHERE id = $13`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		queue.Title, queue.Description, queue.Keywords, queue.Priority, queue.GsxSoldTo,
		queue.StatusCreatedID, queue.StatusAssignedID, queue.StatusProductsOrderedID,
		queue.StatusProductsReceivedID, queue.StatusRepairCompletedID,
		queue.StatusDispatchedID, queue.StatusClosedID,
		queue.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления очереди: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *queueRepository) scanStatus(row pgx.Row) (*entities.Status, error) {
	var s entities.Status
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.LimitGreen, &s.LimitYellow, &s.LimitFactor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования statuses: %w", err)
	}
	return &s, nil
}

func (r *queueRepository) FindStatus(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Status, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", statusFields, statusTable)
	return r.scanStatus(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *queueRepository) GetStatuses(ctx context.Context) ([]*entities.Status, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY title", statusFields, statusTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make([]*entities.Status, 0)
	for rows.Next() {
		status, err := r.scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func (r *queueRepository) CreateStatus(ctx context.Context, tx pgx.Tx, status *entities.Status) (uint64, error) {
	query := `INSERT INTO statuses (title, description, limit_green, limit_yellow, limit_factor)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		status.Title, status.Description, status.LimitGreen, status.LimitYellow, status.LimitFactor,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания статуса: %w", err)
	}
	return id, nil
}

func (r *queueRepository) scanQueueStatus(row pgx.Row) (*entities.QueueStatus, error) {
	var qs entities.QueueStatus
	err := row.Scan(&qs.ID, &qs.QueueID, &qs.StatusID, &qs.LimitGreen, &qs.LimitYellow, &qs.LimitFactor, &qs.StatusTitle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования queue_statuses: %w", err)
	}
	return &qs, nil
}

func (r *queueRepository) FindQueueStatus(ctx context.Context, tx pgx.Tx, id uint64) (*entities.QueueStatus, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s qs JOIN statuses s ON s.id = qs.status_id WHERE qs.id = $1`,
		queueStatusFields, queueStatusTable)
	return r.scanQueueStatus(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *queueRepository) FindQueueStatusByPair(ctx context.Context, tx pgx.Tx, queueID, statusID uint64) (*entities.QueueStatus, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s qs JOIN statuses s ON s.id = qs.status_id
		WHERE qs.queue_id = $1 AND qs.status_id = $2`, queueStatusFields, queueStatusTable)
	return r.scanQueueStatus(r.getQuerier(tx).QueryRow(ctx, query, queueID, statusID))
}

func (r *queueRepository) GetQueueStatuses(ctx context.Context, queueID uint64) ([]*entities.QueueStatus, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s qs JOIN statuses s ON s.id = qs.status_id
		WHERE qs.queue_id = $1 ORDER BY qs.id`, queueStatusFields, queueStatusTable)
	rows, err := r.storage.Query(ctx, query, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make([]*entities.QueueStatus, 0)
	for rows.Next() {
		qs, err := r.scanQueueStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, qs)
	}
	return statuses, rows.Err()
}

func (r *queueRepository) CreateQueueStatus(ctx context.Context, tx pgx.Tx, qs *entities.QueueStatus) (uint64, error) {
	query := `INSERT INTO queue_statuses (queue_id, status_id, limit_green, limit_yellow, limit_factor)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		qs.QueueID, qs.StatusID, qs.LimitGreen, qs.LimitYellow, qs.LimitFactor,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания статуса очереди: %w", err)
	}
	return id, nil
}
