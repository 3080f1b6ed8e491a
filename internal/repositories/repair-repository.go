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
	repairTable  = "repairs"
	repairFields = `id, order_id, device_id, confirmation, submitted_at, status, status_code,
		completed_at, completed_by_id, gsx_account_id, repair_type, symptom, diagnosis, notes,
		tech_id, unit_received_at, reference, mark_complete, replacement_sn,
		request_review, consumer_law, acplus, created_at, created_by_id`

	servicePartTable  = "service_parts"
	servicePartFields = `id, repair_id, order_item_id, code, title, comptia_code, comptia_modifier,
		return_order, return_status, return_code, order_status, part_number, sequence_no,
		coverage_code, replaces_part_id`
)

type RepairRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, repair *entities.Repair) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Repair, error)
	FindByConfirmation(ctx context.Context, confirmation string) (*entities.Repair, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Repair, error)
	ListOpenSubmitted(ctx context.Context) ([]*entities.Repair, error)
	Update(ctx context.Context, tx pgx.Tx, repair *entities.Repair) error
	SetGsxAccountForOrder(ctx context.Context, tx pgx.Tx, orderID, accountID uint64) error

	CreatePart(ctx context.Context, tx pgx.Tx, part *entities.ServicePart) (uint64, error)
	FindPart(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ServicePart, error)
	ListParts(ctx context.Context, tx pgx.Tx, repairID uint64) ([]*entities.ServicePart, error)
	UpdatePart(ctx context.Context, tx pgx.Tx, part *entities.ServicePart) error
}

type repairRepository struct{ storage *pgxpool.Pool }

func NewRepairRepository(storage *pgxpool.Pool) RepairRepositoryInterface {
	return &repairRepository{storage: storage}
}

func (r *repairRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *repairRepository) scanRow(row pgx.Row) (*entities.Repair, error) {
	var rep entities.Repair
	err := row.Scan(
		&rep.ID, &rep.OrderID, &rep.DeviceID, &rep.Confirmation, &rep.SubmittedAt, &rep.Status, &rep.StatusCode,
		&rep.CompletedAt, &rep.CompletedByID, &rep.GsxAccountID, &rep.RepairType, &rep.Symptom, &rep.Diagnosis, &rep.Notes,
		&rep.TechID, &rep.UnitReceivedAt, &rep.Reference, &rep.MarkComplete, &rep.ReplacementSN,
		&rep.RequestReview, &rep.ConsumerLaw, &rep.AcPlus, &rep.CreatedAt, &rep.CreatedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования repairs: %w", err)
	}
	return &rep, nil
}

func (r *repairRepository) Create(ctx context.Context, tx pgx.Tx, repair *entities.Repair) (uint64, error) {
	query := `INSERT INTO repairs (order_id, device_id, gsx_account_id, repair_type, symptom, diagnosis, notes,
		tech_id, unit_received_at, reference, mark_complete, replacement_sn, request_review, consumer_law, acplus, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		repair.OrderID, repair.DeviceID, repair.GsxAccountID, repair.RepairType, repair.Symptom, repair.Diagnosis, repair.Notes,
		repair.TechID, repair.UnitReceivedAt, repair.Reference, repair.MarkComplete, repair.ReplacementSN,
		repair.RequestReview, repair.ConsumerLaw, repair.AcPlus, repair.CreatedByID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания ремонта: %w", err)
	}
	return id, nil
}

func (r *repairRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Repair, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", repairFields, repairTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *repairRepository) FindByConfirmation(ctx context.Context, confirmation string) (*entities.Repair, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE confirmation = $1 LIMIT 1", repairFields, repairTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, confirmation))
}

func (r *repairRepository) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.Repair, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE order_id = $1 ORDER BY id", repairFields, repairTable)
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repairs := make([]*entities.Repair, 0)
	for rows.Next() {
		rep, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		repairs = append(repairs, rep)
	}
	return repairs, rows.Err()
}

// ListOpenSubmitted - поданные, но не завершённые ремонты (для фонового опроса статусов).
func (r *repairRepository) ListOpenSubmitted(ctx context.Context) ([]*entities.Repair, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE submitted_at IS NOT NULL AND completed_at IS NULL ORDER BY id`, repairFields, repairTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repairs := make([]*entities.Repair, 0)
	for rows.Next() {
		rep, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		repairs = append(repairs, rep)
	}
	return repairs, rows.Err()
}

func (r *repairRepository) Update(ctx context.Context, tx pgx.Tx, repair *entities.Repair) error {
	query := `UPDATE repairs SET
		confirmation = $1, submitted_at = $2, status = $3, status_code = $4,
		completed_at = $5, completed_by_id = $6, symptom = $7, diagnosis = $8, notes = $9,
		tech_id = $10, unit_received_at = $11, reference = $12, mark_complete = $13, replacement_sn = $14,
		request_review = $15, consumer_law = $16, acplus = $17
		WHERE id = $18`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		repair.Confirmation, repair.SubmittedAt, repair.Status, repair.StatusCode,
		repair.CompletedAt, repair.CompletedByID, repair.Symptom, repair.Diagnosis, repair.Notes,
		repair.TechID, repair.UnitReceivedAt, repair.Reference, repair.MarkComplete, repair.ReplacementSN,
		repair.RequestReview, repair.ConsumerLaw, repair.AcPlus,
		repair.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления ремонта: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetGsxAccountForOrder переназначает учётную запись у ещё не поданных
// ремонтов заявки. Поданные остаются на той записи, от имени которой поданы.
func (r *repairRepository) SetGsxAccountForOrder(ctx context.Context, tx pgx.Tx, orderID, accountID uint64) error {
	query := `UPDATE repairs SET gsx_account_id = $1 WHERE order_id = $2 AND submitted_at IS NULL`
	_, err := r.getQuerier(tx).Exec(ctx, query, accountID, orderID)
	if err != nil {
		return fmt.Errorf("ошибка переназначения учётной записи: %w", err)
	}
	return nil
}

func (r *repairRepository) scanPart(row pgx.Row) (*entities.ServicePart, error) {
	var p entities.ServicePart
	err := row.Scan(
		&p.ID, &p.RepairID, &p.OrderItemID, &p.Code, &p.Title, &p.ComptiaCode, &p.ComptiaModifier,
		&p.ReturnOrder, &p.ReturnStatus, &p.ReturnCode, &p.OrderStatus, &p.PartNumber, &p.SequenceNo,
		&p.CoverageCode, &p.ReplacesPartID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования service_parts: %w", err)
	}
	return &p, nil
}

func (r *repairRepository) CreatePart(ctx context.Context, tx pgx.Tx, part *entities.ServicePart) (uint64, error) {
	query := `INSERT INTO service_parts (repair_id, order_item_id, code, title, comptia_code, comptia_modifier,
		coverage_code, sequence_no, replaces_part_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		part.RepairID, part.OrderItemID, part.Code, part.Title, part.ComptiaCode, part.ComptiaModifier,
		part.CoverageCode, part.SequenceNo, part.ReplacesPartID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания детали ремонта: %w", err)
	}
	return id, nil
}

func (r *repairRepository) FindPart(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ServicePart, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", servicePartFields, servicePartTable)
	return r.scanPart(r.getQuerier(tx).QueryRow(ctx, query, id))
}

// ListParts возвращает детали в порядке подачи: позиции в ответах внешней
// системы сопоставляются по этому же порядку.
func (r *repairRepository) ListParts(ctx context.Context, tx pgx.Tx, repairID uint64) ([]*entities.ServicePart, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE repair_id = $1 ORDER BY sequence_no, id", servicePartFields, servicePartTable)
	rows, err := r.getQuerier(tx).Query(ctx, query, repairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make([]*entities.ServicePart, 0)
	for rows.Next() {
		part, err := r.scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

func (r *repairRepository) UpdatePart(ctx context.Context, tx pgx.Tx, part *entities.ServicePart) error {
	query := `UPDATE service_parts SET
		return_order = $1, return_status = $2, return_code = $3, order_status = $4,
		part_number = $5, sequence_no = $6, comptia_code = $7, comptia_modifier = $8
		WHERE id = $9`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		part.ReturnOrder, part.ReturnStatus, part.ReturnCode, part.OrderStatus,
		part.PartNumber, part.SequenceNo, part.ComptiaCode, part.ComptiaModifier,
		part.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления детали ремонта: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
