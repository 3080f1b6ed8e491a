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
	deviceTable  = "devices"
	deviceFields = "id, sn, imei, description, configuration, warranty_status, purchased_at, notes, created_at"
)

type DeviceRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, device *entities.Device) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error)
	FindBySN(ctx context.Context, tx pgx.Tx, sn string) (*entities.Device, error)
	Update(ctx context.Context, tx pgx.Tx, device *entities.Device) error
}

type deviceRepository struct{ storage *pgxpool.Pool }

func NewDeviceRepository(storage *pgxpool.Pool) DeviceRepositoryInterface {
	return &deviceRepository{storage: storage}
}

func (r *deviceRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *deviceRepository) scanRow(row pgx.Row) (*entities.Device, error) {
	var d entities.Device
	err := row.Scan(&d.ID, &d.SN, &d.IMEI, &d.Description, &d.Configuration,
		&d.WarrantyStatus, &d.PurchasedAt, &d.Notes, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования devices: %w", err)
	}
	return &d, nil
}

func (r *deviceRepository) Create(ctx context.Context, tx pgx.Tx, device *entities.Device) (uint64, error) {
	query := `INSERT INTO devices (sn, imei, description, configuration, warranty_status, purchased_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		device.SN, device.IMEI, device.Description, device.Configuration,
		device.WarrantyStatus, device.PurchasedAt, device.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания устройства: %w", err)
	}
	return id, nil
}

func (r *deviceRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", deviceFields, deviceTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *deviceRepository) FindBySN(ctx context.Context, tx pgx.Tx, sn string) (*entities.Device, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE sn = $1 LIMIT 1", deviceFields, deviceTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, sn))
}

func (r *deviceRepository) Update(ctx context.Context, tx pgx.Tx, device *entities.Device) error {
	query := `UPDATE devices SET
		sn = $1, imei = $2, description = $3, configuration = $4,
		warranty_status = $5, purchased_at = $6, notes = $7
		WHERE id = $8`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		device.SN, device.IMEI, device.Description, device.Configuration,
		device.WarrantyStatus, device.PurchasedAt, device.Notes,
		device.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления устройства: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
