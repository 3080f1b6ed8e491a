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
	orderItemTable  = "order_items"
	orderItemFields = `id, order_id, product_id, code, title, amount, price, sn, kbb_sn, imei,
		part_type, is_serialized, comptia_code, comptia_modifier, price_category, created_by_id`
)

type OrderItemRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, item *entities.ServiceOrderItem) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ServiceOrderItem, error)
	ListByOrder(ctx context.Context, tx pgx.Tx, orderID uint64) ([]*entities.ServiceOrderItem, error)
	Update(ctx context.Context, tx pgx.Tx, item *entities.ServiceOrderItem) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type orderItemRepository struct{ storage *pgxpool.Pool }

func NewOrderItemRepository(storage *pgxpool.Pool) OrderItemRepositoryInterface {
	return &orderItemRepository{storage: storage}
}

func (r *orderItemRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *orderItemRepository) scanRow(row pgx.Row) (*entities.ServiceOrderItem, error) {
	var i entities.ServiceOrderItem
	err := row.Scan(
		&i.ID, &i.OrderID, &i.ProductID, &i.Code, &i.Title, &i.Amount, &i.Price, &i.SN, &i.KbbSN, &i.IMEI,
		&i.PartType, &i.IsSerialized, &i.ComptiaCode, &i.ComptiaModifier, &i.PriceCategory, &i.CreatedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования order_items: %w", err)
	}
	return &i, nil
}

func (r *orderItemRepository) Create(ctx context.Context, tx pgx.Tx, item *entities.ServiceOrderItem) (uint64, error) {
	query := `INSERT INTO order_items (order_id, product_id, code, title, amount, price, sn, kbb_sn, imei,
		part_type, is_serialized, comptia_code, comptia_modifier, price_category, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		item.OrderID, item.ProductID, item.Code, item.Title, item.Amount, item.Price, item.SN, item.KbbSN, item.IMEI,
		item.PartType, item.IsSerialized, item.ComptiaCode, item.ComptiaModifier, item.PriceCategory, item.CreatedByID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания позиции заявки: %w", err)
	}
	return id, nil
}

func (r *orderItemRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ServiceOrderItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", orderItemFields, orderItemTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *orderItemRepository) ListByOrder(ctx context.Context, tx pgx.Tx, orderID uint64) ([]*entities.ServiceOrderItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE order_id = $1 ORDER BY id", orderItemFields, orderItemTable)
	rows, err := r.getQuerier(tx).Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entities.ServiceOrderItem, 0)
	for rows.Next() {
		item, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *orderItemRepository) Update(ctx context.Context, tx pgx.Tx, item *entities.ServiceOrderItem) error {
	query := `UPDATE order_items SET
		amount = $1, price = $2, sn = $3, kbb_sn = $4, imei = $5,
		comptia_code = $6, comptia_modifier = $7, price_category = $8
		WHERE id = $9`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		item.Amount, item.Price, item.SN, item.KbbSN, item.IMEI,
		item.ComptiaCode, item.ComptiaModifier, item.PriceCategory,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления позиции заявки: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *orderItemRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	res, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM order_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
