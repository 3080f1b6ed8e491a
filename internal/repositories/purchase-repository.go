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
	purchaseTable  = "purchase_orders"
	purchaseFields = `id, order_id, repair_id, supplier_name, reference, confirmation, carrier, tracking_id,
		submitted_at, has_arrived, created_at, created_by_id`

	purchaseItemTable  = "purchase_order_items"
	purchaseItemFields = `id, purchase_order_id, product_id, order_item_id, service_part_id,
		code, title, amount, price, sn, ordered_at, received_at, expected_at`
)

type PurchaseRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, po *entities.PurchaseOrder) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PurchaseOrder, error)
	FindByRepair(ctx context.Context, tx pgx.Tx, repairID uint64) (*entities.PurchaseOrder, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entities.PurchaseOrder, error)
	Update(ctx context.Context, tx pgx.Tx, po *entities.PurchaseOrder) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error

	CreateItem(ctx context.Context, tx pgx.Tx, item *entities.PurchaseOrderItem) (uint64, error)
	FindItem(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PurchaseOrderItem, error)
	ListItems(ctx context.Context, tx pgx.Tx, purchaseOrderID uint64) ([]*entities.PurchaseOrderItem, error)
	UpdateItem(ctx context.Context, tx pgx.Tx, item *entities.PurchaseOrderItem) error
	DeleteItem(ctx context.Context, tx pgx.Tx, id uint64) error
}

type purchaseRepository struct{ storage *pgxpool.Pool }

func NewPurchaseRepository(storage *pgxpool.Pool) PurchaseRepositoryInterface {
	return &purchaseRepository{storage: storage}
}

func (r *purchaseRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *purchaseRepository) scanRow(row pgx.Row) (*entities.PurchaseOrder, error) {
	var po entities.PurchaseOrder
	err := row.Scan(
		&po.ID, &po.OrderID, &po.RepairID, &po.SupplierName, &po.Reference, &po.Confirmation, &po.Carrier, &po.TrackingID,
		&po.SubmittedAt, &po.HasArrived, &po.CreatedAt, &po.CreatedByID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования purchase_orders: %w", err)
	}
	return &po, nil
}

func (r *purchaseRepository) Create(ctx context.Context, tx pgx.Tx, po *entities.PurchaseOrder) (uint64, error) {
	query := `INSERT INTO purchase_orders (order_id, repair_id, supplier_name, reference, carrier, tracking_id, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		po.OrderID, po.RepairID, po.SupplierName, po.Reference, po.Carrier, po.TrackingID, po.CreatedByID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказа поставщику: %w", err)
	}
	return id, nil
}

func (r *purchaseRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PurchaseOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", purchaseFields, purchaseTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *purchaseRepository) FindByRepair(ctx context.Context, tx pgx.Tx, repairID uint64) (*entities.PurchaseOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE repair_id = $1 LIMIT 1", purchaseFields, purchaseTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, repairID))
}

func (r *purchaseRepository) ListByOrder(ctx context.Context, orderID uint64) ([]*entities.PurchaseOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE order_id = $1 ORDER BY id", purchaseFields, purchaseTable)
	rows, err := r.storage.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*entities.PurchaseOrder, 0)
	for rows.Next() {
		po, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

func (r *purchaseRepository) Update(ctx context.Context, tx pgx.Tx, po *entities.PurchaseOrder) error {
	query := `UPDATE purchase_orders SET
		supplier_name = $1, reference = $2, confirmation = $3, carrier = $4, tracking_id = $5,
		submitted_at = $6, has_arrived = $7
		WHERE id = $8`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		po.SupplierName, po.Reference, po.Confirmation, po.Carrier, po.TrackingID,
		po.SubmittedAt, po.HasArrived,
		po.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления заказа поставщику: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *purchaseRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	res, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *purchaseRepository) scanItem(row pgx.Row) (*entities.PurchaseOrderItem, error) {
	var i entities.PurchaseOrderItem
	err := row.Scan(
		&i.ID, &i.PurchaseOrderID, &i.ProductID, &i.OrderItemID, &i.ServicePartID,
		&i.Code, &i.Title, &i.Amount, &i.Price, &i.SN, &i.OrderedAt, &i.ReceivedAt, &i.ExpectedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования purchase_order_items: %w", err)
	}
	return &i, nil
}

func (r *purchaseRepository) CreateItem(ctx context.Context, tx pgx.Tx, item *entities.PurchaseOrderItem) (uint64, error) {
	query := `INSERT INTO purchase_order_items (purchase_order_id, product_id, order_item_id, service_part_id,
		code, title, amount, price, sn)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		item.PurchaseOrderID, item.ProductID, item.OrderItemID, item.ServicePartID,
		item.Code, item.Title, item.Amount, item.Price, item.SN,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания позиции заказа: %w", err)
	}
	return id, nil
}

func (r *purchaseRepository) FindItem(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PurchaseOrderItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", purchaseItemFields, purchaseItemTable)
	return r.scanItem(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *purchaseRepository) ListItems(ctx context.Context, tx pgx.Tx, purchaseOrderID uint64) ([]*entities.PurchaseOrderItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE purchase_order_id = $1 ORDER BY id", purchaseItemFields, purchaseItemTable)
	rows, err := r.getQuerier(tx).Query(ctx, query, purchaseOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entities.PurchaseOrderItem, 0)
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *purchaseRepository) UpdateItem(ctx context.Context, tx pgx.Tx, item *entities.PurchaseOrderItem) error {
	query := `UPDATE purchase_order_items SET
		amount = $1, price = $2, sn = $3, ordered_at = $4, received_at = $5, expected_at = $6
		WHERE id = $7`
	res, err := r.getQuerier(tx).Exec(ctx, query,
		item.Amount, item.Price, item.SN, item.OrderedAt, item.ReceivedAt, item.ExpectedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления позиции заказа: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *purchaseRepository) DeleteItem(ctx context.Context, tx pgx.Tx, id uint64) error {
	res, err := r.getQuerier(tx).Exec(ctx, `DELETE FROM purchase_order_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
