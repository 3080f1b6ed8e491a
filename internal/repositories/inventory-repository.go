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
	productTable  = "products"
	productFields = "id, code, title, price, part_type, is_serialized, comptia_code, comptia_modifier"
)

type InventoryRepositoryInterface interface {
	FindProduct(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Product, error)
	FindProductByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Product, error)
	CreateProduct(ctx context.Context, tx pgx.Tx, product *entities.Product) (uint64, error)

	// Счётчики склада. UPSERT: строка создаётся при первом движении товара.
	IncrementOrdered(ctx context.Context, tx pgx.Tx, productID, locationID uint64, amount int) error
	IncrementStocked(ctx context.Context, tx pgx.Tx, productID, locationID uint64, amount int) error
	FindCounters(ctx context.Context, productID, locationID uint64) (*entities.Inventory, error)
}

type inventoryRepository struct{ storage *pgxpool.Pool }

func NewInventoryRepository(storage *pgxpool.Pool) InventoryRepositoryInterface {
	return &inventoryRepository{storage: storage}
}

func (r *inventoryRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *inventoryRepository) scanProduct(row pgx.Row) (*entities.Product, error) {
	var p entities.Product
	err := row.Scan(&p.ID, &p.Code, &p.Title, &p.Price, &p.PartType, &p.IsSerialized, &p.ComptiaCode, &p.ComptiaModifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования products: %w", err)
	}
	return &p, nil
}

func (r *inventoryRepository) FindProduct(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", productFields, productTable)
	return r.scanProduct(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *inventoryRepository) FindProductByCode(ctx context.Context, tx pgx.Tx, code string) (*entities.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE code = $1 LIMIT 1", productFields, productTable)
	return r.scanProduct(r.getQuerier(tx).QueryRow(ctx, query, code))
}

func (r *inventoryRepository) CreateProduct(ctx context.Context, tx pgx.Tx, product *entities.Product) (uint64, error) {
	query := `INSERT INTO products (code, title, price, part_type, is_serialized, comptia_code, comptia_modifier)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		product.Code, product.Title, product.Price, product.PartType, product.IsSerialized,
		product.ComptiaCode, product.ComptiaModifier,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания товара: %w", err)
	}
	return id, nil
}

func (r *inventoryRepository) IncrementOrdered(ctx context.Context, tx pgx.Tx, productID, locationID uint64, amount int) error {
	query := `INSERT INTO inventories (product_id, location_id, amount_ordered, amount_stocked, amount_reserved)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET amount_ordered = inventories.amount_ordered + EXCLUDED.amount_ordered`
	_, err := r.getQuerier(tx).Exec(ctx, query, productID, locationID, amount)
	if err != nil {
		return fmt.Errorf("ошибка инкремента заказанного количества: %w", err)
	}
	return nil
}

// IncrementStocked переводит товар из «заказано» в «на складе».
func (r *inventoryRepository) IncrementStocked(ctx context.Context, tx pgx.Tx, productID, locationID uint64, amount int) error {
	query := `INSERT INTO inventories (product_id, location_id, amount_ordered, amount_stocked, amount_reserved)
		VALUES ($1, $2, 0, $3, 0)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET
			amount_stocked = inventories.amount_stocked + EXCLUDED.amount_stocked,
			amount_ordered = GREATEST(inventories.amount_ordered - EXCLUDED.amount_stocked, 0)`
	_, err := r.getQuerier(tx).Exec(ctx, query, productID, locationID, amount)
	if err != nil {
		return fmt.Errorf("ошибка инкремента складского количества: %w", err)
	}
	return nil
}

func (r *inventoryRepository) FindCounters(ctx context.Context, productID, locationID uint64) (*entities.Inventory, error) {
	query := `SELECT id, product_id, location_id, amount_ordered, amount_stocked, amount_reserved
		FROM inventories WHERE product_id = $1 AND location_id = $2`
	var inv entities.Inventory
	err := r.storage.QueryRow(ctx, query, productID, locationID).Scan(
		&inv.ID, &inv.ProductID, &inv.LocationID, &inv.AmountOrdered, &inv.AmountStocked, &inv.AmountReserved,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования inventories: %w", err)
	}
	return &inv, nil
}
