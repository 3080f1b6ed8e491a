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
	gsxAccountTable  = "gsx_accounts"
	gsxAccountFields = "id, title, sold_to, ship_to, tech_id, environment"
)

type GsxAccountRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.GsxAccount, error)
	FindBySoldTo(ctx context.Context, soldTo string) (*entities.GsxAccount, error)
	GetAll(ctx context.Context) ([]*entities.GsxAccount, error)
}

type gsxAccountRepository struct{ storage *pgxpool.Pool }

func NewGsxAccountRepository(storage *pgxpool.Pool) GsxAccountRepositoryInterface {
	return &gsxAccountRepository{storage: storage}
}

func (r *gsxAccountRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *gsxAccountRepository) scanRow(row pgx.Row) (*entities.GsxAccount, error) {
	var a entities.GsxAccount
	err := row.Scan(&a.ID, &a.Title, &a.SoldTo, &a.ShipTo, &a.TechID, &a.Environment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования gsx_accounts: %w", err)
	}
	return &a, nil
}

func (r *gsxAccountRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.GsxAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", gsxAccountFields, gsxAccountTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *gsxAccountRepository) FindBySoldTo(ctx context.Context, soldTo string) (*entities.GsxAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE sold_to = $1 LIMIT 1", gsxAccountFields, gsxAccountTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, soldTo))
}

func (r *gsxAccountRepository) GetAll(ctx context.Context) ([]*entities.GsxAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY title", gsxAccountFields, gsxAccountTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*entities.GsxAccount, 0)
	for rows.Next() {
		acc, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}
