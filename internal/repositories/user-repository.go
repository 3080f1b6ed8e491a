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
	userTable  = "users"
	userFields = "id, fio, email, phone, password, should_notify, is_active, location_id, gsx_tech_id, created_at"
)

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	ListByIDs(ctx context.Context, ids []uint64) ([]*entities.User, error)
	GetAll(ctx context.Context) ([]*entities.User, error)
	Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error)
}

type userRepository struct{ storage *pgxpool.Pool }

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &userRepository{storage: storage}
}

func (r *userRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *userRepository) scanRow(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.Fio, &u.Email, &u.Phone, &u.Password, &u.ShouldNotify, &u.IsActive,
		&u.LocationID, &u.GsxTechID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования users: %w", err)
	}
	return &u, nil
}

func (r *userRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", userFields, userTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE email = $1 LIMIT 1", userFields, userTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, email))
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uint64) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ANY($1) ORDER BY id", userFields, userTable)
	rows, err := r.storage.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entities.User, 0, len(ids))
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) GetAll(ctx context.Context) ([]*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY fio", userFields, userTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		user, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	query := `INSERT INTO users (fio, email, phone, password, should_notify, is_active, location_id, gsx_tech_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query,
		user.Fio, user.Email, user.Phone, user.Password, user.ShouldNotify, user.IsActive,
		user.LocationID, user.GsxTechID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return id, nil
}
