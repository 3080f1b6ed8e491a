package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"servo-system/internal/entities"
	apperrors "servo-system/pkg/errors"
)

const (
	tagTable  = "tags"
	tagFields = "id, title, color"
)

type TagRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Tag, error)
	FindByTitle(ctx context.Context, tx pgx.Tx, title string) (*entities.Tag, error)
	GetAll(ctx context.Context) ([]*entities.Tag, error)
	Create(ctx context.Context, tx pgx.Tx, tag *entities.Tag) (uint64, error)
}

type tagRepository struct{ storage *pgxpool.Pool }

func NewTagRepository(storage *pgxpool.Pool) TagRepositoryInterface {
	return &tagRepository{storage: storage}
}

func (r *tagRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *tagRepository) scanRow(row pgx.Row) (*entities.Tag, error) {
	var t entities.Tag
	err := row.Scan(&t.ID, &t.Title, &t.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования tags: %w", err)
	}
	return &t, nil
}

func (r *tagRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Tag, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", tagFields, tagTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *tagRepository) FindByTitle(ctx context.Context, tx pgx.Tx, title string) (*entities.Tag, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE title = $1 LIMIT 1", tagFields, tagTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, title))
}

func (r *tagRepository) GetAll(ctx context.Context) ([]*entities.Tag, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY title", tagFields, tagTable)
	rows, err := r.storage.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]*entities.Tag, 0)
	for rows.Next() {
		tag, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *tagRepository) Create(ctx context.Context, tx pgx.Tx, tag *entities.Tag) (uint64, error) {
	query := `INSERT INTO tags (title, color) VALUES ($1, $2) RETURNING id`
	var id uint64
	err := r.getQuerier(tx).QueryRow(ctx, query, tag.Title, tag.Color).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return 0, apperrors.ErrConflict
		}
		return 0, fmt.Errorf("ошибка создания метки: %w", err)
	}
	return id, nil
}
