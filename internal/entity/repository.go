package entity

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-re/groundwork/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Entity, error)
	List(ctx context.Context, filters ListFilters) ([]Entity, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (Entity, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, purpose, project_type, is_active, created_at, updated_at FROM entities WHERE id = $1`, id)
	e, err := scanEntity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entity{}, shared.ErrNotFound
	}
	return e, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Entity, int, error) {
	query := `SELECT id, name, purpose, project_type, is_active, created_at, updated_at FROM entities WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM entities WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Purpose != "" {
		argCount++
		clause := ` AND purpose = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, string(filters.Purpose))
	}
	if filters.ActiveOnly {
		query += ` AND is_active`
		countQuery += ` AND is_active`
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}
		entities = append(entities, e)
	}
	return entities, total, rows.Err()
}

func scanEntity(row pgx.Row) (Entity, error) {
	var e Entity
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&e.ID, &e.Name, &e.Purpose, &e.ProjectType, &e.IsActive, &createdAt, &updatedAt); err != nil {
		return Entity{}, err
	}
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		e.UpdatedAt = updatedAt.Time
	}
	return e, nil
}
