package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-re/groundwork/internal/shared"
)

type Repository interface {
	EntityExists(ctx context.Context, entityID int64) (bool, error)
	List(ctx context.Context, entityID int64, opts ListOptions) ([]Account, error)
	Get(ctx context.Context, accountID int64) (Account, error)
	SetActive(ctx context.Context, accountID int64, active bool) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) EntityExists(ctx context.Context, entityID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM entities WHERE id = $1)`, entityID).Scan(&exists)
	return exists, err
}

func (r *repository) List(ctx context.Context, entityID int64, opts ListOptions) ([]Account, error) {
	query := `SELECT id, entity_id, number, name, type, is_header, balance, is_active, template_id, created_at, updated_at FROM accounts WHERE entity_id = $1`
	args := []interface{}{entityID}
	argCount := 1
	if opts.ActiveOnly {
		query += ` AND is_active`
	}
	if opts.Type != "" {
		argCount++
		query += ` AND type = $` + strconv.Itoa(argCount)
		args = append(args, string(opts.Type))
	}
	query += ` ORDER BY number`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.EntityID, &a.Number, &a.Name, &a.Type, &a.IsHeader, &a.Balance, &a.IsActive, &a.TemplateID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, accountID int64) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, entity_id, number, name, type, is_header, balance, is_active, template_id, created_at, updated_at FROM accounts WHERE id = $1`, accountID).
		Scan(&a.ID, &a.EntityID, &a.Number, &a.Name, &a.Type, &a.IsHeader, &a.Balance, &a.IsActive, &a.TemplateID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, shared.ErrNotFound
	}
	return a, err
}

func (r *repository) SetActive(ctx context.Context, accountID int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET is_active = $2, updated_at = NOW() WHERE id = $1`, accountID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
