package dedup

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// AlertRepository persists duplicate-account findings.
type AlertRepository interface {
	Create(ctx context.Context, alert DuplicateAlert) (DuplicateAlert, error)
	Get(ctx context.Context, id int64) (DuplicateAlert, error)
	Update(ctx context.Context, alert DuplicateAlert) error
	List(ctx context.Context, filters ListFilters) ([]DuplicateAlert, error)
	ExistsForPair(ctx context.Context, accountAID, accountBID int64) (bool, error)
}

type alertRepository struct {
	pool *pgxpool.Pool
}

func NewAlertRepository(pool *pgxpool.Pool) AlertRepository {
	return &alertRepository{pool: pool}
}

const alertColumns = `id, entity_a_id, entity_b_id, account_a_id, account_b_id, match_type, confidence, status, notes, reviewed_by, reviewed_at, created_at`

func (r *alertRepository) Create(ctx context.Context, alert DuplicateAlert) (DuplicateAlert, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO duplicate_alerts (entity_a_id, entity_b_id, account_a_id, account_b_id, match_type, confidence, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id, created_at`,
		alert.EntityAID, alert.EntityBID, alert.AccountAID, alert.AccountBID, string(alert.MatchType), alert.Confidence, string(alert.Status)).
		Scan(&alert.ID, &alert.CreatedAt)
	return alert, err
}

func (r *alertRepository) Get(ctx context.Context, id int64) (DuplicateAlert, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM duplicate_alerts WHERE id = $1`, id)
	alert, err := scanAlert(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return DuplicateAlert{}, shared.ErrNotFound
	}
	return alert, err
}

func (r *alertRepository) Update(ctx context.Context, alert DuplicateAlert) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE duplicate_alerts SET status = $2, notes = $3, reviewed_by = $4, reviewed_at = $5 WHERE id = $1`,
		alert.ID, string(alert.Status), alert.Notes, alert.ReviewedBy, alert.ReviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *alertRepository) List(ctx context.Context, filters ListFilters) ([]DuplicateAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM duplicate_alerts WHERE 1=1`
	args := []interface{}{}
	argCount := 0
	if filters.EntityID > 0 {
		argCount++
		placeholder := strconv.Itoa(argCount)
		query += ` AND (entity_a_id = $` + placeholder + ` OR entity_b_id = $` + placeholder + `)`
		args = append(args, filters.EntityID)
	}
	if filters.Status != "" {
		argCount++
		query += ` AND status = $` + strconv.Itoa(argCount)
		args = append(args, string(filters.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []DuplicateAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r *alertRepository) ExistsForPair(ctx context.Context, accountAID, accountBID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM duplicate_alerts
		 WHERE (account_a_id = $1 AND account_b_id = $2) OR (account_a_id = $2 AND account_b_id = $1))`,
		accountAID, accountBID).Scan(&exists)
	return exists, err
}

func scanAlert(row pgx.Row) (DuplicateAlert, error) {
	var a DuplicateAlert
	err := row.Scan(&a.ID, &a.EntityAID, &a.EntityBID, &a.AccountAID, &a.AccountBID, &a.MatchType, &a.Confidence, &a.Status, &a.Notes, &a.ReviewedBy, &a.ReviewedAt, &a.CreatedAt)
	return a, err
}
