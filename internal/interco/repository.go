package interco

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-re/groundwork/internal/shared"
)

// Repository persists intercompany flags on ledger entries.
type Repository interface {
	Get(ctx context.Context, entryID int64) (Transaction, error)
	List(ctx context.Context, entityIDs []int64, rng DateRange, flaggedOnly bool) ([]Transaction, error)
	Flag(ctx context.Context, entryID, counterpartyID int64, at time.Time) (Transaction, error)
	Suggest(ctx context.Context, entryID int64) error
	MarkEliminated(ctx context.Context, entryIDs []int64, at time.Time) (int, error)
	ListPending(ctx context.Context, entityIDs []int64) ([]Transaction, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const entryColumns = `id, entity_id, counterparty_entity_id, account_id, amount, entry_date, description, ic_status, ic_suggested, flagged_at, eliminated_at`

func (r *repository) Get(ctx context.Context, entryID int64) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, entryID)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return tx, err
}

func (r *repository) List(ctx context.Context, entityIDs []int64, rng DateRange, flaggedOnly bool) ([]Transaction, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entity_id = ANY($1)`
	args := []interface{}{entityIDs}
	argCount := 1
	if flaggedOnly {
		query += ` AND ic_status IS NOT NULL`
	}
	if rng.Start != nil {
		argCount++
		query += ` AND entry_date >= $` + strconv.Itoa(argCount)
		args = append(args, *rng.Start)
	}
	if rng.End != nil {
		argCount++
		query += ` AND entry_date <= $` + strconv.Itoa(argCount)
		args = append(args, *rng.End)
	}
	query += ` ORDER BY entry_date, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *repository) Flag(ctx context.Context, entryID, counterpartyID int64, at time.Time) (Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE ledger_entries
		 SET counterparty_entity_id = $2, ic_status = $3, ic_suggested = FALSE, flagged_at = $4
		 WHERE id = $1
		 RETURNING `+entryColumns,
		entryID, counterpartyID, string(StatusPendingElimination), at)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return tx, err
}

func (r *repository) Suggest(ctx context.Context, entryID int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ledger_entries SET ic_suggested = TRUE WHERE id = $1 AND ic_status IS NULL`, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) MarkEliminated(ctx context.Context, entryIDs []int64, at time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ledger_entries SET ic_status = $2, eliminated_at = $3
		 WHERE id = ANY($1) AND ic_status = $4`,
		entryIDs, string(StatusEliminated), at, string(StatusPendingElimination))
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *repository) ListPending(ctx context.Context, entityIDs []int64) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE entity_id = ANY($1) AND ic_status = $2
		 ORDER BY entry_date, id`,
		entityIDs, string(StatusPendingElimination))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	var counterparty *int64
	var status *string
	err := row.Scan(&t.ID, &t.EntityID, &counterparty, &t.AccountID, &t.Amount, &t.Date, &t.Description, &status, &t.Suggested, &t.FlaggedAt, &t.EliminatedAt)
	if err != nil {
		return Transaction{}, err
	}
	if counterparty != nil {
		t.CounterpartyEntityID = *counterparty
	}
	if status != nil {
		t.Status = Status(*status)
	}
	return t, nil
}
