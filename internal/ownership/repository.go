package ownership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/groundwork-re/groundwork/internal/platform/db"
	"github.com/groundwork-re/groundwork/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, id int64) (Relationship, error)
	ListByEntity(ctx context.Context, entityID int64, filters ListFilters) ([]Relationship, error)
	Create(ctx context.Context, rel Relationship) (Relationship, error)
	Update(ctx context.Context, id int64, rel Relationship) error
	End(ctx context.Context, id int64, date time.Time) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const relationshipColumns = `id, parent_entity_id, child_entity_id, percentage, relationship_type, effective_date, end_date, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (Relationship, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+relationshipColumns+` FROM ownership_relationships WHERE id = $1`, id)
	rel, err := scanRelationship(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Relationship{}, shared.ErrNotFound
	}
	return rel, err
}

func (r *repository) ListByEntity(ctx context.Context, entityID int64, filters ListFilters) ([]Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM ownership_relationships WHERE `
	switch {
	case filters.AsParent && !filters.AsChild:
		query += `parent_entity_id = $1`
	case filters.AsChild && !filters.AsParent:
		query += `child_entity_id = $1`
	default:
		query += `(parent_entity_id = $1 OR child_entity_id = $1)`
	}
	if filters.ActiveOnly {
		query += ` AND effective_date <= NOW() AND (end_date IS NULL OR end_date > NOW())`
	}
	query += ` ORDER BY effective_date, id`

	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// Create inserts the edge inside a RepeatableRead transaction, re-checking the
// 100%-per-child ceiling against committed rows so concurrent inserts cannot
// overshoot between the service-level check and the write.
func (r *repository) Create(ctx context.Context, rel Relationship) (Relationship, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if rel.Type == RelationshipOwnership {
			available, err := availableInTx(ctx, tx, rel.ChildID, 0)
			if err != nil {
				return err
			}
			if rel.Percentage > available {
				return &shared.OverallocationError{ChildEntityID: rel.ChildID, Requested: rel.Percentage, Available: available}
			}
		}

		now := time.Now()
		err := tx.QueryRow(ctx,
			`INSERT INTO ownership_relationships (parent_entity_id, child_entity_id, percentage, relationship_type, effective_date, end_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
			rel.ParentID, rel.ChildID, rel.Percentage, string(rel.Type), rel.EffectiveDate, rel.EndDate, now).Scan(&rel.ID)
		if err != nil {
			if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.ConstraintName == "uq_ownership_active_edge" {
				return fmt.Errorf("ownership edge %d -> %d already recorded", rel.ParentID, rel.ChildID)
			}
			return err
		}
		rel.CreatedAt = now
		rel.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Relationship{}, err
	}
	return rel, nil
}

func (r *repository) Update(ctx context.Context, id int64, rel Relationship) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if rel.Type == RelationshipOwnership {
			available, err := availableInTx(ctx, tx, rel.ChildID, id)
			if err != nil {
				return err
			}
			if rel.Percentage > available {
				return &shared.OverallocationError{ChildEntityID: rel.ChildID, Requested: rel.Percentage, Available: available}
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE ownership_relationships SET percentage = $2, relationship_type = $3, effective_date = $4, end_date = $5, updated_at = NOW() WHERE id = $1`,
			id, rel.Percentage, string(rel.Type), rel.EffectiveDate, rel.EndDate)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) End(ctx context.Context, id int64, date time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ownership_relationships SET end_date = $2, updated_at = NOW() WHERE id = $1`, id, date)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ownership_relationships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func availableInTx(ctx context.Context, tx pgx.Tx, childID, excludeID int64) (float64, error) {
	var allocated float64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(percentage), 0) FROM ownership_relationships
		 WHERE child_entity_id = $1 AND relationship_type = 'ownership' AND id <> $2
		   AND effective_date <= NOW() AND (end_date IS NULL OR end_date > NOW())`,
		childID, excludeID).Scan(&allocated)
	if err != nil {
		return 0, err
	}
	return 100 - allocated, nil
}

func scanRelationship(row pgx.Row) (Relationship, error) {
	var rel Relationship
	err := row.Scan(&rel.ID, &rel.ParentID, &rel.ChildID, &rel.Percentage, &rel.Type, &rel.EffectiveDate, &rel.EndDate, &rel.CreatedAt, &rel.UpdatedAt)
	return rel, err
}
