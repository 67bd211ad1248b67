package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sentinelnet/internal/core/domain"
)

// BudgetRepository implements port.BudgetRepository using pgxpool. Row
// atomicity comes from the upsert; serialization of charges for one
// organization is the ledger's job.
type BudgetRepository struct {
	pool *pgxpool.Pool
}

// NewBudgetRepository returns a new repository instance.
func NewBudgetRepository(pool *pgxpool.Pool) *BudgetRepository {
	return &BudgetRepository{pool: pool}
}

func (r *BudgetRepository) Get(ctx context.Context, orgID string) (*domain.BudgetRecord, error) {
	var rec domain.BudgetRecord
	err := r.pool.QueryRow(ctx,
		`SELECT org_id, remaining, window_start, window_end FROM query_budgets WHERE org_id = $1`, orgID).
		Scan(&rec.OrgID, &rec.Remaining, &rec.WindowStart, &rec.WindowEnd)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *BudgetRepository) Save(ctx context.Context, rec *domain.BudgetRecord) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO query_budgets (org_id, remaining, window_start, window_end)
VALUES ($1,$2,$3,$4)
ON CONFLICT (org_id) DO UPDATE SET remaining = $2, window_start = $3, window_end = $4`,
		rec.OrgID, rec.Remaining, rec.WindowStart, rec.WindowEnd)
	return err
}
