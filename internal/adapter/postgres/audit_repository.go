package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"sentinelnet/internal/core/domain"
)

// AuditRepository implements port.AuditRepository using pgxpool. Entries
// are insert-only; nothing in the schema or the adapter updates or deletes
// them.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository returns a new repository instance.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	params, err := json.Marshal(e.Params)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (org_id, action, params, result_count, created_at) VALUES ($1,$2,$3,$4,$5)`,
		e.OrgID, e.Action, params, e.ResultCount, e.CreatedAt)
	return err
}
