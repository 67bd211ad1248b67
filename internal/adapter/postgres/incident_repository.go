package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sentinelnet/internal/core/domain"
)

// IncidentRepository implements port.IncidentRepository using pgxpool.
// Tag sets and IOC lists are stored as JSONB columns.
type IncidentRepository struct {
	pool *pgxpool.Pool
}

// NewIncidentRepository returns a new repository instance.
func NewIncidentRepository(pool *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{pool: pool}
}

const incidentColumns = `id, org_id, local_ref, time_start, time_end, attack_vector,
ai_components, techniques, iocs, impact_level, summary, campaign_id, created_at`

func (r *IncidentRepository) Create(ctx context.Context, in *domain.Incident) error {
	components, techniques, iocs, err := marshalIncidentJSON(in)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO incidents
(id, org_id, local_ref, time_start, time_end, attack_vector, ai_components, techniques, iocs, impact_level, summary, campaign_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		in.ID, in.OrgID, in.LocalRef, in.TimeStart, in.TimeEnd, in.AttackVector,
		components, techniques, iocs, in.ImpactLevel, in.Summary, in.CampaignID, in.CreatedAt)
	return err
}

// Update replaces the descriptive fields of an incident. The campaign
// assignment and creation timestamp are deliberately left untouched.
func (r *IncidentRepository) Update(ctx context.Context, in *domain.Incident) error {
	components, techniques, iocs, err := marshalIncidentJSON(in)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE incidents SET
time_start = $2, time_end = $3, attack_vector = $4, ai_components = $5,
techniques = $6, iocs = $7, impact_level = $8, summary = $9
WHERE id = $1`,
		in.ID, in.TimeStart, in.TimeEnd, in.AttackVector,
		components, techniques, iocs, in.ImpactLevel, in.Summary)
	return err
}

func (r *IncidentRepository) Get(ctx context.Context, id string) (*domain.Incident, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id = $1`, id)
	return scanIncident(row)
}

func (r *IncidentRepository) FindByOrgRef(ctx context.Context, orgID, localRef string) (*domain.Incident, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE org_id = $1 AND local_ref = $2`,
		orgID, localRef)
	return scanIncident(row)
}

// AssignCampaign performs the one-time campaign assignment. An already
// assigned incident is never moved.
func (r *IncidentRepository) AssignCampaign(ctx context.Context, incidentID string, campaignID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE incidents SET campaign_id = $2 WHERE id = $1 AND campaign_id IS NULL`,
		incidentID, campaignID)
	return err
}

func (r *IncidentRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*domain.Incident, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE campaign_id = $1 ORDER BY created_at, id`,
		campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Incident, error) {
		return collectIncident(row)
	})
}

func (r *IncidentRepository) ListInWindow(ctx context.Context, from, to time.Time) ([]*domain.Incident, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE time_start >= $1 AND time_start <= $2 ORDER BY time_start, id`,
		from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Incident, error) {
		return collectIncident(row)
	})
}

func marshalIncidentJSON(in *domain.Incident) (components, techniques, iocs []byte, err error) {
	if components, err = json.Marshal(in.AIComponents); err != nil {
		return
	}
	if techniques, err = json.Marshal(in.Techniques); err != nil {
		return
	}
	iocs, err = json.Marshal(in.IOCs)
	return
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	in, err := collectIncident(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

func collectIncident(row pgx.Row) (*domain.Incident, error) {
	var (
		in                          domain.Incident
		components, techniques, raw []byte
	)
	err := row.Scan(
		&in.ID, &in.OrgID, &in.LocalRef, &in.TimeStart, &in.TimeEnd, &in.AttackVector,
		&components, &techniques, &raw, &in.ImpactLevel, &in.Summary, &in.CampaignID, &in.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(components, &in.AIComponents); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(techniques, &in.Techniques); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(raw, &in.IOCs); err != nil {
		return nil, err
	}
	return &in, nil
}
