package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sentinelnet/internal/core/domain"
	"sentinelnet/internal/core/port"
)

// CampaignRepository implements port.CampaignRepository using pgxpool.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a new repository instance.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

const campaignColumns = `id, primary_attack_vector, ai_components, sectors, regions,
first_seen, last_seen, num_orgs, num_incidents, canonical_summary, sample_iocs,
created_at, updated_at`

func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	components, sectors, regions, samples, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `INSERT INTO campaigns
(primary_attack_vector, ai_components, sectors, regions, first_seen, last_seen,
 num_orgs, num_incidents, canonical_summary, sample_iocs, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
		c.PrimaryAttackVector, components, sectors, regions, c.FirstSeen, c.LastSeen,
		c.NumOrgs, c.NumIncidents, c.CanonicalSummary, samples, c.CreatedAt, c.UpdatedAt).
		Scan(&c.ID)
}

func (r *CampaignRepository) Update(ctx context.Context, c *domain.Campaign) error {
	components, sectors, regions, samples, err := marshalCampaignJSON(c)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `UPDATE campaigns SET
ai_components = $2, sectors = $3, regions = $4, first_seen = $5, last_seen = $6,
num_orgs = $7, num_incidents = $8, canonical_summary = $9, sample_iocs = $10, updated_at = $11
WHERE id = $1`,
		c.ID, components, sectors, regions, c.FirstSeen, c.LastSeen,
		c.NumOrgs, c.NumIncidents, c.CanonicalSummary, samples, c.UpdatedAt)
	return err
}

func (r *CampaignRepository) Get(ctx context.Context, id int64) (*domain.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := collectCampaign(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Candidates(ctx context.Context, vector domain.AttackVector, from, to time.Time) ([]*domain.Campaign, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns
WHERE primary_attack_vector = $1 AND last_seen >= $2 AND first_seen <= $3
ORDER BY id`, vector, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Campaign, error) {
		return collectCampaign(row)
	})
}

// List applies the pushed-down filters (attack vector, since, until).
// Sector and region membership is evaluated by the usecase against the
// unprojected aggregate.
func (r *CampaignRepository) List(ctx context.Context, f port.CampaignFilters) ([]*domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE true`
	var args []any
	if f.AttackVector != nil {
		args = append(args, *f.AttackVector)
		query += ` AND primary_attack_vector = $1`
	}
	if f.Since != nil {
		args = append(args, *f.Since)
		query += ` AND last_seen >= $` + strconv.Itoa(len(args))
	}
	if f.Until != nil {
		args = append(args, *f.Until)
		query += ` AND first_seen <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Campaign, error) {
		return collectCampaign(row)
	})
}

func marshalCampaignJSON(c *domain.Campaign) (components, sectors, regions, samples []byte, err error) {
	if components, err = json.Marshal(c.AIComponents); err != nil {
		return
	}
	if sectors, err = json.Marshal(c.Sectors); err != nil {
		return
	}
	if regions, err = json.Marshal(c.Regions); err != nil {
		return
	}
	samples, err = json.Marshal(c.SampleIOCs)
	return
}

func collectCampaign(row pgx.Row) (*domain.Campaign, error) {
	var (
		c                                     domain.Campaign
		components, sectors, regions, samples []byte
	)
	err := row.Scan(
		&c.ID, &c.PrimaryAttackVector, &components, &sectors, &regions,
		&c.FirstSeen, &c.LastSeen, &c.NumOrgs, &c.NumIncidents, &c.CanonicalSummary,
		&samples, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(components, &c.AIComponents); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(sectors, &c.Sectors); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(regions, &c.Regions); err != nil {
		return nil, err
	}
	if err = json.Unmarshal(samples, &c.SampleIOCs); err != nil {
		return nil, err
	}
	return &c, nil
}

