package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sentinelnet/internal/core/domain"
)

// OrganizationRepository implements port.OrganizationRepository using pgxpool.
type OrganizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository returns a new repository instance.
func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

func (r *OrganizationRepository) Get(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.pool.QueryRow(ctx,
		`SELECT id, display_name, sector, region, api_key_hash, created_at FROM organizations WHERE id = $1`, id).
		Scan(&org.ID, &org.DisplayName, &org.Sector, &org.Region, &org.APIKeyHash, &org.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]*domain.Organization, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, display_name, sector, region, api_key_hash, created_at FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Organization, error) {
		var org domain.Organization
		err := row.Scan(&org.ID, &org.DisplayName, &org.Sector, &org.Region, &org.APIKeyHash, &org.CreatedAt)
		return &org, err
	})
}
