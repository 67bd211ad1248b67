package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Seed inserts demo organizations with well-known API keys. Intended for
// local development only; every insert is idempotent.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	orgs := []struct {
		id, name, sector, region, apiKey string
	}{
		{"org_alice", "Alice Health Network", "health", "NA-East", "demo-key-alice"},
		{"org_bob", "Bob Energy Corp", "energy", "EU", "demo-key-bob"},
		{"org_carol", "Carol Water Utility", "water", "NA-West", "demo-key-carol"},
		{"org_dave", "Dave Financial Group", "finance", "APAC", "demo-key-dave"},
	}

	for _, org := range orgs {
		hash, err := bcrypt.GenerateFromPassword([]byte(org.apiKey), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = pool.Exec(ctx, `INSERT INTO organizations
(id, display_name, sector, region, api_key_hash, created_at)
VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (id) DO NOTHING`,
			org.id, org.name, org.sector, org.region, string(hash), time.Now().UTC())
		if err != nil {
			return err
		}
	}
	return nil
}
