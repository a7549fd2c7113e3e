package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// EnsureQuotaSchema creates the quota usage table if not exists
func EnsureQuotaSchema(db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS quota_usage (
        epoch_id TEXT PRIMARY KEY,
        units_used BIGINT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("create quota_usage table: %w", err)
	}
	return nil
}

// QuotaStore persists per-epoch quota usage in PostgreSQL. It backs the
// in-memory ledger across restarts; the ledger never reads it on the hot
// path.
type QuotaStore struct{ db *sql.DB }

func NewQuotaStore(db *sql.DB) *QuotaStore {
	return &QuotaStore{db: db}
}

// Load returns the units recorded for an epoch, zero when no row exists.
func (r *QuotaStore) Load(ctx context.Context, epochID string) (int64, error) {
	if r.db == nil {
		return 0, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT units_used FROM quota_usage WHERE epoch_id=$1`, epochID)
	var used int64
	if err := row.Scan(&used); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}

// Save upserts the usage row for an epoch.
func (r *QuotaStore) Save(ctx context.Context, epochID string, unitsUsed int64) error {
	if r.db == nil {
		return nil
	}
	q := `INSERT INTO quota_usage(epoch_id, units_used, updated_at)
          VALUES ($1,$2,$3)
          ON CONFLICT (epoch_id) DO UPDATE SET units_used=EXCLUDED.units_used, updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, epochID, unitsUsed, time.Now().UTC())
	return err
}
