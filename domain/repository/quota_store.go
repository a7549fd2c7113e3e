package repository

import "context"

// IQuotaStore persists per-epoch quota usage so the ledger survives
// process restarts. The in-process ledger remains the single authority;
// the store is write-through, never consulted on the hot path.
type IQuotaStore interface {
	// Load returns the units recorded for an epoch, zero when absent.
	Load(ctx context.Context, epochID string) (int64, error)
	// Save upserts the usage row for an epoch.
	Save(ctx context.Context, epochID string, unitsUsed int64) error
}
