package repository

import (
	"context"
	"time"
)

// IResponseCache stores opaque upstream payloads under canonical keys.
// Misses are reported via the boolean; backends treat their own transport
// errors as misses since cached data is always reproducible.
type IResponseCache interface {
	// GetFresh returns the value only while its TTL holds.
	GetFresh(ctx context.Context, key string) ([]byte, bool)
	// GetStale returns the value even past expiry; used only as a
	// degraded fallback when the budget or the upstream is unavailable.
	GetStale(ctx context.Context, key string) ([]byte, bool)
	// Set overwrites any existing entry for the key.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}
