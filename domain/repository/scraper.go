package repository

import (
	"context"

	"tubepulse/domain/model"
)

// IScraper is the best-effort fallback collaborator that reads public
// channel pages without spending quota. Results may be partial; callers
// treat every error as "fallback unavailable" and move on.
type IScraper interface {
	// ResolveHandle extracts the stable channel ID from a handle page.
	ResolveHandle(ctx context.Context, handle string) (string, error)
	// FetchChannel assembles a minimal channel record from page metadata.
	FetchChannel(ctx context.Context, ref string) (*model.ChannelRecord, error)
}
