package repository

import (
	"context"

	"tubepulse/domain/model"
)

// IUpstream defines the typed operations consumed from the video-platform
// API. Implementations translate transport failures into the apierror
// taxonomy; they perform no caching, rate limiting, or quota accounting.
type IUpstream interface {
	// ChannelInfo looks up a channel by its stable identifier.
	ChannelInfo(ctx context.Context, channelID string) (*model.ChannelRecord, error)
	// ChannelByHandle resolves an @handle to a full channel record.
	ChannelByHandle(ctx context.Context, handle string) (*model.ChannelRecord, error)
	// ChannelsByIDs fetches statistics for up to 50 channels in one call.
	ChannelsByIDs(ctx context.Context, channelIDs []string) ([]model.ChannelRecord, error)
	// PlaylistPage fetches one page of video IDs from an uploads playlist.
	PlaylistPage(ctx context.Context, playlistID, pageToken string, maxResults int64) (*model.PlaylistPage, error)
	// VideoBatch fetches statistics for up to 50 videos in one call.
	VideoBatch(ctx context.Context, videoIDs []string) ([]model.VideoRecord, error)
	// SearchChannels runs a full-text channel search.
	SearchChannels(ctx context.Context, query string, maxResults int64) ([]model.ChannelRecord, error)
}
