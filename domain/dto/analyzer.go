package dto

import "tubepulse/domain/model"

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	ChannelRefs []string       `json:"channel_refs" binding:"required"`
	Options     AnalyzeOptions `json:"options"`
}

// AnalyzeOptions tunes a single analysis run. Zero values fall back to
// the configured defaults.
type AnalyzeOptions struct {
	UseCache         *bool  `json:"use_cache,omitempty"`
	RealTimeTrending bool   `json:"real_time_trending"`
	RealTimeLive     bool   `json:"real_time_live"`
	Horizon          string `json:"horizon,omitempty"`
	MaxVideos        int    `json:"max_videos,omitempty"`
	MaxShorts        int    `json:"max_shorts,omitempty"`
}

// ChannelError reports a single failed channel without failing the batch.
type ChannelError struct {
	ChannelRef string `json:"channel_ref"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// AnalyzeResponse carries per-channel results plus the quota snapshot
// taken after the run.
type AnalyzeResponse struct {
	Results        []model.ChannelAnalysis `json:"results"`
	Errors         []ChannelError          `json:"errors,omitempty"`
	TotalProcessed int                     `json:"total_processed"`
	TotalFailed    int                     `json:"total_failed"`
	QuotaStatus    model.QuotaStatus       `json:"quota_status"`
}

// ChannelSuggestion is one row of GET /api/channels/search.
type ChannelSuggestion struct {
	ChannelID       string `json:"channel_id"`
	DisplayName     string `json:"display_name"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	SubscriberCount int64  `json:"subscriber_count"`
}

// SearchChannelsResponse wraps suggestion rows with the quota snapshot.
type SearchChannelsResponse struct {
	Suggestions []ChannelSuggestion `json:"suggestions"`
	QuotaStatus model.QuotaStatus   `json:"quota_status"`
}
