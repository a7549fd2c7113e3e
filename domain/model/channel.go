package model

// ChannelRecord is a snapshot of channel identity and statistics.
type ChannelRecord struct {
	ChannelID       string `json:"channel_id"`
	DisplayName     string `json:"display_name"`
	ThumbnailURL    string `json:"thumbnail_url"`
	SubscriberCount int64  `json:"subscriber_count"`
	TotalViewCount  int64  `json:"total_view_count"`
	UploadsListRef  string `json:"uploads_list_ref"`
}

// ChannelAnalysis is the per-channel payload produced by one analysis
// pipeline run. Slices are ranked, highest first.
type ChannelAnalysis struct {
	Channel        ChannelRecord `json:"channel"`
	Videos         []VideoRecord `json:"videos"`
	Shorts         []VideoRecord `json:"shorts"`
	TrendingVideos []VideoRecord `json:"trending_videos"`
	TrendingShorts []VideoRecord `json:"trending_shorts"`
	Live           *VideoRecord  `json:"live,omitempty"`
	// LiveCached marks a live entry surfaced from a still-valid cached
	// observation after a fresh fetch reported no live broadcast.
	LiveCached   bool    `json:"live_cached,omitempty"`
	Horizon      Horizon `json:"horizon"`
	TotalFetched int     `json:"total_fetched"`
	// Degraded marks a payload assembled from scraped or stale data after
	// the quota budget ran out.
	Degraded bool `json:"degraded,omitempty"`
}
