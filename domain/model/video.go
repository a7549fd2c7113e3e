package model

import "time"

// MediaClass separates regular uploads from shorts; the two are never ranked
// against each other.
type MediaClass string

const (
	MediaVideo MediaClass = "video"
	MediaShort MediaClass = "short"
)

// LiveState reflects the broadcast state of a video at fetch time.
type LiveState string

const (
	LiveNone  LiveState = "none"
	LiveNow   LiveState = "live"
	LiveEnded LiveState = "ended"
)

// VideoRecord is an immutable snapshot of a video as fetched from the
// upstream platform. A fresher fetch produces a new record; snapshots are
// never mutated in place.
type VideoRecord struct {
	ID              string     `json:"id"`
	ChannelID       string     `json:"channel_id"`
	Title           string     `json:"title"`
	PublishedAt     time.Time  `json:"published_at"`
	ViewCount       int64      `json:"view_count"`
	LikeCount       int64      `json:"like_count"`
	ThumbnailURL    string     `json:"thumbnail_url"`
	WatchURL        string     `json:"watch_url"`
	MediaClass      MediaClass `json:"media_class"`
	LiveState       LiveState  `json:"live_state"`
	LiveViewerCount int64      `json:"live_viewer_count,omitempty"`
}

// IsShort reports whether the record belongs to the shorts partition.
func (v VideoRecord) IsShort() bool { return v.MediaClass == MediaShort }

// PlaylistPage is one page of video IDs from an uploads playlist.
type PlaylistPage struct {
	VideoIDs      []string `json:"video_ids"`
	NextPageToken string   `json:"next_page_token"`
}
