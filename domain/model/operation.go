package model

// OperationKind classifies an upstream call for costing and caching purposes.
type OperationKind string

const (
	OpChannelInfo  OperationKind = "channel_info"
	OpPlaylistPage OperationKind = "playlist_page"
	OpVideoBatch   OperationKind = "video_batch"
	OpSearch       OperationKind = "search"
	OpCustom       OperationKind = "custom"
)

// Horizon is a named time span used to normalize view counts into a rate.
type Horizon string

const (
	HorizonHalfHour Horizon = "30m"
	HorizonHour     Horizon = "1h"
	HorizonDay      Horizon = "1d"
	HorizonMonth    Horizon = "1mo"
	HorizonYear     Horizon = "1y"
	HorizonAllTime  Horizon = "all"
)

// Hours returns the horizon length in hours. All-time is modeled as a span
// longer than any plausible video age so every record ranks on its raw count.
func (h Horizon) Hours() float64 {
	switch h {
	case HorizonHalfHour:
		return 0.5
	case HorizonHour:
		return 1
	case HorizonDay:
		return 24
	case HorizonMonth:
		return 730
	case HorizonYear:
		return 8760
	default:
		return 8760 * 1000
	}
}

// ParseHorizon maps a request string onto a known horizon, defaulting to all-time.
func ParseHorizon(s string) Horizon {
	switch Horizon(s) {
	case HorizonHalfHour, HorizonHour, HorizonDay, HorizonMonth, HorizonYear:
		return Horizon(s)
	default:
		return HorizonAllTime
	}
}
