// Package ranking holds the pure scoring and selection rules applied to
// fetched video records. Nothing here performs I/O or reads the clock;
// callers pass `now` explicitly.
package ranking

import (
	"sort"
	"time"

	"tubepulse/domain/model"
)

// FloorHours clamps the age of just-published videos so their trending
// score stays finite. One minute.
const FloorHours = 1.0 / 60.0

// Scored pairs a video with its computed trending score.
type Scored struct {
	Video model.VideoRecord `json:"video"`
	Score float64           `json:"score"`
}

// HoursSince returns the age of a video in fractional hours, never negative.
func HoursSince(v model.VideoRecord, now time.Time) float64 {
	h := now.Sub(v.PublishedAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// TrendingScore is view velocity: views divided by age, with the age
// clamped to FloorHours.
func TrendingScore(v model.VideoRecord, now time.Time) float64 {
	hours := HoursSince(v, now)
	if hours < FloorHours {
		hours = FloorHours
	}
	return float64(v.ViewCount) / hours
}

// Trending filters videos to those published within the window, scores
// them by view velocity, and returns the top N. Ties on score prefer the
// higher raw view count, then the earlier publish time.
func Trending(videos []model.VideoRecord, now time.Time, window time.Duration, topN int) []Scored {
	scored := make([]Scored, 0, len(videos))
	for _, v := range videos {
		age := now.Sub(v.PublishedAt)
		if age < 0 || age > window {
			continue
		}
		scored = append(scored, Scored{Video: v, Score: TrendingScore(v, now)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Video.ViewCount != b.Video.ViewCount {
			return a.Video.ViewCount > b.Video.ViewCount
		}
		return a.Video.PublishedAt.Before(b.Video.PublishedAt)
	})
	if topN >= 0 && len(scored) > topN {
		scored = scored[:topN]
	}
	return scored
}

// Partition splits records by media class. Longform and shorts are always
// ranked in separate lists.
func Partition(videos []model.VideoRecord) (longform, shorts []model.VideoRecord) {
	for _, v := range videos {
		if v.MediaClass == model.MediaShort {
			shorts = append(shorts, v)
		} else {
			longform = append(longform, v)
		}
	}
	return longform, shorts
}

// SelectLive picks the single live candidate with the highest concurrent
// viewer count; ties go to the most recently published. Returns nil when
// nothing is live.
func SelectLive(videos []model.VideoRecord) *model.VideoRecord {
	var best *model.VideoRecord
	for i := range videos {
		v := &videos[i]
		if v.LiveState != model.LiveNow {
			continue
		}
		switch {
		case best == nil:
			best = v
		case v.LiveViewerCount > best.LiveViewerCount:
			best = v
		case v.LiveViewerCount == best.LiveViewerCount && v.PublishedAt.After(best.PublishedAt):
			best = v
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// HorizonRate normalizes a view count to the given horizon. A video
// younger than the horizon ranks on its raw total; a rate stretched over a
// span longer than the video's age would overstate it.
func HorizonRate(v model.VideoRecord, horizon model.Horizon, now time.Time) float64 {
	hours := HoursSince(v, now)
	hh := horizon.Hours()
	if hours < hh {
		return float64(v.ViewCount)
	}
	return float64(v.ViewCount) / (hours / hh)
}

// ByHorizon returns videos sorted descending by their horizon-normalized
// rate. The input slice is not modified.
func ByHorizon(videos []model.VideoRecord, horizon model.Horizon, now time.Time) []model.VideoRecord {
	out := make([]model.VideoRecord, len(videos))
	copy(out, videos)
	sort.SliceStable(out, func(i, j int) bool {
		return HorizonRate(out[i], horizon, now) > HorizonRate(out[j], horizon, now)
	})
	return out
}
