package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFillsDefaults(t *testing.T) {
	cfg := Load()
	require.NotNil(t, cfg)

	t.Run("quota_defaults", func(t *testing.T) {
		assert.Equal(t, int64(10000), cfg.YouTube.Quota.DailyLimit)
		assert.InDelta(t, 0.8, cfg.YouTube.Quota.WarningThreshold, 0.001)
		assert.Equal(t, "America/Los_Angeles", cfg.YouTube.Quota.Timezone)
	})

	t.Run("cost_table_defaults", func(t *testing.T) {
		assert.Equal(t, int64(1), cfg.YouTube.Costs["channel_info"])
		assert.Equal(t, int64(1), cfg.YouTube.Costs["playlist_page"])
		assert.Equal(t, int64(1), cfg.YouTube.Costs["video_batch"])
		assert.Equal(t, int64(100), cfg.YouTube.Costs["search"])
	})

	t.Run("ttl_table_defaults", func(t *testing.T) {
		assert.Equal(t, 86400, cfg.YouTube.CacheTTLSeconds["channel_info"])
		assert.Equal(t, 1800, cfg.YouTube.CacheTTLSeconds["playlist_page"])
		assert.Equal(t, 60, cfg.YouTube.CacheTTLSeconds["live"])
	})

	t.Run("rate_limit_defaults", func(t *testing.T) {
		assert.InDelta(t, 10.0, cfg.YouTube.RateLimit.MaxPerSecond, 0.001)
		assert.InDelta(t, 100.0, cfg.YouTube.RateLimit.MaxPerMinute, 0.001)
		assert.Equal(t, 10, cfg.YouTube.RateLimit.MaxWaitSeconds)
	})

	t.Run("analyzer_defaults", func(t *testing.T) {
		assert.Equal(t, 4, cfg.Analyzer.Workers)
		assert.Equal(t, 5, cfg.Analyzer.MaxVideos)
		assert.Equal(t, 5, cfg.Analyzer.MaxShorts)
		assert.Equal(t, 3, cfg.Analyzer.TrendingTop)
		assert.Equal(t, 10, cfg.Analyzer.MaxChannels)
		assert.Equal(t, "all", cfg.Analyzer.Horizon)
	})
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.YouTube.Quota.DailyLimit = 500
	cfg.YouTube.Costs = map[string]int64{"search": 42}
	applyDefaults(cfg)

	assert.Equal(t, int64(500), cfg.YouTube.Quota.DailyLimit)
	assert.Equal(t, int64(42), cfg.YouTube.Costs["search"])
	assert.Equal(t, int64(1), cfg.YouTube.Costs["channel_info"])
}
