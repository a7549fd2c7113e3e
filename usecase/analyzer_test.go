package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubepulse/domain/apierror"
	"tubepulse/domain/dto"
	"tubepulse/domain/model"
	"tubepulse/domain/repository"
	"tubepulse/infrastructure/cache"
	"tubepulse/infrastructure/configuration"
	"tubepulse/infrastructure/quota"
)

type stubAdmin struct{ resets int }

func (a *stubAdmin) Reset(_ context.Context) model.QuotaStatus {
	a.resets++
	return model.QuotaStatus{Limit: 10000, Remaining: 10000}
}

func analyzerTestConfig() configuration.Analyzer {
	return configuration.Analyzer{
		Workers:             2,
		MaxVideos:           5,
		MaxShorts:           5,
		TrendingTop:         3,
		TrendingWindowHours: 3,
		FetchCount:          50,
		MaxPages:            2,
		MaxChannels:         10,
		BatchTimeoutSeconds: 30,
		LiveStickySeconds:   60,
		Horizon:             "all",
	}
}

func newAnalyzerFixture(upstream *fakeUpstream, scraper repository.IScraper) (IAnalyzerUseCase, *stubAdmin) {
	gate := &stubGate{tryOK: true}
	ledger := &warnLedger{granted: true}
	costs := quota.NewCostModel(map[string]int64{
		"channel_info":  1,
		"playlist_page": 1,
		"video_batch":   1,
		"search":        100,
	})
	mem := cache.NewMemoryCache()
	o := NewOrchestrator(mem, gate, ledger, costs, nil)
	resolver := NewResolver(o, upstream, scraper)
	admin := &stubAdmin{}
	return NewAnalyzerUseCase(o, resolver, upstream, scraper, mem, admin, analyzerTestConfig()), admin
}

func analyzedChannel() *model.ChannelRecord {
	return &model.ChannelRecord{
		ChannelID:      testChannelID,
		DisplayName:    "Example",
		UploadsListRef: "UU0123456789abcdefghijAB",
	}
}

func testVideos(now time.Time) []model.VideoRecord {
	return []model.VideoRecord{
		{
			ID: "v-old", ChannelID: testChannelID, ViewCount: 10000,
			PublishedAt: now.Add(-200 * time.Hour), MediaClass: model.MediaVideo,
		},
		{
			ID: "v-hot", ChannelID: testChannelID, ViewCount: 6000,
			PublishedAt: now.Add(-6 * time.Minute), MediaClass: model.MediaVideo,
		},
		{
			ID: "s-clip", ChannelID: testChannelID, ViewCount: 300,
			PublishedAt: now.Add(-time.Hour), MediaClass: model.MediaShort,
		},
		{
			ID: "v-live", ChannelID: testChannelID, ViewCount: 50,
			PublishedAt: now.Add(-30 * time.Minute), MediaClass: model.MediaVideo,
			LiveState: model.LiveNow, LiveViewerCount: 777,
		},
	}
}

func happyUpstream(now time.Time) *fakeUpstream {
	return &fakeUpstream{
		channelInfo: func(_ context.Context, channelID string) (*model.ChannelRecord, error) {
			return analyzedChannel(), nil
		},
		playlistPage: func(_ context.Context, playlistID, pageToken string, _ int64) (*model.PlaylistPage, error) {
			return &model.PlaylistPage{VideoIDs: []string{"v-old", "v-hot", "s-clip", "v-live"}}, nil
		},
		videoBatch: func(_ context.Context, videoIDs []string) ([]model.VideoRecord, error) {
			return testVideos(now), nil
		},
	}
}

func TestAnalyzeChannelsHappyPath(t *testing.T) {
	now := time.Now()
	u, _ := newAnalyzerFixture(happyUpstream(now), nil)

	resp, err := u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{
		ChannelRefs: []string{testChannelID},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 1, resp.TotalProcessed)

	analysis := resp.Results[0]
	assert.Equal(t, testChannelID, analysis.Channel.ChannelID)
	assert.Equal(t, 4, analysis.TotalFetched)

	// Longform and shorts stay partitioned.
	for _, v := range analysis.Videos {
		assert.Equal(t, model.MediaVideo, v.MediaClass)
	}
	for _, s := range analysis.Shorts {
		assert.Equal(t, model.MediaShort, s.MediaClass)
	}

	// The just-published video outranks everything on velocity.
	require.NotEmpty(t, analysis.TrendingVideos)
	assert.Equal(t, "v-hot", analysis.TrendingVideos[0].ID)

	require.NotNil(t, analysis.Live)
	assert.Equal(t, "v-live", analysis.Live.ID)
	assert.False(t, analysis.LiveCached)
	assert.False(t, analysis.Degraded)
}

func TestAnalyzeChannelsIsolatesFailures(t *testing.T) {
	now := time.Now()
	upstream := happyUpstream(now)
	upstream.channelByHandle = func(context.Context, string) (*model.ChannelRecord, error) {
		return nil, apierror.New(apierror.KindUpstreamNotFound, "op", "no such handle")
	}
	upstream.searchChannels = func(context.Context, string, int64) ([]model.ChannelRecord, error) {
		return nil, apierror.New(apierror.KindUpstreamNotFound, "op", "nothing found")
	}
	u, _ := newAnalyzerFixture(upstream, nil)

	resp, err := u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{
		ChannelRefs: []string{testChannelID, "@does-not-exist"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "@does-not-exist", resp.Errors[0].ChannelRef)
	assert.Equal(t, string(apierror.KindResolutionFailed), resp.Errors[0].Kind)
	assert.Equal(t, 1, resp.TotalFailed)
}

func TestAnalyzeChannelsValidatesInput(t *testing.T) {
	u, _ := newAnalyzerFixture(&fakeUpstream{}, nil)

	_, err := u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{})
	assert.Error(t, err)

	refs := make([]string, 11)
	for i := range refs {
		refs[i] = testChannelID
	}
	_, err = u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{ChannelRefs: refs})
	assert.Error(t, err)
}

func TestAnalyzeChannelsStickyLive(t *testing.T) {
	now := time.Now()
	live := true
	upstream := happyUpstream(now)
	upstream.videoBatch = func(_ context.Context, _ []string) ([]model.VideoRecord, error) {
		videos := testVideos(now)
		if !live {
			// Fresh fetch flaps to "nothing live".
			for i := range videos {
				videos[i].LiveState = model.LiveNone
				videos[i].LiveViewerCount = 0
			}
		}
		return videos, nil
	}
	u, _ := newAnalyzerFixture(upstream, nil)

	resp, err := u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{
		ChannelRefs: []string{testChannelID},
		Options:     dto.AnalyzeOptions{RealTimeTrending: true},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Results[0].Live)
	assert.False(t, resp.Results[0].LiveCached)

	live = false
	resp, err = u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{
		ChannelRefs: []string{testChannelID},
		Options:     dto.AnalyzeOptions{RealTimeTrending: true},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Results[0].Live, "cached live entry should absorb the flap")
	assert.True(t, resp.Results[0].LiveCached)
	assert.Equal(t, "v-live", resp.Results[0].Live.ID)

	// Real-time live skips the sticky fallback.
	resp, err = u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{
		ChannelRefs: []string{testChannelID},
		Options:     dto.AnalyzeOptions{RealTimeTrending: true, RealTimeLive: true},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Results[0].Live)
}

func TestAnalyzeChannelsScrapeFallbackWhenQuotaExhausted(t *testing.T) {
	now := time.Now()
	upstream := happyUpstream(now)
	upstream.channelInfo = func(context.Context, string) (*model.ChannelRecord, error) {
		return nil, apierror.New(apierror.KindQuotaExceeded, "op", "quota spent upstream")
	}
	scraper := &fakeScraper{
		fetchChannel: func(_ context.Context, ref string) (*model.ChannelRecord, error) {
			assert.Equal(t, testChannelID, ref)
			return analyzedChannel(), nil
		},
	}
	u, _ := newAnalyzerFixture(upstream, scraper)

	resp, err := u.AnalyzeChannels(context.Background(), &dto.AnalyzeRequest{
		ChannelRefs: []string{testChannelID},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Degraded)
	assert.Equal(t, "Example", resp.Results[0].Channel.DisplayName)
}

// Two channels that both need the hundred-unit search, against a real
// ledger with exactly one search worth of budget: the first resolves and
// analyzes, the second fails resolution, the batch stays partial.
func TestAnalyzeChannelsSearchBudgetAgainstRealLedger(t *testing.T) {
	now := time.Now()
	ctx := context.Background()

	var searchQueries []string
	upstream := happyUpstream(now)
	upstream.searchChannels = func(_ context.Context, query string, _ int64) ([]model.ChannelRecord, error) {
		searchQueries = append(searchQueries, query)
		return []model.ChannelRecord{{ChannelID: testChannelID}}, nil
	}

	gate := &stubGate{tryOK: true}
	// Warning threshold above 100% keeps the search path open so the
	// second reservation itself is what gets denied.
	ledger := quota.NewLedger(100, 2.0, "UTC", nil)
	costs := quota.NewCostModel(map[string]int64{
		"channel_info":  1,
		"playlist_page": 1,
		"video_batch":   1,
		"search":        100,
	})
	mem := cache.NewMemoryCache()
	seed := func(op model.OperationKind, params interface{}, value interface{}) {
		raw, err := json.Marshal(value)
		require.NoError(t, err)
		mem.Set(ctx, cache.Key(op, params), raw, time.Hour)
	}
	// Handle lookups come back empty from cache, so resolution falls
	// through to the search without spending anything on the way.
	seed(model.OpChannelInfo, handleParams{Handle: "first-maker"}, model.ChannelRecord{})
	seed(model.OpChannelInfo, handleParams{Handle: "second-maker"}, model.ChannelRecord{})
	// The first channel's pipeline is fully cached; its search is the
	// only spend in the whole batch.
	seed(model.OpChannelInfo, channelParams{ChannelID: testChannelID}, analyzedChannel())
	seed(model.OpPlaylistPage,
		playlistParams{PlaylistID: "UU0123456789abcdefghijAB", PageToken: "", MaxResults: 50},
		model.PlaylistPage{VideoIDs: []string{"v-old", "v-hot", "s-clip", "v-live"}})
	seed(model.OpVideoBatch,
		batchParams{VideoIDs: []string{"v-old", "v-hot", "s-clip", "v-live"}},
		testVideos(now))

	o := NewOrchestrator(mem, gate, ledger, costs, nil)
	resolver := NewResolver(o, upstream, nil)
	cfg := analyzerTestConfig()
	cfg.Workers = 1
	u := NewAnalyzerUseCase(o, resolver, upstream, nil, mem, &stubAdmin{}, cfg)

	resp, err := u.AnalyzeChannels(ctx, &dto.AnalyzeRequest{
		ChannelRefs: []string{"@first-maker", "@second-maker"},
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, testChannelID, resp.Results[0].Channel.ChannelID)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "@second-maker", resp.Errors[0].ChannelRef)
	assert.Equal(t, string(apierror.KindResolutionFailed), resp.Errors[0].Kind)

	// Second reservation was denied before the upstream was touched.
	assert.Equal(t, []string{"first-maker"}, searchQueries)
	assert.Equal(t, int64(100), resp.QuotaStatus.Used)
	assert.Equal(t, int64(0), resp.QuotaStatus.Remaining)
}

func TestSuggestionEnrichmentKeyNamesChannelIDs(t *testing.T) {
	ids := []string{testChannelID}
	assert.NotEqual(t,
		cache.Key(model.OpChannelInfo, channelIDsParams{ChannelIDs: ids}),
		cache.Key(model.OpChannelInfo, batchParams{VideoIDs: ids}))
}

func TestSearchChannelSuggestionsEnriches(t *testing.T) {
	upstream := &fakeUpstream{
		searchChannels: func(_ context.Context, query string, maxResults int64) ([]model.ChannelRecord, error) {
			assert.Equal(t, "lofi", query)
			return []model.ChannelRecord{
				{ChannelID: testChannelID, DisplayName: "Example"},
			}, nil
		},
		channelsByIDs: func(_ context.Context, channelIDs []string) ([]model.ChannelRecord, error) {
			assert.Equal(t, []string{testChannelID}, channelIDs)
			return []model.ChannelRecord{
				{ChannelID: testChannelID, DisplayName: "Example", SubscriberCount: 12345, ThumbnailURL: "https://img/x.jpg"},
			}, nil
		},
	}
	u, _ := newAnalyzerFixture(upstream, nil)

	resp, err := u.SearchChannelSuggestions(context.Background(), "lofi", 5)
	require.NoError(t, err)
	require.Len(t, resp.Suggestions, 1)
	assert.Equal(t, int64(12345), resp.Suggestions[0].SubscriberCount)
	assert.Equal(t, "https://img/x.jpg", resp.Suggestions[0].ThumbnailURL)
}

func TestSearchChannelSuggestionsValidatesQuery(t *testing.T) {
	u, _ := newAnalyzerFixture(&fakeUpstream{}, nil)

	_, err := u.SearchChannelSuggestions(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestResetQuota(t *testing.T) {
	u, admin := newAnalyzerFixture(&fakeUpstream{}, nil)

	status := u.ResetQuota(context.Background())
	assert.Equal(t, int64(10000), status.Remaining)
	assert.Equal(t, 1, admin.resets)
}
