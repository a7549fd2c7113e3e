package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tubepulse/domain/apierror"
	"tubepulse/domain/dto"
	"tubepulse/domain/model"
	"tubepulse/domain/ranking"
	"tubepulse/domain/repository"
	"tubepulse/infrastructure/cache"
	"tubepulse/infrastructure/configuration"
	"tubepulse/infrastructure/logger"
)

type IAnalyzerUseCase interface {
	AnalyzeChannels(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	SearchChannelSuggestions(ctx context.Context, query string, maxResults int64) (*dto.SearchChannelsResponse, error)
	GetQuotaStatus() model.QuotaStatus
	ResetQuota(ctx context.Context) model.QuotaStatus
}

type quotaAdmin interface {
	Reset(ctx context.Context) model.QuotaStatus
}

type channelParams struct {
	ChannelID string `url:"channel_id"`
}

type playlistParams struct {
	PlaylistID string `url:"playlist_id"`
	PageToken  string `url:"page_token,omitempty"`
	MaxResults int64  `url:"max_results"`
}

type batchParams struct {
	VideoIDs []string `url:"video_ids"`
}

type channelIDsParams struct {
	ChannelIDs []string `url:"channel_ids"`
}

// AnalyzerUseCase runs the per-channel analysis pipelines over a bounded
// worker pool. Every upstream touch goes through the orchestrator; the
// ledger and limiter behind it are the only shared mutable state.
type AnalyzerUseCase struct {
	orchestrator *Orchestrator
	resolver     *Resolver
	upstream     repository.IUpstream
	scraper      repository.IScraper
	liveCache    repository.IResponseCache
	admin        quotaAdmin
	cfg          configuration.Analyzer
}

func NewAnalyzerUseCase(
	orchestrator *Orchestrator,
	resolver *Resolver,
	upstream repository.IUpstream,
	scraper repository.IScraper,
	liveCache repository.IResponseCache,
	admin quotaAdmin,
	cfg configuration.Analyzer,
) IAnalyzerUseCase {
	return &AnalyzerUseCase{
		orchestrator: orchestrator,
		resolver:     resolver,
		upstream:     upstream,
		scraper:      scraper,
		liveCache:    liveCache,
		admin:        admin,
		cfg:          cfg,
	}
}

// AnalyzeChannels fans the requested channels out over the worker pool and
// collects per-channel results and errors. A single failed channel never
// aborts the batch.
func (u *AnalyzerUseCase) AnalyzeChannels(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	if len(req.ChannelRefs) == 0 {
		return nil, fmt.Errorf("no channel references given")
	}
	if len(req.ChannelRefs) > u.cfg.MaxChannels {
		return nil, fmt.Errorf("too many channel references: %d (limit %d)", len(req.ChannelRefs), u.cfg.MaxChannels)
	}

	opts := u.normalizeOptions(req.Options)
	batchCtx, cancel := context.WithTimeout(ctx, time.Duration(u.cfg.BatchTimeoutSeconds)*time.Second)
	defer cancel()

	var mu sync.Mutex
	results := make([]model.ChannelAnalysis, 0, len(req.ChannelRefs))
	failures := make([]dto.ChannelError, 0)

	g, groupCtx := errgroup.WithContext(batchCtx)
	g.SetLimit(u.cfg.Workers)
	for _, ref := range req.ChannelRefs {
		channelRef := ref
		g.Go(func() error {
			analysis, err := u.analyzeOne(groupCtx, channelRef, opts)
			mu.Lock()
			defer mu.Unlock()
			if analysis != nil {
				results = append(results, *analysis)
			}
			if err != nil {
				failures = append(failures, dto.ChannelError{
					ChannelRef: channelRef,
					Kind:       string(apierror.KindOf(err)),
					Message:    err.Error(),
				})
			}
			// Per-channel failures are collected, never propagated, so the
			// group keeps the remaining pipelines running.
			return nil
		})
	}
	_ = g.Wait()

	return &dto.AnalyzeResponse{
		Results:        results,
		Errors:         failures,
		TotalProcessed: len(results),
		TotalFailed:    len(failures),
		QuotaStatus:    u.orchestrator.Status(),
	}, nil
}

type analyzeOptions struct {
	bypassCache      bool
	realTimeTrending bool
	realTimeLive     bool
	horizon          model.Horizon
	maxVideos        int
	maxShorts        int
}

func (u *AnalyzerUseCase) normalizeOptions(in dto.AnalyzeOptions) analyzeOptions {
	opts := analyzeOptions{
		realTimeTrending: in.RealTimeTrending,
		realTimeLive:     in.RealTimeLive,
		horizon:          model.ParseHorizon(in.Horizon),
		maxVideos:        u.cfg.MaxVideos,
		maxShorts:        u.cfg.MaxShorts,
	}
	if in.UseCache != nil && !*in.UseCache {
		opts.bypassCache = true
	}
	if in.Horizon == "" {
		opts.horizon = model.ParseHorizon(u.cfg.Horizon)
	}
	if in.MaxVideos > 0 {
		opts.maxVideos = in.MaxVideos
	}
	if in.MaxShorts > 0 {
		opts.maxShorts = in.MaxShorts
	}
	return opts
}

// analyzeOne runs the full pipeline for a single channel reference. On a
// batch deadline hit mid-pagination it returns the partial analysis
// together with the timeout error.
func (u *AnalyzerUseCase) analyzeOne(ctx context.Context, ref string, opts analyzeOptions) (*model.ChannelAnalysis, error) {
	channelID, err := u.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	channel, degraded, err := u.fetchChannel(ctx, channelID, opts)
	if err != nil {
		return nil, err
	}

	videoIDs, pageErr := u.fetchVideoIDs(ctx, channel, opts)
	videos, batchErr := u.fetchVideoStats(ctx, videoIDs, opts)
	if batchErr != nil && len(videos) == 0 {
		if pageErr != nil {
			return nil, pageErr
		}
		return nil, batchErr
	}

	analysis := u.rank(ctx, channel, videos, opts)
	analysis.Degraded = degraded || pageErr != nil || batchErr != nil
	if pageErr != nil {
		return analysis, pageErr
	}
	return analysis, batchErr
}

// fetchChannel loads the channel record, falling back to the page scraper
// when the quota budget is exhausted and no stale copy exists.
func (u *AnalyzerUseCase) fetchChannel(ctx context.Context, channelID string, opts analyzeOptions) (*model.ChannelRecord, bool, error) {
	key := cache.Key(model.OpChannelInfo, channelParams{ChannelID: channelID})
	var record model.ChannelRecord
	_, err := u.orchestrator.Call(ctx, model.OpChannelInfo, key, opts.bypassCache, func(callCtx context.Context) (interface{}, error) {
		return u.upstream.ChannelInfo(callCtx, channelID)
	}, &record)
	if err == nil {
		return &record, false, nil
	}
	if apierror.IsKind(err, apierror.KindQuotaExceeded) && u.scraper != nil {
		scraped, scrapeErr := u.scraper.FetchChannel(ctx, channelID)
		if scrapeErr == nil {
			logger.GetLogger().WithField("channelId", channelID).Info("Channel served from page scrape, quota exhausted")
			return scraped, true, nil
		}
	}
	return nil, false, err
}

// fetchVideoIDs pages through the uploads playlist. The batch deadline is
// checked before each page; on expiry the IDs collected so far are
// returned with the timeout error.
func (u *AnalyzerUseCase) fetchVideoIDs(ctx context.Context, channel *model.ChannelRecord, opts analyzeOptions) ([]string, error) {
	uploadsRef := channel.UploadsListRef
	if uploadsRef == "" && strings.HasPrefix(channel.ChannelID, "UC") {
		uploadsRef = "UU" + channel.ChannelID[2:]
	}
	if uploadsRef == "" {
		return nil, apierror.New(apierror.KindUpstreamNotFound, "analyzer.fetchVideoIDs", "channel has no uploads list")
	}

	var videoIDs []string
	pageToken := ""
	for page := 0; page < u.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return videoIDs, apierror.Wrap(apierror.KindUpstreamUnavailable, "analyzer.fetchVideoIDs", err)
		}
		params := playlistParams{PlaylistID: uploadsRef, PageToken: pageToken, MaxResults: int64(u.cfg.FetchCount)}
		key := cache.Key(model.OpPlaylistPage, params)
		var pageResult model.PlaylistPage
		_, err := u.orchestrator.Call(ctx, model.OpPlaylistPage, key, opts.bypassCache, func(callCtx context.Context) (interface{}, error) {
			return u.upstream.PlaylistPage(callCtx, uploadsRef, pageToken, int64(u.cfg.FetchCount))
		}, &pageResult)
		if err != nil {
			if len(videoIDs) > 0 {
				return videoIDs, err
			}
			return nil, err
		}
		videoIDs = append(videoIDs, pageResult.VideoIDs...)
		pageToken = pageResult.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return videoIDs, nil
}

// fetchVideoStats loads statistics in batches of up to fifty IDs, the
// upstream's batch ceiling. Real-time trending bypasses the cache so
// velocity scores use current counts.
func (u *AnalyzerUseCase) fetchVideoStats(ctx context.Context, videoIDs []string, opts analyzeOptions) ([]model.VideoRecord, error) {
	const batchSize = 50
	bypass := opts.bypassCache || opts.realTimeTrending

	var videos []model.VideoRecord
	for start := 0; start < len(videoIDs); start += batchSize {
		if err := ctx.Err(); err != nil {
			return videos, apierror.Wrap(apierror.KindUpstreamUnavailable, "analyzer.fetchVideoStats", err)
		}
		end := start + batchSize
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		chunk := videoIDs[start:end]
		key := cache.Key(model.OpVideoBatch, batchParams{VideoIDs: chunk})
		var records []model.VideoRecord
		_, err := u.orchestrator.Call(ctx, model.OpVideoBatch, key, bypass, func(callCtx context.Context) (interface{}, error) {
			return u.upstream.VideoBatch(callCtx, chunk)
		}, &records)
		if err != nil {
			return videos, err
		}
		videos = append(videos, records...)
	}
	return videos, nil
}

// rank applies the pure ranking rules and the sticky-live policy.
func (u *AnalyzerUseCase) rank(ctx context.Context, channel *model.ChannelRecord, videos []model.VideoRecord, opts analyzeOptions) *model.ChannelAnalysis {
	now := time.Now()
	window := time.Duration(u.cfg.TrendingWindowHours * float64(time.Hour))

	longform, shorts := ranking.Partition(videos)
	trendingVideos := scoredRecords(ranking.Trending(longform, now, window, u.cfg.TrendingTop))
	trendingShorts := scoredRecords(ranking.Trending(shorts, now, window, u.cfg.TrendingTop))

	rankedVideos := ranking.ByHorizon(longform, opts.horizon, now)
	if len(rankedVideos) > opts.maxVideos {
		rankedVideos = rankedVideos[:opts.maxVideos]
	}
	rankedShorts := ranking.ByHorizon(shorts, opts.horizon, now)
	if len(rankedShorts) > opts.maxShorts {
		rankedShorts = rankedShorts[:opts.maxShorts]
	}

	analysis := &model.ChannelAnalysis{
		Channel:        *channel,
		Videos:         rankedVideos,
		Shorts:         rankedShorts,
		TrendingVideos: trendingVideos,
		TrendingShorts: trendingShorts,
		Horizon:        opts.horizon,
		TotalFetched:   len(videos),
	}
	analysis.Live, analysis.LiveCached = u.stickyLive(ctx, channel.ChannelID, videos, opts)
	return analysis
}

// stickyLive surfaces a still-unexpired cached live entry when a fresh
// fetch reports nothing live, absorbing upstream flapping. Real-time live
// requests skip the fallback.
func (u *AnalyzerUseCase) stickyLive(ctx context.Context, channelID string, videos []model.VideoRecord, opts analyzeOptions) (*model.VideoRecord, bool) {
	key := liveKey(channelID)
	if live := ranking.SelectLive(videos); live != nil {
		if raw, err := encodeLive(live); err == nil {
			u.liveCache.Set(ctx, key, raw, time.Duration(u.cfg.LiveStickySeconds)*time.Second)
		}
		return live, false
	}
	if opts.realTimeLive {
		return nil, false
	}
	raw, ok := u.liveCache.GetFresh(ctx, key)
	if !ok {
		return nil, false
	}
	live, err := decodeLive(raw)
	if err != nil {
		return nil, false
	}
	return live, true
}

// SearchChannelSuggestions runs the expensive channel search and enriches
// the hits with subscriber statistics through the cheap batch lookup.
func (u *AnalyzerUseCase) SearchChannelSuggestions(ctx context.Context, query string, maxResults int64) (*dto.SearchChannelsResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty search query")
	}
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 5
	}

	key := cache.Key(model.OpSearch, searchParams{Query: query, MaxResults: maxResults})
	var hits []model.ChannelRecord
	_, err := u.orchestrator.Call(ctx, model.OpSearch, key, false, func(callCtx context.Context) (interface{}, error) {
		return u.upstream.SearchChannels(callCtx, query, maxResults)
	}, &hits)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ChannelID)
	}
	if len(ids) > 0 {
		enrichKey := cache.Key(model.OpChannelInfo, channelIDsParams{ChannelIDs: ids})
		var detailed []model.ChannelRecord
		if _, err := u.orchestrator.Call(ctx, model.OpChannelInfo, enrichKey, false, func(callCtx context.Context) (interface{}, error) {
			return u.upstream.ChannelsByIDs(callCtx, ids)
		}, &detailed); err == nil {
			byID := make(map[string]model.ChannelRecord, len(detailed))
			for _, record := range detailed {
				byID[record.ChannelID] = record
			}
			for i := range hits {
				if record, ok := byID[hits[i].ChannelID]; ok {
					hits[i].SubscriberCount = record.SubscriberCount
					if record.ThumbnailURL != "" {
						hits[i].ThumbnailURL = record.ThumbnailURL
					}
				}
			}
		}
	}

	suggestions := make([]dto.ChannelSuggestion, 0, len(hits))
	for _, hit := range hits {
		suggestions = append(suggestions, dto.ChannelSuggestion{
			ChannelID:       hit.ChannelID,
			DisplayName:     hit.DisplayName,
			ThumbnailURL:    hit.ThumbnailURL,
			SubscriberCount: hit.SubscriberCount,
		})
	}
	return &dto.SearchChannelsResponse{
		Suggestions: suggestions,
		QuotaStatus: u.orchestrator.Status(),
	}, nil
}

func (u *AnalyzerUseCase) GetQuotaStatus() model.QuotaStatus {
	return u.orchestrator.Status()
}

func (u *AnalyzerUseCase) ResetQuota(ctx context.Context) model.QuotaStatus {
	logger.GetLogger().Warn("Quota ledger reset requested")
	return u.admin.Reset(ctx)
}

func scoredRecords(scored []ranking.Scored) []model.VideoRecord {
	out := make([]model.VideoRecord, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Video)
	}
	return out
}

func liveKey(channelID string) string {
	return "yt:live:" + channelID
}

func encodeLive(live *model.VideoRecord) ([]byte, error) {
	return json.Marshal(live)
}

func decodeLive(raw []byte) (*model.VideoRecord, error) {
	var live model.VideoRecord
	if err := json.Unmarshal(raw, &live); err != nil {
		return nil, err
	}
	return &live, nil
}
