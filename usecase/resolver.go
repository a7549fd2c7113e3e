package usecase

import (
	"context"
	"regexp"
	"strings"

	"tubepulse/domain/apierror"
	"tubepulse/domain/model"
	"tubepulse/domain/repository"
	"tubepulse/infrastructure/cache"
	"tubepulse/infrastructure/logger"
)

var channelIDPattern = regexp.MustCompile(`^UC[0-9A-Za-z_-]{22}$`)

type handleParams struct {
	Handle string `url:"handle"`
}

type searchParams struct {
	Query      string `url:"query"`
	MaxResults int64  `url:"max_results"`
}

// Resolver maps free-form channel references (stable IDs, channel URLs,
// @handles) to stable channel IDs, always trying the cheapest path first.
type Resolver struct {
	orchestrator *Orchestrator
	upstream     repository.IUpstream
	scraper      repository.IScraper
}

func NewResolver(orchestrator *Orchestrator, upstream repository.IUpstream, scraper repository.IScraper) *Resolver {
	return &Resolver{
		orchestrator: orchestrator,
		upstream:     upstream,
		scraper:      scraper,
	}
}

// Resolve returns the stable channel ID for a reference. The resolution
// ladder: direct ID, channel-URL path, free page scrape, one-unit handle
// lookup, then the hundred-unit search, which is skipped entirely once
// quota usage crosses the warning threshold.
func (r *Resolver) Resolve(ctx context.Context, reference string) (string, error) {
	const op = "resolver.Resolve"
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", apierror.New(apierror.KindResolutionFailed, op, "empty channel reference")
	}

	if channelIDPattern.MatchString(ref) {
		return ref, nil
	}

	if id, ok := idFromChannelURL(ref); ok {
		return id, nil
	}

	handle := handleFromReference(ref)

	if r.scraper != nil {
		if id, err := r.scraper.ResolveHandle(ctx, handle); err == nil && channelIDPattern.MatchString(id) {
			return id, nil
		}
	}

	if id, err := r.resolveByHandle(ctx, handle); err == nil {
		return id, nil
	} else if apierror.IsKind(err, apierror.KindQuotaExceeded) {
		return "", apierror.Wrap(apierror.KindResolutionFailed, op, err)
	}

	if r.orchestrator.Status().Warning {
		logger.GetLogger().WithField("reference", reference).Warn("Skipping search resolution, quota warning threshold crossed")
		return "", apierror.New(apierror.KindResolutionFailed, op, "cheap resolution failed and quota is near its limit")
	}
	if id, err := r.resolveBySearch(ctx, handle); err == nil {
		return id, nil
	}

	return "", apierror.New(apierror.KindResolutionFailed, op, "unable to resolve reference: "+reference)
}

func (r *Resolver) resolveByHandle(ctx context.Context, handle string) (string, error) {
	key := cache.Key(model.OpChannelInfo, handleParams{Handle: handle})
	var record model.ChannelRecord
	_, err := r.orchestrator.Call(ctx, model.OpChannelInfo, key, false, func(callCtx context.Context) (interface{}, error) {
		return r.upstream.ChannelByHandle(callCtx, handle)
	}, &record)
	if err != nil {
		return "", err
	}
	if !channelIDPattern.MatchString(record.ChannelID) {
		return "", apierror.New(apierror.KindResolutionFailed, "resolver.resolveByHandle", "upstream returned no usable id")
	}
	return record.ChannelID, nil
}

func (r *Resolver) resolveBySearch(ctx context.Context, query string) (string, error) {
	key := cache.Key(model.OpSearch, searchParams{Query: query, MaxResults: 1})
	var records []model.ChannelRecord
	_, err := r.orchestrator.Call(ctx, model.OpSearch, key, false, func(callCtx context.Context) (interface{}, error) {
		return r.upstream.SearchChannels(callCtx, query, 1)
	}, &records)
	if err != nil {
		return "", err
	}
	if len(records) == 0 || !channelIDPattern.MatchString(records[0].ChannelID) {
		return "", apierror.New(apierror.KindResolutionFailed, "resolver.resolveBySearch", "search returned no channel")
	}
	return records[0].ChannelID, nil
}

// idFromChannelURL extracts the stable ID from /channel/UC... URLs.
func idFromChannelURL(ref string) (string, bool) {
	idx := strings.Index(ref, "/channel/")
	if idx < 0 {
		return "", false
	}
	rest := ref[idx+len("/channel/"):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	if channelIDPattern.MatchString(rest) {
		return rest, true
	}
	return "", false
}

// handleFromReference strips URL scheme, host, and decorations down to a
// bare handle.
func handleFromReference(ref string) string {
	for _, prefix := range []string{"https://", "http://"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	for _, prefix := range []string{"www.youtube.com/", "youtube.com/", "m.youtube.com/"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	for _, prefix := range []string{"c/", "user/"} {
		ref = strings.TrimPrefix(ref, prefix)
	}
	if end := strings.IndexAny(ref, "/?#"); end >= 0 {
		ref = ref[:end]
	}
	return strings.TrimPrefix(ref, "@")
}
