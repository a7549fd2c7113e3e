package usecase

import (
	"context"
	"encoding/json"
	"time"

	"tubepulse/domain/apierror"
	"tubepulse/domain/model"
	"tubepulse/domain/repository"
	"tubepulse/infrastructure/logger"
	"tubepulse/infrastructure/quota"
)

// Source tags where an orchestrated payload came from.
type Source string

const (
	SourceFresh Source = "fresh"
	SourceCache Source = "cache"
	SourceStale Source = "stale"
)

// Outcome describes a completed orchestrated call.
type Outcome struct {
	Source Source
	// Cost is the quota actually spent; zero for cache and stale hits.
	Cost int64
}

type rateGate interface {
	TryAcquire() bool
	Acquire(ctx context.Context) bool
}

type quotaGate interface {
	Reserve(ctx context.Context, cost int64) (granted bool, remaining int64)
	Status() model.QuotaStatus
}

const (
	defaultCallTimeout = 15 * time.Second
	defaultTTL         = 5 * time.Minute
	maxAttempts        = 3
	backoffBase        = 500 * time.Millisecond
)

// Orchestrator runs every upstream call through the same pipeline:
// cache check, rate gate, quota gate, the network call with bounded
// retries, then cache commit. The ordering runs the cheapest checks first
// so quota is spent only immediately before a call is actually attempted.
type Orchestrator struct {
	cache       repository.IResponseCache
	limiter     rateGate
	ledger      quotaGate
	costs       *quota.CostModel
	ttls        map[model.OperationKind]time.Duration
	callTimeout time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(
	cache repository.IResponseCache,
	limiter rateGate,
	ledger quotaGate,
	costs *quota.CostModel,
	ttlSeconds map[string]int,
) *Orchestrator {
	ttls := make(map[model.OperationKind]time.Duration, len(ttlSeconds))
	for op, seconds := range ttlSeconds {
		ttls[model.OperationKind(op)] = time.Duration(seconds) * time.Second
	}
	return &Orchestrator{
		cache:       cache,
		limiter:     limiter,
		ledger:      ledger,
		costs:       costs,
		ttls:        ttls,
		callTimeout: defaultCallTimeout,
		sleep:       sleepContext,
	}
}

// Status exposes the quota snapshot for callers deciding whether optional
// expensive operations are still affordable.
func (o *Orchestrator) Status() model.QuotaStatus {
	return o.ledger.Status()
}

// Call runs one upstream operation through the pipeline. The fetched value
// is committed to the cache and decoded into out, so cache hits and fresh
// fetches produce identical shapes. bypassCache skips the fresh-cache read
// but still commits the result.
func (o *Orchestrator) Call(
	ctx context.Context,
	op model.OperationKind,
	key string,
	bypassCache bool,
	fetch func(ctx context.Context) (interface{}, error),
	out interface{},
) (Outcome, error) {
	if !bypassCache {
		if raw, ok := o.cache.GetFresh(ctx, key); ok {
			if err := json.Unmarshal(raw, out); err == nil {
				return Outcome{Source: SourceCache}, nil
			}
			logger.GetLogger().WithField("key", key).Warn("Undecodable cache entry, refetching")
		}
	}

	if !o.limiter.TryAcquire() {
		if !o.limiter.Acquire(ctx) {
			if outcome, ok := o.staleFallback(ctx, key, out); ok {
				return outcome, nil
			}
			return Outcome{}, apierror.New(apierror.KindRateLimited, string(op), "rate limiter wait timed out")
		}
	}

	cost := o.costs.Cost(op)
	granted, remaining := o.ledger.Reserve(ctx, cost)
	if !granted {
		if outcome, ok := o.staleFallback(ctx, key, out); ok {
			return outcome, nil
		}
		logger.GetLogger().WithFields(map[string]interface{}{
			"operation": op,
			"cost":      cost,
			"remaining": remaining,
		}).Warn("Quota reservation denied")
		return Outcome{}, apierror.New(apierror.KindQuotaExceeded, string(op), "daily quota exhausted")
	}

	value, err := o.callUpstream(ctx, op, fetch)
	if err != nil {
		// Quota already reserved for the failed attempt is not refunded;
		// the upstream presumably billed the attempt regardless.
		return Outcome{}, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return Outcome{}, apierror.Wrap(apierror.KindUpstreamUnavailable, string(op), err)
	}
	o.cache.Set(ctx, key, raw, o.ttl(op))
	if err := json.Unmarshal(raw, out); err != nil {
		return Outcome{}, apierror.Wrap(apierror.KindUpstreamUnavailable, string(op), err)
	}
	return Outcome{Source: SourceFresh, Cost: cost}, nil
}

// callUpstream performs the network call with bounded retries. One quota
// reservation covers every attempt of the same logical call.
func (o *Orchestrator) callUpstream(
	ctx context.Context,
	op model.OperationKind,
	fetch func(ctx context.Context) (interface{}, error),
) (interface{}, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		value, err := fetch(callCtx)
		cancel()
		if err == nil {
			return value, nil
		}
		lastErr = err
		kind := apierror.KindOf(err)
		if !apierror.Retryable(kind) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}
		delay := backoffBase << (attempt - 1)
		logger.GetLogger().WithFields(map[string]interface{}{
			"operation": op,
			"attempt":   attempt,
			"delay":     delay.String(),
			"error":     err,
		}).Warn("Transient upstream failure, backing off")
		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			return nil, apierror.Wrap(apierror.KindUpstreamUnavailable, string(op), sleepErr)
		}
	}
	return nil, apierror.Wrap(apierror.KindUpstreamUnavailable, string(op), lastErr)
}

func (o *Orchestrator) staleFallback(ctx context.Context, key string, out interface{}) (Outcome, bool) {
	raw, ok := o.cache.GetStale(ctx, key)
	if !ok {
		return Outcome{}, false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return Outcome{}, false
	}
	return Outcome{Source: SourceStale}, true
}

func (o *Orchestrator) ttl(op model.OperationKind) time.Duration {
	if ttl, ok := o.ttls[op]; ok {
		return ttl
	}
	return defaultTTL
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
