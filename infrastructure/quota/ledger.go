package quota

import (
	"context"
	"sync"
	"time"

	"tubepulse/domain/model"
	"tubepulse/domain/repository"
	"tubepulse/infrastructure/logger"
)

const epochLayout = "2006-01-02"

// Ledger tracks units spent against the daily budget. One epoch is one
// calendar day in the anchor timezone; rollover happens lazily on the next
// call after midnight, so correctness never depends on a background job.
type Ledger struct {
	mu        sync.Mutex
	persistMu sync.Mutex
	limit     int64
	warnAt    float64
	loc       *time.Location
	now       func() time.Time
	store     repository.IQuotaStore
	epochID   string
	unitsUsed int64
}

// NewLedger builds a ledger anchored to the given timezone. The store is
// optional; when present the current epoch is restored from it so usage
// survives restarts, and every change is written through.
func NewLedger(limit int64, warningThreshold float64, timezone string, store repository.IQuotaStore) *Ledger {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.GetLogger().WithField("timezone", timezone).Warn("Unknown quota timezone, falling back to UTC")
		loc = time.UTC
	}
	l := &Ledger{
		limit:  limit,
		warnAt: warningThreshold,
		loc:    loc,
		now:    time.Now,
		store:  store,
	}
	l.epochID = l.now().In(l.loc).Format(epochLayout)
	if store != nil {
		used, loadErr := store.Load(context.Background(), l.epochID)
		if loadErr != nil {
			logger.GetLogger().WithField("error", loadErr).Warn("Unable to restore quota usage, starting from zero")
		} else {
			l.unitsUsed = used
		}
	}
	return l
}

// Reserve atomically grants cost units when they fit the remaining budget.
// Denial carries no side effects; it is an outcome the caller branches on,
// not an error.
func (l *Ledger) Reserve(ctx context.Context, cost int64) (granted bool, remaining int64) {
	l.mu.Lock()
	l.rollover()
	if l.unitsUsed+cost > l.limit {
		remaining = l.limit - l.unitsUsed
		l.mu.Unlock()
		return false, remaining
	}
	l.unitsUsed += cost
	epochID, used := l.epochID, l.unitsUsed
	remaining = l.limit - used
	// The persist lock is taken before the counter lock is released, so
	// saves reach the store in reservation order and a slow write can
	// never overwrite a later snapshot with a lower count.
	l.persistMu.Lock()
	l.mu.Unlock()

	l.persist(ctx, epochID, used)
	l.persistMu.Unlock()
	return true, remaining
}

// Status returns a read-only snapshot of the current epoch.
func (l *Ledger) Status() model.QuotaStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	pct := 0.0
	if l.limit > 0 {
		pct = float64(l.unitsUsed) / float64(l.limit) * 100
	}
	return model.QuotaStatus{
		EpochID:    l.epochID,
		Used:       l.unitsUsed,
		Limit:      l.limit,
		Remaining:  l.limit - l.unitsUsed,
		Percentage: pct,
		Warning:    l.limit > 0 && float64(l.unitsUsed) >= float64(l.limit)*l.warnAt,
	}
}

// Warning reports whether usage has crossed the configured threshold.
func (l *Ledger) Warning() bool {
	return l.Status().Warning
}

// Reset zeroes the current epoch. Administrative use only.
func (l *Ledger) Reset(ctx context.Context) model.QuotaStatus {
	l.mu.Lock()
	l.rollover()
	l.unitsUsed = 0
	epochID := l.epochID
	l.persistMu.Lock()
	l.mu.Unlock()

	l.persist(ctx, epochID, 0)
	l.persistMu.Unlock()
	return l.Status()
}

// rollover is called with the mutex held.
func (l *Ledger) rollover() {
	current := l.now().In(l.loc).Format(epochLayout)
	if current == l.epochID {
		return
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"previous": l.epochID,
		"current":  current,
		"used":     l.unitsUsed,
	}).Info("Quota epoch rollover")
	l.epochID = current
	l.unitsUsed = 0
}

func (l *Ledger) persist(ctx context.Context, epochID string, used int64) {
	if l.store == nil {
		return
	}
	if err := l.store.Save(ctx, epochID, used); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Unable to persist quota usage")
	}
}
