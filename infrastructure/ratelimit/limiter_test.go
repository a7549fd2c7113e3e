package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTryAcquireDrainsBurst(t *testing.T) {
	l := NewLimiter(5, 300, time.Second)

	granted := 0
	for i := 0; i < 10; i++ {
		if l.TryAcquire() {
			granted++
		}
	}
	// The per-second burst is 5; further immediate attempts are denied.
	assert.Equal(t, 5, granted)
	assert.False(t, l.TryAcquire())
}

func TestTryAcquireMinuteBucketGates(t *testing.T) {
	// Generous per-second bucket, minute bucket of 2.
	l := NewLimiter(100, 2, time.Second)

	assert.True(t, l.TryAcquire())
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire())
}

func TestAcquireBlocksUntilRefill(t *testing.T) {
	l := NewLimiter(20, 1200, time.Second)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		assert.True(t, l.TryAcquire())
	}

	// Bucket is empty; a blocking acquire waits for the refill (~50ms at
	// 20/s) instead of failing.
	start := time.Now()
	assert.True(t, l.Acquire(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestAcquireTimesOut(t *testing.T) {
	// One token per 10 minutes; the bounded wait cannot cover a refill.
	l := NewLimiter(0.001, 0.1, 50*time.Millisecond)
	ctx := context.Background()

	l.TryAcquire()
	start := time.Now()
	assert.False(t, l.Acquire(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestAcquireHonorsCancellation(t *testing.T) {
	l := NewLimiter(0.001, 0.1, 10*time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	l.TryAcquire()
	done := make(chan bool, 1)
	go func() { done <- l.Acquire(ctx) }()
	cancel()

	select {
	case granted := <-done:
		assert.False(t, granted)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}
