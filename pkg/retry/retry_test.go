package retry_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failingN(n int, calls *int32) func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		c := atomic.AddInt32(calls, 1)
		if int(c) <= n {
			return "", errors.New("boom")
		}
		return "ok", nil
	}
}

func TestDo_AttemptsUntilSuccess(t *testing.T) {
	for k := 0; k < retry.DefaultAttempts; k++ {
		t.Run(fmt.Sprintf("%d failures", k), func(t *testing.T) {
			var calls int32
			v, ok := retry.Do(context.Background(), retry.Policy{}, "op", "fallback", failingN(k, &calls))
			assert.True(t, ok)
			assert.Equal(t, "ok", v)
			assert.Equal(t, int32(k+1), calls)
		})
	}
}

func TestDo_ExhaustedReturnsFallback(t *testing.T) {
	var calls int32
	var failed []domain.CallEvent
	var fallbacks int

	p := retry.Policy{
		Hooks: domain.LifecycleHooks{
			OnCallFailed: func(ctx context.Context, e *domain.CallEvent) { failed = append(failed, *e) },
			OnFallback:   func(ctx context.Context, e *domain.CallEvent) { fallbacks++ },
		},
	}
	ctx := domain.WithSessionID(context.Background(), "s1")

	v, ok := retry.Do(ctx, p, "evaluate", "Nice effort! Let's keep going.", failingN(100, &calls))
	assert.False(t, ok)
	assert.Equal(t, "Nice effort! Let's keep going.", v)
	assert.Equal(t, int32(3), calls)
	require.Len(t, failed, 3)
	for i, e := range failed {
		assert.Equal(t, i+1, e.Attempt)
		assert.Equal(t, "evaluate", e.Op)
		assert.Equal(t, "s1", e.SessionID)
		assert.Equal(t, domain.FailureOther, e.Kind)
	}
	assert.Equal(t, 1, fallbacks)
}

func TestDo_CustomAttempts(t *testing.T) {
	var calls int32
	_, ok := retry.Do(context.Background(), retry.Policy{Attempts: 5}, "op", "", failingN(100, &calls))
	assert.False(t, ok)
	assert.Equal(t, int32(5), calls)
}

func TestDo_PerAttemptTimeout(t *testing.T) {
	var kinds []domain.CallFailure
	p := retry.Policy{
		Timeout: 20 * time.Millisecond,
		Hooks: domain.LifecycleHooks{
			OnCallFailed: func(ctx context.Context, e *domain.CallEvent) { kinds = append(kinds, e.Kind) },
		},
	}

	var calls int32
	start := time.Now()
	v, ok := retry.Do(context.Background(), p, "slow", -1, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.False(t, ok)
	assert.Equal(t, -1, v)
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []domain.CallFailure{domain.FailureTimeout, domain.FailureTimeout, domain.FailureTimeout}, kinds)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDo_LateReplyCountsAsTimeout(t *testing.T) {
	var calls int32
	p := retry.Policy{Timeout: 10 * time.Millisecond, Attempts: 2}
	_, ok := retry.Do(context.Background(), p, "late", "", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return "too late", nil
	})
	assert.False(t, ok)
	assert.Equal(t, int32(2), calls)
}

func TestDo_MalformedIsClassified(t *testing.T) {
	var kinds []domain.CallFailure
	p := retry.Policy{
		Attempts: 1,
		Hooks: domain.LifecycleHooks{
			OnCallFailed: func(ctx context.Context, e *domain.CallEvent) { kinds = append(kinds, e.Kind) },
		},
	}
	retry.Do(context.Background(), p, "parse", 0, func(ctx context.Context) (int, error) {
		return 0, fmt.Errorf("bad json: %w", domain.ErrMalformedResponse)
	})
	assert.Equal(t, []domain.CallFailure{domain.FailureMalformed}, kinds)
}

func TestDo_CancelledParentStopsAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32

	v, ok := retry.Do(ctx, retry.Policy{}, "op", "fallback", func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return "", ctx.Err()
	})

	assert.False(t, ok)
	assert.Equal(t, "fallback", v)
	assert.Equal(t, int32(1), calls)
}

func TestDo_BackoffWaits(t *testing.T) {
	var calls int32
	p := retry.Policy{Backoff: 20 * time.Millisecond}
	start := time.Now()
	_, ok := retry.Do(context.Background(), p, "op", "", failingN(2, &calls))
	assert.True(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestPolicy_Delay(t *testing.T) {
	p := retry.Policy{Backoff: 100 * time.Millisecond, BackoffFactor: 2, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 300*time.Millisecond, p.Delay(3))

	assert.Zero(t, retry.Policy{}.Delay(1))
}

func TestClassify(t *testing.T) {
	bg := context.Background()
	cancelled, cancel := context.WithCancel(bg)
	cancel()

	assert.Equal(t, domain.FailureTimeout, retry.Classify(bg, context.DeadlineExceeded))
	assert.Equal(t, domain.FailureMalformed, retry.Classify(bg, domain.ErrMalformedResponse))
	assert.Equal(t, domain.FailureOther, retry.Classify(bg, errors.New("x")))
	assert.Equal(t, domain.FailureCanceled, retry.Classify(cancelled, errors.New("x")))
}
