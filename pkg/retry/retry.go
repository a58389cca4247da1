// Package retry shields callers from unreliable collaborators: a call is tried a
// bounded number of times and, if every attempt fails, a fallback value is used.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// DefaultAttempts is the number of tries when Policy.Attempts is unset.
const DefaultAttempts = 3

// DefaultTimeout bounds a single attempt when Policy.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// Policy configures Do. The zero value means three attempts, a 30s per-attempt
// timeout and no delay between attempts.
type Policy struct {
	// Attempts counts the first try.
	Attempts int
	// Timeout applies independently to every attempt.
	Timeout time.Duration
	// Backoff is the delay before the second attempt; 0 retries immediately.
	Backoff time.Duration
	// BackoffFactor multiplies the delay after each failure. Values below 1 mean 1.
	BackoffFactor float64
	// MaxBackoff clamps the delay when positive.
	MaxBackoff time.Duration

	Logger *slog.Logger
	Hooks  domain.LifecycleHooks
}

func (p Policy) attempts() int {
	if p.Attempts <= 0 {
		return DefaultAttempts
	}
	return p.Attempts
}

func (p Policy) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p Policy) logger() *slog.Logger {
	if p.Logger == nil {
		return logging.NewNop()
	}
	return p.Logger
}

// Delay returns the pause before attempt n+1, given that attempt n just failed.
func (p Policy) Delay(n int) time.Duration {
	if p.Backoff <= 0 || n < 1 {
		return 0
	}
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	d := float64(p.Backoff) * math.Pow(factor, float64(n-1))
	if p.MaxBackoff > 0 {
		d = math.Min(d, float64(p.MaxBackoff))
	}
	return time.Duration(d)
}

// Do runs call until it succeeds or the policy's attempts are exhausted.
// It never returns an error: after the last failure, or once ctx is done, it
// returns fallback. The boolean reports whether call succeeded.
func Do[T any](ctx context.Context, p Policy, op string, fallback T, call func(context.Context) (T, error)) (T, bool) {
	log := p.logger()
	attempts := p.attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}

		v, err := runAttempt(ctx, p.timeout(), call)
		if err == nil {
			return v, true
		}

		callErr := &domain.ExternalCallError{
			Op:      op,
			Attempt: attempt,
			Kind:    Classify(ctx, err),
			Err:     err,
		}
		log.WarnContext(ctx, "external call failed",
			"session_id", domain.SessionIDFrom(ctx),
			"op", op,
			"attempt", attempt,
			"kind", callErr.Kind,
			"error", err,
		)
		if p.Hooks.OnCallFailed != nil {
			p.Hooks.OnCallFailed(ctx, callEvent(ctx, domain.EventCallFailed, callErr))
		}

		if attempt < attempts {
			if !sleep(ctx, p.Delay(attempt)) {
				break
			}
		}
	}

	log.WarnContext(ctx, "using fallback", "session_id", domain.SessionIDFrom(ctx), "op", op)
	if p.Hooks.OnFallback != nil {
		p.Hooks.OnFallback(ctx, &domain.CallEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventCallFallback,
				SessionID: domain.SessionIDFrom(ctx),
			},
			Op: op,
		})
	}
	return fallback, false
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	v, err := call(attemptCtx)
	if err == nil && attemptCtx.Err() != nil {
		// A reply that arrived after the deadline is not trusted.
		var zero T
		return zero, attemptCtx.Err()
	}
	return v, err
}

// Classify maps an attempt error to a failure kind. ctx is the parent context.
func Classify(ctx context.Context, err error) domain.CallFailure {
	switch {
	case ctx.Err() != nil:
		return domain.FailureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTimeout
	case errors.Is(err, domain.ErrMalformedResponse):
		return domain.FailureMalformed
	case errors.Is(err, context.Canceled):
		return domain.FailureCanceled
	default:
		return domain.FailureOther
	}
}

func callEvent(ctx context.Context, typ domain.EventType, e *domain.ExternalCallError) *domain.CallEvent {
	return &domain.CallEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: domain.SessionIDFrom(ctx),
		},
		Op:      e.Op,
		Attempt: e.Attempt,
		Kind:    e.Kind,
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
