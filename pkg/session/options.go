package session

import (
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL is the lease requested from a distributed locker.
const DefaultLockTTL = 30 * time.Second

type options struct {
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	maxSteps     int
	maxQuestions int
	maxInput     int
	newID        func() string
}

func defaults() options {
	return options{
		lockTTL:      DefaultLockTTL,
		logger:       logging.NewNop(),
		maxQuestions: domain.DefaultMaxQuestions,
		maxInput:     DefaultMaxInputSize,
		newID:        uuid.NewString,
	}
}

// Option configures a Manager or a Controller.
type Option func(*options)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithLockTTL sets the distributed lock lease.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks on the executor.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithMaxSteps caps the nodes executed per Start or Resume call.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithMaxQuestions sets the default question count for sessions that do not specify one.
func WithMaxQuestions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxQuestions = n
		}
	}
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInput = n
		}
	}
}

// WithIDGenerator replaces the UUID session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}
