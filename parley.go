package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/rules"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/interview"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/retry"
	"github.com/aretw0/parley/pkg/session"
)

// Version is the release of the library and CLI. Overridden at build time.
var Version = "0.1.0"

// Engine is the high-level entry point: an interview graph bound to a store.
type Engine struct {
	ctrl  *session.Controller
	store ports.StateStore
	base  ports.StateStore
	def   *graph.Definition
}

type settings struct {
	store       ports.StateStore
	middlewares []middleware.Middleware
	classifier  ports.Classifier
	generator   ports.Generator
	policy      retry.Policy
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Engine.
type Option func(*settings)

// WithStore sets where checkpoints are kept. Defaults to an in-memory store.
func WithStore(store ports.StateStore) Option {
	return func(s *settings) { s.store = store }
}

// WithStoreMiddleware wraps the store, first listed outermost.
func WithStoreMiddleware(mws ...middleware.Middleware) Option {
	return func(s *settings) { s.middlewares = append(s.middlewares, mws...) }
}

// WithClassifier sets the classifier. Defaults to the offline rule-based one.
func WithClassifier(c ports.Classifier) Option {
	return func(s *settings) { s.classifier = c }
}

// WithGenerator sets the question generator. Defaults to the offline template bank.
func WithGenerator(g ports.Generator) Option {
	return func(s *settings) { s.generator = g }
}

// WithRetryPolicy governs every classifier and generator call.
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *settings) { s.policy = p }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithLifecycleHooks registers observability hooks, for both node execution and
// collaborator failures.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) { s.hooks = s.hooks.Merge(hooks) }
}

// WithLocker serializes sessions across processes.
func WithLocker(l ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *settings) {
		s.sessionOpts = append(s.sessionOpts, session.WithLocker(l), session.WithLockTTL(ttl))
	}
}

// WithMaxQuestions sets the default number of questions per interview.
func WithMaxQuestions(n int) Option {
	return func(s *settings) { s.sessionOpts = append(s.sessionOpts, session.WithMaxQuestions(n)) }
}

// WithMaxInputSize bounds a single reply in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *settings) { s.sessionOpts = append(s.sessionOpts, session.WithMaxInputSize(n)) }
}

// WithMaxSteps bounds the nodes executed by a single Start or Resume.
func WithMaxSteps(n int) Option {
	return func(s *settings) { s.sessionOpts = append(s.sessionOpts, session.WithMaxSteps(n)) }
}

// WithIDGenerator overrides how session ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) { s.sessionOpts = append(s.sessionOpts, session.WithIDGenerator(fn)) }
}

// New builds the interview graph and wires it to a session controller.
func New(opts ...Option) (*Engine, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}
	if s.classifier == nil {
		s.classifier = rules.NewClassifier()
	}
	if s.generator == nil {
		s.generator = rules.NewGenerator()
	}
	if s.policy.Logger == nil {
		s.policy.Logger = s.logger
	}
	s.policy.Hooks = s.policy.Hooks.Merge(s.hooks)

	def, err := interview.NewGraph(interview.Deps{
		Classifier: s.classifier,
		Generator:  s.generator,
		Retry:      s.policy,
	})
	if err != nil {
		return nil, fmt.Errorf("error building interview graph: %w", err)
	}

	store := middleware.Chain(s.store, s.middlewares...)
	sessionOpts := append([]session.Option{
		session.WithLogger(s.logger),
		session.WithLifecycleHooks(s.hooks),
	}, s.sessionOpts...)

	return &Engine{
		ctrl:  session.NewController(def, store, sessionOpts...),
		store: store,
		base:  s.store,
		def:   def,
	}, nil
}

// Start creates a session and runs it to the first question for the student.
// Recognised slots: session_id, name, topic, difficulty, max_questions.
func (e *Engine) Start(ctx context.Context, slots map[string]any) (*session.Result, error) {
	return e.ctrl.Start(ctx, slots)
}

// Resume feeds the student's reply to a suspended session.
func (e *Engine) Resume(ctx context.Context, sessionID, input string) (*session.Result, error) {
	return e.ctrl.Resume(ctx, sessionID, input)
}

// Status reports where a session stands without changing it.
func (e *Engine) Status(ctx context.Context, sessionID string) (*session.Status, error) {
	return e.ctrl.Status(ctx, sessionID)
}

// Inspect returns the stored state of a session.
func (e *Engine) Inspect(ctx context.Context, sessionID string) (*domain.State, error) {
	return e.ctrl.Inspect(ctx, sessionID)
}

// Delete removes a session.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.ctrl.Delete(ctx, sessionID)
}

// List returns the stored session ids.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.ctrl.List(ctx)
}

// Graph returns the validated interview graph.
func (e *Engine) Graph() *graph.Definition {
	return e.def
}

// Controller returns the session controller, for transports.
func (e *Engine) Controller() *session.Controller {
	return e.ctrl
}

// Store returns the (possibly wrapped) state store.
func (e *Engine) Store() ports.StateStore {
	return e.store
}

// Close releases the underlying store when it holds resources.
func (e *Engine) Close() error {
	if c, ok := e.base.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// IsUserFacing reports whether err can be explained to the student as-is
// (unknown session, rejected input) rather than as an internal failure.
func IsUserFacing(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) ||
		errors.Is(err, domain.ErrSessionExists) ||
		errors.Is(err, domain.ErrInvalidInput)
}
