package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultMaxSteps bounds the nodes a single Advance call may execute.
const DefaultMaxSteps = 100

// Reason explains why Advance returned.
type Reason string

const (
	// Suspended means the next node is interrupt-before and waits for input.
	Suspended Reason = "suspended"
	// Completed means the graph reached graph.End.
	Completed Reason = "completed"
)

// Halt describes where an Advance call stopped.
type Halt struct {
	Reason Reason
	// Next is the pending node, or graph.End when completed.
	Next string
}

// Executor advances sessions through a graph.
// It keeps no per-session data between calls; the store owns all checkpoints.
type Executor struct {
	store    ports.StateStore
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxSteps int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithMaxSteps overrides DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// NewExecutor creates an Executor that checkpoints into store.
func NewExecutor(store ports.StateStore, opts ...Option) *Executor {
	e := &Executor{
		store:    store,
		logger:   logging.NewNop(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Advance runs the graph starting at current until a suspension point or the end.
//
// Each node's update is merged into a private copy of state, the next node is
// resolved, and a checkpoint of (state, next) is saved before moving on. The
// caller's state is never mutated; the returned state is the last one persisted.
func (e *Executor) Advance(ctx context.Context, def *graph.Definition, state *domain.State, current string) (*domain.State, Halt, error) {
	ctx = domain.WithSessionID(ctx, state.SessionID)
	log := e.logger.With("session_id", state.SessionID)

	if current == graph.End || state.Terminal {
		return state, Halt{Reason: Completed, Next: graph.End}, nil
	}

	s := state.Clone()
	for step := 0; step < e.maxSteps; step++ {
		node, ok := def.Node(current)
		if !ok {
			return nil, Halt{}, fmt.Errorf("%w: node %q is not declared", domain.ErrInternal, current)
		}

		next, outcome, err := e.step(ctx, log, def, s, node)
		if err != nil {
			return nil, Halt{}, err
		}

		s.Steps++
		s.PendingNode = next
		if next == graph.End {
			s.Terminal = true
		}

		if err := e.checkpoint(ctx, s); err != nil {
			log.ErrorContext(ctx, "checkpoint failed", "node", current, "next", next, "error", err)
			return nil, Halt{}, err
		}

		switch {
		case next == graph.End:
			log.InfoContext(ctx, "session completed", "node", current, "steps", s.Steps)
			e.emitNode(ctx, e.hooks.OnComplete, domain.EventComplete, s.SessionID, current, next, outcome, 0)
			return s, Halt{Reason: Completed, Next: graph.End}, nil
		case mustNode(def, next).InterruptBefore:
			log.InfoContext(ctx, "session suspended", "pending", next)
			e.emitNode(ctx, e.hooks.OnSuspend, domain.EventSuspend, s.SessionID, next, "", outcome, 0)
			return s, Halt{Reason: Suspended, Next: next}, nil
		}
		current = next
	}

	log.ErrorContext(ctx, "step limit exceeded", "limit", e.maxSteps, "node", current)
	return nil, Halt{}, fmt.Errorf("%w: exceeded %d steps without suspending (stuck near %q)", domain.ErrInternal, e.maxSteps, current)
}

// step runs one node and resolves its successor. It mutates s in place.
func (e *Executor) step(ctx context.Context, log *slog.Logger, def *graph.Definition, s *domain.State, node graph.Node) (string, string, error) {
	start := time.Now()
	log.DebugContext(ctx, "enter node", "node", node.Name)
	e.emitNode(ctx, e.hooks.OnNodeEnter, domain.EventNodeEnter, s.SessionID, node.Name, "", "", 0)

	update, err := node.Handler(ctx, s)
	if err != nil {
		return "", "", fmt.Errorf("node %q: %w", node.Name, err)
	}
	// An update produced after cancellation is discarded, not persisted.
	if err := ctx.Err(); err != nil {
		return "", "", fmt.Errorf("node %q: %w", node.Name, err)
	}
	if err := s.Apply(update); err != nil {
		return "", "", fmt.Errorf("%w: node %q produced an invalid update: %v", domain.ErrInternal, node.Name, err)
	}

	next, outcome, err := resolve(def, s, node.Name)
	if err != nil {
		log.ErrorContext(ctx, "routing failed", "node", node.Name, "error", err)
		return "", "", err
	}

	d := time.Since(start)
	log.DebugContext(ctx, "leave node", "node", node.Name, "next", next, "outcome", outcome, "duration", d)
	e.emitNode(ctx, e.hooks.OnNodeLeave, domain.EventNodeLeave, s.SessionID, node.Name, next, outcome, d)
	return next, outcome, nil
}

// resolve picks the successor of from, evaluating conditional edges on the updated state.
func resolve(def *graph.Definition, s *domain.State, from string) (string, string, error) {
	edge, ok := def.Edge(from)
	if !ok {
		return "", "", fmt.Errorf("%w: node %q has no outgoing edge", domain.ErrInternal, from)
	}
	if !edge.Conditional() {
		return edge.To, "", nil
	}

	outcome := edge.Router.Route(s)
	next, ok := edge.Routes[outcome]
	if !ok || !def.Has(next) {
		return "", outcome, &domain.RoutingError{Node: from, Router: edge.Router.Name(), Outcome: outcome}
	}
	return next, outcome, nil
}

func (e *Executor) checkpoint(ctx context.Context, s *domain.State) error {
	cp := &domain.Checkpoint{
		SessionID:   s.SessionID,
		State:       s,
		PendingNode: s.PendingNode,
		Seq:         s.Steps,
		SavedAt:     time.Now().UTC(),
	}
	if err := e.store.Save(ctx, cp); err != nil {
		return &domain.PersistenceError{Op: "save", SessionID: s.SessionID, Err: err}
	}
	return nil
}

func (e *Executor) emitNode(ctx context.Context, hook func(context.Context, *domain.NodeEvent), typ domain.EventType, sessionID, node, next, outcome string, d time.Duration) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      typ,
			SessionID: sessionID,
		},
		Node:     node,
		Next:     next,
		Outcome:  outcome,
		Duration: d,
	})
}

func mustNode(def *graph.Definition, name string) graph.Node {
	n, _ := def.Node(name)
	return n
}
