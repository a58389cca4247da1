package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Status is the read-only view of a session.
type Status struct {
	SessionID     string `json:"session_id"`
	PendingNode   string `json:"pending_node"`
	Terminal      bool   `json:"terminal"`
	QuestionCount int    `json:"question_count"`
}

// Result is returned by Start and Resume.
type Result struct {
	SessionID string `json:"session_id"`
	// Messages holds only what this call produced.
	Messages []domain.Message `json:"messages"`
	Status   Status           `json:"status"`
}

// StartSlots are the values Start accepts. Keys are matched case-insensitively.
type StartSlots struct {
	SessionID    string `mapstructure:"session_id"`
	Name         string `mapstructure:"name"`
	Topic        string `mapstructure:"topic"`
	Difficulty   string `mapstructure:"difficulty"`
	MaxQuestions int    `mapstructure:"max_questions"`
}

// Controller is the caller-facing API: Start, Resume and Status.
type Controller struct {
	def     *graph.Definition
	exec    *runtime.Executor
	manager *Manager
	opts    options
	logger  *slog.Logger
}

// NewController wires a graph to a store.
func NewController(def *graph.Definition, store ports.StateStore, opts ...Option) *Controller {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	execOpts := []runtime.Option{
		runtime.WithLogger(o.logger),
		runtime.WithLifecycleHooks(o.hooks),
	}
	if o.maxSteps > 0 {
		execOpts = append(execOpts, runtime.WithMaxSteps(o.maxSteps))
	}
	return &Controller{
		def:     def,
		exec:    runtime.NewExecutor(store, execOpts...),
		manager: newManager(store, o),
		opts:    o,
		logger:  o.logger,
	}
}

// Manager exposes the session lock manager.
func (c *Controller) Manager() *Manager {
	return c.manager
}

// Graph returns the definition the controller runs.
func (c *Controller) Graph() *graph.Definition {
	return c.def
}

// DecodeSlots converts loosely typed caller input into StartSlots.
// Unknown keys are rejected; numeric strings are accepted for max_questions.
func DecodeSlots(raw map[string]any) (StartSlots, error) {
	var slots StartSlots
	if len(raw) == 0 {
		return slots, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &slots,
	})
	if err != nil {
		return slots, err
	}
	if err := dec.Decode(raw); err != nil {
		return slots, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if slots.MaxQuestions < 0 {
		return slots, fmt.Errorf("%w: max_questions must be positive", domain.ErrInvalidInput)
	}
	return slots, nil
}

// Start creates a session and runs it from the entry node to the first suspension.
func (c *Controller) Start(ctx context.Context, raw map[string]any) (*Result, error) {
	in, err := DecodeSlots(raw)
	if err != nil {
		return nil, err
	}
	id := in.SessionID
	if id == "" {
		id = c.opts.newID()
	}
	if in.MaxQuestions == 0 {
		in.MaxQuestions = c.opts.maxQuestions
	}

	var res *Result
	err = c.manager.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := c.manager.load(ctx, id); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, id)
		} else if !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}

		state := domain.NewState(id, c.def.Entry(), domain.Slots{
			StudentName:  in.Name,
			Topic:        in.Topic,
			Difficulty:   in.Difficulty,
			MaxQuestions: in.MaxQuestions,
		})
		c.logger.InfoContext(ctx, "session started", "session_id", id)

		var err error
		res, err = c.advance(ctx, state, c.def.Entry(), 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Resume feeds one reply to a suspended session and runs it to the next suspension.
// Resuming a finished session is a no-op that reports its final status.
func (c *Controller) Resume(ctx context.Context, sessionID, input string) (*Result, error) {
	var res *Result
	err := c.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		cp, err := c.manager.load(ctx, sessionID)
		if err != nil {
			return err
		}
		if cp.State.Terminal {
			res = &Result{SessionID: sessionID, Messages: []domain.Message{}, Status: statusOf(cp)}
			return nil
		}

		clean, err := SanitizeInput(input, c.opts.maxInput)
		if err != nil {
			return err
		}

		state := cp.State.Clone()
		pending := cp.PendingNode
		mark := len(state.Messages)

		// A save that failed mid-run leaves the checkpoint between nodes.
		// Finish that run before the reply is taken.
		if !c.awaitsInput(pending) {
			c.logger.WarnContext(ctx, "completing interrupted run", "session_id", sessionID, "node", pending)
			next, halt, err := c.exec.Advance(ctx, c.def, state, pending)
			if err != nil {
				return err
			}
			if halt.Reason == runtime.Completed {
				res = result(next, halt, mark)
				return nil
			}
			state, pending = next.Clone(), halt.Next
		}

		if err := state.Apply(domain.Update{
			Messages: []domain.Message{{Role: domain.RoleUser, Text: clean}},
		}); err != nil {
			return err
		}
		state.Slots.LastInput = clean

		res, err = c.advance(ctx, state, pending, mark)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Controller) advance(ctx context.Context, state *domain.State, from string, mark int) (*Result, error) {
	next, halt, err := c.exec.Advance(ctx, c.def, state, from)
	if err != nil {
		c.logger.ErrorContext(ctx, "advance failed", "session_id", state.SessionID, "node", from, "error", err)
		return nil, err
	}
	return result(next, halt, mark), nil
}

// awaitsInput reports whether a checkpoint pending at node is a suspension point.
func (c *Controller) awaitsInput(node string) bool {
	n, ok := c.def.Node(node)
	return ok && n.InterruptBefore
}

// result reports the assistant messages appended after mark.
func result(next *domain.State, halt runtime.Halt, mark int) *Result {
	produced := []domain.Message{}
	for _, m := range next.Messages[mark:] {
		if m.Role == domain.RoleAssistant {
			produced = append(produced, m)
		}
	}
	return &Result{
		SessionID: next.SessionID,
		Messages:  produced,
		Status: Status{
			SessionID:     next.SessionID,
			PendingNode:   halt.Next,
			Terminal:      next.Terminal,
			QuestionCount: next.Slots.QuestionCount,
		},
	}
}

// Status reports where a session stands. It never modifies the session.
// Checkpoints are replaced atomically, so reading without the session lock is safe.
func (c *Controller) Status(ctx context.Context, sessionID string) (*Status, error) {
	cp, err := c.manager.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	st := statusOf(cp)
	return &st, nil
}

// Inspect returns a copy of the stored session state.
func (c *Controller) Inspect(ctx context.Context, sessionID string) (*domain.State, error) {
	cp, err := c.manager.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return cp.State, nil
}

// Delete removes a session.
func (c *Controller) Delete(ctx context.Context, sessionID string) error {
	return c.manager.Delete(ctx, sessionID)
}

// List returns stored session ids.
func (c *Controller) List(ctx context.Context) ([]string, error) {
	return c.manager.List(ctx)
}

func statusOf(cp *domain.Checkpoint) Status {
	return Status{
		SessionID:     cp.SessionID,
		PendingNode:   cp.PendingNode,
		Terminal:      cp.State.Terminal,
		QuestionCount: cp.State.Slots.QuestionCount,
	}
}
