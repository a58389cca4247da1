package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
)

// RunSession drives one interview over h until it finishes or input ends.
// With a session id, an existing suspended session is resumed where it stopped;
// otherwise a new one is started. Interrupting leaves the session resumable.
func RunSession(ctx context.Context, engine *parley.Engine, opts RunOptions, h IOHandler) error {
	res, err := openSession(ctx, engine, opts, h)
	if err != nil || res == nil {
		return err
	}

	for {
		if err := h.Output(ctx, res); err != nil {
			return err
		}
		if res.Status.Terminal {
			return nil
		}

		input, err := h.Input(ctx)
		if err != nil {
			if isInterrupted(err) {
				_ = h.SystemOutput(ctx, fmt.Sprintf("Session '%s' suspended at '%s'. Resume with --session %s.",
					res.SessionID, res.Status.PendingNode, res.SessionID))
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		next, err := engine.Resume(ctx, res.SessionID, input)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				_ = h.SystemOutput(ctx, "That reply could not be accepted, please try a shorter one.")
				res = &session.Result{SessionID: res.SessionID, Messages: []domain.Message{}, Status: res.Status}
				continue
			}
			return err
		}
		res = next
	}
}

func openSession(ctx context.Context, engine *parley.Engine, opts RunOptions, h IOHandler) (*session.Result, error) {
	if opts.SessionID != "" {
		if opts.Fresh {
			if err := engine.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				return nil, fmt.Errorf("failed to reset session: %w", err)
			}
		}

		state, err := engine.Inspect(ctx, opts.SessionID)
		switch {
		case err == nil:
			if state.Terminal {
				_ = h.SystemOutput(ctx, fmt.Sprintf("Session '%s' has already finished.", opts.SessionID))
				return nil, nil
			}
			_ = h.SystemOutput(ctx, fmt.Sprintf("Resuming session '%s' at '%s'.", opts.SessionID, state.PendingNode))
			return &session.Result{
				SessionID: state.SessionID,
				Messages:  pendingPrompt(state),
				Status: session.Status{
					SessionID:     state.SessionID,
					PendingNode:   state.PendingNode,
					Terminal:      state.Terminal,
					QuestionCount: state.Slots.QuestionCount,
				},
			}, nil
		case !errors.Is(err, domain.ErrSessionNotFound):
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
	}

	slots := map[string]any{}
	if opts.SessionID != "" {
		slots["session_id"] = opts.SessionID
	}
	if opts.Name != "" {
		slots["name"] = opts.Name
	}
	if opts.MaxQuestions > 0 {
		slots["max_questions"] = opts.MaxQuestions
	}
	res, err := engine.Start(ctx, slots)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if !opts.JSON {
		_ = h.SystemOutput(ctx, fmt.Sprintf("Session '%s' active.", res.SessionID))
	}
	return res, nil
}

// pendingPrompt returns the interviewer messages since the student last spoke,
// which is the question a suspended session is waiting on.
func pendingPrompt(state *domain.State) []domain.Message {
	start := 0
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == domain.RoleUser {
			start = i + 1
			break
		}
	}
	out := []domain.Message{}
	for _, m := range state.Messages[start:] {
		if m.Role == domain.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}
