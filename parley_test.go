package parley_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/interview"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_DefaultsRunAnInterview(t *testing.T) {
	eng, err := parley.New()
	require.NoError(t, err)
	ctx := context.Background()

	res, err := eng.Start(ctx, map[string]any{"name": "Ada", "max_questions": 2})
	require.NoError(t, err)
	id := res.SessionID

	for _, in := range []string{"yes", "go", "easy", "goroutines are cheap concurrent functions", "a channel passes values between goroutines"} {
		res, err = eng.Resume(ctx, id, in)
		require.NoError(t, err, in)
	}
	assert.True(t, res.Status.Terminal)
	assert.Equal(t, 2, res.Status.QuestionCount)

	ids, err := eng.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	st, err := eng.Inspect(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Go", st.Slots.Topic)
	assert.Len(t, st.Results, 2)

	require.NoError(t, eng.Delete(ctx, id))
	_, err = eng.Status(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.True(t, parley.IsUserFacing(err))
}

func TestEngine_ResumeAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := parley.New(parley.WithStore(file.New(dir)))
	require.NoError(t, err)
	res, err := first.Start(ctx, map[string]any{"session_id": "persisted", "name": "Ada"})
	require.NoError(t, err)
	_, err = first.Resume(ctx, res.SessionID, "yes")
	require.NoError(t, err)

	second, err := parley.New(parley.WithStore(file.New(dir)))
	require.NoError(t, err)
	res, err = second.Resume(ctx, "persisted", "python")
	require.NoError(t, err)
	assert.Equal(t, interview.NodeCheckDifficulty, res.Status.PendingNode)
}

// failingClassifier fails every call so the fallbacks are exercised.
type failingClassifier struct{}

var errDown = errors.New("model unavailable")

func (failingClassifier) Identity(context.Context, string, string) (ports.IdentityVerdict, error) {
	return ports.IdentityVerdict{}, errDown
}
func (failingClassifier) Topic(context.Context, string) (ports.TopicVerdict, error) {
	return ports.TopicVerdict{}, errDown
}
func (failingClassifier) Difficulty(context.Context, string) (ports.DifficultyVerdict, error) {
	return ports.DifficultyVerdict{}, errDown
}
func (failingClassifier) Reply(context.Context, string, string) (ports.ReplyVerdict, error) {
	return ports.ReplyVerdict{}, errDown
}
func (failingClassifier) Evaluate(context.Context, string, string, string) (ports.Evaluation, error) {
	return ports.Evaluation{}, errDown
}

func TestEngine_HooksSeeCallFailures(t *testing.T) {
	var failures, fallbacks, suspends atomic.Int32
	hooks := domain.LifecycleHooks{
		OnCallFailed: func(context.Context, *domain.CallEvent) { failures.Add(1) },
		OnFallback:   func(context.Context, *domain.CallEvent) { fallbacks.Add(1) },
		OnSuspend:    func(context.Context, *domain.NodeEvent) { suspends.Add(1) },
	}
	eng, err := parley.New(
		parley.WithClassifier(failingClassifier{}),
		parley.WithRetryPolicy(retry.Policy{Timeout: time.Second}),
		parley.WithLifecycleHooks(hooks),
	)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := eng.Start(ctx, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	res, err = eng.Resume(ctx, res.SessionID, "yes")
	require.NoError(t, err)

	// The identity fallback is "unclear", so the greeting repeats.
	assert.Equal(t, interview.NodeCheckIdentity, res.Status.PendingNode)
	assert.Equal(t, int32(3), failures.Load())
	assert.Equal(t, int32(1), fallbacks.Load())
	assert.Equal(t, int32(2), suspends.Load())
}

func TestEngine_StoreMiddleware(t *testing.T) {
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	eng, err := parley.New(parley.WithStoreMiddleware(pii))
	require.NoError(t, err)
	ctx := context.Background()

	res, err := eng.Start(ctx, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	_, err = eng.Resume(ctx, res.SessionID, "yes, reach me at ada@example.org")
	require.NoError(t, err)

	st, err := eng.Inspect(ctx, res.SessionID)
	require.NoError(t, err)
	var user []string
	for _, m := range st.Messages {
		if m.Role == domain.RoleUser {
			user = append(user, m.Text)
		}
	}
	assert.Equal(t, []string{"yes, reach me at ***"}, user)
}
