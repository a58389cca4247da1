package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/rules"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/graph"
	"github.com/aretw0/parley/pkg/interview"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T) *graph.Definition {
	t.Helper()
	def, err := interview.NewGraph(interview.Deps{
		Classifier: rules.NewClassifier(),
		Generator:  rules.NewGenerator(),
	})
	require.NoError(t, err)
	return def
}

func newController(t *testing.T, store ports.StateStore, opts ...session.Option) *session.Controller {
	t.Helper()
	return session.NewController(newGraph(t), store, opts...)
}

func TestController_ScenarioComplete(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)
	assert.Equal(t, interview.NodeCheckIdentity, res.Status.PendingNode)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Text, "Sam")

	id := res.SessionID
	steps := []struct {
		input   string
		pending string
	}{
		{"yes", interview.NodeCheckTopic},
		{"python", interview.NodeCheckDifficulty},
		{"medium", interview.NodeCheckAnswer},
	}
	for _, s := range steps {
		res, err = ctrl.Resume(ctx, id, s.input)
		require.NoError(t, err, s.input)
		assert.Equal(t, s.pending, res.Status.PendingNode, s.input)
		assert.False(t, res.Status.Terminal)
	}

	for i := 1; i <= 3; i++ {
		res, err = ctrl.Resume(ctx, id, "it is a built-in structure for storing values")
		require.NoError(t, err)
		assert.Equal(t, i, res.Status.QuestionCount)
		assert.Equal(t, i == 3, res.Status.Terminal)
	}
	assert.Equal(t, graph.End, res.Status.PendingNode)

	st, err := ctrl.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, session.Status{SessionID: id, PendingNode: graph.End, Terminal: true, QuestionCount: 3}, *st)
}

func TestController_ScenarioQuit(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)

	res, err = ctrl.Resume(ctx, res.SessionID, "I want to stop")
	require.NoError(t, err)
	assert.True(t, res.Status.Terminal)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Text, "Goodbye")

	state, err := ctrl.Inspect(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Empty(t, state.Slots.Topic)
	assert.Empty(t, state.QuestionPool)
}

func TestController_ScenarioSilence(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)
	id, greeting := res.SessionID, res.Messages[0].Text

	res, err = ctrl.Resume(ctx, id, "")
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, greeting, res.Messages[0].Text)
	assert.Equal(t, interview.NodeCheckIdentity, res.Status.PendingNode)
	assert.Zero(t, res.Status.QuestionCount)
}

func TestController_ResumeTerminalIsNoop(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)
	_, err = ctrl.Resume(ctx, res.SessionID, "bye")
	require.NoError(t, err)

	before, err := ctrl.Inspect(ctx, res.SessionID)
	require.NoError(t, err)

	again, err := ctrl.Resume(ctx, res.SessionID, "hello?")
	require.NoError(t, err)
	assert.Empty(t, again.Messages)
	assert.True(t, again.Status.Terminal)

	after, err := ctrl.Inspect(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Len(t, after.Messages, len(before.Messages))
}

func TestController_StatusIsIdempotent(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)

	first, err := ctrl.Status(ctx, res.SessionID)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		st, err := ctrl.Status(ctx, res.SessionID)
		require.NoError(t, err)
		assert.Equal(t, first, st)
	}
}

func TestController_UnknownSession(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	_, err := ctrl.Resume(ctx, "nope", "yes")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = ctrl.Status(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestController_StartSlots(t *testing.T) {
	ctrl := newController(t, memory.NewStore(), session.WithIDGenerator(func() string { return "fixed" }))
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"Name": "Ada", "max_questions": "2"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", res.SessionID)

	state, err := ctrl.Inspect(ctx, "fixed")
	require.NoError(t, err)
	assert.Equal(t, "Ada", state.Slots.StudentName)
	assert.Equal(t, 2, state.Slots.MaxQuestions)

	_, err = ctrl.Start(ctx, map[string]any{"session_id": "fixed"})
	assert.ErrorIs(t, err, domain.ErrSessionExists)

	_, err = ctrl.Start(ctx, map[string]any{"favourite_colour": "blue"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = ctrl.Start(ctx, map[string]any{"max_questions": -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestController_DefaultMaxQuestions(t *testing.T) {
	ctrl := newController(t, memory.NewStore(), session.WithMaxQuestions(5))
	ctx := context.Background()

	res, err := ctrl.Start(ctx, nil)
	require.NoError(t, err)
	state, err := ctrl.Inspect(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Slots.MaxQuestions)
}

func TestController_RejectsOversizedInput(t *testing.T) {
	ctrl := newController(t, memory.NewStore(), session.WithMaxInputSize(8))
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)

	_, err = ctrl.Resume(ctx, res.SessionID, "this reply is far too long")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	st, err := ctrl.Status(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, interview.NodeCheckIdentity, st.PendingNode)
}

func TestController_DeleteAndList(t *testing.T) {
	ctrl := newController(t, memory.NewStore())
	ctx := context.Background()

	a, err := ctrl.Start(ctx, map[string]any{"session_id": "a"})
	require.NoError(t, err)
	_, err = ctrl.Start(ctx, map[string]any{"session_id": "b"})
	require.NoError(t, err)

	ids, err := ctrl.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, ctrl.Delete(ctx, a.SessionID))
	ids, err = ctrl.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

// failingStore fails every save after the first n.
type failingStore struct {
	*memory.Store
	mu    sync.Mutex
	saves int
	after int
}

func (f *failingStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saves > f.after {
		return errors.New("connection reset")
	}
	return f.Store.Save(ctx, cp)
}

func TestController_PersistenceFailureSurfaces(t *testing.T) {
	store := &failingStore{Store: memory.NewStore(), after: 0}
	ctrl := newController(t, store)

	_, err := ctrl.Start(context.Background(), map[string]any{"name": "Sam"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionUnavailable)

	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
}

// flakyStore fails only its nth save.
type flakyStore struct {
	ports.StateStore
	mu    sync.Mutex
	saves int
	fail  int
}

func (f *flakyStore) Save(ctx context.Context, cp *domain.Checkpoint) error {
	f.mu.Lock()
	f.saves++
	n := f.saves
	f.mu.Unlock()
	if n == f.fail {
		return errors.New("connection reset")
	}
	return f.StateStore.Save(ctx, cp)
}

func roles(st *domain.State) []string {
	out := make([]string, 0, len(st.Messages))
	for _, m := range st.Messages {
		out = append(out, string(m.Role)+": "+m.Text)
	}
	return out
}

// startThenBreak starts a session for Sam and answers "yes" while the save
// after ask_topic fails, leaving the checkpoint pending at ask_topic.
func startThenBreak(t *testing.T, ctrl *session.Controller, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := ctrl.Start(ctx, map[string]any{"session_id": id, "name": "Sam"})
	require.NoError(t, err)

	_, err = ctrl.Resume(ctx, id, "yes")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionUnavailable)

	st, err := ctrl.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, interview.NodeAskTopic, st.PendingNode)
}

func TestController_ResumeAfterFailedSaveMidRun(t *testing.T) {
	// Save 1 is the greeting, 2 is check_identity, 3 is ask_topic.
	store := &flakyStore{StateStore: memory.NewStore(), fail: 3}
	ctrl := newController(t, store)
	ctx := context.Background()
	startThenBreak(t, ctrl, "flaky")

	res, err := ctrl.Resume(ctx, "flaky", "python")
	require.NoError(t, err)
	assert.Equal(t, interview.NodeCheckDifficulty, res.Status.PendingNode)
	require.Len(t, res.Messages, 2)
	assert.Contains(t, res.Messages[0].Text, "What topic would you like to practice?")
	assert.Contains(t, res.Messages[1].Text, "Python it is!")

	st, err := ctrl.Inspect(ctx, "flaky")
	require.NoError(t, err)
	assert.Equal(t, "Python", st.Slots.Topic)
	assert.Equal(t, []string{
		"assistant: Hey there! 👋 I'm your friendly AI interviewer. Am I speaking with Sam?",
		"user: yes",
		"assistant: Awesome, Sam! 🎯 What topic would you like to practice? (e.g. Python, JavaScript, SQL, React, Java, C++, etc.)",
		"user: python",
		"assistant: Python it is! How challenging should the questions be: easy, medium or hard?",
	}, roles(st))
}

func TestController_RestartAfterIntermediateCheckpoint(t *testing.T) {
	dir := t.TempDir()
	first := newController(t, &flakyStore{StateStore: file.New(dir), fail: 3})
	startThenBreak(t, first, "restarted")

	// A fresh process over the same directory sees the same recovery.
	second := newController(t, file.New(dir))
	ctx := context.Background()
	res, err := second.Resume(ctx, "restarted", "python")
	require.NoError(t, err)
	assert.Equal(t, interview.NodeCheckDifficulty, res.Status.PendingNode)

	reference := newController(t, memory.NewStore())
	_, err = reference.Start(ctx, map[string]any{"session_id": "restarted", "name": "Sam"})
	require.NoError(t, err)
	_, err = reference.Resume(ctx, "restarted", "yes")
	require.NoError(t, err)
	_, err = reference.Resume(ctx, "restarted", "python")
	require.NoError(t, err)

	got, err := second.Inspect(ctx, "restarted")
	require.NoError(t, err)
	want, err := reference.Inspect(ctx, "restarted")
	require.NoError(t, err)
	assert.Equal(t, roles(want), roles(got))
	assert.Equal(t, want.Slots, got.Slots)
}

// slowClassifier makes Identity take a while so overlapping calls can be observed.
type slowClassifier struct {
	*rules.Classifier
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (s *slowClassifier) Identity(ctx context.Context, expected, text string) (ports.IdentityVerdict, error) {
	s.mu.Lock()
	s.active++
	if s.active > s.maxSeen {
		s.maxSeen = s.active
	}
	s.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	return ports.IdentityVerdict{Intent: ports.IdentityUnclear}, nil
}

func TestController_SerializesSameSession(t *testing.T) {
	slow := &slowClassifier{Classifier: rules.NewClassifier()}
	def, err := interview.NewGraph(interview.Deps{Classifier: slow, Generator: rules.NewGenerator()})
	require.NoError(t, err)
	ctrl := session.NewController(def, memory.NewStore())
	ctx := context.Background()

	res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ctrl.Resume(ctx, res.SessionID, fmt.Sprintf("hmm %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, slow.maxSeen, "calls for one session must not overlap")

	state, err := ctrl.Inspect(ctx, res.SessionID)
	require.NoError(t, err)
	users := 0
	for _, m := range state.Messages {
		if m.Role == domain.RoleUser {
			users++
		}
	}
	assert.Equal(t, 5, users, "no reply may be lost")
}

func TestController_DistinctSessionsRunInParallel(t *testing.T) {
	slow := &slowClassifier{Classifier: rules.NewClassifier()}
	def, err := interview.NewGraph(interview.Deps{Classifier: slow, Generator: rules.NewGenerator()})
	require.NoError(t, err)
	ctrl := session.NewController(def, memory.NewStore())
	ctx := context.Background()

	ids := make([]string, 4)
	for i := range ids {
		res, err := ctrl.Start(ctx, map[string]any{"name": "Sam"})
		require.NoError(t, err)
		ids[i] = res.SessionID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := ctrl.Resume(ctx, id, "hmm")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Greater(t, slow.maxSeen, 1)
}
