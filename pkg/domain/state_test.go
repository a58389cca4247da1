package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_ApplyAppendsAndOverwrites(t *testing.T) {
	s := NewState("s1", "greet", Slots{StudentName: "Sam"})
	assert.Equal(t, DefaultMaxQuestions, s.Slots.MaxQuestions)

	require.NoError(t, s.Apply(Update{
		Messages: []Message{Say("hello")},
		Topic:    Ptr("go"),
	}))
	require.NoError(t, s.Apply(Update{
		Messages: []Message{Say("again")},
		Topic:    Ptr("python"),
	}))

	require.Len(t, s.Messages, 2)
	assert.Equal(t, "hello", s.Messages[0].Text)
	assert.Equal(t, "again", s.Messages[1].Text)
	assert.False(t, s.Messages[0].Timestamp.IsZero())
	assert.Equal(t, "python", s.Slots.Topic)
	assert.Equal(t, "Sam", s.Slots.StudentName, "untouched slots survive")
}

func TestState_PoolInvariants(t *testing.T) {
	s := NewState("s1", "greet", Slots{})
	require.NoError(t, s.Apply(Update{QuestionPool: []string{"q1", "q2"}}))

	next, ok := s.NextQuestion()
	require.True(t, ok)
	assert.Equal(t, "q1", next)

	require.NoError(t, s.Apply(Update{Asked: Ptr("q1"), QuestionCount: Ptr(1)}))
	assert.Equal(t, "q1", s.CurrentQuestion())

	next, _ = s.NextQuestion()
	assert.Equal(t, "q2", next)

	t.Run("asked must be pooled", func(t *testing.T) {
		err := s.Apply(Update{Asked: Ptr("not pooled")})
		assert.Error(t, err)
	})

	t.Run("count never decreases", func(t *testing.T) {
		err := s.Apply(Update{QuestionCount: Ptr(0)})
		assert.Error(t, err)
	})

	t.Run("pool reset clears asked and count", func(t *testing.T) {
		require.NoError(t, s.Apply(Update{QuestionPool: []string{"q9"}}))
		assert.Empty(t, s.Asked)
		assert.Equal(t, 0, s.Slots.QuestionCount)
	})
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := NewState("s1", "greet", Slots{})
	require.NoError(t, s.Apply(Update{Messages: []Message{Say("one")}}))

	c := s.Clone()
	require.NoError(t, c.Apply(Update{Messages: []Message{Say("two")}}))

	assert.Len(t, s.Messages, 1)
	assert.Len(t, c.Messages, 2)
}

func TestErrors_Matching(t *testing.T) {
	perr := &PersistenceError{Op: "save", SessionID: "x", Err: errors.New("disk full")}
	assert.ErrorIs(t, perr, ErrSessionUnavailable)

	rerr := &RoutingError{Node: "n", Router: "r", Outcome: "o"}
	assert.ErrorIs(t, rerr, ErrInternal)

	cerr := &ExternalCallError{Op: "classify", Attempt: 1, Kind: FailureMalformed, Err: ErrMalformedResponse}
	assert.ErrorIs(t, cerr, ErrMalformedResponse)
}
