package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newCheckpoint := func(id, pending string) *domain.Checkpoint {
		state := domain.NewState(id, pending, domain.Slots{StudentName: "Sam"})
		return &domain.Checkpoint{
			SessionID:   id,
			State:       state,
			PendingNode: pending,
			SavedAt:     time.Now().UTC(),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		cp := newCheckpoint(sessionID, "check_identity")
		require.NoError(t, cp.State.Apply(domain.Update{
			Messages:     []domain.Message{domain.Say("hello")},
			QuestionPool: []string{"q1", "q2"},
			Asked:        domain.Ptr("q1"),
		}))
		cp.Seq = 7

		err := store.Save(ctx, cp)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "check_identity", loaded.PendingNode)
		assert.Equal(t, int64(7), loaded.Seq)
		require.NotNil(t, loaded.State)
		assert.Equal(t, "Sam", loaded.State.Slots.StudentName)
		assert.Equal(t, []string{"q1", "q2"}, loaded.State.QuestionPool)
		assert.Equal(t, []string{"q1"}, loaded.State.Asked)
		require.Len(t, loaded.State.Messages, 1)
		assert.Equal(t, "hello", loaded.State.Messages[0].Text)
	})

	t.Run("Overwrite keeps state and pending node together", func(t *testing.T) {
		cp := newCheckpoint(sessionID, "check_topic")
		cp.State.Slots.Topic = "go"
		require.NoError(t, store.Save(ctx, cp))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "check_topic", loaded.PendingNode)
		assert.Equal(t, "go", loaded.State.Slots.Topic)
	})

	t.Run("Loaded checkpoint is isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State.Slots.Topic = "mutated"
		loaded.PendingNode = "mutated"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "check_topic", again.PendingNode)
		assert.Equal(t, "go", again.State.Slots.Topic)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newCheckpoint(sessionID, "greet")))

		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, newCheckpoint(id1, "greet")))
		require.NoError(t, store.Save(ctx, newCheckpoint(id2, "greet")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
