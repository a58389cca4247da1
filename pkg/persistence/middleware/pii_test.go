package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Contract(t *testing.T) {
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	ports.RunStateStoreContract(t, mw(memory.NewStore()))
}

func TestPIIMiddleware_MasksUserInput(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	store := mw(underlying)

	st := domain.NewState("s1", "check_identity", domain.Slots{})
	require.NoError(t, st.Apply(domain.Update{Messages: []domain.Message{
		domain.Say("Write to interviews@example.com for help."),
		{Role: domain.RoleUser, Text: "I'm Ada, mail me at ada@example.org or +1 555 123 4567"},
	}}))
	st.Slots.LastInput = "ada@example.org"
	st.Results = []domain.Result{{Question: "q", Answer: "call 555-123-4567"}}
	cp := &domain.Checkpoint{SessionID: "s1", State: st, PendingNode: "check_identity"}

	require.NoError(t, store.Save(ctx, cp))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Write to interviews@example.com for help.", stored.State.Messages[0].Text)
	assert.Equal(t, "I'm Ada, mail me at *** or ***", stored.State.Messages[1].Text)
	assert.Equal(t, middleware.Mask, stored.State.Slots.LastInput)
	assert.Equal(t, "call ***", stored.State.Results[0].Answer)

	// The caller's copy is untouched.
	assert.Equal(t, "ada@example.org", cp.State.Slots.LastInput)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)

	st := domain.NewState("s1", "check_topic", domain.Slots{})
	require.NoError(t, st.Apply(domain.Update{Messages: []domain.Message{{Role: domain.RoleUser, Text: "ada@example.org"}}}))
	require.NoError(t, store.Save(ctx, &domain.Checkpoint{SessionID: "s1", State: st, PendingNode: "check_topic"}))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.State.Messages[0].Text)
}
