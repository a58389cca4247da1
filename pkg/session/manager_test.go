package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		sid := fmt.Sprintf("session-%d", i)
		require.NoError(t, mgr.WithLock(ctx, sid, func(context.Context) error { return nil }))
		require.NoError(t, mgr.Delete(ctx, sid))
	}

	assert.Zero(t, mgr.active(), "lock entries must be released once unused")
}

type stubLocker struct {
	err      error
	locked   []string
	unlocked int
}

func (s *stubLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.locked = append(s.locked, key)
	return func(context.Context) error {
		s.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &stubLocker{}
	mgr := NewManager(memory.NewStore(), WithLocker(locker), WithLockTTL(time.Second))

	ran := false
	err := mgr.WithLock(context.Background(), "s1", func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}

func TestManager_LockFailureIsUnavailable(t *testing.T) {
	mgr := NewManager(memory.NewStore(), WithLocker(&stubLocker{err: errors.New("redis down")}))

	err := mgr.WithLock(context.Background(), "s1", func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionUnavailable)
}

type brokenStore struct{ *memory.Store }

func (brokenStore) Load(context.Context, string) (*domain.Checkpoint, error) {
	return nil, errors.New("i/o timeout")
}

func TestManager_LoadWrapsStoreErrors(t *testing.T) {
	mgr := NewManager(brokenStore{memory.NewStore()})
	_, err := mgr.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionUnavailable)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)

	mgr = NewManager(memory.NewStore())
	_, err = mgr.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int
		want    string
		wantErr bool
	}{
		{"plain", "Hello World", 0, "Hello World", false},
		{"safe controls", "Line1\nLine2\tTabbed", 0, "Line1\nLine2\tTabbed", false},
		{"ansi", "\x1b[31mRed\x1b[0m", 0, "[31mRed[0m", false},
		{"null", "Null\x00Byte", 0, "NullByte", false},
		{"exact limit", "abcd", 4, "abcd", false},
		{"over limit", "abcde", 4, "", true},
		{"invalid utf8", "bad\xff", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input, tt.limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
