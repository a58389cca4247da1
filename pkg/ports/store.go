package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// StateStore defines the interface for persisting session checkpoints.
// A Save must commit the state snapshot and its pending node together.
type StateStore interface {
	// Save persists the checkpoint, replacing any previous one for the session.
	Save(ctx context.Context, cp *domain.Checkpoint) error

	// Load retrieves the latest checkpoint for a session.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of stored sessions.
	List(ctx context.Context) ([]string, error)
}
