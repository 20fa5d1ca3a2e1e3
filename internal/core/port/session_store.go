package port

import (
	"context"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// SessionStore persists ephemeral session records keyed by session ID.
// A corrupt stored record must be purged by the implementation and surfaced
// as absent, never as a decoding failure.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	// Get returns the stored session or repository.ErrNotFound when absent
	// or unreadable.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Delete removes the session; deleting an absent session is not an error.
	Delete(ctx context.Context, sessionID string) error
	// List returns every stored session, used by the expiry monitor sweep.
	List(ctx context.Context) ([]domain.Session, error)
}
