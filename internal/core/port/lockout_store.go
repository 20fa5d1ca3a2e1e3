package port

import (
	"context"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// LockoutStore persists per-email failed-attempt records. Keys are
// normalized emails; attempts against unknown emails still accumulate.
type LockoutStore interface {
	// Get returns the record for the email or repository.ErrNotFound when
	// no failures are on record. Corrupt data is purged and reported absent.
	Get(ctx context.Context, email string) (*domain.LockoutRecord, error)
	Save(ctx context.Context, record domain.LockoutRecord) error
	// Delete removes the record; absent records are not an error.
	Delete(ctx context.Context, email string) error
}
