package port

import (
	"context"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// ActivityLog is the bounded, append-only audit trail. Implementations cap
// retention at domain.ActivityLogCap entries, evicting the oldest first.
type ActivityLog interface {
	Append(ctx context.Context, entry domain.ActivityLogEntry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)
}
