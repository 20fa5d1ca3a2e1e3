package port

import (
	"context"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// EventPublisher broadcasts change notifications for other components to
// consume. Publishing is best effort: callers log failures and continue.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error
	PublishSessionCreated(ctx context.Context, event domain.SessionCreatedEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
	PublishSessionExpiryWarning(ctx context.Context, event domain.SessionExpiryWarningEvent) error
	PublishApplicationSubmitted(ctx context.Context, event domain.ApplicationSubmittedEvent) error
	PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error
}
