package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used in local
// storage mode and development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs kajopo.account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"email":         logger.MaskEmail(event.Email),
		"account_type":  event.AccountType,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("kajopo.account.registered", event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishAccountLocked logs kajopo.account.locked events.
func (p *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	payload := map[string]any{
		"email":      logger.MaskEmail(event.Email),
		"attempts":   event.Attempts,
		"lock_until": event.LockUntil,
	}
	p.logEvent("kajopo.account.locked", "", event.LockedAt, payload)
	return nil
}

// PublishSessionCreated logs kajopo.session.created events.
func (p *StubPublisher) PublishSessionCreated(_ context.Context, event domain.SessionCreatedEvent) error {
	payload := map[string]any{
		"session_id":  event.SessionID,
		"remember_me": event.RememberMe,
		"expires_at":  event.ExpiresAt,
	}
	p.logEvent("kajopo.session.created", event.AccountID, event.CreatedAt, payload)
	return nil
}

// PublishSessionRevoked logs kajopo.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"session_id": event.SessionID,
		"reason":     event.Reason,
	}
	p.logEvent("kajopo.session.revoked", event.AccountID, event.RevokedAt, payload)
	return nil
}

// PublishSessionExpiryWarning logs kajopo.session.expiry_warning events.
func (p *StubPublisher) PublishSessionExpiryWarning(_ context.Context, event domain.SessionExpiryWarningEvent) error {
	payload := map[string]any{
		"session_id": event.SessionID,
		"expires_at": event.ExpiresAt,
	}
	p.logEvent("kajopo.session.expiry_warning", event.AccountID, event.IssuedAt, payload)
	return nil
}

// PublishApplicationSubmitted logs kajopo.application.submitted events.
func (p *StubPublisher) PublishApplicationSubmitted(_ context.Context, event domain.ApplicationSubmittedEvent) error {
	payload := map[string]any{
		"application_id": event.ApplicationID,
		"opportunity_id": event.OpportunityID,
	}
	p.logEvent("kajopo.application.submitted", event.ApplicantID, event.SubmittedAt, payload)
	return nil
}

// PublishMessageSent logs kajopo.message.sent events.
func (p *StubPublisher) PublishMessageSent(_ context.Context, event domain.MessageSentEvent) error {
	payload := map[string]any{
		"message_id":      event.MessageID,
		"conversation_id": event.ConversationID,
	}
	p.logEvent("kajopo.message.sent", event.SenderID, event.SentAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
