package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes kajopo.account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Email        string         `json:"email"`
		AccountType  string         `json:"account_type"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Email:        event.Email,
		AccountType:  event.AccountType,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "kajopo.account.registered", event.AccountID, event.RegisteredAt, payload)
}

// PublishAccountLocked publishes kajopo.account.locked events.
func (p *EventPublisher) PublishAccountLocked(ctx context.Context, event domain.AccountLockedEvent) error {
	payload := struct {
		Email     string    `json:"email"`
		Attempts  int       `json:"attempts"`
		LockedAt  time.Time `json:"locked_at"`
		LockUntil time.Time `json:"lock_until"`
	}{
		Email:     event.Email,
		Attempts:  event.Attempts,
		LockedAt:  event.LockedAt.UTC(),
		LockUntil: event.LockUntil.UTC(),
	}

	return p.publish(ctx, event.EventID, "kajopo.account.locked", "", event.LockedAt, payload)
}

// PublishSessionCreated publishes kajopo.session.created events.
func (p *EventPublisher) PublishSessionCreated(ctx context.Context, event domain.SessionCreatedEvent) error {
	payload := struct {
		SessionID  string    `json:"session_id"`
		AccountID  string    `json:"account_id"`
		RememberMe bool      `json:"remember_me"`
		CreatedAt  time.Time `json:"created_at"`
		ExpiresAt  time.Time `json:"expires_at"`
	}{
		SessionID:  event.SessionID,
		AccountID:  event.AccountID,
		RememberMe: event.RememberMe,
		CreatedAt:  event.CreatedAt.UTC(),
		ExpiresAt:  event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "kajopo.session.created", event.AccountID, event.CreatedAt, payload)
}

// PublishSessionRevoked publishes kajopo.session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		AccountID string    `json:"account_id"`
		Reason    string    `json:"reason"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		SessionID: event.SessionID,
		AccountID: event.AccountID,
		Reason:    event.Reason,
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "kajopo.session.revoked", event.AccountID, event.RevokedAt, payload)
}

// PublishSessionExpiryWarning publishes kajopo.session.expiry_warning events.
func (p *EventPublisher) PublishSessionExpiryWarning(ctx context.Context, event domain.SessionExpiryWarningEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		AccountID string    `json:"account_id"`
		IssuedAt  time.Time `json:"issued_at"`
		ExpiresAt time.Time `json:"expires_at"`
	}{
		SessionID: event.SessionID,
		AccountID: event.AccountID,
		IssuedAt:  event.IssuedAt.UTC(),
		ExpiresAt: event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "kajopo.session.expiry_warning", event.AccountID, event.IssuedAt, payload)
}

// PublishApplicationSubmitted publishes kajopo.application.submitted events.
func (p *EventPublisher) PublishApplicationSubmitted(ctx context.Context, event domain.ApplicationSubmittedEvent) error {
	payload := struct {
		ApplicationID string    `json:"application_id"`
		OpportunityID string    `json:"opportunity_id"`
		ApplicantID   string    `json:"applicant_id"`
		SubmittedAt   time.Time `json:"submitted_at"`
	}{
		ApplicationID: event.ApplicationID,
		OpportunityID: event.OpportunityID,
		ApplicantID:   event.ApplicantID,
		SubmittedAt:   event.SubmittedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "kajopo.application.submitted", event.ApplicantID, event.SubmittedAt, payload)
}

// PublishMessageSent publishes kajopo.message.sent events.
func (p *EventPublisher) PublishMessageSent(ctx context.Context, event domain.MessageSentEvent) error {
	payload := struct {
		MessageID      string    `json:"message_id"`
		ConversationID string    `json:"conversation_id"`
		SenderID       string    `json:"sender_id"`
		SentAt         time.Time `json:"sent_at"`
	}{
		MessageID:      event.MessageID,
		ConversationID: event.ConversationID,
		SenderID:       event.SenderID,
		SentAt:         event.SentAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "kajopo.message.sent", event.SenderID, event.SentAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
