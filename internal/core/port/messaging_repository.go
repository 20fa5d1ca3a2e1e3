package port

import (
	"context"
	"time"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// ConversationRepository persists conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conv domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListByParticipant(ctx context.Context, accountID string) ([]domain.Conversation, error)
	Touch(ctx context.Context, id string, at time.Time) error
}

// MessageRepository persists messages within conversations.
type MessageRepository interface {
	Create(ctx context.Context, msg domain.Message) error
	ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID string) error
	// DeleteOlderThan purges messages past the retention window.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
