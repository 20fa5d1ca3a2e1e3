package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

var (
	// ErrConversationNotFound indicates the conversation does not exist.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrNotParticipant indicates access by an account outside the conversation.
	ErrNotParticipant = errors.New("not a conversation participant")
	// ErrEmptyMessage indicates a send with no body.
	ErrEmptyMessage = errors.New("message body is empty")
)

// MessagingService manages conversations between accounts.
type MessagingService struct {
	conversations port.ConversationRepository
	messages      port.MessageRepository
	events        port.EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewMessagingService constructs a MessagingService.
func NewMessagingService(conversations port.ConversationRepository, messages port.MessageRepository, events port.EventPublisher, log *zap.Logger) *MessagingService {
	if log == nil {
		log = zap.NewNop()
	}
	service := &MessagingService{
		conversations: conversations,
		messages:      messages,
		events:        events,
		logger:        log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *MessagingService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// StartConversation opens a conversation between the participants, the caller
// included. Participant order does not matter.
func (s *MessagingService) StartConversation(ctx context.Context, creatorID string, participantIDs ...string) (*domain.Conversation, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, fmt.Errorf("creator id is required")
	}

	unique := map[string]struct{}{creatorID: {}}
	for _, id := range participantIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			unique[id] = struct{}{}
		}
	}
	if len(unique) < 2 {
		return nil, fmt.Errorf("a conversation needs at least two participants")
	}

	participants := make([]string, 0, len(unique))
	for id := range unique {
		participants = append(participants, id)
	}
	sort.Strings(participants)

	now := s.now()
	conv := domain.Conversation{
		ID:           uuid.NewString(),
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	return &conv, nil
}

// Conversations lists the account's conversations, most recently active first.
func (s *MessagingService) Conversations(ctx context.Context, accountID string) ([]domain.Conversation, error) {
	convs, err := s.conversations.ListByParticipant(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

// Send appends a message to the conversation. Only participants may send.
func (s *MessagingService) Send(ctx context.Context, senderID, conversationID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.fetchForParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      now,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if err := s.conversations.Touch(ctx, conv.ID, now); err != nil {
		s.logger.Warn("touch conversation failed", zap.String("conversation_id", conv.ID), zap.Error(err))
	}

	if s.events != nil {
		event := domain.MessageSentEvent{
			EventID:        uuid.NewString(),
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			SentAt:         msg.CreatedAt,
		}
		if err := s.events.PublishMessageSent(ctx, event); err != nil {
			s.logger.Warn("publish message sent failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return &msg, nil
}

// Messages returns up to limit messages from the conversation and marks the
// reader's unread messages as read.
func (s *MessagingService) Messages(ctx context.Context, readerID, conversationID string, limit int) ([]domain.Message, error) {
	conv, err := s.fetchForParticipant(ctx, conversationID, readerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByConversation(ctx, conv.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if err := s.messages.MarkRead(ctx, conv.ID, readerID); err != nil {
		s.logger.Warn("mark messages read failed", zap.String("conversation_id", conv.ID), zap.Error(err))
	}

	return msgs, nil
}

func (s *MessagingService) fetchForParticipant(ctx context.Context, conversationID, accountID string) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	if !conv.HasParticipant(accountID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}
