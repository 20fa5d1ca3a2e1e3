package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// ConversationRepository implements port.ConversationRepository using
// PostgreSQL. Participants are stored as a text[] column.
type ConversationRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewConversationRepository wires a PostgreSQL-backed conversation repository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ConversationRepository) WithTx(tx pgx.Tx) *ConversationRepository {
	if tx == nil {
		return r
	}
	return &ConversationRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new conversation row.
func (r *ConversationRepository) Create(ctx context.Context, conv domain.Conversation) error {
	stmt, args, err := r.builder.Insert("kajopo.conversations").
		Columns("id", "participants", "created_at", "updated_at").
		Values(conv.ID, conv.Participants, conv.CreatedAt, conv.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert conversation sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by identifier.
func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	stmt, args, err := r.builder.
		Select("id", "participants", "created_at", "updated_at").
		From("kajopo.conversations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select conversation sql: %w", err)
	}

	return scanConversation(r.exec.QueryRow(ctx, stmt, args...))
}

// ListByParticipant returns the conversations an account takes part in,
// most recently active first.
func (r *ConversationRepository) ListByParticipant(ctx context.Context, accountID string) ([]domain.Conversation, error) {
	stmt, args, err := r.builder.
		Select("id", "participants", "created_at", "updated_at").
		From("kajopo.conversations").
		Where(squirrel.Expr("? = ANY(participants)", accountID)).
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list conversations sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return conversations, nil
}

// Touch bumps a conversation's activity timestamp.
func (r *ConversationRepository) Touch(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("kajopo.conversations").
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch conversation sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows)
	}

	return nil
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var conv domain.Conversation

	if err := row.Scan(
		&conv.ID,
		&conv.Participants,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	); err != nil {
		if mapped := translateError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}

	return &conv, nil
}

// MessageRepository implements port.MessageRepository using PostgreSQL.
type MessageRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewMessageRepository wires a PostgreSQL-backed message repository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *MessageRepository) WithTx(tx pgx.Tx) *MessageRepository {
	if tx == nil {
		return r
	}
	return &MessageRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new message row.
func (r *MessageRepository) Create(ctx context.Context, msg domain.Message) error {
	stmt, args, err := r.builder.Insert("kajopo.messages").
		Columns("id", "conversation_id", "sender_id", "body", "read", "created_at").
		Values(msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.Read, msg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert message sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// ListByConversation returns a conversation's messages oldest first. A
// positive limit caps the number of rows returned.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	query := r.builder.
		Select("id", "conversation_id", "sender_id", "body", "read", "created_at").
		From("kajopo.messages").
		Where(squirrel.Eq{"conversation_id": conversationID}).
		OrderBy("created_at ASC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list messages sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Body,
			&msg.Read,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// MarkRead flags every message in the conversation not sent by the reader
// as read.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID string) error {
	stmt, args, err := r.builder.Update("kajopo.messages").
		Set("read", true).
		Where(squirrel.Eq{"conversation_id": conversationID, "read": false}).
		Where(squirrel.NotEq{"sender_id": readerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark read sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}

	return nil
}

// DeleteOlderThan purges messages created before the cutoff and returns the
// number of rows removed.
func (r *MessageRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	stmt, args, err := r.builder.Delete("kajopo.messages").
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge messages sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("purge messages: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
