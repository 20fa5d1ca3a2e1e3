package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

const sessionScanBatch = 200

type storedSession struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Email       string    `json:"email"`
	AccountType string    `json:"account_type"`
	RememberMe  bool      `json:"remember_me"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Warned      bool      `json:"warned"`
}

// SessionRepository persists sessions as JSON values with a TTL matching the
// session expiry, so Redis drops records shortly after they lapse even if no
// sweep runs.
type SessionRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewSessionRepository constructs a Redis-backed session store.
func NewSessionRepository(client *redis.Client, prefix string, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "kajopo:session"
	}
	return &SessionRepository{client: client, prefix: prefix, logger: logger}
}

func (r *SessionRepository) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, sessionID)
}

// Save writes the session, renewing the key TTL to the session's remaining
// lifetime plus a grace period for lazy purge bookkeeping.
func (r *SessionRepository) Save(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(storedSession{
		ID:          session.ID,
		AccountID:   session.AccountID,
		Email:       session.Email,
		AccountType: string(session.AccountType),
		RememberMe:  session.RememberMe,
		IssuedAt:    session.IssuedAt,
		ExpiresAt:   session.ExpiresAt,
		Warned:      session.Warned,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt) + time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}

	if err := r.client.Set(ctx, r.key(session.ID), payload, ttl).Err(); err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get returns the stored session. A corrupt record is purged and reported
// absent rather than surfacing a decoding failure.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if mapped := translateError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	session, err := r.decode(raw)
	if err != nil {
		r.logger.Warn("purging corrupt session record", zap.String("session_id", sessionID), zap.Error(err))
		if delErr := r.client.Del(ctx, r.key(sessionID)).Err(); delErr != nil {
			r.logger.Warn("purge corrupt session failed", zap.String("session_id", sessionID), zap.Error(delErr))
		}
		return nil, repository.ErrNotFound
	}

	return session, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// List scans every stored session for the expiry monitor sweep. Corrupt
// records encountered during the scan are purged and skipped.
func (r *SessionRepository) List(ctx context.Context) ([]domain.Session, error) {
	var (
		sessions []domain.Session
		cursor   uint64
	)

	pattern := r.prefix + ":*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, sessionScanBatch).Result()
		if err != nil {
			if mapped := translateError(err); mapped != err {
				return nil, mapped
			}
			return nil, fmt.Errorf("redis scan sessions: %w", err)
		}

		for _, key := range keys {
			raw, err := r.client.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, fmt.Errorf("redis get session: %w", err)
			}

			session, err := r.decode(raw)
			if err != nil {
				r.logger.Warn("purging corrupt session record", zap.String("key", key), zap.Error(err))
				_ = r.client.Del(ctx, key).Err()
				continue
			}
			sessions = append(sessions, *session)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return sessions, nil
}

func (r *SessionRepository) decode(raw []byte) (*domain.Session, error) {
	var stored storedSession
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if stored.ID == "" || stored.AccountID == "" || stored.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("session record missing required fields")
	}

	return &domain.Session{
		ID:          stored.ID,
		AccountID:   stored.AccountID,
		Email:       stored.Email,
		AccountType: domain.AccountType(stored.AccountType),
		RememberMe:  stored.RememberMe,
		IssuedAt:    stored.IssuedAt,
		ExpiresAt:   stored.ExpiresAt,
		Warned:      stored.Warned,
	}, nil
}

var _ port.SessionStore = (*SessionRepository)(nil)
