package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

// Records linger past the lock duration so an attempt streak survives a
// near-miss, then Redis reclaims them.
const lockoutRecordTTL = time.Hour

type storedLockout struct {
	Email         string    `json:"email"`
	Attempts      int       `json:"attempts"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	LockUntil     time.Time `json:"lock_until,omitempty"`
}

// LockoutRepository persists failed-attempt records keyed by normalized email.
type LockoutRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewLockoutRepository constructs a Redis-backed lockout store.
func NewLockoutRepository(client *redis.Client, prefix string, logger *zap.Logger) *LockoutRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "kajopo:lockout"
	}
	return &LockoutRepository{client: client, prefix: prefix, logger: logger}
}

func (r *LockoutRepository) key(email string) string {
	return fmt.Sprintf("%s:%s", r.prefix, email)
}

// Get returns the record for the email. Corrupt data is purged and reported
// absent.
func (r *LockoutRepository) Get(ctx context.Context, email string) (*domain.LockoutRecord, error) {
	raw, err := r.client.Get(ctx, r.key(email)).Bytes()
	if err != nil {
		if mapped := translateError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("redis get lockout: %w", err)
	}

	var stored storedLockout
	if err := json.Unmarshal(raw, &stored); err != nil {
		r.logger.Warn("purging corrupt lockout record", zap.Error(err))
		_ = r.client.Del(ctx, r.key(email)).Err()
		return nil, repository.ErrNotFound
	}

	return &domain.LockoutRecord{
		Email:         stored.Email,
		Attempts:      stored.Attempts,
		FirstFailedAt: stored.FirstFailedAt,
		LockUntil:     stored.LockUntil,
	}, nil
}

// Save writes the record with a retention TTL.
func (r *LockoutRepository) Save(ctx context.Context, record domain.LockoutRecord) error {
	payload, err := json.Marshal(storedLockout{
		Email:         record.Email,
		Attempts:      record.Attempts,
		FirstFailedAt: record.FirstFailedAt,
		LockUntil:     record.LockUntil,
	})
	if err != nil {
		return fmt.Errorf("marshal lockout record: %w", err)
	}

	if err := r.client.Set(ctx, r.key(record.Email), payload, lockoutRecordTTL).Err(); err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("redis set lockout: %w", err)
	}
	return nil
}

// Delete removes the record. Absent records are not an error.
func (r *LockoutRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.key(email)).Err(); err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("redis del lockout: %w", err)
	}
	return nil
}

var _ port.LockoutStore = (*LockoutRepository)(nil)
