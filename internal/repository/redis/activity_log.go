package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
)

// ActivityLogRepository keeps the audit trail in a capped Redis list, newest
// entries at the head. Every append trims the tail so the list never grows
// past domain.ActivityLogCap.
type ActivityLogRepository struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewActivityLogRepository constructs a Redis-backed activity log.
func NewActivityLogRepository(client *redis.Client, key string, logger *zap.Logger) *ActivityLogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == "" {
		key = "kajopo:activity"
	}
	return &ActivityLogRepository{client: client, key: key, logger: logger}
}

// Append pushes the entry and trims the list to the retention cap.
func (r *ActivityLogRepository) Append(ctx context.Context, entry domain.ActivityLogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, payload)
	pipe.LTrim(ctx, r.key, 0, int64(domain.ActivityLogCap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("redis append activity: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Corrupt entries are
// skipped rather than failing the whole read.
func (r *ActivityLogRepository) Recent(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	if limit <= 0 || limit > domain.ActivityLogCap {
		limit = domain.ActivityLogCap
	}

	values, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		if mapped := translateError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("redis lrange activity: %w", err)
	}

	entries := make([]domain.ActivityLogEntry, 0, len(values))
	for _, value := range values {
		var entry domain.ActivityLogEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			r.logger.Warn("skipping corrupt activity entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

var _ port.ActivityLog = (*ActivityLogRepository)(nil)
