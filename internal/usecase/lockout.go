package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/config"
	"github.com/ladiom/kajopo-connect/internal/infra/logger"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

// LockoutGuard tracks consecutive failed login attempts per email and imposes
// a temporary lock once the attempt budget is spent. Attempts are keyed by
// normalized email, so failures against unknown addresses accumulate the same
// way as failures against real accounts.
type LockoutGuard struct {
	store    port.LockoutStore
	activity port.ActivityLog
	events   port.EventPublisher
	cfg      config.LockoutSettings
	logger   *zap.Logger
	now      func() time.Time
}

// LockoutStatus describes the lock state of an email at the time of a check.
type LockoutStatus struct {
	Locked    bool
	Remaining time.Duration
	Attempts  int
}

// NewLockoutGuard constructs a LockoutGuard.
func NewLockoutGuard(store port.LockoutStore, activity port.ActivityLog, events port.EventPublisher, cfg config.LockoutSettings, log *zap.Logger) *LockoutGuard {
	if log == nil {
		log = zap.NewNop()
	}
	guard := &LockoutGuard{
		store:    store,
		activity: activity,
		events:   events,
		cfg:      cfg,
		logger:   log,
	}
	guard.now = func() time.Time { return time.Now().UTC() }
	return guard
}

// WithClock overrides the internal clock for deterministic tests.
func (g *LockoutGuard) WithClock(clock func() time.Time) {
	if clock != nil {
		g.now = clock
	}
}

// Status reports whether the email is currently locked. An expired lock is
// removed on read together with its attempt count, so the next failure starts
// a fresh streak.
func (g *LockoutGuard) Status(ctx context.Context, email string) (LockoutStatus, error) {
	email = domain.NormalizeEmail(email)

	record, err := g.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LockoutStatus{}, nil
		}
		return LockoutStatus{}, fmt.Errorf("get lockout record: %w", err)
	}

	now := g.now()
	if record.Locked(now) {
		return LockoutStatus{
			Locked:    true,
			Remaining: record.LockUntil.Sub(now),
			Attempts:  record.Attempts,
		}, nil
	}

	if !record.LockUntil.IsZero() {
		// Lock served out. Drop the record so the streak resets.
		if err := g.store.Delete(ctx, email); err != nil {
			g.logger.Warn("cleanup expired lockout failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		}
		return LockoutStatus{}, nil
	}

	return LockoutStatus{Attempts: record.Attempts}, nil
}

// RecordFailure registers a failed login attempt and returns the resulting
// status. Crossing the attempt budget locks the email for the configured
// duration and publishes a lock event.
func (g *LockoutGuard) RecordFailure(ctx context.Context, email string) (LockoutStatus, error) {
	email = domain.NormalizeEmail(email)
	now := g.now()

	record, err := g.store.Get(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return LockoutStatus{}, fmt.Errorf("get lockout record: %w", err)
		}
		record = &domain.LockoutRecord{Email: email, FirstFailedAt: now}
	}

	if record.Locked(now) {
		// No further counting while locked; the lock neither grows nor
		// extends.
		return LockoutStatus{
			Locked:    true,
			Remaining: record.LockUntil.Sub(now),
			Attempts:  record.Attempts,
		}, nil
	}

	if !record.LockUntil.IsZero() {
		// Previous lock expired; start a fresh streak.
		record = &domain.LockoutRecord{Email: email, FirstFailedAt: now}
	}

	record.Attempts++

	status := LockoutStatus{Attempts: record.Attempts}
	if record.Attempts >= g.cfg.MaxAttempts {
		record.LockUntil = now.Add(g.cfg.Duration)
		status.Locked = true
		status.Remaining = g.cfg.Duration
	}

	if err := g.store.Save(ctx, *record); err != nil {
		return LockoutStatus{}, fmt.Errorf("save lockout record: %w", err)
	}

	g.recordActivity(ctx, "login_failed", map[string]any{
		"email":    logger.MaskEmail(email),
		"attempts": record.Attempts,
	})

	if status.Locked {
		g.recordActivity(ctx, "account_locked", map[string]any{
			"email":      logger.MaskEmail(email),
			"attempts":   record.Attempts,
			"lock_until": record.LockUntil,
		})

		if g.events != nil {
			event := domain.AccountLockedEvent{
				EventID:   uuid.NewString(),
				Email:     email,
				Attempts:  record.Attempts,
				LockedAt:  now,
				LockUntil: record.LockUntil,
			}
			if err := g.events.PublishAccountLocked(ctx, event); err != nil {
				g.logger.Warn("publish account locked failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
			}
		}
	}

	return status, nil
}

// ClearFailures wipes the attempt streak for the email. Called on successful
// login; clearing an email with no record is not an error.
func (g *LockoutGuard) ClearFailures(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	if err := g.store.Delete(ctx, email); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("delete lockout record: %w", err)
	}
	return nil
}

// AttemptsRemaining reports how many failures remain before the email locks.
func (g *LockoutGuard) AttemptsRemaining(status LockoutStatus) int {
	remaining := g.cfg.MaxAttempts - status.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *LockoutGuard) recordActivity(ctx context.Context, action string, details map[string]any) {
	if g.activity == nil {
		return
	}

	entry := domain.ActivityLogEntry{
		Timestamp: g.now(),
		Action:    action,
		Details:   details,
	}
	if err := g.activity.Append(ctx, entry); err != nil {
		g.logger.Warn("append activity log failed", zap.String("action", action), zap.Error(err))
	}
}
