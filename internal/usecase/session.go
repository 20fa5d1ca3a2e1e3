package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/config"
	"github.com/ladiom/kajopo-connect/internal/infra/security"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

var (
	// ErrSessionNotFound indicates that no active session exists. Expired
	// sessions are purged on read and reported through this same error.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSessionToken indicates the presented token failed signature
	// or shape checks.
	ErrInvalidSessionToken = errors.New("invalid session token")
)

// SessionService owns the session lifecycle: creation on login, lookup with
// lazy expiry purging, idempotent clearing, bounded extension, and the
// background expiry monitor.
type SessionService struct {
	store    port.SessionStore
	activity port.ActivityLog
	events   port.EventPublisher
	codec    *security.SessionTokenCodec
	cfg      config.SessionSettings
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store port.SessionStore, activity port.ActivityLog, events port.EventPublisher, codec *security.SessionTokenCodec, cfg config.SessionSettings, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &SessionService{
		store:    store,
		activity: activity,
		events:   events,
		codec:    codec,
		cfg:      cfg,
		logger:   logger,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// TTLFor returns the session lifetime granted to the account tier. Remember-me
// extends the horizon for every tier; admin-tier accounts get a shorter base
// lifetime than regular users.
func (s *SessionService) TTLFor(accountType domain.AccountType, rememberMe bool) time.Duration {
	if accountType.IsAdminTier() {
		if rememberMe {
			return s.cfg.AdminRememberTTL
		}
		return s.cfg.AdminTTL
	}
	if rememberMe {
		return s.cfg.RegularRememberTTL
	}
	return s.cfg.RegularTTL
}

// Create establishes a new session for the account and returns it alongside
// the signed token handed to the client. Creating a session replaces nothing:
// concurrent logins for the same account coexist as independent sessions.
func (s *SessionService) Create(ctx context.Context, account domain.Account, rememberMe bool) (*domain.Session, string, error) {
	if strings.TrimSpace(account.ID) == "" {
		return nil, "", fmt.Errorf("account id is required")
	}

	now := s.now()
	ttl := s.TTLFor(account.Type, rememberMe)

	session := domain.Session{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		Email:       account.Email,
		AccountType: account.Type,
		RememberMe:  rememberMe,
		IssuedAt:    now,
		ExpiresAt:   now.Add(ttl),
	}

	if err := s.store.Save(ctx, session); err != nil {
		return nil, "", fmt.Errorf("save session: %w", err)
	}

	token, err := s.codec.Sign(session.ID, session.IssuedAt, session.ExpiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	s.recordActivity(ctx, "session_created", map[string]any{
		"session_id":  session.ID,
		"account_id":  session.AccountID,
		"remember_me": session.RememberMe,
	})

	if s.events != nil {
		event := domain.SessionCreatedEvent{
			EventID:    uuid.NewString(),
			SessionID:  session.ID,
			AccountID:  session.AccountID,
			RememberMe: session.RememberMe,
			CreatedAt:  session.IssuedAt,
			ExpiresAt:  session.ExpiresAt,
		}
		if err := s.events.PublishSessionCreated(ctx, event); err != nil {
			s.logger.Warn("publish session created failed", zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	return &session, token, nil
}

// Current returns the active session for the supplied ID. An expired session
// is purged on read and reported as absent, so a caller can never observe a
// stale login.
func (s *SessionService) Current(ctx context.Context, sessionID string) (*domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrSessionNotFound
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if !session.Active(s.now()) {
		s.expire(ctx, *session)
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// CurrentFromToken verifies the signed token and resolves its session. The
// token alone proves nothing: the server-held record is the source of truth,
// so a valid signature over a cleared session still yields no login.
func (s *SessionService) CurrentFromToken(ctx context.Context, token string) (*domain.Session, error) {
	sessionID, err := s.codec.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredSessionToken) {
			return nil, ErrSessionNotFound
		}
		return nil, ErrInvalidSessionToken
	}

	return s.Current(ctx, sessionID)
}

// Clear removes the session. Clearing an absent or already-cleared session
// succeeds silently.
func (s *SessionService) Clear(ctx context.Context, sessionID, reason string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}

	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get session: %w", err)
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if reason == "" {
		reason = "logout"
	}

	s.recordActivity(ctx, "session_cleared", map[string]any{
		"session_id": sessionID,
		"account_id": session.AccountID,
		"reason":     reason,
	})

	s.publishRevoked(ctx, *session, reason)

	return nil
}

// Extend pushes the session expiry forward by the supplied duration, clamped
// so the session never outlives the horizon a fresh login at this moment
// would be granted. Extending an expired session fails like any other read.
func (s *SessionService) Extend(ctx context.Context, sessionID string, by time.Duration) (*domain.Session, error) {
	if by <= 0 {
		return nil, fmt.Errorf("extension duration must be positive")
	}

	session, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fullTTL := s.TTLFor(session.AccountType, session.RememberMe)
	extended := session.ExpiresAt.Add(by)
	if horizon := now.Add(fullTTL); extended.After(horizon) {
		extended = horizon
	}

	session.ExpiresAt = extended
	if session.Remaining(now) > s.cfg.WarningWindow {
		session.Warned = false
	}

	if err := s.store.Save(ctx, *session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.recordActivity(ctx, "session_extended", map[string]any{
		"session_id": session.ID,
		"expires_at": session.ExpiresAt,
	})

	return session, nil
}

// RunMonitor sweeps the session store on a fixed interval until the context
// is cancelled. Each sweep force-clears expired sessions and emits a one-time
// expiry warning for sessions inside the warning band.
func (s *SessionService) RunMonitor(ctx context.Context) {
	interval := s.cfg.MonitorInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("session monitor started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session monitor stopped")
			return
		case <-ticker.C:
			expired, warned := s.Sweep(ctx)
			if expired > 0 || warned > 0 {
				s.logger.Info("session sweep",
					zap.Int("expired", expired),
					zap.Int("warned", warned),
				)
			}
		}
	}
}

// Sweep runs a single monitor pass and reports how many sessions were
// expired and warned.
func (s *SessionService) Sweep(ctx context.Context) (expired, warned int) {
	sessions, err := s.store.List(ctx)
	if err != nil {
		s.logger.Warn("list sessions for sweep failed", zap.Error(err))
		return 0, 0
	}

	now := s.now()
	for i := range sessions {
		session := sessions[i]

		if !session.Active(now) {
			s.expire(ctx, session)
			expired++
			continue
		}

		remaining := session.Remaining(now)
		if session.Warned || remaining > s.cfg.WarningWindow {
			continue
		}

		session.Warned = true
		if err := s.store.Save(ctx, session); err != nil {
			s.logger.Warn("persist warning flag failed", zap.String("session_id", session.ID), zap.Error(err))
			continue
		}

		if s.events != nil {
			event := domain.SessionExpiryWarningEvent{
				EventID:   uuid.NewString(),
				SessionID: session.ID,
				AccountID: session.AccountID,
				ExpiresAt: session.ExpiresAt,
				IssuedAt:  session.IssuedAt,
			}
			if err := s.events.PublishSessionExpiryWarning(ctx, event); err != nil {
				s.logger.Warn("publish expiry warning failed", zap.String("session_id", session.ID), zap.Error(err))
			}
		}
		warned++
	}

	return expired, warned
}

func (s *SessionService) expire(ctx context.Context, session domain.Session) {
	if err := s.store.Delete(ctx, session.ID); err != nil {
		s.logger.Warn("purge expired session failed", zap.String("session_id", session.ID), zap.Error(err))
		return
	}

	s.recordActivity(ctx, "session_expired", map[string]any{
		"session_id": session.ID,
		"account_id": session.AccountID,
	})

	s.publishRevoked(ctx, session, "expired")
}

func (s *SessionService) publishRevoked(ctx context.Context, session domain.Session, reason string) {
	if s.events == nil {
		return
	}

	event := domain.SessionRevokedEvent{
		EventID:   uuid.NewString(),
		SessionID: session.ID,
		AccountID: session.AccountID,
		Reason:    reason,
		RevokedAt: s.now(),
	}
	if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
		s.logger.Warn("publish session revoked failed", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (s *SessionService) recordActivity(ctx context.Context, action string, details map[string]any) {
	if s.activity == nil {
		return
	}

	entry := domain.ActivityLogEntry{
		Timestamp: s.now(),
		Action:    action,
		Details:   details,
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Warn("append activity log failed", zap.String("action", action), zap.Error(err))
	}
}
