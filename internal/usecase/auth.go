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
	"github.com/ladiom/kajopo-connect/internal/infra/logger"
	"github.com/ladiom/kajopo-connect/internal/infra/security"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the email is under a failed-attempt lock.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountDisabled indicates the account has been deactivated.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrStoreUnavailable indicates the credential store could not be reached;
	// callers must not treat this as a failed attempt.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// AccountLockedError carries the remaining lock time alongside ErrAccountLocked.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry in %s", e.Remaining.Round(time.Second))
}

func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// InvalidCredentialsError carries the remaining attempt budget alongside
// ErrInvalidCredentials.
type InvalidCredentialsError struct {
	AttemptsRemaining int
	NowLocked         bool
}

func (e *InvalidCredentialsError) Error() string { return "invalid credentials" }

func (e *InvalidCredentialsError) Unwrap() error { return ErrInvalidCredentials }

// LoginInput captures a login request.
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Account *domain.Account
	Session *domain.Session
	Token   string
}

// RegisterInput captures a self-service registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Type      domain.AccountType
}

// AuthService is the façade behind every login surface. It sequences the
// lockout check, credential verification, failure accounting and session
// creation so each caller observes the same state machine.
type AuthService struct {
	accounts  port.AccountRepository
	sessions  *SessionService
	lockout   *LockoutGuard
	activity  port.ActivityLog
	events    port.EventPublisher
	hasher    *security.PasswordHasher
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	accounts port.AccountRepository,
	sessions *SessionService,
	lockout *LockoutGuard,
	activity port.ActivityLog,
	events port.EventPublisher,
	hasher *security.PasswordHasher,
	validator *security.PasswordValidator,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	service := &AuthService{
		accounts:  accounts,
		sessions:  sessions,
		lockout:   lockout,
		activity:  activity,
		events:    events,
		hasher:    hasher,
		validator: validator,
		logger:    log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Login authenticates the email/password pair. The checks run in a fixed
// order: the lockout gate first, then credential verification, so a locked
// email is refused even with the correct password and a store outage never
// burns an attempt.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, &InvalidCredentialsError{AttemptsRemaining: s.lockout.AttemptsRemaining(LockoutStatus{})}
	}

	status, err := s.lockout.Status(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, ErrStoreUnavailable
		}
		return nil, fmt.Errorf("check lockout: %w", err)
	}
	if status.Locked {
		return nil, &AccountLockedError{Remaining: status.Remaining}
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, ErrStoreUnavailable
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("get account: %w", err)
		}
		return nil, s.failAttempt(ctx, email)
	}

	match, err := s.hasher.Verify(input.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !match {
		return nil, s.failAttempt(ctx, email)
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.lockout.ClearFailures(ctx, email); err != nil {
		s.logger.Warn("clear lockout failures failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		s.logger.Warn("update last login failed", zap.String("account_id", account.ID), zap.Error(err))
	}

	session, token, err := s.sessions.Create(ctx, *account, input.RememberMe)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.recordActivity(ctx, "login_succeeded", map[string]any{
		"account_id": account.ID,
		"email":      logger.MaskEmail(email),
	})

	return &LoginResult{Account: account, Session: session, Token: token}, nil
}

func (s *AuthService) failAttempt(ctx context.Context, email string) error {
	status, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		s.logger.Warn("record login failure failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		return &InvalidCredentialsError{}
	}

	if status.Locked {
		return &InvalidCredentialsError{NowLocked: true}
	}
	return &InvalidCredentialsError{AttemptsRemaining: s.lockout.AttemptsRemaining(status)}
}

// Register provisions a new seeker or provider account and signs it in.
// Admin-tier accounts are created through admin management, never through
// self-service signup. A session failure after the account is persisted does
// not undo the registration; the result then carries no token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("first and last name are required")
	}

	switch input.Type {
	case domain.AccountTypeSeeker, domain.AccountTypeProvider:
	default:
		return nil, fmt.Errorf("account type must be seeker or provider")
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, err
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, ErrStoreUnavailable
		}
		return nil, fmt.Errorf("lookup account by email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Type:         input.Type,
		IsActive:     true,
		CreatedAt:    s.now(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.recordActivity(ctx, "account_registered", map[string]any{
		"account_id":   account.ID,
		"email":        logger.MaskEmail(email),
		"account_type": string(account.Type),
	})

	if s.events != nil {
		event := domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    account.ID,
			Email:        account.Email,
			AccountType:  string(account.Type),
			RegisteredAt: account.CreatedAt,
		}
		if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
			s.logger.Warn("publish account registered failed", zap.String("account_id", account.ID), zap.Error(err))
		}
	}

	result := &LoginResult{Account: &account}

	session, token, err := s.sessions.Create(ctx, account, false)
	if err != nil {
		s.logger.Warn("create session after registration failed", zap.String("account_id", account.ID), zap.Error(err))
		return result, nil
	}
	result.Session = session
	result.Token = token

	return result, nil
}

// Logout clears the session behind the token. Logout never fails the caller:
// an invalid token or absent session is already the desired end state.
func (s *AuthService) Logout(ctx context.Context, token string) {
	session, err := s.sessions.CurrentFromToken(ctx, token)
	if err != nil {
		return
	}

	if err := s.sessions.Clear(ctx, session.ID, "logout"); err != nil {
		s.logger.Warn("clear session on logout failed", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (s *AuthService) recordActivity(ctx context.Context, action string, details map[string]any) {
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
