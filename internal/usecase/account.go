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

// ErrSelfDeactivation indicates an admin tried to deactivate themselves.
var ErrSelfDeactivation = errors.New("cannot deactivate own account")

// CreateAdminInput captures the provisioning of an admin-tier account.
type CreateAdminInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Type      domain.AccountType
}

// ListAccountsResult includes accounts and pagination metadata.
type ListAccountsResult struct {
	Accounts []domain.Account
	Total    int
	Limit    int
	Offset   int
}

// AccountService covers the admin console's account management surface:
// listing, activation toggles, permission overrides and admin provisioning.
// Every operation is gated on the caller's resolved permissions.
type AccountService struct {
	accounts  port.AccountRepository
	resolver  *PermissionResolver
	activity  port.ActivityLog
	hasher    *security.PasswordHasher
	validator *security.PasswordValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccountService constructs an AccountService.
func NewAccountService(accounts port.AccountRepository, resolver *PermissionResolver, activity port.ActivityLog, hasher *security.PasswordHasher, validator *security.PasswordValidator, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	service := &AccountService{
		accounts:  accounts,
		resolver:  resolver,
		activity:  activity,
		hasher:    hasher,
		validator: validator,
		logger:    log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *AccountService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// List returns accounts matching the filter. Requires the users permission.
func (s *AccountService) List(ctx context.Context, actorID string, filter port.AccountFilter) (*ListAccountsResult, error) {
	if _, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionUsers); err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	total, err := s.accounts.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}

	return &ListAccountsResult{
		Accounts: accounts,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// Get returns a single account. Requires the users permission.
func (s *AccountService) Get(ctx context.Context, actorID, accountID string) (*domain.Account, error) {
	if _, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionUsers); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// SetActive toggles an account's active flag. Requires the users permission;
// admins cannot deactivate their own account.
func (s *AccountService) SetActive(ctx context.Context, actorID, accountID string, active bool) (*domain.Account, error) {
	actor, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionUsers)
	if err != nil {
		return nil, err
	}

	if !active && actor.ID == accountID {
		return nil, ErrSelfDeactivation
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	account.IsActive = active
	if err := s.accounts.Update(ctx, *account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	action := "account_deactivated"
	if active {
		action = "account_activated"
	}
	s.recordActivity(ctx, action, map[string]any{
		"account_id": account.ID,
		"actor_id":   actor.ID,
	})

	return account, nil
}

// Delete removes an account entirely. Requires the users permission; admins
// cannot delete their own account.
func (s *AccountService) Delete(ctx context.Context, actorID, accountID string) error {
	actor, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionUsers)
	if err != nil {
		return err
	}

	if actor.ID == accountID {
		return ErrSelfDeactivation
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("get account: %w", err)
	}

	if err := s.accounts.Delete(ctx, account.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.recordActivity(ctx, "account_deleted", map[string]any{
		"account_id": account.ID,
		"actor_id":   actor.ID,
	})

	return nil
}

// SetPermissionOverride replaces the account's role-derived permissions with
// an explicit list. A nil override restores role defaults. Requires the
// admin_management permission.
func (s *AccountService) SetPermissionOverride(ctx context.Context, actorID, accountID string, override []string) (*domain.Account, error) {
	actor, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionAdminManagement)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	account.PermissionOverride = override
	if err := s.accounts.Update(ctx, *account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	s.recordActivity(ctx, "permissions_overridden", map[string]any{
		"account_id": account.ID,
		"actor_id":   actor.ID,
		"override":   override,
	})

	return account, nil
}

// CreateAdmin provisions an admin-tier account. Requires the
// admin_management permission.
func (s *AccountService) CreateAdmin(ctx context.Context, actorID string, input CreateAdminInput) (*domain.Account, error) {
	actor, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionAdminManagement)
	if err != nil {
		return nil, err
	}

	if !input.Type.IsAdminTier() {
		return nil, fmt.Errorf("account type must be admin tier")
	}

	email := domain.NormalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, err
	}

	if existing, err := s.accounts.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
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
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Type:         input.Type,
		Verified:     true,
		IsActive:     true,
		CreatedAt:    s.now(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.recordActivity(ctx, "admin_created", map[string]any{
		"account_id":   account.ID,
		"account_type": string(account.Type),
		"actor_id":     actor.ID,
		"email":        logger.MaskEmail(email),
	})

	return &account, nil
}

// RecentActivity returns the newest audit entries. Requires the analytics
// permission.
func (s *AccountService) RecentActivity(ctx context.Context, actorID string, limit int) ([]domain.ActivityLogEntry, error) {
	if _, err := s.resolver.RequirePermission(ctx, actorID, domain.PermissionAnalytics); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > domain.ActivityLogCap {
		limit = domain.ActivityLogCap
	}

	entries, err := s.activity.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}
	return entries, nil
}

func (s *AccountService) recordActivity(ctx context.Context, action string, details map[string]any) {
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
