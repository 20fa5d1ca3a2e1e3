package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

var (
	// ErrPermissionDenied indicates the account lacks a required permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// PermissionResolver answers permission questions for accounts. Resolution is
// role-driven: the account type maps to a fixed permission set unless a
// per-account override replaces it. Unknown roles resolve to no permissions.
type PermissionResolver struct {
	accounts port.AccountRepository
}

// NewPermissionResolver constructs a PermissionResolver.
func NewPermissionResolver(accounts port.AccountRepository) *PermissionResolver {
	return &PermissionResolver{accounts: accounts}
}

// Permissions returns the effective permission set for the account.
func (r *PermissionResolver) Permissions(account domain.Account) []string {
	return domain.EffectivePermissions(account)
}

// HasPermission reports whether the account holds the named permission.
func (r *PermissionResolver) HasPermission(account domain.Account, permission string) bool {
	permission = strings.TrimSpace(permission)
	if permission == "" {
		return false
	}

	for _, granted := range domain.EffectivePermissions(account) {
		if granted == permission {
			return true
		}
	}
	return false
}

// HasAny reports whether the account holds at least one of the named
// permissions. An empty query matches nothing.
func (r *PermissionResolver) HasAny(account domain.Account, permissions ...string) bool {
	for _, permission := range permissions {
		if r.HasPermission(account, permission) {
			return true
		}
	}
	return false
}

// HasAll reports whether the account holds every named permission. An empty
// query is vacuously satisfied.
func (r *PermissionResolver) HasAll(account domain.Account, permissions ...string) bool {
	for _, permission := range permissions {
		if !r.HasPermission(account, permission) {
			return false
		}
	}
	return true
}

// ResolveAccount loads the account and returns it with its effective
// permission set, for callers that only hold an account ID.
func (r *PermissionResolver) ResolveAccount(ctx context.Context, accountID string) (*domain.Account, []string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, nil, fmt.Errorf("account id is required")
	}

	account, err := r.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("get account: %w", err)
	}

	return account, domain.EffectivePermissions(*account), nil
}

// RequirePermission loads the account and fails with ErrPermissionDenied
// unless it holds the named permission. Inactive accounts hold nothing.
func (r *PermissionResolver) RequirePermission(ctx context.Context, accountID, permission string) (*domain.Account, error) {
	account, _, err := r.ResolveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, ErrPermissionDenied
	}
	if !r.HasPermission(*account, permission) {
		return nil, ErrPermissionDenied
	}

	return account, nil
}
