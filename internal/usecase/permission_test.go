package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

func TestPermissionResolver_RoleDefaults(t *testing.T) {
	resolver := NewPermissionResolver(nil)

	cases := []struct {
		role    domain.AccountType
		granted []string
		denied  []string
	}{
		{
			role:    domain.AccountTypeSuperAdmin,
			granted: []string{domain.PermissionUsers, domain.PermissionSettings, domain.PermissionAdminManagement},
		},
		{
			role:    domain.AccountTypeAdmin,
			granted: []string{domain.PermissionUsers, domain.PermissionOpportunities, domain.PermissionApplications, domain.PermissionAnalytics},
			denied:  []string{domain.PermissionSettings, domain.PermissionAdminManagement},
		},
		{
			role:    domain.AccountTypeModerator,
			granted: []string{domain.PermissionOpportunities, domain.PermissionApplications},
			denied:  []string{domain.PermissionUsers, domain.PermissionAnalytics},
		},
		{
			role:   domain.AccountTypeSeeker,
			denied: []string{domain.PermissionUsers, domain.PermissionOpportunities},
		},
		{
			role:   domain.AccountTypeProvider,
			denied: []string{domain.PermissionApplications},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			account := domain.Account{ID: "a", Type: tc.role, IsActive: true}
			for _, permission := range tc.granted {
				if !resolver.HasPermission(account, permission) {
					t.Errorf("expected %s granted to %s", permission, tc.role)
				}
			}
			for _, permission := range tc.denied {
				if resolver.HasPermission(account, permission) {
					t.Errorf("expected %s denied to %s", permission, tc.role)
				}
			}
		})
	}
}

func TestPermissionResolver_UnknownRoleFailsClosed(t *testing.T) {
	resolver := NewPermissionResolver(nil)
	account := domain.Account{ID: "a", Type: domain.AccountType("intern"), IsActive: true}

	if resolver.HasPermission(account, domain.PermissionUsers) {
		t.Fatal("expected unknown role to hold nothing")
	}
	if got := resolver.Permissions(account); len(got) != 0 {
		t.Fatalf("expected empty permission set, got %v", got)
	}
}

func TestPermissionResolver_OverrideReplacesRoleDefaults(t *testing.T) {
	resolver := NewPermissionResolver(nil)

	// A seeker granted an explicit override gains those permissions.
	promoted := domain.Account{
		ID:                 "a",
		Type:               domain.AccountTypeSeeker,
		PermissionOverride: []string{domain.PermissionOpportunities},
		IsActive:           true,
	}
	if !resolver.HasPermission(promoted, domain.PermissionOpportunities) {
		t.Fatal("expected override to grant opportunities")
	}

	// An admin with an empty (non-nil) override loses the role defaults.
	demoted := domain.Account{
		ID:                 "b",
		Type:               domain.AccountTypeAdmin,
		PermissionOverride: []string{},
		IsActive:           true,
	}
	if resolver.HasPermission(demoted, domain.PermissionUsers) {
		t.Fatal("expected empty override to revoke role defaults")
	}
}

func TestPermissionResolver_HasAnyHasAll(t *testing.T) {
	resolver := NewPermissionResolver(nil)
	moderator := domain.Account{ID: "a", Type: domain.AccountTypeModerator, IsActive: true}

	if !resolver.HasAny(moderator, domain.PermissionUsers, domain.PermissionOpportunities) {
		t.Fatal("expected HasAny to match on opportunities")
	}
	if resolver.HasAny(moderator, domain.PermissionUsers, domain.PermissionSettings) {
		t.Fatal("expected HasAny to reject unheld permissions")
	}
	// An empty any-query matches nothing.
	if resolver.HasAny(moderator) {
		t.Fatal("expected empty HasAny to be false")
	}

	if !resolver.HasAll(moderator, domain.PermissionOpportunities, domain.PermissionApplications) {
		t.Fatal("expected HasAll to pass for held set")
	}
	if resolver.HasAll(moderator, domain.PermissionOpportunities, domain.PermissionUsers) {
		t.Fatal("expected HasAll to fail on one missing permission")
	}
	// An empty all-query is vacuously satisfied.
	if !resolver.HasAll(moderator) {
		t.Fatal("expected empty HasAll to be true")
	}
}

func TestPermissionResolver_RequirePermission(t *testing.T) {
	admin := domain.Account{ID: "admin-1", Type: domain.AccountTypeAdmin, IsActive: true}
	inactive := domain.Account{ID: "admin-2", Type: domain.AccountTypeAdmin, IsActive: false}
	repo := newFakeAccountRepo(admin, inactive)
	resolver := NewPermissionResolver(repo)

	ctx := context.Background()

	if _, err := resolver.RequirePermission(ctx, "admin-1", domain.PermissionUsers); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}

	if _, err := resolver.RequirePermission(ctx, "admin-1", domain.PermissionAdminManagement); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// Deactivated accounts hold nothing regardless of role.
	if _, err := resolver.RequirePermission(ctx, "admin-2", domain.PermissionUsers); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for inactive account, got %v", err)
	}

	if _, err := resolver.RequirePermission(ctx, "missing", domain.PermissionUsers); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
