package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
	"github.com/ladiom/kajopo-connect/internal/infra/security"
)

func newTestAccountService(t *testing.T, accounts ...domain.Account) (*AccountService, *fakeAccountRepo, *fakeActivityLog) {
	t.Helper()

	repo := newFakeAccountRepo(accounts...)
	activity := &fakeActivityLog{}
	service := NewAccountService(repo, NewPermissionResolver(repo), activity, fastHasher(), security.DefaultPasswordValidator(), zaptest.NewLogger(t))
	service.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	return service, repo, activity
}

func adminAccount(id string, accountType domain.AccountType) domain.Account {
	return domain.Account{
		ID:       id,
		Email:    id + "@example.com",
		Type:     accountType,
		IsActive: true,
	}
}

func TestAccountList_RequiresUsersPermission(t *testing.T) {
	admin := adminAccount("admin-1", domain.AccountTypeAdmin)
	moderator := adminAccount("mod-1", domain.AccountTypeModerator)
	seeker := adminAccount("seeker-1", domain.AccountTypeSeeker)
	service, _, _ := newTestAccountService(t, admin, moderator, seeker)

	ctx := context.Background()

	result, err := service.List(ctx, "admin-1", port.AccountFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("expected three accounts, got %d", result.Total)
	}

	// Moderators hold no users permission.
	if _, err := service.List(ctx, "mod-1", port.AccountFilter{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSetActive(t *testing.T) {
	admin := adminAccount("admin-1", domain.AccountTypeAdmin)
	seeker := adminAccount("seeker-1", domain.AccountTypeSeeker)
	service, repo, activity := newTestAccountService(t, admin, seeker)

	ctx := context.Background()

	account, err := service.SetActive(ctx, "admin-1", "seeker-1", false)
	if err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}
	if account.IsActive {
		t.Fatal("expected account deactivated")
	}

	stored, _ := repo.GetByID(ctx, "seeker-1")
	if stored.IsActive {
		t.Fatal("expected deactivation persisted")
	}

	found := false
	for _, action := range activity.actions() {
		if action == "account_deactivated" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected audit entry for deactivation")
	}

	// Admins cannot deactivate themselves.
	if _, err := service.SetActive(ctx, "admin-1", "admin-1", false); !errors.Is(err, ErrSelfDeactivation) {
		t.Fatalf("expected ErrSelfDeactivation, got %v", err)
	}
}

func TestSetPermissionOverride(t *testing.T) {
	super := adminAccount("super-1", domain.AccountTypeSuperAdmin)
	admin := adminAccount("admin-1", domain.AccountTypeAdmin)
	moderator := adminAccount("mod-1", domain.AccountTypeModerator)
	service, repo, _ := newTestAccountService(t, super, admin, moderator)

	ctx := context.Background()

	// Plain admins lack admin_management.
	if _, err := service.SetPermissionOverride(ctx, "admin-1", "mod-1", []string{domain.PermissionUsers}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	updated, err := service.SetPermissionOverride(ctx, "super-1", "mod-1", []string{domain.PermissionUsers})
	if err != nil {
		t.Fatalf("SetPermissionOverride returned error: %v", err)
	}

	resolver := NewPermissionResolver(repo)
	if !resolver.HasPermission(*updated, domain.PermissionUsers) {
		t.Fatal("expected override to grant users permission")
	}
	if resolver.HasPermission(*updated, domain.PermissionOpportunities) {
		t.Fatal("expected override to replace role defaults entirely")
	}

	// A nil override restores role defaults.
	restored, err := service.SetPermissionOverride(ctx, "super-1", "mod-1", nil)
	if err != nil {
		t.Fatalf("SetPermissionOverride returned error: %v", err)
	}
	if !resolver.HasPermission(*restored, domain.PermissionOpportunities) {
		t.Fatal("expected role defaults restored")
	}
}

func TestCreateAdmin(t *testing.T) {
	super := adminAccount("super-1", domain.AccountTypeSuperAdmin)
	admin := adminAccount("admin-1", domain.AccountTypeAdmin)
	service, _, _ := newTestAccountService(t, super, admin)

	ctx := context.Background()

	created, err := service.CreateAdmin(ctx, "super-1", CreateAdminInput{
		Email:     "New.Mod@example.com",
		Password:  "Vq7#plateau-mint",
		FirstName: "New",
		LastName:  "Moderator",
		Type:      domain.AccountTypeModerator,
	})
	if err != nil {
		t.Fatalf("CreateAdmin returned error: %v", err)
	}
	if created.Email != "new.mod@example.com" {
		t.Fatalf("expected normalized email, got %s", created.Email)
	}
	if !created.Verified || !created.IsActive {
		t.Fatal("expected provisioned admin verified and active")
	}

	// Plain admins cannot provision admin accounts.
	if _, err := service.CreateAdmin(ctx, "admin-1", CreateAdminInput{
		Email:     "other@example.com",
		Password:  "Vq7#plateau-mint",
		FirstName: "Other",
		LastName:  "Admin",
		Type:      domain.AccountTypeModerator,
	}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// Seeker accounts go through self-service registration instead.
	if _, err := service.CreateAdmin(ctx, "super-1", CreateAdminInput{
		Email:     "seeker@example.com",
		Password:  "Vq7#plateau-mint",
		FirstName: "Not",
		LastName:  "Admin",
		Type:      domain.AccountTypeSeeker,
	}); err == nil {
		t.Fatal("expected non-admin tier to be rejected")
	}
}

func TestRecentActivity(t *testing.T) {
	admin := adminAccount("admin-1", domain.AccountTypeAdmin)
	moderator := adminAccount("mod-1", domain.AccountTypeModerator)
	service, _, activity := newTestAccountService(t, admin, moderator)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = activity.Append(ctx, domain.ActivityLogEntry{Action: "login_succeeded"})
	}

	entries, err := service.RecentActivity(ctx, "admin-1", 10)
	if err != nil {
		t.Fatalf("RecentActivity returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected three entries, got %d", len(entries))
	}

	// Moderators hold no analytics permission.
	if _, err := service.RecentActivity(ctx, "mod-1", 10); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}
