package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/infra/security"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

type authFixture struct {
	service  *AuthService
	accounts *fakeAccountRepo
	sessions *fakeSessionStore
	lockouts *fakeLockoutStore
	events   *fakePublisher
	activity *fakeActivityLog
	hasher   *security.PasswordHasher
}

func fastHasher() *security.PasswordHasher {
	return security.NewPasswordHasher(security.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func newAuthFixture(t *testing.T, at time.Time, accounts ...domain.Account) *authFixture {
	t.Helper()

	fixture := &authFixture{
		accounts: newFakeAccountRepo(accounts...),
		sessions: newFakeSessionStore(),
		lockouts: newFakeLockoutStore(),
		events:   &fakePublisher{},
		activity: &fakeActivityLog{},
		hasher:   fastHasher(),
	}

	log := zaptest.NewLogger(t)
	clock := func() time.Time { return at }

	codec, err := security.NewSessionTokenCodec("test-secret", "kajopo-test")
	if err != nil {
		t.Fatalf("create codec: %v", err)
	}

	sessionSvc := NewSessionService(fixture.sessions, fixture.activity, fixture.events, codec, testSessionSettings(), log)
	sessionSvc.WithClock(clock)

	guard := NewLockoutGuard(fixture.lockouts, fixture.activity, fixture.events, testLockoutSettings(), log)
	guard.WithClock(clock)

	fixture.service = NewAuthService(
		fixture.accounts,
		sessionSvc,
		guard,
		fixture.activity,
		fixture.events,
		fixture.hasher,
		security.DefaultPasswordValidator(),
		log,
	)
	fixture.service.WithClock(clock)

	return fixture
}

func (f *authFixture) seedAccount(t *testing.T, email, password string, accountType domain.AccountType, active bool) domain.Account {
	t.Helper()

	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	account := domain.Account{
		ID:           "acct-" + email,
		Email:        domain.NormalizeEmail(email),
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Type:         accountType,
		IsActive:     active,
	}
	if err := f.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func TestLogin_Success(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	account := fixture.seedAccount(t, "user@example.com", "Vq7#plateau-mint", domain.AccountTypeSeeker, true)

	result, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "User@Example.com",
		Password: "Vq7#plateau-mint",
	})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if result.Account.ID != account.ID {
		t.Fatalf("expected account %s, got %s", account.ID, result.Account.ID)
	}
	if result.Token == "" {
		t.Fatal("expected a session token")
	}
	if result.Session.AccountID != account.ID {
		t.Fatal("session not bound to the account")
	}

	stored, err := fixture.accounts.GetByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("reload account: %v", err)
	}
	if stored.LastLogin == nil {
		t.Fatal("expected last login recorded")
	}
}

func TestLogin_FailureBurnsAttemptAndLocks(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	fixture.seedAccount(t, "user@example.com", "Vq7#plateau-mint", domain.AccountTypeSeeker, true)

	ctx := context.Background()

	for i := 1; i < 5; i++ {
		_, err := fixture.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong"})
		var invalid *InvalidCredentialsError
		if !errors.As(err, &invalid) {
			t.Fatalf("attempt %d: expected InvalidCredentialsError, got %v", i, err)
		}
		if want := 5 - i; invalid.AttemptsRemaining != want {
			t.Fatalf("attempt %d: expected %d remaining, got %d", i, want, invalid.AttemptsRemaining)
		}
	}

	// The fifth failure engages the lock.
	_, err := fixture.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong"})
	var invalid *InvalidCredentialsError
	if !errors.As(err, &invalid) || !invalid.NowLocked {
		t.Fatalf("expected lock on fifth failure, got %v", err)
	}

	// While locked, even the correct password is refused.
	_, err = fixture.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "Vq7#plateau-mint"})
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected AccountLockedError, got %v", err)
	}
	if locked.Remaining <= 0 || locked.Remaining > 15*time.Minute {
		t.Fatalf("unexpected lock remaining %s", locked.Remaining)
	}
}

func TestLogin_UnknownEmailStillBurnsAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := fixture.service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}

	_, err := fixture.service.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLogin_StoreOutageDoesNotBurnAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	fixture.accounts.emailErr = repository.ErrUnavailable

	_, err := fixture.service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "whatever"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	if len(fixture.lockouts.records) != 0 {
		t.Fatal("expected no attempt recorded during an outage")
	}
}

func TestLogin_LockoutStoreOutageReportsUnavailable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	fixture.lockouts.getErr = repository.ErrUnavailable

	_, err := fixture.service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "whatever"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLogin_SuccessClearsFailureStreak(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	fixture.seedAccount(t, "user@example.com", "Vq7#plateau-mint", domain.AccountTypeSeeker, true)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := fixture.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}

	if _, err := fixture.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "Vq7#plateau-mint"}); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if _, ok := fixture.lockouts.records["user@example.com"]; ok {
		t.Fatal("expected failure streak cleared on success")
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	fixture.seedAccount(t, "user@example.com", "Vq7#plateau-mint", domain.AccountTypeSeeker, false)

	_, err := fixture.service.Login(context.Background(), LoginInput{Email: "user@example.com", Password: "Vq7#plateau-mint"})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)

	ctx := context.Background()
	result, err := fixture.service.Register(ctx, RegisterInput{
		Email:     "New.Seeker@Example.com",
		Password:  "Vq7#plateau-mint",
		FirstName: "Ada",
		LastName:  "Obi",
		Type:      domain.AccountTypeSeeker,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	account := result.Account
	if account.Email != "new.seeker@example.com" {
		t.Fatalf("expected normalized email, got %s", account.Email)
	}
	if !account.IsActive {
		t.Fatal("expected new account active")
	}
	if account.PasswordHash == "Vq7#plateau-mint" || account.PasswordHash == "" {
		t.Fatal("expected hashed password")
	}
	if fixture.events.countOf("account.registered") != 1 {
		t.Fatal("expected registration event")
	}
	if result.Token == "" || result.Session == nil {
		t.Fatal("expected registration to sign the account in")
	}
	if result.Session.AccountID != account.ID {
		t.Fatalf("session bound to %s, want %s", result.Session.AccountID, account.ID)
	}

	// Duplicate email, case-insensitively.
	_, err = fixture.service.Register(ctx, RegisterInput{
		Email:     "NEW.SEEKER@example.com",
		Password:  "Vq7#plateau-mint",
		FirstName: "Ada",
		LastName:  "Obi",
		Type:      domain.AccountTypeSeeker,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegister_RejectsAdminTierAndWeakPasswords(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)

	ctx := context.Background()

	if _, err := fixture.service.Register(ctx, RegisterInput{
		Email:     "boss@example.com",
		Password:  "Vq7#plateau-mint",
		FirstName: "Boss",
		LastName:  "Person",
		Type:      domain.AccountTypeAdmin,
	}); err == nil {
		t.Fatal("expected admin-tier self-registration to fail")
	}

	_, err := fixture.service.Register(ctx, RegisterInput{
		Email:     "weak@example.com",
		Password:  "password1",
		FirstName: "Weak",
		LastName:  "Password",
		Type:      domain.AccountTypeSeeker,
	})
	var verr *security.PasswordValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected PasswordValidationError, got %v", err)
	}
}

func TestLogout_BestEffort(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixture := newAuthFixture(t, now)
	fixture.seedAccount(t, "user@example.com", "Vq7#plateau-mint", domain.AccountTypeSeeker, true)

	ctx := context.Background()
	result, err := fixture.service.Login(ctx, LoginInput{Email: "user@example.com", Password: "Vq7#plateau-mint"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	fixture.service.Logout(ctx, result.Token)
	if _, ok := fixture.sessions.sessions[result.Session.ID]; ok {
		t.Fatal("expected session cleared on logout")
	}

	// Garbage tokens and repeat logouts are silently absorbed.
	fixture.service.Logout(ctx, result.Token)
	fixture.service.Logout(ctx, "not-a-token")
}
