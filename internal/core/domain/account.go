package domain

import (
	"strings"
	"time"
)

// AccountType enumerates the account tiers known to the platform.
type AccountType string

const (
	AccountTypeSeeker     AccountType = "seeker"
	AccountTypeProvider   AccountType = "provider"
	AccountTypeAdmin      AccountType = "admin"
	AccountTypeModerator  AccountType = "moderator"
	AccountTypeSuperAdmin AccountType = "super_admin"
)

// IsAdminTier reports whether the account type belongs to the admin console.
func (t AccountType) IsAdminTier() bool {
	switch t {
	case AccountTypeAdmin, AccountTypeModerator, AccountTypeSuperAdmin:
		return true
	}
	return false
}

// Account mirrors the persisted representation in the accounts table.
// Email is stored lowercased; PasswordHash is an encoded argon2id value,
// never a cleartext secret.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Type         AccountType
	// PermissionOverride, when non-nil, replaces the role default
	// permission set for this account.
	PermissionOverride []string
	Verified           bool
	IsActive           bool
	CreatedAt          time.Time
	LastLogin          *time.Time
}

// FullName joins first and last name for display purposes.
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NormalizeEmail lowercases and trims an email for use as a lookup and
// lockout key. Attempts against unknown emails still accumulate under the
// normalized key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LockoutRecord tracks consecutive failed login attempts per email.
// A zero LockUntil means the email is not currently locked.
type LockoutRecord struct {
	Email         string
	Attempts      int
	FirstFailedAt time.Time
	LockUntil     time.Time
}

// Locked reports whether the record imposes a lock at the supplied moment.
func (r LockoutRecord) Locked(at time.Time) bool {
	return !r.LockUntil.IsZero() && r.LockUntil.After(at)
}
