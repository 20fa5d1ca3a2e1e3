package domain

import "time"

// Session is the server-held record behind a signed client session token.
// The client only ever sees the session ID wrapped in a signed token; the
// record here is the sole source of truth for "is anyone logged in".
type Session struct {
	ID          string
	AccountID   string
	Email       string
	AccountType AccountType
	RememberMe  bool
	IssuedAt    time.Time
	ExpiresAt   time.Time
	// Warned tracks whether the expiry warning for this session has
	// already been emitted, so the monitor fires it at most once.
	Warned bool
}

// Active reports whether the session has not yet expired at the supplied moment.
func (s Session) Active(at time.Time) bool {
	return s.ExpiresAt.After(at)
}

// Remaining returns the time left until expiry. Negative when already expired.
func (s Session) Remaining(at time.Time) time.Duration {
	return s.ExpiresAt.Sub(at)
}
