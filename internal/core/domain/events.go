package domain

import "time"

// AccountRegisteredEvent is published when a new account is created.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	AccountType  string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountLockedEvent is published when repeated login failures lock an email.
type AccountLockedEvent struct {
	EventID   string
	Email     string
	Attempts  int
	LockedAt  time.Time
	LockUntil time.Time
}

// SessionCreatedEvent is published on successful login.
type SessionCreatedEvent struct {
	EventID    string
	SessionID  string
	AccountID  string
	RememberMe bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SessionRevokedEvent is published when a session ends by logout or forced clearing.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	AccountID string
	Reason    string
	RevokedAt time.Time
}

// SessionExpiryWarningEvent is published once per session when its remaining
// lifetime falls inside the warning band.
type SessionExpiryWarningEvent struct {
	EventID   string
	SessionID string
	AccountID string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ApplicationSubmittedEvent is published when a seeker applies to an opportunity.
type ApplicationSubmittedEvent struct {
	EventID       string
	ApplicationID string
	OpportunityID string
	ApplicantID   string
	SubmittedAt   time.Time
}

// MessageSentEvent is published when a message lands in a conversation. It
// doubles as the cross-component change notification consumed by live UI
// components.
type MessageSentEvent struct {
	EventID        string
	MessageID      string
	ConversationID string
	SenderID       string
	SentAt         time.Time
}
