package domain

import "time"

// OpportunityStatus enumerates the lifecycle states of a listing.
type OpportunityStatus string

const (
	OpportunityStatusActive OpportunityStatus = "active"
	OpportunityStatusClosed OpportunityStatus = "closed"
	OpportunityStatusDraft  OpportunityStatus = "draft"
)

// Opportunity is a listing created by a provider account.
type Opportunity struct {
	ID          string
	Title       string
	Description string
	Category    string
	ProviderID  string
	Location    string
	Remote      bool
	Status      OpportunityStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationStatus enumerates the decision states of an application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Application links a seeker to an opportunity. At most one application may
// exist per (opportunity, applicant) pair.
type Application struct {
	ID            string
	OpportunityID string
	ApplicantID   string
	Message       string
	Status        ApplicationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
