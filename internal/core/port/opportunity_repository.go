package port

import (
	"context"
	"time"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// OpportunityFilter restricts opportunity listings.
type OpportunityFilter struct {
	Category   string
	ProviderID string
	Status     domain.OpportunityStatus
	Remote     *bool
	Search     string
	Limit      int
	Offset     int
}

// OpportunityRepository persists opportunity listings.
type OpportunityRepository interface {
	Create(ctx context.Context, opp domain.Opportunity) error
	GetByID(ctx context.Context, id string) (*domain.Opportunity, error)
	Update(ctx context.Context, opp domain.Opportunity) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter OpportunityFilter) ([]domain.Opportunity, error)
	Count(ctx context.Context, filter OpportunityFilter) (int, error)
}

// ApplicationRepository persists applications to opportunities.
type ApplicationRepository interface {
	Create(ctx context.Context, app domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	// GetByOpportunityAndApplicant enforces the one-application-per-pair rule.
	GetByOpportunityAndApplicant(ctx context.Context, opportunityID, applicantID string) (*domain.Application, error)
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) error
	ListByApplicant(ctx context.Context, applicantID string) ([]domain.Application, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Application, error)
	// DeleteOlderThan purges settled applications (accepted or rejected)
	// older than the cutoff; pending ones are never removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
