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
	"github.com/ladiom/kajopo-connect/internal/repository"
)

var (
	// ErrOpportunityNotFound indicates the listing does not exist.
	ErrOpportunityNotFound = errors.New("opportunity not found")
	// ErrApplicationNotFound indicates the application does not exist.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrAlreadyApplied indicates the seeker already applied to the listing.
	ErrAlreadyApplied = errors.New("already applied to this opportunity")
	// ErrOpportunityClosed indicates an application against a non-active listing.
	ErrOpportunityClosed = errors.New("opportunity is not accepting applications")
	// ErrNotOwner indicates an edit attempt by someone other than the owner.
	ErrNotOwner = errors.New("not the opportunity owner")
)

// CreateOpportunityInput captures a new listing.
type CreateOpportunityInput struct {
	Title       string
	Description string
	Category    string
	Location    string
	Remote      bool
	Draft       bool
}

// UpdateOpportunityInput captures a partial listing edit.
type UpdateOpportunityInput struct {
	Title       *string
	Description *string
	Category    *string
	Location    *string
	Remote      *bool
	Status      *domain.OpportunityStatus
}

// ListOpportunitiesResult includes listings and pagination metadata.
type ListOpportunitiesResult struct {
	Opportunities []domain.Opportunity
	Total         int
	Limit         int
	Offset        int
}

// OpportunityService manages listings and the applications against them.
type OpportunityService struct {
	opportunities port.OpportunityRepository
	applications  port.ApplicationRepository
	events        port.EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewOpportunityService constructs an OpportunityService.
func NewOpportunityService(opportunities port.OpportunityRepository, applications port.ApplicationRepository, events port.EventPublisher, log *zap.Logger) *OpportunityService {
	if log == nil {
		log = zap.NewNop()
	}
	service := &OpportunityService{
		opportunities: opportunities,
		applications:  applications,
		events:        events,
		logger:        log,
	}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the internal clock for deterministic tests.
func (s *OpportunityService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Create publishes a new listing owned by the provider.
func (s *OpportunityService) Create(ctx context.Context, providerID string, input CreateOpportunityInput) (*domain.Opportunity, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, fmt.Errorf("provider id is required")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	status := domain.OpportunityStatusActive
	if input.Draft {
		status = domain.OpportunityStatusDraft
	}

	now := s.now()
	opp := domain.Opportunity{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		ProviderID:  providerID,
		Location:    strings.TrimSpace(input.Location),
		Remote:      input.Remote,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.opportunities.Create(ctx, opp); err != nil {
		return nil, fmt.Errorf("create opportunity: %w", err)
	}

	return &opp, nil
}

// Get returns a listing by ID.
func (s *OpportunityService) Get(ctx context.Context, id string) (*domain.Opportunity, error) {
	opp, err := s.opportunities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return opp, nil
}

// Update edits a listing. Only the owning provider may edit; moderators go
// through the moderation surface instead.
func (s *OpportunityService) Update(ctx context.Context, actorID, id string, input UpdateOpportunityInput) (*domain.Opportunity, error) {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if opp.ProviderID != actorID {
		return nil, ErrNotOwner
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return nil, fmt.Errorf("title is required")
		}
		opp.Title = trimmed
	}
	if input.Description != nil {
		opp.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		opp.Category = strings.TrimSpace(*input.Category)
	}
	if input.Location != nil {
		opp.Location = strings.TrimSpace(*input.Location)
	}
	if input.Remote != nil {
		opp.Remote = *input.Remote
	}
	if input.Status != nil {
		switch *input.Status {
		case domain.OpportunityStatusActive, domain.OpportunityStatusClosed, domain.OpportunityStatusDraft:
			opp.Status = *input.Status
		default:
			return nil, fmt.Errorf("invalid status %q", *input.Status)
		}
	}

	opp.UpdatedAt = s.now()

	if err := s.opportunities.Update(ctx, *opp); err != nil {
		return nil, fmt.Errorf("update opportunity: %w", err)
	}

	return opp, nil
}

// Moderate changes a listing's status without an ownership check. Reserved
// for accounts holding the opportunities permission.
func (s *OpportunityService) Moderate(ctx context.Context, id string, status domain.OpportunityStatus) (*domain.Opportunity, error) {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	opp.Status = status
	opp.UpdatedAt = s.now()

	if err := s.opportunities.Update(ctx, *opp); err != nil {
		return nil, fmt.Errorf("update opportunity: %w", err)
	}

	return opp, nil
}

// Takedown removes a listing without an ownership check. Callers must gate
// it on the opportunities permission.
func (s *OpportunityService) Takedown(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.opportunities.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	return nil
}

// Delete removes a listing owned by the actor.
func (s *OpportunityService) Delete(ctx context.Context, actorID, id string) error {
	opp, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if opp.ProviderID != actorID {
		return ErrNotOwner
	}

	if err := s.opportunities.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	return nil
}

// List returns listings matching the filter with pagination metadata.
func (s *OpportunityService) List(ctx context.Context, filter port.OpportunityFilter) (*ListOpportunitiesResult, error) {
	opportunities, err := s.opportunities.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	total, err := s.opportunities.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count opportunities: %w", err)
	}

	return &ListOpportunitiesResult{
		Opportunities: opportunities,
		Total:         total,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}, nil
}

// Apply submits an application from the seeker to an active listing. A second
// application against the same listing is refused.
func (s *OpportunityService) Apply(ctx context.Context, applicantID, opportunityID, message string) (*domain.Application, error) {
	applicantID = strings.TrimSpace(applicantID)
	if applicantID == "" {
		return nil, fmt.Errorf("applicant id is required")
	}

	opp, err := s.Get(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp.Status != domain.OpportunityStatusActive {
		return nil, ErrOpportunityClosed
	}

	if existing, err := s.applications.GetByOpportunityAndApplicant(ctx, opportunityID, applicantID); err == nil && existing != nil {
		return nil, ErrAlreadyApplied
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup application: %w", err)
	}

	now := s.now()
	app := domain.Application{
		ID:            uuid.NewString(),
		OpportunityID: opportunityID,
		ApplicantID:   applicantID,
		Message:       strings.TrimSpace(message),
		Status:        domain.ApplicationStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.applications.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyApplied
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	if s.events != nil {
		event := domain.ApplicationSubmittedEvent{
			EventID:       uuid.NewString(),
			ApplicationID: app.ID,
			OpportunityID: app.OpportunityID,
			ApplicantID:   app.ApplicantID,
			SubmittedAt:   app.CreatedAt,
		}
		if err := s.events.PublishApplicationSubmitted(ctx, event); err != nil {
			s.logger.Warn("publish application submitted failed", zap.String("application_id", app.ID), zap.Error(err))
		}
	}

	return &app, nil
}

// Decide accepts or rejects an application. The actor must own the listing.
func (s *OpportunityService) Decide(ctx context.Context, actorID, applicationID string, status domain.ApplicationStatus) (*domain.Application, error) {
	switch status {
	case domain.ApplicationStatusAccepted, domain.ApplicationStatusRejected:
	default:
		return nil, fmt.Errorf("decision must be accepted or rejected")
	}

	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("get application: %w", err)
	}

	opp, err := s.Get(ctx, app.OpportunityID)
	if err != nil {
		return nil, err
	}
	if opp.ProviderID != actorID {
		return nil, ErrNotOwner
	}

	if err := s.applications.UpdateStatus(ctx, app.ID, status); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	app.Status = status
	app.UpdatedAt = s.now()
	return app, nil
}

// ApplicationsFor returns the applications submitted against a listing owned
// by the actor.
func (s *OpportunityService) ApplicationsFor(ctx context.Context, actorID, opportunityID string) ([]domain.Application, error) {
	opp, err := s.Get(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if opp.ProviderID != actorID {
		return nil, ErrNotOwner
	}

	apps, err := s.applications.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ApplicationsForOpportunity returns every application against a listing
// without an ownership check. Callers must gate it on the applications
// permission.
func (s *OpportunityService) ApplicationsForOpportunity(ctx context.Context, opportunityID string) ([]domain.Application, error) {
	if _, err := s.Get(ctx, opportunityID); err != nil {
		return nil, err
	}
	apps, err := s.applications.ListByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// MyApplications returns the seeker's own applications.
func (s *OpportunityService) MyApplications(ctx context.Context, applicantID string) ([]domain.Application, error) {
	apps, err := s.applications.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}
