package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
)

func newTestOpportunityService(t *testing.T, events *fakePublisher) (*OpportunityService, *fakeOpportunityRepo, *fakeApplicationRepo) {
	t.Helper()

	// A nil *fakePublisher must become a nil interface, not a typed nil,
	// so the service's own nil check applies.
	var publisher port.EventPublisher
	if events != nil {
		publisher = events
	}
	opportunities := newFakeOpportunityRepo()
	applications := newFakeApplicationRepo()
	service := NewOpportunityService(opportunities, applications, publisher, zaptest.NewLogger(t))
	service.WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	return service, opportunities, applications
}

func TestOpportunityLifecycle(t *testing.T) {
	service, _, _ := newTestOpportunityService(t, nil)
	ctx := context.Background()

	opp, err := service.Create(ctx, "provider-1", CreateOpportunityInput{
		Title:    "Community garden volunteers",
		Category: "environment",
		Location: "Lagos",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if opp.Status != domain.OpportunityStatusActive {
		t.Fatalf("expected active listing, got %s", opp.Status)
	}

	// Only the owner edits.
	if _, err := service.Update(ctx, "someone-else", opp.ID, UpdateOpportunityInput{}); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	title := "Community garden leads"
	updated, err := service.Update(ctx, "provider-1", opp.ID, UpdateOpportunityInput{Title: &title})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("expected updated title, got %s", updated.Title)
	}

	if err := service.Delete(ctx, "provider-1", opp.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := service.Get(ctx, opp.ID); !errors.Is(err, ErrOpportunityNotFound) {
		t.Fatalf("expected ErrOpportunityNotFound, got %v", err)
	}
}

func TestOpportunityCreate_DraftStaysUnlisted(t *testing.T) {
	service, _, _ := newTestOpportunityService(t, nil)
	ctx := context.Background()

	if _, err := service.Create(ctx, "provider-1", CreateOpportunityInput{Title: "Draft post", Draft: true}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := service.Create(ctx, "provider-1", CreateOpportunityInput{Title: "Live post"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	result, err := service.List(ctx, port.OpportunityFilter{Status: domain.OpportunityStatusActive})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected one active listing, got %d", result.Total)
	}
}

func TestApply(t *testing.T) {
	events := &fakePublisher{}
	service, _, _ := newTestOpportunityService(t, events)
	ctx := context.Background()

	opp, err := service.Create(ctx, "provider-1", CreateOpportunityInput{Title: "Tutoring"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	app, err := service.Apply(ctx, "seeker-1", opp.ID, "I'd love to help")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if app.Status != domain.ApplicationStatusPending {
		t.Fatalf("expected pending application, got %s", app.Status)
	}
	if events.countOf("application.submitted") != 1 {
		t.Fatal("expected submission event")
	}

	// One application per seeker per listing.
	if _, err := service.Apply(ctx, "seeker-1", opp.ID, "again"); !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}

	// A closed listing accepts no applications.
	if _, err := service.Moderate(ctx, opp.ID, domain.OpportunityStatusClosed); err != nil {
		t.Fatalf("Moderate returned error: %v", err)
	}
	if _, err := service.Apply(ctx, "seeker-2", opp.ID, "too late"); !errors.Is(err, ErrOpportunityClosed) {
		t.Fatalf("expected ErrOpportunityClosed, got %v", err)
	}
}

func TestDecide(t *testing.T) {
	service, _, _ := newTestOpportunityService(t, &fakePublisher{})
	ctx := context.Background()

	opp, err := service.Create(ctx, "provider-1", CreateOpportunityInput{Title: "Cleanup drive"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	app, err := service.Apply(ctx, "seeker-1", opp.ID, "")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	// Only the listing owner decides.
	if _, err := service.Decide(ctx, "seeker-1", app.ID, domain.ApplicationStatusAccepted); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	decided, err := service.Decide(ctx, "provider-1", app.ID, domain.ApplicationStatusAccepted)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if decided.Status != domain.ApplicationStatusAccepted {
		t.Fatalf("expected accepted, got %s", decided.Status)
	}

	// Only accept/reject are valid decisions.
	if _, err := service.Decide(ctx, "provider-1", app.ID, domain.ApplicationStatusPending); err == nil {
		t.Fatal("expected invalid decision to fail")
	}
}

func TestApplicationsVisibility(t *testing.T) {
	service, _, _ := newTestOpportunityService(t, &fakePublisher{})
	ctx := context.Background()

	opp, err := service.Create(ctx, "provider-1", CreateOpportunityInput{Title: "Food bank shifts"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := service.Apply(ctx, "seeker-1", opp.ID, ""); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	apps, err := service.ApplicationsFor(ctx, "provider-1", opp.ID)
	if err != nil {
		t.Fatalf("ApplicationsFor returned error: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("expected one application, got %d", len(apps))
	}

	if _, err := service.ApplicationsFor(ctx, "provider-2", opp.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	mine, err := service.MyApplications(ctx, "seeker-1")
	if err != nil {
		t.Fatalf("MyApplications returned error: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expected one application, got %d", len(mine))
	}
}
