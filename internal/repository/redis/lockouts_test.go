package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/repository"
)

func TestLockoutRepository_RoundTrip(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewLockoutRepository(client, "test:lockout", zaptest.NewLogger(t))
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := domain.LockoutRecord{
		Email:         "victim@example.com",
		Attempts:      5,
		FirstFailedAt: now.Add(-time.Minute),
		LockUntil:     now.Add(15 * time.Minute),
	}

	if err := repo.Save(ctx, record); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := repo.Get(ctx, "victim@example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", got.Attempts)
	}
	if !got.LockUntil.Equal(record.LockUntil) {
		t.Fatalf("expected lock until %s, got %s", record.LockUntil, got.LockUntil)
	}
	if !got.Locked(now) {
		t.Fatal("expected record locked at reference time")
	}
}

func TestLockoutRepository_MissingAndDelete(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewLockoutRepository(client, "test:lockout", zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := repo.Get(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "nobody@example.com"); err != nil {
		t.Fatalf("Delete of absent record returned error: %v", err)
	}
}

func TestLockoutRepository_UnreachableServerReportsUnavailable(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewLockoutRepository(client, "test:lockout", zaptest.NewLogger(t))
	mr.Close()

	if _, err := repo.Get(context.Background(), "victim@example.com"); !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := repo.Save(context.Background(), domain.LockoutRecord{Email: "victim@example.com", Attempts: 1}); !errors.Is(err, repository.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on save, got %v", err)
	}
}

func TestLockoutRepository_CorruptRecordPurged(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewLockoutRepository(client, "test:lockout", zaptest.NewLogger(t))

	mr.Set("test:lockout:bad@example.com", "][")

	if _, err := repo.Get(context.Background(), "bad@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("test:lockout:bad@example.com") {
		t.Fatal("expected corrupt record purged")
	}
}
