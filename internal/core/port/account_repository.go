package port

import (
	"context"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

// AccountFilter restricts account listings.
type AccountFilter struct {
	Type     domain.AccountType
	IsActive *bool
	Limit    int
	Offset   int
}

// AccountRepository persists account records.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByEmail looks an account up by its normalized (lowercased) email.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, account domain.Account) error
	UpdateLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	Count(ctx context.Context, filter AccountFilter) (int, error)
}
