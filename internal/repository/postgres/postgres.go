package postgres

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladiom/kajopo-connect/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	uniqueViolationCode = "23505"
	// SQLSTATE class 08 covers connection exceptions.
	connectionExceptionClass = "08"
)

// translateError maps driver-level failures onto repository sentinels so
// callers never depend on pgx types. Connectivity failures surface as
// repository.ErrUnavailable so the usecase layer can answer with a retry
// hint instead of a generic failure.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == uniqueViolationCode:
			return repository.ErrConflict
		case strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return repository.ErrUnavailable
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return repository.ErrUnavailable
	}
	return err
}

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Accounts      *AccountRepository
	Opportunities *OpportunityRepository
	Applications  *ApplicationRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Accounts:      NewAccountRepository(pool),
		Opportunities: NewOpportunityRepository(pool),
		Applications:  NewApplicationRepository(pool),
		Conversations: NewConversationRepository(pool),
		Messages:      NewMessageRepository(pool),
	}
}
