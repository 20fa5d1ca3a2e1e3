package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
)

var applicationColumns = []string{
	"id",
	"opportunity_id",
	"applicant_id",
	"message",
	"status",
	"created_at",
	"updated_at",
}

// ApplicationRepository implements port.ApplicationRepository using PostgreSQL.
// The (opportunity_id, applicant_id) pair carries a unique constraint, so a
// second application from the same account surfaces as repository.ErrConflict.
type ApplicationRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewApplicationRepository wires a PostgreSQL-backed application repository.
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *ApplicationRepository) WithTx(tx pgx.Tx) *ApplicationRepository {
	if tx == nil {
		return r
	}
	return &ApplicationRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new application row.
func (r *ApplicationRepository) Create(ctx context.Context, app domain.Application) error {
	stmt, args, err := r.builder.Insert("kajopo.applications").
		Columns(applicationColumns...).
		Values(
			app.ID,
			app.OpportunityID,
			app.ApplicantID,
			app.Message,
			string(app.Status),
			app.CreatedAt,
			app.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert application sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if mapped := translateError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert application: %w", err)
	}

	return nil
}

// GetByID retrieves an application by identifier.
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	stmt, args, err := r.builder.
		Select(applicationColumns...).
		From("kajopo.applications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select application sql: %w", err)
	}

	return scanApplication(r.exec.QueryRow(ctx, stmt, args...))
}

// GetByOpportunityAndApplicant retrieves the single application an account
// may hold against an opportunity.
func (r *ApplicationRepository) GetByOpportunityAndApplicant(ctx context.Context, opportunityID, applicantID string) (*domain.Application, error) {
	stmt, args, err := r.builder.
		Select(applicationColumns...).
		From("kajopo.applications").
		Where(squirrel.Eq{
			"opportunity_id": opportunityID,
			"applicant_id":   applicantID,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select application by pair sql: %w", err)
	}

	return scanApplication(r.exec.QueryRow(ctx, stmt, args...))
}

// UpdateStatus records the provider's decision on an application.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus) error {
	stmt, args, err := r.builder.Update("kajopo.applications").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update application status sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows)
	}

	return nil
}

// ListByApplicant returns the account's applications, newest first.
func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID string) ([]domain.Application, error) {
	return r.list(ctx, squirrel.Eq{"applicant_id": applicantID})
}

// ListByOpportunity returns applications against an opportunity, newest first.
func (r *ApplicationRepository) ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Application, error) {
	return r.list(ctx, squirrel.Eq{"opportunity_id": opportunityID})
}

func (r *ApplicationRepository) list(ctx context.Context, where squirrel.Eq) ([]domain.Application, error) {
	stmt, args, err := r.builder.
		Select(applicationColumns...).
		From("kajopo.applications").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list applications sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var applications []domain.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		applications = append(applications, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}

	return applications, nil
}

// DeleteOlderThan purges settled applications created before the cutoff and
// returns the number of rows removed. Pending applications are kept however
// old they are; they still await a provider decision.
func (r *ApplicationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	stmt, args, err := r.builder.Delete("kajopo.applications").
		Where(squirrel.Lt{"created_at": cutoff}).
		Where(squirrel.Eq{"status": []string{
			string(domain.ApplicationStatusAccepted),
			string(domain.ApplicationStatusRejected),
		}}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge applications sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("purge applications: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var app domain.Application

	if err := row.Scan(
		&app.ID,
		&app.OpportunityID,
		&app.ApplicantID,
		&app.Message,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		if mapped := translateError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	return &app, nil
}
