package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladiom/kajopo-connect/internal/core/domain"
	"github.com/ladiom/kajopo-connect/internal/core/port"
)

var opportunityColumns = []string{
	"id",
	"title",
	"description",
	"category",
	"provider_id",
	"location",
	"remote",
	"status",
	"created_at",
	"updated_at",
}

// OpportunityRepository implements port.OpportunityRepository using PostgreSQL.
type OpportunityRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewOpportunityRepository wires a PostgreSQL-backed opportunity repository.
func NewOpportunityRepository(pool *pgxpool.Pool) *OpportunityRepository {
	return &OpportunityRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *OpportunityRepository) WithTx(tx pgx.Tx) *OpportunityRepository {
	if tx == nil {
		return r
	}
	return &OpportunityRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new opportunity row.
func (r *OpportunityRepository) Create(ctx context.Context, opp domain.Opportunity) error {
	stmt, args, err := r.builder.Insert("kajopo.opportunities").
		Columns(opportunityColumns...).
		Values(
			opp.ID,
			opp.Title,
			opp.Description,
			opp.Category,
			opp.ProviderID,
			opp.Location,
			opp.Remote,
			string(opp.Status),
			opp.CreatedAt,
			opp.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert opportunity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	return nil
}

// GetByID retrieves an opportunity by identifier.
func (r *OpportunityRepository) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	stmt, args, err := r.builder.
		Select(opportunityColumns...).
		From("kajopo.opportunities").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select opportunity sql: %w", err)
	}

	return scanOpportunity(r.exec.QueryRow(ctx, stmt, args...))
}

// Update overwrites an opportunity's mutable fields.
func (r *OpportunityRepository) Update(ctx context.Context, opp domain.Opportunity) error {
	stmt, args, err := r.builder.Update("kajopo.opportunities").
		Set("title", opp.Title).
		Set("description", opp.Description).
		Set("category", opp.Category).
		Set("location", opp.Location).
		Set("remote", opp.Remote).
		Set("status", string(opp.Status)).
		Set("updated_at", opp.UpdatedAt).
		Where(squirrel.Eq{"id": opp.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update opportunity sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return translateError(pgx.ErrNoRows)
	}

	return nil
}

// Delete removes an opportunity row.
func (r *OpportunityRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("kajopo.opportunities").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete opportunity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}

	return nil
}

// List returns opportunities matching the filter, newest first.
func (r *OpportunityRepository) List(ctx context.Context, filter port.OpportunityFilter) ([]domain.Opportunity, error) {
	query := r.builder.
		Select(opportunityColumns...).
		From("kajopo.opportunities").
		OrderBy("created_at DESC")

	query = applyOpportunityFilter(query, filter)
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list opportunities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, *opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}

	return opportunities, nil
}

// Count returns the number of opportunities matching the filter.
func (r *OpportunityRepository) Count(ctx context.Context, filter port.OpportunityFilter) (int, error) {
	query := r.builder.
		Select("COUNT(*)").
		From("kajopo.opportunities")

	query = applyOpportunityFilter(query, filter)

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count opportunities sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}

	return count, nil
}

func applyOpportunityFilter(query squirrel.SelectBuilder, filter port.OpportunityFilter) squirrel.SelectBuilder {
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.ProviderID != "" {
		query = query.Where(squirrel.Eq{"provider_id": filter.ProviderID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.Remote != nil {
		query = query.Where(squirrel.Eq{"remote": *filter.Remote})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"description": pattern},
		})
	}
	return query
}

func scanOpportunity(row pgx.Row) (*domain.Opportunity, error) {
	var opp domain.Opportunity

	if err := row.Scan(
		&opp.ID,
		&opp.Title,
		&opp.Description,
		&opp.Category,
		&opp.ProviderID,
		&opp.Location,
		&opp.Remote,
		&opp.Status,
		&opp.CreatedAt,
		&opp.UpdatedAt,
	); err != nil {
		if mapped := translateError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("scan opportunity: %w", err)
	}

	return &opp, nil
}
