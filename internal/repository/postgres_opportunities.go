package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// PostgresOpportunitiesRepository 商机Repository实现
type PostgresOpportunitiesRepository struct {
	db *sql.DB
}

func NewPostgresOpportunitiesRepository(db *sql.DB) *PostgresOpportunitiesRepository {
	return &PostgresOpportunitiesRepository{db: db}
}

var _ OpportunitiesRepository = (*PostgresOpportunitiesRepository)(nil)

const opportunityColumns = `
	opportunity_id::text,
	tenant_id::text,
	contact_id::text,
	pipeline_id::text,
	stage,
	value,
	COALESCE(owner, ''),
	next_follow_up_date,
	created_at,
	updated_at,
	stage_changed_at`

func scanOpportunity(row rowScanner) (*domain.Opportunity, error) {
	var o domain.Opportunity
	var value sql.NullFloat64
	var followUp sql.NullTime
	err := row.Scan(
		&o.OpportunityID,
		&o.TenantID,
		&o.ContactID,
		&o.PipelineID,
		&o.Stage,
		&value,
		&o.Owner,
		&followUp,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.StageChangedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Value = floatPtr(value)
	o.NextFollowUpDate = timePtr(followUp)
	return &o, nil
}

func (r *PostgresOpportunitiesRepository) queryList(ctx context.Context, query string, args ...any) ([]*domain.Opportunity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	out := []*domain.Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate opportunities: %w", err)
	}
	return out, nil
}

func (r *PostgresOpportunitiesRepository) GetOpportunity(ctx context.Context, tenantID, opportunityID string) (*domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE tenant_id = $1 AND opportunity_id = $2`
	o, err := scanOpportunity(r.db.QueryRowContext(ctx, query, tenantID, opportunityID))
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity: %w", notFound(err, "opportunity", opportunityID))
	}
	return o, nil
}

func (r *PostgresOpportunitiesRepository) ListOpportunities(ctx context.Context, tenantID string, filter OpportunitiesFilter) ([]*domain.Opportunity, error) {
	w := newWhere("tenant_id = $1", tenantID)
	if filter.PipelineID != "" {
		w.add("pipeline_id = ?", filter.PipelineID)
	}
	if filter.ContactID != "" {
		w.add("contact_id = ?", filter.ContactID)
	}
	if filter.Stage != "" {
		w.add("stage = ?", filter.Stage)
	}
	if filter.Owner != "" {
		w.add("owner = ?", filter.Owner)
	}
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE ` + w.String() + ` ORDER BY stage_changed_at`
	return r.queryList(ctx, query, w.args...)
}

func (r *PostgresOpportunitiesRepository) ListByContact(ctx context.Context, tenantID, contactID string) ([]*domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities
		WHERE tenant_id = $1 AND contact_id = $2
		ORDER BY created_at DESC`
	return r.queryList(ctx, query, tenantID, contactID)
}

const insertOpportunitySQL = `
	INSERT INTO opportunities (
		tenant_id, contact_id, pipeline_id, stage, value, owner, next_follow_up_date
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING opportunity_id::text, created_at, updated_at, stage_changed_at`

func opportunityInsertArgs(o *domain.Opportunity) []any {
	return []any{
		o.TenantID,
		o.ContactID,
		o.PipelineID,
		o.Stage,
		nullFloat(o.Value),
		nullString(o.Owner),
		nullTime(o.NextFollowUpDate),
	}
}

func (r *PostgresOpportunitiesRepository) CreateOpportunity(ctx context.Context, o *domain.Opportunity) error {
	err := r.db.QueryRowContext(ctx, insertOpportunitySQL, opportunityInsertArgs(o)...).
		Scan(&o.OpportunityID, &o.CreatedAt, &o.UpdatedAt, &o.StageChangedAt)
	if err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}
	return nil
}

func (r *PostgresOpportunitiesRepository) UpdateStage(ctx context.Context, tenantID, opportunityID, stage string, at time.Time) (*domain.Opportunity, error) {
	query := `
		UPDATE opportunities SET stage = $3, updated_at = $4, stage_changed_at = $4
		WHERE tenant_id = $1 AND opportunity_id = $2
		RETURNING ` + opportunityColumns
	o, err := scanOpportunity(r.db.QueryRowContext(ctx, query, tenantID, opportunityID, stage, at))
	if err != nil {
		return nil, fmt.Errorf("failed to update opportunity stage: %w", notFound(err, "opportunity", opportunityID))
	}
	return o, nil
}

func (r *PostgresOpportunitiesRepository) UpdatePipelineAndStage(ctx context.Context, tenantID, opportunityID, pipelineID, stage string, at time.Time) (*domain.Opportunity, error) {
	query := `
		UPDATE opportunities SET pipeline_id = $3, stage = $4, updated_at = $5, stage_changed_at = $5
		WHERE tenant_id = $1 AND opportunity_id = $2
		RETURNING ` + opportunityColumns
	o, err := scanOpportunity(r.db.QueryRowContext(ctx, query, tenantID, opportunityID, pipelineID, stage, at))
	if err != nil {
		return nil, fmt.Errorf("failed to change opportunity pipeline: %w", notFound(err, "opportunity", opportunityID))
	}
	return o, nil
}

func (r *PostgresOpportunitiesRepository) UpdateOpportunity(ctx context.Context, o *domain.Opportunity) error {
	query := `
		UPDATE opportunities SET value = $3, owner = $4, next_follow_up_date = $5, updated_at = now()
		WHERE tenant_id = $1 AND opportunity_id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		o.TenantID, o.OpportunityID,
		nullFloat(o.Value), nullString(o.Owner), nullTime(o.NextFollowUpDate),
	).Scan(&o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update opportunity: %w", notFound(err, "opportunity", o.OpportunityID))
	}
	return nil
}

func (r *PostgresOpportunitiesRepository) DeleteOpportunity(ctx context.Context, tenantID, opportunityID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM opportunities WHERE tenant_id = $1 AND opportunity_id = $2`, tenantID, opportunityID)
	if err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	return requireAffected(res, "opportunity", opportunityID)
}

func (r *PostgresOpportunitiesRepository) ReplaceForContacts(ctx context.Context, tenantID string, contactIDs []string, opps []*domain.Opportunity) (int, error) {
	deleted := 0
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM opportunities WHERE tenant_id = $1 AND contact_id = ANY($2)`,
			tenantID, pq.Array(contactIDs))
		if err != nil {
			return fmt.Errorf("failed to delete existing opportunities: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		deleted = int(n)

		for _, o := range opps {
			o.TenantID = tenantID
			err := tx.QueryRowContext(ctx, insertOpportunitySQL, opportunityInsertArgs(o)...).
				Scan(&o.OpportunityID, &o.CreatedAt, &o.UpdatedAt, &o.StageChangedAt)
			if err != nil {
				return fmt.Errorf("failed to insert opportunity for contact %s: %w", o.ContactID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
