package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresActivitiesRepository struct {
	db *sql.DB
}

func NewPostgresActivitiesRepository(db *sql.DB) *PostgresActivitiesRepository {
	return &PostgresActivitiesRepository{db: db}
}

var _ ActivitiesRepository = (*PostgresActivitiesRepository)(nil)

func (r *PostgresActivitiesRepository) ListByContact(ctx context.Context, tenantID, contactID string) ([]*domain.Activity, error) {
	query := `
		SELECT
			activity_id::text,
			tenant_id::text,
			contact_id::text,
			COALESCE(opportunity_id::text, ''),
			outcome,
			channel,
			COALESCE(notes, ''),
			logged_at
		FROM activities
		WHERE tenant_id = $1 AND contact_id = $2
		ORDER BY logged_at DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	out := []*domain.Activity{}
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ActivityID, &a.TenantID, &a.ContactID, &a.OpportunityID, &a.Outcome, &a.Channel, &a.Notes, &a.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return out, nil
}

func (r *PostgresActivitiesRepository) LogActivity(ctx context.Context, a *domain.Activity) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO activities (tenant_id, contact_id, opportunity_id, outcome, channel, notes, logged_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING activity_id::text`
		err := tx.QueryRowContext(ctx, query,
			a.TenantID, a.ContactID, nullString(a.OpportunityID),
			a.Outcome, a.Channel, nullString(a.Notes), a.LoggedAt,
		).Scan(&a.ActivityID)
		if err != nil {
			return fmt.Errorf("failed to insert activity: %w", err)
		}

		res, err := tx.ExecContext(ctx, touchContactSQL, a.TenantID, a.ContactID, a.LoggedAt)
		if err != nil {
			return fmt.Errorf("failed to touch contact: %w", err)
		}
		return requireAffected(res, "contact", a.ContactID)
	})
}
