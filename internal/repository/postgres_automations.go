package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresAutomationsRepository struct {
	db *sql.DB
}

func NewPostgresAutomationsRepository(db *sql.DB) *PostgresAutomationsRepository {
	return &PostgresAutomationsRepository{db: db}
}

var _ AutomationsRepository = (*PostgresAutomationsRepository)(nil)

const automationColumns = `
	automation_id::text,
	tenant_id::text,
	name,
	trigger,
	condition,
	action_type,
	action_config,
	enabled,
	created_at,
	updated_at`

func scanAutomation(row rowScanner) (*domain.Automation, error) {
	var a domain.Automation
	var cond, cfg []byte
	err := row.Scan(
		&a.AutomationID,
		&a.TenantID,
		&a.Name,
		&a.Trigger,
		&cond,
		&a.ActionType,
		&cfg,
		&a.Enabled,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(cond) > 0 {
		if err := json.Unmarshal(cond, &a.Condition); err != nil {
			return nil, fmt.Errorf("invalid condition for automation %s: %w", a.AutomationID, err)
		}
	}
	a.ActionConfig = jsonRaw(cfg)
	return &a, nil
}

func (r *PostgresAutomationsRepository) queryList(ctx context.Context, query string, args ...any) ([]*domain.Automation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	defer rows.Close()

	out := []*domain.Automation{}
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate automations: %w", err)
	}
	return out, nil
}

func (r *PostgresAutomationsRepository) ListAutomations(ctx context.Context, tenantID string) ([]*domain.Automation, error) {
	return r.queryList(ctx, `SELECT `+automationColumns+` FROM automations WHERE tenant_id = $1 ORDER BY name`, tenantID)
}

func (r *PostgresAutomationsRepository) ListEnabledByTrigger(ctx context.Context, tenantID, trigger string) ([]*domain.Automation, error) {
	return r.queryList(ctx, `SELECT `+automationColumns+` FROM automations
		WHERE tenant_id = $1 AND trigger = $2 AND enabled
		ORDER BY created_at`, tenantID, trigger)
}

func (r *PostgresAutomationsRepository) GetAutomation(ctx context.Context, tenantID, automationID string) (*domain.Automation, error) {
	a, err := scanAutomation(r.db.QueryRowContext(ctx,
		`SELECT `+automationColumns+` FROM automations WHERE tenant_id = $1 AND automation_id = $2`,
		tenantID, automationID))
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", notFound(err, "automation", automationID))
	}
	return a, nil
}

func conditionJSON(c domain.Condition) (any, error) {
	if c.Field == "" {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal condition: %w", err)
	}
	return string(b), nil
}

func (r *PostgresAutomationsRepository) CreateAutomation(ctx context.Context, a *domain.Automation) error {
	cond, err := conditionJSON(a.Condition)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO automations (tenant_id, name, trigger, condition, action_type, action_config, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING automation_id::text, created_at, updated_at`,
		a.TenantID, a.Name, a.Trigger, cond, a.ActionType, jsonOrNull(a.ActionConfig), a.Enabled,
	).Scan(&a.AutomationID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create automation: %w", err)
	}
	return nil
}

func (r *PostgresAutomationsRepository) UpdateAutomation(ctx context.Context, a *domain.Automation) error {
	cond, err := conditionJSON(a.Condition)
	if err != nil {
		return err
	}
	err = r.db.QueryRowContext(ctx, `
		UPDATE automations SET
			name = $3, trigger = $4, condition = $5, action_type = $6, action_config = $7, enabled = $8,
			updated_at = now()
		WHERE tenant_id = $1 AND automation_id = $2
		RETURNING updated_at`,
		a.TenantID, a.AutomationID,
		a.Name, a.Trigger, cond, a.ActionType, jsonOrNull(a.ActionConfig), a.Enabled,
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update automation: %w", notFound(err, "automation", a.AutomationID))
	}
	return nil
}

func (r *PostgresAutomationsRepository) DeleteAutomation(ctx context.Context, tenantID, automationID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM automations WHERE tenant_id = $1 AND automation_id = $2`, tenantID, automationID)
	if err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}
	return requireAffected(res, "automation", automationID)
}
