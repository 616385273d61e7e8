package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

var _ SettingsRepository = (*PostgresSettingsRepository)(nil)

func (r *PostgresSettingsRepository) GetSettings(ctx context.Context, tenantID string) ([]*domain.Setting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tenant_id::text, key, value, updated_at
		FROM settings
		WHERE tenant_id = $1
		ORDER BY key`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	out := []*domain.Setting{}
	for rows.Next() {
		var s domain.Setting
		var raw []byte
		if err := rows.Scan(&s.TenantID, &s.Key, &raw, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		s.Value = jsonRaw(raw)
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settings: %w", err)
	}
	return out, nil
}

func (r *PostgresSettingsRepository) GetSetting(ctx context.Context, tenantID, key string) (*domain.Setting, error) {
	var s domain.Setting
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT tenant_id::text, key, value, updated_at
		FROM settings
		WHERE tenant_id = $1 AND key = $2`, tenantID, key).
		Scan(&s.TenantID, &s.Key, &raw, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", notFound(err, "setting", key))
	}
	s.Value = jsonRaw(raw)
	return &s, nil
}

func (r *PostgresSettingsRepository) PutSetting(ctx context.Context, s *domain.Setting) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO settings (tenant_id, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (tenant_id, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`, s.TenantID, s.Key, string(s.Value)).Scan(&s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to put setting: %w", err)
	}
	return nil
}
