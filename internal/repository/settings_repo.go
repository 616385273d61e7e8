package repository

import (
	"context"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// SettingsRepository 租户配置（key -> JSONB）
type SettingsRepository interface {
	GetSettings(ctx context.Context, tenantID string) ([]*domain.Setting, error)
	GetSetting(ctx context.Context, tenantID, key string) (*domain.Setting, error)

	// PutSetting upsert
	PutSetting(ctx context.Context, s *domain.Setting) error
}
