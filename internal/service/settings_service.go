package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

// SettingsService 租户级配置，value 为任意 JSON
type SettingsService struct {
	settings repository.SettingsRepository
	logger   *zap.Logger
}

func NewSettingsService(settings repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{settings: settings, logger: logger}
}

// GetSettings 返回 key -> value
func (s *SettingsService) GetSettings(ctx context.Context, tenantID string) (map[string]json.RawMessage, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.settings.GetSettings(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	out := make(map[string]json.RawMessage, len(list))
	for _, st := range list {
		out[st.Key] = st.Value
	}
	return out, nil
}

// PutSettings 批量 upsert；任一 value 不是合法 JSON 时整体拒绝
func (s *SettingsService) PutSettings(ctx context.Context, tenantID string, values map[string]json.RawMessage) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	for k, v := range values {
		if strings.TrimSpace(k) == "" {
			return invalid("setting key is required")
		}
		if !json.Valid(v) {
			return invalid("setting %q is not valid JSON", k)
		}
	}
	for k, v := range values {
		if err := s.settings.PutSetting(ctx, &domain.Setting{TenantID: tenantID, Key: strings.TrimSpace(k), Value: v}); err != nil {
			return err
		}
	}
	s.logger.Info("Settings updated", zap.String("tenant_id", tenantID), zap.Int("keys", len(values)))
	return nil
}
