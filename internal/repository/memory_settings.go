package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemorySettingsRepo struct {
	t *memTable[domain.Setting]
}

func NewMemorySettingsRepo() *MemorySettingsRepo {
	return &MemorySettingsRepo{t: newMemTable[domain.Setting]()}
}

var _ SettingsRepository = (*MemorySettingsRepo)(nil)

func (r *MemorySettingsRepo) GetSettings(_ context.Context, tenantID string) ([]*domain.Setting, error) {
	rows := r.t.list(tenantID, nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return toPtrs(rows), nil
}

func (r *MemorySettingsRepo) GetSetting(_ context.Context, tenantID, key string) (*domain.Setting, error) {
	s, ok := r.t.get(tenantID, key)
	if !ok {
		return nil, fmt.Errorf("setting %s: %w", key, domain.ErrNotFound)
	}
	return &s, nil
}

func (r *MemorySettingsRepo) PutSetting(_ context.Context, s *domain.Setting) error {
	s.UpdatedAt = time.Now().UTC()
	s.Value = jsonRaw(s.Value)
	r.t.put(s.TenantID, s.Key, *s)
	return nil
}
