package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemoryAutomationsRepo struct {
	t *memTable[domain.Automation]
}

func NewMemoryAutomationsRepo() *MemoryAutomationsRepo {
	return &MemoryAutomationsRepo{t: newMemTable[domain.Automation]()}
}

var _ AutomationsRepository = (*MemoryAutomationsRepo)(nil)

func (r *MemoryAutomationsRepo) ListAutomations(_ context.Context, tenantID string) ([]*domain.Automation, error) {
	rows := r.t.list(tenantID, nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return toPtrs(rows), nil
}

func (r *MemoryAutomationsRepo) ListEnabledByTrigger(_ context.Context, tenantID, trigger string) ([]*domain.Automation, error) {
	rows := r.t.list(tenantID, func(a domain.Automation) bool { return a.Enabled && a.Trigger == trigger })
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.Before(rows[j].CreatedAt) })
	return toPtrs(rows), nil
}

func (r *MemoryAutomationsRepo) GetAutomation(_ context.Context, tenantID, automationID string) (*domain.Automation, error) {
	a, ok := r.t.get(tenantID, automationID)
	if !ok {
		return nil, fmt.Errorf("automation %s: %w", automationID, domain.ErrNotFound)
	}
	return &a, nil
}

func (r *MemoryAutomationsRepo) CreateAutomation(_ context.Context, a *domain.Automation) error {
	now := time.Now().UTC()
	a.AutomationID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.t.put(a.TenantID, a.AutomationID, *a)
	return nil
}

func (r *MemoryAutomationsRepo) UpdateAutomation(_ context.Context, a *domain.Automation) error {
	return r.t.update(a.TenantID, func(rows map[string]domain.Automation) error {
		old, ok := rows[a.AutomationID]
		if !ok {
			return fmt.Errorf("automation %s: %w", a.AutomationID, domain.ErrNotFound)
		}
		a.CreatedAt = old.CreatedAt
		a.UpdatedAt = time.Now().UTC()
		rows[a.AutomationID] = *a
		return nil
	})
}

func (r *MemoryAutomationsRepo) DeleteAutomation(_ context.Context, tenantID, automationID string) error {
	if !r.t.del(tenantID, automationID) {
		return fmt.Errorf("automation %s: %w", automationID, domain.ErrNotFound)
	}
	return nil
}
