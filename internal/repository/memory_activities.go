package repository

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// MemoryActivitiesRepo 写入时同步更新 contacts 内存表的 last_contacted_at
type MemoryActivitiesRepo struct {
	t        *memTable[domain.Activity]
	contacts *MemoryContactsRepo
}

func NewMemoryActivitiesRepo(contacts *MemoryContactsRepo) *MemoryActivitiesRepo {
	return &MemoryActivitiesRepo{t: newMemTable[domain.Activity](), contacts: contacts}
}

var _ ActivitiesRepository = (*MemoryActivitiesRepo)(nil)

func (r *MemoryActivitiesRepo) ListByContact(_ context.Context, tenantID, contactID string) ([]*domain.Activity, error) {
	rows := r.t.list(tenantID, func(a domain.Activity) bool { return a.ContactID == contactID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].LoggedAt.After(rows[j].LoggedAt) })
	return toPtrs(rows), nil
}

func (r *MemoryActivitiesRepo) LogActivity(ctx context.Context, a *domain.Activity) error {
	if err := r.contacts.TouchLastContacted(ctx, a.TenantID, a.ContactID, a.LoggedAt); err != nil {
		return err
	}
	a.ActivityID = uuid.NewString()
	r.t.put(a.TenantID, a.ActivityID, *a)
	return nil
}
