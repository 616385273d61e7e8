package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemoryOpportunitiesRepo struct {
	t *memTable[domain.Opportunity]
}

func NewMemoryOpportunitiesRepo() *MemoryOpportunitiesRepo {
	return &MemoryOpportunitiesRepo{t: newMemTable[domain.Opportunity]()}
}

var _ OpportunitiesRepository = (*MemoryOpportunitiesRepo)(nil)

func (r *MemoryOpportunitiesRepo) GetOpportunity(_ context.Context, tenantID, opportunityID string) (*domain.Opportunity, error) {
	o, ok := r.t.get(tenantID, opportunityID)
	if !ok {
		return nil, fmt.Errorf("opportunity %s: %w", opportunityID, domain.ErrNotFound)
	}
	return &o, nil
}

func (r *MemoryOpportunitiesRepo) ListOpportunities(_ context.Context, tenantID string, filter OpportunitiesFilter) ([]*domain.Opportunity, error) {
	rows := r.t.list(tenantID, func(o domain.Opportunity) bool {
		return (filter.PipelineID == "" || o.PipelineID == filter.PipelineID) &&
			(filter.ContactID == "" || o.ContactID == filter.ContactID) &&
			(filter.Stage == "" || o.Stage == filter.Stage) &&
			(filter.Owner == "" || o.Owner == filter.Owner)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].StageChangedAt.Before(rows[j].StageChangedAt) })
	return toPtrs(rows), nil
}

func (r *MemoryOpportunitiesRepo) ListByContact(_ context.Context, tenantID, contactID string) ([]*domain.Opportunity, error) {
	rows := r.t.list(tenantID, func(o domain.Opportunity) bool { return o.ContactID == contactID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return toPtrs(rows), nil
}

func (r *MemoryOpportunitiesRepo) CreateOpportunity(_ context.Context, o *domain.Opportunity) error {
	stampOpportunity(o, time.Now().UTC())
	r.t.put(o.TenantID, o.OpportunityID, *o)
	return nil
}

func stampOpportunity(o *domain.Opportunity, now time.Time) {
	o.OpportunityID = uuid.NewString()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.StageChangedAt = now
}

func (r *MemoryOpportunitiesRepo) modify(tenantID, opportunityID string, fn func(o *domain.Opportunity)) (*domain.Opportunity, error) {
	var out domain.Opportunity
	err := r.t.update(tenantID, func(rows map[string]domain.Opportunity) error {
		o, ok := rows[opportunityID]
		if !ok {
			return fmt.Errorf("opportunity %s: %w", opportunityID, domain.ErrNotFound)
		}
		fn(&o)
		rows[opportunityID] = o
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryOpportunitiesRepo) UpdateStage(_ context.Context, tenantID, opportunityID, stage string, at time.Time) (*domain.Opportunity, error) {
	return r.modify(tenantID, opportunityID, func(o *domain.Opportunity) {
		o.Stage = stage
		o.UpdatedAt = at
		o.StageChangedAt = at
	})
}

func (r *MemoryOpportunitiesRepo) UpdatePipelineAndStage(_ context.Context, tenantID, opportunityID, pipelineID, stage string, at time.Time) (*domain.Opportunity, error) {
	return r.modify(tenantID, opportunityID, func(o *domain.Opportunity) {
		o.PipelineID = pipelineID
		o.Stage = stage
		o.UpdatedAt = at
		o.StageChangedAt = at
	})
}

func (r *MemoryOpportunitiesRepo) UpdateOpportunity(_ context.Context, o *domain.Opportunity) error {
	updated, err := r.modify(o.TenantID, o.OpportunityID, func(cur *domain.Opportunity) {
		cur.Value = o.Value
		cur.Owner = o.Owner
		cur.NextFollowUpDate = o.NextFollowUpDate
		cur.UpdatedAt = time.Now().UTC()
	})
	if err != nil {
		return err
	}
	o.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *MemoryOpportunitiesRepo) DeleteOpportunity(_ context.Context, tenantID, opportunityID string) error {
	if !r.t.del(tenantID, opportunityID) {
		return fmt.Errorf("opportunity %s: %w", opportunityID, domain.ErrNotFound)
	}
	return nil
}

func (r *MemoryOpportunitiesRepo) ReplaceForContacts(_ context.Context, tenantID string, contactIDs []string, opps []*domain.Opportunity) (int, error) {
	ids := make(map[string]struct{}, len(contactIDs))
	for _, id := range contactIDs {
		ids[id] = struct{}{}
	}
	deleted := 0
	err := r.t.update(tenantID, func(rows map[string]domain.Opportunity) error {
		for id, o := range rows {
			if _, ok := ids[o.ContactID]; ok {
				delete(rows, id)
				deleted++
			}
		}
		now := time.Now().UTC()
		for _, o := range opps {
			o.TenantID = tenantID
			stampOpportunity(o, now)
			rows[o.OpportunityID] = *o
		}
		return nil
	})
	return deleted, err
}

// toPtrs 把值切片转成指针切片
func toPtrs[T any](rows []T) []*T {
	out := make([]*T, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out
}
