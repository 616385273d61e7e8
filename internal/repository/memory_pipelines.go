package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemoryPipelinesRepo struct {
	t *memTable[domain.Pipeline]
}

func NewMemoryPipelinesRepo() *MemoryPipelinesRepo {
	return &MemoryPipelinesRepo{t: newMemTable[domain.Pipeline]()}
}

var _ PipelinesRepository = (*MemoryPipelinesRepo)(nil)

func clonePipeline(p domain.Pipeline) domain.Pipeline {
	p.Stages = append([]string{}, p.Stages...)
	return p
}

func (r *MemoryPipelinesRepo) GetPipeline(_ context.Context, tenantID, pipelineID string) (*domain.Pipeline, error) {
	p, ok := r.t.get(tenantID, pipelineID)
	if !ok {
		return nil, fmt.Errorf("pipeline %s: %w", pipelineID, domain.ErrNotFound)
	}
	p = clonePipeline(p)
	return &p, nil
}

func (r *MemoryPipelinesRepo) ListPipelines(_ context.Context, tenantID string) ([]*domain.Pipeline, error) {
	rows := r.t.list(tenantID, nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	out := make([]*domain.Pipeline, 0, len(rows))
	for _, p := range rows {
		p := clonePipeline(p)
		out = append(out, &p)
	}
	return out, nil
}

func (r *MemoryPipelinesRepo) CreatePipeline(_ context.Context, p *domain.Pipeline) error {
	now := time.Now().UTC()
	p.PipelineID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.t.put(p.TenantID, p.PipelineID, clonePipeline(*p))
	return nil
}

func (r *MemoryPipelinesRepo) UpdatePipeline(_ context.Context, p *domain.Pipeline) error {
	return r.t.update(p.TenantID, func(rows map[string]domain.Pipeline) error {
		old, ok := rows[p.PipelineID]
		if !ok {
			return fmt.Errorf("pipeline %s: %w", p.PipelineID, domain.ErrNotFound)
		}
		p.CreatedAt = old.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		rows[p.PipelineID] = clonePipeline(*p)
		return nil
	})
}

func (r *MemoryPipelinesRepo) DeletePipeline(_ context.Context, tenantID, pipelineID string) error {
	if !r.t.del(tenantID, pipelineID) {
		return fmt.Errorf("pipeline %s: %w", pipelineID, domain.ErrNotFound)
	}
	return nil
}
