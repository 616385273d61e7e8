package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemoryTagsRepo struct {
	t *memTable[domain.Tag]

	mu    sync.RWMutex
	links map[string]map[string]struct{} // contactID -> tagID set
}

func NewMemoryTagsRepo() *MemoryTagsRepo {
	return &MemoryTagsRepo{t: newMemTable[domain.Tag](), links: map[string]map[string]struct{}{}}
}

var _ TagsRepository = (*MemoryTagsRepo)(nil)

func sortTags(rows []domain.Tag) []*domain.Tag {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return toPtrs(rows)
}

func (r *MemoryTagsRepo) ListTags(_ context.Context, tenantID string) ([]*domain.Tag, error) {
	return sortTags(r.t.list(tenantID, nil)), nil
}

func (r *MemoryTagsRepo) GetTag(_ context.Context, tenantID, tagID string) (*domain.Tag, error) {
	t, ok := r.t.get(tenantID, tagID)
	if !ok {
		return nil, fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryTagsRepo) CreateTag(_ context.Context, t *domain.Tag) error {
	return r.t.update(t.TenantID, func(rows map[string]domain.Tag) error {
		for _, existing := range rows {
			if existing.Name == t.Name {
				return fmt.Errorf("tag %q already exists: %w", t.Name, domain.ErrValidation)
			}
		}
		t.TagID = uuid.NewString()
		rows[t.TagID] = *t
		return nil
	})
}

func (r *MemoryTagsRepo) DeleteTag(_ context.Context, tenantID, tagID string) error {
	if !r.t.del(tenantID, tagID) {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, set := range r.links {
		delete(set, tagID)
	}
	return nil
}

func (r *MemoryTagsRepo) AddTagToContact(_ context.Context, tenantID, contactID, tagID string) error {
	if _, ok := r.t.get(tenantID, tagID); !ok {
		return fmt.Errorf("tag %s: %w", tagID, domain.ErrNotFound)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[contactID] == nil {
		r.links[contactID] = map[string]struct{}{}
	}
	r.links[contactID][tagID] = struct{}{}
	return nil
}

func (r *MemoryTagsRepo) RemoveTagFromContact(_ context.Context, _, contactID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.links[contactID], tagID)
	return nil
}

func (r *MemoryTagsRepo) ListContactTags(_ context.Context, tenantID, contactID string) ([]*domain.Tag, error) {
	r.mu.RLock()
	set := make(map[string]struct{}, len(r.links[contactID]))
	for id := range r.links[contactID] {
		set[id] = struct{}{}
	}
	r.mu.RUnlock()

	rows := r.t.list(tenantID, func(t domain.Tag) bool {
		_, ok := set[t.TagID]
		return ok
	})
	return sortTags(rows), nil
}
