package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemoryTasksRepo struct {
	t *memTable[domain.Task]
}

func NewMemoryTasksRepo() *MemoryTasksRepo {
	return &MemoryTasksRepo{t: newMemTable[domain.Task]()}
}

var _ TasksRepository = (*MemoryTasksRepo)(nil)

func (r *MemoryTasksRepo) GetTask(_ context.Context, tenantID, taskID string) (*domain.Task, error) {
	t, ok := r.t.get(tenantID, taskID)
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return &t, nil
}

func (r *MemoryTasksRepo) ListTasks(_ context.Context, tenantID string, filter TasksFilter) ([]*domain.Task, error) {
	rows := r.t.list(tenantID, func(t domain.Task) bool {
		return (filter.ContactID == "" || t.ContactID == filter.ContactID) &&
			(filter.Assignee == "" || t.Assignee == filter.Assignee) &&
			(filter.Completed == nil || t.Completed == *filter.Completed)
	})
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return toPtrs(rows), nil
}

func (r *MemoryTasksRepo) CreateTask(_ context.Context, t *domain.Task) error {
	now := time.Now().UTC()
	t.TaskID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	r.t.put(t.TenantID, t.TaskID, *t)
	return nil
}

func (r *MemoryTasksRepo) UpdateTask(_ context.Context, t *domain.Task) error {
	return r.t.update(t.TenantID, func(rows map[string]domain.Task) error {
		old, ok := rows[t.TaskID]
		if !ok {
			return fmt.Errorf("task %s: %w", t.TaskID, domain.ErrNotFound)
		}
		t.Completed = old.Completed
		t.CompletedAt = old.CompletedAt
		t.Source = old.Source
		t.CreatedAt = old.CreatedAt
		t.UpdatedAt = time.Now().UTC()
		rows[t.TaskID] = *t
		return nil
	})
}

func (r *MemoryTasksRepo) SetCompleted(_ context.Context, tenantID, taskID string, completed bool, at time.Time) (*domain.Task, error) {
	var out domain.Task
	err := r.t.update(tenantID, func(rows map[string]domain.Task) error {
		t, ok := rows[taskID]
		if !ok {
			return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
		}
		t.Completed = completed
		t.CompletedAt = nil
		if completed {
			at := at
			t.CompletedAt = &at
		}
		t.UpdatedAt = time.Now().UTC()
		rows[taskID] = t
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryTasksRepo) DeleteTask(_ context.Context, tenantID, taskID string) error {
	if !r.t.del(tenantID, taskID) {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return nil
}
