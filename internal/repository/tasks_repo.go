package repository

import (
	"context"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// TasksRepository 待办任务Repository接口
type TasksRepository interface {
	GetTask(ctx context.Context, tenantID, taskID string) (*domain.Task, error)

	// ListTasks 未完成在前，再按 due_date（NULL 最后）和 created_at 排序
	ListTasks(ctx context.Context, tenantID string, filter TasksFilter) ([]*domain.Task, error)

	CreateTask(ctx context.Context, t *domain.Task) error
	UpdateTask(ctx context.Context, t *domain.Task) error

	// SetCompleted completed=true 时写 completed_at，false 时清空
	SetCompleted(ctx context.Context, tenantID, taskID string, completed bool, at time.Time) (*domain.Task, error)

	DeleteTask(ctx context.Context, tenantID, taskID string) error
}

// TasksFilter Completed 为 nil 时不过滤
type TasksFilter struct {
	ContactID string
	Assignee  string
	Completed *bool
}
