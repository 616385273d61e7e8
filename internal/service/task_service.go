package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

// Task 来源
const (
	TaskSourceManual     = "manual"
	TaskSourceAutomation = "automation"
)

// TaskService 待办
type TaskService struct {
	tasks     repository.TasksRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewTaskService(tasks repository.TasksRepository, publisher events.Publisher, logger *zap.Logger) *TaskService {
	return &TaskService{tasks: tasks, publisher: publisher, logger: logger, now: utcNow}
}

// ListTasksRequest Completed 为 nil 时不过滤
type ListTasksRequest struct {
	TenantID  string
	ContactID string
	Assignee  string
	Completed *bool
}

func (s *TaskService) ListTasks(ctx context.Context, req ListTasksRequest) ([]TaskItem, error) {
	if err := requireTenant(req.TenantID); err != nil {
		return nil, err
	}
	list, err := s.tasks.ListTasks(ctx, req.TenantID, repository.TasksFilter{
		ContactID: req.ContactID,
		Assignee:  req.Assignee,
		Completed: req.Completed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	items := make([]TaskItem, 0, len(list))
	for _, t := range list {
		items = append(items, toTaskItem(t))
	}
	return items, nil
}

func (s *TaskService) GetTask(ctx context.Context, tenantID, taskID string) (*TaskItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	t, err := s.tasks.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	item := toTaskItem(t)
	return &item, nil
}

// TaskRequest 新建/编辑
type TaskRequest struct {
	ContactID   string     `json:"contact_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Assignee    string     `json:"assignee"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (r *TaskRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return invalid("title is required")
	}
	r.Priority = strings.ToLower(strings.TrimSpace(r.Priority))
	if r.Priority == "" {
		r.Priority = "medium"
	}
	if !domain.IsValidTaskPriority(r.Priority) {
		return invalid("priority must be one of low, medium, high")
	}
	return nil
}

// CreateTask source 为 manual 或 automation
func (s *TaskService) CreateTask(ctx context.Context, tenantID string, req TaskRequest, source string) (*TaskItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if source == "" {
		source = TaskSourceManual
	}
	t := &domain.Task{
		TenantID:    tenantID,
		ContactID:   req.ContactID,
		Title:       req.Title,
		Description: req.Description,
		Assignee:    strings.TrimSpace(req.Assignee),
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Source:      source,
	}
	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	item := toTaskItem(t)
	return &item, nil
}

// UpdateTask 不修改完成状态，完成走 CompleteTask
func (s *TaskService) UpdateTask(ctx context.Context, tenantID, taskID string, req TaskRequest) (*TaskItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	t, err := s.tasks.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	t.ContactID = req.ContactID
	t.Title = req.Title
	t.Description = req.Description
	t.Assignee = strings.TrimSpace(req.Assignee)
	t.Priority = req.Priority
	t.DueDate = req.DueDate
	if err := s.tasks.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	item := toTaskItem(t)
	return &item, nil
}

// CompleteTask 勾选/取消勾选；只有从未完成变为完成时发布 task.completed
func (s *TaskService) CompleteTask(ctx context.Context, tenantID, taskID string, completed bool) (*TaskItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	before, err := s.tasks.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.SetCompleted(ctx, tenantID, taskID, completed, s.now())
	if err != nil {
		return nil, err
	}
	if completed && !before.Completed {
		publish(ctx, s.publisher, s.logger, events.New(domain.EventTaskCompleted, tenantID, t.ContactID, map[string]string{
			"task_id":  t.TaskID,
			"title":    t.Title,
			"assignee": t.Assignee,
		}))
	}
	item := toTaskItem(t)
	return &item, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, tenantID, taskID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.tasks.DeleteTask(ctx, tenantID, taskID)
}
