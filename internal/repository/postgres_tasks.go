package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresTasksRepository struct {
	db *sql.DB
}

func NewPostgresTasksRepository(db *sql.DB) *PostgresTasksRepository {
	return &PostgresTasksRepository{db: db}
}

var _ TasksRepository = (*PostgresTasksRepository)(nil)

const taskColumns = `
	task_id::text,
	tenant_id::text,
	COALESCE(contact_id::text, ''),
	title,
	COALESCE(description, ''),
	COALESCE(assignee, ''),
	priority,
	due_date,
	completed,
	completed_at,
	source,
	created_at,
	updated_at`

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var due, completedAt sql.NullTime
	err := row.Scan(
		&t.TaskID,
		&t.TenantID,
		&t.ContactID,
		&t.Title,
		&t.Description,
		&t.Assignee,
		&t.Priority,
		&due,
		&t.Completed,
		&completedAt,
		&t.Source,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.DueDate = timePtr(due)
	t.CompletedAt = timePtr(completedAt)
	return &t, nil
}

func (r *PostgresTasksRepository) GetTask(ctx context.Context, tenantID, taskID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE tenant_id = $1 AND task_id = $2`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, tenantID, taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", notFound(err, "task", taskID))
	}
	return t, nil
}

func (r *PostgresTasksRepository) ListTasks(ctx context.Context, tenantID string, filter TasksFilter) ([]*domain.Task, error) {
	w := newWhere("tenant_id = $1", tenantID)
	if filter.ContactID != "" {
		w.add("contact_id = ?", filter.ContactID)
	}
	if filter.Assignee != "" {
		w.add("assignee = ?", filter.Assignee)
	}
	if filter.Completed != nil {
		w.add("completed = ?", *filter.Completed)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + w.String() +
		` ORDER BY completed, due_date NULLS LAST, created_at`

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	out := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return out, nil
}

func (r *PostgresTasksRepository) CreateTask(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (tenant_id, contact_id, title, description, assignee, priority, due_date, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING task_id::text, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		t.TenantID, nullString(t.ContactID), t.Title, nullString(t.Description),
		nullString(t.Assignee), t.Priority, nullTime(t.DueDate), t.Source,
	).Scan(&t.TaskID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *PostgresTasksRepository) UpdateTask(ctx context.Context, t *domain.Task) error {
	query := `
		UPDATE tasks SET
			contact_id = $3, title = $4, description = $5, assignee = $6, priority = $7, due_date = $8,
			updated_at = now()
		WHERE tenant_id = $1 AND task_id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		t.TenantID, t.TaskID,
		nullString(t.ContactID), t.Title, nullString(t.Description),
		nullString(t.Assignee), t.Priority, nullTime(t.DueDate),
	).Scan(&t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", notFound(err, "task", t.TaskID))
	}
	return nil
}

func (r *PostgresTasksRepository) SetCompleted(ctx context.Context, tenantID, taskID string, completed bool, at time.Time) (*domain.Task, error) {
	var completedAt *time.Time
	if completed {
		completedAt = &at
	}
	query := `
		UPDATE tasks SET completed = $3, completed_at = $4, updated_at = now()
		WHERE tenant_id = $1 AND task_id = $2
		RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRowContext(ctx, query, tenantID, taskID, completed, nullTime(completedAt)))
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", notFound(err, "task", taskID))
	}
	return t, nil
}

func (r *PostgresTasksRepository) DeleteTask(ctx context.Context, tenantID, taskID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE tenant_id = $1 AND task_id = $2`, tenantID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(res, "task", taskID)
}
