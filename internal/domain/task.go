package domain

import "time"

// Task 待办任务（对应 tasks 表）
type Task struct {
	TaskID      string     `db:"task_id"`      // UUID, PRIMARY KEY
	TenantID    string     `db:"tenant_id"`    // UUID, NOT NULL
	ContactID   string     `db:"contact_id"`   // UUID, nullable
	Title       string     `db:"title"`        // VARCHAR(200), NOT NULL
	Description string     `db:"description"`  // TEXT, nullable
	Assignee    string     `db:"assignee"`     // VARCHAR(100), nullable
	Priority    string     `db:"priority"`     // VARCHAR(10), NOT NULL, DEFAULT 'medium'（low/medium/high）
	DueDate     *time.Time `db:"due_date"`     // DATE, nullable
	Completed   bool       `db:"completed"`    // BOOLEAN, NOT NULL, DEFAULT FALSE
	CompletedAt *time.Time `db:"completed_at"` // TIMESTAMPTZ, nullable
	Source      string     `db:"source"`       // VARCHAR(30), NOT NULL, DEFAULT 'manual'（manual/automation）
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// IsValidTaskPriority 空值由 service 补成 medium
func IsValidTaskPriority(p string) bool {
	return p == "low" || p == "medium" || p == "high"
}
