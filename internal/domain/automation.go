package domain

import (
	"encoding/json"
	"time"
)

// Automation 自动化规则（对应 automations 表）
// 当 Trigger 事件发生且 Condition 满足时执行 Action
type Automation struct {
	AutomationID string          `db:"automation_id"`
	TenantID     string          `db:"tenant_id"`
	Name         string          `db:"name"`          // NOT NULL
	Trigger      string          `db:"trigger"`       // NOT NULL，EventType 之一
	Condition    Condition       `db:"condition"`     // JSONB, nullable（空条件=总是匹配）
	ActionType   string          `db:"action_type"`   // NOT NULL（create_task / webhook / notify）
	ActionConfig json.RawMessage `db:"action_config"` // JSONB, NOT NULL
	Enabled      bool            `db:"enabled"`       // NOT NULL, DEFAULT TRUE
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Condition 单字段等值条件，Field 对应 Event.Data 的 key
type Condition struct {
	Field  string `json:"field,omitempty"`
	Equals string `json:"equals,omitempty"`
}

// Matches 判断事件数据是否满足条件
func (c Condition) Matches(data map[string]string) bool {
	if c.Field == "" {
		return true
	}
	return data[c.Field] == c.Equals
}

// Automation 动作类型
const (
	ActionCreateTask = "create_task"
	ActionWebhook    = "webhook"
	ActionNotify     = "notify"
)

// IsValidActionType 是否为支持的动作
func IsValidActionType(t string) bool {
	return t == ActionCreateTask || t == ActionWebhook || t == ActionNotify
}

// EventType 领域事件类型（同时也是 automation 的 trigger）
type EventType string

const (
	EventContactCreated         EventType = "contact.created"
	EventActivityLogged         EventType = "activity.logged"
	EventOpportunityStageChange EventType = "opportunity.stage_changed"
	EventOpportunityPipeline    EventType = "opportunity.pipeline_changed"
	EventOpportunityAssigned    EventType = "opportunity.assigned"
	EventAppointmentStatus      EventType = "appointment.status_changed"
	EventTaskCompleted          EventType = "task.completed"
)

// IsValidTrigger 是否为已知事件类型
func IsValidTrigger(t string) bool {
	switch EventType(t) {
	case EventContactCreated, EventActivityLogged, EventOpportunityStageChange,
		EventOpportunityPipeline, EventOpportunityAssigned, EventAppointmentStatus, EventTaskCompleted:
		return true
	}
	return false
}

// Event 领域事件（写入 Redis Stream 的 payload）
type Event struct {
	EventID    string            `json:"event_id"`
	Type       EventType         `json:"type"`
	TenantID   string            `json:"tenant_id"`
	ContactID  string            `json:"contact_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
