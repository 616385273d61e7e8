package service

import (
	"encoding/json"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// 以下为前端格式（JSON），domain 模型只带 db tag

// ContactItem 联系人
type ContactItem struct {
	ContactID       string     `json:"contact_id"`
	TenantID        string     `json:"tenant_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	BusinessName    string     `json:"business_name,omitempty"`
	Owner           string     `json:"owner,omitempty"`
	Source          string     `json:"source,omitempty"`
	LinkedIn        string     `json:"linkedin,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	LeadScore       string     `json:"lead_score,omitempty"` // 存储的 hot/warm/cold
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toContactItem(c *domain.Contact) ContactItem {
	return ContactItem{
		ContactID:       c.ContactID,
		TenantID:        c.TenantID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		BusinessName:    c.BusinessName,
		Owner:           c.Owner,
		Source:          c.Source,
		LinkedIn:        c.LinkedIn,
		Notes:           c.Notes,
		LeadScore:       c.LeadScore,
		LastContactedAt: c.LastContactedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// PipelineItem 销售管道
type PipelineItem struct {
	PipelineID string    `json:"pipeline_id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	Stages     []string  `json:"stages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPipelineItem(p *domain.Pipeline) PipelineItem {
	stages := p.Stages
	if stages == nil {
		stages = []string{}
	}
	return PipelineItem{
		PipelineID: p.PipelineID,
		TenantID:   p.TenantID,
		Name:       p.Name,
		Stages:     stages,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// OpportunityItem 商机
type OpportunityItem struct {
	OpportunityID    string     `json:"opportunity_id"`
	TenantID         string     `json:"tenant_id"`
	ContactID        string     `json:"contact_id"`
	PipelineID       string     `json:"pipeline_id"`
	Stage            string     `json:"stage"`
	Value            *float64   `json:"value,omitempty"`
	Owner            string     `json:"owner,omitempty"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	StageChangedAt   time.Time  `json:"stage_changed_at"`
}

func toOpportunityItem(o *domain.Opportunity) OpportunityItem {
	return OpportunityItem{
		OpportunityID:    o.OpportunityID,
		TenantID:         o.TenantID,
		ContactID:        o.ContactID,
		PipelineID:       o.PipelineID,
		Stage:            o.Stage,
		Value:            o.Value,
		Owner:            o.Owner,
		NextFollowUpDate: o.NextFollowUpDate,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		StageChangedAt:   o.StageChangedAt,
	}
}

func toOpportunityItems(opps []domain.Opportunity) []OpportunityItem {
	out := make([]OpportunityItem, 0, len(opps))
	for i := range opps {
		out = append(out, toOpportunityItem(&opps[i]))
	}
	return out
}

// ActivityItem 活动记录
type ActivityItem struct {
	ActivityID    string    `json:"activity_id"`
	ContactID     string    `json:"contact_id"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	Outcome       string    `json:"outcome"`
	Channel       string    `json:"channel"`
	Notes         string    `json:"notes,omitempty"`
	LoggedAt      time.Time `json:"logged_at"`
}

func toActivityItem(a *domain.Activity) ActivityItem {
	return ActivityItem{
		ActivityID:    a.ActivityID,
		ContactID:     a.ContactID,
		OpportunityID: a.OpportunityID,
		Outcome:       a.Outcome,
		Channel:       a.Channel,
		Notes:         a.Notes,
		LoggedAt:      a.LoggedAt,
	}
}

// AppointmentItem 预约
type AppointmentItem struct {
	AppointmentID string    `json:"appointment_id"`
	ContactID     string    `json:"contact_id"`
	Title         string    `json:"title"`
	Location      string    `json:"location,omitempty"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAppointmentItem(a *domain.Appointment) AppointmentItem {
	return AppointmentItem{
		AppointmentID: a.AppointmentID,
		ContactID:     a.ContactID,
		Title:         a.Title,
		Location:      a.Location,
		StartsAt:      a.StartsAt,
		EndsAt:        a.EndsAt,
		Status:        a.Status,
		Notes:         a.Notes,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// TaskItem 待办
type TaskItem struct {
	TaskID      string     `json:"task_id"`
	ContactID   string     `json:"contact_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toTaskItem(t *domain.Task) TaskItem {
	return TaskItem{
		TaskID:      t.TaskID,
		ContactID:   t.ContactID,
		Title:       t.Title,
		Description: t.Description,
		Assignee:    t.Assignee,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CompletedAt: t.CompletedAt,
		Source:      t.Source,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// TagItem 标签
type TagItem struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func toTagItems(tags []*domain.Tag) []TagItem {
	out := make([]TagItem, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagItem{TagID: t.TagID, Name: t.Name, Color: t.Color})
	}
	return out
}

// AutomationItem 自动化规则
type AutomationItem struct {
	AutomationID string           `json:"automation_id"`
	Name         string           `json:"name"`
	Trigger      string           `json:"trigger"`
	Condition    domain.Condition `json:"condition"`
	ActionType   string           `json:"action_type"`
	ActionConfig json.RawMessage  `json:"action_config"`
	Enabled      bool             `json:"enabled"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func toAutomationItem(a *domain.Automation) AutomationItem {
	cfg := a.ActionConfig
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}
	return AutomationItem{
		AutomationID: a.AutomationID,
		Name:         a.Name,
		Trigger:      a.Trigger,
		Condition:    a.Condition,
		ActionType:   a.ActionType,
		ActionConfig: cfg,
		Enabled:      a.Enabled,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
