// Package automation 执行自动化规则的动作：create_task / webhook / notify
package automation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// TaskAction create_task 的配置
type TaskAction struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueInDays   int    `json:"due_in_days,omitempty"` // 0 表示不设截止日期
}

// WebhookAction webhook 的配置
type WebhookAction struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// NotifyAction notify 的配置，Topic 为空时使用 <prefix>/<tenant_id>
type NotifyAction struct {
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message"`
}

// ValidateAction 保存规则前校验动作配置
func ValidateAction(actionType string, config json.RawMessage) error {
	if !domain.IsValidActionType(actionType) {
		return fmt.Errorf("%w: unsupported action_type %q", domain.ErrValidation, actionType)
	}
	if len(config) == 0 {
		return fmt.Errorf("%w: action_config is required", domain.ErrValidation)
	}

	switch actionType {
	case domain.ActionCreateTask:
		var a TaskAction
		if err := decode(config, &a); err != nil {
			return err
		}
		if strings.TrimSpace(a.Title) == "" {
			return fmt.Errorf("%w: create_task requires a title", domain.ErrValidation)
		}
		if a.Priority != "" && !domain.IsValidTaskPriority(a.Priority) {
			return fmt.Errorf("%w: invalid task priority %q", domain.ErrValidation, a.Priority)
		}
		if a.DueInDays < 0 {
			return fmt.Errorf("%w: due_in_days must not be negative", domain.ErrValidation)
		}
	case domain.ActionWebhook:
		var a WebhookAction
		if err := decode(config, &a); err != nil {
			return err
		}
		u, err := url.Parse(a.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: webhook requires an absolute http(s) url", domain.ErrValidation)
		}
	case domain.ActionNotify:
		var a NotifyAction
		if err := decode(config, &a); err != nil {
			return err
		}
		if strings.TrimSpace(a.Message) == "" {
			return fmt.Errorf("%w: notify requires a message", domain.ErrValidation)
		}
		if strings.ContainsAny(a.Topic, "+#") {
			return fmt.Errorf("%w: notify topic must not contain wildcards", domain.ErrValidation)
		}
	}
	return nil
}

func decode(config json.RawMessage, v any) error {
	if err := json.Unmarshal(config, v); err != nil {
		return fmt.Errorf("%w: invalid action_config: %v", domain.ErrValidation, err)
	}
	return nil
}

// render 替换模板中的 {{key}}：事件数据中的字段，外加 type / contact_id
func render(tmpl string, ev domain.Event) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	pairs := []string{"{{type}}", string(ev.Type), "{{contact_id}}", ev.ContactID}
	for k, v := range ev.Data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
