package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/common/mqtt"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

const defaultTopicPrefix = "crm/notify"

// Options Runner 配置
type Options struct {
	WebhookTimeout time.Duration
	WebhookRetries int
	TopicPrefix    string
	QoS            byte
}

// Runner 对一个事件执行匹配的规则
type Runner struct {
	rules    repository.AutomationsRepository
	tasks    repository.TasksRepository
	http     *resty.Client
	notifier mqtt.Publisher // 为 nil 时 notify 动作只记日志
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewRunner 创建 Runner
func NewRunner(rules repository.AutomationsRepository, tasks repository.TasksRepository, notifier mqtt.Publisher, opts Options, logger *zap.Logger) *Runner {
	if opts.WebhookTimeout <= 0 {
		opts.WebhookTimeout = 10 * time.Second
	}
	if opts.WebhookRetries < 0 {
		opts.WebhookRetries = 0
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = defaultTopicPrefix
	}

	client := resty.New().
		SetTimeout(opts.WebhookTimeout).
		SetRetryCount(opts.WebhookRetries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "pristine-crm-automation")

	return &Runner{
		rules:    rules,
		tasks:    tasks,
		http:     client,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle 查出该租户下 trigger 匹配的启用规则并逐条执行
// 单条规则失败不影响其他规则，返回第一个错误供 consumer 决定是否重试
func (r *Runner) Handle(ctx context.Context, ev domain.Event) (executed int, err error) {
	rules, err := r.rules.ListEnabledByTrigger(ctx, ev.TenantID, string(ev.Type))
	if err != nil {
		return 0, fmt.Errorf("failed to load automations: %w", err)
	}

	var firstErr error
	for _, rule := range rules {
		if !rule.Condition.Matches(ev.Data) {
			continue
		}
		if runErr := r.Run(ctx, rule, ev); runErr != nil {
			r.logger.Error("Automation failed",
				zap.String("automation_id", rule.AutomationID),
				zap.String("action_type", rule.ActionType),
				zap.String("event_id", ev.EventID),
				zap.Error(runErr),
			)
			if firstErr == nil {
				firstErr = runErr
			}
			continue
		}
		executed++
	}
	return executed, firstErr
}

// Run 执行单条规则的动作（不检查 trigger / condition）
func (r *Runner) Run(ctx context.Context, rule *domain.Automation, ev domain.Event) error {
	switch rule.ActionType {
	case domain.ActionCreateTask:
		return r.createTask(ctx, rule, ev)
	case domain.ActionWebhook:
		return r.webhook(ctx, rule, ev)
	case domain.ActionNotify:
		return r.notify(rule, ev)
	default:
		return fmt.Errorf("%w: unsupported action_type %q", domain.ErrValidation, rule.ActionType)
	}
}

func (r *Runner) createTask(ctx context.Context, rule *domain.Automation, ev domain.Event) error {
	var a TaskAction
	if err := decode(rule.ActionConfig, &a); err != nil {
		return err
	}
	priority := a.Priority
	if priority == "" {
		priority = "medium"
	}
	t := &domain.Task{
		TenantID:    ev.TenantID,
		ContactID:   ev.ContactID,
		Title:       render(a.Title, ev),
		Description: render(a.Description, ev),
		Assignee:    render(a.Assignee, ev),
		Priority:    priority,
		Source:      "automation",
	}
	if a.DueInDays > 0 {
		due := r.now().AddDate(0, 0, a.DueInDays).Truncate(24 * time.Hour)
		t.DueDate = &due
	}
	if err := r.tasks.CreateTask(ctx, t); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	r.logger.Info("Automation created task",
		zap.String("automation_id", rule.AutomationID),
		zap.String("task_id", t.TaskID),
	)
	return nil
}

// WebhookPayload POST 给外部地址的内容
type WebhookPayload struct {
	AutomationID string       `json:"automation_id"`
	Name         string       `json:"name"`
	Event        domain.Event `json:"event"`
}

func (r *Runner) webhook(ctx context.Context, rule *domain.Automation, ev domain.Event) error {
	var a WebhookAction
	if err := decode(rule.ActionConfig, &a); err != nil {
		return err
	}

	resp, err := r.http.R().
		SetContext(ctx).
		SetHeaders(a.Headers).
		SetBody(WebhookPayload{AutomationID: rule.AutomationID, Name: rule.Name, Event: ev}).
		Post(a.URL)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	r.logger.Info("Automation webhook delivered",
		zap.String("automation_id", rule.AutomationID),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}

// Notification MQTT 消息体
type Notification struct {
	AutomationID string            `json:"automation_id"`
	EventType    string            `json:"event_type"`
	ContactID    string            `json:"contact_id,omitempty"`
	Message      string            `json:"message"`
	Data         map[string]string `json:"data,omitempty"`
	SentAt       time.Time         `json:"sent_at"`
}

func (r *Runner) notify(rule *domain.Automation, ev domain.Event) error {
	var a NotifyAction
	if err := decode(rule.ActionConfig, &a); err != nil {
		return err
	}
	topic := a.Topic
	if topic == "" {
		topic = strings.TrimSuffix(r.opts.TopicPrefix, "/") + "/" + ev.TenantID
	}
	msg := Notification{
		AutomationID: rule.AutomationID,
		EventType:    string(ev.Type),
		ContactID:    ev.ContactID,
		Message:      render(a.Message, ev),
		Data:         ev.Data,
		SentAt:       r.now(),
	}

	if r.notifier == nil {
		r.logger.Info("MQTT disabled, notification dropped",
			zap.String("topic", topic),
			zap.String("message", msg.Message),
		)
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return r.notifier.Publish(topic, r.opts.QoS, false, payload)
}
