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

var validChannels = map[string]bool{
	"call": true, "email": true, "sms": true, "linkedin": true, "in_person": true,
}

// ActivityService 活动记录（只追加）
type ActivityService struct {
	activities repository.ActivitiesRepository
	publisher  events.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewActivityService(activities repository.ActivitiesRepository, publisher events.Publisher, logger *zap.Logger) *ActivityService {
	return &ActivityService{activities: activities, publisher: publisher, logger: logger, now: utcNow}
}

// LogActivityRequest 记录一次触达
type LogActivityRequest struct {
	OpportunityID string     `json:"opportunity_id"`
	Outcome       string     `json:"outcome"`
	Channel       string     `json:"channel"`
	Notes         string     `json:"notes"`
	LoggedAt      *time.Time `json:"logged_at"` // 为空取当前时间
}

func (s *ActivityService) ListActivities(ctx context.Context, tenantID, contactID string) ([]ActivityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.activities.ListByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	items := make([]ActivityItem, 0, len(list))
	for _, a := range list {
		items = append(items, toActivityItem(a))
	}
	return items, nil
}

// LogActivity 写入 activity 并刷新联系人的 last_contacted_at
func (s *ActivityService) LogActivity(ctx context.Context, tenantID, contactID string, req LogActivityRequest) (*ActivityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	outcome := strings.TrimSpace(req.Outcome)
	if outcome == "" {
		return nil, invalid("outcome is required")
	}
	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	if channel == "" {
		channel = "call"
	}
	if !validChannels[channel] {
		return nil, invalid("unsupported channel %q", req.Channel)
	}

	at := s.now()
	if req.LoggedAt != nil {
		at = req.LoggedAt.UTC()
	}
	a := &domain.Activity{
		TenantID:      tenantID,
		ContactID:     contactID,
		OpportunityID: req.OpportunityID,
		Outcome:       outcome,
		Channel:       channel,
		Notes:         req.Notes,
		LoggedAt:      at,
	}
	if err := s.activities.LogActivity(ctx, a); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, events.New(domain.EventActivityLogged, tenantID, contactID, map[string]string{
		"activity_id": a.ActivityID,
		"outcome":     a.Outcome,
		"channel":     a.Channel,
	}))
	item := toActivityItem(a)
	return &item, nil
}
