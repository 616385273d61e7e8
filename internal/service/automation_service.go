package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/automation"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

// AutomationService 自动化规则 CRUD；执行由 consumer + automation.Runner 负责
type AutomationService struct {
	automations repository.AutomationsRepository
	logger      *zap.Logger
}

func NewAutomationService(automations repository.AutomationsRepository, logger *zap.Logger) *AutomationService {
	return &AutomationService{automations: automations, logger: logger}
}

// AutomationRequest 新建/更新
type AutomationRequest struct {
	Name         string           `json:"name"`
	Trigger      string           `json:"trigger"`
	Condition    domain.Condition `json:"condition"`
	ActionType   string           `json:"action_type"`
	ActionConfig json.RawMessage  `json:"action_config"`
	Enabled      *bool            `json:"enabled"` // 为空时新建默认启用，更新保持不变
}

func (r *AutomationRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalid("automation name is required")
	}
	if !domain.IsValidTrigger(r.Trigger) {
		return invalid("unknown trigger %q", r.Trigger)
	}
	if r.Condition.Field == "" && r.Condition.Equals != "" {
		return invalid("condition.equals requires condition.field")
	}
	return automation.ValidateAction(r.ActionType, r.ActionConfig)
}

func (s *AutomationService) ListAutomations(ctx context.Context, tenantID string) ([]AutomationItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.automations.ListAutomations(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	items := make([]AutomationItem, 0, len(list))
	for _, a := range list {
		items = append(items, toAutomationItem(a))
	}
	return items, nil
}

func (s *AutomationService) GetAutomation(ctx context.Context, tenantID, automationID string) (*AutomationItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	a, err := s.automations.GetAutomation(ctx, tenantID, automationID)
	if err != nil {
		return nil, err
	}
	item := toAutomationItem(a)
	return &item, nil
}

func (s *AutomationService) CreateAutomation(ctx context.Context, tenantID string, req AutomationRequest) (*AutomationItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	a := &domain.Automation{
		TenantID:     tenantID,
		Name:         req.Name,
		Trigger:      req.Trigger,
		Condition:    req.Condition,
		ActionType:   req.ActionType,
		ActionConfig: req.ActionConfig,
		Enabled:      req.Enabled == nil || *req.Enabled,
	}
	if err := s.automations.CreateAutomation(ctx, a); err != nil {
		return nil, err
	}
	item := toAutomationItem(a)
	return &item, nil
}

func (s *AutomationService) UpdateAutomation(ctx context.Context, tenantID, automationID string, req AutomationRequest) (*AutomationItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	a, err := s.automations.GetAutomation(ctx, tenantID, automationID)
	if err != nil {
		return nil, err
	}
	a.Name = req.Name
	a.Trigger = req.Trigger
	a.Condition = req.Condition
	a.ActionType = req.ActionType
	a.ActionConfig = req.ActionConfig
	if req.Enabled != nil {
		a.Enabled = *req.Enabled
	}
	if err := s.automations.UpdateAutomation(ctx, a); err != nil {
		return nil, err
	}
	item := toAutomationItem(a)
	return &item, nil
}

func (s *AutomationService) DeleteAutomation(ctx context.Context, tenantID, automationID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.automations.DeleteAutomation(ctx, tenantID, automationID)
}
