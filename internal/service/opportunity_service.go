package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/pipeline"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

// OpportunityService 商机 stage 迁移
type OpportunityService struct {
	opportunities repository.OpportunitiesRepository
	pipelines     repository.PipelinesRepository
	contacts      repository.ContactsRepository
	publisher     events.Publisher
	logger        *zap.Logger
	now           func() time.Time
}

// NewOpportunityService 创建 OpportunityService
func NewOpportunityService(
	opportunities repository.OpportunitiesRepository,
	pipelines repository.PipelinesRepository,
	contacts repository.ContactsRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *OpportunityService {
	return &OpportunityService{
		opportunities: opportunities,
		pipelines:     pipelines,
		contacts:      contacts,
		publisher:     publisher,
		logger:        logger,
		now:           utcNow,
	}
}

// ListOpportunitiesRequest 查询请求
type ListOpportunitiesRequest struct {
	TenantID   string
	PipelineID string
	ContactID  string
	Stage      string
	Owner      string
}

// ListOpportunities 按 stage_changed_at 排序
func (s *OpportunityService) ListOpportunities(ctx context.Context, req ListOpportunitiesRequest) ([]OpportunityItem, error) {
	if err := requireTenant(req.TenantID); err != nil {
		return nil, err
	}
	list, err := s.opportunities.ListOpportunities(ctx, req.TenantID, repository.OpportunitiesFilter{
		PipelineID: req.PipelineID,
		ContactID:  req.ContactID,
		Stage:      req.Stage,
		Owner:      req.Owner,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	return toOpportunityItems(derefAll(list)), nil
}

// GetOpportunity 查询单个
func (s *OpportunityService) GetOpportunity(ctx context.Context, tenantID, opportunityID string) (*OpportunityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	o, err := s.opportunities.GetOpportunity(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, err
	}
	item := toOpportunityItem(o)
	return &item, nil
}

// CreateOpportunityRequest 新建请求，Stage 为空时取 pipeline 第一个 stage
type CreateOpportunityRequest struct {
	ContactID        string     `json:"contact_id"`
	PipelineID       string     `json:"pipeline_id"`
	Stage            string     `json:"stage"`
	Value            *float64   `json:"value"`
	Owner            string     `json:"owner"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date"`
}

// CreateOpportunity 单条新建（不删除该联系人已有的 opportunity，批量分配才替换）
func (s *OpportunityService) CreateOpportunity(ctx context.Context, tenantID string, req CreateOpportunityRequest) (*OpportunityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if req.ContactID == "" || req.PipelineID == "" {
		return nil, invalid("contact_id and pipeline_id are required")
	}
	if _, err := s.contacts.GetContact(ctx, tenantID, req.ContactID); err != nil {
		return nil, err
	}
	p, err := s.pipelines.GetPipeline(ctx, tenantID, req.PipelineID)
	if err != nil {
		return nil, err
	}
	stage, err := pipeline.ResolveStage(p, req.Stage)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &domain.Opportunity{
		TenantID:         tenantID,
		ContactID:        req.ContactID,
		PipelineID:       p.PipelineID,
		Stage:            stage,
		Value:            req.Value,
		Owner:            strings.TrimSpace(req.Owner),
		NextFollowUpDate: req.NextFollowUpDate,
		CreatedAt:        now,
		UpdatedAt:        now,
		StageChangedAt:   now,
	}
	if err := s.opportunities.CreateOpportunity(ctx, o); err != nil {
		return nil, err
	}
	item := toOpportunityItem(o)
	return &item, nil
}

// MoveStage 先校验并落库，成功后才返回新状态；任何失败都原样返回给调用方
func (s *OpportunityService) MoveStage(ctx context.Context, tenantID, opportunityID, stage string) (*OpportunityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	current, err := s.opportunities.GetOpportunity(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, err
	}
	p, err := s.pipelines.GetPipeline(ctx, tenantID, current.PipelineID)
	if err != nil {
		return nil, err
	}
	if err := pipeline.ValidateMove(p, stage); err != nil {
		return nil, err
	}

	updated, err := s.opportunities.UpdateStage(ctx, tenantID, opportunityID, stage, s.now())
	if err != nil {
		s.logger.Error("Failed to persist stage move",
			zap.String("opportunity_id", opportunityID),
			zap.String("stage", stage),
			zap.Error(err),
		)
		return nil, err
	}

	if current.Stage != stage {
		publish(ctx, s.publisher, s.logger, events.New(domain.EventOpportunityStageChange, tenantID, updated.ContactID, map[string]string{
			"opportunity_id": opportunityID,
			"pipeline_id":    updated.PipelineID,
			"from_stage":     current.Stage,
			"stage":          stage,
		}))
	}
	item := toOpportunityItem(updated)
	return &item, nil
}

// ChangePipeline 切换 pipeline；未指定 stage 时重置为新 pipeline 的第一个 stage
func (s *OpportunityService) ChangePipeline(ctx context.Context, tenantID, opportunityID, pipelineID string, stage *string) (*OpportunityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if pipelineID == "" {
		return nil, invalid("pipeline_id is required")
	}
	current, err := s.opportunities.GetOpportunity(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, err
	}
	next, err := s.pipelines.GetPipeline(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	newStage, err := pipeline.ResolvePipelineChange(current, next, stage)
	if err != nil {
		return nil, err
	}

	updated, err := s.opportunities.UpdatePipelineAndStage(ctx, tenantID, opportunityID, next.PipelineID, newStage, s.now())
	if err != nil {
		return nil, err
	}

	if current.PipelineID != next.PipelineID || current.Stage != newStage {
		publish(ctx, s.publisher, s.logger, events.New(domain.EventOpportunityPipeline, tenantID, updated.ContactID, map[string]string{
			"opportunity_id":   opportunityID,
			"from_pipeline_id": current.PipelineID,
			"pipeline_id":      next.PipelineID,
			"stage":            newStage,
		}))
	}
	item := toOpportunityItem(updated)
	return &item, nil
}

// UpdateOpportunityRequest 只允许修改 value / owner / next_follow_up_date
type UpdateOpportunityRequest struct {
	Value            *float64   `json:"value"`
	Owner            string     `json:"owner"`
	NextFollowUpDate *time.Time `json:"next_follow_up_date"`
}

// UpdateOpportunity stage 和 pipeline 走专门的迁移接口
func (s *OpportunityService) UpdateOpportunity(ctx context.Context, tenantID, opportunityID string, req UpdateOpportunityRequest) (*OpportunityItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if req.Value != nil && *req.Value < 0 {
		return nil, invalid("value must not be negative")
	}
	o, err := s.opportunities.GetOpportunity(ctx, tenantID, opportunityID)
	if err != nil {
		return nil, err
	}
	o.Value = req.Value
	o.Owner = strings.TrimSpace(req.Owner)
	o.NextFollowUpDate = req.NextFollowUpDate
	if err := s.opportunities.UpdateOpportunity(ctx, o); err != nil {
		return nil, err
	}
	item := toOpportunityItem(o)
	return &item, nil
}

// DeleteOpportunity 硬删除
func (s *OpportunityService) DeleteOpportunity(ctx context.Context, tenantID, opportunityID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.opportunities.DeleteOpportunity(ctx, tenantID, opportunityID)
}

// BulkAssignRequest 批量分配请求
type BulkAssignRequest struct {
	ContactIDs []string `json:"contact_ids"`
	PipelineID string   `json:"pipeline_id"`
	Stage      string   `json:"stage"`
	Owner      string   `json:"owner"`
}

// BulkAssignResponse 批量分配结果
type BulkAssignResponse struct {
	Assigned int    `json:"assigned"`
	Replaced int    `json:"replaced"`
	Stage    string `json:"stage"`
}

// BulkAssign 把一批联系人放进 pipeline：同一事务内先删除它们在任何 pipeline 下的 opportunity 再插入
// 保证每个联系人最终只有一条 opportunity
func (s *OpportunityService) BulkAssign(ctx context.Context, tenantID string, req BulkAssignRequest) (*BulkAssignResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	ids := dedupe(req.ContactIDs)
	if len(ids) == 0 {
		return nil, invalid("contact_ids is required")
	}
	if req.PipelineID == "" {
		return nil, invalid("pipeline_id is required")
	}

	p, err := s.pipelines.GetPipeline(ctx, tenantID, req.PipelineID)
	if err != nil {
		return nil, err
	}
	stage, err := pipeline.ResolveStage(p, req.Stage)
	if err != nil {
		return nil, err
	}

	now := s.now()
	owner := strings.TrimSpace(req.Owner)
	opps := make([]*domain.Opportunity, 0, len(ids))
	for _, id := range ids {
		opps = append(opps, &domain.Opportunity{
			TenantID:       tenantID,
			ContactID:      id,
			PipelineID:     p.PipelineID,
			Stage:          stage,
			Owner:          owner,
			CreatedAt:      now,
			UpdatedAt:      now,
			StageChangedAt: now,
		})
	}

	replaced, err := s.opportunities.ReplaceForContacts(ctx, tenantID, ids, opps)
	if err != nil {
		s.logger.Error("Bulk assign failed",
			zap.String("pipeline_id", p.PipelineID),
			zap.Int("contacts", len(ids)),
			zap.Error(err),
		)
		return nil, err
	}

	for _, o := range opps {
		publish(ctx, s.publisher, s.logger, events.New(domain.EventOpportunityAssigned, tenantID, o.ContactID, map[string]string{
			"opportunity_id": o.OpportunityID,
			"pipeline_id":    p.PipelineID,
			"stage":          stage,
			"owner":          owner,
		}))
	}
	s.logger.Info("Bulk assigned contacts",
		zap.String("pipeline_id", p.PipelineID),
		zap.Int("assigned", len(opps)),
		zap.Int("replaced", replaced),
	)
	return &BulkAssignResponse{Assigned: len(opps), Replaced: replaced, Stage: stage}, nil
}

// dedupe 去空、去重，保持原顺序
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
