package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/pipeline"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

// PipelineService 销售管道服务
type PipelineService struct {
	pipelines     repository.PipelinesRepository
	opportunities repository.OpportunitiesRepository
	publisher     events.Publisher
	logger        *zap.Logger
}

// NewPipelineService 创建 PipelineService
func NewPipelineService(pipelines repository.PipelinesRepository, opportunities repository.OpportunitiesRepository, publisher events.Publisher, logger *zap.Logger) *PipelineService {
	return &PipelineService{
		pipelines:     pipelines,
		opportunities: opportunities,
		publisher:     publisher,
		logger:        logger,
	}
}

// PipelineRequest 创建/更新请求
type PipelineRequest struct {
	Name   string   `json:"name"`
	Stages []string `json:"stages"`
}

// normalize 去掉空白 stage；stage 名称大小写敏感，重复视为错误
func (r *PipelineRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalid("pipeline name is required")
	}
	stages := make([]string, 0, len(r.Stages))
	seen := make(map[string]bool, len(r.Stages))
	for _, s := range r.Stages {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if seen[s] {
			return invalid("duplicate stage %q", s)
		}
		seen[s] = true
		stages = append(stages, s)
	}
	r.Stages = stages
	return nil
}

// ListPipelines 查询全部 pipeline
func (s *PipelineService) ListPipelines(ctx context.Context, tenantID string) ([]PipelineItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.pipelines.ListPipelines(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	items := make([]PipelineItem, 0, len(list))
	for _, p := range list {
		items = append(items, toPipelineItem(p))
	}
	return items, nil
}

// GetPipeline 查询单个 pipeline
func (s *PipelineService) GetPipeline(ctx context.Context, tenantID, pipelineID string) (*PipelineItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	p, err := s.pipelines.GetPipeline(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	item := toPipelineItem(p)
	return &item, nil
}

// CreatePipeline 允许 stages 为空（此时无法往里放 opportunity）
func (s *PipelineService) CreatePipeline(ctx context.Context, tenantID string, req PipelineRequest) (*PipelineItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	p := &domain.Pipeline{TenantID: tenantID, Name: req.Name, Stages: req.Stages}
	if err := s.pipelines.CreatePipeline(ctx, p); err != nil {
		return nil, err
	}
	item := toPipelineItem(p)
	return &item, nil
}

// UpdatePipelineResponse 更新结果，Orphaned 为因 stage 改名/删除而失配的 opportunity 数
type UpdatePipelineResponse struct {
	Pipeline PipelineItem `json:"pipeline"`
	Orphaned int          `json:"orphaned"`
}

// UpdatePipeline 不迁移已有 opportunity，只报告孤儿数量
func (s *PipelineService) UpdatePipeline(ctx context.Context, tenantID, pipelineID string, req PipelineRequest) (*UpdatePipelineResponse, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.normalize(); err != nil {
		return nil, err
	}
	p, err := s.pipelines.GetPipeline(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	opps, err := s.opportunities.ListOpportunities(ctx, tenantID, repository.OpportunitiesFilter{PipelineID: pipelineID})
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunities: %w", err)
	}
	orphaned := pipeline.CountOrphanedBy(p, req.Stages, derefAll(opps))

	p.Name = req.Name
	p.Stages = req.Stages
	if err := s.pipelines.UpdatePipeline(ctx, p); err != nil {
		return nil, err
	}
	if orphaned > 0 {
		s.logger.Warn("Pipeline update orphaned opportunities",
			zap.String("pipeline_id", pipelineID),
			zap.Int("orphaned", orphaned),
		)
	}
	return &UpdatePipelineResponse{Pipeline: toPipelineItem(p), Orphaned: orphaned}, nil
}

// DeletePipeline 删除 pipeline（其 opportunity 由外键级联删除）
func (s *PipelineService) DeletePipeline(ctx context.Context, tenantID, pipelineID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.pipelines.DeletePipeline(ctx, tenantID, pipelineID)
}

// BoardColumn 看板列
type BoardColumn struct {
	Stage      string            `json:"stage"`
	Cards      []OpportunityItem `json:"cards"`
	TotalValue float64           `json:"total_value"`
}

// BoardView 看板
type BoardView struct {
	Pipeline PipelineItem      `json:"pipeline"`
	Columns  []BoardColumn     `json:"columns"`
	Orphans  []OpportunityItem `json:"orphans"`
}

func toBoardView(b *pipeline.Board) *BoardView {
	v := &BoardView{
		Pipeline: toPipelineItem(&b.Pipeline),
		Columns:  make([]BoardColumn, 0, len(b.Columns)),
		Orphans:  toOpportunityItems(b.Orphans),
	}
	for _, c := range b.Columns {
		v.Columns = append(v.Columns, BoardColumn{
			Stage:      c.Stage,
			Cards:      toOpportunityItems(c.Cards),
			TotalValue: c.TotalValue,
		})
	}
	return v
}

func (s *PipelineService) loadBoard(ctx context.Context, tenantID, pipelineID string) (*pipeline.Board, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	p, err := s.pipelines.GetPipeline(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	opps, err := s.opportunities.ListOpportunities(ctx, tenantID, repository.OpportunitiesFilter{PipelineID: pipelineID})
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunities: %w", err)
	}
	return pipeline.NewBoard(*p, derefAll(opps)), nil
}

// GetBoard 看板视图
func (s *PipelineService) GetBoard(ctx context.Context, tenantID, pipelineID string) (*BoardView, error) {
	b, err := s.loadBoard(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	return toBoardView(b), nil
}

// GetOrphans stage 不在 pipeline 中的 opportunity
func (s *PipelineService) GetOrphans(ctx context.Context, tenantID, pipelineID string) ([]OpportunityItem, error) {
	b, err := s.loadBoard(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	return toOpportunityItems(b.Orphans), nil
}

// MoveCard 拖拽卡片：看板上乐观移动，落库失败时回滚并返回错误
// 返回的看板始终是与数据库一致的状态
func (s *PipelineService) MoveCard(ctx context.Context, tenantID, pipelineID, opportunityID, stage string) (*BoardView, error) {
	b, err := s.loadBoard(ctx, tenantID, pipelineID)
	if err != nil {
		return nil, err
	}
	before, _ := b.Card(opportunityID)

	err = b.Move(opportunityID, stage, func(updated domain.Opportunity) error {
		_, err := s.opportunities.UpdateStage(ctx, tenantID, updated.OpportunityID, updated.Stage, utcNow())
		return err
	})
	if err != nil {
		s.logger.Error("Move card failed",
			zap.String("opportunity_id", opportunityID),
			zap.String("stage", stage),
			zap.Error(err),
		)
		return nil, err
	}

	if before.Stage != stage {
		publish(ctx, s.publisher, s.logger, events.New(domain.EventOpportunityStageChange, tenantID, before.ContactID, map[string]string{
			"opportunity_id": opportunityID,
			"pipeline_id":    pipelineID,
			"from_stage":     before.Stage,
			"stage":          stage,
		}))
	}
	return toBoardView(b), nil
}
