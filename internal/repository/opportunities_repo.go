package repository

import (
	"context"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// OpportunitiesRepository 商机Repository接口
// stage 合法性由 service 层校验，这里只负责读写
type OpportunitiesRepository interface {
	GetOpportunity(ctx context.Context, tenantID, opportunityID string) (*domain.Opportunity, error)

	// ListOpportunities 按 stage_changed_at 排序
	ListOpportunities(ctx context.Context, tenantID string, filter OpportunitiesFilter) ([]*domain.Opportunity, error)

	// ListByContact 按 created_at DESC 排序（第一条为最新）
	ListByContact(ctx context.Context, tenantID, contactID string) ([]*domain.Opportunity, error)

	CreateOpportunity(ctx context.Context, o *domain.Opportunity) error

	// UpdateStage 同时刷新 updated_at 和 stage_changed_at，返回更新后的记录
	UpdateStage(ctx context.Context, tenantID, opportunityID, stage string, at time.Time) (*domain.Opportunity, error)

	// UpdatePipelineAndStage 切换 pipeline，stage 由调用方决定
	UpdatePipelineAndStage(ctx context.Context, tenantID, opportunityID, pipelineID, stage string, at time.Time) (*domain.Opportunity, error)

	// UpdateOpportunity 只更新 value / owner / next_follow_up_date
	UpdateOpportunity(ctx context.Context, o *domain.Opportunity) error

	DeleteOpportunity(ctx context.Context, tenantID, opportunityID string) error

	// ReplaceForContacts 单事务：先删除这些 contact 在任意 pipeline 下的 opportunity，再插入 opps
	// 返回删除条数
	ReplaceForContacts(ctx context.Context, tenantID string, contactIDs []string, opps []*domain.Opportunity) (int, error)
}

// OpportunitiesFilter 商机查询过滤器
type OpportunitiesFilter struct {
	PipelineID string
	ContactID  string
	Stage      string
	Owner      string
}
