package repository

import (
	"context"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// PipelinesRepository 销售管道Repository接口
type PipelinesRepository interface {
	GetPipeline(ctx context.Context, tenantID, pipelineID string) (*domain.Pipeline, error)

	// ListPipelines 按 name 排序
	ListPipelines(ctx context.Context, tenantID string) ([]*domain.Pipeline, error)

	CreatePipeline(ctx context.Context, p *domain.Pipeline) error

	// UpdatePipeline 更新 name 和 stages；不迁移已有 opportunity 的 stage
	UpdatePipeline(ctx context.Context, p *domain.Pipeline) error

	DeletePipeline(ctx context.Context, tenantID, pipelineID string) error
}
