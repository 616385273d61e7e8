package repository

import (
	"context"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// AutomationsRepository 自动化规则Repository接口
type AutomationsRepository interface {
	ListAutomations(ctx context.Context, tenantID string) ([]*domain.Automation, error)

	// ListEnabledByTrigger consumer 按事件类型取启用的规则
	ListEnabledByTrigger(ctx context.Context, tenantID, trigger string) ([]*domain.Automation, error)

	GetAutomation(ctx context.Context, tenantID, automationID string) (*domain.Automation, error)
	CreateAutomation(ctx context.Context, a *domain.Automation) error
	UpdateAutomation(ctx context.Context, a *domain.Automation) error
	DeleteAutomation(ctx context.Context, tenantID, automationID string) error
}
