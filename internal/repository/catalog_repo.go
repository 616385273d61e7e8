package repository

import (
	"context"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// ClientsRepository 代理机构客户
type ClientsRepository interface {
	ListClients(ctx context.Context, tenantID, status string) ([]*domain.Client, error)
	GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error)
	CreateClient(ctx context.Context, c *domain.Client) error
	UpdateClient(ctx context.Context, c *domain.Client) error
	DeleteClient(ctx context.Context, tenantID, clientID string) error
}

// PropertiesRepository 房源
type PropertiesRepository interface {
	ListProperties(ctx context.Context, tenantID string, filter PropertiesFilter) ([]*domain.Property, error)
	GetProperty(ctx context.Context, tenantID, propertyID string) (*domain.Property, error)
	CreateProperty(ctx context.Context, p *domain.Property) error
	UpdateProperty(ctx context.Context, p *domain.Property) error
	DeleteProperty(ctx context.Context, tenantID, propertyID string) error
}

// PropertiesFilter 房源查询过滤器
type PropertiesFilter struct {
	Status   string
	City     string
	MinPrice *float64
	MaxPrice *float64
}

// ContentAssetsRepository 内容库
type ContentAssetsRepository interface {
	// ListContentAssets assetType/tag 为空时不过滤
	ListContentAssets(ctx context.Context, tenantID, assetType, tag string) ([]*domain.ContentAsset, error)
	GetContentAsset(ctx context.Context, tenantID, assetID string) (*domain.ContentAsset, error)
	CreateContentAsset(ctx context.Context, a *domain.ContentAsset) error
	UpdateContentAsset(ctx context.Context, a *domain.ContentAsset) error
	DeleteContentAsset(ctx context.Context, tenantID, assetID string) error
}

// SubAccountsRepository 子账户
type SubAccountsRepository interface {
	ListSubAccounts(ctx context.Context, tenantID string) ([]*domain.SubAccount, error)
	GetSubAccount(ctx context.Context, tenantID, subAccountID string) (*domain.SubAccount, error)
	CreateSubAccount(ctx context.Context, s *domain.SubAccount) error
	UpdateSubAccount(ctx context.Context, s *domain.SubAccount) error
	DeleteSubAccount(ctx context.Context, tenantID, subAccountID string) error
}
