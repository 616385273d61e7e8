package repository

import (
	"context"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// ContactsRepository 联系人Repository接口
type ContactsRepository interface {
	// GetContact 不存在返回 domain.ErrNotFound
	GetContact(ctx context.Context, tenantID, contactID string) (*domain.Contact, error)

	// ListContacts 按 created_at DESC 排序；size <= 0 时返回全部（导出用）
	ListContacts(ctx context.Context, tenantID string, filter ContactsFilter, page, size int) ([]*domain.Contact, int, error)

	// CreateContact 写入后回填 ContactID / CreatedAt / UpdatedAt
	CreateContact(ctx context.Context, c *domain.Contact) error

	// BulkCreateContacts CSV 导入：单事务批量插入，返回插入条数
	BulkCreateContacts(ctx context.Context, tenantID string, contacts []*domain.Contact) (int, error)

	UpdateContact(ctx context.Context, c *domain.Contact) error

	// DeleteContact 硬删除（opportunities/activities/appointments 由外键级联）
	DeleteContact(ctx context.Context, tenantID, contactID string) error

	// TouchLastContacted 记录 activity 时更新 last_contacted_at
	TouchLastContacted(ctx context.Context, tenantID, contactID string, at time.Time) error
}

// ContactsFilter 联系人查询过滤器
type ContactsFilter struct {
	Search    string // 可选，name/email/business_name 模糊匹配
	Owner     string
	LeadScore string // hot/warm/cold
	Source    string
}
