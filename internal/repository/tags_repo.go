package repository

import (
	"context"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// TagsRepository 标签Repository接口（tags + contact_tags）
type TagsRepository interface {
	ListTags(ctx context.Context, tenantID string) ([]*domain.Tag, error)
	GetTag(ctx context.Context, tenantID, tagID string) (*domain.Tag, error)

	// CreateTag name 在 tenant 内唯一，重复返回 domain.ErrValidation
	CreateTag(ctx context.Context, t *domain.Tag) error

	// DeleteTag 同时删除 contact_tags 中的关联
	DeleteTag(ctx context.Context, tenantID, tagID string) error

	// AddTagToContact 幂等
	AddTagToContact(ctx context.Context, tenantID, contactID, tagID string) error
	RemoveTagFromContact(ctx context.Context, tenantID, contactID, tagID string) error
	ListContactTags(ctx context.Context, tenantID, contactID string) ([]*domain.Tag, error)
}
