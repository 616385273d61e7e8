package repository

import (
	"context"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// ActivitiesRepository 活动记录只追加
type ActivitiesRepository interface {
	// ListByContact 按 logged_at DESC 排序
	ListByContact(ctx context.Context, tenantID, contactID string) ([]*domain.Activity, error)

	// LogActivity 同一事务内插入 activity 并更新 contacts.last_contacted_at = logged_at
	LogActivity(ctx context.Context, a *domain.Activity) error
}
