// Package service 业务逻辑层：参数校验、调用 repository、发布领域事件
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
)

// invalid 构造字段校验错误
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

func requireTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return invalid("tenant_id is required")
	}
	return nil
}

// publish 发布失败只记日志，不影响主流程
func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, ev domain.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		logger.Warn("Failed to publish domain event",
			zap.String("type", string(ev.Type)),
			zap.String("tenant_id", ev.TenantID),
			zap.Error(err),
		)
	}
}

func utcNow() time.Time { return time.Now().UTC() }

// derefAll repository 返回指针切片，scoring / pipeline 使用值切片
func derefAll[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
