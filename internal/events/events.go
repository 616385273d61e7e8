// Package events 领域事件发布：写入 Redis Stream，由 automation consumer 消费
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	commonredis "github.com/Pristinepartners/pristine-crm-sub000/common/redis"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// DefaultStream 默认事件流名
const DefaultStream = "crm:events"

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// New 构造事件，补齐 event_id 和 occurred_at
func New(eventType domain.EventType, tenantID, contactID string, data map[string]string) domain.Event {
	if data == nil {
		data = map[string]string{}
	}
	return domain.Event{
		EventID:    uuid.NewString(),
		Type:       eventType,
		TenantID:   tenantID,
		ContactID:  contactID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// RedisPublisher 通过 XADD 写入 stream
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev domain.Event) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, ev); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Nop 事件关闭时使用
type Nop struct{}

func (Nop) Publish(context.Context, domain.Event) error { return nil }

// Decode 从 stream 消息中解析事件
func Decode(msg commonredis.StreamMessage) (domain.Event, error) {
	var ev domain.Event
	raw, ok := msg.Data()
	if !ok {
		return ev, fmt.Errorf("stream message %s has no data field", msg.ID)
	}
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return ev, fmt.Errorf("failed to decode stream message %s: %w", msg.ID, err)
	}
	return ev, nil
}
