// Package consumer 消费领域事件流，驱动自动化规则
package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	rediscommon "github.com/Pristinepartners/pristine-crm-sub000/common/redis"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
)

// EventHandler 处理单个事件（automation.Runner 实现）
type EventHandler interface {
	Handle(ctx context.Context, ev domain.Event) (int, error)
}

// Options 消费者参数
type Options struct {
	Stream       string
	GroupName    string
	ConsumerName string
	BatchSize    int64
	Block        time.Duration // <= 0 时不阻塞读，空闲时按 PollInterval 轮询
	PollInterval time.Duration

	// RetryInterval 处理失败的消息留在 pending，间隔这么久后重新投递给 handler
	RetryInterval time.Duration
}

// AutomationConsumer 自动化事件消费者
type AutomationConsumer struct {
	redisClient *redis.Client
	handler     EventHandler
	logger      *zap.Logger
	opts        Options

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewAutomationConsumer 创建消费者
func NewAutomationConsumer(redisClient *redis.Client, handler EventHandler, opts Options, logger *zap.Logger) *AutomationConsumer {
	if opts.Stream == "" {
		opts.Stream = events.DefaultStream
	}
	if opts.GroupName == "" {
		opts.GroupName = "crm-automations"
	}
	if opts.ConsumerName == "" {
		opts.ConsumerName = "crm-automations-1"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 5 * time.Second
	}
	return &AutomationConsumer{
		redisClient:    redisClient,
		handler:        handler,
		logger:         logger,
		opts:           opts,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
}

// Start 阻塞运行直到 ctx 取消
func (c *AutomationConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.opts.Stream, c.opts.GroupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Automation consumer started",
		zap.String("stream", c.opts.Stream),
		zap.String("consumer_group", c.opts.GroupName),
		zap.String("consumer_name", c.opts.ConsumerName),
	)

	backoff := c.initialBackoff
	// 启动时先处理上次退出前未 ack 的消息
	retryAt := time.Now()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Automation consumer stopped")
			return nil
		default:
		}

		if !retryAt.IsZero() && !time.Now().Before(retryAt) {
			failed, err := c.consumePending(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					continue
				}
				c.logger.Error("Failed to read pending events", zap.Error(err))
				retryAt = time.Now().Add(c.opts.RetryInterval)
			case failed > 0:
				retryAt = time.Now().Add(c.opts.RetryInterval)
			default:
				retryAt = time.Time{}
			}
		}

		n, failed, err := c.consumeEvents(ctx)
		if failed > 0 && retryAt.IsZero() {
			retryAt = time.Now().Add(c.opts.RetryInterval)
		}
		switch {
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			c.logger.Error("Failed to consume events", zap.Error(err), zap.Duration("backoff", backoff))
			if !sleep(ctx, backoff) {
				continue
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		case n == 0 && c.opts.Block <= 0:
			backoff = c.initialBackoff
			sleep(ctx, c.opts.PollInterval)
		default:
			backoff = c.initialBackoff
		}
	}
}

// consumeEvents 读取一批新消息；返回读到的条数和处理失败的条数
func (c *AutomationConsumer) consumeEvents(ctx context.Context) (int, int, error) {
	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient, c.opts.Stream, c.opts.GroupName, c.opts.ConsumerName, c.opts.BatchSize, c.opts.Block)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read from stream: %w", err)
	}
	return len(messages), c.handleBatch(ctx, messages), nil
}

// consumePending 重新处理本消费者 pending 列表中的全部消息；返回仍然失败的条数
func (c *AutomationConsumer) consumePending(ctx context.Context) (int, error) {
	failed := 0
	after := "0"
	for ctx.Err() == nil {
		messages, err := rediscommon.ReadPending(ctx, c.redisClient, c.opts.Stream, c.opts.GroupName, c.opts.ConsumerName, after, c.opts.BatchSize)
		if err != nil {
			return failed, fmt.Errorf("failed to read pending: %w", err)
		}
		if len(messages) == 0 {
			break
		}
		failed += c.handleBatch(ctx, messages)
		after = messages[len(messages)-1].ID
	}
	if failed > 0 {
		c.logger.Warn("Pending events still failing", zap.Int("failed", failed), zap.Duration("retry_in", c.opts.RetryInterval))
	}
	return failed, nil
}

// handleBatch 成功的消息 ack，失败的不 ack，留在 pending 列表中等待重试
func (c *AutomationConsumer) handleBatch(ctx context.Context, messages []rediscommon.StreamMessage) int {
	failed := 0
	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Failed to process event", zap.String("message_id", msg.ID), zap.Error(err))
			failed++
			continue
		}
		if err := rediscommon.Ack(ctx, c.redisClient, c.opts.Stream, c.opts.GroupName, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return failed
}

// processMessage 无法解析的消息直接确认丢弃
func (c *AutomationConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	ev, err := events.Decode(msg)
	if err != nil {
		c.logger.Warn("Dropping malformed event", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	if ev.TenantID == "" || !domain.IsValidTrigger(string(ev.Type)) {
		c.logger.Warn("Dropping unknown event",
			zap.String("message_id", msg.ID),
			zap.String("type", string(ev.Type)),
		)
		return nil
	}

	executed, err := c.handler.Handle(ctx, ev)
	if err != nil {
		return err
	}
	if executed > 0 {
		c.logger.Info("Automations executed",
			zap.String("event_id", ev.EventID),
			zap.String("type", string(ev.Type)),
			zap.Int("executed", executed),
		)
	}
	return nil
}

// sleep ctx 取消时返回 false
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
