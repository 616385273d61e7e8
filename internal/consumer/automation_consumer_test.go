package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	rediscommon "github.com/Pristinepartners/pristine-crm-sub000/common/redis"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
)

const tenant = "00000000-0000-0000-0000-000000000001"

type fakeHandler struct {
	mu     sync.Mutex
	seen   []domain.Event
	failOn domain.EventType
	// failFirst 前 n 次调用失败
	failFirst int
}

func (h *fakeHandler) Handle(_ context.Context, ev domain.Event) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, ev)
	if ev.Type == h.failOn || len(h.seen) <= h.failFirst {
		return 0, errors.New("webhook down")
	}
	return 1, nil
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func TestAutomationConsumer_AcksHandledEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := events.NewRedisPublisher(client, "test:events")
	handler := &fakeHandler{failOn: domain.EventTaskCompleted}
	c := NewAutomationConsumer(client, handler, Options{
		Stream:       "test:events",
		GroupName:    "g",
		ConsumerName: "c1",
		PollInterval: 10 * time.Millisecond,
	}, zap.NewNop())

	// 先建组，保证之后发布的消息都能被读到
	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, "test:events", "g"))

	require.NoError(t, pub.Publish(ctx, events.New(domain.EventContactCreated, tenant, "c-1", map[string]string{"name": "Ann"})))
	require.NoError(t, pub.Publish(ctx, events.New(domain.EventTaskCompleted, tenant, "c-1", nil)))
	_, err = client.XAdd(ctx, &redis.XAddArgs{Stream: "test:events", Values: map[string]interface{}{"data": "not json"}}).Result()
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, events.New("unknown.event", tenant, "", nil)))

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return handler.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	// 处理失败的那条留在 pending，其余均已 ack
	require.Eventually(t, func() bool {
		pending, err := client.XPending(ctx, "test:events", "g").Result()
		return err == nil && pending.Count == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, domain.EventContactCreated, handler.seen[0].Type)
	assert.Equal(t, "Ann", handler.seen[0].Data["name"])
}

func TestAutomationConsumer_StopsWhileBackingOff(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	c := NewAutomationConsumer(client, &fakeHandler{}, Options{Stream: "s", GroupName: "g", PollInterval: 10 * time.Millisecond}, zap.NewNop())
	c.initialBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	// 建组完成后关掉 redis，消费循环进入退避
	require.Eventually(t, func() bool { return mr.Exists("s") }, time.Second, 5*time.Millisecond)
	mr.Close()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestAutomationConsumer_RetriesFailedEvents(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := &fakeHandler{failFirst: 1}
	c := NewAutomationConsumer(client, handler, Options{
		Stream:        "test:events",
		GroupName:     "g",
		ConsumerName:  "c1",
		PollInterval:  10 * time.Millisecond,
		RetryInterval: 20 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, "test:events", "g"))

	pub := events.NewRedisPublisher(client, "test:events")
	require.NoError(t, pub.Publish(ctx, events.New(domain.EventContactCreated, tenant, "c-1", nil)))

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return handler.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		pending, err := rediscommon.ReadPending(ctx, client, "test:events", "g", "c1", "", 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Len(t, handler.seen, 2)
	assert.Equal(t, handler.seen[0].EventID, handler.seen[1].EventID)
}

func TestAutomationConsumer_RecoversPendingOnStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rediscommon.CreateConsumerGroup(ctx, client, "test:events", "g"))
	pub := events.NewRedisPublisher(client, "test:events")
	require.NoError(t, pub.Publish(ctx, events.New(domain.EventTaskCompleted, tenant, "c-1", nil)))

	// 上一个进程读到了消息但没来得及 ack
	msgs, err := rediscommon.ReadFromStream(ctx, client, "test:events", "g", "c1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	handler := &fakeHandler{}
	c := NewAutomationConsumer(client, handler, Options{
		Stream:       "test:events",
		GroupName:    "g",
		ConsumerName: "c1",
		PollInterval: 10 * time.Millisecond,
	}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return handler.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		pending, err := rediscommon.ReadPending(ctx, client, "test:events", "g", "c1", "", 10)
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
