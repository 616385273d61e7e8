package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonredis "github.com/Pristinepartners/pristine-crm-sub000/common/redis"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

func TestRedisPublisher_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	require.NoError(t, commonredis.CreateConsumerGroup(ctx, client, "crm:test-events", "automations"))

	pub := NewRedisPublisher(client, "crm:test-events")
	ev := New(domain.EventActivityLogged, "t-1", "c-1", map[string]string{"outcome": "Meeting Booked"})
	require.NoError(t, pub.Publish(ctx, ev))

	msgs, err := commonredis.ReadFromStream(ctx, client, "crm:test-events", "automations", "worker-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	got, err := Decode(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, got.EventID)
	assert.Equal(t, domain.EventActivityLogged, got.Type)
	assert.Equal(t, "Meeting Booked", got.Data["outcome"])
	assert.WithinDuration(t, ev.OccurredAt, got.OccurredAt, time.Millisecond)
}

func TestDecode_MissingData(t *testing.T) {
	_, err := Decode(commonredis.StreamMessage{ID: "1-0", Values: map[string]interface{}{"timestamp": "1"}})
	assert.Error(t, err)
}

func TestNew_DefaultsData(t *testing.T) {
	ev := New(domain.EventContactCreated, "t-1", "c-1", nil)
	assert.NotEmpty(t, ev.EventID)
	assert.NotNil(t, ev.Data)
	assert.Equal(t, domain.EventContactCreated, ev.Type)
}
