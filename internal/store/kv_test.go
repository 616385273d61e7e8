package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	kv := NewRedisKV(client)
	ctx := context.Background()

	_, err := kv.Get(ctx, "crm:import:missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "crm:import:abc", `{"headers":["Name"]}`, 30*time.Minute))
	v, err := kv.Get(ctx, "crm:import:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"headers":["Name"]}`, v)

	mr.FastForward(31 * time.Minute)
	_, err = kv.Get(ctx, "crm:import:abc")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Delete(ctx, "k"))
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, kv.Set(ctx, "forever", "x", 0))
	now = now.Add(24 * time.Hour)
	_, err = kv.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestKV_TakeIsOneShot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	for name, kv := range map[string]KV{"redis": NewRedisKV(client), "memory": NewMemoryKV()} {
		require.NoError(t, kv.Set(ctx, "crm:import:t:1", "payload", time.Minute), name)

		v, err := kv.Take(ctx, "crm:import:t:1")
		require.NoError(t, err, name)
		assert.Equal(t, "payload", v, name)

		_, err = kv.Take(ctx, "crm:import:t:1")
		assert.ErrorIs(t, err, ErrMiss, name)
		_, err = kv.Get(ctx, "crm:import:t:1")
		assert.ErrorIs(t, err, ErrMiss, name)
	}
}

func TestMemoryKV_ConcurrentTake(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "k", "v", 0))

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := kv.Take(ctx, "k"); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}
