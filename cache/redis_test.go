package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/league-draw/models"
)

// redisClient connects to REDIS_TEST_ADDR or skips the test.
func redisClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	c, err := New(ctx, ClientConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisLockManager(t *testing.T) {
	lm := NewLockManager(redisClient(t))
	key := "test-" + uuid.NewString()
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, key, 10*time.Second)
	require.NoError(t, err)

	_, err = lm.Acquire(ctx, key, 10*time.Second)
	require.ErrorIs(t, err, ErrLockHeld)

	unlock()
	unlock, err = lm.Acquire(ctx, key, 10*time.Second)
	require.NoError(t, err)
	unlock()
}

func TestRedisDrawCache(t *testing.T) {
	dc := NewDrawCache(redisClient(t), time.Minute)
	ctx := context.Background()
	competition := "test-" + uuid.NewString()

	_, err := dc.Latest(ctx, competition)
	require.ErrorIs(t, err, ErrMiss)

	record := &models.DrawRecord{
		ID:          uuid.NewString(),
		Competition: competition,
		Seed:        42,
		Attempts:    3,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, dc.Set(ctx, record))

	got, err := dc.Latest(ctx, competition)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, int64(42), got.Seed)
	assert.True(t, record.CreatedAt.Equal(got.CreatedAt))
}
