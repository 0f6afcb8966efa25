//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for the Redis cache
// Run with: go test -v -tags=integration ./internal/cache/...

func setupTestCache(t *testing.T) *RedisCache {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	c, err := NewRedisCache(Config{Host: host, Port: "6379", DB: 15})
	require.NoError(t, err, "Failed to connect to test Redis")
	return c
}

type payload struct {
	Home float64 `json:"home"`
	Away float64 `json:"away"`
}

func TestSetGet(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()
	ctx := context.Background()

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.Set(ctx, key, payload{Home: 0.64, Away: 0.36}, time.Minute))

	var got payload
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{Home: 0.64, Away: 0.36}, got)
}

func TestGetMiss(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()

	var got payload
	hit, err := c.Get(context.Background(), "test:missing", &got)
	require.NoError(t, err)
	assert.False(t, hit, "Missing key should be a miss, not an error")
}

func TestHealth(t *testing.T) {
	c := setupTestCache(t)
	defer c.Close()

	assert.NoError(t, c.Health(context.Background()))
}
