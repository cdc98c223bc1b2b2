package cache

import (
	"context"
	"testing"
	"time"

	"recipe-pipeline/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(maxSize int) *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:         true,
			MaxSize:         maxSize,
			TTL:             time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

func TestManagerDisabled(t *testing.T) {
	cfg := testConfig(10)
	cfg.Cache.Enabled = false

	m := NewManager(cfg)
	assert.Nil(t, m)
	// nil 管理器的 Close 是安全的
	assert.NoError(t, m.Close())
}

func TestManagerSetGet(t *testing.T) {
	m := NewManager(testConfig(10))
	require.NotNil(t, m)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "prompt-a", "", "answer-a"))

	val, err := m.Get(ctx, "prompt-a", "")
	require.NoError(t, err)
	assert.Equal(t, "answer-a", val)

	_, err = m.Get(ctx, "prompt-b", "")
	assert.Error(t, err)
}

func TestManagerImageKeyedEntries(t *testing.T) {
	m := NewManager(testConfig(10))
	require.NotNil(t, m)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "describe", "image-one", "a cake"))
	require.NoError(t, m.Set(ctx, "describe", "image-two", "a soup"))

	val, err := m.Get(ctx, "describe", "image-one")
	require.NoError(t, err)
	assert.Equal(t, "a cake", val)

	val, err = m.Get(ctx, "describe", "image-two")
	require.NoError(t, err)
	assert.Equal(t, "a soup", val)
}

func TestManagerEvictsWhenFull(t *testing.T) {
	m := NewManager(testConfig(2))
	require.NotNil(t, m)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "p1", "", "v1"))
	require.NoError(t, m.Set(ctx, "p2", "", "v2"))
	// 容量滿時 LRU 淘汰讓新值進得來
	require.NoError(t, m.Set(ctx, "p3", "", "v3"))

	val, err := m.Get(ctx, "p3", "")
	require.NoError(t, err)
	assert.Equal(t, "v3", val)

	stats := m.GetStats()
	assert.Equal(t, "memory", stats["backend"])
}
