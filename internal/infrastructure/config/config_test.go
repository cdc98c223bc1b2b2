package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.OpenRouter.Enabled)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1000, cfg.Cache.MaxSize)
	assert.InDelta(t, 0.5, cfg.Pipeline.LowConfidenceThreshold, 0.001)
	assert.InDelta(t, 0.5, cfg.Pipeline.QuantityTolerance, 0.001)
	assert.InDelta(t, 0.35, cfg.Pipeline.MissingMinConfidence, 0.001)
	assert.Equal(t, int64(5*1024*1024), cfg.Fetcher.MaxBytes)
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Cache: CacheConfig{
				Enabled:         true,
				MaxSize:         100,
				TTL:             time.Hour,
				CleanupInterval: time.Minute,
			},
			Pipeline: PipelineConfig{
				LowConfidenceThreshold: 0.5,
				QuantityTolerance:      0.5,
				MissingMinConfidence:   0.35,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validateConfig(base()))
	})

	t.Run("missing port rejected", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("out-of-range threshold rejected", func(t *testing.T) {
		cfg := base()
		cfg.Pipeline.LowConfidenceThreshold = 1.5
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("zero tolerance rejected", func(t *testing.T) {
		cfg := base()
		cfg.Pipeline.QuantityTolerance = 0
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("cache checks skipped when disabled", func(t *testing.T) {
		cfg := base()
		cfg.Cache = CacheConfig{Enabled: false}
		assert.NoError(t, validateConfig(cfg))
	})
}
