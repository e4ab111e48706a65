package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, 3072, cfg.EmbeddingDim)
	assert.Equal(t, 0.7, cfg.VectorWeight)
	assert.Equal(t, 0.3, cfg.TextWeight)
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 20, cfg.DefaultLimit)
	assert.Equal(t, 100, cfg.MaxLimit)
	assert.False(t, cfg.Verbose)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PLANRAG_DB_PATH", "/tmp/test.db")
	t.Setenv("PLANRAG_EMBEDDING_DIM", "1536")
	t.Setenv("PLANRAG_VECTOR_WEIGHT", "0.6")
	t.Setenv("PLANRAG_TEXT_WEIGHT", "0.4")
	t.Setenv("PLANRAG_CACHE_TTL", "48h")
	t.Setenv("PLANRAG_DEFAULT_LIMIT", "10")
	t.Setenv("PLANRAG_MAX_LIMIT", "50")
	t.Setenv("PLANRAG_VERBOSE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 1536, cfg.EmbeddingDim)
	assert.Equal(t, 0.6, cfg.VectorWeight)
	assert.Equal(t, 0.4, cfg.TextWeight)
	assert.Equal(t, 48*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.DefaultLimit)
	assert.Equal(t, 50, cfg.MaxLimit)
	assert.True(t, cfg.Verbose)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("PLANRAG_EMBEDDING_DIM", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	t.Setenv("PLANRAG_DEFAULT_LIMIT", "200")
	t.Setenv("PLANRAG_MAX_LIMIT", "100")
	_, err := Load()
	assert.Error(t, err)
}

func TestEngineOptions(t *testing.T) {
	t.Setenv("PLANRAG_VECTOR_WEIGHT", "0.8")
	t.Setenv("PLANRAG_TEXT_WEIGHT", "0.2")

	cfg, err := Load()
	require.NoError(t, err)

	opts := cfg.EngineOptions()
	assert.Equal(t, 0.8, opts.VectorWeight)
	assert.Equal(t, 0.2, opts.TextWeight)
	assert.Equal(t, cfg.CacheTTL, opts.CacheTTL)
}
