package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnvDefaultsToLocal(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")

	emb, err := NewFromEnv(256)
	require.NoError(t, err)
	defer emb.Close()

	assert.Equal(t, ProviderLocal, emb.Provider())
	assert.Equal(t, 256, emb.Dimension())
}

func TestNewFromEnvExplicitProvider(t *testing.T) {
	t.Setenv(EnvProvider, "local")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")

	emb, err := NewFromEnv(64)
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, emb.Provider(), "explicit provider beats API key auto-detect")
}

func TestNewFromEnvAutoDetectsOpenAI(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")

	emb, err := NewFromEnv(0)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, emb.Provider())
	assert.Equal(t, OpenAIDimension, emb.Dimension())
}

func TestNewFromEnvUnknownProvider(t *testing.T) {
	t.Setenv(EnvProvider, "cohere")
	_, err := NewFromEnv(0)
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestNewExplicitConfig(t *testing.T) {
	emb, err := New(Config{Provider: "local", Dimension: 48, CacheSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 48, emb.Dimension())

	_, err = New(Config{Provider: "unknown"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvProvider, "LOCAL")
	assert.Equal(t, ProviderLocal, DetectProvider())
}
