package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ExtractorHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ExtractorModel)
	assert.Equal(t, "none", cfg.Token)
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("https://api.openai.com/v1"),
		WithEmbeddingModel("custom-embed"),
		WithExtractorModel("custom-extract"),
		WithToken("sk-test"),
	)

	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "https://api.openai.com/v1", cfg.ExtractorHost)
	assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
	assert.Equal(t, "custom-extract", cfg.ExtractorModel)
	assert.Equal(t, "sk-test", cfg.Token)
}

func TestConfigNormalizeAddsVersionSuffix(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("http://localhost:8080"),
		WithExtractorHost("http://localhost:9090/"),
	)
	cfg.Normalize()

	assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:9090/v1", cfg.ExtractorHost)

	// Already canonical hosts are untouched
	cfg.Normalize()
	assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
}

func TestConfigValidate(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	cfg = NewConfig(WithEmbeddingHost(""))
	assert.Error(t, cfg.Validate())

	cfg = NewConfig(WithExtractorModel(""))
	assert.Error(t, cfg.Validate())

	// An empty token falls back to "none" rather than failing
	cfg = NewConfig(WithToken(""))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "none", cfg.Token)
}

func TestVocabularies(t *testing.T) {
	for _, category := range ConceptCategories {
		assert.True(t, ValidCategory(category))
	}
	assert.False(t, ValidCategory("framework"))
	assert.False(t, ValidCategory(""))

	for _, relType := range RelationshipTypes {
		assert.True(t, ValidRelationshipType(relType))
	}
	assert.False(t, ValidRelationshipType("related"))
	assert.False(t, ValidRelationshipType(""))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimited))
	assert.True(t, IsRetryable(ErrService))
	assert.False(t, IsRetryable(ErrMalformedResponse))
	assert.False(t, IsRetryable(nil))
}
