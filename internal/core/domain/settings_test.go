package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAIProvider_IsValid tests provider validation
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		provider AIProvider
		expected bool
	}{
		{AIProviderOpenAI, true},
		{AIProviderOllama, true},
		{AIProvider("anthropic"), false},
		{AIProvider(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestChunkerSettings_Validate(t *testing.T) {
	assert.NoError(t, ChunkerSettings{ChunkSize: 1500, Overlap: 100}.Validate())
	assert.ErrorIs(t, ChunkerSettings{ChunkSize: 0}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ChunkerSettings{ChunkSize: 100, Overlap: 100}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, ChunkerSettings{ChunkSize: 100, Overlap: -1}.Validate(), ErrInvalidInput)
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, StorageLocal, s.Storage.Backend)
	assert.Equal(t, "Agente_Livro", s.Storage.DriveRootFolder)
	assert.Equal(t, "text-embedding-3-small", s.Embedding.Model)
	assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
	assert.Equal(t, "whisper-1", s.TranscriptionModel)
	assert.Equal(t, 1500, s.Chunker.ChunkSize)
	assert.Equal(t, 100, s.Chunker.Overlap)
	assert.Equal(t, RetrievalMMR, s.Search.Mode)
	assert.False(t, s.LLM.IsConfigured())
	assert.False(t, s.Google.IsConfigured())
}

func TestSearchSettings_Options(t *testing.T) {
	opts := SearchSettings{K: 8, Mode: RetrievalSimilarity, Lambda: 0.3}.Options()
	assert.Equal(t, SearchOptions{K: 8, Mode: RetrievalSimilarity, Lambda: 0.3, LambdaSet: true}, opts)
}
