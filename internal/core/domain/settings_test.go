package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
	assert.False(t, AIProvider("").IsValid())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"empty", EmbeddingSettings{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, 1000, s.Ingest.ChunkSize)
	assert.Equal(t, 100, s.Ingest.ChunkOverlap)
	assert.Equal(t, 100, s.Retrieval.Candidates)
	assert.Equal(t, 10, s.Retrieval.Limit)
	assert.Equal(t, 4, s.Retrieval.HistoryTurns)
	assert.Greater(t, s.Retrieval.MinScore, 0.0, "unrelated questions must fall below the relevance floor")
	assert.Equal(t, 100, s.Analytics.AccuracyWindow)
	assert.Equal(t, EmbeddingDimensions()[s.Embedding.Model], s.VectorIndex.Dimensions)
	assert.True(t, s.Embedding.IsConfigured())
	assert.True(t, s.LLM.IsConfigured())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"zero chunk size", func(s *AppSettings) { s.Ingest.ChunkSize = 0 }},
		{"overlap equals size", func(s *AppSettings) { s.Ingest.ChunkOverlap = s.Ingest.ChunkSize }},
		{"negative overlap", func(s *AppSettings) { s.Ingest.ChunkOverlap = -1 }},
		{"zero rate", func(s *AppSettings) { s.Ingest.EmbedRate = 0 }},
		{"candidates not above limit", func(s *AppSettings) { s.Retrieval.Candidates = s.Retrieval.Limit }},
		{"zero budget", func(s *AppSettings) { s.Retrieval.ContextBudget = 0 }},
		{"zero dimensions", func(s *AppSettings) { s.VectorIndex.Dimensions = 0 }},
		{"bad precision", func(s *AppSettings) { s.VectorIndex.Precision = "float16" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
