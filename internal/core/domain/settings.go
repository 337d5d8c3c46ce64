package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature for answers.
	Temperature float64

	// MaxTokens caps the length of one answer.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorPrecision defines the precision of the candidate prefilter pass.
type VectorPrecision string

// Available vector precision options.
const (
	// VectorPrecisionFloat32 scores every eligible chunk at full precision.
	VectorPrecisionFloat32 VectorPrecision = "float32"

	// VectorPrecisionInt8 ranks candidates on 8-bit quantized vectors,
	// then rescores the top C at full precision.
	VectorPrecisionInt8 VectorPrecision = "int8"
)

// IsValid returns true if the precision is recognised.
func (p VectorPrecision) IsValid() bool {
	return p == VectorPrecisionFloat32 || p == VectorPrecisionInt8
}

// String returns the string representation.
func (p VectorPrecision) String() string {
	return string(p)
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Dimensions is the embedding vector size D. Every stored chunk records
	// the dimension it was embedded with; a mismatch is fatal.
	Dimensions int

	// Precision selects the candidate prefilter.
	Precision VectorPrecision
}

// IngestSettings holds chunking and embedding-throttle configuration.
type IngestSettings struct {
	// ChunkSize is the window size S in characters.
	ChunkSize int

	// ChunkOverlap is the overlap V in characters.
	ChunkOverlap int

	// MinContent is the trimmed length a window must exceed to become a chunk.
	MinContent int

	// EmbedRate is the steady embedding call rate per second.
	EmbedRate float64

	// EmbedBurst is the token bucket size.
	EmbedBurst int

	// EmbedConcurrency bounds in-flight embedding calls.
	EmbedConcurrency int

	// MaxUploadBytes caps the size of one upload.
	MaxUploadBytes int64
}

// RetrievalSettings holds query-time retrieval configuration.
type RetrievalSettings struct {
	// Candidates is the candidate pool size C.
	Candidates int

	// Limit is the result limit K.
	Limit int

	// ContextBudget is the maximum assembled context size B in characters.
	ContextBudget int

	// HistoryTurns is how many prior conversation turns reach the generator.
	HistoryTurns int

	// MinScore drops results whose similarity is below it.
	MinScore float64
}

// AnalyticsSettings holds accuracy and log listing configuration.
type AnalyticsSettings struct {
	// AccuracyWindow is N, the number of recent queries accuracy covers.
	AccuracyWindow int

	// LogLimit is the default number of logs returned by listings.
	LogLimit int
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// AllowAnonymous lets requests without identity through as employees.
	AllowAnonymous bool

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Ingest      IngestSettings
	Retrieval   RetrievalSettings
	Analytics   AnalyticsSettings
	Server      ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both providers default to a local Ollama so no API key is needed to start.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       DefaultLLMModels()[AIProviderOllama],
			Temperature: 0.5,
			MaxTokens:   1024,
		},
		VectorIndex: VectorIndexSettings{
			Dimensions: 768, // nomic-embed-text default
			Precision:  VectorPrecisionInt8,
		},
		Ingest: IngestSettings{
			ChunkSize:        1000,
			ChunkOverlap:     100,
			MinContent:       50,
			EmbedRate:        5,
			EmbedBurst:       1,
			EmbedConcurrency: 4,
			MaxUploadBytes:   10 << 20,
		},
		Retrieval: RetrievalSettings{
			Candidates:    100,
			Limit:         10,
			ContextBudget: 6000,
			HistoryTurns:  4,
			MinScore:      0.3,
		},
		Analytics: AnalyticsSettings{
			AccuracyWindow: 100,
			LogLimit:       100,
		},
		Server: ServerSettings{
			Addr:            ":5002",
			AllowAnonymous:  true,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Validate checks the numeric relationships the pipeline relies on.
func (s AppSettings) Validate() error {
	switch {
	case s.Ingest.ChunkSize <= 0:
		return fmt.Errorf("%w: ingest.chunk_size must be positive", ErrInvalidInput)
	case s.Ingest.ChunkOverlap < 0 || s.Ingest.ChunkOverlap >= s.Ingest.ChunkSize:
		return fmt.Errorf("%w: ingest.chunk_overlap must be in [0, chunk_size)", ErrInvalidInput)
	case s.Ingest.EmbedRate <= 0 || s.Ingest.EmbedBurst <= 0:
		return fmt.Errorf("%w: ingest.embed_rate and ingest.embed_burst must be positive", ErrInvalidInput)
	case s.Retrieval.Limit <= 0 || s.Retrieval.Candidates <= s.Retrieval.Limit:
		return fmt.Errorf("%w: retrieval.candidates must exceed retrieval.limit", ErrInvalidInput)
	case s.Retrieval.MinScore < -1 || s.Retrieval.MinScore >= 1:
		return fmt.Errorf("%w: retrieval.min_score must be in [-1, 1)", ErrInvalidInput)
	case s.Retrieval.ContextBudget <= 0:
		return fmt.Errorf("%w: retrieval.context_budget must be positive", ErrInvalidInput)
	case s.VectorIndex.Dimensions <= 0:
		return fmt.Errorf("%w: vector_index.dimensions must be positive", ErrInvalidInput)
	case !s.VectorIndex.Precision.IsValid():
		return fmt.Errorf("%w: unknown vector_index.precision %q", ErrInvalidInput, s.VectorIndex.Precision)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
