package services

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMTemperature    = "llm.temperature"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyVectorDims        = "vector_index.dimensions"
	keyVectorPrecision   = "vector_index.precision"
	keyChunkSize         = "ingest.chunk_size"
	keyChunkOverlap      = "ingest.chunk_overlap"
	keyMinContent        = "ingest.min_content"
	keyEmbedRate         = "ingest.embed_rate"
	keyEmbedBurst        = "ingest.embed_burst"
	keyEmbedConcurrency  = "ingest.embed_concurrency"
	keyMaxUploadBytes    = "ingest.max_upload_bytes"
	keyCandidates        = "retrieval.candidates"
	keyLimit             = "retrieval.limit"
	keyContextBudget     = "retrieval.context_budget"
	keyHistoryTurns      = "retrieval.history_turns"
	keyMinScore          = "retrieval.min_score"
	keyAccuracyWindow    = "analytics.accuracy_window"
	keyLogLimit          = "analytics.log_limit"
	keyServerAddr        = "server.addr"
	keyAllowAnonymous    = "server.allow_anonymous"
	keyShutdownTimeout   = "server.shutdown_timeout"
	defaultOllamaBaseURL = "http://localhost:11434"
)

// apiKeyEnv maps providers to the environment variables consulted when no
// key is stored in the config file.
var apiKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:       s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, d.LLM.MaxTokens),
		},
		VectorIndex: domain.VectorIndexSettings{
			Dimensions: s.getInt(keyVectorDims, d.VectorIndex.Dimensions),
			Precision:  s.getVectorPrecision(d.VectorIndex.Precision),
		},
		Ingest: domain.IngestSettings{
			ChunkSize:        s.getInt(keyChunkSize, d.Ingest.ChunkSize),
			ChunkOverlap:     s.getInt(keyChunkOverlap, d.Ingest.ChunkOverlap),
			MinContent:       s.getInt(keyMinContent, d.Ingest.MinContent),
			EmbedRate:        s.getFloat(keyEmbedRate, d.Ingest.EmbedRate),
			EmbedBurst:       s.getInt(keyEmbedBurst, d.Ingest.EmbedBurst),
			EmbedConcurrency: s.getInt(keyEmbedConcurrency, d.Ingest.EmbedConcurrency),
			MaxUploadBytes:   int64(s.getInt(keyMaxUploadBytes, int(d.Ingest.MaxUploadBytes))),
		},
		Retrieval: domain.RetrievalSettings{
			Candidates:    s.getInt(keyCandidates, d.Retrieval.Candidates),
			Limit:         s.getInt(keyLimit, d.Retrieval.Limit),
			ContextBudget: s.getInt(keyContextBudget, d.Retrieval.ContextBudget),
			HistoryTurns:  s.getInt(keyHistoryTurns, d.Retrieval.HistoryTurns),
			MinScore:      s.getFloat(keyMinScore, d.Retrieval.MinScore),
		},
		Analytics: domain.AnalyticsSettings{
			AccuracyWindow: s.getInt(keyAccuracyWindow, d.Analytics.AccuracyWindow),
			LogLimit:       s.getInt(keyLogLimit, d.Analytics.LogLimit),
		},
		Server: domain.ServerSettings{
			Addr:            s.getString(keyServerAddr, d.Server.Addr),
			AllowAnonymous:  s.getBool(keyAllowAnonymous, d.Server.AllowAnonymous),
			ShutdownTimeout: s.getDuration(keyShutdownTimeout, d.Server.ShutdownTimeout),
		},
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envAPIKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set, so keys supplied by the environment
// never end up in the config file unless the user stored them explicitly.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyVectorDims, settings.VectorIndex.Dimensions},
		{keyVectorPrecision, settings.VectorIndex.Precision.String()},
		{keyChunkSize, settings.Ingest.ChunkSize},
		{keyChunkOverlap, settings.Ingest.ChunkOverlap},
		{keyMinContent, settings.Ingest.MinContent},
		{keyEmbedRate, settings.Ingest.EmbedRate},
		{keyEmbedBurst, settings.Ingest.EmbedBurst},
		{keyEmbedConcurrency, settings.Ingest.EmbedConcurrency},
		{keyMaxUploadBytes, settings.Ingest.MaxUploadBytes},
		{keyCandidates, settings.Retrieval.Candidates},
		{keyLimit, settings.Retrieval.Limit},
		{keyContextBudget, settings.Retrieval.ContextBudget},
		{keyHistoryTurns, settings.Retrieval.HistoryTurns},
		{keyMinScore, settings.Retrieval.MinScore},
		{keyAccuracyWindow, settings.Analytics.AccuracyWindow},
		{keyLogLimit, settings.Analytics.LogLimit},
		{keyServerAddr, settings.Server.Addr},
		{keyAllowAnonymous, settings.Server.AllowAnonymous},
		{keyShutdownTimeout, settings.Server.ShutdownTimeout.String()},
	}
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.envAPIKey(settings.Embedding.Provider) {
		values = append(values, struct {
			key   string
			value any
		}{keyEmbedAPIKey, settings.Embedding.APIKey})
	}
	if settings.LLM.APIKey != "" && settings.LLM.APIKey != s.envAPIKey(settings.LLM.Provider) {
		values = append(values, struct {
			key   string
			value any
		}{keyLLMAPIKey, settings.LLM.APIKey})
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
// The vector dimension follows the model so that chunks embedded by the old
// model are detected as mismatched instead of being compared silently.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.VectorIndex.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrNotConfigured, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrNotConfigured, settings.LLM.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func baseURLFor(provider domain.AIProvider, current string) string {
	if provider != domain.AIProviderOllama {
		// Cloud providers don't need a custom base URL
		return ""
	}
	if current == "" {
		return defaultOllamaBaseURL
	}
	return current
}

func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	name, ok := apiKeyEnv[provider]
	if !ok || s.getenv == nil {
		return ""
	}
	return s.getenv(name)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorPrecision(defaultVal domain.VectorPrecision) domain.VectorPrecision {
	val := s.configStore.GetString(keyVectorPrecision)
	if val == "" {
		return defaultVal
	}
	precision := domain.VectorPrecision(val)
	if !precision.IsValid() {
		return defaultVal
	}
	return precision
}
