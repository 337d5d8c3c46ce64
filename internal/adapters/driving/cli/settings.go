package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

var (
	providerFlag string
	modelFlag    string
	apiKeyFlag   string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking, retrieval and server options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure both AI providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for ingestion and retrieval.
Without --provider the command prompts interactively.

Changing the embedding model changes the vector dimension; documents indexed
with the previous model must be ingested again.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM provider that generates answers.
Without --provider the command prompts interactively.`,
	RunE: runSettingsLLM,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a tuning value",
	Long: `Set one tuning value. Available keys:

` + settingKeysHelp(),
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate settings and check provider connectivity",
	RunE:  runSettingsCheck,
}

func init() {
	for _, c := range []*cobra.Command{settingsEmbeddingCmd, settingsLLMCmd} {
		c.Flags().StringVar(&providerFlag, "provider", "", "provider: ollama, openai or anthropic")
		c.Flags().StringVar(&modelFlag, "model", "", "model name (default: provider default)")
		c.Flags().StringVar(&apiKeyFlag, "api-key", "", "API key for cloud providers")
	}

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(render(cmd, headingStyle, "Current Settings"))
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Dimensions: %d\n", settings.VectorIndex.Dimensions)
	cmd.Printf("  Precision: %s\n", settings.VectorIndex.Precision)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Chunk size: %d (overlap %d, min content %d)\n",
		settings.Ingest.ChunkSize, settings.Ingest.ChunkOverlap, settings.Ingest.MinContent)
	cmd.Printf("  Embedding rate: %.1f/s (burst %d, concurrency %d)\n",
		settings.Ingest.EmbedRate, settings.Ingest.EmbedBurst, settings.Ingest.EmbedConcurrency)
	cmd.Printf("  Max upload: %d bytes\n", settings.Ingest.MaxUploadBytes)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Candidates: %d, limit: %d\n", settings.Retrieval.Candidates, settings.Retrieval.Limit)
	cmd.Printf("  Context budget: %d characters\n", settings.Retrieval.ContextBudget)
	cmd.Printf("  History turns: %d\n", settings.Retrieval.HistoryTurns)
	cmd.Printf("  Min score: %.2f\n", settings.Retrieval.MinScore)
	cmd.Println()

	cmd.Println("[Analytics]")
	cmd.Printf("  Accuracy window: %d, log limit: %d\n", settings.Analytics.AccuracyWindow, settings.Analytics.LogLimit)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Allow anonymous: %t\n", settings.Server.AllowAnonymous)
	cmd.Printf("  Shutdown timeout: %s\n", settings.Server.ShutdownTimeout)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'opsmind settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("OpsMind Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if providerFlag == "" {
		return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
	}

	provider, model, err := providerFromFlags(domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	if err != nil {
		return err
	}
	if err := settingsService.SetEmbeddingProvider(provider, model, apiKeyFlag); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}
	cmd.Printf("Embedding provider configured: %s (%s)\n", provider.Description(), model)
	cmd.Println("Documents indexed with a different model must be ingested again.")
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if providerFlag == "" {
		return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
	}

	provider, model, err := providerFromFlags(domain.AllLLMProviders(), domain.DefaultLLMModels())
	if err != nil {
		return err
	}
	if err := settingsService.SetLLMProvider(provider, model, apiKeyFlag); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}
	cmd.Printf("LLM provider configured: %s (%s)\n", provider.Description(), model)
	return nil
}

// providerFromFlags resolves --provider and --model against the allowed providers.
func providerFromFlags(allowed []domain.AIProvider, defaults map[domain.AIProvider]string) (domain.AIProvider, string, error) {
	provider := domain.AIProvider(strings.ToLower(strings.TrimSpace(providerFlag)))
	valid := false
	for _, p := range allowed {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return "", "", fmt.Errorf("unsupported provider %q", providerFlag)
	}
	model := modelFlag
	if model == "" {
		model = defaults[provider]
	}
	return provider, model, nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	setter, ok := settingSetters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := setter(settings, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("%s = %s\n", key, value)
	if key == "vector_index.dimensions" {
		cmd.Println("Documents indexed with a different dimension must be ingested again.")
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	failed := false
	cmd.Print("Validating settings... ")
	if err := settingsService.Validate(); err != nil {
		cmd.Println(render(cmd, warnStyle, "FAILED"))
		cmd.Printf("  %v\n", err)
		failed = true
	} else {
		cmd.Println(render(cmd, goodStyle, "OK"))
	}

	if checkProviders != nil {
		cmd.Print("Checking providers... ")
		warnings := checkProviders(commandContext(cmd), *settings)
		if len(warnings) == 0 {
			cmd.Println(render(cmd, goodStyle, "OK"))
		} else {
			cmd.Println(render(cmd, warnStyle, "FAILED"))
			for _, w := range warnings {
				cmd.Printf("  %s\n", w)
			}
			failed = true
		}
	}

	if failed {
		return errors.New("settings check failed")
	}
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (empty to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (empty to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// settingSetters maps tunable keys to parsers that apply them.
var settingSetters = map[string]func(*domain.AppSettings, string) error{
	"llm.temperature":           floatSetter(func(s *domain.AppSettings, v float64) { s.LLM.Temperature = v }),
	"llm.max_tokens":            intSetter(func(s *domain.AppSettings, v int) { s.LLM.MaxTokens = v }),
	"vector_index.dimensions":   intSetter(func(s *domain.AppSettings, v int) { s.VectorIndex.Dimensions = v }),
	"vector_index.precision":    setPrecision,
	"ingest.chunk_size":         intSetter(func(s *domain.AppSettings, v int) { s.Ingest.ChunkSize = v }),
	"ingest.chunk_overlap":      intSetter(func(s *domain.AppSettings, v int) { s.Ingest.ChunkOverlap = v }),
	"ingest.min_content":        intSetter(func(s *domain.AppSettings, v int) { s.Ingest.MinContent = v }),
	"ingest.embed_rate":         floatSetter(func(s *domain.AppSettings, v float64) { s.Ingest.EmbedRate = v }),
	"ingest.embed_burst":        intSetter(func(s *domain.AppSettings, v int) { s.Ingest.EmbedBurst = v }),
	"ingest.embed_concurrency":  intSetter(func(s *domain.AppSettings, v int) { s.Ingest.EmbedConcurrency = v }),
	"ingest.max_upload_bytes":   int64Setter(func(s *domain.AppSettings, v int64) { s.Ingest.MaxUploadBytes = v }),
	"retrieval.candidates":      intSetter(func(s *domain.AppSettings, v int) { s.Retrieval.Candidates = v }),
	"retrieval.limit":           intSetter(func(s *domain.AppSettings, v int) { s.Retrieval.Limit = v }),
	"retrieval.context_budget":  intSetter(func(s *domain.AppSettings, v int) { s.Retrieval.ContextBudget = v }),
	"retrieval.history_turns":   intSetter(func(s *domain.AppSettings, v int) { s.Retrieval.HistoryTurns = v }),
	"retrieval.min_score":       floatSetter(func(s *domain.AppSettings, v float64) { s.Retrieval.MinScore = v }),
	"analytics.accuracy_window": intSetter(func(s *domain.AppSettings, v int) { s.Analytics.AccuracyWindow = v }),
	"analytics.log_limit":       intSetter(func(s *domain.AppSettings, v int) { s.Analytics.LogLimit = v }),
	"server.addr":               setServerAddr,
	"server.allow_anonymous":    setAllowAnonymous,
	"server.shutdown_timeout":   setShutdownTimeout,
}

func settingKeysHelp() string {
	keys := make([]string, 0, len(settingSetters))
	for k := range settingSetters {
		keys = append(keys, "  "+k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

func intSetter(apply func(*domain.AppSettings, int)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		apply(s, v)
		return nil
	}
}

func int64Setter(apply func(*domain.AppSettings, int64)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, raw string) error {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		apply(s, v)
		return nil
	}
}

func floatSetter(apply func(*domain.AppSettings, float64)) func(*domain.AppSettings, string) error {
	return func(s *domain.AppSettings, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		apply(s, v)
		return nil
	}
}

func setPrecision(s *domain.AppSettings, raw string) error {
	p := domain.VectorPrecision(raw)
	if !p.IsValid() {
		return fmt.Errorf("want %s or %s", domain.VectorPrecisionFloat32, domain.VectorPrecisionInt8)
	}
	s.VectorIndex.Precision = p
	return nil
}

func setServerAddr(s *domain.AppSettings, raw string) error {
	if raw == "" {
		return errors.New("address must not be empty")
	}
	s.Server.Addr = raw
	return nil
}

func setAllowAnonymous(s *domain.AppSettings, raw string) error {
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return err
	}
	s.Server.AllowAnonymous = v
	return nil
}

func setShutdownTimeout(s *domain.AppSettings, raw string) error {
	v, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	s.Server.ShutdownTimeout = v
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal, otherwise it
// falls back to the line reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
