// Package cli provides the cobra command tree for opsmind.
package cli

import (
	"context"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/opsmind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	verbose  bool
	userFlag string
	roleFlag string
)

// Services wired by main.
var (
	ingestService    driving.IngestService
	askService       driving.AskService
	documentService  driving.DocumentService
	analyticsService driving.AnalyticsService
	settingsService  driving.SettingsService
	promptStore      driven.PromptStore
	promptDir        string
	healthFunc       httpapi.HealthFunc
	checkProviders   func(ctx context.Context, settings domain.AppSettings) []string
)

// Services groups everything the commands need. Nil fields leave the
// corresponding commands reporting "not configured".
type Services struct {
	Ingest    driving.IngestService
	Ask       driving.AskService
	Document  driving.DocumentService
	Analytics driving.AnalyticsService
	Settings  driving.SettingsService

	// Prompts and PromptDir enable prompt hot reload during serve.
	Prompts   driven.PromptStore
	PromptDir string

	// Health reports provider reachability and index size.
	Health httpapi.HealthFunc

	// CheckProviders builds providers from settings and returns reachability warnings.
	CheckProviders func(ctx context.Context, settings domain.AppSettings) []string
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	ingestService = s.Ingest
	askService = s.Ask
	documentService = s.Document
	analyticsService = s.Analytics
	settingsService = s.Settings
	promptStore = s.Prompts
	promptDir = s.PromptDir
	healthFunc = s.Health
	checkProviders = s.CheckProviders
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "opsmind",
	Short: "Answer questions from your operations documents",
	Long: `opsmind indexes PDF documents and answers questions about them with
citations, using a local or cloud embedding model and LLM.

Run "opsmind serve" to expose the HTTP API, or use the subcommands directly.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "identity to act as (default: current OS user)")
	rootCmd.PersistentFlags().StringVar(&roleFlag, "role", string(domain.RoleAdmin), "role to act as (admin or employee)")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// capabilities evaluates the identity given on the command line. A local
// operator owns the data directory, so the default role is admin.
func capabilities() domain.Capabilities {
	id := userFlag
	if id == "" {
		id = currentUser()
	}
	return domain.EvaluateCapabilities(domain.Principal{
		UserID:      id,
		DisplayName: id,
		Role:        domain.ParseRole(roleFlag),
	})
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "local"
}

// commandContext returns the command's context, falling back to Background
// when a command is invoked directly in tests.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
