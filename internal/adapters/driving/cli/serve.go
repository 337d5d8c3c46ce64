package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/opsmind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/opsmind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/opsmind/internal/logger"
)

var (
	serveAddr        string
	serveNoWatch     bool
	serveNoAnonymous bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API for uploads, streaming answers, document management
and analytics. Identity is taken from the X-User-Id, X-User-Name and
X-User-Role headers set by a trusted gateway.

Prompt files under the prompts directory are reloaded when they change.
The server shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr setting)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not reload prompt files on change")
	serveCmd.Flags().BoolVar(&serveNoAnonymous, "no-anonymous", false, "reject requests without identity headers")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cfg := httpapi.ConfigFromSettings(*settings)
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveNoAnonymous {
		cfg.AllowAnonymous = false
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Ingest:    ingestService,
		Ask:       askService,
		Document:  documentService,
		Analytics: analyticsService,
		Health:    healthFunc,
	}, cfg)
	if err != nil {
		return err
	}

	logger.SetTimestamps(true)
	ctx := commandContext(cmd)
	reportHealth(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	if !serveNoWatch && promptStore != nil && promptDir != "" {
		watcher, err := file.NewWatcher(promptDir, promptStore)
		if err != nil {
			logger.Warn("Prompt reload disabled: %v", err)
		} else {
			g.Go(func() error {
				return watcher.Run(ctx)
			})
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// reportHealth logs provider warnings at startup. Unreachable providers do
// not stop the server; requests that need them fail until they come up.
func reportHealth(ctx context.Context) {
	if healthFunc == nil {
		return
	}
	h := healthFunc(ctx)
	for _, w := range h.Warnings {
		logger.Warn("%s", w)
	}
	logger.Info("Index holds %d chunks (embedding %s, llm %s)", h.Chunks, orDash(h.EmbeddingModel), orDash(h.LLMModel))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
