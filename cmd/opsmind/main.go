// Command opsmind indexes PDF documents and answers questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/opsmind/internal/adapters/driven/ai"
	"github.com/custodia-labs/opsmind/internal/adapters/driven/config/file"
	"github.com/custodia-labs/opsmind/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/opsmind/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/opsmind/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/opsmind/internal/adapters/driving/cli"
	"github.com/custodia-labs/opsmind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/core/services"
	"github.com/custodia-labs/opsmind/internal/logger"
	"github.com/custodia-labs/opsmind/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// Environment variables that override default locations.
const (
	envHome    = "OPSMIND_HOME"
	envDataDir = "OPSMIND_DATA_DIR"
)

func main() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cli.SetVersion(version)

	app, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opsmind: %v\n", err)
		return err
	}
	defer app.close()

	cli.SetServices(app.services)
	return cli.Execute(ctx)
}

// application owns the resources opened at startup.
type application struct {
	services cli.Services
	store    *sqlite.Store
	ai       *ai.Services
}

func (a *application) close() {
	if a.ai != nil {
		a.ai.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warn("Closing database: %v", err)
		}
	}
}

func bootstrap(ctx context.Context) (*application, error) {
	home := os.Getenv(envHome)
	if home == "" {
		dir, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		home = dir
	}

	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		logger.Warn("Invalid settings in %s: %v", configStore.Path(), err)
	}

	dataDir := os.Getenv(envDataDir)
	if dataDir == "" {
		dataDir = filepath.Join(home, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	app := &application{store: store}

	providers, err := ai.Init(ctx, *settings, false)
	if err != nil {
		// The other commands still work without providers.
		logger.Warn("%v", err)
		providers = &ai.Services{}
	}
	app.ai = providers

	promptDir := filepath.Join(home, "prompts")
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	index := store.ChunkIndex(settings.VectorIndex.Precision)
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: settings.Ingest.EmbedRate,
		BurstSize:         settings.Ingest.EmbedBurst,
	})
	splitter := chunker.New(
		chunker.WithChunkSize(settings.Ingest.ChunkSize),
		chunker.WithOverlap(settings.Ingest.ChunkOverlap),
		chunker.WithMinContent(settings.Ingest.MinContent),
	)

	analytics := services.NewAnalyticsService(store.QueryLogStore(), *settings)
	retriever := services.NewRetriever(providers.Embedding, index, *settings)

	app.services = cli.Services{
		Ingest:         services.NewIngestService(pdf.New(), splitter, providers.Embedding, index, limiter, *settings),
		Ask:            services.NewAskService(retriever, providers.LLM, prompts, analytics, *settings),
		Document:       services.NewDocumentService(index),
		Analytics:      analytics,
		Settings:       settingsService,
		Prompts:        prompts,
		PromptDir:      promptDir,
		Health:         healthFunc(providers, index),
		CheckProviders: checkProviders,
	}
	return app, nil
}

// healthFunc reports provider reachability and index size.
func healthFunc(providers *ai.Services, index driven.ChunkIndex) httpapi.HealthFunc {
	return func(ctx context.Context) httpapi.Health {
		h := httpapi.Health{Status: "ok", Warnings: append([]string(nil), providers.Warnings...)}
		if providers.Embedding != nil {
			h.EmbeddingModel = providers.Embedding.ModelName()
		}
		if providers.LLM != nil {
			h.LLMModel = providers.LLM.ModelName()
		}
		for _, err := range ai.Probe(ctx, providers.Embedding, providers.LLM) {
			h.Warnings = append(h.Warnings, err.Error())
		}

		chunks, err := index.CountChunks(ctx)
		if err != nil {
			h.Warnings = append(h.Warnings, fmt.Sprintf("counting chunks: %v", err))
		}
		h.Chunks = chunks

		if len(h.Warnings) > 0 {
			h.Status = "degraded"
		}
		return h
	}
}

// checkProviders builds fresh providers from settings and pings them.
func checkProviders(ctx context.Context, settings domain.AppSettings) []string {
	svc, err := ai.Init(ctx, settings, true)
	if err != nil {
		return []string{err.Error()}
	}
	defer svc.Close()
	if len(svc.Warnings) == 0 {
		return nil
	}
	return append([]string(nil), svc.Warnings...)
}
