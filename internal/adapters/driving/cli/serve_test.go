package cli

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/opsmind/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/opsmind/internal/logger"
)

func TestServeCmd_Flags(t *testing.T) {
	for _, name := range []string{"addr", "no-watch", "no-anonymous"} {
		assert.NotNil(t, serveCmd.Flags().Lookup(name), name)
	}
}

func TestServeCmd_StopsWhenContextCancelled(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	var logs bytes.Buffer
	logger.SetOutput(&logs)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetTimestamps(false)
		logger.SetVerbose(false)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resetFlags()
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:0", "--no-watch", "--verbose"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Index holds 14 chunks")
	assert.Contains(t, logs.String(), "Server stopped")
}

func TestServeCmd_MissingPorts(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	askService = nil

	_, err := executeCommand("serve", "--addr", "127.0.0.1:0")

	assert.ErrorIs(t, err, httpapi.ErrMissingPorts)
}

func TestReportHealth_LogsWarnings(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetVerbose(true)
	defer func() {
		logger.SetOutput(os.Stderr)
		logger.SetVerbose(false)
	}()

	healthFunc = func(context.Context) httpapi.Health {
		return httpapi.Health{Status: "degraded", Warnings: []string{"llm unreachable"}}
	}
	defer func() { healthFunc = nil }()

	reportHealth(context.Background())

	assert.Contains(t, logs.String(), "llm unreachable")
	assert.Contains(t, logs.String(), "embedding -, llm -")
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "x", orDash("x"))
}
