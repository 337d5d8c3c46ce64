package mcp

import (
	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions from indexed documents.
	Ask driving.AskService

	// Document lists indexed documents.
	Document driving.DocumentService

	// Principal is the identity every MCP call runs as. The server speaks to a
	// single local client, so identity is fixed when the server starts.
	Principal domain.Principal
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	return nil
}

// capabilities evaluates the configured principal once per call.
func (p *Ports) capabilities() domain.Capabilities {
	return domain.EvaluateCapabilities(p.Principal)
}
