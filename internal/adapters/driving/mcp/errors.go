// Package mcp provides an MCP (Model Context Protocol) server adapter for OpsMind.
// It lets AI assistants ask questions of the indexed documents and list them.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")
