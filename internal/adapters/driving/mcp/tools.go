package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string                    `json:"question" jsonschema:"the question to answer from the indexed documents"`
	History  []domain.ConversationTurn `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string                   `json:"answer"`
	Sourced  bool                     `json:"sourced"`
	Citation *domain.CitationMetadata `json:"citation,omitempty"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents one indexed document.
type DocumentOutput struct {
	Name         string   `json:"documentName"`
	Chunks       int      `json:"chunks"`
	Pages        int      `json:"pages"`
	AllowedRoles []string `json:"allowedRoles"`
	UploadedAt   string   `json:"uploadedAt" jsonschema:"RFC 3339 time of the last upload"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed operational documents, with its source",
	}, s.handleAsk)

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the indexed documents visible to this server's role",
		}, s.handleListDocuments)
	}
}

// handleAsk runs the answer stream to completion and returns the whole answer.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	events, err := s.ports.Ask.Ask(ctx, domain.AskRequest{
		Question:     input.Question,
		History:      input.History,
		Capabilities: s.ports.capabilities(),
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	var answer strings.Builder
	for ev := range events {
		switch ev.Type {
		case domain.EventText:
			answer.WriteString(ev.Text)
		case domain.EventFailed:
			return nil, AskOutput{}, ev.Err
		case domain.EventDone:
			return nil, AskOutput{
				Answer:   answer.String(),
				Sourced:  ev.Citation != nil,
				Citation: ev.Citation,
			}, nil
		}
	}
	// Closed without a terminal event: the call was cancelled.
	if err := ctx.Err(); err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{}, domain.ErrStreamInterrupted
}

// handleListDocuments lists documents visible to the server's principal.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Document.List(ctx, s.ports.capabilities())
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}
	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		roles := make([]string, len(d.AllowedRoles))
		for j, r := range d.AllowedRoles {
			roles[j] = string(r)
		}
		output.Documents[i] = DocumentOutput{
			Name:         d.Name,
			Chunks:       d.Chunks,
			Pages:        d.Pages,
			AllowedRoles: roles,
			UploadedAt:   d.UploadedAt.Format(time.RFC3339),
		}
	}
	return nil, output, nil
}
