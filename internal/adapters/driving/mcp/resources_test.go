package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

func TestExtractDocumentName(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "plain name", uri: "opsmind://documents/sop.pdf", expected: "sop.pdf"},
		{name: "escaped name", uri: "opsmind://documents/fire%20drill.pdf", expected: "fire drill.pdf"},
		{name: "invalid prefix", uri: "file://documents/sop.pdf", expected: ""},
		{name: "bad escape", uri: "opsmind://documents/%zz", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentName(tt.uri))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	docs := &mockDocumentService{docs: []domain.DocumentSummary{
		{Name: "sop.pdf", Chunks: 4, Pages: 2, AllowedRoles: []domain.Role{domain.RoleEmployee, domain.RoleAdmin}},
	}}
	server, err := NewServer(&Ports{Ask: &mockAskService{}, Document: docs})
	require.NoError(t, err)

	result, err := server.handleDocumentsResource(context.Background(), readRequest("opsmind://documents"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	var got []domain.DocumentSummary
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
	assert.Equal(t, "sop.pdf", got[0].Name)
	assert.Equal(t, 4, got[0].Chunks)
}

func TestServer_handleDocumentResource(t *testing.T) {
	docs := &mockDocumentService{docs: []domain.DocumentSummary{{Name: "fire drill.pdf", Chunks: 2}}}
	server, err := NewServer(&Ports{Ask: &mockAskService{}, Document: docs})
	require.NoError(t, err)
	ctx := context.Background()

	result, err := server.handleDocumentResource(ctx, readRequest("opsmind://documents/fire%20drill.pdf"))
	require.NoError(t, err)
	assert.Contains(t, result.Contents[0].Text, `"chunks": 2`)

	_, err = server.handleDocumentResource(ctx, readRequest("opsmind://documents/missing.pdf"))
	assert.Error(t, err)

	_, err = server.handleDocumentResource(ctx, readRequest("opsmind://other"))
	assert.Error(t, err)
}
