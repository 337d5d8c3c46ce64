package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
)

var conversation = []driven.ChatMessage{
	{Role: driven.RoleSystem, Content: "answer from context"},
	{Role: driven.RoleUser, Content: "how do I clean a spill?"},
}

func sse(event, data string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
}

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "answer from context", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, driven.RoleUser, req.Messages[0].Role)
		assert.Equal(t, defaultMaxTokens, req.MaxTokens)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestLLMService_ChatStream(t *testing.T) {
	body := sse("message_start", `{"type":"message_start","message":{"id":"m1"}}`) +
		sse("content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`) +
		"event: ping\ndata: {\"type\": \"ping\"}\n\n" +
		sse("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Use "}}`) +
		sse("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"absorbent pads."}}`) +
		sse("content_block_stop", `{"type":"content_block_stop","index":0}`) +
		sse("message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`) +
		sse("message_stop", `{"type":"message_stop"}`)
	srv := newServer(t, http.StatusOK, body)
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	var deltas []string
	err = s.ChatStream(context.Background(), conversation, driven.ChatOptions{}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Use ", "absorbent pads."}, deltas)
}

func TestLLMService_ChatStream_Incomplete(t *testing.T) {
	body := sse("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Use "}}`)
	srv := newServer(t, http.StatusOK, body)
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	err = s.ChatStream(context.Background(), conversation, driven.ChatOptions{}, func(string) error { return nil })

	assert.Error(t, err)
}

func TestLLMService_ChatStream_OverloadedEvent(t *testing.T) {
	body := sse("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	srv := newServer(t, http.StatusOK, body)
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	err = s.ChatStream(context.Background(), conversation, driven.ChatOptions{}, func(string) error { return nil })

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestLLMService_Chat(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"content":[{"type":"text","text":"Full "},{"type":"text","text":"reply."}]}`)
	defer srv.Close()
	s, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := s.Chat(context.Background(), conversation, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Full reply.", reply)
}

func TestLLMService_StatusErrors(t *testing.T) {
	tests := []struct {
		status      int
		rateLimited bool
	}{
		{http.StatusTooManyRequests, true},
		{529, true},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		srv := newServer(t, tt.status, `{"type":"error","error":{"type":"x","message":"nope"}}`)
		s, err := NewLLMService(Config{APIKey: "key", BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = s.Chat(context.Background(), conversation, driven.ChatOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope")
		assert.Equal(t, tt.rateLimited, errors.Is(err, domain.ErrRateLimited), "status %d", tt.status)
		srv.Close()
	}
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}
