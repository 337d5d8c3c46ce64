package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

type testEnv struct {
	ingest    *mockIngestService
	ask       *mockAskService
	documents *mockDocumentService
	analytics *mockAnalyticsService
	server    *Server
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	env := &testEnv{
		ingest:    &mockIngestService{},
		ask:       &mockAskService{},
		documents: &mockDocumentService{},
		analytics: &mockAnalyticsService{},
	}
	server, err := NewServer(&Ports{
		Ingest:    env.ingest,
		Ask:       env.ask,
		Document:  env.documents,
		Analytics: env.analytics,
	}, cfg)
	require.NoError(t, err)
	env.server = server
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set(HeaderUserID, "u-1")
	req.Header.Set(HeaderUserName, "Ada")
	req.Header.Set(HeaderUserRole, "admin")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorDetail {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestNewServer_RequiresPorts(t *testing.T) {
	_, err := NewServer(&Ports{}, Config{})
	assert.ErrorIs(t, err, ErrMissingPorts)
}

func TestConfigFromSettings(t *testing.T) {
	cfg := ConfigFromSettings(domain.DefaultAppSettings())

	assert.Equal(t, ":5002", cfg.Addr)
	assert.True(t, cfg.AllowAnonymous)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestHealth(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		env := newTestEnv(t, Config{})

		rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","chunks":0}`, rec.Body.String())
	})

	t.Run("reporter", func(t *testing.T) {
		env := newTestEnv(t, Config{})
		env.server.ports.Health = func(context.Context) Health {
			return Health{Status: "degraded", EmbeddingModel: "nomic-embed-text", Chunks: 12, Warnings: []string{"llm down"}}
		}

		rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.JSONEq(t,
			`{"status":"degraded","embeddingModel":"nomic-embed-text","chunks":12,"warnings":["llm down"]}`,
			rec.Body.String())
	})
}

func TestIdentify(t *testing.T) {
	t.Run("anonymous allowed as employee", func(t *testing.T) {
		env := newTestEnv(t, Config{AllowAnonymous: true})

		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/analytics/accuracy", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, domain.KindForbidden, decodeError(t, rec).Kind)
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		env := newTestEnv(t, Config{AllowAnonymous: false})

		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/documents", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, domain.KindUnauthenticated, decodeError(t, rec).Kind)
	})

	t.Run("health needs no identity", func(t *testing.T) {
		env := newTestEnv(t, Config{AllowAnonymous: false})

		rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPrincipalFrom(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    domain.Principal
		ok      bool
	}{
		{name: "none", headers: map[string]string{}, ok: false},
		{
			name:    "full",
			headers: map[string]string{HeaderUserID: "u-1", HeaderUserName: "Ada", HeaderUserRole: "admin"},
			want:    domain.Principal{UserID: "u-1", DisplayName: "Ada", Role: "admin"},
			ok:      true,
		},
		{
			name:    "name defaults to id",
			headers: map[string]string{HeaderUserID: "u-2"},
			want:    domain.Principal{UserID: "u-2", DisplayName: "u-2"},
			ok:      true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			got, ok := principalFrom(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrMissingQuestion, http.StatusBadRequest},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrUnsupportedContentType, http.StatusUnsupportedMediaType},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrEmbeddingUnavailable, http.StatusBadGateway},
		{errors.Join(domain.ErrEmbeddingUnavailable, domain.ErrRateLimited), http.StatusTooManyRequests},
		{domain.ErrDimensionMismatch, http.StatusServiceUnavailable},
		{domain.ErrIndex, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestDetail_HidesInternalErrors(t *testing.T) {
	d := detail(errors.Join(domain.ErrIndex, errors.New("disk I/O error at /var/lib/opsmind")))

	assert.Equal(t, domain.KindIndex, d.Kind)
	assert.NotContains(t, d.Message, "/var/lib")

	d = detail(domain.ErrMissingQuestion)
	assert.Equal(t, domain.ErrMissingQuestion.Error(), d.Message)
}

func TestDetail_HidesProviderDiagnostics(t *testing.T) {
	d := detail(fmt.Errorf("%w: Post \"http://localhost:11434/api/embed\": dial tcp 127.0.0.1:11434: connection refused",
		domain.ErrEmbeddingUnavailable))

	assert.Equal(t, domain.KindExternalProvider, d.Kind)
	assert.Equal(t, domain.ErrEmbeddingUnavailable.Error(), d.Message)
	assert.NotContains(t, d.Message, "11434")

	d = detail(fmt.Errorf("stored 768, query 1536 from /etc/opsmind: %w", domain.ErrDimensionMismatch))
	assert.Equal(t, domain.KindConfiguration, d.Kind)
	assert.Equal(t, domain.ErrDimensionMismatch.Error(), d.Message)
}

func TestServe_GracefulShutdown(t *testing.T) {
	env := newTestEnv(t, Config{ShutdownTimeout: time.Second})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
