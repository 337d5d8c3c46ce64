package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// ErrMissingPorts is returned when a required service is not provided.
var ErrMissingPorts = errors.New("httpapi: ask, ingest, document and analytics services are required")

// Health is the body of GET /health.
type Health struct {
	Status         string   `json:"status"`
	EmbeddingModel string   `json:"embeddingModel,omitempty"`
	LLMModel       string   `json:"llmModel,omitempty"`
	Chunks         int      `json:"chunks"`
	Warnings       []string `json:"warnings,omitempty"`
}

// HealthFunc reports service health.
type HealthFunc func(ctx context.Context) Health

// Ports aggregates the driving ports the HTTP server exposes.
type Ports struct {
	Ingest    driving.IngestService
	Ask       driving.AskService
	Document  driving.DocumentService
	Analytics driving.AnalyticsService
	Health    HealthFunc
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil || p.Ask == nil || p.Document == nil || p.Analytics == nil {
		return ErrMissingPorts
	}
	return nil
}

// Config holds HTTP server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string

	// AllowAnonymous lets requests without identity through as employees.
	AllowAnonymous bool

	// MaxUploadBytes caps the size of one uploaded file.
	MaxUploadBytes int64

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// ConfigFromSettings derives server configuration from application settings.
func ConfigFromSettings(s domain.AppSettings) Config {
	return Config{
		Addr:            s.Server.Addr,
		AllowAnonymous:  s.Server.AllowAnonymous,
		MaxUploadBytes:  s.Ingest.MaxUploadBytes,
		ShutdownTimeout: s.Server.ShutdownTimeout,
	}
}

// Server serves the OpsMind HTTP API.
type Server struct {
	ports *Ports
	cfg   Config
	mux   *http.ServeMux
}

// NewServer creates a server and registers its routes.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{ports: ports, cfg: cfg, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/documents", s.identify(s.handleUpload))
	s.mux.HandleFunc("GET /api/documents", s.identify(s.handleListDocuments))
	s.mux.HandleFunc("DELETE /api/documents/{name}", s.identify(s.handleDeleteDocument))
	s.mux.HandleFunc("POST /api/ask", s.identify(s.handleAsk))
	s.mux.HandleFunc("GET /api/analytics/logs", s.identify(s.handleLogs))
	s.mux.HandleFunc("GET /api/analytics/accuracy", s.identify(s.handleAccuracy))
}

// Handler returns the root handler with request logging.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		s.mux.ServeHTTP(rec, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// statusRecorder captures the response status for logging. It forwards Flush
// so streaming handlers keep working.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
