package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/core/ports/driving"
	"github.com/custodia-labs/opsmind/internal/logger"
)

const (
	// maxAskBody caps the JSON body of an ask request.
	maxAskBody = 1 << 20
	// multipartOverhead allows for form boundaries and fields around the file.
	multipartOverhead = 1 << 20
	// maxFormMemory is held in memory before multipart files spill to disk.
	maxFormMemory = 8 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := Health{Status: "ok"}
	if s.ports.Health != nil {
		health = s.ports.Health(r.Context())
	}
	writeJSON(w, http.StatusOK, health)
}

// uploadResponse is the body of a successful upload.
type uploadResponse struct {
	Message string `json:"message"`
	*domain.IngestReport
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, caps domain.Capabilities) {
	if err := caps.Require(domain.PermUpload); err != nil {
		writeError(w, err)
		return
	}

	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, fmt.Errorf("%w: limit is %d bytes", domain.ErrFileTooLarge, s.cfg.MaxUploadBytes))
			return
		}
		writeError(w, fmt.Errorf("%w: %w", domain.ErrMissingFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrMissingFile)
		return
	}
	defer file.Close()

	report, err := s.ports.Ingest.Ingest(r.Context(), caps, driving.IngestRequest{
		DocumentName: header.Filename,
		ContentType:  contentType(header.Header.Get("Content-Type"), file),
		Body:         file,
		Size:         header.Size,
		TargetRole:   r.FormValue("role"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Message: "Document indexed", IngestReport: report})
}

// contentType returns the declared type, sniffing the file when the client
// sent none or a generic binary type.
func contentType(declared string, file io.ReaderAt) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	head := make([]byte, 512)
	n, err := file.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return declared
	}
	return http.DetectContentType(head[:n])
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, caps domain.Capabilities) {
	docs, err := s.ports.Document.List(r.Context(), caps)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	writeJSON(w, http.StatusOK, docs)
}

type deleteResponse struct {
	DocumentName string `json:"documentName"`
	Deleted      int    `json:"deleted"`
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request, caps domain.Capabilities) {
	name := r.PathValue("name")
	n, err := s.ports.Document.Delete(r.Context(), caps, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{DocumentName: strings.TrimSpace(name), Deleted: n})
}

// askRequest is the JSON body of POST /api/ask.
type askRequest struct {
	Question string                    `json:"question"`
	History  []domain.ConversationTurn `json:"history"`
}

// handleAsk streams an answer as server-sent events. Failures before the
// stream opens are plain JSON errors.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request, caps domain.Capabilities) {
	var body askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody)).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body: %w", domain.ErrInvalidInput, err))
		return
	}

	ctx := r.Context()
	events, err := s.ports.Ask.Ask(ctx, domain.AskRequest{
		Question:     body.Question,
		History:      body.History,
		Capabilities: caps,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		// Drain so the producer is not left blocked until ctx ends.
		go func() {
			for range events {
			}
		}()
		writeError(w, err)
		return
	}

	for ev := range events {
		if err := stream.sendEvent(ev); err != nil {
			logger.Debug("Client went away: %v", err)
			return
		}
	}
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request, caps domain.Capabilities) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}

	logs, err := s.ports.Analytics.RecentLogs(r.Context(), caps, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []domain.QueryLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleAccuracy(w http.ResponseWriter, r *http.Request, caps domain.Capabilities) {
	report, err := s.ports.Analytics.Accuracy(r.Context(), caps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
