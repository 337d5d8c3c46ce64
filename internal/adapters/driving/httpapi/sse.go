package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/opsmind/internal/core/domain"
)

// SSE event names.
const (
	eventText  = "text"
	eventDone  = "done"
	eventError = "error"
)

type textPayload struct {
	Text string `json:"text"`
}

type donePayload struct {
	Citation *domain.CitationMetadata `json:"citation"`
	Complete bool                     `json:"complete"`
}

type errorPayload struct {
	Kind     domain.ErrorKind `json:"kind"`
	Message  string           `json:"message"`
	Complete bool             `json:"complete"`
}

// sseWriter writes server-sent events, flushing after each.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sends the stream headers. It fails if w cannot flush.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming unsupported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

// send writes one named event with a JSON payload.
func (s *sseWriter) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// sendEvent renders one answer event.
func (s *sseWriter) sendEvent(ev domain.AnswerEvent) error {
	switch ev.Type {
	case domain.EventText:
		return s.send(eventText, textPayload{Text: ev.Text})
	case domain.EventDone:
		return s.send(eventDone, donePayload{Citation: ev.Citation, Complete: true})
	case domain.EventFailed:
		d := detail(ev.Err)
		return s.send(eventError, errorPayload{Kind: d.Kind, Message: d.Message})
	default:
		return nil
	}
}
