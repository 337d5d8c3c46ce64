package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/opsmind/internal/core/domain"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindExternalProvider, domain.KindStreaming:
		return http.StatusBadGateway
	case domain.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// detail returns the kind and caller-safe message of err. Index and internal
// failures are logged here and replaced by a generic message. Provider,
// configuration and streaming failures are logged in full and described to
// the caller by their domain sentinels only.
func detail(err error) errorDetail {
	kind := domain.KindOf(err)
	if !kind.IsUserFacing() {
		logger.Error("%s error: %v", kind, err)
		return errorDetail{Kind: kind, Message: "internal server error"}
	}
	if kind.HasDiagnosticDetail() {
		logger.Warn("%s error: %v", kind, err)
		return errorDetail{Kind: kind, Message: domain.SentinelMessage(err)}
	}
	return errorDetail{Kind: kind, Message: err.Error()}
}

// writeError renders err as a JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: detail(err)})
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Writing response: %v", err)
	}
}
