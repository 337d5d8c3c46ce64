package domain

import (
	"errors"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyText indicates text to embed was empty after trimming.
	ErrEmptyText = errors.New("text is empty")

	// ErrMissingFile indicates an upload carried no file.
	ErrMissingFile = errors.New("no file uploaded")

	// ErrMissingQuestion indicates an ask request carried no question.
	ErrMissingQuestion = errors.New("question is required")

	// ErrUnsupportedContentType indicates an upload of a type other than PDF.
	ErrUnsupportedContentType = errors.New("only PDF documents are accepted")

	// ErrFileTooLarge indicates an upload exceeded the configured size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNoContentExtracted indicates a document yielded no usable text.
	ErrNoContentExtracted = errors.New("no content extracted")

	// ErrForbidden indicates the caller's role lacks the required permission.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated indicates a request without identity where one is required.
	ErrUnauthenticated = errors.New("identity required")

	// Provider Errors.

	// ErrEmbeddingUnavailable indicates the embedding provider failed or is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation provider failed or is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Configuration Errors.

	// ErrDimensionMismatch indicates stored vectors and live vectors differ in length.
	// This is a fatal configuration error: the embedding model changed without re-ingesting.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotConfigured indicates a required provider is not configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrIndex indicates the chunk index or log storage failed.
	ErrIndex = errors.New("index storage failure")

	// ErrStreamInterrupted indicates generation failed after streaming began.
	ErrStreamInterrupted = errors.New("answer stream interrupted")
)

// ErrorKind is a stable machine-checkable error category exposed to callers.
type ErrorKind string

// Error kinds.
const (
	KindValidation       ErrorKind = "validation"
	KindUnauthenticated  ErrorKind = "unauthenticated"
	KindForbidden        ErrorKind = "forbidden"
	KindNotFound         ErrorKind = "not_found"
	KindExternalProvider ErrorKind = "external_provider"
	KindConfiguration    ErrorKind = "configuration"
	KindIndex            ErrorKind = "index"
	KindStreaming        ErrorKind = "streaming"
	KindInternal         ErrorKind = "internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrStreamInterrupted, KindStreaming},
	{ErrInvalidInput, KindValidation},
	{ErrEmptyText, KindValidation},
	{ErrMissingFile, KindValidation},
	{ErrMissingQuestion, KindValidation},
	{ErrUnsupportedContentType, KindValidation},
	{ErrFileTooLarge, KindValidation},
	{ErrNoContentExtracted, KindValidation},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrForbidden, KindForbidden},
	{ErrNotFound, KindNotFound},
	{ErrDimensionMismatch, KindConfiguration},
	{ErrNotConfigured, KindConfiguration},
	{ErrEmbeddingUnavailable, KindExternalProvider},
	{ErrLLMUnavailable, KindExternalProvider},
	{ErrRateLimited, KindExternalProvider},
	{ErrIndex, KindIndex},
}

// KindOf returns the kind of err, checking sentinels in table order so an
// interrupted stream wins over the provider failure that caused it.
// Errors that wrap no domain sentinel are KindInternal.
func KindOf(err error) ErrorKind {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// SentinelMessage describes err using only the domain sentinels it wraps, in
// table order, so wrapped provider URLs and dial errors are left out.
// It returns "" when err wraps no sentinel.
func SentinelMessage(err error) string {
	var parts []string
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			parts = append(parts, k.err.Error())
		}
	}
	return strings.Join(parts, ": ")
}

// HasDiagnosticDetail reports whether errors of this kind may wrap upstream
// detail that should stay server-side, such as provider URLs.
func (k ErrorKind) HasDiagnosticDetail() bool {
	return k == KindExternalProvider || k == KindConfiguration || k == KindStreaming
}

// IsUserFacing reports whether an error's message may be shown to callers.
// Index and internal failures keep their detail server-side.
func (k ErrorKind) IsUserFacing() bool {
	return k != KindIndex && k != KindInternal
}
