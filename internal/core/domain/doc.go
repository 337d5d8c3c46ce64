// Package domain defines the core business entities for OpsMind.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentChunk: a bounded unit of page text with its embedding
//   - QueryLog: the audit record of one answered question
//   - ScoredChunk, Citation, AssembledContext: retrieval results
//   - AnswerEvent: one event of a streamed answer
//   - Principal, Capabilities: the evaluated identity of a caller
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
