// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Ingestion: PageExtractor -> Chunker -> EmbeddingService (rate limited) -> ChunkIndex.
// Questions: EmbeddingService -> ChunkIndex -> AssembleContext -> LLMService (streamed)
// -> AnalyticsService.
//
// Services are pure Go with no CGO or external dependencies.
package services
