// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Text to fixed-dimension vectors (ingest and query)
//   - LLMService: Streaming answer generation
//   - ChunkIndex: Durable chunk storage with role-filtered similarity search
//   - QueryLogStore: Append-only query audit log
//   - PageExtractor: Per-page text extraction from uploaded PDFs
//   - RateLimiter: Throttles outbound embedding calls during ingestion
//   - ConfigStore: Application configuration
//   - PromptStore: Prompt templates
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
