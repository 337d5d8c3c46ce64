// Package sqlite provides a SQLite-based implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ChunkIndex: Document chunks, their embeddings and role tags
//   - QueryLogStore: Append-only answer audit records
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Search
//
// Role filtering happens in SQL, so chunks a role may not see are never
// scored. With int8 precision, candidates are ranked on quantized vectors
// first and only the best C are loaded and rescored at full precision.
//
// # Data Location
//
// By default, the database is stored at ~/.opsmind/data/opsmind.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
