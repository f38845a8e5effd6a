// Package sqlite provides an embedded vector store backed by a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Vectors are stored as little-endian
// float32 blobs next to a JSON payload; similarity search is a linear cosine scan,
// which suits collections of up to a few hundred thousand chunks.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
//   - collections: name and vector dimension of each collection
//   - points: chunk id, source key, vector and payload, cascading from collections
//
// # Data Location
//
// By default, the database is stored at ~/.ragdocs/data/vectors.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
