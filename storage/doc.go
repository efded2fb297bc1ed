// Package storage defines the persistence interfaces of the pipeline.
//
// The interfaces are split by concern: DocumentStore for lifecycle rows,
// ChunkStore for per-chunk processing state, and GraphStore for concept
// nodes and typed edges. The sqlite subpackage provides the production
// implementation; tests use it with an in-memory database.
package storage
