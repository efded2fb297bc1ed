package storage

import (
	"context"

	"github.com/latticekb/lattice/core"
)

// DocumentStore manages document lifecycle rows.
type DocumentStore interface {
	// StoreDocument atomically replaces any document sharing doc.FilePath
	// and inserts doc with its chunks. Chunk embedding status is seeded
	// COMPLETE when a vector is already present, PENDING otherwise;
	// concept status is always seeded PENDING. Returns the new document id.
	StoreDocument(ctx context.Context, doc *core.Document, chunks []core.Chunk) (core.ID, error)

	// RecordParseFailure stores a document row in PARSE_FAILED state with
	// the rejection reason. No chunks are written. Replaces any existing
	// document at the same path.
	RecordParseFailure(ctx context.Context, doc *core.Document, reason string) (core.ID, error)

	// GetDocument fetches a document by id. Returns ErrNotFound if absent.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentByPath fetches a document by its external path.
	GetDocumentByPath(ctx context.Context, path string) (*core.Document, error)

	// UpdateDocumentStatus sets the lifecycle status and error message.
	UpdateDocumentStatus(ctx context.Context, id core.ID, status string, errorMessage string) error

	// DeleteDocument removes a document and cascades to its chunks and edges.
	DeleteDocument(ctx context.Context, id core.ID) error
}

// ChunkStore manages per-chunk processing state.
type ChunkStore interface {
	// PendingEmbeddingChunks returns up to limit chunks whose embedding
	// phase is not complete and whose attempt count is below maxAttempts,
	// ordered by (document id, position).
	PendingEmbeddingChunks(ctx context.Context, limit, maxAttempts int) ([]core.Chunk, error)

	// PendingConceptChunks returns up to limit chunks whose embedding is
	// complete, concept phase is not terminal, and attempt count is below
	// maxAttempts, ordered by (document id, position).
	PendingConceptChunks(ctx context.Context, limit, maxAttempts int) ([]core.Chunk, error)

	// UpdateChunkEmbedding stores the vector and marks the embedding
	// phase COMPLETE, adding attemptsUsed to the attempt counter.
	UpdateChunkEmbedding(ctx context.Context, id core.ID, vector []float32, attemptsUsed int) error

	// MarkEmbeddingFailed marks the embedding phase FAILED with the last
	// error, adding attemptsUsed to the attempt counter.
	MarkEmbeddingFailed(ctx context.Context, id core.ID, lastError string, attemptsUsed int) error

	// MarkConceptsExtracted marks the concept phase EXTRACTED.
	MarkConceptsExtracted(ctx context.Context, id core.ID, attemptsUsed int) error

	// MarkConceptFailed marks the concept phase FAILED with the last
	// error, adding attemptsUsed to the attempt counter.
	MarkConceptFailed(ctx context.Context, id core.ID, lastError string, attemptsUsed int) error

	// ChunksForDocument returns all chunks of a document in position order.
	ChunksForDocument(ctx context.Context, documentID core.ID) ([]core.Chunk, error)

	// DocumentComplete reports whether every chunk of the document has
	// embedding COMPLETE and concepts EXTRACTED.
	DocumentComplete(ctx context.Context, documentID core.ID) (bool, error)

	// Stats returns aggregate pending and failure counts across all
	// documents. Pending counts honor the attempt ceiling so the
	// orchestrator's early-exit check agrees with the batch queries.
	Stats(ctx context.Context, maxAttempts int) (*core.ProcessingStats, error)
}

// MentionStat aggregates mention data for one concept within a document.
type MentionStat struct {
	ConceptId    core.ID
	ChunkCount   int
	MentionCount int
}

// GraphStore manages concept nodes and typed edges. All edge writes are
// upsert-on-absence so repeated runs never duplicate an edge.
type GraphStore interface {
	// UpsertConcept inserts a concept or, when the case-insensitive name
	// already exists, updates its description. Returns the concept id.
	UpsertConcept(ctx context.Context, name, category, description string) (core.ID, error)

	// GetConceptByName fetches a concept by case-insensitive name.
	GetConceptByName(ctx context.Context, name string) (*core.Concept, error)

	// UpsertMention records a chunk-to-concept mention edge if absent.
	UpsertMention(ctx context.Context, chunkID, conceptID core.ID, relevance float64, context string) error

	// UpsertRelation records a concept-to-concept edge if the
	// (from, to, type) triple is absent. documentID of 0 means the
	// relation is not tied to one document.
	UpsertRelation(ctx context.Context, fromID, toID core.ID, relType string, strength float64, documentID core.ID) error

	// RelationExists reports whether any typed edge links the two
	// concepts in either direction.
	RelationExists(ctx context.Context, aID, bID core.ID) (bool, error)

	// UpsertCoverage records a document-to-concept coverage edge,
	// replacing the weight and mention count on conflict.
	UpsertCoverage(ctx context.Context, documentID, conceptID core.ID, weight float64, mentionCount int) error

	// CoverageForDocument returns the document's coverage edges.
	CoverageForDocument(ctx context.Context, documentID core.ID) ([]core.Coverage, error)

	// ConceptsForDocument returns the distinct concepts mentioned by any
	// chunk of the document.
	ConceptsForDocument(ctx context.Context, documentID core.ID) ([]core.Concept, error)

	// MentionStats aggregates per-concept mention counts for a document.
	MentionStats(ctx context.Context, documentID core.ID) ([]MentionStat, error)

	// SharedConcepts returns concepts mentioned in at least minDocuments
	// distinct documents.
	SharedConcepts(ctx context.Context, minDocuments int) ([]core.Concept, error)

	// ConceptsMissingEmbedding returns concepts without a stored vector.
	ConceptsMissingEmbedding(ctx context.Context) ([]core.Concept, error)

	// UpdateConceptEmbedding stores a concept's vector.
	UpdateConceptEmbedding(ctx context.Context, conceptID core.ID, vector []float32) error
}

// Store is the full persistence surface of the pipeline.
type Store interface {
	DocumentStore
	ChunkStore
	GraphStore

	Close() error
}
