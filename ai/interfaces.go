package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in
	// a batch. The returned slice contains embeddings in the same order as
	// the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ConceptExtractor extracts domain concepts and typed relationships from
// text. Implementations must be thread-safe for concurrent use.
type ConceptExtractor interface {
	// ExtractConcepts analyzes a chunk of text and returns the concepts it
	// mentions together with relationships stated within the same text.
	// Responses using categories or relationship types outside the fixed
	// vocabularies are rejected with ErrMalformedResponse.
	ExtractConcepts(ctx context.Context, text string) (*Extraction, error)

	// FindRelationships proposes relationships among an already-extracted
	// set of concepts. Used by the document-level and cross-document
	// relationship passes, where no single chunk of text is in play.
	// It is valid to return an empty slice when no clear relationships exist.
	FindRelationships(ctx context.Context, concepts []ExtractedConcept) ([]ExtractedRelationship, error)
}

// ExtractedConcept is a single concept identified in text.
type ExtractedConcept struct {
	// Name is the concept identifier: lowercase, singular form.
	// Example: "data mesh", "event sourcing".
	Name string

	// Category must be one of ConceptCategories.
	Category string

	// Description is a brief explanation of the concept.
	Description string
}

// ExtractedRelationship is a typed, directed relationship between two
// concepts named by the extractor.
type ExtractedRelationship struct {
	From string
	To   string

	// Type must be one of RelationshipTypes.
	Type string
}

// Extraction is the full result of analyzing one chunk of text.
type Extraction struct {
	Concepts      []ExtractedConcept
	Relationships []ExtractedRelationship
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// ConceptExtractor returns the concept extraction service.
	ConceptExtractor() ConceptExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
