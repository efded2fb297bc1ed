package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/latticekb/lattice/ai"
)

// MockConceptExtractor is a test double for ai.ConceptExtractor.
// It allows custom behavior injection via function fields.
type MockConceptExtractor struct {
	// ExtractConceptsFunc is called by ExtractConcepts if set.
	// If nil, uses default simple word extraction.
	ExtractConceptsFunc func(ctx context.Context, text string) (*ai.Extraction, error)

	// FindRelationshipsFunc is called by FindRelationships if set.
	// If nil, returns no relationships.
	FindRelationshipsFunc func(ctx context.Context, concepts []ai.ExtractedConcept) ([]ai.ExtractedRelationship, error)

	callCount atomic.Int64
}

// NewMockConceptExtractor creates a mock concept extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockConceptExtractor() *MockConceptExtractor {
	return &MockConceptExtractor{}
}

// ExtractConcepts extracts simple mock concepts from text.
// Default behavior: splits text by spaces and creates concepts from words.
func (m *MockConceptExtractor) ExtractConcepts(ctx context.Context, text string) (*ai.Extraction, error) {
	m.callCount.Add(1)

	if m.ExtractConceptsFunc != nil {
		return m.ExtractConceptsFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))

	concepts := make([]ai.ExtractedConcept, 0, 5)
	seen := make(map[string]bool)
	for _, word := range words {
		if len(concepts) >= 5 {
			break
		}

		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true

		// Longer words look more like tools, short ones like principles
		category := "principle"
		if len(word) > 5 {
			category = "tool"
		}

		concepts = append(concepts, ai.ExtractedConcept{
			Name:        word,
			Category:    category,
			Description: "mock concept for " + word,
		})
	}

	return &ai.Extraction{Concepts: concepts}, nil
}

// FindRelationships returns relationships among the concept set.
// Default behavior: returns none.
func (m *MockConceptExtractor) FindRelationships(ctx context.Context, concepts []ai.ExtractedConcept) ([]ai.ExtractedRelationship, error) {
	m.callCount.Add(1)

	if m.FindRelationshipsFunc != nil {
		return m.FindRelationshipsFunc(ctx, concepts)
	}

	return nil, nil
}

// CallCount returns the number of times any method was called.
// Safe to read while pool workers are still running.
func (m *MockConceptExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockConceptExtractor) Reset() {
	m.callCount.Store(0)
	m.ExtractConceptsFunc = nil
	m.FindRelationshipsFunc = nil
}
