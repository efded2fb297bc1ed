package ai

import "slices"

// EmbeddingDimensions is the vector width produced by the embedding
// collaborator (text-embedding-3-small).
const EmbeddingDimensions = 1536

// ConceptCategories defines the valid categories for extracted concepts.
// Extractor responses using any other category are rejected.
var ConceptCategories = []string{
	"methodology",
	"principle",
	"pattern",
	"role",
	"tool",
	"metric",
}

// RelationshipTypes defines the valid typed edges between concepts.
var RelationshipTypes = []string{
	"enables",
	"requires",
	"part_of",
	"similar_to",
	"contrasts",
}

// ValidCategory reports whether category is in the fixed vocabulary.
func ValidCategory(category string) bool {
	return slices.Contains(ConceptCategories, category)
}

// ValidRelationshipType reports whether relType is in the fixed vocabulary.
func ValidRelationshipType(relType string) bool {
	return slices.Contains(RelationshipTypes, relType)
}
