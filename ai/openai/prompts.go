package openai

import (
	"fmt"
	"strings"

	"github.com/latticekb/lattice/ai"
)

const extractionPromptTemplate = `You are extracting concepts from text about data management and leadership.

## CONCEPT CATEGORIES (only use these)
- methodology: frameworks, approaches (e.g., "data mesh", "agile", "scrum")
- principle: core beliefs, guiding rules (e.g., "domain ownership", "single responsibility")
- pattern: recurring solutions (e.g., "event sourcing", "CQRS", "data product")
- role: people, teams, responsibilities (e.g., "data product owner", "platform team")
- tool: technologies, products (e.g., "dbt", "Kafka", "Snowflake")
- metric: measurements, KPIs (e.g., "data quality score", "lead time")

## RELATIONSHIP TYPES (only use these)
- enables: A makes B possible (e.g., "domain ownership enables data product")
- requires: A depends on B (e.g., "data product requires clear ownership")
- part_of: A is a component of B (e.g., "schema is part_of data product")
- similar_to: A is conceptually like B (e.g., "data mesh similar_to microservices")
- contrasts: A is the opposite of B (e.g., "centralized contrasts federated")

## RULES
1. Only extract SPECIFIC concepts that are REUSABLE across documents
2. Do NOT extract generic terms: "data", "team", "process", "system", "organization"
3. Normalize names: lowercase, singular form (e.g., "data product" not "Data Products")
4. Only create relationships explicitly stated or strongly implied in the text
5. Include a brief description for each concept

## TEXT TO ANALYZE
"""
%s
"""

## RESPONSE FORMAT
Return valid JSON only, no other text:
{
  "concepts": [
    {"name": "concept name", "category": "category", "description": "brief description"}
  ],
  "relationships": [
    {"from": "concept1", "to": "concept2", "type": "relationship_type"}
  ]
}`

const relationshipPromptTemplate = `These concepts all appear in the same document about data management.
Identify meaningful relationships between them.

## RELATIONSHIP TYPES
- enables: A makes B possible
- requires: A depends on B
- part_of: A is a component of B
- similar_to: A is conceptually similar to B
- contrasts: A is the opposite of B

## CONCEPTS
%s

## RULES
1. Only identify relationships that are meaningful and likely true
2. Don't force relationships - it's okay to return few or none
3. Focus on the most important/obvious relationships

## RESPONSE FORMAT
Return valid JSON array only:
[
  {"from": "concept1", "to": "concept2", "type": "relationship_type"}
]

If no clear relationships, return: []`

// buildExtractionPrompt formats the chunk-level extraction prompt.
func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(extractionPromptTemplate, text)
}

// buildRelationshipPrompt formats the concept-set relationship prompt.
func buildRelationshipPrompt(concepts []ai.ExtractedConcept) string {
	lines := make([]string, 0, len(concepts))
	for _, c := range concepts {
		desc := c.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", c.Name, c.Category, desc))
	}
	return fmt.Sprintf(relationshipPromptTemplate, strings.Join(lines, "\n"))
}
