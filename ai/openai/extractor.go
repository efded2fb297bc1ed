// Copyright 2025 Lattice Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/latticekb/lattice/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// ConceptExtractor implements ai.ConceptExtractor using OpenAI-compatible
// chat APIs.
type ConceptExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// wireConcept matches the JSON structure the model is asked to produce.
type wireConcept struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// wireRelationship matches the JSON structure the model is asked to produce.
type wireRelationship struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// wireExtraction is the wrapper structure for the model's JSON response.
type wireExtraction struct {
	Concepts      []wireConcept      `json:"concepts"`
	Relationships []wireRelationship `json:"relationships"`
}

// newConceptExtractor is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newConceptExtractor(config *ai.Config) (*ConceptExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ExtractorHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ExtractorModel),
	)
	if err != nil {
		return nil, err
	}

	return &ConceptExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewConceptExtractor creates a new concept extractor using the provided
// configuration.
//
// Returns the ai.ConceptExtractor interface to enforce abstraction.
func NewConceptExtractor(config *ai.Config) (ai.ConceptExtractor, error) {
	return newConceptExtractor(config)
}

// ExtractConcepts extracts concepts and relationships from chunk text.
// Out-of-vocabulary categories and relationship types are rejected with
// ai.ErrMalformedResponse rather than silently stored.
func (e *ConceptExtractor) ExtractConcepts(ctx context.Context, text string) (*ai.Extraction, error) {
	responseText, err := e.generate(ctx, buildExtractionPrompt(text))
	if err != nil {
		return nil, err
	}

	var wire wireExtraction
	if err := json.Unmarshal([]byte(responseText), &wire); err != nil {
		e.logger.Warn("error parsing extractor response", "response", preview(responseText), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	extraction := &ai.Extraction{
		Concepts:      make([]ai.ExtractedConcept, 0, len(wire.Concepts)),
		Relationships: make([]ai.ExtractedRelationship, 0, len(wire.Relationships)),
	}

	for _, c := range wire.Concepts {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		if !ai.ValidCategory(c.Category) {
			return nil, fmt.Errorf("%w: unknown concept category %q", ai.ErrMalformedResponse, c.Category)
		}
		extraction.Concepts = append(extraction.Concepts, ai.ExtractedConcept{
			Name:        name,
			Category:    c.Category,
			Description: strings.TrimSpace(c.Description),
		})
	}

	for _, r := range wire.Relationships {
		if r.From == "" || r.To == "" {
			continue
		}
		if !ai.ValidRelationshipType(r.Type) {
			return nil, fmt.Errorf("%w: unknown relationship type %q", ai.ErrMalformedResponse, r.Type)
		}
		extraction.Relationships = append(extraction.Relationships, ai.ExtractedRelationship{
			From: r.From,
			To:   r.To,
			Type: r.Type,
		})
	}

	e.logger.Debug("extracted concepts from chunk",
		"concepts", len(extraction.Concepts),
		"relationships", len(extraction.Relationships))

	return extraction, nil
}

// FindRelationships proposes relationships among an extracted concept set.
func (e *ConceptExtractor) FindRelationships(ctx context.Context, concepts []ai.ExtractedConcept) ([]ai.ExtractedRelationship, error) {
	if len(concepts) < 2 {
		return nil, nil
	}

	responseText, err := e.generate(ctx, buildRelationshipPrompt(concepts))
	if err != nil {
		return nil, err
	}

	var wire []wireRelationship
	if err := json.Unmarshal([]byte(responseText), &wire); err != nil {
		e.logger.Warn("error parsing relationship response", "response", preview(responseText), "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	relationships := make([]ai.ExtractedRelationship, 0, len(wire))
	for _, r := range wire {
		if r.From == "" || r.To == "" {
			continue
		}
		if !ai.ValidRelationshipType(r.Type) {
			return nil, fmt.Errorf("%w: unknown relationship type %q", ai.ErrMalformedResponse, r.Type)
		}
		relationships = append(relationships, ai.ExtractedRelationship{
			From: r.From,
			To:   r.To,
			Type: r.Type,
		})
	}

	e.logger.Debug("found relationships in concept set",
		"concepts", len(concepts),
		"relationships", len(relationships))

	return relationships, nil
}

// generate runs one chat completion and returns the cleaned response body.
func (e *ConceptExtractor) generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt),
			},
		},
	}

	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		e.logger.Error("failed to generate content", "err", err)
		return "", classifyServiceError(err)
	}

	if len(response.Choices) < 1 {
		return "", fmt.Errorf("%w: no choices returned", ai.ErrMalformedResponse)
	}

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	return repairJSON(responseText), nil
}

// preview truncates a response for log output.
func preview(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
