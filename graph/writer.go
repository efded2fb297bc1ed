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


package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/latticekb/lattice/ai"
	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/storage"
)

// Edge weights by provenance. Chunk-local relationships come straight
// from text, document-level ones from a second lower-confidence pass,
// and cross-document links from embedding similarity alone.
const (
	MentionRelevance         = 0.8
	ChunkRelationStrength    = 0.8
	DocumentRelationStrength = 0.7
	CrossDocRelationStrength = 0.6

	contextSnippetLength = 200
	minSharedDocuments   = 2
)

// Writer persists extraction results as concept nodes and typed edges.
// Every edge write is conditional on absence, which makes all three
// relationship-discovery passes safe to repeat.
type Writer struct {
	store    storage.Store
	provider ai.Provider
	logger   *slog.Logger
}

// NewWriter creates a graph writer.
func NewWriter(store storage.Store, provider ai.Provider) (*Writer, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	return &Writer{
		store:    store,
		provider: provider,
		logger:   slog.Default().With("component", "graph-writer"),
	}, nil
}

// StoreExtraction upserts the concepts extracted from one chunk, records
// mention edges from the chunk, and records chunk-local relationship
// edges. Running it twice with identical input produces the same edge set
// as running it once.
func (w *Writer) StoreExtraction(ctx context.Context, chunk *core.Chunk, extraction *ai.Extraction) error {
	ids := make(map[string]core.ID, len(extraction.Concepts))

	for _, concept := range extraction.Concepts {
		id, err := w.store.UpsertConcept(ctx, concept.Name, concept.Category, concept.Description)
		if err != nil {
			return fmt.Errorf("upserting concept %q: %w", concept.Name, err)
		}
		ids[core.NormalizeConceptName(concept.Name)] = id

		snippet := chunk.Text
		if len(snippet) > contextSnippetLength {
			snippet = snippet[:contextSnippetLength]
		}
		if err := w.store.UpsertMention(ctx, chunk.Id, id, MentionRelevance, snippet); err != nil {
			return fmt.Errorf("recording mention of %q: %w", concept.Name, err)
		}
	}

	for _, rel := range extraction.Relationships {
		fromID, err := w.resolveConcept(ctx, ids, rel.From)
		if err != nil {
			w.logger.Debug("skipping relationship with unknown concept", "from", rel.From, "to", rel.To)
			continue
		}
		toID, err := w.resolveConcept(ctx, ids, rel.To)
		if err != nil {
			w.logger.Debug("skipping relationship with unknown concept", "from", rel.From, "to", rel.To)
			continue
		}

		if err := w.store.UpsertRelation(ctx, fromID, toID, rel.Type, ChunkRelationStrength, chunk.DocumentId); err != nil {
			return fmt.Errorf("recording relation %s-%s: %w", rel.From, rel.To, err)
		}
	}

	w.logger.Debug("stored extraction",
		"chunk_id", chunk.Id,
		"concepts", len(extraction.Concepts),
		"relationships", len(extraction.Relationships))

	return nil
}

// DocumentRelationshipPass collects the distinct concepts mentioned
// anywhere in the document and asks the extractor to propose
// relationships among only that set. Proposed edges are recorded with a
// lower strength than chunk-local ones and tagged with the document.
// Documents mentioning fewer than two concepts are skipped.
func (w *Writer) DocumentRelationshipPass(ctx context.Context, documentID core.ID) error {
	concepts, err := w.store.ConceptsForDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("collecting document concepts: %w", err)
	}
	if len(concepts) < 2 {
		return nil
	}

	extracted := make([]ai.ExtractedConcept, len(concepts))
	for i, c := range concepts {
		extracted[i] = ai.ExtractedConcept{
			Name:        c.Name,
			Category:    c.Category,
			Description: c.Description,
		}
	}

	relationships, err := w.provider.ConceptExtractor().FindRelationships(ctx, extracted)
	if err != nil {
		return fmt.Errorf("finding document relationships: %w", err)
	}

	recorded := 0
	for _, rel := range relationships {
		fromID, err := w.resolveConcept(ctx, nil, rel.From)
		if err != nil {
			continue
		}
		toID, err := w.resolveConcept(ctx, nil, rel.To)
		if err != nil {
			continue
		}

		if err := w.store.UpsertRelation(ctx, fromID, toID, rel.Type, DocumentRelationStrength, documentID); err != nil {
			return fmt.Errorf("recording document relation: %w", err)
		}
		recorded++
	}

	w.logger.Debug("document relationship pass complete",
		"document_id", documentID,
		"concepts", len(concepts),
		"relationships", recorded)

	return nil
}

// CoverageEdges records one covers edge per concept the document
// mentions, weighted by the fraction of the document's chunks mentioning
// it. Weights are recomputed from current mentions on every run.
func (w *Writer) CoverageEdges(ctx context.Context, documentID core.ID) error {
	chunks, err := w.store.ChunksForDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("counting document chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	stats, err := w.store.MentionStats(ctx, documentID)
	if err != nil {
		return fmt.Errorf("aggregating mentions: %w", err)
	}

	for _, stat := range stats {
		weight := float64(stat.ChunkCount) / float64(len(chunks))
		if err := w.store.UpsertCoverage(ctx, documentID, stat.ConceptId, weight, stat.MentionCount); err != nil {
			return fmt.Errorf("recording coverage: %w", err)
		}
	}

	w.logger.Debug("coverage edges recorded", "document_id", documentID, "concepts", len(stats))
	return nil
}

// resolveConcept maps an extractor-returned name to a stored concept id,
// preferring the ids already collected in this call.
func (w *Writer) resolveConcept(ctx context.Context, known map[string]core.ID, name string) (core.ID, error) {
	normalized := core.NormalizeConceptName(name)
	if id, ok := known[normalized]; ok {
		return id, nil
	}

	concept, err := w.store.GetConceptByName(ctx, normalized)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("resolving concept %q: %w", name, err)
	}
	return concept.Id, nil
}
