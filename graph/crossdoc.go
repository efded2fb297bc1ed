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
	"fmt"

	"github.com/latticekb/lattice/core"
)

// DefaultSimilarityThreshold is the minimum cosine similarity for a
// cross-document similar_to link.
const DefaultSimilarityThreshold = 0.85

// CrossDocumentPass links concepts that appear in two or more documents
// by embedding similarity: pairs whose cosine similarity meets the
// threshold get a similar_to edge, unless any relationship already links
// them. Concepts without an embedding are backfilled first from their
// name and description. Returns the number of edges created.
func (w *Writer) CrossDocumentPass(ctx context.Context, threshold float64) (int, error) {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	if err := w.backfillConceptEmbeddings(ctx); err != nil {
		return 0, err
	}

	concepts, err := w.store.SharedConcepts(ctx, minSharedDocuments)
	if err != nil {
		return 0, fmt.Errorf("collecting shared concepts: %w", err)
	}
	if len(concepts) < 2 {
		return 0, nil
	}

	created := 0
	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			a, b := &concepts[i], &concepts[j]
			if len(a.Vector) == 0 || len(b.Vector) == 0 {
				continue
			}

			similarity := CosineSimilarity(a.Vector, b.Vector)
			if similarity < threshold {
				continue
			}

			linked, err := w.store.RelationExists(ctx, a.Id, b.Id)
			if err != nil {
				return created, fmt.Errorf("checking existing link: %w", err)
			}
			if linked {
				continue
			}

			if err := w.store.UpsertRelation(ctx, a.Id, b.Id, "similar_to", CrossDocRelationStrength, 0); err != nil {
				return created, fmt.Errorf("linking %q and %q: %w", a.Name, b.Name, err)
			}
			created++

			w.logger.Debug("linked similar concepts",
				"from", a.Name, "to", b.Name, "similarity", similarity)
		}
	}

	w.logger.Info("cross-document pass complete",
		"shared_concepts", len(concepts), "links_created", created)

	return created, nil
}

// backfillConceptEmbeddings embeds concepts that have no stored vector
// yet, from their name and description.
func (w *Writer) backfillConceptEmbeddings(ctx context.Context) error {
	missing, err := w.store.ConceptsMissingEmbedding(ctx)
	if err != nil {
		return fmt.Errorf("finding concepts without embeddings: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	texts := make([]string, len(missing))
	for i, concept := range missing {
		texts[i] = embeddingText(&concept)
	}

	vectors, err := w.provider.Embedder().EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding concepts: %w", err)
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("embedder returned %d vectors for %d concepts", len(vectors), len(missing))
	}

	for i, concept := range missing {
		if err := w.store.UpdateConceptEmbedding(ctx, concept.Id, vectors[i]); err != nil {
			return fmt.Errorf("storing embedding for %q: %w", concept.Name, err)
		}
	}

	w.logger.Debug("backfilled concept embeddings", "concepts", len(missing))
	return nil
}

func embeddingText(concept *core.Concept) string {
	if concept.Description == "" {
		return concept.Name
	}
	return concept.Name + ": " + concept.Description
}
