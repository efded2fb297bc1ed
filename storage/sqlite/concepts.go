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


package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/storage"
)

const conceptColumns = "id, name, category, description, embedding, created_at, updated_at"

// UpsertConcept inserts a concept or updates the description of the
// existing row with the same case-insensitive name. The name column's
// NOCASE collation makes "Data Mesh" and "data mesh" the same concept.
func (s *Store) UpsertConcept(ctx context.Context, name, category, description string) (core.ID, error) {
	name = core.NormalizeConceptName(name)
	if err := core.ValidateConcept(&core.Concept{Name: name, Category: category}); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `INSERT INTO concepts
		(name, category, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = CASE WHEN excluded.description != '' THEN excluded.description ELSE description END,
			updated_at = excluded.updated_at`,
		name, category, description, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting concept %q: %w", name, err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, "SELECT id FROM concepts WHERE name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("reading concept id for %q: %w", name, err)
	}
	return core.ID(id), nil
}

// GetConceptByName fetches a concept by case-insensitive name.
func (s *Store) GetConceptByName(ctx context.Context, name string) (*core.Concept, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+conceptColumns+" FROM concepts WHERE name = ?",
		core.NormalizeConceptName(name),
	)
	return scanConcept(row)
}

// UpsertMention records a chunk-to-concept mention edge if absent.
// An existing edge is left untouched so repeated extraction runs never
// alter relevance or context.
func (s *Store) UpsertMention(ctx context.Context, chunkID, conceptID core.ID, relevance float64, context string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO mentions
		(chunk_id, concept_id, relevance, context)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chunk_id, concept_id) DO NOTHING`,
		int64(chunkID), int64(conceptID), relevance, context,
	)
	if err != nil {
		return fmt.Errorf("upserting mention: %w", err)
	}
	return nil
}

// UpsertRelation records a concept-to-concept edge if the (from, to, type)
// triple is absent.
func (s *Store) UpsertRelation(ctx context.Context, fromID, toID core.ID, relType string, strength float64, documentID core.ID) error {
	var docID any
	if documentID != 0 {
		docID = int64(documentID)
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO related_to
		(from_concept_id, to_concept_id, relation_type, strength, document_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(from_concept_id, to_concept_id, relation_type) DO NOTHING`,
		int64(fromID), int64(toID), relType, strength, docID,
	)
	if err != nil {
		return fmt.Errorf("upserting relation: %w", err)
	}
	return nil
}

// RelationExists reports whether any typed edge links the two concepts in
// either direction.
func (s *Store) RelationExists(ctx context.Context, aID, bID core.ID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM related_to
		WHERE (from_concept_id = ? AND to_concept_id = ?)
		   OR (from_concept_id = ? AND to_concept_id = ?)`,
		int64(aID), int64(bID), int64(bID), int64(aID),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking relation existence: %w", err)
	}
	return count > 0, nil
}

// UpsertCoverage records a document-to-concept coverage edge, replacing
// the weight and mention count on conflict. Coverage is recomputed from
// mentions, so overwriting is the correct merge.
func (s *Store) UpsertCoverage(ctx context.Context, documentID, conceptID core.ID, weight float64, mentionCount int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO covers
		(document_id, concept_id, weight, mention_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id, concept_id) DO UPDATE SET
			weight = excluded.weight,
			mention_count = excluded.mention_count`,
		int64(documentID), int64(conceptID), weight, mentionCount,
	)
	if err != nil {
		return fmt.Errorf("upserting coverage: %w", err)
	}
	return nil
}

// CoverageForDocument returns the document's coverage edges ordered by
// descending weight.
func (s *Store) CoverageForDocument(ctx context.Context, documentID core.ID) ([]core.Coverage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id, concept_id, weight, mention_count
		FROM covers
		WHERE document_id = ?
		ORDER BY weight DESC, concept_id`,
		int64(documentID),
	)
	if err != nil {
		return nil, fmt.Errorf("querying coverage: %w", err)
	}
	defer rows.Close()

	var coverage []core.Coverage
	for rows.Next() {
		var c core.Coverage
		if err := rows.Scan(&c.DocumentId, &c.ConceptId, &c.Weight, &c.MentionCount); err != nil {
			return nil, err
		}
		coverage = append(coverage, c)
	}
	return coverage, rows.Err()
}

// ConceptsForDocument returns the distinct concepts mentioned by any chunk
// of the document.
func (s *Store) ConceptsForDocument(ctx context.Context, documentID core.ID) ([]core.Concept, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT c.id, c.name, c.category, c.description, c.embedding, c.created_at, c.updated_at
		FROM concepts c
		JOIN mentions m ON m.concept_id = c.id
		JOIN chunks ch ON ch.id = m.chunk_id
		WHERE ch.document_id = ?
		ORDER BY c.name`,
		int64(documentID),
	)
	if err != nil {
		return nil, fmt.Errorf("querying document concepts: %w", err)
	}
	return scanConcepts(rows)
}

// MentionStats aggregates per-concept mention counts for a document.
func (s *Store) MentionStats(ctx context.Context, documentID core.ID) ([]storage.MentionStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT m.concept_id, COUNT(DISTINCT m.chunk_id), COUNT(*)
		FROM mentions m
		JOIN chunks ch ON ch.id = m.chunk_id
		WHERE ch.document_id = ?
		GROUP BY m.concept_id`,
		int64(documentID),
	)
	if err != nil {
		return nil, fmt.Errorf("querying mention stats: %w", err)
	}
	defer rows.Close()

	var stats []storage.MentionStat
	for rows.Next() {
		var stat storage.MentionStat
		if err := rows.Scan(&stat.ConceptId, &stat.ChunkCount, &stat.MentionCount); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// SharedConcepts returns concepts mentioned in at least minDocuments
// distinct documents.
func (s *Store) SharedConcepts(ctx context.Context, minDocuments int) ([]core.Concept, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name, c.category, c.description, c.embedding, c.created_at, c.updated_at
		FROM concepts c
		JOIN mentions m ON m.concept_id = c.id
		JOIN chunks ch ON ch.id = m.chunk_id
		GROUP BY c.id
		HAVING COUNT(DISTINCT ch.document_id) >= ?
		ORDER BY c.name`,
		minDocuments,
	)
	if err != nil {
		return nil, fmt.Errorf("querying shared concepts: %w", err)
	}
	return scanConcepts(rows)
}

// ConceptsMissingEmbedding returns concepts without a stored vector.
func (s *Store) ConceptsMissingEmbedding(ctx context.Context) ([]core.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+conceptColumns+" FROM concepts WHERE embedding IS NULL ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying concepts missing embedding: %w", err)
	}
	return scanConcepts(rows)
}

// UpdateConceptEmbedding stores a concept's vector.
func (s *Store) UpdateConceptEmbedding(ctx context.Context, conceptID core.ID, vector []float32) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"UPDATE concepts SET embedding = ?, updated_at = ? WHERE id = ?",
		encodeVector(vector), now, int64(conceptID),
	)
	if err != nil {
		return fmt.Errorf("updating concept embedding: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanConcept(row *sql.Row) (*core.Concept, error) {
	var (
		concept   core.Concept
		blob      []byte
		createdAt string
		updatedAt string
	)
	err := row.Scan(&concept.Id, &concept.Name, &concept.Category, &concept.Description,
		&blob, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if concept.Vector, err = decodeVector(blob); err != nil {
		return nil, err
	}
	if concept.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if concept.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &concept, nil
}

func scanConcepts(rows *sql.Rows) ([]core.Concept, error) {
	defer rows.Close()

	var concepts []core.Concept
	for rows.Next() {
		var (
			concept   core.Concept
			blob      []byte
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&concept.Id, &concept.Name, &concept.Category, &concept.Description,
			&blob, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		vector, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		concept.Vector = vector

		if concept.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if concept.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		concepts = append(concepts, concept)
	}
	return concepts, rows.Err()
}
