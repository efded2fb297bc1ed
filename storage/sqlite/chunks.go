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
	"fmt"

	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/storage"
)

const chunkColumns = "id, document_id, text, position, page_start, page_end, section, char_count, embedding, embedding_status, concept_status, attempts, last_error"

// PendingEmbeddingChunks returns chunks whose embedding phase is not
// complete and whose attempt count is below maxAttempts. Ordering by
// (document_id, position) keeps processing deterministic and finishes a
// document's earliest chunks first.
func (s *Store) PendingEmbeddingChunks(ctx context.Context, limit, maxAttempts int) ([]core.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+` FROM chunks
		WHERE embedding_status != ? AND attempts < ?
		ORDER BY document_id, position
		LIMIT ?`,
		string(core.PhaseComplete), maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending embedding chunks: %w", err)
	}
	return scanChunks(rows)
}

// PendingConceptChunks returns chunks ready for concept extraction. The
// embedding gate lives in this query: a chunk is never selected while its
// embedding phase is incomplete.
func (s *Store) PendingConceptChunks(ctx context.Context, limit, maxAttempts int) ([]core.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+chunkColumns+` FROM chunks
		WHERE embedding_status = ? AND concept_status != ? AND attempts < ?
		ORDER BY document_id, position
		LIMIT ?`,
		string(core.PhaseComplete), string(core.PhaseExtracted), maxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying pending concept chunks: %w", err)
	}
	return scanChunks(rows)
}

// UpdateChunkEmbedding stores the vector and marks the embedding phase
// COMPLETE.
func (s *Store) UpdateChunkEmbedding(ctx context.Context, id core.ID, vector []float32, attemptsUsed int) error {
	return s.updateChunk(ctx, id, `UPDATE chunks SET
		embedding = ?, embedding_status = ?, attempts = attempts + ?, last_error = ''
		WHERE id = ?`,
		encodeVector(vector), string(core.PhaseComplete), attemptsUsed, int64(id),
	)
}

// MarkEmbeddingFailed marks the embedding phase FAILED and records the
// last error.
func (s *Store) MarkEmbeddingFailed(ctx context.Context, id core.ID, lastError string, attemptsUsed int) error {
	return s.updateChunk(ctx, id, `UPDATE chunks SET
		embedding_status = ?, attempts = attempts + ?, last_error = ?
		WHERE id = ?`,
		string(core.PhaseFailed), attemptsUsed, lastError, int64(id),
	)
}

// MarkConceptsExtracted marks the concept phase EXTRACTED.
func (s *Store) MarkConceptsExtracted(ctx context.Context, id core.ID, attemptsUsed int) error {
	return s.updateChunk(ctx, id, `UPDATE chunks SET
		concept_status = ?, attempts = attempts + ?, last_error = ''
		WHERE id = ?`,
		string(core.PhaseExtracted), attemptsUsed, int64(id),
	)
}

// MarkConceptFailed marks the concept phase FAILED and records the last
// error.
func (s *Store) MarkConceptFailed(ctx context.Context, id core.ID, lastError string, attemptsUsed int) error {
	return s.updateChunk(ctx, id, `UPDATE chunks SET
		concept_status = ?, attempts = attempts + ?, last_error = ?
		WHERE id = ?`,
		string(core.PhaseFailed), attemptsUsed, lastError, int64(id),
	)
}

func (s *Store) updateChunk(ctx context.Context, id core.ID, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating chunk %d: %w", id, err)
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

// ChunksForDocument returns all chunks of a document in position order.
func (s *Store) ChunksForDocument(ctx context.Context, documentID core.ID) ([]core.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? ORDER BY position",
		int64(documentID),
	)
	if err != nil {
		return nil, fmt.Errorf("querying document chunks: %w", err)
	}
	return scanChunks(rows)
}

// DocumentComplete reports whether every chunk of the document is fully
// enriched.
func (s *Store) DocumentComplete(ctx context.Context, documentID core.ID) (bool, error) {
	var total, done int
	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(CASE WHEN embedding_status = ? AND concept_status = ? THEN 1 END)
		FROM chunks WHERE document_id = ?`,
		string(core.PhaseComplete), string(core.PhaseExtracted), int64(documentID),
	).Scan(&total, &done)
	if err != nil {
		return false, fmt.Errorf("checking document completion: %w", err)
	}
	return total > 0 && total == done, nil
}

// Stats returns aggregate pending and failure counts used by the
// orchestrator's early-exit check and the stats command.
func (s *Store) Stats(ctx context.Context, maxAttempts int) (*core.ProcessingStats, error) {
	stats := &core.ProcessingStats{}

	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(CASE WHEN embedding_status != ? AND attempts < ? THEN 1 END),
		COUNT(CASE WHEN embedding_status = ? AND concept_status != ? AND attempts < ? THEN 1 END),
		COUNT(CASE WHEN embedding_status = ? THEN 1 END),
		COUNT(CASE WHEN concept_status = ? THEN 1 END),
		COUNT(*)
		FROM chunks`,
		string(core.PhaseComplete), maxAttempts,
		string(core.PhaseComplete), string(core.PhaseExtracted), maxAttempts,
		string(core.PhaseFailed),
		string(core.PhaseFailed),
	).Scan(&stats.PendingEmbeddings, &stats.PendingConcepts,
		&stats.FailedEmbeddings, &stats.FailedConcepts, &stats.TotalChunks)
	if err != nil {
		return nil, fmt.Errorf("querying chunk stats: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(CASE WHEN status = ? THEN 1 END)
		FROM documents`,
		string(core.StatusComplete),
	).Scan(&stats.TotalDocuments, &stats.CompleteDocuments)
	if err != nil {
		return nil, fmt.Errorf("querying document stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM concepts").Scan(&stats.TotalConcepts); err != nil {
		return nil, fmt.Errorf("querying concept count: %w", err)
	}

	return stats, nil
}

func scanChunks(rows *sql.Rows) ([]core.Chunk, error) {
	defer rows.Close()

	var chunks []core.Chunk
	for rows.Next() {
		var (
			chunk           core.Chunk
			blob            []byte
			embeddingStatus string
			conceptStatus   string
		)
		if err := rows.Scan(&chunk.Id, &chunk.DocumentId, &chunk.Text, &chunk.Position,
			&chunk.PageStart, &chunk.PageEnd, &chunk.Section, &chunk.CharCount,
			&blob, &embeddingStatus, &conceptStatus, &chunk.Attempts, &chunk.LastError); err != nil {
			return nil, err
		}

		vector, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		chunk.Vector = vector
		chunk.EmbeddingStatus = core.PhaseStatus(embeddingStatus)
		chunk.ConceptStatus = core.PhaseStatus(conceptStatus)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
