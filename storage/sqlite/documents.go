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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/storage"
)

// StoreDocument atomically replaces any document at doc.FilePath and
// inserts doc with its chunks and from_source edges. The delete cascades
// to the old document's chunks and edges, which is what makes
// re-ingestion idempotent.
func (s *Store) StoreDocument(ctx context.Context, doc *core.Document, chunks []core.Chunk) (core.ID, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return 0, err
	}
	for i := range chunks {
		if err := core.ValidateChunk(&chunks[i]); err != nil {
			return 0, err
		}
	}

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return 0, fmt.Errorf("encoding metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE file_path = ?", doc.FilePath); err != nil {
		return 0, fmt.Errorf("deleting prior document: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := tx.ExecContext(ctx, `INSERT INTO documents
		(title, author, source_type, file_path, file_hash, page_count, status, error_message, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', ?, ?, ?)`,
		doc.Title, doc.Author, doc.SourceType, doc.FilePath, doc.FileHash,
		doc.PageCount, string(core.StatusParsed), string(metadata), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}

	docID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading document id: %w", err)
	}

	for i := range chunks {
		chunk := &chunks[i]

		embeddingStatus := core.PhasePending
		if len(chunk.Vector) > 0 {
			embeddingStatus = core.PhaseComplete
		}

		result, err := tx.ExecContext(ctx, `INSERT INTO chunks
			(document_id, text, position, page_start, page_end, section, char_count, embedding, embedding_status, concept_status, attempts, last_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '')`,
			docID, chunk.Text, chunk.Position, chunk.PageStart, chunk.PageEnd,
			chunk.Section, chunk.CharCount, encodeVector(chunk.Vector),
			string(embeddingStatus), string(core.PhasePending),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting chunk %d: %w", chunk.Position, err)
		}

		chunkID, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading chunk id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO from_source (chunk_id, document_id) VALUES (?, ?)",
			chunkID, docID,
		); err != nil {
			return 0, fmt.Errorf("inserting from_source edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing document: %w", err)
	}

	s.logger.Info("stored document", "id", docID, "path", doc.FilePath, "chunks", len(chunks))
	return core.ID(docID), nil
}

// RecordParseFailure upserts a PARSE_FAILED document row at doc.FilePath
// carrying the rejection reason. Chunks from a prior successful ingestion
// of the same path are left untouched.
func (s *Store) RecordParseFailure(ctx context.Context, doc *core.Document, reason string) (core.ID, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `INSERT INTO documents
		(title, author, source_type, file_path, file_hash, page_count, status, error_message, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '{}', ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at`,
		doc.Title, doc.Author, doc.SourceType, doc.FilePath, doc.FileHash,
		doc.PageCount, string(core.StatusParseFailed), reason, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("recording parse failure: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading document id: %w", err)
	}

	s.logger.Warn("recorded parse failure", "path", doc.FilePath, "reason", reason)
	return core.ID(id), nil
}

const documentColumns = "id, title, author, source_type, file_path, file_hash, page_count, status, error_message, metadata, created_at, updated_at"

// GetDocument fetches a document by id.
func (s *Store) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", int64(id))
	return scanDocument(row)
}

// GetDocumentByPath fetches a document by its external path.
func (s *Store) GetDocumentByPath(ctx context.Context, path string) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE file_path = ?", path)
	return scanDocument(row)
}

// UpdateDocumentStatus sets the lifecycle status and error message.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id core.ID, status string, errorMessage string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error_message = ?, updated_at = ? WHERE id = ?",
		status, errorMessage, now, int64(id),
	)
	if err != nil {
		return fmt.Errorf("updating document status: %w", err)
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

// DeleteDocument removes a document; chunks and edges cascade.
func (s *Store) DeleteDocument(ctx context.Context, id core.ID) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
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

func scanDocument(row *sql.Row) (*core.Document, error) {
	var (
		doc       core.Document
		status    string
		metadata  string
		createdAt string
		updatedAt string
	)
	err := row.Scan(&doc.Id, &doc.Title, &doc.Author, &doc.SourceType, &doc.FilePath,
		&doc.FileHash, &doc.PageCount, &status, &doc.ErrorMessage, &metadata,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.Status = core.DocumentStatus(status)
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	if doc.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if doc.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &doc, nil
}
