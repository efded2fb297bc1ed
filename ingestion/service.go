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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/latticekb/lattice/ai"
	"github.com/latticekb/lattice/chunker"
	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/parser"
	"github.com/latticekb/lattice/storage"
)

// Service runs the ingest path: validate, parse, chunk, and atomically
// store a document with its chunks in initial processing state.
type Service struct {
	store    storage.Store
	limits   Limits
	maxSize  int
	overlap  int
	embedder ai.Embedder // optional, embeds chunks inline during ingest
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLimits overrides the default validation limits.
func WithLimits(limits Limits) Option {
	return func(s *Service) error {
		s.limits = limits
		return nil
	}
}

// WithChunkSize sets the maximum chunk size and overlap.
func WithChunkSize(maxSize, overlap int) Option {
	return func(s *Service) error {
		if maxSize <= 0 || maxSize > 4000 {
			return fmt.Errorf("%w: max chunk size %d", chunker.ErrInvalidChunkSize, maxSize)
		}
		if overlap < 0 || overlap >= maxSize {
			return fmt.Errorf("%w: overlap %d", chunker.ErrInvalidOverlap, overlap)
		}
		s.maxSize = maxSize
		s.overlap = overlap
		return nil
	}
}

// WithInlineEmbedder makes ingestion embed chunks immediately instead of
// leaving them PENDING for the orchestrator. Stored chunks then have
// their embedding phase seeded COMPLETE.
func WithInlineEmbedder(embedder ai.Embedder) Option {
	return func(s *Service) error {
		s.embedder = embedder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an ingestion service.
func NewService(store storage.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	s := &Service{
		store:   store,
		limits:  DefaultLimits(),
		maxSize: chunker.DefaultMaxChunkSize,
		overlap: chunker.DefaultOverlap,
		logger:  slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// IngestObject processes one uploaded object through the full ingest
// path. On validation or parse failure a PARSE_FAILED document row is
// recorded with the reason and an error is returned; no chunks are
// written. On success the stored document id is returned with every
// chunk in its initial processing state.
func (s *Service) IngestObject(ctx context.Context, name string, size int64, r io.Reader) (core.ID, error) {
	start := time.Now()

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading object %s: %w", name, err)
	}

	if result := s.limits.CheckFile(name, size, data); !result.OK {
		return s.rejectDocument(ctx, name, "", 0, result.Reason)
	}
	s.logStep("validate_file", start, "name", name, "size", size)

	parseStart := time.Now()
	parsed, err := parser.Parse(name, data)
	if err != nil {
		_, rerr := s.rejectDocument(ctx, name, "", 0, err.Error())
		if rerr != nil {
			return 0, rerr
		}
		return 0, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	s.logStep("parse", parseStart, "name", name, "pages", parsed.PageCount())

	if result := s.limits.CheckParsed(parsed); !result.OK {
		return s.rejectDocument(ctx, name, parsed.SourceType, parsed.PageCount(), result.Reason)
	}

	chunkStart := time.Now()
	chunks, err := chunker.ChunkDocument(parsed, s.maxSize, s.overlap)
	if err != nil {
		return 0, fmt.Errorf("chunking %s: %w", name, err)
	}
	s.logStep("chunk", chunkStart, "name", name, "chunks", len(chunks))

	if result := s.limits.CheckChunks(chunks); !result.OK {
		return s.rejectDocument(ctx, name, parsed.SourceType, parsed.PageCount(), result.Reason)
	}

	if s.embedder != nil {
		if err := s.embedChunks(ctx, chunks); err != nil {
			// Inline embedding is best-effort: chunks stay PENDING and
			// the orchestrator picks them up later.
			s.logger.Warn("inline embedding failed, deferring to orchestrator", "name", name, "err", err)
		}
	}

	doc := &core.Document{
		Title:      parsed.Title,
		Author:     parsed.Author,
		SourceType: parsed.SourceType,
		FilePath:   name,
		FileHash:   core.HashContent(data),
		PageCount:  parsed.PageCount(),
	}

	storeStart := time.Now()
	id, err := s.store.StoreDocument(ctx, doc, chunks)
	if err != nil {
		return 0, fmt.Errorf("storing %s: %w", name, err)
	}
	s.logStep("store", storeStart, "name", name, "document_id", id)

	s.logger.Info("ingested document",
		"document_id", id,
		"name", name,
		"pages", parsed.PageCount(),
		"chunks", len(chunks),
		"duration", time.Since(start))

	return id, nil
}

// rejectDocument records a PARSE_FAILED row and returns the validation
// error.
func (s *Service) rejectDocument(ctx context.Context, name, sourceType string, pageCount int, reason string) (core.ID, error) {
	s.logger.Warn("rejected document", "name", name, "reason", reason)

	doc := &core.Document{
		FilePath:   name,
		SourceType: sourceType,
		PageCount:  pageCount,
	}
	if _, err := s.store.RecordParseFailure(ctx, doc, reason); err != nil {
		return 0, fmt.Errorf("recording rejection of %s: %w", name, err)
	}

	return 0, fmt.Errorf("%w: %s", ErrValidationFailed, reason)
}

func (s *Service) embedChunks(ctx context.Context, chunks []core.Chunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}
	return nil
}

func (s *Service) logStep(step string, start time.Time, args ...any) {
	args = append(args, "step", step, "duration", time.Since(start))
	s.logger.Debug("ingest step complete", args...)
}
