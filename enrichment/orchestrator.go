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


package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/latticekb/lattice/ai"
	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/graph"
	"github.com/latticekb/lattice/storage"
)

// maxErrorLength bounds the last-error text stored per chunk.
const maxErrorLength = 500

// Config holds the orchestrator's tunables. All values are externally
// supplied; the zero value is replaced by defaults in NewOrchestrator.
type Config struct {
	EmbeddingBatchSize int
	ConceptBatchSize   int
	MaxAttempts        int
	Workers            int
	TimeBudget         time.Duration
	BaseDelay          time.Duration
	EmbeddingEnabled   bool
	ConceptsEnabled    bool
}

// DefaultConfig returns the standard orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		EmbeddingBatchSize: 500,
		ConceptBatchSize:   200,
		MaxAttempts:        3,
		Workers:            20,
		TimeBudget:         9 * time.Minute,
		BaseDelay:          2 * time.Second,
		EmbeddingEnabled:   true,
		ConceptsEnabled:    true,
	}
}

// Summary reports what one orchestrator invocation accomplished.
type Summary struct {
	RunId               string
	EarlyExit           bool
	EmbeddingsProcessed int
	EmbeddingsFailed    int
	ConceptsProcessed   int
	ConceptsFailed      int
	Skipped             int
	DocumentsCompleted  int
	Duration            time.Duration
}

// Orchestrator is the resumable batch scheduler. Each invocation discovers
// pending work, processes bounded batches under a wall-clock budget, and
// advances per-chunk and per-document state. Invoking it with nothing
// pending is a no-op.
type Orchestrator struct {
	store    storage.Store
	provider ai.Provider
	writer   *graph.Writer
	pool     *Pool
	config   Config
	logger   *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator) error

// WithConfig replaces the default configuration wholesale.
func WithConfig(config Config) OrchestratorOption {
	return func(o *Orchestrator) error {
		if config.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		if config.Workers <= 0 {
			return ErrInvalidWorkers
		}
		o.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator with its enrichment pool and
// graph writer.
func NewOrchestrator(store storage.Store, provider ai.Provider, opts ...OrchestratorOption) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	o := &Orchestrator{
		store:    store,
		provider: provider,
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	writer, err := graph.NewWriter(store, provider)
	if err != nil {
		return nil, err
	}
	o.writer = writer

	pool, err := NewPool(o.config.Workers,
		WithMaxAttempts(o.config.MaxAttempts),
		WithBaseDelay(o.config.BaseDelay))
	if err != nil {
		return nil, err
	}
	o.pool = pool

	return o, nil
}

// Release shuts down the enrichment pool.
func (o *Orchestrator) Release() {
	o.pool.Release()
}

// ProcessOnce runs one orchestrator invocation: early-exit check, the
// embedding phase, the concept phase if time remains, and the completion
// sweep for every document touched. Safe to call repeatedly; a run with
// nothing pending performs no enrichment calls and no status writes.
func (o *Orchestrator) ProcessOnce(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunId: uuid.NewString()}
	logger := o.logger.With("run_id", summary.RunId)

	stats, err := o.store.Stats(ctx, o.config.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("querying pending stats: %w", err)
	}

	if stats.PendingEmbeddings == 0 && stats.PendingConcepts == 0 {
		summary.EarlyExit = true
		summary.Duration = time.Since(start)
		logger.Debug("no pending work, exiting early")
		return summary, nil
	}

	logger.Info("starting enrichment run",
		"pending_embeddings", stats.PendingEmbeddings,
		"pending_concepts", stats.PendingConcepts)

	// The deadline governs dispatch only; in-flight items finish and
	// their results are written with the parent context.
	deadlineCtx, cancel := context.WithDeadline(ctx, start.Add(o.config.TimeBudget))
	defer cancel()

	touched := make(map[core.ID]bool)

	if o.config.EmbeddingEnabled && stats.PendingEmbeddings > 0 {
		if err := o.runEmbeddingPhase(ctx, deadlineCtx, summary, touched, logger); err != nil {
			return nil, err
		}
	}

	if o.config.ConceptsEnabled && deadlineCtx.Err() == nil {
		if err := o.runConceptPhase(ctx, deadlineCtx, summary, touched, logger); err != nil {
			return nil, err
		}
	}

	if err := o.completionSweep(ctx, summary, touched, logger); err != nil {
		return nil, err
	}

	summary.Duration = time.Since(start)
	logger.Info("enrichment run complete",
		"embeddings_processed", summary.EmbeddingsProcessed,
		"embeddings_failed", summary.EmbeddingsFailed,
		"concepts_processed", summary.ConceptsProcessed,
		"concepts_failed", summary.ConceptsFailed,
		"skipped", summary.Skipped,
		"documents_completed", summary.DocumentsCompleted,
		"duration", summary.Duration)

	return summary, nil
}

func (o *Orchestrator) runEmbeddingPhase(ctx, deadlineCtx context.Context, summary *Summary, touched map[core.ID]bool, logger *slog.Logger) error {
	phaseStart := time.Now()

	chunks, err := o.store.PendingEmbeddingChunks(ctx, o.config.EmbeddingBatchSize, o.config.MaxAttempts)
	if err != nil {
		return fmt.Errorf("querying embedding batch: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	tasks := make([]Task, len(chunks))
	for i := range chunks {
		tasks[i] = Task{ChunkId: chunks[i].Id, Text: chunks[i].Text}
	}

	results := o.pool.EmbedAll(ctx, deadlineCtx, o.provider.Embedder(), tasks)

	for i, result := range results {
		chunk := &chunks[i]
		if result.Skipped {
			summary.Skipped++
			continue
		}

		touched[chunk.DocumentId] = true
		if result.Err != nil {
			summary.EmbeddingsFailed++
			if err := o.store.MarkEmbeddingFailed(ctx, chunk.Id, truncateError(result.Err), result.Attempts); err != nil {
				logger.Error("failed to record embedding failure", "chunk_id", chunk.Id, "err", err)
			}
			continue
		}

		summary.EmbeddingsProcessed++
		if err := o.store.UpdateChunkEmbedding(ctx, chunk.Id, result.Vector, 0); err != nil {
			logger.Error("failed to store embedding", "chunk_id", chunk.Id, "err", err)
		}
	}

	logger.Info("embedding phase complete",
		"step", "embeddings",
		"batch", len(chunks),
		"processed", summary.EmbeddingsProcessed,
		"failed", summary.EmbeddingsFailed,
		"duration", time.Since(phaseStart))

	return nil
}

func (o *Orchestrator) runConceptPhase(ctx, deadlineCtx context.Context, summary *Summary, touched map[core.ID]bool, logger *slog.Logger) error {
	phaseStart := time.Now()

	chunks, err := o.store.PendingConceptChunks(ctx, o.config.ConceptBatchSize, o.config.MaxAttempts)
	if err != nil {
		return fmt.Errorf("querying concept batch: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	tasks := make([]Task, len(chunks))
	for i := range chunks {
		tasks[i] = Task{ChunkId: chunks[i].Id, Text: chunks[i].Text}
	}

	results := o.pool.ExtractAll(ctx, deadlineCtx, o.provider.ConceptExtractor(), tasks)

	for i, result := range results {
		chunk := &chunks[i]
		if result.Skipped {
			summary.Skipped++
			continue
		}

		touched[chunk.DocumentId] = true
		if result.Err != nil {
			summary.ConceptsFailed++
			if err := o.store.MarkConceptFailed(ctx, chunk.Id, truncateError(result.Err), result.Attempts); err != nil {
				logger.Error("failed to record extraction failure", "chunk_id", chunk.Id, "err", err)
			}
			continue
		}

		if err := o.writer.StoreExtraction(ctx, chunk, result.Extraction); err != nil {
			// A storage failure is not an extraction failure: leave the
			// chunk pending without consuming an attempt.
			logger.Error("failed to store extraction", "chunk_id", chunk.Id, "err", err)
			continue
		}

		summary.ConceptsProcessed++
		if err := o.store.MarkConceptsExtracted(ctx, chunk.Id, 0); err != nil {
			logger.Error("failed to mark concepts extracted", "chunk_id", chunk.Id, "err", err)
		}
	}

	logger.Info("concept phase complete",
		"step", "concepts",
		"batch", len(chunks),
		"processed", summary.ConceptsProcessed,
		"failed", summary.ConceptsFailed,
		"duration", time.Since(phaseStart))

	return nil
}

// completionSweep advances document lifecycle state for every document
// touched in this invocation. Fully enriched documents get the document
// relationship pass and coverage edges before flipping COMPLETE.
func (o *Orchestrator) completionSweep(ctx context.Context, summary *Summary, touched map[core.ID]bool, logger *slog.Logger) error {
	for documentID := range touched {
		chunks, err := o.store.ChunksForDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("inspecting document %d: %w", documentID, err)
		}

		done := 0
		exhausted := 0
		for i := range chunks {
			if chunks[i].EmbeddingStatus == core.PhaseComplete && chunks[i].ConceptStatus == core.PhaseExtracted {
				done++
			} else if chunks[i].Attempts >= o.config.MaxAttempts {
				exhausted++
			}
		}

		switch {
		case len(chunks) > 0 && done == len(chunks):
			if err := o.writer.DocumentRelationshipPass(ctx, documentID); err != nil {
				logger.Warn("document relationship pass failed", "document_id", documentID, "err", err)
			}
			if err := o.writer.CoverageEdges(ctx, documentID); err != nil {
				logger.Warn("coverage pass failed", "document_id", documentID, "err", err)
			}
			if err := o.store.UpdateDocumentStatus(ctx, documentID, string(core.StatusComplete), ""); err != nil {
				return fmt.Errorf("marking document %d complete: %w", documentID, err)
			}
			summary.DocumentsCompleted++
			logger.Info("document complete", "document_id", documentID, "chunks", len(chunks))

		case done+exhausted == len(chunks):
			// Nothing left that could still succeed
			message := fmt.Sprintf("%d of %d chunks exhausted their attempts", exhausted, len(chunks))
			if err := o.store.UpdateDocumentStatus(ctx, documentID, string(core.StatusExtractFailed), message); err != nil {
				return fmt.Errorf("marking document %d failed: %w", documentID, err)
			}
			logger.Warn("document extraction failed", "document_id", documentID, "exhausted", exhausted)

		default:
			if err := o.store.UpdateDocumentStatus(ctx, documentID, string(core.StatusExtracting), ""); err != nil {
				return fmt.Errorf("marking document %d extracting: %w", documentID, err)
			}
		}
	}

	return nil
}

func truncateError(err error) string {
	message := err.Error()
	if len(message) > maxErrorLength {
		return message[:maxErrorLength]
	}
	return message
}
