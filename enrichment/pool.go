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
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/latticekb/lattice/ai"
	"github.com/latticekb/lattice/core"
)

// Task is one unit of enrichment work. The pool knows nothing about
// chunk status fields, only chunk identity and text.
type Task struct {
	ChunkId core.ID
	Text    string
}

// Result is the per-task outcome. Exactly one of Vector or Extraction is
// populated on success, depending on the operation. Skipped marks tasks
// that produced no outcome at all, either because the dispatch deadline
// passed before they started or because the run itself was cancelled;
// their state must not be touched by the caller.
type Result struct {
	ChunkId    core.ID
	Vector     []float32
	Extraction *ai.Extraction
	Attempts   int
	Err        error
	Skipped    bool
}

// Pool executes enrichment calls with bounded parallelism and per-item
// retry. One item exhausting its retries never blocks or fails siblings.
type Pool struct {
	workers     *ants.Pool
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// PoolOption configures a Pool.
type PoolOption func(*Pool) error

// WithMaxAttempts sets the per-item retry budget for transient errors.
func WithMaxAttempts(attempts int) PoolOption {
	return func(p *Pool) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = attempts
		return nil
	}
}

// WithBaseDelay sets the initial backoff delay, doubled on each retry.
func WithBaseDelay(delay time.Duration) PoolOption {
	return func(p *Pool) error {
		p.baseDelay = delay
		return nil
	}
}

// NewPool creates an enrichment pool with the given worker ceiling.
// The ceiling should sit below the external service's rate limit.
func NewPool(workers int, opts ...PoolOption) (*Pool, error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkers
	}

	inner, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	p := &Pool{
		workers:     inner,
		maxAttempts: 3,
		baseDelay:   2 * time.Second,
		logger:      slog.Default().With("component", "enrichment-pool"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			inner.Release()
			return nil, err
		}
	}

	return p, nil
}

// Release shuts down the worker pool.
func (p *Pool) Release() {
	p.workers.Release()
}

// EmbedAll generates embeddings for all tasks concurrently. Results are
// positionally aligned with tasks. dispatchCtx gates the start of new
// tasks only; tasks already dispatched run to completion under ctx, so a
// passed dispatch deadline never cancels an item mid-flight.
func (p *Pool) EmbedAll(ctx, dispatchCtx context.Context, embedder ai.Embedder, tasks []Task) []Result {
	return p.run(ctx, dispatchCtx, tasks, func(ctx context.Context, task Task, result *Result) error {
		vector, err := embedder.EmbedText(ctx, task.Text)
		if err != nil {
			return err
		}
		result.Vector = vector
		return nil
	})
}

// ExtractAll extracts concepts for all tasks concurrently. Results are
// positionally aligned with tasks. Dispatch gating works as in EmbedAll.
func (p *Pool) ExtractAll(ctx, dispatchCtx context.Context, extractor ai.ConceptExtractor, tasks []Task) []Result {
	return p.run(ctx, dispatchCtx, tasks, func(ctx context.Context, task Task, result *Result) error {
		extraction, err := extractor.ExtractConcepts(ctx, task.Text)
		if err != nil {
			return err
		}
		result.Extraction = extraction
		return nil
	})
}

func (p *Pool) run(ctx, dispatchCtx context.Context, tasks []Task, operation func(context.Context, Task, *Result) error) []Result {
	results := make([]Result, len(tasks))

	var wg sync.WaitGroup
	for i := range tasks {
		task := tasks[i]
		result := &results[i]
		result.ChunkId = task.ChunkId

		// Once the dispatch deadline has passed, remaining tasks are not
		// dispatched and stay untouched for the next invocation.
		if dispatchCtx.Err() != nil {
			result.Skipped = true
			continue
		}

		wg.Add(1)
		err := p.workers.Submit(func() {
			defer wg.Done()

			if dispatchCtx.Err() != nil {
				result.Skipped = true
				return
			}

			attempts, err := RetryWithBackoff(ctx, func() error {
				return operation(ctx, task, result)
			}, p.maxAttempts, p.baseDelay)

			result.Attempts = attempts
			if err != nil {
				// A cancelled run is not an item failure: the task gets
				// no outcome and must not consume attempts.
				if ctx.Err() != nil {
					result.Skipped = true
					return
				}
				result.Err = err
				p.logger.Debug("enrichment task failed",
					"chunk_id", task.ChunkId, "attempts", attempts, "err", err)
			}
		})
		if err != nil {
			wg.Done()
			result.Err = err
		}
	}

	wg.Wait()
	return results
}
