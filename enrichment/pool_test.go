package enrichment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticekb/lattice/ai"
	"github.com/latticekb/lattice/ai/mock"
	"github.com/latticekb/lattice/core"
)

func setupPool(t *testing.T, workers int, opts ...PoolOption) *Pool {
	t.Helper()
	pool, err := NewPool(workers, opts...)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{ChunkId: core.ID(i + 1), Text: fmt.Sprintf("chunk text %d", i)}
	}
	return tasks
}

func TestNewPoolRejectsInvalidWorkers(t *testing.T) {
	_, err := NewPool(0)
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = NewPool(5, WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestEmbedAllResultsAlignWithTasks(t *testing.T) {
	pool := setupPool(t, 4)
	embedder := mock.NewMockEmbedder()
	tasks := makeTasks(10)

	ctx := context.Background()
	results := pool.EmbedAll(ctx, ctx, embedder, tasks)
	require.Len(t, results, 10)

	for i, result := range results {
		assert.Equal(t, tasks[i].ChunkId, result.ChunkId)
		assert.NoError(t, result.Err)
		assert.False(t, result.Skipped)
		assert.Equal(t, mock.DeterministicVector(tasks[i].Text, 384), result.Vector)
	}
}

func TestEmbedAllIsolatesFailures(t *testing.T) {
	pool := setupPool(t, 4, WithBaseDelay(time.Millisecond))
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "chunk text 3" {
			return nil, ai.ErrMalformedResponse
		}
		return mock.DeterministicVector(text, 384), nil
	}

	ctx := context.Background()
	results := pool.EmbedAll(ctx, ctx, embedder, makeTasks(6))
	require.Len(t, results, 6)

	for i, result := range results {
		if i == 3 {
			assert.ErrorIs(t, result.Err, ai.ErrMalformedResponse)
			assert.Nil(t, result.Vector)
			continue
		}
		assert.NoError(t, result.Err, "task %d must not be affected by its failing sibling", i)
		assert.NotNil(t, result.Vector)
	}
}

func TestEmbedAllRetriesTransientErrors(t *testing.T) {
	pool := setupPool(t, 2, WithMaxAttempts(3), WithBaseDelay(time.Millisecond))
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, ai.ErrRateLimited
	}

	ctx := context.Background()
	results := pool.EmbedAll(ctx, ctx, embedder, makeTasks(1))
	require.Len(t, results, 1)

	assert.ErrorIs(t, results[0].Err, ai.ErrRateLimited)
	assert.Equal(t, 3, results[0].Attempts, "transient errors consume the full retry budget")
}

func TestEmbedAllSkipsOnExpiredDispatchContext(t *testing.T) {
	pool := setupPool(t, 2)
	embedder := mock.NewMockEmbedder()

	dispatchCtx, cancel := context.WithCancel(context.Background())
	cancel()

	results := pool.EmbedAll(context.Background(), dispatchCtx, embedder, makeTasks(4))
	require.Len(t, results, 4)

	for _, result := range results {
		assert.True(t, result.Skipped)
		assert.NoError(t, result.Err)
		assert.Nil(t, result.Vector)
	}
	assert.Zero(t, embedder.CallCount(), "skipped tasks are never dispatched")
}

func TestEmbedAllInFlightTaskFinishesAfterDeadline(t *testing.T) {
	pool := setupPool(t, 1)
	embedder := mock.NewMockEmbedder()

	dispatchCtx, expire := context.WithCancel(context.Background())
	defer expire()

	// The first task expires the dispatch window while it is running; it
	// must still finish, and only the undispatched sibling is skipped.
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		expire()
		require.NoError(t, ctx.Err(), "a dispatched task must not be cancelled mid-flight")
		return mock.DeterministicVector(text, 384), nil
	}

	results := pool.EmbedAll(context.Background(), dispatchCtx, embedder, makeTasks(2))
	require.Len(t, results, 2)

	assert.NoError(t, results[0].Err)
	assert.False(t, results[0].Skipped)
	assert.NotNil(t, results[0].Vector)

	assert.True(t, results[1].Skipped)
	assert.NoError(t, results[1].Err)
}

func TestEmbedAllCancelledRunSkipsInsteadOfFailing(t *testing.T) {
	pool := setupPool(t, 1, WithBaseDelay(time.Millisecond))
	embedder := mock.NewMockEmbedder()

	ctx, cancel := context.WithCancel(context.Background())
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		cancel()
		return nil, ctx.Err()
	}

	results := pool.EmbedAll(ctx, ctx, embedder, makeTasks(1))
	require.Len(t, results, 1)

	// Cancellation of the whole run is not an item failure
	assert.True(t, results[0].Skipped)
	assert.NoError(t, results[0].Err)
}

func TestExtractAllPopulatesExtractions(t *testing.T) {
	pool := setupPool(t, 4)
	extractor := mock.NewMockConceptExtractor()

	tasks := []Task{
		{ChunkId: 1, Text: "kubernetes orchestrates containers"},
		{ChunkId: 2, Text: "terraform manages infrastructure"},
	}

	ctx := context.Background()
	results := pool.ExtractAll(ctx, ctx, extractor, tasks)
	require.Len(t, results, 2)

	for i, result := range results {
		assert.Equal(t, tasks[i].ChunkId, result.ChunkId)
		require.NoError(t, result.Err)
		require.NotNil(t, result.Extraction)
		assert.NotEmpty(t, result.Extraction.Concepts)
	}
}
