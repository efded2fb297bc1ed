package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticekb/lattice/core"
)

// seedSharedConcept creates a concept mentioned in every given chunk and
// pins its embedding so similarity is under test control.
func seedSharedConcept(t *testing.T, f *writerFixture, name string, vector []float32, chunks ...core.Chunk) core.ID {
	t.Helper()
	ctx := context.Background()

	id, err := f.store.UpsertConcept(ctx, name, "principle", "")
	require.NoError(t, err)
	for _, chunk := range chunks {
		require.NoError(t, f.store.UpsertMention(ctx, chunk.Id, id, MentionRelevance, ""))
	}
	if vector != nil {
		require.NoError(t, f.store.UpdateConceptEmbedding(ctx, id, vector))
	}
	return id
}

func TestCrossDocumentPassLinksSimilarConcepts(t *testing.T) {
	f := setupWriter(t)
	ctx := context.Background()

	_, chunksA := seedChunks(t, f.store, "x1.md", 1)
	_, chunksB := seedChunks(t, f.store, "x2.md", 1)

	// Two near-parallel vectors and one orthogonal, all shared across
	// both documents.
	near := seedSharedConcept(t, f, "stream processing", []float32{1, 0, 0}, chunksA[0], chunksB[0])
	similar := seedSharedConcept(t, f, "event streaming", []float32{0.95, 0.05, 0}, chunksA[0], chunksB[0])
	far := seedSharedConcept(t, f, "governance", []float32{0, 1, 0}, chunksA[0], chunksB[0])

	created, err := f.writer.CrossDocumentPass(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	linked, err := f.store.RelationExists(ctx, near, similar)
	require.NoError(t, err)
	assert.True(t, linked)

	linked, err = f.store.RelationExists(ctx, near, far)
	require.NoError(t, err)
	assert.False(t, linked, "orthogonal vectors fall below the threshold")

	// Idempotent: the second pass finds the link already present
	created, err = f.writer.CrossDocumentPass(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestCrossDocumentPassIgnoresSingleDocumentConcepts(t *testing.T) {
	f := setupWriter(t)
	ctx := context.Background()

	_, chunksA := seedChunks(t, f.store, "y1.md", 1)
	_, chunksB := seedChunks(t, f.store, "y2.md", 1)

	shared := seedSharedConcept(t, f, "shared idea", []float32{1, 0}, chunksA[0], chunksB[0])
	local := seedSharedConcept(t, f, "local idea", []float32{1, 0}, chunksA[0])

	created, err := f.writer.CrossDocumentPass(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, created, "a concept in one document is never linked")

	linked, err := f.store.RelationExists(ctx, shared, local)
	require.NoError(t, err)
	assert.False(t, linked)
}

func TestCrossDocumentPassSkipsAlreadyRelatedConcepts(t *testing.T) {
	f := setupWriter(t)
	ctx := context.Background()

	_, chunksA := seedChunks(t, f.store, "z1.md", 1)
	_, chunksB := seedChunks(t, f.store, "z2.md", 1)

	a := seedSharedConcept(t, f, "alpha", []float32{1, 0}, chunksA[0], chunksB[0])
	b := seedSharedConcept(t, f, "beta", []float32{1, 0}, chunksA[0], chunksB[0])

	// An existing typed edge suppresses the similarity link
	require.NoError(t, f.store.UpsertRelation(ctx, b, a, "requires", ChunkRelationStrength, 0))

	created, err := f.writer.CrossDocumentPass(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestCrossDocumentPassBackfillsEmbeddings(t *testing.T) {
	f := setupWriter(t)
	ctx := context.Background()

	_, chunksA := seedChunks(t, f.store, "b1.md", 1)
	_, chunksB := seedChunks(t, f.store, "b2.md", 1)

	// No pinned vector: the pass must embed from name and description
	id, err := f.store.UpsertConcept(ctx, "late concept", "principle", "backfilled later")
	require.NoError(t, err)
	require.NoError(t, f.store.UpsertMention(ctx, chunksA[0].Id, id, MentionRelevance, ""))
	require.NoError(t, f.store.UpsertMention(ctx, chunksB[0].Id, id, MentionRelevance, ""))

	_, err = f.writer.CrossDocumentPass(ctx, 0)
	require.NoError(t, err)
	assert.Positive(t, f.embedder.CallCount())

	missing, err := f.store.ConceptsMissingEmbedding(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)

	concept, err := f.store.GetConceptByName(ctx, "late concept")
	require.NoError(t, err)
	assert.NotEmpty(t, concept.Vector)
}

func TestCrossDocumentPassCustomThreshold(t *testing.T) {
	f := setupWriter(t)
	ctx := context.Background()

	_, chunksA := seedChunks(t, f.store, "t1.md", 1)
	_, chunksB := seedChunks(t, f.store, "t2.md", 1)

	seedSharedConcept(t, f, "one", []float32{1, 0}, chunksA[0], chunksB[0])
	seedSharedConcept(t, f, "two", []float32{1, 1}, chunksA[0], chunksB[0])

	// cos(45°) ≈ 0.707: below the default threshold, above a looser one
	created, err := f.writer.CrossDocumentPass(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, created)

	created, err = f.writer.CrossDocumentPass(ctx, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
