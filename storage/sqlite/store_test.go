package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/storage"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(path string) *core.Document {
	return &core.Document{
		Title:      "Test Document",
		Author:     "Author",
		SourceType: "markdown",
		FilePath:   path,
		FileHash:   "abc123",
		PageCount:  1,
	}
}

func testChunks(n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.Chunk{
			Text:      "chunk text " + string(rune('a'+i)),
			Position:  i,
			PageStart: 1,
			PageEnd:   1,
			CharCount: 12,
		}
	}
	return chunks
}

func TestOpenRunsMigrations(t *testing.T) {
	store := setupStore(t)

	var count int
	err := store.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	require.NoError(t, err)
	assert.Greater(t, count, 0)
}

func TestStoreDocumentSeedsChunkState(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	chunks := testChunks(3)
	chunks[1].Vector = []float32{0.1, 0.2, 0.3}

	id, err := store.StoreDocument(ctx, testDocument("a.md"), chunks)
	require.NoError(t, err)

	stored, err := store.ChunksForDocument(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.Equal(t, core.PhasePending, stored[0].EmbeddingStatus)
	assert.Equal(t, core.PhaseComplete, stored[1].EmbeddingStatus)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, stored[1].Vector)
	assert.Equal(t, core.PhasePending, stored[2].EmbeddingStatus)

	for _, chunk := range stored {
		assert.Equal(t, core.PhasePending, chunk.ConceptStatus)
		assert.Zero(t, chunk.Attempts)
	}

	// Structural edges exist for every chunk
	var edges int
	err = store.db.QueryRow("SELECT COUNT(*) FROM from_source WHERE document_id = ?", int64(id)).Scan(&edges)
	require.NoError(t, err)
	assert.Equal(t, 3, edges)
}

func TestStoreDocumentReplacesByPath(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first, err := store.StoreDocument(ctx, testDocument("same.md"), testChunks(4))
	require.NoError(t, err)

	second, err := store.StoreDocument(ctx, testDocument("same.md"), testChunks(2))
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	var docs int
	err = store.db.QueryRow("SELECT COUNT(*) FROM documents WHERE file_path = 'same.md'").Scan(&docs)
	require.NoError(t, err)
	assert.Equal(t, 1, docs)

	// Old chunks and edges are cascaded away, only the second set remains
	var chunkCount int
	err = store.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&chunkCount)
	require.NoError(t, err)
	assert.Equal(t, 2, chunkCount)

	var edgeCount int
	err = store.db.QueryRow("SELECT COUNT(*) FROM from_source").Scan(&edgeCount)
	require.NoError(t, err)
	assert.Equal(t, 2, edgeCount)
}

func TestRecordParseFailure(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.RecordParseFailure(ctx, &core.Document{FilePath: "bad.pdf"}, "file size 300 exceeds limit 250")
	require.NoError(t, err)

	doc, err := store.GetDocumentByPath(ctx, "bad.pdf")
	require.NoError(t, err)
	assert.Equal(t, core.StatusParseFailed, doc.Status)
	assert.Equal(t, "file size 300 exceeds limit 250", doc.ErrorMessage)
}

func TestDeleteDocumentCascades(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.StoreDocument(ctx, testDocument("del.md"), testChunks(2))
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocument(ctx, id))

	_, err = store.GetDocument(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var chunkCount int
	err = store.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&chunkCount)
	require.NoError(t, err)
	assert.Zero(t, chunkCount)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetDocument(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetDocumentByPath(context.Background(), "nope.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPendingEmbeddingChunksOrderAndCeiling(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.StoreDocument(ctx, testDocument("p.md"), testChunks(3))
	require.NoError(t, err)

	pending, err := store.PendingEmbeddingChunks(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, chunk := range pending {
		assert.Equal(t, i, chunk.Position)
		assert.Equal(t, id, chunk.DocumentId)
	}

	// A failed chunk stays eligible while attempts < 3
	require.NoError(t, store.MarkEmbeddingFailed(ctx, pending[0].Id, "rate limited", 2))
	eligible, err := store.PendingEmbeddingChunks(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, eligible, 3)

	// Exhausting the ceiling removes it from the batch
	require.NoError(t, store.MarkEmbeddingFailed(ctx, pending[0].Id, "rate limited", 1))
	eligible, err = store.PendingEmbeddingChunks(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, eligible, 2)
}

func TestPendingConceptChunksGatedOnEmbedding(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.StoreDocument(ctx, testDocument("g.md"), testChunks(2))
	require.NoError(t, err)

	// Nothing is concept-ready while embeddings are pending
	ready, err := store.PendingConceptChunks(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, ready)

	pending, err := store.PendingEmbeddingChunks(ctx, 10, 3)
	require.NoError(t, err)
	require.NoError(t, store.UpdateChunkEmbedding(ctx, pending[0].Id, []float32{1, 2}, 0))

	ready, err = store.PendingConceptChunks(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, pending[0].Id, ready[0].Id)

	// Extracted chunks leave the queue for good
	require.NoError(t, store.MarkConceptsExtracted(ctx, ready[0].Id, 0))
	ready, err = store.PendingConceptChunks(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestDocumentComplete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	id, err := store.StoreDocument(ctx, testDocument("c.md"), testChunks(2))
	require.NoError(t, err)

	complete, err := store.DocumentComplete(ctx, id)
	require.NoError(t, err)
	assert.False(t, complete)

	chunks, err := store.ChunksForDocument(ctx, id)
	require.NoError(t, err)
	for _, chunk := range chunks {
		require.NoError(t, store.UpdateChunkEmbedding(ctx, chunk.Id, []float32{1}, 0))
	}

	complete, err = store.DocumentComplete(ctx, id)
	require.NoError(t, err)
	assert.False(t, complete, "embedding alone is not completion")

	for _, chunk := range chunks {
		require.NoError(t, store.MarkConceptsExtracted(ctx, chunk.Id, 0))
	}

	complete, err = store.DocumentComplete(ctx, id)
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestUpsertConceptCaseInsensitive(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first, err := store.UpsertConcept(ctx, "Data Mesh", "methodology", "decentralized ownership")
	require.NoError(t, err)

	second, err := store.UpsertConcept(ctx, "data mesh", "methodology", "updated description")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM concepts").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	concept, err := store.GetConceptByName(ctx, "DATA MESH")
	require.NoError(t, err)
	assert.Equal(t, "updated description", concept.Description)
}

func TestUpsertMentionNoDuplicates(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	docID, err := store.StoreDocument(ctx, testDocument("m.md"), testChunks(1))
	require.NoError(t, err)
	chunks, err := store.ChunksForDocument(ctx, docID)
	require.NoError(t, err)

	conceptID, err := store.UpsertConcept(ctx, "event sourcing", "pattern", "")
	require.NoError(t, err)

	require.NoError(t, store.UpsertMention(ctx, chunks[0].Id, conceptID, 0.8, "snippet"))
	require.NoError(t, store.UpsertMention(ctx, chunks[0].Id, conceptID, 0.9, "different snippet"))

	var count int
	var relevance float64
	err = store.db.QueryRow("SELECT COUNT(*), MAX(relevance) FROM mentions").Scan(&count, &relevance)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0.8, relevance, "first write wins")
}

func TestUpsertRelationNoDuplicates(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a, err := store.UpsertConcept(ctx, "cqrs", "pattern", "")
	require.NoError(t, err)
	b, err := store.UpsertConcept(ctx, "event sourcing", "pattern", "")
	require.NoError(t, err)

	require.NoError(t, store.UpsertRelation(ctx, a, b, "enables", 0.8, 0))
	require.NoError(t, store.UpsertRelation(ctx, a, b, "enables", 0.7, 0))

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM related_to").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A different type between the same pair is a distinct edge
	require.NoError(t, store.UpsertRelation(ctx, a, b, "requires", 0.8, 0))
	err = store.db.QueryRow("SELECT COUNT(*) FROM related_to").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	linked, err := store.RelationExists(ctx, b, a)
	require.NoError(t, err)
	assert.True(t, linked, "existence check is direction-agnostic")
}

func TestSharedConcepts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	docA, err := store.StoreDocument(ctx, testDocument("s1.md"), testChunks(1))
	require.NoError(t, err)
	docB, err := store.StoreDocument(ctx, testDocument("s2.md"), testChunks(1))
	require.NoError(t, err)

	chunksA, err := store.ChunksForDocument(ctx, docA)
	require.NoError(t, err)
	chunksB, err := store.ChunksForDocument(ctx, docB)
	require.NoError(t, err)

	shared, err := store.UpsertConcept(ctx, "data mesh", "methodology", "")
	require.NoError(t, err)
	lonely, err := store.UpsertConcept(ctx, "kafka", "tool", "")
	require.NoError(t, err)

	require.NoError(t, store.UpsertMention(ctx, chunksA[0].Id, shared, 0.8, ""))
	require.NoError(t, store.UpsertMention(ctx, chunksB[0].Id, shared, 0.8, ""))
	require.NoError(t, store.UpsertMention(ctx, chunksA[0].Id, lonely, 0.8, ""))

	concepts, err := store.SharedConcepts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "data mesh", concepts[0].Name)
}

func TestStats(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Zero(t, stats.PendingEmbeddings)
	assert.Zero(t, stats.PendingConcepts)

	id, err := store.StoreDocument(ctx, testDocument("st.md"), testChunks(3))
	require.NoError(t, err)

	stats, err = store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.PendingEmbeddings)
	assert.Zero(t, stats.PendingConcepts)
	assert.Equal(t, 3, stats.TotalChunks)
	assert.Equal(t, 1, stats.TotalDocuments)

	chunks, err := store.ChunksForDocument(ctx, id)
	require.NoError(t, err)
	require.NoError(t, store.UpdateChunkEmbedding(ctx, chunks[0].Id, []float32{1}, 0))

	stats, err = store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingEmbeddings)
	assert.Equal(t, 1, stats.PendingConcepts)

	// An exhausted chunk counts as neither pending nor eligible
	require.NoError(t, store.MarkEmbeddingFailed(ctx, chunks[1].Id, "boom", 3))
	stats, err = store.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingEmbeddings)
	assert.Equal(t, 1, stats.FailedEmbeddings)
}

func TestVectorRoundTrip(t *testing.T) {
	vector := []float32{0.5, -1.25, 3.75, 0}

	decoded, err := decodeVector(encodeVector(vector))
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)

	empty, err := decodeVector(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, storage.ErrInvalidVector)
}
