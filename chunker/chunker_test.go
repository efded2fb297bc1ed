package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticekb/lattice/parser"
)

// sentences builds text of roughly n characters out of short sentences.
func sentences(n int) string {
	var b strings.Builder
	i := 0
	for b.Len() < n {
		i++
		fmt.Fprintf(&b, "This is sentence number %d of the page. ", i)
	}
	return strings.TrimSpace(b.String()[:n])
}

func TestChunkDocumentSmallPagesOneChunkEach(t *testing.T) {
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{
			{Number: 1, Text: "First page text."},
			{Number: 2, Text: "Second page text."},
		},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "First page text.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 1, chunks[0].PageEnd)

	assert.Equal(t, "Second page text.", chunks[1].Text)
	assert.Equal(t, 1, chunks[1].Position)
	assert.Equal(t, 2, chunks[1].PageStart)
}

func TestChunkDocumentSplitsLongPage(t *testing.T) {
	// Page 2 is 5000 characters; with size 2000 and overlap 200 it must
	// split into 3 chunks, giving 5 chunks total across the document.
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{
			{Number: 1, Text: "Short intro page."},
			{Number: 2, Text: sentences(5000)},
			{Number: 3, Text: "Short closing page."},
		},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 5)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
		assert.LessOrEqual(t, len(chunk.Text), 2000)
	}

	// The middle three chunks all come from page 2
	for _, chunk := range chunks[1:4] {
		assert.Equal(t, 2, chunk.PageStart)
		assert.Equal(t, 2, chunk.PageEnd)
	}
	assert.Equal(t, 1, chunks[0].PageStart)
	assert.Equal(t, 3, chunks[4].PageStart)
}

func TestChunkDocumentBreaksAtSentenceBoundaries(t *testing.T) {
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{{Number: 1, Text: sentences(5000)}},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Every chunk except the last should end at a sentence terminator
	for _, chunk := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(chunk.Text, "."),
			"chunk should end at a sentence boundary, got %q", chunk.Text[len(chunk.Text)-20:])
	}
}

func TestChunkDocumentAdjacentChunksOverlap(t *testing.T) {
	text := sentences(5000)
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{{Number: 1, Text: text}},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// The start of each later chunk repeats text from its predecessor
	for i := 1; i < len(chunks); i++ {
		head := chunks[i].Text[:50]
		assert.Contains(t, chunks[i-1].Text, head,
			"chunk %d should share its head with chunk %d", i, i-1)
	}
}

func TestChunkDocumentSkipsBlankPages(t *testing.T) {
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{
			{Number: 1, Text: "Real content."},
			{Number: 2, Text: "   \n\t  "},
			{Number: 3, Text: "More content."},
		},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
	assert.Equal(t, 3, chunks[1].PageStart)
}

func TestChunkDocumentSectionFromFirstHeading(t *testing.T) {
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{
			{Number: 1, Text: "Body text.", Headings: []string{"Introduction", "Background"}},
		},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Introduction", chunks[0].Section)
}

func TestChunkDocumentRejectsBadSizes(t *testing.T) {
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{{Number: 1, Text: "text"}},
	}

	_, err := ChunkDocument(doc, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = ChunkDocument(doc, -5, 0)
	assert.ErrorIs(t, err, ErrInvalidChunkSize)

	_, err = ChunkDocument(doc, 100, -1)
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = ChunkDocument(doc, 100, 100)
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestChunkDocumentCharCount(t *testing.T) {
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{{Number: 1, Text: "Exactly twenty chars"}},
	}

	chunks, err := ChunkDocument(doc, 2000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 20, chunks[0].CharCount)
}

func TestChunkDocumentNeverSplitsMultiByteRunes(t *testing.T) {
	// Unbroken CJK text (3 bytes per rune, no spaces or terminators)
	// forces the hard-cut fallback on every window.
	text := strings.Repeat("秩序と混沌の境界線", 200)
	doc := &parser.ParsedDocument{
		Pages: []parser.Page{{Number: 1, Text: text}},
	}

	chunks, err := ChunkDocument(doc, 500, 50)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Text),
			"chunk %d contains a split rune", i)
		assert.LessOrEqual(t, len(chunk.Text), 500)
		assert.Equal(t, utf8.RuneCountInString(chunk.Text), chunk.CharCount)
	}
}
