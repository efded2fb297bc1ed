package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkdownTitleFromHeading(t *testing.T) {
	doc, err := ParseMarkdown([]byte("# Event-Driven Systems\n\nBody text here."))
	require.NoError(t, err)

	assert.Equal(t, "Event-Driven Systems", doc.Title)
	assert.Equal(t, SourceTypeMarkdown, doc.SourceType)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Number)
	assert.Contains(t, doc.Pages[0].Text, "Body text here.")
}

func TestParseMarkdownNoTitleAfterBodyStarts(t *testing.T) {
	// A heading below body text is a section, not the title
	doc, err := ParseMarkdown([]byte("Intro paragraph comes first.\n\n# Late Heading\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Title)
}

func TestParseMarkdownHeadingsDetected(t *testing.T) {
	content := "# Title\n\nSome body text follows here.\n\n## Subsection\n\nMore text."
	doc, err := ParseMarkdown([]byte(content))
	require.NoError(t, err)

	require.Len(t, doc.Pages, 1)
	assert.Contains(t, doc.Pages[0].Headings, "Title")
	assert.Contains(t, doc.Pages[0].Headings, "Subsection")
}

func TestParseMarkdownEmptyInput(t *testing.T) {
	_, err := ParseMarkdown([]byte("   \n\t\n  "))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = ParseMarkdown(nil)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestParseFallsBackToFilenameTitle(t *testing.T) {
	doc, err := Parse("docs/runbook-draft.md", []byte("plain body, no heading at all."))
	require.NoError(t, err)
	assert.Equal(t, "runbook-draft", doc.Title)
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse("data.csv", []byte("a,b,c"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
