package parser

import "strings"

// ParseMarkdown treats markdown content as a single-page document.
// The title comes from the first top-level heading when present.
func ParseMarkdown(data []byte) (*ParsedDocument, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, ErrNoText
	}

	doc := &ParsedDocument{
		SourceType: SourceTypeMarkdown,
		Pages:      []Page{{Number: 1, Text: text, Headings: DetectHeadings(text)}},
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if heading, ok := strings.CutPrefix(line, "# "); ok {
			doc.Title = strings.TrimSpace(heading)
			break
		}
		// Stop looking once body text starts
		if line != "" && !strings.HasPrefix(line, "#") {
			break
		}
	}

	return doc, nil
}
