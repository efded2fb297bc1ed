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


package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ParsePDF extracts text from PDF bytes page by page. Pages that fail text
// extraction are kept as empty pages so page numbering stays aligned with
// the source document.
func ParsePDF(data []byte) (doc *ParsedDocument, err error) {
	// The pdf library panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrMalformedDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	logger := slog.Default().With("component", "pdf-parser")

	doc = &ParsedDocument{
		SourceType: SourceTypePDF,
	}

	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		if title := info.Key("Title"); !title.IsNull() {
			doc.Title = strings.TrimSpace(title.Text())
		}
		if author := info.Key("Author"); !author.IsNull() {
			doc.Author = strings.TrimSpace(author.Text())
		}
	}

	numPages := reader.NumPage()
	extracted := 0
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i})
			continue
		}

		text, err := extractPageText(page)
		if err != nil {
			logger.Warn("failed to extract page text", "page", i, "err", err)
			doc.Pages = append(doc.Pages, Page{Number: i})
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			extracted++
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text, Headings: DetectHeadings(text)})
	}

	if extracted == 0 {
		return nil, fmt.Errorf("%w: no text on any of %d pages", ErrNoText, numPages)
	}

	return doc, nil
}

// extractPageText isolates the library's per-page panic surface.
func extractPageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page text extraction panicked: %v", r)
		}
	}()

	fonts := make(map[string]*pdf.Font)
	return page.GetPlainText(fonts)
}
