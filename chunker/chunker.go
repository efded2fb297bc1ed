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


package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/parser"
)

// Default splitting parameters.
const (
	DefaultMaxChunkSize = 2000
	DefaultOverlap      = 200
)

// ChunkDocument splits parsed page text into position-ordered chunks of at
// most maxSize bytes. Pages that fit the limit become one chunk each;
// longer pages are split into windows sharing overlap bytes with their
// neighbor, preferring sentence and paragraph boundaries over hard cuts.
// Cuts never land inside a multi-byte rune. Positions are contiguous
// starting at 0 across the whole document; CharCount counts runes.
func ChunkDocument(doc *parser.ParsedDocument, maxSize, overlap int) ([]core.Chunk, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: max chunk size %d", ErrInvalidChunkSize, maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap %d with max chunk size %d", ErrInvalidOverlap, overlap, maxSize)
	}

	var chunks []core.Chunk
	position := 0

	for _, page := range doc.Pages {
		text := strings.TrimSpace(page.Text)
		if text == "" {
			continue
		}

		section := ""
		if len(page.Headings) > 0 {
			section = page.Headings[0]
		}

		for _, span := range splitText(text, maxSize, overlap) {
			span = strings.TrimSpace(span)
			if span == "" {
				continue
			}
			chunks = append(chunks, core.Chunk{
				Text:      span,
				Position:  position,
				PageStart: page.Number,
				PageEnd:   page.Number,
				Section:   section,
				CharCount: utf8.RuneCountInString(span),
			})
			position++
		}
	}

	return chunks, nil
}

// splitText divides text into windows of at most size bytes, with
// adjacent windows sharing roughly overlap bytes. Window boundaries are
// always rune starts.
func splitText(text string, size, overlap int) []string {
	if len(text) <= size {
		return []string{text}
	}

	var spans []string
	start := 0
	for start < len(text) {
		end := start + size
		if end >= len(text) {
			spans = append(spans, text[start:])
			break
		}

		cut := findBreak(text, start, end)
		spans = append(spans, text[start:cut])

		next := cut - overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			// Degenerate input, force forward progress
			next = start + 1
			for next < len(text) && !utf8.RuneStart(text[next]) {
				next++
			}
		}
		start = next
	}

	return spans
}

// findBreak searches backward from end for the best split point within the
// last fifth of the window. Preference order: sentence terminator followed
// by whitespace, paragraph break, any newline, any space. Falls back to a
// hard cut at the nearest rune start at or before end.
func findBreak(text string, start, end int) int {
	floor := start + (end-start)*4/5
	window := text[floor:end]

	if cut := lastSentenceEnd(window); cut >= 0 {
		return floor + cut
	}
	if cut := strings.LastIndex(window, "\n\n"); cut >= 0 {
		return floor + cut
	}
	if cut := strings.LastIndexByte(window, '\n'); cut >= 0 {
		return floor + cut
	}
	if cut := strings.LastIndexByte(window, ' '); cut >= 0 {
		return floor + cut
	}
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// lastSentenceEnd returns the index just past the last sentence terminator
// that is followed by whitespace, or -1 if none exists.
func lastSentenceEnd(window string) int {
	for i := len(window) - 2; i >= 0; i-- {
		c := window[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		next := window[i+1]
		if next == ' ' || next == '\n' || next == '\t' {
			return i + 1
		}
	}
	return -1
}
