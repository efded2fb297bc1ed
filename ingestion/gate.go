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


package ingestion

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/latticekb/lattice/core"
	"github.com/latticekb/lattice/parser"
)

// Limits are the cost and sanity ceilings enforced before any expensive
// work is scheduled. All limits are configuration, not code.
type Limits struct {
	MaxFileSize   int64
	MaxPages      int
	MaxChunks     int
	MinTextLength int
}

// DefaultLimits returns the standard ingestion limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:   250 * 1024 * 1024,
		MaxPages:      1000,
		MaxChunks:     500,
		MinTextLength: 100,
	}
}

// Result is the outcome of one validation stage. Reason is human-readable
// and includes the violated limit's value.
type Result struct {
	OK     bool
	Reason string
}

func pass() Result {
	return Result{OK: true}
}

func fail(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// CheckFile validates raw upload properties before parsing: size against
// the limit, a recognizable file type, and a magic-byte signature matching
// the declared type. Evaluated in that fixed order; the first failure
// short-circuits.
func (l Limits) CheckFile(name string, size int64, data []byte) Result {
	if size > l.MaxFileSize {
		return fail("file size %d exceeds limit %d", size, l.MaxFileSize)
	}

	sourceType, err := parser.DetectFileType(name, data)
	if err != nil {
		return fail("unsupported or corrupt file: %v", err)
	}

	if sourceType == parser.SourceTypePDF && !bytes.HasPrefix(data, []byte(parser.PDFMagic)) {
		return fail("file %s does not start with %s signature", name, parser.PDFMagic)
	}

	return pass()
}

// CheckParsed validates extraction results: page count against the limit
// and enough non-whitespace text to be worth enriching. A document that
// parses but yields almost no text is typically a scan without an OCR
// layer.
func (l Limits) CheckParsed(doc *parser.ParsedDocument) Result {
	if doc.PageCount() > l.MaxPages {
		return fail("page count %d exceeds limit %d", doc.PageCount(), l.MaxPages)
	}

	textLength := 0
	for _, page := range doc.Pages {
		for _, r := range page.Text {
			if !unicode.IsSpace(r) {
				textLength++
			}
		}
	}
	if textLength < l.MinTextLength {
		return fail("extracted text length %d below minimum %d", textLength, l.MinTextLength)
	}

	return pass()
}

// CheckChunks validates the chunk set before storage: count against the
// limit, positional contiguity, and at least one chunk.
func (l Limits) CheckChunks(chunks []core.Chunk) Result {
	if len(chunks) > l.MaxChunks {
		return fail("chunk count %d exceeds limit %d", len(chunks), l.MaxChunks)
	}

	for i := range chunks {
		if chunks[i].Position != i {
			return fail("chunk positions not contiguous: index %d has position %d", i, chunks[i].Position)
		}
	}

	if len(chunks) == 0 {
		return fail("document produced no chunks")
	}

	return pass()
}
