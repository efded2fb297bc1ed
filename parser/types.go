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

// Supported source types.
const (
	SourceTypePDF      = "pdf"
	SourceTypeMarkdown = "markdown"
)

// Page is one unit of extracted text with its original page number.
// Markdown documents produce a single page numbered 1.
type Page struct {
	Number   int
	Text     string
	Headings []string
}

// ParsedDocument is the result of parsing raw document bytes.
type ParsedDocument struct {
	Title      string
	Author     string
	SourceType string
	Pages      []Page
}

// PageCount returns the number of extracted pages.
func (d *ParsedDocument) PageCount() int {
	return len(d.Pages)
}

// TotalTextLength returns the combined length of all page text.
func (d *ParsedDocument) TotalTextLength() int {
	total := 0
	for _, p := range d.Pages {
		total += len(p.Text)
	}
	return total
}
