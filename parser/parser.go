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
	"fmt"
	"path/filepath"
	"strings"
)

// Parse detects the file type of name/data and dispatches to the matching
// format parser. When document metadata carries no title, the file name
// without its extension is used.
func Parse(name string, data []byte) (*ParsedDocument, error) {
	sourceType, err := DetectFileType(name, data)
	if err != nil {
		return nil, err
	}

	var doc *ParsedDocument
	switch sourceType {
	case SourceTypePDF:
		doc, err = ParsePDF(data)
	case SourceTypeMarkdown:
		doc, err = ParseMarkdown(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, sourceType)
	}
	if err != nil {
		return nil, err
	}

	if doc.Title == "" {
		base := filepath.Base(name)
		doc.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return doc, nil
}
