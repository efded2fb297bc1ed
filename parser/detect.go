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
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// PDFMagic is the byte prefix every well-formed PDF starts with.
const PDFMagic = "%PDF-"

// DetectFileType determines the source type from content, falling back to
// the file extension for plain-text formats. Magic bytes win over the
// extension: a .md file that starts with a PDF header is treated as a PDF.
func DetectFileType(name string, data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte(PDFMagic)) {
		return SourceTypePDF, nil
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".md", ".markdown":
		if !looksLikeText(data) {
			return "", fmt.Errorf("%w: %s is not valid text", ErrUnsupportedType, name)
		}
		return SourceTypeMarkdown, nil
	case ".pdf":
		return "", fmt.Errorf("%w: %s claims pdf but missing %s header", ErrMalformedDocument, name, PDFMagic)
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, name)
}

// looksLikeText reports whether data is plausibly UTF-8 text.
// It samples the first 1KB and rejects NUL bytes and invalid sequences.
func looksLikeText(data []byte) bool {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
		// Avoid cutting a multi-byte rune at the sample boundary
		for len(sample) > 0 && !utf8.RuneStart(sample[len(sample)-1]) {
			sample = sample[:len(sample)-1]
		}
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	return utf8.Valid(sample)
}
