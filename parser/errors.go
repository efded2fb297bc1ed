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

import "errors"

var (
	// ErrUnsupportedType indicates the file type could not be recognized.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrMalformedDocument indicates the file claims a supported type but
	// could not be read.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrNoText indicates parsing succeeded but produced no text at all.
	ErrNoText = errors.New("document contains no extractable text")
)
