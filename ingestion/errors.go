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

import "errors"

var (
	// ErrStoreRequired indicates a nil store was passed to NewService.
	ErrStoreRequired = errors.New("store is required")

	// ErrValidationFailed indicates the document was rejected by the
	// validation gate. The wrapped message carries the specific reason.
	ErrValidationFailed = errors.New("validation failed")

	// ErrParseFailed indicates the document could not be parsed.
	ErrParseFailed = errors.New("parse failed")
)
