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


// Package ai defines the interfaces for the embedding and concept
// extraction collaborators, along with the fixed concept-category and
// relationship-type vocabularies.
//
// Both services are slow, rate-limited network calls; errors are
// classified as rate-limit, transient service, or malformed-response so
// callers can decide what to retry.
package ai
