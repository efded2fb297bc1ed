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


// Package openai provides AI service implementations backed by
// OpenAI-compatible APIs.
//
// The package works with any service exposing the OpenAI wire format,
// including Ollama, vLLM, and OpenAI itself. Endpoints and models are
// chosen through ai.Config; embedding and extraction can point at
// different hosts.
//
// Errors from the underlying client are classified onto the ai package
// taxonomy so the enrichment pipeline can decide what to retry.
package openai
