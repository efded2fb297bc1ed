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


package mock

import "github.com/latticekb/lattice/ai"

// MockProvider is the ai.Provider test double.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockConceptExtractor
}

// NewMockProvider builds a provider around fresh default doubles. Reach
// the concrete types through GetMockEmbedder and GetMockExtractor.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		extractor: NewMockConceptExtractor(),
	}
}

// NewMockProviderWithServices wraps doubles the test already holds, so
// behavior can be injected before the provider is handed off.
func NewMockProviderWithServices(embedder *MockEmbedder, extractor *MockConceptExtractor) ai.Provider {
	return &MockProvider{
		embedder:  embedder,
		extractor: extractor,
	}
}

func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

func (p *MockProvider) ConceptExtractor() ai.ConceptExtractor {
	return p.extractor
}

func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder exposes the concrete double for call-count assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor exposes the concrete double for call-count assertions.
func (p *MockProvider) GetMockExtractor() *MockConceptExtractor {
	return p.extractor
}
