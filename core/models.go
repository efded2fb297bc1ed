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


package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored entities.
// IDs are assigned by the database on insert; 0 means "not yet stored".
type ID int64

// HashContent returns a hex-encoded BLAKE2b digest of raw content.
// Used to fingerprint document bytes so re-uploads of identical files
// can be recognized without re-reading the blob.
func HashContent(content []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentStatus tracks a document's lifecycle through the pipeline.
type DocumentStatus string

const (
	StatusUploaded      DocumentStatus = "UPLOADED"
	StatusParsing       DocumentStatus = "PARSING"
	StatusParsed        DocumentStatus = "PARSED"
	StatusExtracting    DocumentStatus = "EXTRACTING"
	StatusComplete      DocumentStatus = "COMPLETE"
	StatusParseFailed   DocumentStatus = "PARSE_FAILED"
	StatusExtractFailed DocumentStatus = "EXTRACT_FAILED"
)

// PhaseStatus tracks one of the two independent per-chunk enrichment
// phases (embedding, concept extraction).
type PhaseStatus string

const (
	// PhasePending means the phase has not produced a terminal result yet.
	PhasePending PhaseStatus = "PENDING"
	// PhaseComplete is the terminal success state of the embedding phase.
	PhaseComplete PhaseStatus = "COMPLETE"
	// PhaseExtracted is the terminal success state of the concept phase.
	PhaseExtracted PhaseStatus = "EXTRACTED"
	// PhaseFailed means the last attempt ended in a terminal error.
	PhaseFailed PhaseStatus = "FAILED"
)

// Document represents one ingested source file.
// FilePath is the idempotency key: at most one live document exists per
// path, enforced by delete-and-replace on re-ingestion.
type Document struct {
	Id           ID
	Title        string
	Author       string
	SourceType   string // "pdf" or "markdown"
	FilePath     string
	FileHash     string
	PageCount    int
	Status       DocumentStatus
	ErrorMessage string
	Metadata     map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Chunk is a bounded text span belonging to exactly one document.
// Positions are zero-based and contiguous within a document.
type Chunk struct {
	Id              ID
	DocumentId      ID
	Text            string
	Position        int
	PageStart       int
	PageEnd         int
	Section         string
	CharCount       int
	Vector          []float32 // nil until the embedding phase completes
	EmbeddingStatus PhaseStatus
	ConceptStatus   PhaseStatus
	Attempts        int
	LastError       string
}

// Concept is a normalized named entity extracted from chunk text.
// Names are unique case-insensitively; a second write of the same name
// updates the description rather than creating a duplicate row.
type Concept struct {
	Id          ID
	Name        string
	Category    string
	Description string
	Vector      []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeConceptName canonicalizes a concept name for matching:
// lower-cased with collapsed whitespace.
func NormalizeConceptName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Mention is a chunk → concept edge carrying a relevance score and a
// short context snippet from the mentioning chunk.
type Mention struct {
	ChunkId   ID
	ConceptId ID
	Relevance float64
	Context   string
}

// Coverage is a document → concept edge whose weight is the fraction of
// the document's chunks that mention the concept.
type Coverage struct {
	DocumentId   ID
	ConceptId    ID
	Weight       float64
	MentionCount int
}

// ConceptRelation is a typed concept → concept edge. DocumentId records
// the document that established the relationship, or 0 for relationships
// discovered across documents.
type ConceptRelation struct {
	FromId     ID
	ToId       ID
	Type       string
	Strength   float64
	DocumentId ID
}

// ProcessingStats summarizes pending work across all documents.
// The orchestrator uses it for the early-exit check.
type ProcessingStats struct {
	PendingEmbeddings int
	PendingConcepts   int
	FailedEmbeddings  int
	FailedConcepts    int
	TotalDocuments    int
	CompleteDocuments int
	TotalChunks       int
	TotalConcepts     int
}
