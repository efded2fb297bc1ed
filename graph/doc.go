// Package graph turns extraction results into a concept graph: concept
// nodes deduplicated by normalized name, mention and coverage edges, and
// three relationship-discovery passes of decreasing confidence.
//
// Chunk-local relationships are recorded while storing each extraction.
// The document pass proposes relationships among the full concept set of
// one document. The cross-document pass links concepts shared by several
// documents through embedding similarity. All edge writes are
// upsert-on-absence, so any pass can run repeatedly without duplicating
// edges.
package graph
