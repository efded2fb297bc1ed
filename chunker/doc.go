// Package chunker splits parsed document text into bounded, overlapping,
// position-ordered chunks suitable for embedding and concept extraction.
//
// Splitting is page-aware: a page that fits the size limit becomes a
// single chunk tagged with the page's first heading. Oversized pages are
// windowed with a fixed character overlap so retrieval keeps context
// across chunk boundaries, and window edges snap to sentence or paragraph
// breaks whenever one exists near the boundary.
package chunker
