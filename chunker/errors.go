package chunker

import "errors"

var (
	// ErrInvalidChunkSize indicates a non-positive max chunk size.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates an overlap that is negative or at least
	// as large as the chunk size.
	ErrInvalidOverlap = errors.New("invalid overlap")
)
