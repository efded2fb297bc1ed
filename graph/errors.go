package graph

import "errors"

var (
	// ErrStoreRequired indicates a nil store was passed to NewWriter.
	ErrStoreRequired = errors.New("store is required")

	// ErrProviderRequired indicates a nil AI provider was passed to
	// NewWriter.
	ErrProviderRequired = errors.New("ai provider is required")
)
