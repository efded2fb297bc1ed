package enrichment

import "errors"

var (
	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrInvalidWorkers indicates a non-positive worker count.
	ErrInvalidWorkers = errors.New("worker count must be positive")

	// ErrStoreRequired indicates a nil store was passed to a constructor.
	ErrStoreRequired = errors.New("store is required")

	// ErrProviderRequired indicates a nil AI provider was passed to a
	// constructor.
	ErrProviderRequired = errors.New("ai provider is required")
)
