package cache

import "errors"

var (
	// ErrInvalidCapacity indicates a non-positive cache capacity.
	ErrInvalidCapacity = errors.New("cache capacity must be positive")

	// ErrVectorCountMismatch indicates the upstream embedder returned the wrong number of vectors.
	ErrVectorCountMismatch = errors.New("embedder returned wrong number of vectors")
)
