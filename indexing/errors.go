package indexing

import "errors"

var (
	// ErrChunkerRequired indicates a nil chunker was passed to NewIndexer.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrEmbedderRequired indicates a nil embedder was passed to NewIndexer.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrStoreRequired indicates a nil store was passed to NewIndexer.
	ErrStoreRequired = errors.New("store is required")

	// ErrEmbeddingCountMismatch indicates the embedder returned a different
	// number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrIndexerClosed indicates the indexer's worker pool was released.
	ErrIndexerClosed = errors.New("indexer is closed")
)
