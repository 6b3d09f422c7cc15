package cache

import "context"

// EmbeddingCache stores embeddings by key.
// Implementations never fail loudly: backend errors are logged and reported
// as a miss so a broken cache degrades to no cache.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vector []float32)
}
