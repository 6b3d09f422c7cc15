package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Identical text must produce an identical vector.
	// Returns a *ProviderError if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns a *ProviderError if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionOptions tunes a single completion request.
type CompletionOptions struct {
	// Temperature controls sampling randomness. 0 is deterministic.
	Temperature float64

	// MaxTokens caps the length of the generated answer. 0 leaves the
	// backend's default in place.
	MaxTokens int
}

// Completer generates text from a prompt.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends prompt to the text-completion backend and returns the
	// generated text. Returns a *ProviderError on failure; rate-limit
	// failures satisfy IsRateLimited.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Completer instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Completer returns the text completion service.
	// The returned Completer is safe for concurrent use.
	Completer() Completer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
