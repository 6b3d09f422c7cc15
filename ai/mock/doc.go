// Package mock provides test doubles for the ai package interfaces.
//
// The mocks are deterministic and need no network access, which makes them
// suitable for unit tests of retrieval, indexing and the answering pipeline.
//
// # Usage
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCompleter: Echoes a fixed answer citing [Source 1]
//   - MockProvider: Aggregates mock embedder and completer
package mock
