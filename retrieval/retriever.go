// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/ragline/ai"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/storage"
)

const (
	// DefaultTopK is the number of chunks requested when the caller passes a non-positive topK.
	DefaultTopK = 5
	// DefaultThreshold is the minimum similarity a chunk needs to be kept.
	DefaultThreshold = 0.5
)

// Retriever embeds queries and fetches similar chunks from a VectorIndex.
type Retriever struct {
	embedder ai.Embedder
	index    storage.VectorIndex
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a Retriever. Pass a cache.CachedEmbedder to avoid
// re-embedding repeated queries.
func NewRetriever(embedder ai.Embedder, index storage.VectorIndex, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	r := &Retriever{
		embedder: embedder,
		index:    index,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "retriever")
	return r, nil
}

// Retrieve returns at most topK chunks whose similarity to query is at least
// threshold, nearest first. Similarity is 1 - cosine distance, clamped to [0, 1].
// A non-empty scope restricts results to that org partition.
// Failures produce an empty result, never an error.
func (r *Retriever) Retrieve(ctx context.Context, query, scope string, topK int, threshold float64) core.RetrievalResult {
	if topK <= 0 {
		topK = DefaultTopK
	}
	result := core.RetrievalResult{}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed, continuing without context", "err", err)
		return result
	}

	hits, err := r.index.Query(ctx, vector, topK, scope)
	if err != nil {
		r.logger.Warn("vector index query failed, continuing without context", "err", err)
		return result
	}

	for _, hit := range hits {
		if len(result) == topK {
			break
		}
		similarity := Similarity(hit.Distance)
		if similarity < threshold {
			continue
		}
		result = append(result, core.ScoredChunk{Chunk: hit.Chunk, Score: similarity})
	}

	r.logger.Debug("retrieved chunks",
		"candidates", len(hits),
		"kept", len(result),
		"threshold", threshold,
		"scope", scope)
	return result
}

// Similarity converts a cosine distance to a similarity in [0, 1].
func Similarity(distance float64) float64 {
	return min(max(1-distance, 0), 1)
}
