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


package storage

import (
	"context"

	"github.com/poiesic/ragline/core"
)

// VectorIndex stores chunk embeddings and answers nearest-neighbour queries.
type VectorIndex interface {
	// Upsert stores chunks with their embeddings. chunks[i] pairs with vectors[i].
	// Existing chunks with the same ID are replaced.
	Upsert(ctx context.Context, chunks []core.Chunk, vectors [][]float32) error

	// Query returns up to topK chunks nearest to vector, ordered by ascending
	// cosine distance. A non-empty scope restricts results to chunks whose
	// OrgScope matches.
	Query(ctx context.Context, vector []float32, topK int, scope string) ([]core.IndexHit, error)

	// DeleteDocument removes every chunk belonging to documentID along with its
	// registered fingerprint. Returns the number of chunks removed.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// DocumentRegistry remembers the content fingerprint of each indexed document
// so unchanged documents can be skipped on re-index.
type DocumentRegistry interface {
	// Fingerprint returns the stored fingerprint for documentID.
	// The boolean is false when the document has never been indexed.
	Fingerprint(ctx context.Context, documentID string) (string, bool, error)

	// SetFingerprint records the fingerprint for documentID.
	SetFingerprint(ctx context.Context, documentID, fingerprint string) error
}

// Store is a VectorIndex that also tracks document fingerprints.
type Store interface {
	VectorIndex
	DocumentRegistry
}
