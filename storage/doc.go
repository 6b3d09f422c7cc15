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


// Package storage defines the vector index abstraction used by ragline.
//
// Retrieval and indexing depend only on the VectorIndex and DocumentRegistry
// interfaces declared here. Two backends ship with the module:
//
//   - storage/badger: an embedded index over BadgerDB using a brute-force
//     cosine scan. Suitable for small corpora and tests.
//   - storage/postgres: PostgreSQL with the pgvector extension.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.Store interface:
//
//	idx, err := badger.NewIndex(path)  // returns storage.Store
//
// Internal constructors (newIndex, newBackend) may return concrete types.
//
// # Distances
//
// Every backend reports cosine distance in [0, 2], where 0 means identical
// direction. Callers convert to similarity with 1 - distance.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
