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


package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/storage"
)

const (
	upsertBatchSize = 128
	ctxCheckEvery   = 256
)

// Index implements storage.Store on top of BadgerDB.
// Vectors are normalized on write so queries reduce to a dot product scan.
type Index struct {
	backend     *Backend
	ownsBackend bool
	logger      *slog.Logger

	// writeMu serializes writers to avoid badger transaction conflicts.
	writeMu sync.Mutex
}

var _ storage.Store = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
		return nil
	}
}

// NewIndex opens (or creates) a BadgerDB-backed index at path.
func NewIndex(path string, opts ...Option) (storage.Store, error) {
	return openIndex(path, false, opts...)
}

// NewIndexWithBackend creates an index over an already opened backend.
// The caller keeps ownership of the backend.
func NewIndexWithBackend(backend *Backend, opts ...Option) (storage.Store, error) {
	return newIndex(backend, false, opts...)
}

func openIndex(path string, inMemory bool, opts ...Option) (*Index, error) {
	probe := &Index{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(probe); err != nil {
			return nil, err
		}
	}
	backend, err := OpenBackend(path, inMemory, probe.logger)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	idx, err := newIndex(backend, true, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return idx, nil
}

func newIndex(backend *Backend, owns bool, opts ...Option) (*Index, error) {
	idx := &Index{
		backend:     backend,
		ownsBackend: owns,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "badger-index")
	return idx, nil
}

// Upsert implements storage.VectorIndex.
func (idx *Index) Upsert(ctx context.Context, chunks []core.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", storage.ErrLengthMismatch, len(chunks), len(vectors))
	}
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: chunk %s", storage.ErrEmptyVector, chunks[i].ID)
		}
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	for start := 0; start < len(chunks); start += upsertBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+upsertBatchSize, len(chunks))
		err := idx.backend.WithTx(func(tx *badger.Txn) error {
			for i := start; i < end; i++ {
				chunk := chunks[i]
				record := &storage.ChunkRecord{
					Chunk:  chunk,
					Vector: storage.NormalizeVector(vectors[i]),
				}
				if err := tx.Set(makeChunkKey(chunk.ID), storage.MarshalChunkRecord(record)); err != nil {
					return err
				}
				if err := tx.Set(makeDocumentChunkKey(chunk.DocumentID, chunk.ID), nil); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return fmt.Errorf("upserting chunks %d-%d: %w", start, end-1, err)
		}
	}

	idx.logger.Debug("upserted chunks", "count", len(chunks))
	return nil
}

// Query implements storage.VectorIndex with a brute-force scan.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int, scope string) ([]core.IndexHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", storage.ErrInvalidQuery, topK)
	}
	if len(vector) == 0 {
		return nil, storage.ErrEmptyVector
	}
	if idx.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	query := storage.NormalizeVector(vector)
	var hits []core.IndexHit

	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seen := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			seen++
			if seen%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			var record *storage.ChunkRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalChunkRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if scope != "" && record.Chunk.Metadata.OrgScope != scope {
				continue
			}

			hits = append(hits, core.IndexHit{
				Chunk:    record.Chunk,
				Distance: storage.DotDistance(query, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(hits, func(a, b core.IndexHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteDocument implements storage.VectorIndex.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	if idx.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	prefix := makePartialDocumentChunkKey(documentID)
	var removed int

	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		var chunkIDs []string
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunkIDs = append(chunkIDs, string(iter.Item().KeyCopy(nil)[len(prefix):]))
		}
		iter.Close()

		if err := ctx.Err(); err != nil {
			return err
		}

		for _, id := range chunkIDs {
			if err := tx.Delete(makeChunkKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeDocumentChunkKey(documentID, id)); err != nil {
				return err
			}
		}
		if err := tx.Delete(makeFingerprintKey(documentID)); err != nil {
			return err
		}
		removed = len(chunkIDs)
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, fmt.Errorf("deleting document %s: %w", documentID, err)
	}

	idx.logger.Debug("deleted document chunks", "document_id", documentID, "count", removed)
	return removed, nil
}

// Close closes the index and, when it opened it, the underlying backend.
func (idx *Index) Close() error {
	if !idx.ownsBackend || idx.backend.IsClosed() {
		return nil
	}
	return idx.backend.Close()
}

// Fingerprint implements storage.DocumentRegistry.
// Returns "", false, nil if the document has never been registered.
func (idx *Index) Fingerprint(ctx context.Context, documentID string) (string, bool, error) {
	if idx.backend.IsClosed() {
		return "", false, storage.ErrStorageClosed
	}
	var (
		fingerprint string
		found       bool
	)
	err := idx.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFingerprintKey(documentID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			fingerprint, unmarshalErr = storage.UnmarshalString(val)
			found = unmarshalErr == nil
			return unmarshalErr
		})
	}, false)
	return fingerprint, found, err
}

// SetFingerprint implements storage.DocumentRegistry.
func (idx *Index) SetFingerprint(ctx context.Context, documentID, fingerprint string) error {
	if idx.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	return idx.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFingerprintKey(documentID), storage.MarshalString(fingerprint)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
