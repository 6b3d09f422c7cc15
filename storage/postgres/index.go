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


package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/storage"
)

// Index implements storage.Store over a pgx connection pool.
type Index struct {
	pool       *pgxpool.Pool
	ownsPool   bool
	dimensions int
	logger     *slog.Logger
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

// WithDimensions pins the embedding column to a fixed width when the schema
// is first created.
func WithDimensions(dims int) Option {
	return func(idx *Index) error {
		if dims < 0 {
			return fmt.Errorf("%w: dimensions must be non-negative, got %d", storage.ErrInvalidQuery, dims)
		}
		idx.dimensions = dims
		return nil
	}
}

// NewIndex connects to PostgreSQL at dsn, ensures the schema exists, and
// returns the index. Close releases the pool.
func NewIndex(ctx context.Context, dsn string, opts ...Option) (storage.Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	idx, err := newIndex(pool, true, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// NewIndexWithPool builds an index over an existing pool owned by the caller.
func NewIndexWithPool(ctx context.Context, pool *pgxpool.Pool, opts ...Option) (storage.Store, error) {
	idx, err := newIndex(pool, false, opts...)
	if err != nil {
		return nil, err
	}
	if err := idx.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func newIndex(pool *pgxpool.Pool, owns bool, opts ...Option) (*Index, error) {
	idx := &Index{
		pool:     pool,
		ownsPool: owns,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "pgvector-index")
	return idx, nil
}

func (idx *Index) ensureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(idx.dimensions) {
		if _, err := idx.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Upsert implements storage.VectorIndex. All chunks are written in one transaction.
func (idx *Index) Upsert(ctx context.Context, chunks []core.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", storage.ErrLengthMismatch, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, chunk := range chunks {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("%w: chunk %s", storage.ErrEmptyVector, chunk.ID)
		}
		m := chunk.Metadata
		_, err := tx.Exec(ctx, upsertChunkSQL,
			chunk.ID, chunk.DocumentID, chunk.Index, chunk.Text,
			chunk.StartOffset, chunk.EndOffset,
			m.Heading, m.URL, m.Category, m.OrgScope, m.Title,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	idx.logger.Debug("upserted chunks", "count", len(chunks))
	return nil
}

// Query implements storage.VectorIndex.
func (idx *Index) Query(ctx context.Context, vector []float32, topK int, scope string) ([]core.IndexHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be positive, got %d", storage.ErrInvalidQuery, topK)
	}
	if len(vector) == 0 {
		return nil, storage.ErrEmptyVector
	}

	rows, err := idx.pool.Query(ctx, queryChunksSQL, pgvector.NewVector(vector), scope, topK)
	if err != nil {
		return nil, fmt.Errorf("unable to query chunks: %w", err)
	}
	defer rows.Close()

	var hits []core.IndexHit
	for rows.Next() {
		var (
			hit core.IndexHit
			c   = &hit.Chunk
		)
		err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &c.StartOffset, &c.EndOffset,
			&c.Metadata.Heading, &c.Metadata.URL, &c.Metadata.Category, &c.Metadata.OrgScope,
			&c.Metadata.Title, &hit.Distance)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return hits, nil
}

// DeleteDocument implements storage.VectorIndex.
func (idx *Index) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, deleteChunksSQL, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks of %s: %w", documentID, err)
	}
	if _, err := tx.Exec(ctx, deleteDocumentSQL, documentID); err != nil {
		return 0, fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	removed := int(tag.RowsAffected())
	if removed == 0 {
		idx.logger.Debug("document had no chunks", "document_id", documentID)
	}
	return removed, nil
}

// Fingerprint implements storage.DocumentRegistry.
func (idx *Index) Fingerprint(ctx context.Context, documentID string) (string, bool, error) {
	var fingerprint string
	err := idx.pool.QueryRow(ctx, selectFingerprintSQL, documentID).Scan(&fingerprint)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading fingerprint of %s: %w", documentID, err)
	}
	return fingerprint, true, nil
}

// SetFingerprint implements storage.DocumentRegistry.
func (idx *Index) SetFingerprint(ctx context.Context, documentID, fingerprint string) error {
	if _, err := idx.pool.Exec(ctx, upsertFingerprintSQL, documentID, fingerprint); err != nil {
		return fmt.Errorf("writing fingerprint of %s: %w", documentID, err)
	}
	return nil
}

// Close releases the pool when the index created it.
func (idx *Index) Close() error {
	if idx.ownsPool {
		idx.pool.Close()
	}
	return nil
}
