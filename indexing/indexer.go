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


package indexing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragline/ai"
	"github.com/poiesic/ragline/chunking"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/storage"
)

// DocumentChunker splits a document into chunks.
type DocumentChunker interface {
	ChunkDocument(doc *core.Document, cfg chunking.Config) []core.Chunk
}

// Indexer writes documents into a vector store.
// It is safe for concurrent use.
type Indexer struct {
	chunker       DocumentChunker
	embedder      ai.Embedder
	store         storage.Store
	batchSize     int
	concurrency   int
	pool          *ants.Pool
	maxAttempts   int
	baseDelay     time.Duration
	skipUnchanged bool
	logger        *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// WithBatchSize sets how many chunk texts go into one embedding call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = DefaultBatchSize
		}
		ix.batchSize = size
		return nil
	}
}

// WithConcurrency embeds up to n batches at once on a bounded worker pool.
// The default of 1 embeds batches sequentially.
func WithConcurrency(n int) Option {
	return func(ix *Indexer) error {
		if n < 1 {
			n = 1
		}
		ix.concurrency = n
		return nil
	}
}

// WithRetry sets the attempt ceiling and first backoff delay for
// rate-limited embedding calls.
// Default is ai.DefaultMaxAttempts and ai.DefaultRetryBaseDelay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(ix *Indexer) error {
		if maxAttempts < 1 {
			return ai.ErrInvalidMaxAttempts
		}
		ix.maxAttempts = maxAttempts
		ix.baseDelay = baseDelay
		return nil
	}
}

// WithSkipUnchanged controls whether documents with an unchanged
// fingerprint are skipped. Default is true.
func WithSkipUnchanged(skip bool) Option {
	return func(ix *Indexer) error {
		ix.skipUnchanged = skip
		return nil
	}
}

// NewIndexer creates an Indexer.
func NewIndexer(chunker DocumentChunker, embedder ai.Embedder, store storage.Store, opts ...Option) (*Indexer, error) {
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	ix := &Indexer{
		chunker:       chunker,
		embedder:      embedder,
		store:         store,
		batchSize:     DefaultBatchSize,
		concurrency:   1,
		maxAttempts:   ai.DefaultMaxAttempts,
		baseDelay:     ai.DefaultRetryBaseDelay,
		skipUnchanged: true,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}

	if ix.concurrency > 1 {
		pool, err := ants.NewPool(ix.concurrency)
		if err != nil {
			return nil, err
		}
		ix.pool = pool
	}
	ix.logger = ix.logger.With("component", "indexer")
	return ix, nil
}

// Close releases the worker pool. The store is left open.
func (ix *Indexer) Close() error {
	if ix.pool != nil {
		ix.pool.Release()
	}
	return nil
}

// IndexDocument chunks, embeds and stores doc, replacing any chunks
// previously stored for it. It returns the chunks written. A document whose
// fingerprint is unchanged is not re-embedded; its chunks are still returned.
func (ix *Indexer) IndexDocument(ctx context.Context, doc core.Document, cfg chunking.Config) ([]core.Chunk, error) {
	chunks, _, err := ix.indexDocument(ctx, &doc, cfg)
	return chunks, err
}

func (ix *Indexer) indexDocument(ctx context.Context, doc *core.Document, cfg chunking.Config) ([]core.Chunk, bool, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, false, err
	}
	logger := ix.logger.With("document_id", doc.ID)

	chunks := ix.chunker.ChunkDocument(doc, cfg)
	fingerprint := documentFingerprint(doc, cfg)

	if ix.skipUnchanged {
		stored, ok, err := ix.store.Fingerprint(ctx, doc.ID)
		if err != nil {
			return nil, false, fmt.Errorf("reading fingerprint of %s: %w", doc.ID, err)
		}
		if ok && stored == fingerprint {
			logger.Debug("document unchanged, skipping", "chunks", len(chunks))
			return chunks, true, nil
		}
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := ix.embed(ctx, texts)
	if err != nil {
		return nil, false, fmt.Errorf("embedding %s: %w", doc.ID, err)
	}

	removed, err := ix.store.DeleteDocument(ctx, doc.ID)
	if err != nil {
		return nil, false, fmt.Errorf("removing previous chunks of %s: %w", doc.ID, err)
	}
	if len(chunks) > 0 {
		if err := ix.store.Upsert(ctx, chunks, vectors); err != nil {
			return nil, false, fmt.Errorf("storing chunks of %s: %w", doc.ID, err)
		}
	}
	if err := ix.store.SetFingerprint(ctx, doc.ID, fingerprint); err != nil {
		return nil, false, fmt.Errorf("recording fingerprint of %s: %w", doc.ID, err)
	}

	logger.Info("document indexed", "chunks", len(chunks), "replaced", removed)
	return chunks, false, nil
}

// DeleteDocument removes every chunk of documentID and forgets its
// fingerprint. It returns the number of chunks removed.
func (ix *Indexer) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	removed, err := ix.store.DeleteDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", documentID, err)
	}
	ix.logger.Info("document deleted", "document_id", documentID, "chunks", removed)
	return removed, nil
}

// Summary counts the outcome of IndexDocuments.
type Summary struct {
	Indexed int
	Skipped int
	Failed  int
	Chunks  int
}

// IndexDocuments indexes docs one after another. A failing document does not
// stop the run; the failures are joined into the returned error. Progress is
// written to progress when it is non-nil.
func (ix *Indexer) IndexDocuments(ctx context.Context, docs []core.Document, cfg chunking.Config, progress io.Writer) (Summary, error) {
	var (
		summary Summary
		errs    []error
	)
	tracker := NewProgressTracker(progress, len(docs))
	tracker.Start()
	defer tracker.Finish()

	for i := range docs {
		if err := ctx.Err(); err != nil {
			return summary, errors.Join(append(errs, err)...)
		}
		chunks, skipped, err := ix.indexDocument(ctx, &docs[i], cfg)
		switch {
		case err != nil:
			ix.logger.Warn("document failed", "document_id", docs[i].ID, "err", err)
			summary.Failed++
			errs = append(errs, err)
			tracker.Failed()
		case skipped:
			summary.Skipped++
			tracker.Skipped()
		default:
			summary.Indexed++
			summary.Chunks += len(chunks)
			tracker.Indexed(len(chunks))
		}
	}

	ix.logger.Info("index run complete",
		"indexed", summary.Indexed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"chunks", summary.Chunks,
		"duration", tracker.Elapsed())
	return summary, errors.Join(errs...)
}

// embed returns one vector per text, in input order.
func (ix *Indexer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, nil
	}
	batches := NewBatchIterator(texts, ix.batchSize)

	embedInto := func(offset int, batch []string) error {
		embedded, err := ix.embedBatch(ctx, batch)
		if err != nil {
			return err
		}
		copy(vectors[offset:], embedded)
		return nil
	}

	if ix.pool == nil || batches.Len() == 1 {
		if err := batches.ForEach(ctx, embedInto); err != nil {
			return nil, err
		}
		return vectors, nil
	}

	if ix.pool.IsClosed() {
		return nil, ErrIndexerClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}
	for i := range batches.Len() {
		offset, batch := batches.Batch(i)
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			if err := embedInto(offset, batch); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

func (ix *Indexer) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var embedded [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		embedded, err = ix.embedder.EmbedTexts(ctx, batch)
		return err
	}, ix.maxAttempts, ix.baseDelay)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(batch) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d vectors", ErrEmbeddingCountMismatch, len(batch), len(embedded))
	}
	return embedded, nil
}

// documentFingerprint covers the content and the chunk settings, so a
// changed chunk size re-indexes the document.
func documentFingerprint(doc *core.Document, cfg chunking.Config) string {
	return core.ContentHash(fmt.Sprintf("%s\x00%d\x00%d", doc.Fingerprint(), cfg.TargetSize, cfg.Overlap))
}
