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


package ragline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragline/ai"
	"github.com/poiesic/ragline/ai/bedrock"
	"github.com/poiesic/ragline/ai/openai"
	"github.com/poiesic/ragline/cache"
	"github.com/poiesic/ragline/chunking"
	"github.com/poiesic/ragline/config"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/indexing"
	"github.com/poiesic/ragline/pipeline"
	"github.com/poiesic/ragline/prompt"
	"github.com/poiesic/ragline/retrieval"
	"github.com/poiesic/ragline/scoring"
	"github.com/poiesic/ragline/storage"
	"github.com/poiesic/ragline/storage/badger"
	"github.com/poiesic/ragline/storage/postgres"
)

// ErrDSNRequired indicates the postgres backend was selected without a DSN.
var ErrDSNRequired = errors.New("postgres dsn is required")

// Engine wires storage, the model provider and the query and indexing
// components together. Every dependency is built once here and handed to
// the components explicitly.
type Engine struct {
	config    *config.AppConfig
	store     storage.Store
	ownsStore bool
	provider  ai.Provider
	redis     *cache.Redis
	cached    *cache.CachedEmbedder
	chunker   *chunking.Chunker
	scorer    *scoring.Scorer
	pipeline  *pipeline.Pipeline
	indexer   *indexing.Indexer
	indexOpts []indexing.Option
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.Provider
	store    storage.Store
	indexer  []indexing.Option
	logger   *slog.Logger
}

// WithProvider uses provider instead of building one from the ai section.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithStore uses store instead of opening one from the storage section.
// The caller keeps ownership and must close it.
func WithStore(store storage.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithIndexerOptions appends opts after the options derived from the
// indexing section, so they take precedence.
func WithIndexerOptions(opts ...indexing.Option) EngineOption {
	return func(o *engineOptions) {
		o.indexer = append(o.indexer, opts...)
	}
}

// WithLogger sets the logger handed to every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine builds an Engine from cfg. A nil cfg uses config.Default().
func NewEngine(ctx context.Context, cfg *config.AppConfig, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	e := &Engine{
		config:    cfg,
		store:     options.store,
		provider:  options.provider,
		indexOpts: options.indexer,
		logger:    options.logger.With("component", "engine"),
	}
	if err := e.build(ctx, options.logger); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) build(ctx context.Context, logger *slog.Logger) error {
	cfg := e.config

	if e.store == nil {
		store, err := openStore(ctx, cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		e.store = store
		e.ownsStore = true
	}

	if e.provider == nil {
		provider, err := newProvider(ctx, cfg.AI.Provider())
		if err != nil {
			return fmt.Errorf("creating ai provider: %w", err)
		}
		e.provider = provider
	}

	estimator, err := cfg.Chunking.NewEstimator()
	if err != nil {
		return err
	}
	e.chunker, err = chunking.NewChunker(chunking.WithEstimator(estimator), chunking.WithLogger(logger))
	if err != nil {
		return err
	}

	e.scorer, err = scoring.NewScorer(scoring.WithWeights(cfg.Scoring))
	if err != nil {
		return err
	}

	embedder, completer := e.provider.Embedder(), e.provider.Completer()
	if cfg.AI.RequestsPerSecond > 0 {
		limiter := ai.NewLimiter(cfg.AI.RequestsPerSecond)
		embedder = ai.NewThrottledEmbedder(embedder, limiter)
		completer = ai.NewThrottledCompleter(completer, limiter)
	}

	tiers, err := e.cacheTiers(ctx, logger)
	if err != nil {
		return err
	}
	e.cached = cache.NewCachedEmbedder(
		ai.NewRetryingEmbedder(embedder, cfg.AI.MaxAttempts, cfg.AI.RetryBaseDelay), tiers...)

	retriever, err := retrieval.NewRetriever(e.cached, e.store, retrieval.WithLogger(logger))
	if err != nil {
		return err
	}
	assembler, err := prompt.NewAssembler(cfg.Prompt.Options()...)
	if err != nil {
		return err
	}
	e.pipeline, err = pipeline.NewPipeline(retriever, assembler,
		ai.NewRetryingCompleter(completer, cfg.AI.MaxAttempts, cfg.AI.RetryBaseDelay),
		e.scorer,
		pipeline.WithConfig(cfg.Pipeline),
		pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	// Chunk embeddings bypass the query cache; the indexer retries per batch.
	indexOpts := append([]indexing.Option{
		indexing.WithBatchSize(cfg.Indexing.BatchSize),
		indexing.WithConcurrency(cfg.Indexing.Concurrency),
		indexing.WithRetry(cfg.AI.MaxAttempts, cfg.AI.RetryBaseDelay),
		indexing.WithLogger(logger),
	}, e.indexOpts...)
	e.indexer, err = indexing.NewIndexer(e.chunker, embedder, e.store, indexOpts...)
	return err
}

func (e *Engine) cacheTiers(ctx context.Context, logger *slog.Logger) ([]cache.EmbeddingCache, error) {
	lru, err := cache.NewLRU(e.config.Cache.Capacity, e.config.Cache.TTL)
	if err != nil {
		return nil, err
	}
	tiers := []cache.EmbeddingCache{lru}
	if e.config.Cache.Redis != nil {
		e.redis, err = cache.NewRedis(ctx, *e.config.Cache.Redis, cache.WithRedisLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		tiers = append(tiers, e.redis)
	}
	return tiers, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case config.StoragePostgres:
		dsn := cfg.DSN()
		if dsn == "" {
			return nil, fmt.Errorf("%w: set %s", ErrDSNRequired, cfg.DSNEnv)
		}
		return postgres.NewIndex(ctx, dsn, postgres.WithDimensions(cfg.Dimensions), postgres.WithLogger(logger))
	default:
		if cfg.Path == "" {
			return badger.NewMemoryIndex(badger.WithLogger(logger))
		}
		return badger.NewIndex(cfg.Path, badger.WithLogger(logger))
	}
}

func newProvider(ctx context.Context, cfg *ai.Config) (ai.Provider, error) {
	if cfg.Backend == ai.BackendBedrock {
		return bedrock.NewProvider(ctx, cfg)
	}
	return openai.NewProvider(cfg)
}

// Close releases everything the engine opened. Stores passed in with
// WithStore are left open.
func (e *Engine) Close() error {
	var errs []error
	if e.indexer != nil {
		errs = append(errs, e.indexer.Close())
	}
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Error("error closing redis cache", "err", err)
			errs = append(errs, err)
		}
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	if e.ownsStore && e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Error("error closing storage", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pipeline returns the query pipeline.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// Indexer returns the document indexer.
func (e *Engine) Indexer() *indexing.Indexer {
	return e.indexer
}

// Chunker returns the configured chunker.
func (e *Engine) Chunker() *chunking.Chunker {
	return e.chunker
}

// Scorer returns the configured answer scorer.
func (e *Engine) Scorer() *scoring.Scorer {
	return e.scorer
}

// Store returns the vector store.
func (e *Engine) Store() storage.Store {
	return e.store
}

// CacheStats reports query embedding cache hits and misses.
func (e *Engine) CacheStats() cache.Stats {
	return e.cached.Stats()
}

// ProcessQuery answers a question. See pipeline.Pipeline.ProcessQuery.
func (e *Engine) ProcessQuery(ctx context.Context, input core.PipelineInput) (core.PipelineOutput, error) {
	return e.pipeline.ProcessQuery(ctx, input)
}

// IndexDocument indexes doc with the configured chunk settings.
func (e *Engine) IndexDocument(ctx context.Context, doc core.Document) ([]core.Chunk, error) {
	return e.indexer.IndexDocument(ctx, doc, e.config.Chunking.Config)
}
