package ragline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/ragline/ai/mock"
	"github.com/poiesic/ragline/config"
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/indexing"
	"github.com/poiesic/ragline/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "index")
	return cfg
}

func TestNewEngine(t *testing.T) {
	t.Run("create new engine", func(t *testing.T) {
		e, err := NewEngine(context.Background(), testConfig(t), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		defer e.Close()

		assert.NotNil(t, e.Pipeline())
		assert.NotNil(t, e.Indexer())
		assert.NotNil(t, e.Chunker())
		assert.NotNil(t, e.Scorer())
		assert.NotNil(t, e.Store())
		assert.True(t, e.ownsStore)
	})

	t.Run("in-memory storage", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Path = ""
		e, err := NewEngine(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		assert.NoError(t, e.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))
		cfg := config.Default()
		cfg.Storage.Path = tmpFile

		e, err := NewEngine(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, e)
	})

	t.Run("postgres without dsn", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Backend = config.StoragePostgres
		cfg.Storage.DSNEnv = "RAGLINE_TEST_MISSING_DSN"

		_, err := NewEngine(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		assert.ErrorIs(t, err, ErrDSNRequired)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Pipeline.TopK = 0
		_, err := NewEngine(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
	})
}

func TestEngine_WithStoreLeavesStoreOpen(t *testing.T) {
	store, err := badger.NewMemoryIndex()
	require.NoError(t, err)
	defer store.Close()

	e, err := NewEngine(context.Background(), nil, WithStore(store), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, e.Close())

	_, err = store.Query(context.Background(), []float32{1, 0}, 1, "")
	assert.NoError(t, err)
}

func TestEngine_IndexAndAsk(t *testing.T) {
	ctx := context.Background()
	completer := mock.NewMockCompleter()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), completer)
	e, err := NewEngine(ctx, testConfig(t), WithProvider(provider))
	require.NoError(t, err)
	defer e.Close()

	text := "Call refreshToken() before the access token expires to keep the SSO session alive."
	chunks, err := e.IndexDocument(ctx, core.Document{
		ID:      "sso-guide",
		Title:   "SSO Guide",
		RawText: text,
		Metadata: core.DocumentMetadata{
			URL:     "https://docs.example.com/sso",
			Heading: "Refreshing tokens",
		},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	out, err := e.ProcessQuery(ctx, core.PipelineInput{Query: text})
	require.NoError(t, err)
	require.NoError(t, out.Err)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "sso-guide", out.Sources[0].DocumentID)
	assert.Equal(t, "SSO Guide", out.Sources[0].Title)
	assert.Equal(t, 1.0, out.Sources[0].RelevanceScore)
	assert.Equal(t, mock.DefaultAnswer, out.Answer)
	assert.Greater(t, out.Confidence, 0.0)
	assert.Contains(t, completer.LastPrompt(), "[Source 1] Refreshing tokens")

	_, err = e.ProcessQuery(ctx, core.PipelineInput{Query: text})
	require.NoError(t, err)
	stats := e.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	_, err = e.ProcessQuery(ctx, core.PipelineInput{Query: " "})
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestEngine_ForceReindexKeepsOldChunksOnFailure(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockCompleter())
	e, err := NewEngine(ctx, testConfig(t), WithProvider(provider),
		WithIndexerOptions(indexing.WithSkipUnchanged(false)))
	require.NoError(t, err)
	defer e.Close()

	doc := core.Document{
		ID:      "runbook",
		Title:   "Runbook",
		RawText: "Restart the worker pool after rotating the signing key.",
	}
	_, err = e.IndexDocument(ctx, doc)
	require.NoError(t, err)

	calls := embedder.CallCount()
	_, err = e.IndexDocument(ctx, doc)
	require.NoError(t, err)
	assert.Greater(t, embedder.CallCount(), calls, "unchanged document is re-embedded")

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding backend down")
	}
	_, err = e.IndexDocument(ctx, doc)
	require.Error(t, err)

	hits, err := e.Store().Query(ctx, mock.DeterministicVector(doc.RawText, mock.DefaultDimensions), 5, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "runbook", hits[0].Chunk.DocumentID)
}
