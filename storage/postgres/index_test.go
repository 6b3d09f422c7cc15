package postgres

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStatements(t *testing.T) {
	stmts := schemaStatements(0)
	require.NotEmpty(t, stmts)
	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])
	assert.Contains(t, stmts[1], "embedding    vector NOT NULL")

	stmts = schemaStatements(768)
	assert.Contains(t, stmts[1], "vector(768)")
}

func TestQuerySQL_UsesCosineDistance(t *testing.T) {
	assert.Contains(t, queryChunksSQL, "embedding <=> $1 AS distance")
	assert.True(t, strings.Contains(queryChunksSQL, "ORDER BY distance ASC"))
}

func TestWithDimensions_Negative(t *testing.T) {
	idx := &Index{}
	err := WithDimensions(-1)(idx)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func newIntegrationIndex(t *testing.T) storage.Store {
	t.Helper()
	dsn := os.Getenv("RAGLINE_PG_DSN")
	if dsn == "" {
		t.Skip("RAGLINE_PG_DSN not set")
	}
	idx, err := NewIndex(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndex_Integration(t *testing.T) {
	idx := newIntegrationIndex(t)
	ctx := context.Background()
	docID := "ragline-it-doc"

	_, err := idx.DeleteDocument(ctx, docID)
	require.NoError(t, err)

	chunks := []core.Chunk{
		{ID: core.ChunkID(docID, 0), DocumentID: docID, Text: "alpha", Metadata: core.ChunkMetadata{OrgScope: "it"}},
		{ID: core.ChunkID(docID, 1), DocumentID: docID, Index: 1, Text: "beta", Metadata: core.ChunkMetadata{OrgScope: "it"}},
	}
	require.NoError(t, idx.Upsert(ctx, chunks, [][]float32{{1, 0, 0}, {0, 1, 0}}))
	require.NoError(t, idx.SetFingerprint(ctx, docID, "fp1"))

	hits, err := idx.Query(ctx, []float32{1, 0, 0}, 1, "it")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, chunks[0].ID, hits[0].Chunk.ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)

	fp, found, err := idx.Fingerprint(ctx, docID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "fp1", fp)

	removed, err := idx.DeleteDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, found, err = idx.Fingerprint(ctx, docID)
	require.NoError(t, err)
	assert.False(t, found)
}
