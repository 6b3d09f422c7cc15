package badger

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := openIndex("", true, WithLogger(slog.Default()))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func testChunk(docID string, i int, scope string) core.Chunk {
	return core.Chunk{
		ID:         core.ChunkID(docID, i),
		DocumentID: docID,
		Text:       fmt.Sprintf("chunk %d of %s", i, docID),
		Index:      i,
		Metadata:   core.ChunkMetadata{Title: docID, OrgScope: scope},
	}
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunks := []core.Chunk{
		testChunk("a", 0, ""),
		testChunk("a", 1, ""),
		testChunk("b", 0, ""),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}
	require.NoError(t, idx.Upsert(ctx, chunks, vectors))

	hits, err := idx.Query(ctx, []float32{2, 0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a_chunk_0", hits[0].Chunk.ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
	assert.Equal(t, "a_chunk_1", hits[1].Chunk.ID)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
	assert.Equal(t, chunks[0], hits[0].Chunk)
}

func TestIndex_QueryScope(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunks := []core.Chunk{testChunk("acme-doc", 0, "acme"), testChunk("globex-doc", 0, "globex")}
	require.NoError(t, idx.Upsert(ctx, chunks, [][]float32{{1, 0}, {1, 0}}))

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, "globex")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "globex-doc", hits[0].Chunk.DocumentID)

	hits, err = idx.Query(ctx, []float32{1, 0}, 10, "")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestIndex_QueryEmptyIndex(t *testing.T) {
	idx := newTestIndex(t)
	hits, err := idx.Query(context.Background(), []float32{1, 2, 3}, 5, "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_QueryInvalid(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Query(ctx, []float32{1}, 0, "")
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = idx.Query(ctx, nil, 3, "")
	assert.ErrorIs(t, err, storage.ErrEmptyVector)
}

func TestIndex_UpsertValidation(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	err := idx.Upsert(ctx, []core.Chunk{testChunk("a", 0, "")}, nil)
	assert.ErrorIs(t, err, storage.ErrLengthMismatch)

	err = idx.Upsert(ctx, []core.Chunk{testChunk("a", 0, "")}, [][]float32{{}})
	assert.ErrorIs(t, err, storage.ErrEmptyVector)
}

func TestIndex_UpsertReplaces(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunk := testChunk("a", 0, "")
	require.NoError(t, idx.Upsert(ctx, []core.Chunk{chunk}, [][]float32{{1, 0}}))
	chunk.Text = "updated"
	require.NoError(t, idx.Upsert(ctx, []core.Chunk{chunk}, [][]float32{{0, 1}}))

	hits, err := idx.Query(ctx, []float32{0, 1}, 5, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "updated", hits[0].Chunk.Text)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
}

func TestIndex_UpsertManyBatches(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	n := upsertBatchSize*2 + 7
	chunks := make([]core.Chunk, n)
	vectors := make([][]float32, n)
	for i := range chunks {
		chunks[i] = testChunk("big", i, "")
		vectors[i] = []float32{float32(i + 1), 1}
	}
	require.NoError(t, idx.Upsert(ctx, chunks, vectors))

	hits, err := idx.Query(ctx, []float32{1, 1}, n+10, "")
	require.NoError(t, err)
	assert.Len(t, hits, n)
}

func TestIndex_DeleteDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunks := []core.Chunk{testChunk("doc", 0, ""), testChunk("doc", 1, ""), testChunk("doc2", 0, "")}
	require.NoError(t, idx.Upsert(ctx, chunks, [][]float32{{1, 0}, {1, 0}, {1, 0}}))
	require.NoError(t, idx.SetFingerprint(ctx, "doc", "fp"))

	removed, err := idx.DeleteDocument(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	hits, err := idx.Query(ctx, []float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc2", hits[0].Chunk.DocumentID)

	_, found, err := idx.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, found)

	removed, err = idx.DeleteDocument(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestIndex_Fingerprint(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_, found, err := idx.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, idx.SetFingerprint(ctx, "doc", "abc"))
	fp, found, err := idx.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", fp)

	require.NoError(t, idx.SetFingerprint(ctx, "doc", "def"))
	fp, _, err = idx.Fingerprint(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, "def", fp)
}

func TestIndex_Closed(t *testing.T) {
	idx, err := NewMemoryIndex()
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	_, err = idx.Query(context.Background(), []float32{1}, 1, "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = idx.Upsert(context.Background(), []core.Chunk{testChunk("a", 0, "")}, [][]float32{{1}})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestIndex_Persistence(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewIndex(dir)
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(ctx, []core.Chunk{testChunk("p", 0, "")}, [][]float32{{0, 1}}))
	require.NoError(t, idx.Close())

	idx, err = NewIndex(dir)
	require.NoError(t, err)
	defer idx.Close()
	hits, err := idx.Query(ctx, []float32{0, 1}, 1, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p_chunk_0", hits[0].Chunk.ID)
}
