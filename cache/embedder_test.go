package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ragline/ai/mock"
	"github.com/poiesic/ragline/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is a trivial unbounded EmbeddingCache for tier tests.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]float32
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]float32)}
}

func (m *mapCache) Get(_ context.Context, key string) ([]float32, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Set(_ context.Context, key string, v []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = v
}

func TestCachedEmbedder_EmbedTextCachesResult(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	lru, err := NewLRU(10, 0)
	require.NoError(t, err)
	c := NewCachedEmbedder(upstream, lru)
	ctx := context.Background()

	v1, err := c.EmbedText(ctx, "how do I reset SSO?")
	require.NoError(t, err)
	v2, err := c.EmbedText(ctx, "how do I reset SSO?")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, upstream.CallCount())
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	boom := errors.New("boom")
	upstream.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, boom
	}
	lru, err := NewLRU(10, 0)
	require.NoError(t, err)
	c := NewCachedEmbedder(upstream, lru)

	_, err = c.EmbedText(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, lru.Len())
}

func TestCachedEmbedder_BackfillsFasterTier(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	l1 := newMapCache()
	l2 := newMapCache()
	key := core.ContentHash("shared")
	l2.data[key] = []float32{0.5, 0.5}

	c := NewCachedEmbedder(upstream, l1, l2)
	v, err := c.EmbedText(context.Background(), "shared")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.5}, v)
	assert.Zero(t, upstream.CallCount())
	assert.Equal(t, []float32{0.5, 0.5}, l1.data[key])
}

func TestCachedEmbedder_EmbedTextsOnlySendsMisses(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	var sent []string
	upstream.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		sent = append(sent, texts...)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, 8)
		}
		return out, nil
	}
	l1 := newMapCache()
	l1.data[core.ContentHash("cached")] = []float32{9}
	c := NewCachedEmbedder(upstream, l1)

	vectors, err := c.EmbedTexts(context.Background(), []string{"new", "cached", "new", "other"})
	require.NoError(t, err)
	require.Len(t, vectors, 4)

	assert.Equal(t, []string{"new", "other"}, sent)
	assert.Equal(t, []float32{9}, vectors[1])
	assert.Equal(t, vectors[0], vectors[2])
	assert.Equal(t, mock.DeterministicVector("other", 8), vectors[3])
	assert.Equal(t, 2, l1.sets)
}

func TestCachedEmbedder_EmbedTextsAllCached(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	l1 := newMapCache()
	l1.data[core.ContentHash("a")] = []float32{1}
	c := NewCachedEmbedder(upstream, l1)

	vectors, err := c.EmbedTexts(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, vectors)
	assert.Zero(t, upstream.CallCount())
}

func TestCachedEmbedder_EmbedTextsCountMismatch(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	upstream.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	c := NewCachedEmbedder(upstream)

	_, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrVectorCountMismatch)
}

func TestCachedEmbedder_ConcurrentMissesCollapse(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	release := make(chan struct{})
	upstream.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-release
		return []float32{1}, nil
	}
	c := NewCachedEmbedder(upstream, newMapCache())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.EmbedText(context.Background(), "same")
			assert.NoError(t, err)
			assert.Equal(t, []float32{1}, v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, upstream.CallCount(), 8)
	assert.GreaterOrEqual(t, upstream.CallCount(), 1)
}

func TestCachedEmbedder_CanceledCallerDoesNotFailOthers(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	started := make(chan struct{})
	release := make(chan struct{})
	upstream.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		close(started)
		select {
		case <-release:
			return []float32{1, 2}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	lru, err := NewLRU(10, 0)
	require.NoError(t, err)
	c := NewCachedEmbedder(upstream, lru)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.EmbedText(ctxA, "q")
		errA <- err
	}()
	<-started

	type result struct {
		v   []float32
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.EmbedText(context.Background(), "q")
		resB <- result{v, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, []float32{1, 2}, b.v)
	assert.Equal(t, 1, upstream.CallCount())
	assert.Equal(t, 1, lru.Len())
}

func TestCachedEmbedder_WaiterHonoursOwnDeadline(t *testing.T) {
	upstream := mock.NewMockEmbedder()
	release := make(chan struct{})
	defer close(release)
	upstream.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-release
		return []float32{1}, nil
	}
	c := NewCachedEmbedder(upstream)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.EmbedText(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
