package indexing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchIterator(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		size    int
		batches [][]string
	}{
		{"empty", nil, 2, nil},
		{"exact", []string{"a", "b", "c", "d"}, 2, [][]string{{"a", "b"}, {"c", "d"}}},
		{"remainder", []string{"a", "b", "c"}, 2, [][]string{{"a", "b"}, {"c"}}},
		{"single", []string{"a", "b"}, 10, [][]string{{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := NewBatchIterator(tt.texts, tt.size)
			assert.Equal(t, len(tt.batches), it.Len())

			var got [][]string
			var offsets []int
			err := it.ForEach(context.Background(), func(offset int, batch []string) error {
				offsets = append(offsets, offset)
				got = append(got, batch)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.batches, got)
			for i, off := range offsets {
				assert.Equal(t, i*tt.size, off)
			}
		})
	}
}

func TestBatchIterator_DefaultSize(t *testing.T) {
	texts := make([]string, DefaultBatchSize+1)
	assert.Equal(t, 2, NewBatchIterator(texts, 0).Len())
}

func TestBatchIterator_StopsOnError(t *testing.T) {
	it := NewBatchIterator([]string{"a", "b", "c"}, 1)
	boom := errors.New("boom")
	calls := 0
	err := it.ForEach(context.Background(), func(int, []string) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestBatchIterator_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := NewBatchIterator([]string{"a"}, 1).ForEach(ctx, func(int, []string) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}
