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

import "context"

// DefaultBatchSize is the number of texts sent per embedding call.
const DefaultBatchSize = 32

// BatchIterator walks a list of texts in fixed-size batches.
type BatchIterator struct {
	texts []string
	size  int
}

// NewBatchIterator creates an iterator over texts.
// A non-positive size falls back to DefaultBatchSize.
func NewBatchIterator(texts []string, size int) *BatchIterator {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchIterator{texts: texts, size: size}
}

// Len returns the number of batches.
func (it *BatchIterator) Len() int {
	return (len(it.texts) + it.size - 1) / it.size
}

// Batch returns the i-th batch and the offset of its first text.
func (it *BatchIterator) Batch(i int) (int, []string) {
	start := i * it.size
	end := min(start+it.size, len(it.texts))
	return start, it.texts[start:end]
}

// ForEach calls fn for each batch in order, stopping at the first error.
// Context cancellation is checked between batches.
func (it *BatchIterator) ForEach(ctx context.Context, fn func(offset int, batch []string) error) error {
	for i := range it.Len() {
		if err := ctx.Err(); err != nil {
			return err
		}
		offset, batch := it.Batch(i)
		if err := fn(offset, batch); err != nil {
			return err
		}
	}
	return nil
}
