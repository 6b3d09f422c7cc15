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


package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCapacity is the default number of entries held by an LRU cache.
const DefaultCapacity = 10000

type lruStore interface {
	Get(key string) ([]float32, bool)
	Add(key string, value []float32) bool
	Len() int
	Purge()
}

// LRU is a bounded in-process embedding cache. The least recently used
// entry is evicted when capacity is reached. Safe for concurrent use.
type LRU struct {
	store    lruStore
	capacity int
}

var _ EmbeddingCache = (*LRU)(nil)

// NewLRU creates a cache holding at most capacity entries. A positive ttl
// also expires entries that age past it.
func NewLRU(capacity int, ttl time.Duration) (*LRU, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if ttl > 0 {
		return &LRU{
			store:    expirable.NewLRU[string, []float32](capacity, nil, ttl),
			capacity: capacity,
		}, nil
	}
	store, err := lru.New[string, []float32](capacity)
	if err != nil {
		return nil, err
	}
	return &LRU{store: store, capacity: capacity}, nil
}

// Get implements EmbeddingCache.
func (c *LRU) Get(_ context.Context, key string) ([]float32, bool) {
	return c.store.Get(key)
}

// Set implements EmbeddingCache.
func (c *LRU) Set(_ context.Context, key string, vector []float32) {
	c.store.Add(key, vector)
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	return c.store.Len()
}

// Capacity returns the maximum number of entries.
func (c *LRU) Capacity() int {
	return c.capacity
}

// Purge removes every entry.
func (c *LRU) Purge() {
	c.store.Purge()
}
