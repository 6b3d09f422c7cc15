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
	"sync/atomic"

	"github.com/poiesic/ragline/ai"
	"github.com/poiesic/ragline/core"
	"golang.org/x/sync/singleflight"
)

// Stats counts cache lookups made through a CachedEmbedder.
type Stats struct {
	Hits   int64
	Misses int64
}

// CachedEmbedder wraps an ai.Embedder with one or more cache tiers.
// Returned vectors may be shared with the cache and must not be modified.
type CachedEmbedder struct {
	next  ai.Embedder
	tiers []EmbeddingCache
	group singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

var _ ai.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder returns next decorated with the given tiers, consulted
// in order. With no tiers every call goes straight to next.
func NewCachedEmbedder(next ai.Embedder, tiers ...EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{next: next, tiers: tiers}
}

// EmbedText implements ai.Embedder.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := core.ContentHash(text)
	if v, ok := c.lookup(ctx, key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	// The shared upstream call outlives any single caller; each caller
	// waits only as long as its own context allows.
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := c.next.EmbedText(detached, text)
		if err != nil {
			return nil, err
		}
		c.store(detached, key, v)
		return v, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float32), nil
	}
}

// EmbedTexts implements ai.Embedder. Only texts missing from every tier are
// sent upstream, in a single call, with duplicates collapsed.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	pending := make(map[string][]int)
	var (
		missKeys  []string
		missTexts []string
	)

	for i, text := range texts {
		key := core.ContentHash(text)
		if v, ok := c.lookup(ctx, key); ok {
			c.hits.Add(1)
			vectors[i] = v
			continue
		}
		c.misses.Add(1)
		if _, seen := pending[key]; !seen {
			missKeys = append(missKeys, key)
			missTexts = append(missTexts, text)
		}
		pending[key] = append(pending[key], i)
	}

	if len(missTexts) == 0 {
		return vectors, nil
	}

	fresh, err := c.next.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVectorCountMismatch, len(fresh), len(missTexts))
	}

	for j, key := range missKeys {
		c.store(ctx, key, fresh[j])
		for _, i := range pending[key] {
			vectors[i] = fresh[j]
		}
	}
	return vectors, nil
}

// Stats returns hit and miss counts since creation.
func (c *CachedEmbedder) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	for i, tier := range c.tiers {
		if v, ok := tier.Get(ctx, key); ok {
			for _, faster := range c.tiers[:i] {
				faster.Set(ctx, key, v)
			}
			return v, true
		}
	}
	return nil, false
}

func (c *CachedEmbedder) store(ctx context.Context, key string, v []float32) {
	for _, tier := range c.tiers {
		tier.Set(ctx, key, v)
	}
}
