// Package cache provides embedding caches and a caching ai.Embedder decorator.
//
// Keys are content hashes of the embedded text (core.ContentHash), so
// identical queries share a vector regardless of who asked them.
//
// Two tiers are available:
//
//   - LRU: an in-process, bounded least-recently-used cache with optional TTL.
//   - Redis: a process-shared cache with a per-entry TTL.
//
// CachedEmbedder consults tiers in order, backfills faster tiers on a hit in
// a slower one, and collapses concurrent misses for the same text into a
// single upstream call.
package cache
