// Package indexing turns documents into searchable chunks.
//
// An Indexer chunks a document, embeds the chunk texts and writes chunks and
// vectors to a storage.Store. Embedding walks the chunk texts in fixed-size
// batches one after another by default, which keeps request rates
// predictable against rate-limited providers. WithConcurrency opts into a
// bounded ants worker pool; batch results are reassembled in order either
// way.
//
// Each batch call is retried with exponential backoff when the provider
// reports rate limiting. Any other provider or storage error is returned to
// the caller.
//
// Documents whose content and chunk settings are unchanged since the last
// successful index are skipped. Re-indexing a changed document removes its
// previous chunks before the new ones are written.
package indexing
