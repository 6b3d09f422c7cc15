// Package retrieval turns a query into a ranked list of relevant chunks.
//
// Retrieval is best-effort: an embedding or index failure is logged and
// yields an empty result so the caller can still answer without context.
package retrieval
