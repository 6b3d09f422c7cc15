// Package chunking splits raw document text into overlapping, retrievable chunks.
//
// Text is first divided into sentence units at '.', '!' and '?' followed by
// whitespace. Fenced code blocks are kept whole as a single unit so that a
// chunk never separates an opening fence from its closing fence. Units are
// then packed greedily into chunks bounded by an estimated token count.
//
// Token counts come from a pluggable TokenEstimator. WordEstimator reproduces
// the classic ceil(words/1.3) heuristic and is the default; TiktokenEstimator
// counts real BPE tokens.
//
// # Usage
//
//	chunker, err := chunking.NewChunker()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chunks := chunker.ChunkDocument(&doc, chunking.DefaultConfig())
//
// Chunking is pure and total: it never fails and never truncates a sentence.
package chunking
