package chunking

import (
	"log/slog"

	"github.com/poiesic/ragline/core"
)

const (
	// DefaultTargetSize is the default maximum estimated tokens per chunk.
	DefaultTargetSize = 512

	// DefaultOverlap is the default estimated tokens carried into the next chunk.
	DefaultOverlap = 50
)

// Config controls chunk sizing.
type Config struct {
	// TargetSize is the maximum estimated token count of a chunk.
	// A single sentence larger than TargetSize becomes its own chunk.
	TargetSize int `yaml:"target_size"`

	// Overlap is the approximate estimated token count repeated from the
	// tail of one chunk at the head of the next.
	Overlap int `yaml:"overlap"`
}

// DefaultConfig returns the default chunk sizing.
func DefaultConfig() Config {
	return Config{
		TargetSize: DefaultTargetSize,
		Overlap:    DefaultOverlap,
	}
}

// Chunker splits text into chunks bounded by an estimated token count.
// A Chunker holds no mutable state and is safe for concurrent use.
type Chunker struct {
	estimator TokenEstimator
	logger    *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithEstimator sets the token estimator.
// Default is WordEstimator.
func WithEstimator(estimator TokenEstimator) Option {
	return func(c *Chunker) error {
		if estimator == nil {
			estimator = WordEstimator{}
		}
		c.estimator = estimator
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "chunker")
		return nil
	}
}

// NewChunker creates a new chunker.
func NewChunker(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		estimator: WordEstimator{},
		logger:    slog.Default().With("component", "chunker"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Estimator returns the token estimator in use.
func (c *Chunker) Estimator() TokenEstimator {
	return c.estimator
}

// ChunkDocument chunks a document's raw text, copying its metadata onto every chunk.
func (c *Chunker) ChunkDocument(doc *core.Document, cfg Config) []core.Chunk {
	return c.Chunk(doc.RawText, doc.ID, cfg.TargetSize, cfg.Overlap, doc.ChunkMetadata())
}

// Chunk splits text into chunks of at most targetSize estimated tokens.
//
// Sentences are appended to a buffer until the next one would push the
// buffer past targetSize. The buffer is then emitted and the next buffer is
// seeded with roughly overlap tokens from the tail of the previous one,
// followed by the sentence that did not fit. Each chunk's text is the exact
// slice of the input between its offsets.
//
// Empty or whitespace-only text yields no chunks. A non-positive targetSize
// falls back to DefaultTargetSize and a negative overlap is treated as zero.
func (c *Chunker) Chunk(text, documentID string, targetSize, overlap int, metadata core.ChunkMetadata) []core.Chunk {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = 0
	}

	units := splitSentences(text)
	if len(units) == 0 {
		return nil
	}
	fences := findFences(text)

	var chunks []core.Chunk
	emit := func(start, end int) {
		index := len(chunks)
		chunks = append(chunks, core.Chunk{
			ID:          core.ChunkID(documentID, index),
			DocumentID:  documentID,
			Text:        text[start:end],
			Index:       index,
			StartOffset: start,
			EndOffset:   end,
			Metadata:    metadata,
		})
	}

	buf := units[0]
	for _, unit := range units[1:] {
		if c.estimator.Estimate(text[buf.start:unit.end]) <= targetSize {
			buf.end = unit.end
			continue
		}

		emit(buf.start, buf.end)

		start := c.overlapStart(text, buf, overlap, fences)
		if start >= buf.end || c.estimator.Estimate(text[start:unit.end]) > targetSize {
			start = unit.start
		}
		buf = span{start: start, end: unit.end}
	}
	emit(buf.start, buf.end)

	c.logger.Debug("chunked text", "documentId", documentID, "length", len(text),
		"sentences", len(units), "chunks", len(chunks))

	return chunks
}

// overlapStart returns where the tail overlap of buf begins. The tail length
// in bytes is proportional to overlap/estimatedTokens(buf); the cut is moved
// forward to a word boundary and never lands inside a fenced code block.
// It returns buf.end when no overlap applies.
func (c *Chunker) overlapStart(text string, buf span, overlap int, fences []span) int {
	if overlap == 0 {
		return buf.end
	}
	tokens := c.estimator.Estimate(text[buf.start:buf.end])
	if tokens == 0 {
		return buf.end
	}
	if overlap >= tokens {
		return buf.start
	}

	pos := buf.end - (buf.end-buf.start)*overlap/tokens
	if pos > buf.start && !isSpace(text[pos-1]) {
		for pos < buf.end && !isSpace(text[pos]) {
			pos++
		}
	}
	for _, f := range fences {
		if f.contains(pos) {
			pos = f.end
		}
	}
	for pos < buf.end && isSpace(text[pos]) {
		pos++
	}
	return pos
}
