package indexing

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how far a multi-document index run has got.
type ProgressTracker struct {
	writer    io.Writer
	total     int
	done      int
	chunks    int
	skipped   int
	failed    int
	startTime time.Time
	started   bool
	mu        sync.Mutex
}

// NewProgressTracker creates a tracker for total documents writing to writer.
// A nil writer discards output.
func NewProgressTracker(writer io.Writer, total int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressTracker{writer: writer, total: total}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done, p.chunks, p.skipped, p.failed = 0, 0, 0, 0
}

// Indexed records a document written with n chunks.
func (p *ProgressTracker) Indexed(n int) {
	p.record(func() { p.chunks += n })
}

// Skipped records a document left untouched because it was unchanged.
func (p *ProgressTracker) Skipped() {
	p.record(func() { p.skipped++ })
}

// Failed records a document that could not be indexed.
func (p *ProgressTracker) Failed() {
	p.record(func() { p.failed++ })
}

func (p *ProgressTracker) record(update func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	update()
	p.done = min(p.done+1, p.total)
	p.report()
}

// Finish prints the final line.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}
	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}
	rate := float64(p.done) / time.Since(p.startTime).Seconds()

	fmt.Fprintf(p.writer, "\rIndexed %d/%d documents (%.1f%%): %d chunks, %d unchanged, %d failed - %.1f docs/s",
		p.done, p.total, percentage, p.chunks, p.skipped, p.failed, rate)
}
