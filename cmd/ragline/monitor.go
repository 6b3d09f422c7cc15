package main

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/pipeline"
	"github.com/poiesic/ragline/scoring"
)

// traceMonitor prints each pipeline step as it happens.
type traceMonitor struct {
	w       io.Writer
	started time.Time
}

var _ pipeline.Monitor = (*traceMonitor)(nil)

func newTraceMonitor(w io.Writer) *traceMonitor {
	return &traceMonitor{w: w}
}

func (m *traceMonitor) Start(queryID string, input core.PipelineInput) {
	m.started = time.Now()
	fmt.Fprintf(m.w, "query %s: %q (history %d turns)\n", queryID, input.Query, len(input.History))
}

func (m *traceMonitor) EnterStage(stage pipeline.Stage) {
	fmt.Fprintf(m.w, "  %-8s +%s\n", stage, time.Since(m.started).Round(time.Millisecond))
}

func (m *traceMonitor) AfterRetrieve(result core.RetrievalResult) {
	for i, sc := range result {
		fmt.Fprintf(m.w, "    [%d] %s %.3f\n", i+1, sc.Chunk.ID, sc.Score)
	}
}

func (m *traceMonitor) AfterAssemble(prompt string) {
	fmt.Fprintf(m.w, "    prompt %d chars\n", len([]rune(prompt)))
}

func (m *traceMonitor) AfterGenerate(answer string, err error) {
	if err != nil {
		fmt.Fprintf(m.w, "    error: %v\n", err)
		return
	}
	fmt.Fprintf(m.w, "    answer %d chars\n", len([]rune(answer)))
}

func (m *traceMonitor) AfterScore(b scoring.Breakdown) {
	fmt.Fprintf(m.w, "    score %.2f\n", b.Score)
}

func (m *traceMonitor) Finish(output core.PipelineOutput) {
	fmt.Fprintf(m.w, "  %d sources, confidence %.2f\n", len(output.Sources), output.Confidence)
}
