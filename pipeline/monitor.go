package pipeline

import (
	"github.com/poiesic/ragline/core"
	"github.com/poiesic/ragline/scoring"
)

// Monitor provides hooks to observe query processing.
// Implement this interface to trace intermediate results.
type Monitor interface {
	Start(queryID string, input core.PipelineInput)
	EnterStage(stage Stage)
	AfterRetrieve(result core.RetrievalResult)
	AfterAssemble(prompt string)
	AfterGenerate(answer string, err error)
	AfterScore(breakdown scoring.Breakdown)
	Finish(output core.PipelineOutput)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ core.PipelineInput) {}
func (n *noopMonitor) EnterStage(_ Stage)                   {}
func (n *noopMonitor) AfterRetrieve(_ core.RetrievalResult) {}
func (n *noopMonitor) AfterAssemble(_ string)               {}
func (n *noopMonitor) AfterGenerate(_ string, _ error)      {}
func (n *noopMonitor) AfterScore(_ scoring.Breakdown)       {}
func (n *noopMonitor) Finish(_ core.PipelineOutput)         {}
