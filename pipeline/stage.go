package pipeline

import "fmt"

// Stage is a step of query processing.
type Stage int

const (
	StageStart Stage = iota
	StageRetrieve
	StageAssemble
	StageGenerate
	StageScore
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageRetrieve:
		return "retrieve"
	case StageAssemble:
		return "assemble"
	case StageGenerate:
		return "generate"
	case StageScore:
		return "score"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Terminal reports whether no further transition can follow s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// next returns the stage that follows s on the success path.
func (s Stage) next() Stage {
	if s.Terminal() {
		return s
	}
	return s + 1
}
