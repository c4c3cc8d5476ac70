package trainer

import "hello-tm/internal/temporal"

// View is a read-only copy of the memory state after a compute step.
type View struct {
	Columns        int
	CellsPerColumn int

	ActiveCells     []int
	PredictiveCells []int
	WinnerCells     []int

	Segments       int
	Synapses       int
	ActiveSegments int

	// Cells owning the active and matching segments, one entry per segment.
	ActiveSegmentCells   []int
	MatchingSegmentCells []int

	ActiveColumns    []int
	PredictedColumns []int
}

// Observe captures the current state of tm.
func Observe(tm *temporal.TemporalMemory) View {
	active := tm.ActiveSegments()
	matching := tm.MatchingSegments()
	v := View{
		Columns:              tm.NumberOfColumns(),
		CellsPerColumn:       tm.CellsPerColumn(),
		ActiveCells:          tm.ActiveCells(),
		PredictiveCells:      tm.PredictiveCells(),
		WinnerCells:          tm.WinnerCells(),
		Segments:             tm.Connections().NumSegments(),
		Synapses:             tm.Connections().NumSynapses(),
		ActiveSegments:       len(active),
		ActiveSegmentCells:   make([]int, len(active)),
		MatchingSegmentCells: make([]int, len(matching)),
		ActiveColumns:        tm.ActiveColumns(),
		PredictedColumns:     tm.PredictedColumns(),
	}
	for i, s := range active {
		v.ActiveSegmentCells[i] = s.Cell
	}
	for i, s := range matching {
		v.MatchingSegmentCells[i] = s.Cell
	}
	return v
}

// StepReport describes one learning step.
type StepReport struct {
	Pass   int
	Index  int
	Symbol string
	Input  []int
	// Predicted holds the columns predicted before this input arrived.
	Predicted []int
	Bingo     bool
	View      View
}

// Reporter receives progress events from Train, Infer and Run.
type Reporter interface {
	PassStarted(pass int)
	Stepped(StepReport)
	PassFinished(PassOutcome)
	Inferred(InferStep)
	Finished(Result)
}

type nopReporter struct{}

func (nopReporter) PassStarted(int)          {}
func (nopReporter) Stepped(StepReport)       {}
func (nopReporter) PassFinished(PassOutcome) {}
func (nopReporter) Inferred(InferStep)       {}
func (nopReporter) Finished(Result)          {}
