package temporal

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func sequenceParams() Params {
	p := DefaultParams()
	p.ColumnDimensions = []int{16}
	p.CellsPerColumn = 1
	p.ActivationThreshold = 3
	p.MinThreshold = 2
	p.MaxNewSynapseCount = 4
	p.InitialPermanence = 0.5
	p.ConnectedPermanence = 0.5
	p.PermanenceIncrement = 0.1
	p.PermanenceDecrement = 0
	return p
}

var (
	seqA = []int{0, 1, 2, 3}
	seqB = []int{4, 5, 6, 7}
	seqC = []int{8, 9, 10, 11}
)

func mustNew(t *testing.T, p Params) *TemporalMemory {
	t.Helper()
	tm, err := New(p)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tm
}

func mustCompute(t *testing.T, tm *TemporalMemory, cols []int, learn bool) {
	t.Helper()
	if err := tm.Compute(cols, learn); err != nil {
		t.Fatalf("Compute(%v): %v", cols, err)
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	p := sequenceParams()
	p.CellsPerColumn = 0
	if _, err := New(p); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
	p = sequenceParams()
	p.InitialPermanence = 1.5
	if _, err := New(p); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestComputeRejectsOutOfRangeColumn(t *testing.T) {
	tm := mustNew(t, sequenceParams())
	if err := tm.Compute([]int{16}, true); !errors.Is(err, ErrColumnOutOfRange) {
		t.Fatalf("expected ErrColumnOutOfRange, got %v", err)
	}
}

func TestFirstInputBurstsColumns(t *testing.T) {
	p := sequenceParams()
	p.ColumnDimensions = []int{8}
	p.CellsPerColumn = 4
	tm := mustNew(t, p)

	mustCompute(t, tm, []int{1, 0, 1}, true)

	wantActive := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if got := tm.ActiveCells(); !reflect.DeepEqual(got, wantActive) {
		t.Fatalf("active cells %v want %v", got, wantActive)
	}
	winners := tm.WinnerCells()
	if len(winners) != 2 {
		t.Fatalf("expected one winner per column, got %v", winners)
	}
	if tm.ColumnForCell(winners[0]) != 0 || tm.ColumnForCell(winners[1]) != 1 {
		t.Fatalf("winners in wrong columns: %v", winners)
	}
	if tm.Connections().NumSegments() != 0 {
		t.Fatalf("no segments expected without previous winners")
	}
	if len(tm.PredictiveCells()) != 0 {
		t.Fatalf("nothing should be predicted yet")
	}
}

func TestLearnsTransition(t *testing.T) {
	tm := mustNew(t, sequenceParams())
	mustCompute(t, tm, seqA, true)
	mustCompute(t, tm, seqB, true)

	if got := tm.Connections().NumSegments(); got != 4 {
		t.Fatalf("expected a segment per B cell, got %d", got)
	}
	if got := tm.Connections().NumSynapses(); got != 16 {
		t.Fatalf("expected 16 synapses, got %d", got)
	}

	tm.Reset()
	mustCompute(t, tm, seqA, false)

	if got := tm.PredictedColumns(); !reflect.DeepEqual(got, seqB) {
		t.Fatalf("predicted columns %v want %v", got, seqB)
	}
	if got := len(tm.ActiveSegments()); got != 4 {
		t.Fatalf("expected 4 active segments, got %d", got)
	}
}

func TestPredictedColumnReinforcesSegments(t *testing.T) {
	tm := mustNew(t, sequenceParams())
	mustCompute(t, tm, seqA, true)
	mustCompute(t, tm, seqB, true)
	tm.Reset()
	mustCompute(t, tm, seqA, true)
	mustCompute(t, tm, seqB, true)

	if got := tm.WinnerCells(); !reflect.DeepEqual(got, seqB) {
		t.Fatalf("winner cells %v want %v", got, seqB)
	}
	for _, seg := range tm.Connections().SegmentsForCell(4) {
		for _, syn := range tm.Connections().SynapsesForSegment(seg.ID) {
			if math.Abs(syn.Permanence-0.6) > 1e-9 {
				t.Fatalf("expected reinforced permanence 0.6, got %f", syn.Permanence)
			}
		}
	}
	if got := tm.Connections().NumSegments(); got != 4 {
		t.Fatalf("predicted columns must not grow new segments, got %d", got)
	}
}

func TestInferenceDoesNotLearn(t *testing.T) {
	tm := mustNew(t, sequenceParams())
	mustCompute(t, tm, seqA, false)
	mustCompute(t, tm, seqB, false)
	if got := tm.Connections().NumSegments(); got != 0 {
		t.Fatalf("expected no segments without learning, got %d", got)
	}
}

func TestPredictedSegmentDecrementPunishesWrongPrediction(t *testing.T) {
	p := sequenceParams()
	p.PredictedSegmentDecrement = 0.1
	tm := mustNew(t, p)
	mustCompute(t, tm, seqA, true)
	mustCompute(t, tm, seqB, true)
	tm.Reset()
	mustCompute(t, tm, seqA, true)
	mustCompute(t, tm, seqC, true)

	segs := tm.Connections().SegmentsForCell(4)
	if len(segs) != 1 {
		t.Fatalf("expected one segment on cell 4, got %d", len(segs))
	}
	for _, syn := range tm.Connections().SynapsesForSegment(segs[0].ID) {
		if math.Abs(syn.Permanence-0.4) > 1e-9 {
			t.Fatalf("expected punished permanence 0.4, got %f", syn.Permanence)
		}
	}
}

func TestSnapshotRestorePreservesPredictions(t *testing.T) {
	p := sequenceParams()
	tm := mustNew(t, p)
	mustCompute(t, tm, seqA, true)
	mustCompute(t, tm, seqB, true)

	restored := mustNew(t, p)
	if err := restored.Restore(tm.Snapshot()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := restored.Connections().NumSynapses(); got != 16 {
		t.Fatalf("expected 16 synapses after restore, got %d", got)
	}
	mustCompute(t, restored, seqA, false)
	if got := restored.PredictedColumns(); !reflect.DeepEqual(got, seqB) {
		t.Fatalf("predicted columns %v want %v", got, seqB)
	}
}

func TestRestoreRejectsMismatchedShape(t *testing.T) {
	tm := mustNew(t, sequenceParams())
	other := sequenceParams()
	other.ColumnDimensions = []int{8}
	small := mustNew(t, other)
	if err := tm.Restore(small.Snapshot()); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters, got %v", err)
	}
}

func TestRestoreRejectsSameCellCountDifferentLayout(t *testing.T) {
	p := sequenceParams()
	p.CellsPerColumn = 2
	tm := mustNew(t, p)

	other := sequenceParams()
	other.ColumnDimensions = []int{8}
	other.CellsPerColumn = 4
	regrouped := mustNew(t, other)
	if err := tm.Restore(regrouped.Snapshot()); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("expected ErrInvalidParameters for 8x4 state in 16x2 memory, got %v", err)
	}
}
