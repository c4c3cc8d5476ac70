// Package temporal implements the HTM Temporal Memory sequence learner.
//
// Each column holds CellsPerColumn cells. Cells grow distal segments whose
// synapses sample the winner cells of the previous step. A segment with
// enough connected synapses onto the currently active cells is active and
// puts its cell into the predictive state. A segment with enough potential
// synapses of any permanence is matching and is the learning candidate
// when its column bursts.
package temporal

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

// ErrColumnOutOfRange is returned by Compute for a column index outside the
// configured column space.
var ErrColumnOutOfRange = errors.New("temporal: column out of range")

// TemporalMemory learns sequences of sparse column activations.
type TemporalMemory struct {
	params   Params
	columns  int
	numCells int
	conns    *Connections
	rng      *rand.Rand

	activeCells      []int
	winnerCells      []int
	activeSegments   []Segment
	matchingSegments []Segment

	// Potential synapse counts from the last dendrite pass, keyed by
	// segment id.
	numActivePotential map[int]int
}

// New builds a TemporalMemory from p.
func New(p Params) (*TemporalMemory, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ColumnDimensions = append([]int(nil), p.ColumnDimensions...)
	columns := p.NumberOfColumns()
	numCells := columns * p.CellsPerColumn
	return &TemporalMemory{
		params:             p,
		columns:            columns,
		numCells:           numCells,
		conns:              NewConnections(numCells, p.MaxSegmentsPerCell, p.MaxSynapsesPerSegment),
		rng:                rand.New(rand.NewSource(p.Seed)),
		numActivePotential: make(map[int]int),
	}, nil
}

// Params returns a copy of the construction parameters.
func (tm *TemporalMemory) Params() Params {
	p := tm.params
	p.ColumnDimensions = append([]int(nil), p.ColumnDimensions...)
	return p
}

// Connections exposes the learned graph.
func (tm *TemporalMemory) Connections() *Connections { return tm.conns }

// NumberOfColumns returns the size of the column space.
func (tm *TemporalMemory) NumberOfColumns() int { return tm.columns }

// NumberOfCells returns columns * cells per column.
func (tm *TemporalMemory) NumberOfCells() int { return tm.numCells }

// CellsPerColumn returns the number of cells in each column.
func (tm *TemporalMemory) CellsPerColumn() int { return tm.params.CellsPerColumn }

// ColumnForCell returns the column index containing cell.
func (tm *TemporalMemory) ColumnForCell(cell int) int { return cell / tm.params.CellsPerColumn }

// CellsForColumn returns the cell indices of column.
func (tm *TemporalMemory) CellsForColumn(column int) []int {
	cpc := tm.params.CellsPerColumn
	cells := make([]int, cpc)
	for i := range cells {
		cells[i] = column*cpc + i
	}
	return cells
}

// ActiveCells returns the cells active after the last Compute, sorted.
func (tm *TemporalMemory) ActiveCells() []int { return append([]int(nil), tm.activeCells...) }

// WinnerCells returns the cells chosen to represent the last input, sorted.
func (tm *TemporalMemory) WinnerCells() []int { return append([]int(nil), tm.winnerCells...) }

// ActiveSegments returns the segments active after the last Compute.
func (tm *TemporalMemory) ActiveSegments() []Segment {
	return append([]Segment(nil), tm.activeSegments...)
}

// MatchingSegments returns the segments matching after the last Compute.
func (tm *TemporalMemory) MatchingSegments() []Segment {
	return append([]Segment(nil), tm.matchingSegments...)
}

// PredictiveCells returns the cells with at least one active segment, sorted.
func (tm *TemporalMemory) PredictiveCells() []int {
	cells := make([]int, 0, len(tm.activeSegments))
	for _, s := range tm.activeSegments {
		if n := len(cells); n == 0 || cells[n-1] != s.Cell {
			cells = append(cells, s.Cell)
		}
	}
	return cells
}

// PredictedColumns returns the columns holding a predictive cell, sorted.
func (tm *TemporalMemory) PredictedColumns() []int {
	return tm.columnsOf(tm.PredictiveCells())
}

// ActiveColumns returns the columns holding an active cell, sorted.
func (tm *TemporalMemory) ActiveColumns() []int {
	return tm.columnsOf(tm.activeCells)
}

func (tm *TemporalMemory) columnsOf(cells []int) []int {
	cols := make([]int, 0, len(cells))
	for _, cell := range cells {
		c := tm.ColumnForCell(cell)
		if n := len(cols); n == 0 || cols[n-1] != c {
			cols = append(cols, c)
		}
	}
	return cols
}

// Reset clears the activity state so the next input starts a new sequence.
// Learned connections are kept.
func (tm *TemporalMemory) Reset() {
	tm.activeCells = nil
	tm.winnerCells = nil
	tm.activeSegments = nil
	tm.matchingSegments = nil
	tm.numActivePotential = make(map[int]int)
}

// Compute runs one time step on activeColumns. With learn set, segments and
// synapses are adapted and grown.
func (tm *TemporalMemory) Compute(activeColumns []int, learn bool) error {
	cols := append([]int(nil), activeColumns...)
	sort.Ints(cols)
	n := 0
	for i, c := range cols {
		if c < 0 || c >= tm.columns {
			return fmt.Errorf("%w: %d not in [0, %d)", ErrColumnOutOfRange, c, tm.columns)
		}
		if i > 0 && c == cols[n-1] {
			continue
		}
		cols[n] = c
		n++
	}
	cols = cols[:n]

	tm.activateCells(cols, learn)
	tm.activateDendrites(learn)
	return nil
}

func (tm *TemporalMemory) activateCells(activeColumns []int, learn bool) {
	prevActive := make([]bool, tm.numCells)
	for _, cell := range tm.activeCells {
		prevActive[cell] = true
	}
	prevWinners := tm.winnerCells

	activeByColumn := tm.groupByColumn(tm.activeSegments)
	matchingByColumn := tm.groupByColumn(tm.matchingSegments)

	newActive := make([]int, 0, len(activeColumns)*tm.params.CellsPerColumn)
	newWinners := make([]int, 0, len(activeColumns))
	isActiveColumn := make(map[int]bool, len(activeColumns))

	for _, column := range activeColumns {
		isActiveColumn[column] = true
		if segs := activeByColumn[column]; len(segs) > 0 {
			cells := tm.activatePredictedColumn(segs, prevActive, prevWinners, learn)
			newActive = append(newActive, cells...)
			newWinners = append(newWinners, cells...)
			continue
		}
		cells, winner := tm.burstColumn(column, matchingByColumn[column], prevActive, prevWinners, learn)
		newActive = append(newActive, cells...)
		newWinners = append(newWinners, winner)
	}

	if learn && tm.params.PredictedSegmentDecrement > 0 {
		punished := make([]int, 0, len(matchingByColumn))
		for column := range matchingByColumn {
			if !isActiveColumn[column] {
				punished = append(punished, column)
			}
		}
		sort.Ints(punished)
		for _, column := range punished {
			for _, seg := range matchingByColumn[column] {
				tm.adaptSegment(seg.ID, prevActive, -tm.params.PredictedSegmentDecrement, 0)
			}
		}
	}

	sort.Ints(newActive)
	sort.Ints(newWinners)
	tm.activeCells = newActive
	tm.winnerCells = newWinners
}

func (tm *TemporalMemory) groupByColumn(segs []Segment) map[int][]Segment {
	out := make(map[int][]Segment)
	for _, s := range segs {
		c := tm.ColumnForCell(s.Cell)
		out[c] = append(out[c], s)
	}
	return out
}

// activatePredictedColumn turns on every cell of the column that had an
// active segment and returns those cells.
func (tm *TemporalMemory) activatePredictedColumn(segs []Segment, prevActive []bool, prevWinners []int, learn bool) []int {
	cells := make([]int, 0, len(segs))
	for _, s := range segs {
		if n := len(cells); n == 0 || cells[n-1] != s.Cell {
			cells = append(cells, s.Cell)
		}
		if !learn {
			continue
		}
		if !tm.adaptSegment(s.ID, prevActive, tm.params.PermanenceIncrement, tm.params.PermanenceDecrement) {
			continue
		}
		if grow := tm.params.MaxNewSynapseCount - tm.numActivePotential[s.ID]; grow > 0 {
			tm.growSynapses(s.ID, grow, prevWinners)
		}
	}
	return cells
}

// burstColumn activates every cell in column and picks a winner: the cell of
// the best matching segment, or the least used cell.
func (tm *TemporalMemory) burstColumn(column int, matching []Segment, prevActive []bool, prevWinners []int, learn bool) ([]int, int) {
	cells := tm.CellsForColumn(column)

	if len(matching) > 0 {
		best := matching[0]
		for _, s := range matching[1:] {
			if tm.numActivePotential[s.ID] > tm.numActivePotential[best.ID] {
				best = s
			}
		}
		if learn && tm.adaptSegment(best.ID, prevActive, tm.params.PermanenceIncrement, tm.params.PermanenceDecrement) {
			if grow := tm.params.MaxNewSynapseCount - tm.numActivePotential[best.ID]; grow > 0 {
				tm.growSynapses(best.ID, grow, prevWinners)
			}
		}
		return cells, best.Cell
	}

	winner := tm.leastUsedCell(cells)
	if learn && len(prevWinners) > 0 {
		grow := tm.params.MaxNewSynapseCount
		if len(prevWinners) < grow {
			grow = len(prevWinners)
		}
		if grow > 0 {
			seg := tm.conns.CreateSegment(winner)
			tm.growSynapses(seg, grow, prevWinners)
		}
	}
	return cells, winner
}

func (tm *TemporalMemory) leastUsedCell(cells []int) int {
	fewest := -1
	candidates := make([]int, 0, len(cells))
	for _, cell := range cells {
		n := tm.conns.NumSegmentsForCell(cell)
		switch {
		case fewest < 0 || n < fewest:
			fewest = n
			candidates = append(candidates[:0], cell)
		case n == fewest:
			candidates = append(candidates, cell)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[tm.rng.Intn(len(candidates))]
}

// adaptSegment moves the permanence of synapses from previously active cells
// by inc and of the rest by -dec. Synapses that fall to zero are removed and
// an emptied segment is destroyed; the return value reports whether seg
// survived.
func (tm *TemporalMemory) adaptSegment(seg int, prevActive []bool, inc, dec float64) bool {
	for _, syn := range tm.conns.SynapsesForSegment(seg) {
		perm := syn.Permanence
		if prevActive[syn.Presynaptic] {
			perm += inc
		} else {
			perm -= dec
		}
		perm = clamp(perm)
		if perm < Epsilon {
			tm.conns.DestroySynapse(syn.ID)
			continue
		}
		tm.conns.UpdatePermanence(syn.ID, perm)
	}
	if tm.conns.NumSynapsesForSegment(seg) == 0 {
		tm.conns.DestroySegment(seg)
		return false
	}
	return true
}

// growSynapses connects seg to up to n randomly chosen cells of candidates
// that it does not already sample.
func (tm *TemporalMemory) growSynapses(seg, n int, candidates []int) {
	existing := make(map[int]bool)
	for _, syn := range tm.conns.SynapsesForSegment(seg) {
		existing[syn.Presynaptic] = true
	}
	pool := make([]int, 0, len(candidates))
	for _, cell := range candidates {
		if !existing[cell] {
			pool = append(pool, cell)
		}
	}
	if n > len(pool) {
		n = len(pool)
	}
	for i := 0; i < n; i++ {
		j := tm.rng.Intn(len(pool))
		tm.conns.CreateSynapse(seg, pool[j], tm.params.InitialPermanence)
		pool = append(pool[:j], pool[j+1:]...)
	}
}

func (tm *TemporalMemory) activateDendrites(learn bool) {
	connected, potential := tm.conns.ComputeActivity(tm.activeCells, tm.params.ConnectedPermanence)

	active := make([]Segment, 0)
	matching := make([]Segment, 0)
	counts := make(map[int]int)
	for id := range connected {
		cell := tm.conns.CellForSegment(id)
		if cell < 0 {
			continue
		}
		if connected[id] >= tm.params.ActivationThreshold {
			active = append(active, Segment{ID: id, Cell: cell})
		}
		if potential[id] >= tm.params.MinThreshold {
			matching = append(matching, Segment{ID: id, Cell: cell})
		}
		if potential[id] > 0 {
			counts[id] = potential[id]
		}
	}
	tm.conns.sortSegments(active)
	tm.conns.sortSegments(matching)

	if learn {
		for _, s := range active {
			tm.conns.RecordSegmentActivity(s.ID)
		}
		tm.conns.StartNewIteration()
	}

	tm.activeSegments = active
	tm.matchingSegments = matching
	tm.numActivePotential = counts
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
