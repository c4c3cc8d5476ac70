package temporal

import "sort"

// Epsilon absorbs float rounding in permanence comparisons.
const Epsilon = 0.00001

// Segment identifies a distal dendrite segment and the cell it belongs to.
// IDs are reused after a segment is destroyed.
type Segment struct {
	ID   int
	Cell int
}

// Synapse is a read-only view of one synapse on a segment.
type Synapse struct {
	ID          int
	Segment     int
	Presynaptic int
	Permanence  float64
}

type segmentData struct {
	cell     int
	synapses []int
	lastUsed uint64
	ordinal  uint64
	alive    bool
}

type synapseData struct {
	segment     int
	presynaptic int
	permanence  float64
	alive       bool
}

// Connections stores the cell -> segment -> synapse graph and an index from
// presynaptic cells to the synapses they feed.
type Connections struct {
	maxSegmentsPerCell    int
	maxSynapsesPerSegment int

	cellSegments [][]int
	bySource     [][]int
	segments     []segmentData
	synapses     []synapseData
	freeSegments []int
	freeSynapses []int

	numSegments int
	numSynapses int
	iteration   uint64
	nextOrdinal uint64
}

// NewConnections allocates an empty graph over numCells cells.
func NewConnections(numCells, maxSegmentsPerCell, maxSynapsesPerSegment int) *Connections {
	if maxSegmentsPerCell <= 0 {
		maxSegmentsPerCell = 255
	}
	if maxSynapsesPerSegment <= 0 {
		maxSynapsesPerSegment = 255
	}
	return &Connections{
		maxSegmentsPerCell:    maxSegmentsPerCell,
		maxSynapsesPerSegment: maxSynapsesPerSegment,
		cellSegments:          make([][]int, numCells),
		bySource:              make([][]int, numCells),
	}
}

// NumSegments returns the number of live segments.
func (c *Connections) NumSegments() int { return c.numSegments }

// NumSynapses returns the number of live synapses.
func (c *Connections) NumSynapses() int { return c.numSynapses }

// Iteration returns the current learning iteration.
func (c *Connections) Iteration() uint64 { return c.iteration }

// StartNewIteration advances the clock used for least-recently-used segment
// eviction.
func (c *Connections) StartNewIteration() { c.iteration++ }

// RecordSegmentActivity marks seg as used in the current iteration.
func (c *Connections) RecordSegmentActivity(seg int) {
	if c.valid(seg) {
		c.segments[seg].lastUsed = c.iteration
	}
}

// CreateSegment adds a segment to cell, evicting the least recently used
// segment on that cell when it is full.
func (c *Connections) CreateSegment(cell int) int {
	for len(c.cellSegments[cell]) >= c.maxSegmentsPerCell {
		c.DestroySegment(c.leastRecentlyUsed(cell))
	}

	var id int
	if n := len(c.freeSegments); n > 0 {
		id = c.freeSegments[n-1]
		c.freeSegments = c.freeSegments[:n-1]
	} else {
		id = len(c.segments)
		c.segments = append(c.segments, segmentData{})
	}
	c.segments[id] = segmentData{
		cell:     cell,
		lastUsed: c.iteration,
		ordinal:  c.nextOrdinal,
		alive:    true,
	}
	c.nextOrdinal++
	c.cellSegments[cell] = append(c.cellSegments[cell], id)
	c.numSegments++
	return id
}

func (c *Connections) leastRecentlyUsed(cell int) int {
	segs := c.cellSegments[cell]
	best := segs[0]
	for _, s := range segs[1:] {
		bs, cs := c.segments[best], c.segments[s]
		if cs.lastUsed < bs.lastUsed || (cs.lastUsed == bs.lastUsed && cs.ordinal < bs.ordinal) {
			best = s
		}
	}
	return best
}

// DestroySegment removes seg and all of its synapses.
func (c *Connections) DestroySegment(seg int) {
	if !c.valid(seg) {
		return
	}
	for _, syn := range append([]int(nil), c.segments[seg].synapses...) {
		c.removeSynapse(syn)
	}
	cell := c.segments[seg].cell
	c.cellSegments[cell] = removeInt(c.cellSegments[cell], seg)
	c.segments[seg] = segmentData{}
	c.freeSegments = append(c.freeSegments, seg)
	c.numSegments--
}

// CreateSynapse connects presynaptic to seg. When the segment is full the
// weakest synapse is evicted first.
func (c *Connections) CreateSynapse(seg, presynaptic int, permanence float64) int {
	for len(c.segments[seg].synapses) >= c.maxSynapsesPerSegment {
		c.removeSynapse(c.weakestSynapse(seg))
	}

	var id int
	if n := len(c.freeSynapses); n > 0 {
		id = c.freeSynapses[n-1]
		c.freeSynapses = c.freeSynapses[:n-1]
	} else {
		id = len(c.synapses)
		c.synapses = append(c.synapses, synapseData{})
	}
	c.synapses[id] = synapseData{
		segment:     seg,
		presynaptic: presynaptic,
		permanence:  permanence,
		alive:       true,
	}
	c.segments[seg].synapses = append(c.segments[seg].synapses, id)
	c.bySource[presynaptic] = append(c.bySource[presynaptic], id)
	c.numSynapses++
	return id
}

func (c *Connections) weakestSynapse(seg int) int {
	syns := c.segments[seg].synapses
	best := syns[0]
	for _, s := range syns[1:] {
		if c.synapses[s].permanence < c.synapses[best].permanence {
			best = s
		}
	}
	return best
}

// DestroySynapse removes syn. A segment that loses its last synapse is kept;
// callers decide whether empty segments survive.
func (c *Connections) DestroySynapse(syn int) {
	if syn < 0 || syn >= len(c.synapses) || !c.synapses[syn].alive {
		return
	}
	c.removeSynapse(syn)
}

func (c *Connections) removeSynapse(syn int) {
	data := c.synapses[syn]
	c.segments[data.segment].synapses = removeInt(c.segments[data.segment].synapses, syn)
	c.bySource[data.presynaptic] = removeInt(c.bySource[data.presynaptic], syn)
	c.synapses[syn] = synapseData{}
	c.freeSynapses = append(c.freeSynapses, syn)
	c.numSynapses--
}

// UpdatePermanence sets the permanence of syn.
func (c *Connections) UpdatePermanence(syn int, permanence float64) {
	if syn >= 0 && syn < len(c.synapses) && c.synapses[syn].alive {
		c.synapses[syn].permanence = permanence
	}
}

// CellForSegment returns the cell owning seg, or -1.
func (c *Connections) CellForSegment(seg int) int {
	if !c.valid(seg) {
		return -1
	}
	return c.segments[seg].cell
}

// SegmentsForCell returns the live segments on cell in creation order.
func (c *Connections) SegmentsForCell(cell int) []Segment {
	ids := append([]int(nil), c.cellSegments[cell]...)
	sort.Slice(ids, func(i, j int) bool { return c.segments[ids[i]].ordinal < c.segments[ids[j]].ordinal })
	out := make([]Segment, len(ids))
	for i, id := range ids {
		out[i] = Segment{ID: id, Cell: cell}
	}
	return out
}

// NumSegmentsForCell returns how many segments cell carries.
func (c *Connections) NumSegmentsForCell(cell int) int {
	return len(c.cellSegments[cell])
}

// SynapsesForSegment returns the synapses on seg in creation order.
func (c *Connections) SynapsesForSegment(seg int) []Synapse {
	if !c.valid(seg) {
		return nil
	}
	ids := c.segments[seg].synapses
	out := make([]Synapse, len(ids))
	for i, id := range ids {
		d := c.synapses[id]
		out[i] = Synapse{ID: id, Segment: seg, Presynaptic: d.presynaptic, Permanence: d.permanence}
	}
	return out
}

// NumSynapsesForSegment returns how many synapses seg carries.
func (c *Connections) NumSynapsesForSegment(seg int) int {
	if !c.valid(seg) {
		return 0
	}
	return len(c.segments[seg].synapses)
}

// ComputeActivity counts, per segment id, the synapses fed by activeCells.
// connected counts only those at or above connectedPermanence; potential
// counts every synapse.
func (c *Connections) ComputeActivity(activeCells []int, connectedPermanence float64) (connected, potential []int) {
	connected = make([]int, len(c.segments))
	potential = make([]int, len(c.segments))
	threshold := connectedPermanence - Epsilon
	for _, cell := range activeCells {
		for _, syn := range c.bySource[cell] {
			d := c.synapses[syn]
			potential[d.segment]++
			if d.permanence >= threshold {
				connected[d.segment]++
			}
		}
	}
	return connected, potential
}

// LiveSegments returns every live segment ordered by cell, then creation.
func (c *Connections) LiveSegments() []Segment {
	out := make([]Segment, 0, c.numSegments)
	for id, s := range c.segments {
		if s.alive {
			out = append(out, Segment{ID: id, Cell: s.cell})
		}
	}
	c.sortSegments(out)
	return out
}

func (c *Connections) sortSegments(segs []Segment) {
	sort.Slice(segs, func(i, j int) bool {
		if segs[i].Cell != segs[j].Cell {
			return segs[i].Cell < segs[j].Cell
		}
		return c.segments[segs[i].ID].ordinal < c.segments[segs[j].ID].ordinal
	})
}

func (c *Connections) valid(seg int) bool {
	return seg >= 0 && seg < len(c.segments) && c.segments[seg].alive
}

func removeInt(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
