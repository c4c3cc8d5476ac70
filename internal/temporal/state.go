package temporal

import (
	"fmt"
	"math/rand"
)

// State is a serializable copy of the learned connections. Activity is not
// part of it: a restored memory behaves as if Reset had just been called.
type State struct {
	Params    Params         `json:"params"`
	Iteration uint64         `json:"iteration"`
	Segments  []SegmentState `json:"segments"`
}

// SegmentState is one serialized segment.
type SegmentState struct {
	Cell     int            `json:"cell"`
	LastUsed uint64         `json:"last_used"`
	Synapses []SynapseState `json:"synapses"`
}

// SynapseState is one serialized synapse.
type SynapseState struct {
	Presynaptic int     `json:"presynaptic"`
	Permanence  float64 `json:"permanence"`
}

// Snapshot captures the learned connections of tm.
func (tm *TemporalMemory) Snapshot() State {
	st := State{
		Params:    tm.Params(),
		Iteration: tm.conns.Iteration(),
	}
	for _, seg := range tm.conns.LiveSegments() {
		ss := SegmentState{
			Cell:     seg.Cell,
			LastUsed: tm.conns.segments[seg.ID].lastUsed,
		}
		for _, syn := range tm.conns.SynapsesForSegment(seg.ID) {
			ss.Synapses = append(ss.Synapses, SynapseState{
				Presynaptic: syn.Presynaptic,
				Permanence:  syn.Permanence,
			})
		}
		st.Segments = append(st.Segments, ss)
	}
	return st
}

// Restore replaces the connections of tm with st. The column count and cells
// per column of st must match tm. The random source is reseeded from the
// seed and iteration stored in st.
func (tm *TemporalMemory) Restore(st State) error {
	if got, want := st.Params.NumberOfColumns(), tm.columns; got != want {
		return fmt.Errorf("%w: state has %d columns, memory has %d", ErrInvalidParameters, got, want)
	}
	if got, want := st.Params.CellsPerColumn, tm.params.CellsPerColumn; got != want {
		return fmt.Errorf("%w: state has %d cells per column, memory has %d", ErrInvalidParameters, got, want)
	}
	conns := NewConnections(tm.numCells, tm.params.MaxSegmentsPerCell, tm.params.MaxSynapsesPerSegment)
	for i, ss := range st.Segments {
		if ss.Cell < 0 || ss.Cell >= tm.numCells {
			return fmt.Errorf("%w: segment %d on cell %d", ErrInvalidParameters, i, ss.Cell)
		}
		seg := conns.CreateSegment(ss.Cell)
		conns.segments[seg].lastUsed = ss.LastUsed
		for _, syn := range ss.Synapses {
			if syn.Presynaptic < 0 || syn.Presynaptic >= tm.numCells {
				return fmt.Errorf("%w: segment %d synapse from cell %d", ErrInvalidParameters, i, syn.Presynaptic)
			}
			conns.CreateSynapse(seg, syn.Presynaptic, syn.Permanence)
		}
	}
	conns.iteration = st.Iteration
	tm.conns = conns
	tm.rng = rand.New(rand.NewSource(tm.params.Seed + int64(st.Iteration)))
	tm.Reset()
	return nil
}
