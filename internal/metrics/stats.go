package metrics

import "time"

// Window accumulates per-step stats across one or more passes.
type Window struct {
	steps    int
	bingos   int
	compute  time.Duration
	segments int
	synapses int
}

// Record adds one compute step to the window. segments and synapses are the
// connection counts after the step.
func (w *Window) Record(computeTime time.Duration, bingo bool, segments, synapses int) {
	w.steps++
	if bingo {
		w.bingos++
	}
	w.compute += computeTime
	w.segments = segments
	w.synapses = synapses
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{
		Steps:    w.steps,
		Bingos:   w.bingos,
		Segments: w.segments,
		Synapses: w.synapses,
	}
	if w.steps > 0 {
		snap.BingoRate = float64(w.bingos) / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}

	w.steps = 0
	w.bingos = 0
	w.compute = 0
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Steps        int
	Bingos       int
	BingoRate    float64
	AvgComputeMS float64
	Segments     int
	Synapses     int
}
