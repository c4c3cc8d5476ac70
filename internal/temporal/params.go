package temporal

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is wrapped by every Params validation failure.
var ErrInvalidParameters = errors.New("temporal: invalid parameters")

// Params configures a TemporalMemory.
type Params struct {
	ColumnDimensions          []int
	CellsPerColumn            int
	ActivationThreshold       int
	InitialPermanence         float64
	ConnectedPermanence       float64
	MinThreshold              int
	MaxNewSynapseCount        int
	PermanenceIncrement       float64
	PermanenceDecrement       float64
	PredictedSegmentDecrement float64
	Seed                      int64
	MaxSegmentsPerCell        int
	MaxSynapsesPerSegment     int
}

// DefaultParams returns the stock NuPIC temporal memory parameters.
func DefaultParams() Params {
	return Params{
		ColumnDimensions:          []int{2048},
		CellsPerColumn:            32,
		ActivationThreshold:       13,
		InitialPermanence:         0.21,
		ConnectedPermanence:       0.50,
		MinThreshold:              10,
		MaxNewSynapseCount:        20,
		PermanenceIncrement:       0.10,
		PermanenceDecrement:       0.10,
		PredictedSegmentDecrement: 0.0,
		Seed:                      42,
		MaxSegmentsPerCell:        255,
		MaxSynapsesPerSegment:     255,
	}
}

// NumberOfColumns is the product of the column dimensions.
func (p Params) NumberOfColumns() int {
	if len(p.ColumnDimensions) == 0 {
		return 0
	}
	n := 1
	for _, d := range p.ColumnDimensions {
		n *= d
	}
	return n
}

// Validate verifies the parameters describe a buildable memory.
func (p Params) Validate() error {
	if len(p.ColumnDimensions) == 0 {
		return fmt.Errorf("%w: column dimensions must not be empty", ErrInvalidParameters)
	}
	for i, d := range p.ColumnDimensions {
		if d <= 0 {
			return fmt.Errorf("%w: column dimension %d must be > 0 (got %d)", ErrInvalidParameters, i, d)
		}
	}
	if p.CellsPerColumn <= 0 {
		return fmt.Errorf("%w: cells per column must be > 0 (got %d)", ErrInvalidParameters, p.CellsPerColumn)
	}
	if p.ActivationThreshold <= 0 {
		return fmt.Errorf("%w: activation threshold must be > 0 (got %d)", ErrInvalidParameters, p.ActivationThreshold)
	}
	if p.MinThreshold <= 0 {
		return fmt.Errorf("%w: min threshold must be > 0 (got %d)", ErrInvalidParameters, p.MinThreshold)
	}
	if p.MaxNewSynapseCount < 0 {
		return fmt.Errorf("%w: max new synapse count must be >= 0 (got %d)", ErrInvalidParameters, p.MaxNewSynapseCount)
	}
	for name, v := range map[string]float64{
		"initial permanence":          p.InitialPermanence,
		"connected permanence":        p.ConnectedPermanence,
		"permanence increment":        p.PermanenceIncrement,
		"permanence decrement":        p.PermanenceDecrement,
		"predicted segment decrement": p.PredictedSegmentDecrement,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0, 1] (got %g)", ErrInvalidParameters, name, v)
		}
	}
	if p.MaxSegmentsPerCell <= 0 {
		return fmt.Errorf("%w: max segments per cell must be > 0 (got %d)", ErrInvalidParameters, p.MaxSegmentsPerCell)
	}
	if p.MaxSynapsesPerSegment <= 0 {
		return fmt.Errorf("%w: max synapses per segment must be > 0 (got %d)", ErrInvalidParameters, p.MaxSynapsesPerSegment)
	}
	return nil
}
