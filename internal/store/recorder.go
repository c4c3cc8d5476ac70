package store

import (
	"context"

	"hello-tm/internal/trainer"
)

// Recorder writes the passes of one run to the database.
type Recorder struct {
	db    *DB
	runID string
}

var _ trainer.Recorder = (*Recorder)(nil)

// NewRecorder returns a Recorder for runID.
func NewRecorder(db *DB, runID string) *Recorder {
	return &Recorder{db: db, runID: runID}
}

// RecordPass implements trainer.Recorder.
func (r *Recorder) RecordPass(ctx context.Context, p trainer.PassOutcome) error {
	return r.db.RecordPass(ctx, PassRecord{
		RunID:         r.runID,
		Pass:          p.Pass,
		Bingos:        p.Bingos,
		Perfect:       p.Perfect,
		WholeSequence: p.WholeSequence,
		Segments:      p.Segments,
		Synapses:      p.Synapses,
	})
}
