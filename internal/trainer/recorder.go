package trainer

import "context"

// Recorder persists pass outcomes as training progresses.
type Recorder interface {
	RecordPass(ctx context.Context, p PassOutcome) error
}
