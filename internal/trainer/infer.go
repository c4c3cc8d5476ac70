package trainer

import (
	"context"
	"fmt"

	"hello-tm/internal/corpus"
	"hello-tm/internal/temporal"
)

// InferStep is the memory state after presenting one symbol without learning.
type InferStep struct {
	Index  int
	Symbol string
	Input  []int
	View   View
}

// Infer presents each symbol once with learning disabled and reports the
// resulting state. The columns predicted after a symbol are the memory's
// guess at the next one.
func Infer(ctx context.Context, tm *temporal.TemporalMemory, c *corpus.Corpus, reporter Reporter) ([]InferStep, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if err := c.CheckWidth(tm.NumberOfColumns()); err != nil {
		return nil, err
	}
	steps := make([]InferStep, 0, c.Len())
	for i, sym := range c.Symbols {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		cols := c.ActiveColumns(i)
		if err := tm.Compute(cols, false); err != nil {
			return steps, fmt.Errorf("infer symbol %q: %w", sym.Name, err)
		}
		step := InferStep{Index: i, Symbol: sym.Name, Input: cols, View: Observe(tm)}
		steps = append(steps, step)
		reporter.Inferred(step)
	}
	return steps, nil
}
