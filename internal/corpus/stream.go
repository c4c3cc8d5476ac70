package corpus

import "context"

// Step is one presentation of a symbol during a pass over the corpus.
type Step struct {
	Pass    int
	Index   int
	Symbol  Symbol
	Columns []int
}

// Last reports whether the step closes its pass.
func (s Step) Last(c *Corpus) bool { return s.Index == c.Len()-1 }

// Stream feeds the corpus pass after pass until passes have been sent or ctx
// is cancelled. passes <= 0 streams forever. Passes are numbered from 1.
func Stream(ctx context.Context, c *Corpus, passes int) <-chan Step {
	out := make(chan Step)
	go func() {
		defer close(out)
		for pass := 1; passes <= 0 || pass <= passes; pass++ {
			for i, sym := range c.Symbols {
				step := Step{Pass: pass, Index: i, Symbol: sym, Columns: c.ActiveColumns(i)}
				select {
				case <-ctx.Done():
					return
				case out <- step:
				}
			}
		}
	}()
	return out
}
