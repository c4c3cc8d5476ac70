// Package report renders the tutorial console output: the per-step input
// and prediction rows, the BINGO verdicts and the cell state dumps.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"hello-tm/internal/sdr"
	"hello-tm/internal/trainer"
)

// Intro is printed before training starts.
const Intro = `
This program shows how to access the Temporal Memory directly by demonstrating
how to create a TM instance, train it with vectors, get predictions, and
inspect the state.

The code here runs a very simple version of sequence learning, with one
cell per column. The TM is trained with the simple sequence A->B->C->D->E

HOMEWORK: once you have understood exactly what is going on here, try changing
cellsPerColumn to 4. What is the difference between once cell per column and 4
cells per column?
`

// Options tunes the printer.
type Options struct {
	// Verbose adds the per-step cell dumps during training.
	Verbose bool
	Color   bool
}

// Printer writes run progress to an io.Writer. It implements
// trainer.Reporter.
type Printer struct {
	w      io.Writer
	opts   Options
	hit    *color.Color
	miss   *color.Color
	banner lipgloss.Style
}

var _ trainer.Reporter = (*Printer)(nil)

// New returns a Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	p := &Printer{
		w:      w,
		opts:   opts,
		hit:    color.New(color.FgGreen, color.Bold),
		miss:   color.New(color.FgYellow),
		banner: lipgloss.NewStyle(),
	}
	if opts.Color {
		p.banner = p.banner.Bold(true).Foreground(lipgloss.Color("39"))
	} else {
		p.hit.DisableColor()
		p.miss.DisableColor()
	}
	return p
}

// PrintIntro writes the tutorial preamble.
func (p *Printer) PrintIntro() {
	fmt.Fprint(p.w, Intro+"\n")
}

// PassStarted prints the pass banner.
func (p *Printer) PassStarted(pass int) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.banner.Render(fmt.Sprintf("---------- STEP %d ----------", pass)))
}

// Stepped prints the verdict for one learning step, preceded by the input
// and prediction rows and followed by the cell dumps when verbose.
func (p *Printer) Stepped(s trainer.StepReport) {
	width := s.View.Columns
	if p.opts.Verbose {
		p.symbolBanner(s.Symbol)
		fmt.Fprintf(p.w, "Input:\t\t%s\n", sdr.FormatRow(sdr.BitString(width, s.Input)))
		fmt.Fprintf(p.w, "Predicted:\t%s\n", sdr.FormatRow(sdr.BitString(width, s.Predicted)))
	}
	if s.Bingo {
		fmt.Fprintln(p.w, p.hit.Sprint("!!! BINGO :) !!!"))
	} else {
		fmt.Fprintln(p.w, p.miss.Sprint("not expected..."))
	}
	if !p.opts.Verbose {
		return
	}
	p.cellDump(s.View)
	fmt.Fprintf(p.w, "active cells (by segments) %s\n", FormatCells(s.View, s.View.ActiveSegmentCells))
	fmt.Fprintf(p.w, "matching cells (by segments) %s\n", FormatCells(s.View, s.View.MatchingSegmentCells))
}

// PassFinished is a no-op; pass results are logged by the trainer.
func (p *Printer) PassFinished(trainer.PassOutcome) {}

// Inferred prints the state after one inference step.
func (p *Printer) Inferred(s trainer.InferStep) {
	width := s.View.Columns
	p.symbolBanner(s.Symbol)
	fmt.Fprintf(p.w, "Raw input vector : %s\n", sdr.FormatRow(sdr.BitString(width, s.Input)))
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, "All the active and predicted cells:")
	p.cellDump(s.View)
	fmt.Fprintf(p.w, "Active columns:    %s\n", sdr.FormatRow(sdr.BitString(width, s.View.ActiveColumns)))
	fmt.Fprintf(p.w, "Predicted columns: %s\n", sdr.FormatRow(sdr.BitString(width, s.View.PredictedColumns)))
}

// Finished prints how long training took.
func (p *Printer) Finished(res trainer.Result) {
	fmt.Fprintln(p.w)
	if res.Bored {
		fmt.Fprintf(p.w, "It took me only %d steps to become bored of that exercise\n", res.Passes)
		return
	}
	fmt.Fprintf(p.w, "I gave up after %d steps without getting bored of that exercise\n", res.Passes)
}

func (p *Printer) symbolBanner(name string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.banner.Render(fmt.Sprintf("-------- %s -----------", name)))
}

func (p *Printer) cellDump(v trainer.View) {
	fmt.Fprintf(p.w, "active cells %s\n", FormatCells(v, v.ActiveCells))
	fmt.Fprintf(p.w, "predictive cells %s\n", FormatCells(v, v.PredictiveCells))
	fmt.Fprintf(p.w, "winner cells %s\n", FormatCells(v, v.WinnerCells))
	fmt.Fprintf(p.w, "# of segments %d (%d are active)\n", v.Segments, v.ActiveSegments)
}

// FormatCells lays cells out as one row per cell position within a column,
// so the cells of one column are stacked vertically.
func FormatCells(v trainer.View, cells []int) string {
	cpc := v.CellsPerColumn
	if cpc <= 0 {
		cpc = 1
	}
	bits := sdr.BitString(v.Columns*cpc, cells)
	var b strings.Builder
	b.WriteByte('\n')
	for r := 0; r < cpc; r++ {
		row := make([]byte, 0, v.Columns)
		for i := r; i < len(bits); i += cpc {
			row = append(row, bits[i])
		}
		b.WriteString(sdr.FormatRow(string(row)))
		b.WriteByte('\n')
	}
	return b.String()
}
