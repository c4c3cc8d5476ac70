package corpus

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hello-tm/internal/sdr"
)

// ErrEmptyCorpus is returned when a corpus holds no symbols.
var ErrEmptyCorpus = errors.New("corpus: no symbols")

// ErrWidthMismatch is returned when a corpus does not fit a column space.
var ErrWidthMismatch = errors.New("corpus: width mismatch")

// Symbol is one input pattern: a name and the columns it switches on.
type Symbol struct {
	Name    string `yaml:"name"`
	Columns []int  `yaml:"columns,omitempty"`
	Range   []int  `yaml:"range,omitempty"`
}

// Corpus is an ordered sequence of symbols over Width columns.
type Corpus struct {
	Width   int      `yaml:"width"`
	Symbols []Symbol `yaml:"symbols"`
}

// Hello returns the toy sequence used by the tutorial: nine ten-column
// patterns over fifty columns, where the lower case letters straddle their
// upper case neighbours.
func Hello() *Corpus {
	spans := []struct {
		name   string
		lo, hi int
	}{
		{"A", 0, 10},
		{"a", 5, 15},
		{"B", 10, 20},
		{"E", 40, 50},
		{"c", 25, 35},
		{"C", 20, 30},
		{"D", 30, 40},
		{"d", 35, 45},
		{"b", 15, 25},
	}
	c := &Corpus{Width: 50}
	for _, s := range spans {
		c.Symbols = append(c.Symbols, Symbol{Name: s.name, Columns: span(s.lo, s.hi)})
	}
	return c
}

func span(lo, hi int) []int {
	cols := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		cols = append(cols, i)
	}
	return cols
}

// Load reads a YAML corpus file.
func Load(path string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML corpus, expanding range entries, and validates it.
func Parse(raw []byte) (*Corpus, error) {
	c := &Corpus{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	for i := range c.Symbols {
		s := &c.Symbols[i]
		if len(s.Range) == 0 {
			continue
		}
		if len(s.Range) != 2 || s.Range[0] > s.Range[1] {
			return nil, fmt.Errorf("symbol %q: range must be [lo, hi) (got %v)", s.Name, s.Range)
		}
		s.Columns = append(s.Columns, span(s.Range[0], s.Range[1])...)
		s.Range = nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate verifies every symbol fits inside the corpus width.
func (c *Corpus) Validate() error {
	if c == nil || len(c.Symbols) == 0 {
		return ErrEmptyCorpus
	}
	if c.Width <= 0 {
		return fmt.Errorf("corpus: width must be > 0 (got %d)", c.Width)
	}
	for i, s := range c.Symbols {
		if s.Name == "" {
			return fmt.Errorf("corpus: symbol %d has no name", i)
		}
		if len(s.Columns) == 0 {
			return fmt.Errorf("corpus: symbol %q has no columns", s.Name)
		}
		for _, col := range s.Columns {
			if col < 0 || col >= c.Width {
				return fmt.Errorf("corpus: symbol %q column %d outside [0, %d)", s.Name, col, c.Width)
			}
		}
	}
	return nil
}

// CheckWidth verifies the corpus rows are exactly columns wide.
func (c *Corpus) CheckWidth(columns int) error {
	if c.Width != columns {
		return fmt.Errorf("%w: corpus is %d columns, memory has %d", ErrWidthMismatch, c.Width, columns)
	}
	return nil
}

// Len returns the number of symbols in the sequence.
func (c *Corpus) Len() int { return len(c.Symbols) }

// ActiveColumns returns the sorted, de-duplicated columns of symbol i.
func (c *Corpus) ActiveColumns(i int) []int {
	return sdr.Unique(c.Symbols[i].Columns)
}

// Matrix returns one bit row per symbol.
func (c *Corpus) Matrix() [][]uint8 {
	rows := make([][]uint8, len(c.Symbols))
	for i, s := range c.Symbols {
		rows[i] = sdr.Bits(c.Width, s.Columns)
	}
	return rows
}

// Names returns the symbol names in sequence order.
func (c *Corpus) Names() []string {
	names := make([]string, len(c.Symbols))
	for i, s := range c.Symbols {
		names[i] = s.Name
	}
	return names
}

