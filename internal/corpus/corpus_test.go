package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"hello-tm/internal/sdr"
)

func TestHelloCorpusShape(t *testing.T) {
	c := Hello()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if c.Len() != 9 || c.Width != 50 {
		t.Fatalf("unexpected shape %dx%d", c.Len(), c.Width)
	}
	rows := c.Matrix()
	for i, row := range rows {
		if len(row) != 50 {
			t.Fatalf("row %d width %d", i, len(row))
		}
		if n := len(sdr.Indices(row)); n != 10 {
			t.Fatalf("row %d has %d active bits", i, n)
		}
	}
	if got := sdr.Indices(rows[1]); got[0] != 5 || got[9] != 14 {
		t.Fatalf("row 1 should cover columns 5-14, got %v", got)
	}
	want := []string{"A", "a", "B", "E", "c", "C", "D", "d", "b"}
	if got := c.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("names %v want %v", got, want)
	}
}

func TestParseExpandsRanges(t *testing.T) {
	raw := []byte(`
width: 8
symbols:
  - name: X
    range: [0, 3]
  - name: Y
    columns: [7, 5, 5]
`)
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := c.ActiveColumns(0); !reflect.DeepEqual(got, []int{0, 1, 2}) {
		t.Fatalf("X columns %v", got)
	}
	if got := c.ActiveColumns(1); !reflect.DeepEqual(got, []int{5, 7}) {
		t.Fatalf("Y columns %v", got)
	}
}

func TestParseRejectsBadCorpus(t *testing.T) {
	if _, err := Parse([]byte("width: 4\nsymbols: []\n")); !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if _, err := Parse([]byte("width: 4\nsymbols:\n  - name: X\n    columns: [4]\n")); err == nil {
		t.Fatalf("expected out of range column error")
	}
	if _, err := Parse([]byte("width: 4\nsymbols:\n  - name: X\n    range: [3, 1]\n")); err == nil {
		t.Fatalf("expected bad range error")
	}
}

func TestCheckWidth(t *testing.T) {
	if err := Hello().CheckWidth(40); !errors.Is(err, ErrWidthMismatch) {
		t.Fatalf("expected ErrWidthMismatch, got %v", err)
	}
	if err := Hello().CheckWidth(50); err != nil {
		t.Fatalf("CheckWidth: %v", err)
	}
}

func TestDiscoverAndLoadAll(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "b.corpus.yaml"), "width: 4\nsymbols:\n  - name: X\n    range: [0, 2]\n")
	mustWrite(t, filepath.Join(dir, "nested", "a.corpus.yml"), "width: 4\nsymbols:\n  - name: Y\n    columns: [3]\n")
	mustWrite(t, filepath.Join(dir, "notes.yaml"), "ignored: true\n")

	paths, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "b.corpus.yaml"),
		filepath.Join(dir, "nested", "a.corpus.yml"),
	}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("paths %v want %v", paths, want)
	}

	all, err := LoadAll(dir)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(all) != 2 || all[want[1]].Symbols[0].Name != "Y" {
		t.Fatalf("unexpected corpora %v", all)
	}
}

func TestStreamPassesInOrder(t *testing.T) {
	c := Hello()
	var got []Step
	for step := range Stream(context.Background(), c, 2) {
		got = append(got, step)
	}
	if len(got) != 2*c.Len() {
		t.Fatalf("expected %d steps, got %d", 2*c.Len(), len(got))
	}
	if got[0].Pass != 1 || got[c.Len()].Pass != 2 || got[c.Len()].Index != 0 {
		t.Fatalf("unexpected pass numbering: %+v / %+v", got[0], got[c.Len()])
	}
	if !got[c.Len()-1].Last(c) {
		t.Fatalf("expected step %d to close the pass", c.Len()-1)
	}
}

func TestStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	steps := Stream(ctx, Hello(), 0)
	<-steps
	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-steps:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("stream did not close after cancel")
		}
	}
}

func mustWrite(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
