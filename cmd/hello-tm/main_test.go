package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"hello-tm/internal/corpus"
	"hello-tm/internal/store"
)

// resetFlags puts every flag of every command back to its default so each
// Execute starts from a clean command tree.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if err := f.Value.Set(f.DefValue); err != nil {
				t.Fatalf("reset flag %s: %v", f.Name, err)
			}
			f.Changed = false
		})
	}
	cmds := append([]*cobra.Command{rootCmd}, rootCmd.Commands()...)
	for _, c := range cmds {
		reset(c.PersistentFlags())
		reset(c.Flags())
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(t)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(t)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, buf.String())
	}
	return buf.String()
}

func TestCorpusCommandPrintsBuiltIn(t *testing.T) {
	out := execute(t, "corpus")
	if !strings.Contains(out, "A    1111111111 0000000000") {
		t.Fatalf("missing row for A:\n%s", out)
	}
	if !strings.Contains(out, "9 symbols, width 50") {
		t.Fatalf("missing summary:\n%s", out)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	out := execute(t, "--max-passes", "2", "--verbose=false", "--no-color", "--db", db)
	for _, want := range []string{"---------- STEP 1 ----------", "---------- STEP 2 ----------", "Predicted columns:", "not expected..."} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	s, err := store.Open(db)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()
	runs, err := s.ListRuns(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Passes != 2 || runs[0].CellsPerColumn != 2 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	passes, err := s.PassesForRun(context.Background(), runs[0].ID)
	if err != nil || len(passes) != 2 {
		t.Fatalf("passes=%v err=%v", passes, err)
	}
	if _, err := s.LoadModel(context.Background(), runs[0].ID); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	history := execute(t, "history", "--db", db)
	if !strings.Contains(history, runs[0].ID) {
		t.Fatalf("history missing run %s:\n%s", runs[0].ID, history)
	}
}

func TestFlagsDoNotLeakBetweenRuns(t *testing.T) {
	quiet := execute(t, "--max-passes", "1", "--verbose=false", "--no-color", "--cells-per-column", "1")
	if strings.Contains(quiet, "Input:\t\t") {
		t.Fatalf("quiet run printed step detail:\n%s", quiet)
	}
	loud := execute(t, "--max-passes", "1", "--no-color")
	if !strings.Contains(loud, "Input:\t\t") {
		t.Fatalf("verbose default not restored:\n%s", loud)
	}
	if !verbose || noColor || cellsPerColumn != 0 || maxPasses != 1 {
		t.Fatalf("unexpected flag state verbose=%v noColor=%v cells=%d maxPasses=%d", verbose, noColor, cellsPerColumn, maxPasses)
	}
}

func TestShippedCorporaRun(t *testing.T) {
	paths, err := corpus.Discover(filepath.Join("..", "..", "corpora"))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("no shipped corpora found")
	}
	for _, path := range paths {
		out := execute(t, "--corpus", path, "--max-passes", "2", "--verbose=false", "--no-color")
		if !strings.Contains(out, "Predicted columns:") {
			t.Fatalf("%s: run did not reach inference:\n%s", path, out)
		}
	}
}
