package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hello-tm/internal/config"
	"hello-tm/internal/corpus"
	"hello-tm/internal/report"
	"hello-tm/internal/store"
	"hello-tm/internal/temporal"
	"hello-tm/internal/trainer"
)

var (
	cfgPath        string
	cellsPerColumn int
	seed           int64
	boredAfter     int
	maxPasses      int
	logEvery       int
	corpusPath     string
	dbPath         string
	resumeRun      string
	verbose        bool
	noColor        bool
)

var rootCmd = &cobra.Command{
	Use:   "hello-tm",
	Short: "Train a Temporal Memory on a toy sequence",
	Long: `hello-tm builds a Temporal Memory, trains it on a hand-made sequence of
sparse input vectors until it predicts the whole sequence without mistakes,
then replays the sequence with learning turned off and prints what the
memory predicts at every step.

Try --cells-per-column 4 and compare the output with the default of 2.`,
	SilenceUsage: true,
	RunE:         runDemo,
}

func init() {
	f := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config")
	f.IntVar(&cellsPerColumn, "cells-per-column", 0, "Cells per column")
	f.Int64Var(&seed, "seed", 0, "Random seed for the memory")
	f.IntVar(&boredAfter, "bored-after", 0, "Stop after more than this many consecutive perfect passes")
	f.IntVar(&maxPasses, "max-passes", 0, "Give up training after this many passes")
	f.IntVar(&logEvery, "log-every", 0, "Log a summary every N passes")
	f.StringVar(&corpusPath, "corpus", "", "Corpus YAML file (default: built-in A->B->C->D->E sequence)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite run history database")
	f.StringVar(&resumeRun, "resume", "", "Restore the model saved by this run id before training")
	f.BoolVarP(&verbose, "verbose", "v", true, "Print cell state at every training step")
	f.BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	o := config.Overrides{
		CellsPerColumn: cellsPerColumn,
		Seed:           seed,
		BoredAfter:     boredAfter,
		MaxPasses:      maxPasses,
		LogEvery:       logEvery,
		Corpus:         corpusPath,
		DB:             dbPath,
	}
	if fl := cmd.Flags().Lookup("verbose"); fl != nil && fl.Changed {
		o.Verbose = &verbose
	}
	if fl := cmd.Flags().Lookup("no-color"); fl != nil && fl.Changed {
		useColor := !noColor
		o.Color = &useColor
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadCorpus(path string) (*corpus.Corpus, string, error) {
	if path == "" {
		return corpus.Hello(), "hello", nil
	}
	c, err := corpus.Load(path)
	if err != nil {
		return nil, "", err
	}
	return c, path, nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	seq, seqName, err := loadCorpus(cfg.Demo.Corpus)
	if err != nil {
		return err
	}

	tm, err := temporal.New(cfg.TM.Params())
	if err != nil {
		return err
	}
	if err := seq.CheckWidth(tm.NumberOfColumns()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *store.DB
	var runID string
	if cfg.Demo.DB != "" {
		db, err = openStore(cfg.Demo.DB)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	if resumeRun != "" {
		if db == nil {
			return errors.New("--resume needs --db")
		}
		st, err := db.LoadModel(ctx, resumeRun)
		if err != nil {
			return err
		}
		if err := tm.Restore(st); err != nil {
			return fmt.Errorf("restore run %s: %w", resumeRun, err)
		}
		log.Printf("resumed run=%s segments=%d synapses=%d", resumeRun, tm.Connections().NumSegments(), tm.Connections().NumSynapses())
	}

	printer := report.New(cmd.OutOrStdout(), report.Options{Verbose: cfg.Demo.Verbose, Color: cfg.Demo.Color})
	printer.PrintIntro()

	runCfg := trainer.RunConfig{
		Corpus:     seq,
		BoredAfter: cfg.Demo.BoredAfter,
		MaxPasses:  cfg.Demo.MaxPasses,
		LogEvery:   cfg.Demo.LogEvery,
		Reporter:   printer,
	}
	if db != nil {
		runID = uuid.New().String()[:8]
		if err := db.CreateRun(ctx, store.Run{
			ID:             runID,
			Corpus:         seqName,
			CellsPerColumn: tm.CellsPerColumn(),
			StartedAt:      time.Now(),
		}); err != nil {
			return err
		}
		runCfg.Recorder = store.NewRecorder(db, runID)
		log.Printf("run=%s db=%s", runID, db.Path())
	}

	res, err := trainer.Run(ctx, tm, runCfg)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if res.Err != nil {
		log.Printf("warning: %v", res.Err)
	}

	if db != nil {
		if err := db.FinishRun(ctx, runID, res.Passes, res.Bored); err != nil {
			return err
		}
		if err := db.SaveModel(ctx, runID, tm.Snapshot()); err != nil {
			return err
		}
		log.Printf("run=%s saved segments=%d synapses=%d", runID, res.Segments, res.Synapses)
	}
	return nil
}

func openStore(path string) (*store.DB, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
