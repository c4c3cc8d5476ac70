package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"hello-tm/internal/corpus"
	"hello-tm/internal/metrics"
	"hello-tm/internal/sdr"
	"hello-tm/internal/temporal"
)

// ErrNotBored is reported in Result.Err when MaxPasses ran out before the
// memory predicted the corpus reliably.
var ErrNotBored = errors.New("trainer: sequence not learned within max passes")

const (
	defaultBoredAfter = 3
	defaultMaxPasses  = 100
	defaultLogEvery   = 1
)

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Corpus *corpus.Corpus
	// BoredAfter is how many consecutive perfect passes must be exceeded
	// before training stops.
	BoredAfter int
	MaxPasses  int
	LogEvery   int
	Reporter   Reporter
	Recorder   Recorder
}

// Result summarises a training and inference run.
type Result struct {
	Passes    int
	Bored     bool
	Err       error
	History   []PassOutcome
	Inference []InferStep
	Segments  int
	Synapses  int
}

// PassOutcome describes one training pass over the corpus.
type PassOutcome struct {
	Pass int
	// Bingos is the run of correctly predicted symbols at the end of the pass.
	Bingos int
	// Perfect is set when every symbol after the first was predicted.
	Perfect bool
	// WholeSequence counts consecutive perfect passes.
	WholeSequence int
	Segments      int
	Synapses      int
}

func (cfg RunConfig) withDefaults() RunConfig {
	if cfg.BoredAfter <= 0 {
		cfg.BoredAfter = defaultBoredAfter
	}
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = defaultMaxPasses
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = defaultLogEvery
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
	return cfg
}

func (cfg RunConfig) validate(tm *temporal.TemporalMemory) error {
	if tm == nil {
		return errors.New("trainer: temporal memory is nil")
	}
	if err := cfg.Corpus.Validate(); err != nil {
		return err
	}
	return cfg.Corpus.CheckWidth(tm.NumberOfColumns())
}

// Run trains tm on the corpus until it is bored, then replays the corpus
// with learning disabled.
func Run(ctx context.Context, tm *temporal.TemporalMemory, cfg RunConfig) (Result, error) {
	cfg = cfg.withDefaults()
	res, err := Train(ctx, tm, cfg)
	if err != nil {
		return res, err
	}
	steps, err := Infer(ctx, tm, cfg.Corpus, cfg.Reporter)
	if err != nil {
		return res, err
	}
	res.Inference = steps
	res.Segments = tm.Connections().NumSegments()
	res.Synapses = tm.Connections().NumSynapses()
	cfg.Reporter.Finished(res)
	return res, nil
}

// Train presents the corpus with learning enabled, pass after pass. Each
// symbol is scored against the columns predicted by the previous step; a
// pass is perfect when every symbol after the first was predicted. Training
// stops once more than BoredAfter consecutive passes were perfect.
func Train(ctx context.Context, tm *temporal.TemporalMemory, cfg RunConfig) (Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(tm); err != nil {
		return Result{}, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	steps := corpus.Stream(streamCtx, cfg.Corpus, cfg.MaxPasses)

	var (
		res                     Result
		window                  metrics.Window
		predictedWithoutMistake int
		wholeSequence           int
		lastPredicted           []int
	)

loop:
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var step corpus.Step
		var ok bool
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case step, ok = <-steps:
		}
		if !ok {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			break loop
		}

		if step.Index == 0 {
			cfg.Reporter.PassStarted(step.Pass)
		}

		predicted := lastPredicted
		bingo := sdr.Equal(step.Columns, predicted)
		if bingo {
			predictedWithoutMistake++
		} else {
			predictedWithoutMistake = 0
		}

		start := time.Now()
		if err := tm.Compute(step.Columns, true); err != nil {
			return res, fmt.Errorf("pass %d symbol %q: %w", step.Pass, step.Symbol.Name, err)
		}
		computeTime := time.Since(start)
		lastPredicted = tm.PredictedColumns()

		conns := tm.Connections()
		window.Record(computeTime, bingo, conns.NumSegments(), conns.NumSynapses())
		cfg.Reporter.Stepped(StepReport{
			Pass:      step.Pass,
			Index:     step.Index,
			Symbol:    step.Symbol.Name,
			Input:     step.Columns,
			Predicted: predicted,
			Bingo:     bingo,
			View:      Observe(tm),
		})

		if !step.Last(cfg.Corpus) {
			continue
		}

		perfect := predictedWithoutMistake == cfg.Corpus.Len()-1
		if perfect {
			wholeSequence++
		} else {
			wholeSequence = 0
		}
		outcome := PassOutcome{
			Pass:          step.Pass,
			Bingos:        predictedWithoutMistake,
			Perfect:       perfect,
			WholeSequence: wholeSequence,
			Segments:      conns.NumSegments(),
			Synapses:      conns.NumSynapses(),
		}
		res.History = append(res.History, outcome)
		res.Passes = step.Pass
		cfg.Reporter.PassFinished(outcome)
		if cfg.Recorder != nil {
			if err := cfg.Recorder.RecordPass(ctx, outcome); err != nil {
				return res, fmt.Errorf("record pass %d: %w", step.Pass, err)
			}
		}

		if step.Pass%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			log.Printf("pass=%d bingo=%d/%d bingo_rate=%.2f whole_sequence=%d segments=%d synapses=%d compute_ms=%.3f",
				step.Pass,
				snap.Bingos,
				snap.Steps,
				snap.BingoRate,
				wholeSequence,
				snap.Segments,
				snap.Synapses,
				snap.AvgComputeMS,
			)
		}

		tm.Reset()
		lastPredicted = nil

		if wholeSequence > cfg.BoredAfter {
			res.Bored = true
			break loop
		}
	}

	res.Segments = tm.Connections().NumSegments()
	res.Synapses = tm.Connections().NumSynapses()
	if !res.Bored {
		res.Err = ErrNotBored
	}
	return res, nil
}
