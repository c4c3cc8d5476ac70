package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"hello-tm/internal/temporal"
)

// EnvPrefix prefixes environment overrides, e.g. HELLOTM_DEMO_MAX_PASSES.
const EnvPrefix = "HELLOTM"

// Config captures the runtime knobs for a tutorial run.
type Config struct {
	TM   TMConfig   `mapstructure:"tm"`
	Demo DemoConfig `mapstructure:"demo"`
}

// TMConfig mirrors temporal.Params.
type TMConfig struct {
	ColumnDimensions          []int   `mapstructure:"column_dimensions"`
	CellsPerColumn            int     `mapstructure:"cells_per_column"`
	ActivationThreshold       int     `mapstructure:"activation_threshold"`
	InitialPermanence         float64 `mapstructure:"initial_permanence"`
	ConnectedPermanence       float64 `mapstructure:"connected_permanence"`
	MinThreshold              int     `mapstructure:"min_threshold"`
	MaxNewSynapseCount        int     `mapstructure:"max_new_synapse_count"`
	PermanenceIncrement       float64 `mapstructure:"permanence_increment"`
	PermanenceDecrement       float64 `mapstructure:"permanence_decrement"`
	PredictedSegmentDecrement float64 `mapstructure:"predicted_segment_decrement"`
	Seed                      int64   `mapstructure:"seed"`
	MaxSegmentsPerCell        int     `mapstructure:"max_segments_per_cell"`
	MaxSynapsesPerSegment     int     `mapstructure:"max_synapses_per_segment"`
}

// DemoConfig holds the driver settings around the memory.
type DemoConfig struct {
	Verbose    bool   `mapstructure:"verbose"`
	Color      bool   `mapstructure:"color"`
	BoredAfter int    `mapstructure:"bored_after"`
	MaxPasses  int    `mapstructure:"max_passes"`
	LogEvery   int    `mapstructure:"log_every"`
	Corpus     string `mapstructure:"corpus"`
	DB         string `mapstructure:"db"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	CellsPerColumn int
	Seed           int64
	BoredAfter     int
	MaxPasses      int
	LogEvery       int
	Corpus         string
	DB             string
	Verbose        *bool
	Color          *bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tm.column_dimensions", []int{50})
	v.SetDefault("tm.cells_per_column", 2)
	v.SetDefault("tm.activation_threshold", 10)
	v.SetDefault("tm.initial_permanence", 0.5)
	v.SetDefault("tm.connected_permanence", 0.9)
	v.SetDefault("tm.min_threshold", 4)
	v.SetDefault("tm.max_new_synapse_count", 20)
	v.SetDefault("tm.permanence_increment", 0.05)
	v.SetDefault("tm.permanence_decrement", 0.0)
	v.SetDefault("tm.predicted_segment_decrement", 0.0)
	v.SetDefault("tm.seed", 42)
	v.SetDefault("tm.max_segments_per_cell", 255)
	v.SetDefault("tm.max_synapses_per_segment", 255)

	v.SetDefault("demo.verbose", true)
	v.SetDefault("demo.color", true)
	v.SetDefault("demo.bored_after", 3)
	v.SetDefault("demo.max_passes", 100)
	v.SetDefault("demo.log_every", 1)
	v.SetDefault("demo.corpus", "")
	v.SetDefault("demo.db", "")
}

// Load reads the config file at path over the built-in defaults and applies
// HELLOTM_* environment overrides. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.CellsPerColumn > 0 {
		c.TM.CellsPerColumn = o.CellsPerColumn
	}
	if o.Seed != 0 {
		c.TM.Seed = o.Seed
	}
	if o.BoredAfter > 0 {
		c.Demo.BoredAfter = o.BoredAfter
	}
	if o.MaxPasses > 0 {
		c.Demo.MaxPasses = o.MaxPasses
	}
	if o.LogEvery > 0 {
		c.Demo.LogEvery = o.LogEvery
	}
	if o.Corpus != "" {
		c.Demo.Corpus = o.Corpus
	}
	if o.DB != "" {
		c.Demo.DB = o.DB
	}
	if o.Verbose != nil {
		c.Demo.Verbose = *o.Verbose
	}
	if o.Color != nil {
		c.Demo.Color = *o.Color
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.TM.Params().Validate(); err != nil {
		return err
	}
	if c.Demo.BoredAfter <= 0 {
		return fmt.Errorf("bored_after must be > 0 (got %d)", c.Demo.BoredAfter)
	}
	if c.Demo.MaxPasses <= 0 {
		return fmt.Errorf("max_passes must be > 0 (got %d)", c.Demo.MaxPasses)
	}
	if c.Demo.LogEvery <= 0 {
		c.Demo.LogEvery = 1
	}
	return nil
}

// Params converts the memory section into temporal.Params.
func (t TMConfig) Params() temporal.Params {
	return temporal.Params{
		ColumnDimensions:          append([]int(nil), t.ColumnDimensions...),
		CellsPerColumn:            t.CellsPerColumn,
		ActivationThreshold:       t.ActivationThreshold,
		InitialPermanence:         t.InitialPermanence,
		ConnectedPermanence:       t.ConnectedPermanence,
		MinThreshold:              t.MinThreshold,
		MaxNewSynapseCount:        t.MaxNewSynapseCount,
		PermanenceIncrement:       t.PermanenceIncrement,
		PermanenceDecrement:       t.PermanenceDecrement,
		PredictedSegmentDecrement: t.PredictedSegmentDecrement,
		Seed:                      t.Seed,
		MaxSegmentsPerCell:        t.MaxSegmentsPerCell,
		MaxSynapsesPerSegment:     t.MaxSynapsesPerSegment,
	}
}
