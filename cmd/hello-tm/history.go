package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hello-tm/internal/config"
)

var historyLimit int
var historyRun string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `List the runs recorded in the run history database, newest first.
With --run, print the passes of a single run instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.ApplyOverrides(config.Overrides{DB: dbPath})
		if cfg.Demo.DB == "" {
			return errors.New("no database: pass --db or set demo.db")
		}
		db, err := openStore(cfg.Demo.DB)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		if historyRun != "" {
			passes, err := db.PassesForRun(ctx, historyRun)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "PASS\tBINGOS\tPERFECT\tWHOLE\tSEGMENTS\tSYNAPSES")
			for _, p := range passes {
				fmt.Fprintf(w, "%d\t%d\t%t\t%d\t%d\t%d\n", p.Pass, p.Bingos, p.Perfect, p.WholeSequence, p.Segments, p.Synapses)
			}
			return nil
		}

		runs, err := db.ListRuns(ctx, historyLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tSTARTED\tCORPUS\tCELLS\tPASSES\tBORED")
		for _, r := range runs {
			passes := "-"
			if r.FinishedAt != nil {
				passes = fmt.Sprintf("%d", r.Passes)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%t\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Corpus, r.CellsPerColumn, passes, r.Bored)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the passes of this run id")
}
