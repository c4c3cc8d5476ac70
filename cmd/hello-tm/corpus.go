package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hello-tm/internal/corpus"
	"hello-tm/internal/sdr"
)

var corpusDir string

var corpusCmd = &cobra.Command{
	Use:   "corpus [file]",
	Short: "Print the input vectors of a corpus",
	Long: `Print every symbol of a corpus as a row of bits. Without arguments the
built-in sequence is shown. With --dir, every *.corpus.yaml file beneath the
directory is listed and printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if corpusDir != "" {
			paths, err := corpus.Discover(corpusDir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no corpus files under %s", corpusDir)
			}
			for _, path := range paths {
				c, err := corpus.Load(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "# %s\n", path)
				printCorpus(cmd, c)
			}
			return nil
		}

		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		c, _, err := loadCorpus(path)
		if err != nil {
			return err
		}
		printCorpus(cmd, c)
		return nil
	},
}

func printCorpus(cmd *cobra.Command, c *corpus.Corpus) {
	out := cmd.OutOrStdout()
	for i, row := range c.Matrix() {
		fmt.Fprintf(out, "%-4s %s\n", c.Symbols[i].Name, sdr.FormatRow(sdr.BitString(c.Width, sdr.Indices(row))))
	}
	fmt.Fprintf(out, "%d symbols, width %d\n", c.Len(), c.Width)
}

func init() {
	corpusCmd.Flags().StringVar(&corpusDir, "dir", "", "Directory to search for *.corpus.yaml files")
}
