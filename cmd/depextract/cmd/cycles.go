package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/extract"
	"github.com/dbsmedya/depextract/internal/loader"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List the cycle indices available in the input document",
	Long: `Cycles prints one valid cycle index per line, taken from the length of
the configured time axis. Nothing is printed when the document has no
time axis.

Example:
  depextract cycles --input subset.yaml`,
	Args: cobra.NoArgs,
	RunE: runCycles,
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
}

func runCycles(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signalContext(log)
	defer cancel()

	root, err := loader.LoadFile(ctx, cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("failed to load input document: %w", err)
	}

	cycles := extract.New(cfg.Extraction, log).Cycles(root)
	for _, c := range cycles {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", c)
	}
	log.Debugw("Listed cycles", "count", len(cycles))
	return nil
}
