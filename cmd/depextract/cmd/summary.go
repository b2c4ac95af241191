package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/extract"
	"github.com/dbsmedya/depextract/internal/loader"
	"github.com/dbsmedya/depextract/internal/output"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Describe the input document",
	Long: `Summary lists the document's top-level variables, the dependency-related
ones, the time axis and the structure of the navigation root.

Example:
  depextract summary --input subset.yaml`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
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

	summary := extract.New(cfg.Extraction, log).Summarize(root, cfg.Input.Path)
	data, err := output.EncodeValue(summary, cfg.Output.Indent)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
