package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and run preflight checks",
	Long: `Validate checks the configuration file and, when the result store is
enabled, verifies the database connection.

Checks performed:
  - Configuration syntax and value ranges
  - Axis and sampling settings
  - Result store connectivity (if enabled)

Example:
  depextract validate --config depextract.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting validation checks...")

	cmd.Printf("\n=== Configuration Validation ===\n")
	cmd.Printf("Config file: %s\n", GetConfigFile())
	cmd.Printf("Input: %s\n", cfg.Input.Path)
	cmd.Printf("Max depth: %d\n", cfg.Extraction.MaxDepth)
	cmd.Printf("Array summary threshold: %d\n", cfg.Extraction.ArraySummaryThreshold)
	cmd.Printf("Sample: %d (%s)\n", cfg.Extraction.SampleSize, cfg.Extraction.SampleStrategy)

	if cfg.Store.Enabled {
		ctx, cancel := signalContext(log)
		defer cancel()

		manager := store.NewManager(&cfg.Store)
		if err := manager.Connect(ctx); err != nil {
			return err
		}
		defer func() { _ = manager.Close() }()

		if err := manager.Ping(ctx); err != nil {
			return fmt.Errorf("result store connection failed: %w", err)
		}
		cmd.Printf("Result store: %s:%d/%s OK\n", cfg.Store.Host, cfg.Store.Port, cfg.Store.Database)
	} else {
		cmd.Printf("Result store: disabled\n")
	}

	cmd.Printf("\n✓ Configuration valid\n")
	return nil
}
