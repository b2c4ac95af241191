package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/output"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <dep_id> <cycle>",
	Short: "Compare a fresh extraction with the latest stored run",
	Long: `Verify re-runs the extraction for one dependency and cycle and compares the
fingerprint of its properties with the most recent run in the result store.
Extraction is deterministic, so a mismatch means the input document or the
traversal settings changed since the run was stored.

Requires store.enabled in the configuration.

Example:
  depextract verify 0 1 --config depextract.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	depID, cycleIndex, err := parseSelector(args)
	if err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if !cfg.Store.Enabled {
		return fmt.Errorf("verify requires store.enabled")
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	log = log.WithSelector(depID, cycleIndex)
	res := runExtraction(ctx, cfg, log, depID, cycleIndex)
	if !res.Succeeded() {
		return fmt.Errorf("extraction failed for dep %d cycle %d: %d error(s)", depID, cycleIndex, len(res.Errors))
	}
	fingerprint, err := output.Fingerprint(res.Properties)
	if err != nil {
		return fmt.Errorf("failed to fingerprint properties: %w", err)
	}

	manager, results, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	v, err := results.Verify(ctx, depID, cycleIndex, fingerprint, len(res.Errors))
	if err != nil {
		return err
	}
	cmd.Println(v.String())

	if !v.Match {
		return fmt.Errorf("stored run %s does not match current extraction", v.RunID)
	}
	return nil
}
