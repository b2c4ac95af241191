package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/extract"
	"github.com/dbsmedya/depextract/internal/loader"
	"github.com/dbsmedya/depextract/internal/output"
)

var exploreCmd = &cobra.Command{
	Use:   "explore [path]",
	Short: "Convert an arbitrary sub-value of the input document",
	Long: `Explore converts the value at a dotted path (or the whole document) with the
recursive converter and prints it as JSON. No dependency or cycle selection
is applied. Conversion statistics are logged at info level.

Example:
  depextract explore g_PerDepRunnable_m_depPort_out.m_listMemory
  depextract explore --max-depth 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, ".")
}

func runExplore(cmd *cobra.Command, args []string) error {
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

	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	target, err := extract.Navigate(root, splitPath(path))
	if err != nil {
		return err
	}

	conv := convert.New(convert.OptionsFrom(cfg.Extraction), nil, log)
	out := conv.Convert(target, path)

	data, err := output.EncodeValue(out, cfg.Output.Indent)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return err
	}

	stats := conv.Aggregator().Stats()
	log.WithFields(map[string]interface{}{
		"cache_hits":          stats.CacheHits,
		"circular_references": stats.CircularReferences,
		"depth_exceeded":      stats.DepthExceeded,
		"conversion_errors":   stats.ConversionErrors,
		"errors":              len(conv.Aggregator().Errors()),
	}).Info("Conversion finished")
	return nil
}
