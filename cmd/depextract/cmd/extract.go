package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/extract"
	"github.com/dbsmedya/depextract/internal/loader"
	"github.com/dbsmedya/depextract/internal/logger"
	"github.com/dbsmedya/depextract/internal/output"
	"github.com/dbsmedya/depextract/internal/store"
)

// extract command flags
var (
	outputPath  string
	toStdout    bool
	noColor     bool
	quiet       bool
	compression string
)

var extractCmd = &cobra.Command{
	Use:   "extract <dep_id> <cycle>",
	Short: "Extract one dependency at one cycle into a JSON document",
	Long: `Extract navigates to the configured record, converts every field for the
selected dependency and cycle, and writes the result document.

Each field is converted independently. A failing field is replaced by an
error marker and listed in the errors section; the remaining fields are
still extracted and the run is reported as partial. The command exits
non-zero only when the run failed: the input could not be loaded, the
record path is missing, or the result had to be replaced by the fallback
document.

Example:
  depextract extract 0 1 --input subset.yaml
  depextract extract 3 42 --stdout --quiet`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Output file (default: output.directory + output.filename_template)")
	extractCmd.Flags().BoolVar(&toStdout, "stdout", false,
		"Write the result document to stdout instead of a file")
	extractCmd.Flags().BoolVar(&noColor, "no-color", false,
		"Disable colored summary output")
	extractCmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"Do not print the extraction summary")
	extractCmd.Flags().StringVar(&compression, "compression", "",
		"Override output compression (none, gzip, zstd)")
}

func parseSelector(args []string) (int, int, error) {
	depID, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dep_id %q: %w", args[0], err)
	}
	cycleIndex, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cycle %q: %w", args[1], err)
	}
	return depID, cycleIndex, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	depID, cycleIndex, err := parseSelector(args)
	if err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if compression != "" {
		cfg.Output.Compression = compression
	}
	if toStdout {
		cfg.Output.Stdout = true
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	log = log.WithSelector(depID, cycleIndex)
	res := runExtraction(ctx, cfg, log, depID, cycleIndex)

	payload, encErr := output.Encode(res, cfg.Output.Indent)
	if encErr != nil {
		log.Errorw("Result encoding failed, wrote fallback document", "error", encErr)
	}
	fingerprint, err := output.Fingerprint(res.Properties)
	if err != nil {
		log.Warnw("Could not fingerprint properties", "error", err)
	}

	dest := ""
	if cfg.Output.Stdout {
		if _, err := cmd.OutOrStdout().Write(payload); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	} else {
		dest = destination(cfg, depID, cycleIndex)
		if err := output.WriteFile(ctx, dest, payload, cfg.Output.Compression); err != nil {
			return err
		}
		log.Infow("Wrote extraction result", "path", dest, "bytes", len(payload))
	}

	if cfg.Store.Enabled {
		if err := saveResult(ctx, cfg, log, res, fingerprint, payload); err != nil {
			return err
		}
	}

	if !quiet {
		output.PrintSummary(cmd.ErrOrStderr(), res, output.SummaryOptions{
			OutputPath:  dest,
			Fingerprint: fingerprint,
			NoColor:     noColor,
		})
	}

	if encErr != nil {
		return fmt.Errorf("extraction failed for dep %d cycle %d: %w", depID, cycleIndex, encErr)
	}
	if !res.Succeeded() {
		return fmt.Errorf("extraction failed for dep %d cycle %d: %d error(s)", depID, cycleIndex, len(res.Errors))
	}
	return nil
}

// runExtraction loads the input document and extracts one selector.
// A document that cannot be loaded yields a failed result rather than an error.
func runExtraction(ctx context.Context, cfg *config.Config, log *logger.Logger, depID, cycleIndex int) *extract.Result {
	root, err := loader.LoadFile(ctx, cfg.Input.Path)
	if err != nil {
		log.Errorw("Failed to load input document", "path", cfg.Input.Path, "error", err)
		return extract.FailedResult(uuid.NewString(), depID, cycleIndex, cfg.Extraction,
			convert.LoadFailure, cfg.Input.Path, err)
	}
	return extract.New(cfg.Extraction, log).Extract(root, depID, cycleIndex)
}

func destination(cfg *config.Config, depID, cycleIndex int) string {
	if outputPath != "" {
		return output.CompressedName(outputPath, cfg.Output.Compression)
	}
	name := output.Filename(cfg.Output.FilenameTemplate, depID, cycleIndex)
	return filepath.Join(cfg.Output.Directory, output.CompressedName(name, cfg.Output.Compression))
}

// openStore connects to the result store and ensures its table exists.
// The caller closes the returned manager.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store.Manager, *store.ResultStore, error) {
	manager := store.NewManager(&cfg.Store)
	if err := manager.Connect(ctx); err != nil {
		return nil, nil, err
	}

	results, err := store.NewResultStore(manager.DB, cfg.Store.Table, log)
	if err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	if err := results.InitializeTables(ctx); err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return manager, results, nil
}

func saveResult(ctx context.Context, cfg *config.Config, log *logger.Logger, res *extract.Result, fingerprint string, payload []byte) error {
	manager, results, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	return results.SaveLocked(ctx, res, fingerprint, payload)
}
