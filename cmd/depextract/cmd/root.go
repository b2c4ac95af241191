package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile        string
	inputPath      string
	logLevel       string
	logFormat      string
	maxDepth       int
	threshold      int
	sampleSize     int
	sampleStrategy string
)

var rootCmd = &cobra.Command{
	Use:   "depextract",
	Short: "Recursive extractor for nested scientific records",
	Long: `A CLI tool that converts nested scientific-data records into JSON.

Features:
  - Depth-bounded recursive conversion with cycle detection
  - Memoization of shared sub-structures
  - Statistical summaries for large arrays
  - Per-field error recovery with a structured error list
  - Optional persistence of results in MySQL`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "depextract.yaml",
		"Path to configuration file (optional)")
	rootCmd.PersistentFlags().StringVarP(&inputPath, "input", "i", "",
		"Override input document (.yaml, .json, optionally .gz or .zst)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Traversal overrides
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0,
		"Override maximum record depth")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0,
		"Override element count at which arrays are summarized")
	rootCmd.PersistentFlags().IntVar(&sampleSize, "sample-size", 0,
		"Override number of sample values in array summaries")
	rootCmd.PersistentFlags().StringVar(&sampleStrategy, "sample-strategy", "",
		"Override sampling strategy (head, spread)")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() config.Overrides {
	return config.Overrides{
		LogLevel:       logLevel,
		LogFormat:      logFormat,
		InputPath:      inputPath,
		MaxDepth:       maxDepth,
		Threshold:      threshold,
		SampleSize:     sampleSize,
		SampleStrategy: sampleStrategy,
	}
}

// loadConfig reads the optional config file, applies flag overrides and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptional(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyOverrides(GetCLIOverrides())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// signalContext returns a context that is canceled on SIGTERM or SIGINT.
func signalContext(log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Warnw("Received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
