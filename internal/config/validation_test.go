package config

import (
	"strings"
	"testing"
)

func TestValidConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestValidateExtraction(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(e *ExtractionConfig)
		wantField string
	}{
		{"zero max depth", func(e *ExtractionConfig) { e.MaxDepth = 0 }, "extraction.max_depth"},
		{"negative threshold", func(e *ExtractionConfig) { e.ArraySummaryThreshold = -1 }, "extraction.array_summary_threshold"},
		{"zero sample size", func(e *ExtractionConfig) { e.SampleSize = 0 }, "extraction.sample_size"},
		{"unknown strategy", func(e *ExtractionConfig) { e.SampleStrategy = "random" }, "extraction.sample_strategy"},
		{"blank path element", func(e *ExtractionConfig) { e.NavigationPath = []string{"root", " "} }, "extraction.navigation_path[1]"},
		{"same axes", func(e *ExtractionConfig) { e.Axes = AxisConfig{EntityAxis: 1, CycleAxis: 1} }, "extraction.axes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := DefaultExtraction()
			tt.mutate(&ext)

			err := ext.ValidateExtraction()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestInvalidCompression(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Compression = "bzip2"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for invalid compression")
	}
	if !strings.Contains(err.Error(), "output.compression") {
		t.Errorf("expected error about output.compression, got: %v", err)
	}
}

func TestMissingFilenameTemplate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.FilenameTemplate = ""

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty filename_template")
	}

	cfg.Output.Stdout = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected stdout output to make filename_template optional, got: %v", err)
	}
}

func TestStoreValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors for enabled store without connection settings")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 3 {
		t.Errorf("expected 3 errors (host, user, database), got %d: %v", len(verrs), verrs)
	}

	cfg.Store.Host = "localhost"
	cfg.Store.User = "root"
	cfg.Store.Database = "results"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid store config, got: %v", err)
	}
}

func TestStoreDisabledSkipsValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.TLS = "bogus"

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected disabled store to be ignored, got: %v", err)
	}
}

func TestInvalidLogging(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "trace"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors for logging")
	}
	if !strings.Contains(err.Error(), "logging.level") || !strings.Contains(err.Error(), "logging.format") {
		t.Errorf("expected both logging errors, got: %v", err)
	}
}

func TestValidationErrorsFormat(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Message: "first"},
		{Field: "b", Message: "second"},
	}
	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected prefix: %s", msg)
	}
	if !strings.Contains(msg, "a: first") || !strings.Contains(msg, "b: second") {
		t.Errorf("missing entries: %s", msg)
	}
	if (ValidationErrors{}).Error() != "" {
		t.Error("expected empty message for empty errors")
	}
}
