package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.Extraction.validate()...)
	errors = append(errors, c.validateInput()...)
	errors = append(errors, c.validateOutput()...)

	if c.Store.Enabled {
		errors = append(errors, c.validateStore()...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateExtraction checks only the traversal settings.
func (e ExtractionConfig) ValidateExtraction() error {
	if errs := e.validate(); len(errs) > 0 {
		return errs
	}
	return nil
}

func (e ExtractionConfig) validate() ValidationErrors {
	var errors ValidationErrors

	if e.MaxDepth <= 0 {
		errors = append(errors, ValidationError{
			Field:   "extraction.max_depth",
			Message: "max_depth must be positive",
		})
	}

	if e.ArraySummaryThreshold <= 0 {
		errors = append(errors, ValidationError{
			Field:   "extraction.array_summary_threshold",
			Message: "array_summary_threshold must be positive",
		})
	}

	if e.SampleSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "extraction.sample_size",
			Message: "sample_size must be positive",
		})
	}

	validStrategies := map[string]bool{"head": true, "spread": true, "": true}
	if !validStrategies[e.SampleStrategy] {
		errors = append(errors, ValidationError{
			Field:   "extraction.sample_strategy",
			Message: "sample_strategy must be 'head' or 'spread'",
		})
	}

	for i, name := range e.NavigationPath {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("extraction.navigation_path[%d]", i),
				Message: "path element cannot be empty",
			})
		}
	}

	if e.Axes.EntityAxis == e.Axes.CycleAxis {
		errors = append(errors, ValidationError{
			Field:   "extraction.axes",
			Message: "entity_axis and cycle_axis must differ",
		})
	}

	return errors
}

func (c *Config) validateInput() ValidationErrors {
	var errors ValidationErrors

	if c.Input.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "input.path",
			Message: "path is required",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	validCompression := map[string]bool{"none": true, "gzip": true, "zstd": true, "": true}
	if !validCompression[c.Output.Compression] {
		errors = append(errors, ValidationError{
			Field:   "output.compression",
			Message: "compression must be 'none', 'gzip', or 'zstd'",
		})
	}

	if c.Output.Indent < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.indent",
			Message: "indent cannot be negative",
		})
	}

	if !c.Output.Stdout && c.Output.FilenameTemplate == "" {
		errors = append(errors, ValidationError{
			Field:   "output.filename_template",
			Message: "filename_template is required unless stdout is set",
		})
	}

	return errors
}

func (c *Config) validateStore() ValidationErrors {
	var errors ValidationErrors

	if c.Store.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "store.host",
			Message: "host is required when store is enabled",
		})
	}

	if c.Store.Port <= 0 || c.Store.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "store.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Store.User == "" {
		errors = append(errors, ValidationError{
			Field:   "store.user",
			Message: "user is required when store is enabled",
		})
	}

	if c.Store.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "store.database",
			Message: "database name is required when store is enabled",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[c.Store.TLS] {
		errors = append(errors, ValidationError{
			Field:   "store.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if c.Store.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "store.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
