// Package config provides configuration structures and loading for depextract.
package config

// Config represents the complete application configuration.
type Config struct {
	Extraction ExtractionConfig `yaml:"extraction" mapstructure:"extraction"`
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// ExtractionConfig controls the traversal engine and the field extractor.
type ExtractionConfig struct {
	// MaxDepth is the number of record levels converted below a starting value.
	// Nodes at MaxDepth are replaced by a depth marker.
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"`

	// ArraySummaryThreshold is the element count at which arrays are summarized
	// instead of inlined.
	ArraySummaryThreshold int `yaml:"array_summary_threshold" mapstructure:"array_summary_threshold"`

	// SampleSize caps the sample_values list of an array summary.
	SampleSize int `yaml:"sample_size" mapstructure:"sample_size"`

	SampleStrategy string `yaml:"sample_strategy" mapstructure:"sample_strategy"` // head or spread

	// NavigationPath is the chain of record fields from the document root to
	// the record whose fields are extracted.
	NavigationPath []string `yaml:"navigation_path" mapstructure:"navigation_path"`

	// TimePath locates the time-index array used for timestamps.
	TimePath []string `yaml:"time_path" mapstructure:"time_path"`

	ExpectedFields []string `yaml:"expected_fields" mapstructure:"expected_fields"`

	Axes AxisConfig `yaml:"axes" mapstructure:"axes"`
}

// AxisConfig maps the selector indices onto array axes.
// Negative values count from the last axis (-1 is the last axis).
type AxisConfig struct {
	EntityAxis int `yaml:"entity_axis" mapstructure:"entity_axis"`
	CycleAxis  int `yaml:"cycle_axis" mapstructure:"cycle_axis"`
}

// InputConfig locates the source document.
type InputConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// OutputConfig controls where and how results are written.
type OutputConfig struct {
	Directory        string `yaml:"directory" mapstructure:"directory"`
	FilenameTemplate string `yaml:"filename_template" mapstructure:"filename_template"`
	Indent           int    `yaml:"indent" mapstructure:"indent"`
	Compression      string `yaml:"compression" mapstructure:"compression"` // none, gzip, zstd
	Stdout           bool   `yaml:"stdout" mapstructure:"stdout"`
}

// StoreConfig represents the optional MySQL result store.
type StoreConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	Table              string `yaml:"table" mapstructure:"table"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// Defaults for the traversal engine.
const (
	DefaultMaxDepth              = 8
	DefaultArraySummaryThreshold = 100
	DefaultSampleSize            = 10
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Extraction: DefaultExtraction(),
		Input: InputConfig{
			Path: "subset.yaml",
		},
		Output: OutputConfig{
			Directory:        ".",
			FilenameTemplate: "extraction_result_dep{dep}_cycle{cycle}.json",
			Indent:           2,
			Compression:      "none",
		},
		Store: StoreConfig{
			Enabled:            false,
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
			Table:              "extraction_results",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultExtraction returns the default traversal settings.
func DefaultExtraction() ExtractionConfig {
	return ExtractionConfig{
		MaxDepth:              DefaultMaxDepth,
		ArraySummaryThreshold: DefaultArraySummaryThreshold,
		SampleSize:            DefaultSampleSize,
		SampleStrategy:        "head",
		NavigationPath:        []string{"g_PerDepRunnable_m_depPort_out", "m_listMemory", "m_value", "m_value"},
		TimePath:              []string{"g_PerDepRunnable_m_depPort_out", "time"},
		Axes: AxisConfig{
			EntityAxis: 0,
			CycleAxis:  -1,
		},
	}
}

// ResolveAxis converts a possibly negative axis into an index for an array of the given rank.
// Returns -1 if the axis is out of range.
func ResolveAxis(axis, rank int) int {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return -1
	}
	return axis
}
