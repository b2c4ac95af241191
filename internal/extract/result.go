package extract

import (
	"time"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/convert"
)

// ExtractionMethod is reported in every result's metadata.
const ExtractionMethod = "recursive_field_extraction"

// Status summarizes how an extraction ended.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Per-field extraction methods.
const (
	MethodIndexedSlice = "indexed_slice"
	MethodFullValue    = "full_value"
	MethodNestedRecord = "nested_record"
	MethodIndexError   = "index_error"
	MethodError        = "error"
)

// Result is the output document of one extraction.
type Result struct {
	RunID           string                    `json:"run_id"`
	DepID           int                       `json:"dep_id"`
	CycleIndex      int                       `json:"cycle_index"`
	Timestamp       any                       `json:"timestamp"`
	Properties      *convert.Object           `json:"properties"`
	Metadata        Metadata                  `json:"metadata"`
	Errors          []convert.ExtractionError `json:"errors"`
	CacheStatistics CacheStatistics           `json:"cache_statistics"`
}

// Metadata describes the run.
type Metadata struct {
	ExtractionMethod string          `json:"extraction_method"`
	Status           Status          `json:"status"`
	TotalCycles      int             `json:"total_cycles"`
	TimestampValid   bool            `json:"timestamp_valid"`
	TimeRange        *TimeRange      `json:"time_range"`
	DataShape        []int           `json:"data_shape"`
	AvailableFields  []string        `json:"available_fields"`
	FieldMethods     *convert.Object `json:"field_methods"`
	Parameters       Parameters      `json:"parameters"`
	ElapsedMS        float64         `json:"elapsed_ms"`
}

// TimeRange holds the first and last time-axis values.
type TimeRange struct {
	Start any `json:"start"`
	End   any `json:"end"`
}

// Parameters echoes the bounds the run used.
type Parameters struct {
	MaxDepth              int    `json:"max_depth"`
	ArraySummaryThreshold int    `json:"array_summary_threshold"`
	SampleSize            int    `json:"sample_size"`
	SampleStrategy        string `json:"sample_strategy"`
	EntityAxis            int    `json:"entity_axis"`
	CycleAxis             int    `json:"cycle_axis"`
}

// CacheStatistics reports the tracker and counter state at the end of a run.
type CacheStatistics struct {
	CacheHits          int `json:"cache_hits"`
	CachedObjects      int `json:"cached_objects"`
	CircularReferences int `json:"circular_references"`
	DepthExceeded      int `json:"depth_exceeded"`
	ConversionErrors   int `json:"conversion_errors"`
	InProgress         int `json:"in_progress"`
}

func newResult(runID string, depID, cycleIndex int, cfg config.ExtractionConfig) *Result {
	opts := convert.OptionsFrom(cfg)
	return &Result{
		RunID:      runID,
		DepID:      depID,
		CycleIndex: cycleIndex,
		Properties: convert.NewObject(),
		Metadata: Metadata{
			ExtractionMethod: ExtractionMethod,
			DataShape:        []int{},
			AvailableFields:  []string{},
			FieldMethods:     convert.NewObject(),
			Parameters: Parameters{
				MaxDepth:              opts.MaxDepth,
				ArraySummaryThreshold: opts.Threshold,
				SampleSize:            opts.SampleSize,
				SampleStrategy:        opts.SampleStrategy,
				EntityAxis:            cfg.Axes.EntityAxis,
				CycleAxis:             cfg.Axes.CycleAxis,
			},
		},
		Errors: []convert.ExtractionError{},
	}
}

// finalize copies errors and counters into r and sets its status.
func finalize(r *Result, conv *convert.Converter, start time.Time, fatal bool) {
	agg := conv.Aggregator()
	stats := agg.Stats()
	r.Errors = agg.Errors()
	r.CacheStatistics = CacheStatistics{
		CacheHits:          stats.CacheHits,
		CachedObjects:      conv.Tracker().Cached(),
		CircularReferences: stats.CircularReferences,
		DepthExceeded:      stats.DepthExceeded,
		ConversionErrors:   stats.ConversionErrors,
		InProgress:         conv.Tracker().InProgress(),
	}

	switch {
	case fatal:
		r.Metadata.Status = StatusFailed
	case len(r.Errors) > 0:
		r.Metadata.Status = StatusPartial
	default:
		r.Metadata.Status = StatusCompleted
	}
	r.Metadata.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000
}

// FailedResult builds the output for a run that could not start, such as
// an unreadable input document.
func FailedResult(runID string, depID, cycleIndex int, cfg config.ExtractionConfig, kind convert.ErrorKind, path string, err error) *Result {
	r := newResult(runID, depID, cycleIndex, cfg)
	agg := convert.NewAggregator()
	agg.Record(kind, path, err)
	r.Errors = agg.Errors()
	r.Metadata.Status = StatusFailed
	return r
}

// Succeeded reports whether the run produced properties.
func (r *Result) Succeeded() bool {
	return r.Metadata.Status != StatusFailed
}
