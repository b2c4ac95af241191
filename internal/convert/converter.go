package convert

import (
	"fmt"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/logger"
)

// Result is a JSON-compatible value: nil, bool, string, int64, uint64, float64,
// []any or *Object.
type Result = any

// Marker type names. Every marker is an *Object whose "type" key holds one of these.
const (
	MarkerCircular      = "circular_reference"
	MarkerDepthExceeded = "max_depth_exceeded"
	MarkerUnsupported   = "unsupported_type"
	MarkerError         = "conversion_error"
	MarkerArraySummary  = "array_summary"
	MarkerIndexError    = "index_out_of_range"
)

// Options bound a conversion.
type Options struct {
	MaxDepth       int
	Threshold      int
	SampleSize     int
	SampleStrategy string
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		MaxDepth:       config.DefaultMaxDepth,
		Threshold:      config.DefaultArraySummaryThreshold,
		SampleSize:     config.DefaultSampleSize,
		SampleStrategy: SampleHead,
	}
}

// OptionsFrom takes the engine bounds from an extraction config.
func OptionsFrom(cfg config.ExtractionConfig) Options {
	return Options{
		MaxDepth:       cfg.MaxDepth,
		Threshold:      cfg.ArraySummaryThreshold,
		SampleSize:     cfg.SampleSize,
		SampleStrategy: cfg.SampleStrategy,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxDepth <= 0 {
		o.MaxDepth = def.MaxDepth
	}
	if o.Threshold <= 0 {
		o.Threshold = def.Threshold
	}
	if o.SampleSize <= 0 {
		o.SampleSize = def.SampleSize
	}
	if o.SampleStrategy == "" {
		o.SampleStrategy = def.SampleStrategy
	}
	return o
}

// Converter walks one value tree. A Converter owns its tracker, so every
// top-level call gets a fresh one; Convert may be called repeatedly within
// that call and shares the cache between those calls.
type Converter struct {
	opts       Options
	summarizer *Summarizer
	tracker    *Tracker
	agg        *Aggregator
	log        *logger.Logger
}

// New creates a Converter. A nil aggregator or logger is replaced by a fresh
// aggregator or a no-op logger.
func New(opts Options, agg *Aggregator, log *logger.Logger) *Converter {
	opts = opts.withDefaults()
	if agg == nil {
		agg = NewAggregator()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Converter{
		opts: opts,
		summarizer: &Summarizer{
			Threshold:  opts.Threshold,
			SampleSize: opts.SampleSize,
			Strategy:   opts.SampleStrategy,
		},
		tracker: NewTracker(),
		agg:     agg,
		log:     log,
	}
}

// Value converts v in a single fresh session and returns the result with its aggregator.
func Value(v any, opts Options) (Result, *Aggregator) {
	c := New(opts, nil, nil)
	return c.Convert(v, ""), c.agg
}

// Convert converts v starting at depth 0. path names v in markers and errors.
// It never fails: failures become markers and are recorded in the aggregator.
func (c *Converter) Convert(v any, path string) Result {
	return c.guarded(v, path, 0)
}

// Aggregator returns the error and counter sink.
func (c *Converter) Aggregator() *Aggregator {
	return c.agg
}

// Tracker returns the cycle and cache tracker.
func (c *Converter) Tracker() *Tracker {
	return c.tracker
}

// Options returns the effective bounds.
func (c *Converter) Options() Options {
	return c.opts
}

// guarded is the per-field failure boundary.
func (c *Converter) guarded(v any, path string, depth int) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			result = c.fail(path, SerializationFailure, fmt.Errorf("panic: %v", p))
		}
	}()

	res, err := c.visit(v, path, depth)
	if err != nil {
		return c.fail(path, ErrorKindOf(err), err)
	}
	return res
}

func (c *Converter) visit(v any, path string, depth int) (Result, error) {
	if depth >= c.opts.MaxDepth {
		c.agg.stats.DepthExceeded++
		c.log.Debugw("depth limit reached", "path", path, "depth", depth)
		return depthMarker(v, path, depth, c.opts.MaxDepth), nil
	}

	id, tracked := identityOf(v)
	if tracked {
		if cached, ok := c.tracker.Lookup(id); ok {
			c.agg.stats.CacheHits++
			return cached, nil
		}
		first, ok := c.tracker.Enter(id, path)
		if !ok {
			c.agg.stats.CircularReferences++
			c.log.Debugw("circular reference", "path", path, "target_path", first)
			return circularMarker(path, first, depth), nil
		}
		defer c.tracker.Leave(id)
	}

	res, err := c.dispatch(v, path, depth)
	if err != nil {
		return nil, err
	}
	if tracked {
		c.tracker.Remember(id, res)
	}
	return res, nil
}

func (c *Converter) dispatch(v any, path string, depth int) (Result, error) {
	switch Classify(v) {
	case KindScalar:
		return NarrowScalar(v), nil
	case KindNumericArray:
		arr, _ := AsArray(v)
		return c.summarizer.Summarize(arr, func(i int, el any) Result {
			return c.guarded(el, elementPath(path, i), depth+1)
		})
	case KindRecord:
		return c.record(v, path, depth), nil
	default:
		goType := fmt.Sprintf("%T", v)
		c.agg.Record(UnsupportedType, path, fmt.Errorf("cannot convert value of type %s", goType))
		return NewObject().
			Set("type", MarkerUnsupported).
			Set("path", path).
			Set("go_type", goType), nil
	}
}

func (c *Converter) record(v any, path string, depth int) *Object {
	names, _ := Fields(v)
	obj := NewObject()
	for _, name := range names {
		child, _ := Field(v, name)
		obj.Set(name, c.guarded(child, JoinPath(path, name), depth+1))
	}
	return obj
}

func (c *Converter) fail(path string, kind ErrorKind, err error) Result {
	c.agg.Record(kind, path, err)
	c.log.Warnw("conversion failed", "path", path, "kind", string(kind), "error", err)
	return ErrorMarker(path, kind, err)
}

// ErrorMarker is the inline stand-in for a value that failed to convert.
func ErrorMarker(path string, kind ErrorKind, err error) *Object {
	return NewObject().
		Set("type", MarkerError).
		Set("path", path).
		Set("error_kind", string(kind)).
		Set("error", err.Error())
}

func depthMarker(v any, path string, depth, maxDepth int) *Object {
	return NewObject().
		Set("type", MarkerDepthExceeded).
		Set("path", path).
		Set("depth", depth).
		Set("max_depth", maxDepth).
		Set("kind", Classify(v).String())
}

func circularMarker(path, target string, depth int) *Object {
	return NewObject().
		Set("type", MarkerCircular).
		Set("path", path).
		Set("target_path", target).
		Set("depth", depth)
}

// IsMarker reports whether r is a marker object of the given type.
func IsMarker(r Result, markerType string) bool {
	obj, ok := r.(*Object)
	if !ok {
		return false
	}
	t, ok := obj.Get("type")
	return ok && t == markerType
}
