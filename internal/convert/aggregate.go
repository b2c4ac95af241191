package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/depextract/internal/types"
)

// ErrorKind classifies an ExtractionError.
type ErrorKind string

const (
	CycleDetected        ErrorKind = "CycleDetected"
	DepthExceeded        ErrorKind = "DepthExceeded"
	FieldNotFound        ErrorKind = "FieldNotFound"
	IndexOutOfBounds     ErrorKind = "IndexOutOfBounds"
	UnsupportedType      ErrorKind = "UnsupportedType"
	SerializationFailure ErrorKind = "SerializationFailure"
	LoadFailure          ErrorKind = "LoadFailure"
)

// ExtractionError is one recovered failure, kept as data in the output.
type ExtractionError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Path    string    `json:"path"`

	Err error `json:"-"`
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Stats holds the run-wide counters.
type Stats struct {
	CacheHits          int `json:"cache_hits"`
	CircularReferences int `json:"circular_references"`
	DepthExceeded      int `json:"depth_exceeded"`
	ConversionErrors   int `json:"conversion_errors"`
}

// Aggregator collects errors and counters for one top-level call.
type Aggregator struct {
	errors []ExtractionError
	stats  Stats
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{errors: []ExtractionError{}}
}

// Record appends an error for the node at path.
func (a *Aggregator) Record(kind ErrorKind, path string, err error) *ExtractionError {
	e := ExtractionError{
		Field:   fieldName(path),
		Kind:    kind,
		Message: err.Error(),
		Path:    path,
		Err:     err,
	}
	a.errors = append(a.errors, e)
	if kind == SerializationFailure || kind == UnsupportedType {
		a.stats.ConversionErrors++
	}
	return &a.errors[len(a.errors)-1]
}

// Errors returns a copy of the recorded errors. Never nil.
func (a *Aggregator) Errors() []ExtractionError {
	out := make([]ExtractionError, len(a.errors))
	copy(out, a.errors)
	return out
}

// Stats returns the counters.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// ErrorKindOf maps a Go error onto the taxonomy.
func ErrorKindOf(err error) ErrorKind {
	var ee *ExtractionError
	switch {
	case errors.As(err, &ee):
		return ee.Kind
	case errors.Is(err, types.ErrAxisOutOfRange):
		return IndexOutOfBounds
	default:
		return SerializationFailure
	}
}

// fieldName returns the last segment of a dotted path, without any element index.
func fieldName(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return name
}

// JoinPath appends a field name to a dotted path.
func JoinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func elementPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}
