// Package extract selects one entity at one cycle out of a loaded document and
// converts its fields into an output Result.
package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/logger"
	"github.com/dbsmedya/depextract/internal/types"
)

// ArrayDataField holds the converted target when it is not a record.
const ArrayDataField = "array_data"

// Extractor pulls the properties of one entity at one cycle.
type Extractor struct {
	cfg   config.ExtractionConfig
	log   *logger.Logger
	newID func() string
}

// New creates an Extractor. A nil logger discards output.
func New(cfg config.ExtractionConfig, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Extractor{cfg: cfg, log: log, newID: uuid.NewString}
}

// Extract converts every field of the navigation target for entityID at
// cycleIndex. It always returns a result; fatal problems set status "failed".
func (e *Extractor) Extract(root any, entityID, cycleIndex int) *Result {
	start := time.Now()
	runID := e.newID()
	log := e.log.WithRun(runID).WithSelector(entityID, cycleIndex)

	conv := convert.New(convert.OptionsFrom(e.cfg), convert.NewAggregator(), log)
	res := newResult(runID, entityID, cycleIndex, e.cfg)

	e.applyTime(root, res, cycleIndex, log)

	basePath := strings.Join(e.cfg.NavigationPath, ".")
	target, err := Navigate(root, e.cfg.NavigationPath)
	if err != nil {
		log.Errorw("navigation failed", "path", basePath, "error", err)
		conv.Aggregator().Record(convert.FieldNotFound, basePath, err)
		res.Properties = convert.NewObject()
		finalize(res, conv, start, true)
		return res
	}

	if names, ok := convert.Fields(target); ok {
		res.Metadata.DataShape = []int{1, 1}
		res.Metadata.AvailableFields = names
		log.Debugw("extracting fields", "count", len(names))
		for _, name := range names {
			value, _ := convert.Field(target, name)
			path := convert.JoinPath(basePath, name)
			out, method := e.field(conv, value, path, entityID, cycleIndex, log.WithField(path))
			res.Properties.Set(name, out)
			res.Metadata.FieldMethods.Set(name, method)
		}
		e.checkExpected(conv.Aggregator(), target, basePath, log)
	} else {
		if info, isArray := convert.DescribeArray(target); isArray {
			res.Metadata.DataShape = info.Shape
		}
		path := convert.JoinPath(basePath, ArrayDataField)
		out, method := e.field(conv, target, path, entityID, cycleIndex, log.WithField(path))
		res.Properties.Set(ArrayDataField, out)
		res.Metadata.FieldMethods.Set(ArrayDataField, method)
	}

	finalize(res, conv, start, false)
	log.Infow("extraction finished",
		"status", string(res.Metadata.Status),
		"fields", res.Properties.Len(),
		"errors", len(res.Errors))
	return res
}

// field converts one top-level value. Panics outside the converter are
// recovered here so one bad field cannot abort the others.
func (e *Extractor) field(conv *convert.Converter, value any, path string, entityID, cycleIndex int, log *logger.Logger) (out convert.Result, method string) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic: %v", p)
			conv.Aggregator().Record(convert.SerializationFailure, path, err)
			log.Errorw("field extraction failed", "error", err)
			out, method = convert.ErrorMarker(path, convert.SerializationFailure, err), MethodError
		}
	}()

	switch convert.Classify(value) {
	case convert.KindRecord:
		return conv.Convert(value, path), MethodNestedRecord
	case convert.KindNumericArray:
		arr, _ := convert.AsArray(value)
		if arr.Rank() >= 2 {
			return e.indexed(conv, arr, path, entityID, cycleIndex, log)
		}
		return conv.Convert(value, path), MethodFullValue
	default:
		return conv.Convert(value, path), MethodFullValue
	}
}

// indexed validates the selector against the array and converts the slice
// at (entityID, cycleIndex).
func (e *Extractor) indexed(conv *convert.Converter, arr *types.Array, path string, entityID, cycleIndex int, log *logger.Logger) (convert.Result, string) {
	rank := arr.Rank()
	entityAxis := config.ResolveAxis(e.cfg.Axes.EntityAxis, rank)
	cycleAxis := config.ResolveAxis(e.cfg.Axes.CycleAxis, rank)

	var err error
	switch {
	case entityAxis < 0 || cycleAxis < 0 || entityAxis == cycleAxis:
		err = fmt.Errorf("%w: axes (%d, %d) do not map onto a rank-%d array",
			ErrIndexOutOfBounds, e.cfg.Axes.EntityAxis, e.cfg.Axes.CycleAxis, rank)
	case entityID < 0 || entityID >= arr.Shape[entityAxis]:
		err = fmt.Errorf("%w: entity index %d not in [0, %d) on axis %d",
			ErrIndexOutOfBounds, entityID, arr.Shape[entityAxis], entityAxis)
	case cycleIndex < 0 || cycleIndex >= arr.Shape[cycleAxis]:
		err = fmt.Errorf("%w: cycle index %d not in [0, %d) on axis %d",
			ErrIndexOutOfBounds, cycleIndex, arr.Shape[cycleAxis], cycleAxis)
	}
	if err != nil {
		conv.Aggregator().Record(convert.IndexOutOfBounds, path, err)
		log.Warnw("index out of range", "shape", arr.Shape, "error", err)
		return indexMarker(path, arr.Shape, entityID, cycleIndex, entityAxis, cycleAxis), MethodIndexError
	}

	slice, err := arr.Slice(map[int]int{entityAxis: entityID, cycleAxis: cycleIndex})
	if err != nil {
		kind := convert.ErrorKindOf(err)
		conv.Aggregator().Record(kind, path, err)
		log.Warnw("slice failed", "error", err)
		return convert.ErrorMarker(path, kind, err), MethodError
	}
	return conv.Convert(slice, path), MethodIndexedSlice
}

func indexMarker(path string, shape []int, entityID, cycleIndex, entityAxis, cycleAxis int) *convert.Object {
	dims := make([]any, len(shape))
	for i, d := range shape {
		dims[i] = d
	}
	return convert.NewObject().
		Set("type", convert.MarkerIndexError).
		Set("path", path).
		Set("requested", convert.NewObject().
			Set("entity_index", entityID).
			Set("cycle_index", cycleIndex)).
		Set("shape", dims).
		Set("entity_axis", entityAxis).
		Set("cycle_axis", cycleAxis)
}

func (e *Extractor) checkExpected(agg *convert.Aggregator, target any, basePath string, log *logger.Logger) {
	for _, name := range e.cfg.ExpectedFields {
		if _, ok := convert.Field(target, name); ok {
			continue
		}
		path := convert.JoinPath(basePath, name)
		agg.Record(convert.FieldNotFound, path, fmt.Errorf("%w: %s", ErrFieldNotFound, name))
		log.Warnw("expected field missing", "field", name)
	}
}

// applyTime fills in the time metadata. A missing time axis is not an error.
func (e *Extractor) applyTime(root any, res *Result, cycleIndex int, log *logger.Logger) {
	times, ok := e.timeAxis(root)
	if !ok {
		log.Debugw("no time axis", "path", strings.Join(e.cfg.TimePath, "."))
		return
	}
	res.Metadata.TotalCycles = len(times)
	if len(times) > 0 {
		res.Metadata.TimeRange = &TimeRange{
			Start: convert.NarrowScalar(times[0]),
			End:   convert.NarrowScalar(times[len(times)-1]),
		}
	}
	if cycleIndex >= 0 && cycleIndex < len(times) {
		res.Timestamp = convert.NarrowScalar(times[cycleIndex])
		res.Metadata.TimestampValid = true
	}
}

// timeAxis reads the flattened time values at the configured time path.
func (e *Extractor) timeAxis(root any) ([]float64, bool) {
	if len(e.cfg.TimePath) == 0 {
		return nil, false
	}
	v, err := Navigate(root, e.cfg.TimePath)
	if err != nil {
		return nil, false
	}
	if arr, ok := convert.AsArray(v); ok {
		return arr.Flatten(), true
	}
	if f, ok := types.ToFloat64(v); ok {
		return []float64{f}, true
	}
	return nil, false
}

// Cycles lists the valid cycle indices of the document's time axis.
func (e *Extractor) Cycles(root any) []int {
	times, _ := e.timeAxis(root)
	out := make([]int, len(times))
	for i := range out {
		out[i] = i
	}
	return out
}
