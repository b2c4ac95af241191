package extract

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/depextract/internal/config"
	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/types"
)

// seq returns 0, 1, ..., n-1 as float64.
func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// buildDocument mirrors the layout of a dependency export: a port record
// holding a time axis and nested m_value records with the per-entity fields.
func buildDocument(target any) *types.Record {
	port := types.NewRecord().
		Set("time", types.NewVector(0, 0.5, 1.0, 1.5, 2.0)).
		Set("m_listMemory", types.NewRecord().
			Set("m_value", types.NewRecord().
				Set("m_value", target)))
	return types.NewRecord().
		Set("g_PerDepRunnable_m_depPort_out", port).
		Set("other", 1)
}

func testConfig() config.ExtractionConfig {
	return config.DefaultExtraction()
}

func newTestExtractor(cfg config.ExtractionConfig) *Extractor {
	e := New(cfg, nil)
	e.newID = func() string { return "run-test" }
	return e
}

func prop(t *testing.T, r *Result, name string) convert.Result {
	t.Helper()
	v, ok := r.Properties.Get(name)
	require.Truef(t, ok, "missing property %q", name)
	return v
}

func method(t *testing.T, r *Result, name string) string {
	t.Helper()
	v, ok := r.Metadata.FieldMethods.Get(name)
	require.Truef(t, ok, "missing method for %q", name)
	return v.(string)
}

func TestExtract_Fields(t *testing.T) {
	// m_speed has shape (3 entities, 5 cycles); element (e, c) = 5e + c
	target := types.NewRecord().
		Set("m_speed", types.NewArray([]int{3, 5}, "float64", seq(15))).
		Set("m_gain", 2.5).
		Set("m_trace", types.NewVector(1, 2, 3)).
		Set("m_params", types.NewRecord().Set("k", int64(4)))

	res := newTestExtractor(testConfig()).Extract(buildDocument(target), 1, 2)

	assert.Equal(t, "run-test", res.RunID)
	assert.Equal(t, StatusCompleted, res.Metadata.Status)
	assert.Empty(t, res.Errors)
	assert.NotNil(t, res.Errors)

	assert.Equal(t, 7.0, prop(t, res, "m_speed"))
	assert.Equal(t, MethodIndexedSlice, method(t, res, "m_speed"))
	assert.Equal(t, 2.5, prop(t, res, "m_gain"))
	assert.Equal(t, MethodFullValue, method(t, res, "m_gain"))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, prop(t, res, "m_trace"))
	assert.Equal(t, MethodNestedRecord, method(t, res, "m_params"))

	assert.Equal(t, []string{"m_speed", "m_gain", "m_trace", "m_params"}, res.Metadata.AvailableFields)
	assert.Equal(t, []int{1, 1}, res.Metadata.DataShape)
}

func TestExtract_Time(t *testing.T) {
	res := newTestExtractor(testConfig()).Extract(buildDocument(types.NewRecord()), 0, 3)

	assert.Equal(t, 1.5, res.Timestamp)
	assert.True(t, res.Metadata.TimestampValid)
	assert.Equal(t, 5, res.Metadata.TotalCycles)
	require.NotNil(t, res.Metadata.TimeRange)
	assert.Equal(t, 0.0, res.Metadata.TimeRange.Start)
	assert.Equal(t, 2.0, res.Metadata.TimeRange.End)

	late := newTestExtractor(testConfig()).Extract(buildDocument(types.NewRecord()), 0, 99)
	assert.Nil(t, late.Timestamp)
	assert.False(t, late.Metadata.TimestampValid)
	assert.Equal(t, StatusCompleted, late.Metadata.Status, "a cycle past the time axis is not an error by itself")
}

func TestExtract_IndexValidation(t *testing.T) {
	tests := []struct {
		name   string
		entity int
		cycle  int
	}{
		{"negative entity", -1, 0},
		{"huge entity", 1000000, 0},
		{"negative cycle", 0, -1},
		{"huge cycle", 0, 1000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := types.NewRecord().
				Set("m_speed", types.NewArray([]int{3, 5}, "float64", seq(15))).
				Set("m_gain", 1)

			var res *Result
			require.NotPanics(t, func() {
				res = newTestExtractor(testConfig()).Extract(buildDocument(target), tt.entity, tt.cycle)
			})

			assert.True(t, convert.IsMarker(prop(t, res, "m_speed"), convert.MarkerIndexError))
			assert.Equal(t, MethodIndexError, method(t, res, "m_speed"))
			assert.Equal(t, int64(1), prop(t, res, "m_gain"))

			require.Len(t, res.Errors, 1)
			assert.Equal(t, convert.IndexOutOfBounds, res.Errors[0].Kind)
			assert.Equal(t, "m_speed", res.Errors[0].Field)
			assert.True(t, errors.Is(res.Errors[0].Err, ErrIndexOutOfBounds))
			assert.Equal(t, StatusPartial, res.Metadata.Status)
		})
	}
}

func TestExtract_HigherRankKeepsMiddleAxes(t *testing.T) {
	// shape (2 entities, 3, 4 cycles): element (e, j, c) = 12e + 4j + c
	target := types.NewRecord().Set("m_grid", types.NewArray([]int{2, 3, 4}, "int32", seq(24)))

	res := newTestExtractor(testConfig()).Extract(buildDocument(target), 1, 3)
	assert.Equal(t, []any{int64(15), int64(19), int64(23)}, prop(t, res, "m_grid"))
}

func TestExtract_ConfigurableAxes(t *testing.T) {
	cfg := testConfig()
	cfg.Axes = config.AxisConfig{EntityAxis: 1, CycleAxis: 0}
	// shape (5 cycles, 3 entities): element (c, e) = 3c + e
	target := types.NewRecord().Set("m_speed", types.NewArray([]int{5, 3}, "float64", seq(15)))

	res := newTestExtractor(cfg).Extract(buildDocument(target), 2, 4)
	assert.Equal(t, 14.0, prop(t, res, "m_speed"))
}

func TestExtract_NavigationFailure(t *testing.T) {
	doc := types.NewRecord().Set("g_PerDepRunnable_m_depPort_out", types.NewRecord())

	res := newTestExtractor(testConfig()).Extract(doc, 0, 0)

	assert.Equal(t, StatusFailed, res.Metadata.Status)
	assert.Equal(t, 0, res.Properties.Len())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, convert.FieldNotFound, res.Errors[0].Kind)

	var navErr *NavigationError
	require.ErrorAs(t, res.Errors[0].Err, &navErr)
	assert.Equal(t, 1, navErr.Step)
	assert.ErrorIs(t, navErr, ErrFieldNotFound)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"properties":{}`)
}

func TestExtract_ExpectedFieldsMissing(t *testing.T) {
	cfg := testConfig()
	cfg.ExpectedFields = []string{"m_gain", "m_absent"}
	target := types.NewRecord().Set("m_gain", 1)

	res := newTestExtractor(cfg).Extract(buildDocument(target), 0, 0)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, convert.FieldNotFound, res.Errors[0].Kind)
	assert.Equal(t, "m_absent", res.Errors[0].Field)
	assert.Equal(t, StatusPartial, res.Metadata.Status)
	assert.Equal(t, int64(1), prop(t, res, "m_gain"))
}

func TestExtract_ArrayTarget(t *testing.T) {
	res := newTestExtractor(testConfig()).Extract(buildDocument(types.NewArray([]int{2, 5}, "float64", seq(10))), 1, 4)

	assert.Equal(t, 9.0, prop(t, res, ArrayDataField))
	assert.Equal(t, MethodIndexedSlice, method(t, res, ArrayDataField))
	assert.Equal(t, []int{2, 5}, res.Metadata.DataShape)
	assert.Equal(t, []string{}, res.Metadata.AvailableFields)
}

func TestExtract_PartialFailureInField(t *testing.T) {
	target := types.NewRecord().
		Set("m_bad", types.NewArray([]int{2, 2}, "float64", seq(3))).
		Set("m_ok", "fine")

	res := newTestExtractor(testConfig()).Extract(buildDocument(target), 0, 0)

	assert.True(t, convert.IsMarker(prop(t, res, "m_bad"), convert.MarkerError))
	assert.Equal(t, MethodError, method(t, res, "m_bad"))
	assert.Equal(t, "fine", prop(t, res, "m_ok"))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, convert.SerializationFailure, res.Errors[0].Kind)
	assert.Equal(t, 1, res.CacheStatistics.ConversionErrors)
}

func TestExtract_CyclesAndSharedNodes(t *testing.T) {
	shared := types.NewRecord().Set("v", 1)
	loop := types.NewRecord().Set("name", "loop")
	loop.Set("self", loop)
	target := types.NewRecord().
		Set("a", shared).
		Set("b", shared).
		Set("loop", loop).
		Set("nan", math.NaN())

	res := newTestExtractor(testConfig()).Extract(buildDocument(target), 0, 0)

	assert.Equal(t, StatusCompleted, res.Metadata.Status)
	assert.Equal(t, 1, res.CacheStatistics.CacheHits)
	assert.Equal(t, 1, res.CacheStatistics.CircularReferences)
	assert.Equal(t, 0, res.CacheStatistics.InProgress)
	assert.Equal(t, "NaN", prop(t, res, "nan"))
}

func TestExtract_Idempotent(t *testing.T) {
	target := types.NewRecord().
		Set("m_speed", types.NewArray([]int{3, 500}, "float64", seq(1500))).
		Set("m_wide", types.NewArray([]int{2, 300, 5}, "float64", seq(3000)))
	doc := buildDocument(target)
	ex := newTestExtractor(testConfig())

	first, err := json.Marshal(ex.Extract(doc, 1, 4).Properties)
	require.NoError(t, err)
	second, err := json.Marshal(ex.Extract(doc, 1, 4).Properties)
	require.NoError(t, err)

	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("properties differ between runs (-first +second):\n%s", diff)
	}
}

func TestFailedResult(t *testing.T) {
	res := FailedResult("run-x", 3, 7, testConfig(), convert.LoadFailure, "subset.yaml", errors.New("no such file"))

	assert.False(t, res.Succeeded())
	assert.Equal(t, StatusFailed, res.Metadata.Status)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, convert.LoadFailure, res.Errors[0].Kind)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"properties":{}`)
	assert.Contains(t, string(b), `"status":"failed"`)
}

func TestNavigate(t *testing.T) {
	doc := types.NewRecord().Set("a", types.NewRecord().Set("b", 5))

	v, err := Navigate(doc, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	_, err = Navigate(doc, []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrNotRecord)
	assert.Contains(t, err.Error(), "a.b")

	_, err = Navigate(doc, []string{"x"})
	assert.ErrorIs(t, err, ErrFieldNotFound)
	assert.Contains(t, err.Error(), "<root>")
}

func TestSummarizeAndCycles(t *testing.T) {
	doc := buildDocument(types.NewRecord())
	ex := newTestExtractor(testConfig())

	s := ex.Summarize(doc, "subset.yaml")
	assert.Equal(t, 2, s.TotalVariables)
	assert.Equal(t, []string{"g_PerDepRunnable_m_depPort_out"}, s.DependencyVariables)
	require.NotNil(t, s.TimeInfo)
	assert.Equal(t, 5, s.TimeInfo.TotalCycles)
	assert.Len(t, s.TimeInfo.SampleTimes, 5)
	require.NotNil(t, s.DataStructure)
	assert.Equal(t, "record", s.DataStructure.Kind)
	assert.Equal(t, []string{"time", "m_listMemory"}, s.DataStructure.Fields)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, ex.Cycles(doc))
	assert.Equal(t, []int{}, ex.Cycles(types.NewRecord()))
}
