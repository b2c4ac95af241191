package convert

import (
	"math"

	"github.com/dbsmedya/depextract/internal/types"
)

// Sampling strategies for array summaries.
const (
	SampleHead   = "head"
	SampleSpread = "spread"
)

// Summarizer decides how an array is rendered: a scalar for one element,
// a nested list below the threshold, or a summary object at or above it.
type Summarizer struct {
	Threshold  int
	SampleSize int
	Strategy   string
}

// ElementFunc converts one element of an object array.
type ElementFunc func(index int, value any) Result

// Statistics are computed over the finite elements of a numeric array.
type Statistics struct {
	Count       int
	FiniteCount int
	NaNCount    int
	InfCount    int
	Min         float64
	Max         float64
	Mean        float64
	Std         float64
}

// Defined reports whether min, max, mean and std carry a value.
func (s Statistics) Defined() bool {
	return s.FiniteCount > 0
}

// ComputeStatistics runs a single pass over data. Std is the population
// standard deviation, accumulated with Welford's method.
func ComputeStatistics(data []float64) Statistics {
	st := Statistics{Count: len(data)}
	var m2 float64
	for _, f := range data {
		switch {
		case math.IsNaN(f):
			st.NaNCount++
			continue
		case math.IsInf(f, 0):
			st.InfCount++
			continue
		}
		st.FiniteCount++
		if st.FiniteCount == 1 {
			st.Min, st.Max = f, f
		} else {
			st.Min = math.Min(st.Min, f)
			st.Max = math.Max(st.Max, f)
		}
		delta := f - st.Mean
		st.Mean += delta / float64(st.FiniteCount)
		m2 += delta * (f - st.Mean)
	}
	if st.FiniteCount > 0 {
		st.Std = math.Sqrt(m2 / float64(st.FiniteCount))
	}
	return st
}

// Summarize renders a. It fails only when the array's data disagrees with its shape.
func (s *Summarizer) Summarize(a *types.Array, elem ElementFunc) (Result, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	n := a.Size()
	switch {
	case n == 1 && n < s.Threshold:
		return s.element(a, 0, elem), nil
	case n > 0 && n < s.Threshold:
		return s.nest(a, elem, 0, 0, a.Strides()), nil
	default:
		return s.summary(a, elem), nil
	}
}

func (s *Summarizer) element(a *types.Array, i int, elem ElementFunc) Result {
	if a.IsObject() {
		if elem == nil {
			return NarrowScalar(a.Elems[i])
		}
		return elem(i, a.Elems[i])
	}
	return NarrowScalar(a.Element(i))
}

// nest builds a nested list that mirrors the array's shape.
func (s *Summarizer) nest(a *types.Array, elem ElementFunc, axis, offset int, strides []int) []any {
	out := make([]any, a.Shape[axis])
	for k := range out {
		pos := offset + k*strides[axis]
		if axis == a.Rank()-1 {
			out[k] = s.element(a, pos, elem)
		} else {
			out[k] = s.nest(a, elem, axis+1, pos, strides)
		}
	}
	return out
}

func (s *Summarizer) summary(a *types.Array, elem ElementFunc) *Object {
	n := a.Size()
	obj := NewObject().
		Set("type", MarkerArraySummary).
		Set("shape", shapeList(a.Shape)).
		Set("dtype", a.DType).
		Set("count", n)

	if a.IsObject() {
		obj.Set("statistics_defined", false)
	} else {
		st := ComputeStatistics(a.Data)
		obj.Set("finite_count", st.FiniteCount).
			Set("nan_count", st.NaNCount).
			Set("inf_count", st.InfCount).
			Set("statistics_defined", st.Defined())
		if st.Defined() {
			obj.Set("min", narrowFloat(st.Min)).
				Set("max", narrowFloat(st.Max)).
				Set("mean", narrowFloat(st.Mean)).
				Set("std", narrowFloat(st.Std))
		} else {
			obj.Set("min", nil).Set("max", nil).Set("mean", nil).Set("std", nil)
		}
	}

	strategy := s.strategy()
	indices := SampleIndices(n, s.SampleSize, strategy)
	samples := make([]any, len(indices))
	for k, i := range indices {
		samples[k] = s.element(a, i, elem)
	}
	obj.Set("sample_strategy", strategy).
		Set("sample_values", samples)
	return obj
}

func (s *Summarizer) strategy() string {
	if s.Strategy == SampleSpread {
		return SampleSpread
	}
	return SampleHead
}

// SampleIndices picks up to size flat indices out of n. Head takes the first
// ones; spread takes evenly spaced ones including the first and last.
func SampleIndices(n, size int, strategy string) []int {
	if size <= 0 || n <= 0 {
		return []int{}
	}
	if n <= size {
		size = n
		strategy = SampleHead
	}
	out := make([]int, size)
	if strategy != SampleSpread || size == 1 {
		for i := range out {
			out[i] = i
		}
		return out
	}
	step := float64(n-1) / float64(size-1)
	for k := range out {
		out[k] = int(math.Round(float64(k) * step))
	}
	return out
}

func shapeList(shape []int) []any {
	out := make([]any, len(shape))
	for i, d := range shape {
		out[i] = d
	}
	return out
}
