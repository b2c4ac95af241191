package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when an array's data length disagrees with its shape.
var ErrShapeMismatch = errors.New("array data does not match shape")

// ErrAxisOutOfRange is returned when a slice names an axis the array does not have
// or an index outside that axis.
var ErrAxisOutOfRange = errors.New("axis index out of range")

// DTypeObject is the element type of arrays holding arbitrary values.
const DTypeObject = "object"

// Array is an N-dimensional array stored in row-major order.
//
// Numeric arrays keep their elements in Data as float64 regardless of DType;
// DType records the source element type so integers and booleans convert back
// to their own JSON form. Object arrays (cell arrays, struct arrays) keep their
// elements in Elems instead.
type Array struct {
	Shape []int
	DType string
	Data  []float64
	Elems []any
}

// NewArray creates a numeric array. An empty dtype defaults to float64.
func NewArray(shape []int, dtype string, data []float64) *Array {
	if dtype == "" {
		dtype = "float64"
	}
	return &Array{Shape: shape, DType: dtype, Data: data}
}

// NewVector creates a 1-d float64 array.
func NewVector(data ...float64) *Array {
	return NewArray([]int{len(data)}, "float64", data)
}

// NewObjectArray creates an array whose elements are arbitrary values.
func NewObjectArray(shape []int, elems []any) *Array {
	return &Array{Shape: shape, DType: DTypeObject, Elems: elems}
}

// IsObject reports whether the array holds arbitrary values rather than numbers.
func (a *Array) IsObject() bool {
	return a.DType == DTypeObject
}

// Rank returns the number of axes.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Size returns the element count implied by the shape.
// A rank-0 array has one element.
func (a *Array) Size() int {
	size := 1
	for _, dim := range a.Shape {
		size *= dim
	}
	return size
}

// Len returns the number of stored elements.
func (a *Array) Len() int {
	if a.IsObject() {
		return len(a.Elems)
	}
	return len(a.Data)
}

// Validate checks that the shape is non-negative and agrees with the stored elements.
func (a *Array) Validate() error {
	for axis, dim := range a.Shape {
		if dim < 0 {
			return fmt.Errorf("%w: axis %d has negative length %d", ErrShapeMismatch, axis, dim)
		}
	}
	if a.Len() != a.Size() {
		return fmt.Errorf("%w: shape %v needs %d elements, have %d", ErrShapeMismatch, a.Shape, a.Size(), a.Len())
	}
	return nil
}

// Element returns the flat element i as a Go value: int64 for integer dtypes,
// bool for boolean dtypes, float32 for float32, the stored value for object arrays
// and float64 otherwise. Non-finite values are always returned as float64,
// since no integer or bool can hold them.
func (a *Array) Element(i int) any {
	if a.IsObject() {
		return a.Elems[i]
	}
	f := a.Data[i]
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return f
	case IsIntegerDType(a.DType):
		return int64(f)
	case IsBoolDType(a.DType):
		return f != 0
	case a.DType == "float32":
		return float32(f)
	default:
		return f
	}
}

// Strides returns the row-major element strides for each axis.
func (a *Array) Strides() []int {
	strides := make([]int, len(a.Shape))
	step := 1
	for axis := len(a.Shape) - 1; axis >= 0; axis-- {
		strides[axis] = step
		step *= a.Shape[axis]
	}
	return strides
}

// Slice fixes the given axes at the given indices and returns the sub-array
// spanned by the remaining axes, in their original order.
func (a *Array) Slice(fixed map[int]int) (*Array, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	for axis, idx := range fixed {
		if axis < 0 || axis >= a.Rank() {
			return nil, fmt.Errorf("%w: axis %d of rank-%d array", ErrAxisOutOfRange, axis, a.Rank())
		}
		if idx < 0 || idx >= a.Shape[axis] {
			return nil, fmt.Errorf("%w: index %d on axis %d of length %d", ErrAxisOutOfRange, idx, axis, a.Shape[axis])
		}
	}

	var outShape, freeAxes []int
	for axis, dim := range a.Shape {
		if _, ok := fixed[axis]; !ok {
			outShape = append(outShape, dim)
			freeAxes = append(freeAxes, axis)
		}
	}
	if outShape == nil {
		outShape = []int{}
	}

	strides := a.Strides()
	base := 0
	for axis, idx := range fixed {
		base += idx * strides[axis]
	}

	out := &Array{Shape: outShape, DType: a.DType}
	size := out.Size()
	if a.IsObject() {
		out.Elems = make([]any, 0, size)
	} else {
		out.Data = make([]float64, 0, size)
	}

	counter := make([]int, len(freeAxes))
	for n := 0; n < size; n++ {
		offset := base
		for k, axis := range freeAxes {
			offset += counter[k] * strides[axis]
		}
		if a.IsObject() {
			out.Elems = append(out.Elems, a.Elems[offset])
		} else {
			out.Data = append(out.Data, a.Data[offset])
		}
		// advance the odometer, last axis fastest
		for k := len(counter) - 1; k >= 0; k-- {
			counter[k]++
			if counter[k] < outShape[k] {
				break
			}
			counter[k] = 0
		}
	}

	return out, nil
}

// Flatten returns the numeric data as a 1-d slice. Object arrays yield the
// numeric elements they contain and skip the rest.
func (a *Array) Flatten() []float64 {
	if !a.IsObject() {
		out := make([]float64, len(a.Data))
		copy(out, a.Data)
		return out
	}
	var out []float64
	for _, el := range a.Elems {
		if f, ok := ToFloat64(el); ok {
			out = append(out, f)
		}
	}
	return out
}
