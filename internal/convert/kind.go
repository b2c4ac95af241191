// Package convert turns a loaded value tree into a JSON-compatible result.
//
// The traversal is bounded three ways: a depth limit stops recursion, a tracker
// detects circular references and memoizes shared nodes, and large arrays are
// replaced by a statistical summary. Failures are recovered at the smallest
// enclosing field and recorded; a conversion always yields a result.
package convert

import (
	"reflect"
	"sort"

	"github.com/dbsmedya/depextract/internal/types"
)

// Kind is the classification of an input value.
type Kind int

const (
	KindUnsupported Kind = iota
	KindScalar
	KindNumericArray // numeric or object array
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindNumericArray:
		return "array"
	case KindRecord:
		return "record"
	default:
		return "unsupported"
	}
}

// Classify inspects v without mutating it. Unrecognized values are KindUnsupported.
func Classify(v any) Kind {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return KindScalar
	case *types.Array:
		if t == nil {
			return KindUnsupported
		}
		return KindNumericArray
	case []float64, []float32, []int, []int64, []any:
		return KindNumericArray
	case *types.Record:
		if t == nil {
			return KindUnsupported
		}
		return KindRecord
	case map[string]any:
		return KindRecord
	default:
		return KindUnsupported
	}
}

// ArrayInfo characterizes an array for downstream decisions.
type ArrayInfo struct {
	Shape []int
	DType string
	Count int
}

// DescribeArray returns shape, dtype and element count of an array value.
func DescribeArray(v any) (ArrayInfo, bool) {
	arr, ok := AsArray(v)
	if !ok {
		return ArrayInfo{}, false
	}
	return ArrayInfo{Shape: arr.Shape, DType: arr.DType, Count: arr.Size()}, true
}

// AsArray views any array-kind value as a *types.Array. Plain slices are wrapped
// as 1-d arrays; []float64 shares its backing store.
func AsArray(v any) (*types.Array, bool) {
	switch t := v.(type) {
	case *types.Array:
		return t, t != nil
	case []float64:
		return types.NewArray([]int{len(t)}, "float64", t), true
	case []float32:
		data := make([]float64, len(t))
		for i, f := range t {
			data[i] = float64(f)
		}
		return types.NewArray([]int{len(t)}, "float32", data), true
	case []int:
		data := make([]float64, len(t))
		for i, n := range t {
			data[i] = float64(n)
		}
		return types.NewArray([]int{len(t)}, "int64", data), true
	case []int64:
		data := make([]float64, len(t))
		for i, n := range t {
			data[i] = float64(n)
		}
		return types.NewArray([]int{len(t)}, "int64", data), true
	case []any:
		return types.NewObjectArray([]int{len(t)}, t), true
	default:
		return nil, false
	}
}

// Fields returns the ordered field names of a record value.
// map[string]any records are enumerated in sorted key order.
func Fields(v any) ([]string, bool) {
	switch t := v.(type) {
	case *types.Record:
		if t == nil {
			return nil, false
		}
		return t.Names(), true
	case map[string]any:
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		return names, true
	default:
		return nil, false
	}
}

// Field returns a named sub-value of a record value with a shallow lookup.
func Field(v any, name string) (any, bool) {
	switch t := v.(type) {
	case *types.Record:
		if t == nil {
			return nil, false
		}
		return t.Get(name)
	case map[string]any:
		val, ok := t[name]
		return val, ok
	default:
		return nil, false
	}
}

// mapIdentity identifies a map by its runtime pointer.
type mapIdentity uintptr

// identityOf returns a comparable handle that is equal for the same underlying
// node. Scalars and plain slices have no identity.
func identityOf(v any) (any, bool) {
	switch t := v.(type) {
	case *types.Record:
		return t, t != nil
	case *types.Array:
		return t, t != nil
	case map[string]any:
		if t == nil {
			return nil, false
		}
		return mapIdentity(reflect.ValueOf(t).Pointer()), true
	default:
		return nil, false
	}
}
