package convert

import (
	"math"

	"github.com/dbsmedya/depextract/internal/types"
)

// Non-finite floats have no JSON form and are written as these strings.
const (
	NaNString    = "NaN"
	PosInfString = "Infinity"
	NegInfString = "-Infinity"
)

// NarrowScalar returns the JSON-native form of a scalar: nil, bool, string,
// int64, uint64 (only above MaxInt64) or a finite float64.
func NarrowScalar(v any) Result {
	switch n := v.(type) {
	case nil, bool, string:
		return n
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return types.ToInt64(n)
	case uint:
		return narrowUnsigned(uint64(n))
	case uint64:
		return narrowUnsigned(n)
	case float32:
		return narrowFloat(types.Float32ToFloat64(n))
	case float64:
		return narrowFloat(n)
	default:
		return v
	}
}

func narrowUnsigned(n uint64) Result {
	if n > math.MaxInt64 {
		return n
	}
	return int64(n)
}

func narrowFloat(f float64) Result {
	switch {
	case math.IsNaN(f):
		return NaNString
	case math.IsInf(f, 1):
		return PosInfString
	case math.IsInf(f, -1):
		return NegInfString
	default:
		return f
	}
}
