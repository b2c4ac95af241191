package types

import (
	"math"
	"strconv"
)

// ToInt64 converts an interface{} to int64.
// Supports int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, and float64.
func ToInt64(v interface{}) int64 {
	switch i := v.(type) {
	case int64:
		return i
	case int:
		return int64(i)
	case int32:
		return int64(i)
	case int16:
		return int64(i)
	case int8:
		return int64(i)
	case uint:
		return int64(i)
	case uint64:
		return int64(i)
	case uint32:
		return int64(i)
	case uint16:
		return int64(i)
	case uint8:
		return int64(i)
	case float64:
		return int64(i)
	case float32:
		return int64(i)
	default:
		return 0
	}
}

// ToFloat64 converts any Go numeric value to float64.
// The second return value is false for non-numeric input.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return Float32ToFloat64(n), true
	case int, int8, int16, int32, int64:
		return float64(ToInt64(n)), true
	case uint, uint8, uint16, uint32:
		return float64(ToInt64(n)), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Float32ToFloat64 widens f to the float64 with the same shortest decimal form,
// so 0.1f becomes 0.1 rather than 0.10000000149011612.
func Float32ToFloat64(f float32) float64 {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return float64(f)
	}
	widened, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return widened
}

// IsIntegerDType reports whether dtype names a signed or unsigned integer element type.
func IsIntegerDType(dtype string) bool {
	switch dtype {
	case "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64", "int", "uint":
		return true
	default:
		return false
	}
}

// IsBoolDType reports whether dtype names a boolean element type.
func IsBoolDType(dtype string) bool {
	return dtype == "bool" || dtype == "logical"
}
