// Package safeconv provides integer conversions that panic on overflow.
package safeconv

import "math"

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// MustIntToUint32 converts int to uint32, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > int(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustUint64ToInt converts uint64 to int, panics on overflow.
func MustUint64ToInt(v uint64) int {
	if v > math.MaxInt {
		panic("safeconv: uint64 to int overflow")
	}

	return int(v)
}

// SaturateUint64ToInt64 converts uint64 to int64, clamping at math.MaxInt64.
func SaturateUint64ToInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(v)
}
