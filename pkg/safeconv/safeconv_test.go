package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), safeconv.MustIntToUint32(0))
	assert.Equal(t, uint32(42), safeconv.MustIntToUint32(42))
	assert.Equal(t, safeconv.MaxUint32, safeconv.MustIntToUint32(int(safeconv.MaxUint32)))

	assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
		safeconv.MustIntToUint32(-1)
	})
	assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
		safeconv.MustIntToUint32(int(safeconv.MaxUint32) + 1)
	})
}

func TestMustUint64ToInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, safeconv.MustUint64ToInt(7))
	assert.Equal(t, math.MaxInt, safeconv.MustUint64ToInt(math.MaxInt))

	assert.PanicsWithValue(t, "safeconv: uint64 to int overflow", func() {
		safeconv.MustUint64ToInt(math.MaxUint64)
	})
}

func TestSaturateUint64ToInt64(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(9), safeconv.SaturateUint64ToInt64(9))
	assert.Equal(t, int64(math.MaxInt64), safeconv.SaturateUint64ToInt64(math.MaxInt64))
	assert.Equal(t, int64(math.MaxInt64), safeconv.SaturateUint64ToInt64(math.MaxUint64))
}
