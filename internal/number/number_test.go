package number

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArithmeticSaturatesOnInfinity(t *testing.T) {
	assert.True(t, Add(Infinity, FromInt64(5)).IsInfinite())
	assert.True(t, Mul(FromInt64(3), Infinity).IsInfinite())
	assert.True(t, Sub(Infinity, Infinity).IsInfinite())
}

func TestDivByZeroSaturates(t *testing.T) {
	result := Div(FromInt64(5), Zero)
	assert.True(t, result.IsInfinite())
	assert.Equal(t, "inf", result.String())
}

func TestModByZeroSaturates(t *testing.T) {
	assert.True(t, Mod(FromInt64(5), Zero).IsInfinite())
}

func TestGcdZeroZero(t *testing.T) {
	assert.True(t, Equal(Zero, Gcd(Zero, Zero)))
}

func TestGcdBasic(t *testing.T) {
	assert.True(t, Equal(FromInt64(6), Gcd(FromInt64(18), FromInt64(24))))
}

func TestTrn(t *testing.T) {
	assert.True(t, Equal(FromInt64(3), Trn(FromInt64(7), FromInt64(4))))
	assert.True(t, Equal(Zero, Trn(FromInt64(2), FromInt64(9))))
}

func TestBinBasic(t *testing.T) {
	assert.True(t, Equal(FromInt64(10), Bin(FromInt64(5), FromInt64(2))))
	assert.True(t, Equal(Zero, Bin(FromInt64(5), FromInt64(-1))))
	assert.True(t, Equal(Zero, Bin(FromInt64(5), FromInt64(6))))
}

func TestBinNegativeN(t *testing.T) {
	// C(-1, k) = (-1)^k
	assert.True(t, Equal(One, Bin(FromInt64(-1), FromInt64(0))))
	assert.True(t, Equal(FromInt64(-1), Bin(FromInt64(-1), FromInt64(1))))
}

func TestPowNegativeExponentSaturates(t *testing.T) {
	assert.True(t, Pow(FromInt64(2), FromInt64(-1)).IsInfinite())
}

func TestPowZeroToZero(t *testing.T) {
	assert.True(t, Equal(One, Pow(Zero, Zero)))
}

func TestAsInt64OutOfRange(t *testing.T) {
	_, err := Infinity.AsInt64()
	assert.Error(t, err)
	var rangeErr *OutOfRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestEqualityReflexiveOnInfinity(t *testing.T) {
	assert.True(t, Equal(Infinity, Infinity))
	assert.False(t, Equal(Infinity, FromInt64(0)))
}

func TestCmpPanicsOnInfinity(t *testing.T) {
	assert.Panics(t, func() {
		Cmp(Infinity, FromInt64(1))
	})
}

func TestParseRoundTrip(t *testing.T) {
	n, err := Parse("12345")
	assert.NoError(t, err)
	assert.Equal(t, "12345", n.String())

	inf, err := Parse("inf")
	assert.NoError(t, err)
	assert.True(t, inf.IsInfinite())
}

func TestMinMax(t *testing.T) {
	assert.True(t, Equal(FromInt64(3), Min(FromInt64(3), FromInt64(9))))
	assert.True(t, Equal(FromInt64(9), Max(FromInt64(3), FromInt64(9))))
	assert.True(t, Min(FromInt64(3), Infinity).IsInfinite())
	assert.True(t, Max(FromInt64(3), Infinity).IsInfinite())
}
