package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"loda/internal/number"
)

func c(v int64) *Expr { return NewConstant(number.FromInt64(v)) }

func TestNormalizeConstantFolding(t *testing.T) {
	e := NewBinary(Sum, c(2), c(3))
	got := Normalize(e)
	assert.True(t, Equal(c(5), got))
}

func TestNormalizeFlattensNestedSums(t *testing.T) {
	e := NewBinary(Sum, NewBinary(Sum, Param(), c(1)), c(2))
	got := Normalize(e)
	assert.True(t, Equal(NewBinary(Sum, c(3), Param()), got))
}

func TestNormalizeDropsAdditiveIdentity(t *testing.T) {
	e := NewBinary(Sum, Param(), c(0))
	got := Normalize(e)
	assert.True(t, Equal(Param(), got))
}

func TestNormalizeDropsMultiplicativeIdentity(t *testing.T) {
	e := NewBinary(Product, Param(), c(1))
	got := Normalize(e)
	assert.True(t, Equal(Param(), got))
}

func TestNormalizeZeroProduct(t *testing.T) {
	e := NewBinary(Product, Param(), c(0))
	got := Normalize(e)
	assert.True(t, Equal(c(0), got))
}

func TestNormalizeSignCanonicalization(t *testing.T) {
	// n - (-3) => 3 + n (constants sort first)
	e := NewBinary(Difference, Param(), c(-3))
	got := Normalize(e)
	assert.True(t, Equal(NewBinary(Sum, c(3), Param()), got))
}

func TestNormalizePowerIdentities(t *testing.T) {
	assert.True(t, Equal(c(1), Normalize(NewBinary(Power, Param(), c(0)))))
	assert.True(t, Equal(Param(), Normalize(NewBinary(Power, Param(), c(1)))))
}

func TestNormalizeFractionByOne(t *testing.T) {
	assert.True(t, Equal(Param(), Normalize(NewBinary(Fraction, Param(), c(1)))))
}

func TestNormalizeMaxZeroOfNonnegative(t *testing.T) {
	e := NewFunction("max", NewFunction("gcd", Param(), c(2)), c(0))
	got := Normalize(e)
	assert.True(t, Equal(NewFunction("gcd", Param(), c(2)), got))
}

func TestNormalizeMaxZeroKeptWhenMayBeNegative(t *testing.T) {
	e := NewFunction("max", NewBinary(Difference, c(1), Param()), c(0))
	got := Normalize(e)
	assert.Equal(t, "max", got.Name)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	exprs := []*Expr{
		NewBinary(Sum, NewBinary(Sum, Param(), c(1)), c(-2)),
		NewBinary(Product, c(0), NewFunction("gcd", Param(), c(4))),
		NewFunction("max", NewBinary(Difference, Param(), c(1)), c(0)),
		NewBinary(Power, NewBinary(Sum, Param(), c(1)), c(1)),
	}
	for _, e := range exprs {
		once := Normalize(e)
		twice := Normalize(once)
		assert.True(t, Equal(once, twice), "normalize should be idempotent for %s", e.String())
	}
}

func TestCommutativeSortingIsDeterministic(t *testing.T) {
	a := NewBinary(Sum, c(1), Param())
	b := NewBinary(Sum, Param(), c(1))
	assert.True(t, Equal(Normalize(a), Normalize(b)))
}

func TestCanBeNegative(t *testing.T) {
	assert.False(t, CanBeNegative(c(3)))
	assert.True(t, CanBeNegative(c(-3)))
	assert.False(t, CanBeNegative(Param()))
	assert.True(t, CanBeNegative(NewFunction("x", Param())))
	assert.False(t, CanBeNegative(NewFunction("gcd", Param(), c(4))))
	assert.False(t, CanBeNegative(NewFunction("max", NewBinary(Difference, Param(), c(1)), c(0))))
}

func TestReplaceAll(t *testing.T) {
	e := NewFunction("f", Param())
	replaced := ReplaceAll(e, Param(), c(5))
	assert.True(t, Equal(NewFunction("f", c(5)), replaced))
}
