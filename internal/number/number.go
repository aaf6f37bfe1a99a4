// Package number implements LODA's saturating arbitrary-precision integer
// type: a finite big.Int or a single absorbing infinity value.
package number

import (
	"fmt"
	"math/big"
)

// Number is either a finite arbitrary-precision integer or the absorbing
// element Infinity. It is modeled as a tagged variant rather than a
// sentinel value so that overflow and division-by-zero can never be
// confused with a legitimate finite result.
type Number struct {
	inf bool
	val big.Int
}

// Zero, One and infinity constants used throughout the core.
var (
	Zero     = FromInt64(0)
	One      = FromInt64(1)
	Infinity = Number{inf: true}
)

// FromInt64 builds a finite Number from a machine integer.
func FromInt64(v int64) Number {
	var n Number
	n.val.SetInt64(v)
	return n
}

// FromBigInt builds a finite Number that copies v.
func FromBigInt(v *big.Int) Number {
	var n Number
	n.val.Set(v)
	return n
}

// IsInfinite reports whether n is the absorbing infinity element.
func (n Number) IsInfinite() bool {
	return n.inf
}

// BigInt returns the underlying big.Int. It panics if n is infinite;
// callers must check IsInfinite first.
func (n Number) BigInt() *big.Int {
	if n.inf {
		panic("number: BigInt called on Infinity")
	}
	return new(big.Int).Set(&n.val)
}

// OutOfRangeError is returned by AsInt64 when a Number cannot be
// represented in the requested range.
type OutOfRangeError struct {
	Reason string
}

func (e *OutOfRangeError) Error() string {
	return "out of range: " + e.Reason
}

// AsInt64 converts a finite Number to an int64, failing with
// OutOfRangeError if n is Infinity or does not fit in 64 bits.
func (n Number) AsInt64() (int64, error) {
	if n.inf {
		return 0, &OutOfRangeError{Reason: "value is infinite"}
	}
	if !n.val.IsInt64() {
		return 0, &OutOfRangeError{Reason: "value exceeds 64-bit range"}
	}
	return n.val.Int64(), nil
}

// Sign returns -1, 0 or 1 for a finite Number, mirroring big.Int.Sign. It
// panics on Infinity since ordering with Infinity is undefined.
func (n Number) Sign() int {
	if n.inf {
		panic("number: Sign called on Infinity")
	}
	return n.val.Sign()
}

func binary(a, b Number, f func(x, y *big.Int) *big.Int) Number {
	if a.inf || b.inf {
		return Infinity
	}
	r := f(&a.val, &b.val)
	return FromBigInt(r)
}

// Neg returns -n, saturating to Infinity if n is infinite.
func Neg(n Number) Number {
	if n.inf {
		return Infinity
	}
	return FromBigInt(new(big.Int).Neg(&n.val))
}

// Add returns a+b.
func Add(a, b Number) Number {
	return binary(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) })
}

// Sub returns a-b.
func Sub(a, b Number) Number {
	return binary(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) })
}

// Mul returns a*b.
func Mul(a, b Number) Number {
	return binary(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Mul(x, y) })
}

// Div returns the truncated quotient a/b. Division by zero saturates to
// Infinity instead of panicking, matching register-machine semantics.
func Div(a, b Number) Number {
	if a.inf || b.inf {
		return Infinity
	}
	if b.val.Sign() == 0 {
		return Infinity
	}
	q := new(big.Int)
	q.Quo(&a.val, &b.val)
	return FromBigInt(q)
}

// Mod returns the truncated remainder a%b (sign follows a, per Go/C
// truncation, not Euclidean rounding). Modulus by zero saturates to
// Infinity.
func Mod(a, b Number) Number {
	if a.inf || b.inf {
		return Infinity
	}
	if b.val.Sign() == 0 {
		return Infinity
	}
	r := new(big.Int)
	r.Rem(&a.val, &b.val)
	return FromBigInt(r)
}

// Pow returns a^b. A negative exponent saturates to Infinity (the register
// machine has no rational numbers); an exponent that does not fit a uint
// also saturates.
func Pow(a, b Number) Number {
	if a.inf || b.inf {
		return Infinity
	}
	if b.val.Sign() < 0 {
		return Infinity
	}
	if !b.val.IsUint64() {
		return Infinity
	}
	exp := b.val.Uint64()
	if a.val.Sign() == 0 && exp == 0 {
		return One
	}
	r := new(big.Int).Exp(&a.val, &b.val, nil)
	return FromBigInt(r)
}

// Gcd returns gcd(a,b), with Gcd(0,0)=0 by convention.
func Gcd(a, b Number) Number {
	if a.inf || b.inf {
		return Infinity
	}
	x, y := new(big.Int).Abs(&a.val), new(big.Int).Abs(&b.val)
	if x.Sign() == 0 && y.Sign() == 0 {
		return Zero
	}
	r := new(big.Int).GCD(nil, nil, x, y)
	return FromBigInt(r)
}

// Min returns the smaller of a, b.
func Min(a, b Number) Number {
	if a.inf || b.inf {
		return Infinity
	}
	if a.val.Cmp(&b.val) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a, b.
func Max(a, b Number) Number {
	if a.inf || b.inf {
		return Infinity
	}
	if a.val.Cmp(&b.val) >= 0 {
		return a
	}
	return b
}

// Trn returns max(x-y, 0), the truncated subtraction register machines
// fall back to instead of going negative.
func Trn(x, y Number) Number {
	d := Sub(x, y)
	if d.inf {
		return Infinity
	}
	if d.val.Sign() < 0 {
		return Zero
	}
	return d
}

// Bin returns the binomial coefficient C(n,k). It returns 0 for k<0 and
// for k>n when n>=0; for n<0 it follows the generalized binomial
// identity C(n,k) = (-1)^k * C(k-n-1,k).
func Bin(n, k Number) Number {
	if n.inf || k.inf {
		return Infinity
	}
	if k.val.Sign() < 0 {
		return Zero
	}
	if n.val.Sign() >= 0 && k.val.Cmp(&n.val) > 0 {
		return Zero
	}
	if n.val.Sign() < 0 {
		// C(n,k) = (-1)^k * C(k-n-1, k)
		m := new(big.Int).Sub(&k.val, &n.val)
		m.Sub(m, big.NewInt(1))
		c := new(big.Int).Binomial(m.Int64(), k.val.Int64())
		if k.val.Bit(0) == 1 {
			c.Neg(c)
		}
		return FromBigInt(c)
	}
	c := new(big.Int).Binomial(n.val.Int64(), k.val.Int64())
	return FromBigInt(c)
}

// Cmp compares two finite Numbers (-1, 0, 1). It panics if either operand
// is Infinity: ordering with Infinity is undefined and must fail loudly
// rather than silently picking a direction.
func Cmp(a, b Number) int {
	if a.inf || b.inf {
		panic("number: Cmp called with an infinite operand")
	}
	return a.val.Cmp(&b.val)
}

// Equal reports structural equality; Infinity equals Infinity reflexively.
func Equal(a, b Number) bool {
	if a.inf != b.inf {
		return false
	}
	if a.inf {
		return true
	}
	return a.val.Cmp(&b.val) == 0
}

// Parse reads a Number from its decimal text form, or the infinity
// sentinel "inf".
func Parse(s string) (Number, error) {
	if s == "inf" {
		return Infinity, nil
	}
	var v big.Int
	if _, ok := v.SetString(s, 10); !ok {
		return Number{}, fmt.Errorf("number: cannot parse %q", s)
	}
	return FromBigInt(&v), nil
}

// String renders n in decimal, or "inf" for Infinity.
func (n Number) String() string {
	if n.inf {
		return "inf"
	}
	return n.val.String()
}
