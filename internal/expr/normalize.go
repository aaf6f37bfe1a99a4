package expr

import "loda/internal/number"

// Normalize rewrites e to a canonical form by repeatedly applying a
// fixed set of bottom-up rewrites until none apply: constant folding,
// flattening of nested SUM/PRODUCT, sorting of commutative children by
// the total order below, and a handful of identity collapses. Normalize
// is idempotent: Normalize(Normalize(e)) == Normalize(e).
func Normalize(e *Expr) *Expr {
	for {
		next := normalizeStep(e)
		if Equal(next, e) {
			return next
		}
		e = next
	}
}

func normalizeStep(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	// bottom-up: normalize children first
	children := make([]*Expr, len(e.Children))
	for i, c := range e.Children {
		children[i] = normalizeStep(c)
	}
	n := &Expr{Type: e.Type, Name: e.Name, Value: e.Value, Children: children}

	switch n.Type {
	case Sum:
		n = flatten(n, Sum)
		n = foldConstants(n, Sum)
		n = sortCommutative(n)
		n = collapseAdditiveIdentity(n)
	case Product:
		n = flatten(n, Product)
		n = foldConstants(n, Product)
		n = sortCommutative(n)
		n = collapseMultiplicativeIdentity(n)
	case Difference:
		n = collapseDifference(n)
	case Power:
		n = collapsePower(n)
	case Fraction:
		n = collapseFraction(n)
	case Function:
		n = collapseMaxZero(n)
	}
	return n
}

// flatten merges nested SUM-in-SUM or PRODUCT-in-PRODUCT children into
// one flat child list.
func flatten(e *Expr, t Type) *Expr {
	if e.Type != t {
		return e
	}
	var out []*Expr
	for _, c := range e.Children {
		if c.Type == t {
			out = append(out, c.Children...)
		} else {
			out = append(out, c)
		}
	}
	return &Expr{Type: t, Children: out}
}

// foldConstants combines all constant children of a SUM/PRODUCT under
// the associative/commutative operator, dropping the identity element
// (0 for SUM, 1 for PRODUCT) when another child remains.
func foldConstants(e *Expr, t Type) *Expr {
	var acc number.Number
	haveConst := false
	var rest []*Expr
	for _, c := range e.Children {
		if c.Type == Constant {
			if !haveConst {
				acc = c.Value
				haveConst = true
			} else if t == Sum {
				acc = number.Add(acc, c.Value)
			} else {
				acc = number.Mul(acc, c.Value)
			}
		} else {
			rest = append(rest, c)
		}
	}
	if !haveConst {
		return e
	}
	identity := number.Zero
	if t == Product {
		identity = number.One
	}
	if len(rest) > 0 && number.Equal(acc, identity) {
		if len(rest) == 1 {
			return rest[0]
		}
		return &Expr{Type: t, Children: rest}
	}
	rest = append(rest, NewConstant(acc))
	if len(rest) == 1 {
		return rest[0]
	}
	return &Expr{Type: t, Children: rest}
}

// rank assigns the total order used to sort commutative children:
// CONSTANT < PARAMETER < FUNCTION(name, then children) < other algebraic
// nodes by kind then children.
func rank(e *Expr) int {
	switch e.Type {
	case Constant:
		return 0
	case Parameter:
		return 1
	case Function:
		return 2
	default:
		return 3
	}
}

func less(a, b *Expr) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch a.Type {
	case Constant:
		if a.Value.IsInfinite() != b.Value.IsInfinite() {
			return b.Value.IsInfinite()
		}
		if a.Value.IsInfinite() {
			return false
		}
		return number.Cmp(a.Value, b.Value) < 0
	case Parameter:
		return a.Name < b.Name
	case Function:
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return lessChildren(a.Children, b.Children)
	default:
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return lessChildren(a.Children, b.Children)
	}
}

func lessChildren(a, b []*Expr) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if less(a[i], b[i]) {
			return true
		}
		if less(b[i], a[i]) {
			return false
		}
	}
	return len(a) < len(b)
}

// sortCommutative stably sorts the children of a SUM/PRODUCT node by the
// total order above.
func sortCommutative(e *Expr) *Expr {
	if len(e.Children) < 2 {
		return e
	}
	out := append([]*Expr(nil), e.Children...)
	// insertion sort: stable, and these child lists are always small
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && less(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return &Expr{Type: e.Type, Children: out}
}

func isZero(e *Expr) bool {
	return e.Type == Constant && !e.Value.IsInfinite() && number.Equal(e.Value, number.Zero)
}

func isOne(e *Expr) bool {
	return e.Type == Constant && !e.Value.IsInfinite() && number.Equal(e.Value, number.One)
}

// collapseAdditiveIdentity drops a 0 child from a SUM of exactly two
// children (0+x = x); larger sums have already had 0 folded away by
// foldConstants.
func collapseAdditiveIdentity(e *Expr) *Expr {
	if len(e.Children) == 2 {
		if isZero(e.Children[0]) {
			return e.Children[1]
		}
		if isZero(e.Children[1]) {
			return e.Children[0]
		}
	}
	return e
}

// collapseMultiplicativeIdentity handles 0*x = 0 and 1*x = x for a
// PRODUCT of exactly two children.
func collapseMultiplicativeIdentity(e *Expr) *Expr {
	if len(e.Children) == 2 {
		if isZero(e.Children[0]) || isZero(e.Children[1]) {
			return NewConstant(number.Zero)
		}
		if isOne(e.Children[0]) {
			return e.Children[1]
		}
		if isOne(e.Children[1]) {
			return e.Children[0]
		}
	}
	return e
}

// collapseDifference handles x-0 = x and canonicalizes a DIFFERENCE with
// a negative constant subtrahend into a SUM with its negation, so that
// -(-c) doesn't linger as two sign flips.
func collapseDifference(e *Expr) *Expr {
	left, right := e.Children[0], e.Children[1]
	if isZero(right) {
		return left
	}
	if right.Type == Constant && !right.Value.IsInfinite() && right.Value.Sign() < 0 {
		return normalizeStep(NewBinary(Sum, left, NewConstant(number.Neg(right.Value))))
	}
	if isZero(left) {
		if right.Type == Constant && !right.Value.IsInfinite() {
			return NewConstant(number.Neg(right.Value))
		}
	}
	return e
}

// collapsePower handles x^0=1 and x^1=x.
func collapsePower(e *Expr) *Expr {
	base, exp := e.Children[0], e.Children[1]
	if isOne(exp) {
		return base
	}
	if isZero(exp) {
		return NewConstant(number.One)
	}
	return e
}

// collapseFraction handles x/1 = x.
func collapseFraction(e *Expr) *Expr {
	if isOne(e.Children[1]) {
		return e.Children[0]
	}
	return e
}

// collapseMaxZero folds max(x, 0) to x when x is provably nonnegative.
func collapseMaxZero(e *Expr) *Expr {
	if e.Name != "max" || len(e.Children) != 2 {
		return e
	}
	if isZero(e.Children[1]) && !CanBeNegative(e.Children[0]) {
		return e.Children[0]
	}
	if isZero(e.Children[0]) && !CanBeNegative(e.Children[1]) {
		return e.Children[1]
	}
	return e
}

// CanBeNegative conservatively reports whether e might evaluate to a
// negative number. It returns true unless e is syntactically a
// nonnegative constant, a known-nonnegative function call (gcd,
// binomial with nonnegative children, max(_,0), floor of a nonnegative),
// the parameter n itself, or a SUM/PRODUCT of such.
func CanBeNegative(e *Expr) bool {
	switch e.Type {
	case Constant:
		return e.Value.IsInfinite() == false && e.Value.Sign() < 0
	case Parameter:
		return e.Name != "n"
	case Sum, Product:
		for _, c := range e.Children {
			if CanBeNegative(c) {
				return true
			}
		}
		return false
	case Function:
		switch e.Name {
		case "gcd", "binomial":
			for _, c := range e.Children {
				if CanBeNegative(c) {
					return true
				}
			}
			return false
		case "max":
			if len(e.Children) == 2 && isZero(e.Children[1]) {
				return false
			}
			return true
		case "floor":
			if len(e.Children) == 1 {
				return CanBeNegative(e.Children[0])
			}
			return true
		default:
			return true
		}
	default:
		return true
	}
}
