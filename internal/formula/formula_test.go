package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"loda/internal/expr"
	"loda/internal/number"
)

func c(v int64) *expr.Expr { return expr.NewConstant(number.FromInt64(v)) }

func TestSetGetRoundTrip(t *testing.T) {
	f := New()
	f.Set(GeneralKey("a"), expr.Param())
	v, ok := f.Get(GeneralKey("a"))
	assert.True(t, ok)
	assert.True(t, expr.Equal(expr.Param(), v))
}

func TestContainsFunctionDef(t *testing.T) {
	f := New()
	f.Set(GeneralKey("a"), expr.Param())
	assert.True(t, f.ContainsFunctionDef("a"))
	assert.False(t, f.ContainsFunctionDef("b"))
}

func TestIsRecursive(t *testing.T) {
	f := New()
	// a(n) = a(n-1) + a(n-2)
	rhs := expr.NewBinary(expr.Sum,
		expr.NewFunction("a", expr.NewBinary(expr.Difference, expr.Param(), c(1))),
		expr.NewFunction("a", expr.NewBinary(expr.Difference, expr.Param(), c(2))))
	f.Set(GeneralKey("a"), rhs)
	assert.True(t, f.IsRecursive("a"))
}

func TestIsRecursiveFalseForNonRecursive(t *testing.T) {
	f := New()
	f.Set(GeneralKey("a"), expr.NewBinary(expr.Product, expr.Param(), expr.Param()))
	assert.False(t, f.IsRecursive("a"))
}

func TestIsRecursiveTransitive(t *testing.T) {
	f := New()
	f.Set(GeneralKey("a"), expr.NewFunction("b", expr.Param()))
	f.Set(GeneralKey("b"), expr.NewFunction("a", expr.NewBinary(expr.Difference, expr.Param(), c(1))))
	assert.True(t, f.IsRecursive("a"))
	assert.True(t, f.IsRecursive("b"))
}

func TestReplaceNameIsInvolutive(t *testing.T) {
	f := New()
	f.Set(GeneralKey("a"), expr.NewFunction("b", expr.Param()))
	f.Set(GeneralKey("b"), expr.Param())
	before := f.Clone()

	f.ReplaceName("b", "z")
	f.ReplaceName("z", "b")

	assert.ElementsMatch(t, entryStrings(before), entryStrings(f))
}

func entryStrings(f *Formula) []string {
	var out []string
	for _, e := range f.Entries() {
		out = append(out, e.Key.String()+"="+e.Value.String())
	}
	return out
}

func TestCollectEntriesIsClosed(t *testing.T) {
	f := New()
	f.Set(GeneralKey("a"), expr.NewFunction("b", expr.Param()))
	f.Set(GeneralKey("b"), expr.Param())
	f.Set(GeneralKey("c"), expr.Param()) // unrelated, should be dropped

	sub := f.CollectEntries("a")
	names := map[string]bool{}
	for _, e := range sub.Entries() {
		names[e.Key.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
	assert.False(t, names["c"])

	// closure: every dependency of the result is also a key in the result
	deps := sub.GetFunctionDeps(true)
	for pair := range deps {
		assert.True(t, names[pair[1]], "dependency %s should be within collected entries", pair[1])
	}
}

func TestGetNumInitialTermsNeeded(t *testing.T) {
	f := New()
	rhs := expr.NewBinary(expr.Sum, expr.NewFunction("a", c(0)), expr.NewFunction("a", c(2)))
	f.Set(GeneralKey("b"), rhs)
	assert.Equal(t, int64(3), f.GetNumInitialTermsNeeded("a"))
	assert.Equal(t, int64(0), f.GetNumInitialTermsNeeded("nonexistent"))
}
