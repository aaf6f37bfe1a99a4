// Package formula implements LODA's Formula: a map from a call-pattern
// expression (a FUNCTION node, either general f(n) or a literal base
// case f(k)) to a right-hand side expr.Expr, plus the dependency,
// recursion and renaming queries the formula generator and printer need.
package formula

import (
	"loda/internal/expr"
)

// Entry pairs a call-pattern key with its defining expression.
type Entry struct {
	Key   *expr.Expr
	Value *expr.Expr
}

// entry is the internal storage pair, named distinctly from the
// exported Entry to keep Set/Get's signatures uncluttered.
type entry struct {
	key   *expr.Expr
	value *expr.Expr
}

// Formula is a finite mapping from call patterns to expressions. Entry
// order is not semantically meaningful; equality is by set of entries.
// It is implemented with a canonical-string index over the key so that
// structurally-equal keys (per expr.Equal) collide the way a value-typed
// map would, despite Expr being represented with pointers/slices.
type Formula struct {
	order []string
	byKey map[string]entry
}

// New returns an empty Formula.
func New() *Formula {
	return &Formula{byKey: make(map[string]entry)}
}

func keyString(e *expr.Expr) string {
	return e.String()
}

// Set stores (or overwrites) the entry key -> value. key must be a
// FUNCTION node.
func (f *Formula) Set(key, value *expr.Expr) {
	if f.byKey == nil {
		f.byKey = make(map[string]entry)
	}
	ks := keyString(key)
	if _, exists := f.byKey[ks]; !exists {
		f.order = append(f.order, ks)
	}
	f.byKey[ks] = entry{key: key, value: value}
}

// Get returns the RHS stored for key, if any.
func (f *Formula) Get(key *expr.Expr) (*expr.Expr, bool) {
	e, ok := f.byKey[keyString(key)]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Delete removes the entry for key, if present.
func (f *Formula) Delete(key *expr.Expr) {
	ks := keyString(key)
	if _, ok := f.byKey[ks]; !ok {
		return
	}
	delete(f.byKey, ks)
	for i, k := range f.order {
		if k == ks {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Entries returns all (key, value) pairs in insertion order.
func (f *Formula) Entries() []Entry {
	out := make([]Entry, 0, len(f.order))
	for _, ks := range f.order {
		e := f.byKey[ks]
		out = append(out, Entry{e.key, e.value})
	}
	return out
}

// Clone returns a deep, independent copy of f.
func (f *Formula) Clone() *Formula {
	c := New()
	for _, e := range f.Entries() {
		c.Set(e.Key.Clone(), e.Value.Clone())
	}
	return c
}

// GeneralKey returns the canonical general-case key f(n) for a function
// name.
func GeneralKey(name string) *expr.Expr {
	return expr.NewFunction(name, expr.Param())
}

// ContainsFunctionDef reports whether the general-case entry f(n) exists
// for name.
func (f *Formula) ContainsFunctionDef(name string) bool {
	_, ok := f.Get(GeneralKey(name))
	return ok
}

// functionNamesIn collects every FUNCTION name appearing anywhere in e.
func functionNamesIn(e *expr.Expr, into map[string]bool) {
	if e == nil {
		return
	}
	if e.Type == expr.Function {
		into[e.Name] = true
	}
	for _, c := range e.Children {
		functionNamesIn(c, into)
	}
}

// GetFunctionDeps returns the (caller, callee) pairs over the transitive
// closure of function-call dependencies, starting from each function's
// general-case RHS. If includeSelf is false, every (f, f) pair is
// omitted from the result, whether f calls itself directly or through
// other functions.
func (f *Formula) GetFunctionDeps(includeSelf bool) map[[2]string]bool {
	deps := make(map[[2]string]bool)
	names := f.functionNames()
	for _, caller := range names {
		visited := map[string]bool{}
		var walk func(name string)
		walk = func(name string) {
			rhs, ok := f.Get(GeneralKey(name))
			if !ok {
				return
			}
			callees := map[string]bool{}
			functionNamesIn(rhs, callees)
			for callee := range callees {
				if callee == caller && !includeSelf {
					continue
				}
				deps[[2]string{caller, callee}] = true
				if !visited[callee] {
					visited[callee] = true
					walk(callee)
				}
			}
		}
		visited[caller] = true
		walk(caller)
	}
	return deps
}

func (f *Formula) functionNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, e := range f.Entries() {
		if e.Key.Type == expr.Function && !seen[e.Key.Name] {
			seen[e.Key.Name] = true
			names = append(names, e.Key.Name)
		}
	}
	return names
}

// IsRecursive reports whether name is reachable from its own general-case
// RHS, directly or transitively.
func (f *Formula) IsRecursive(name string) bool {
	rhs, ok := f.Get(GeneralKey(name))
	if !ok {
		return false
	}
	visited := map[string]bool{}
	var walk func(e *expr.Expr) bool
	walk = func(e *expr.Expr) bool {
		callees := map[string]bool{}
		functionNamesIn(e, callees)
		for callee := range callees {
			if callee == name {
				return true
			}
			if visited[callee] {
				continue
			}
			visited[callee] = true
			if next, ok := f.Get(GeneralKey(callee)); ok {
				if walk(next) {
					return true
				}
			}
		}
		return false
	}
	return walk(rhs)
}

// ReplaceName atomically renames every occurrence of from to to, across
// both keys and right-hand sides.
func (f *Formula) ReplaceName(from, to string) {
	renamed := New()
	for _, e := range f.Entries() {
		key := renameKey(e.Key, from, to)
		value := renameExpr(e.Value, from, to)
		renamed.Set(key, value)
	}
	f.order = renamed.order
	f.byKey = renamed.byKey
}

func renameKey(e *expr.Expr, from, to string) *expr.Expr {
	if e.Type == expr.Function && e.Name == from {
		clone := e.Clone()
		clone.Name = to
		return clone
	}
	return e.Clone()
}

func renameExpr(e *expr.Expr, from, to string) *expr.Expr {
	if e == nil {
		return nil
	}
	out := &expr.Expr{Type: e.Type, Name: e.Name, Value: e.Value}
	if e.Type == expr.Function && e.Name == from {
		out.Name = to
	}
	if e.Children != nil {
		out.Children = make([]*expr.Expr, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = renameExpr(c, from, to)
		}
	}
	return out
}

// CollectEntries returns the subset of f reachable from rootName's
// entries: rootName's general case and all of its literal base cases,
// plus every entry (general and literal) of every function rootName
// transitively depends on. The result's dependency set is always a
// subset of its own keys.
func (f *Formula) CollectEntries(rootName string) *Formula {
	reachable := map[string]bool{rootName: true}
	if rhs, ok := f.Get(GeneralKey(rootName)); ok {
		var walk func(e *expr.Expr)
		walk = func(e *expr.Expr) {
			names := map[string]bool{}
			functionNamesIn(e, names)
			for name := range names {
				if reachable[name] {
					continue
				}
				reachable[name] = true
				if next, ok := f.Get(GeneralKey(name)); ok {
					walk(next)
				}
			}
		}
		walk(rhs)
	}
	out := New()
	for _, e := range f.Entries() {
		if e.Key.Type == expr.Function && reachable[e.Key.Name] {
			out.Set(e.Key.Clone(), e.Value.Clone())
		}
	}
	return out
}

// GetNumInitialTermsNeeded returns the largest literal k used as an
// argument to a call of name in any RHS, plus 1 — or 0 if name is never
// called with a literal argument.
func (f *Formula) GetNumInitialTermsNeeded(name string) int64 {
	max := int64(-1)
	var scan func(e *expr.Expr)
	scan = func(e *expr.Expr) {
		if e == nil {
			return
		}
		if e.Type == expr.Function && e.Name == name && len(e.Children) == 1 {
			if e.Children[0].Type == expr.Constant {
				if k, err := e.Children[0].Value.AsInt64(); err == nil && k > max {
					max = k
				}
			}
		}
		for _, c := range e.Children {
			scan(c)
		}
	}
	for _, e := range f.Entries() {
		scan(e.Value)
	}
	if max < 0 {
		return 0
	}
	return max + 1
}
