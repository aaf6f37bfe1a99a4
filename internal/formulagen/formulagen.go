// Package formulagen implements the Formula Generator: it compiles a
// loop-free program, or a single-loop program the Incremental Evaluator
// can partition, into a formula.Formula giving each memory cell's value
// as a function of n. Not every program is expressible this way — that
// is an ordinary outcome, signaled by a false return, not a caller error.
package formulagen

import (
	"fmt"
	"sort"
	"strconv"

	"loda/internal/expr"
	"loda/internal/formula"
	"loda/internal/inceval"
	"loda/internal/interp"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/program"
	"loda/internal/settings"
)

// SequenceSource resolves a `seq` instruction's OEIS id to the program it
// runs and the name used for it in generated formulas, so Generate can
// pull in dependency formulas when withDeps is requested.
type SequenceSource interface {
	ProgramFor(id int64) (*program.Program, bool)
	Name(id int64) string
}

// Generator holds the configuration and working state of one formula
// compilation. A Generator is reused across the main program and any of
// its SEQ dependencies within a single Generate call.
type Generator struct {
	pariMode  bool
	seqSource SequenceSource

	cellNames map[int64]string
	formula   *formula.Formula
}

// New builds a Generator. pariMode governs whether DIV/MOD/POW emit
// PARI-safe floor/truncate wrappers instead of the bare symbolic
// operators, and whether literal initial terms are folded into IF nodes
// at the end of generation.
func New(pariMode bool) *Generator {
	return &Generator{pariMode: pariMode}
}

// WithSequenceSource attaches the collaborator used to resolve SEQ
// dependencies when Generate is called with withDeps.
func (g *Generator) WithSequenceSource(s SequenceSource) *Generator {
	g.seqSource = s
	return g
}

func (g *Generator) cellName(cell int64) string {
	name, ok := g.cellNames[cell]
	if !ok {
		panic("formulagen: no name registered for cell")
	}
	return name
}

// memoryCellToName assigns names a, b, c, d, e, f, f1, f2, ... to memory
// cells 0, 1, 2, 3, 4, 5, 6, 7, ...
func memoryCellToName(cell int64) string {
	if cell < 0 {
		panic("formulagen: negative memory cell index")
	}
	const maxChar = 5
	if cell > maxChar {
		return string(rune('a'+maxChar)) + strconv.FormatInt(cell-maxChar, 10)
	}
	return string(rune('a' + cell))
}

// operandToExpr converts a program operand into its symbolic form: a
// constant stays a CONSTANT, a direct cell becomes FUNCTION(name,n), and
// an indirect operand is rejected — indirection has no symbolic meaning.
func (g *Generator) operandToExpr(op program.Operand) (*expr.Expr, bool) {
	switch op.Type {
	case program.Constant:
		return expr.NewConstant(op.Value), true
	case program.Direct:
		return expr.NewFunction(g.cellName(op.CellIndex()), expr.Param()), true
	default:
		return nil, false
	}
}

// fraction builds the DIV expression, wrapping it in floor/truncate when
// compiling for PARI/GP: floor is safe only when both operands are
// provably nonnegative, otherwise truncate matches integer-division
// semantics for negative operands.
func fraction(num, den *expr.Expr, pariMode bool) *expr.Expr {
	frac := expr.NewBinary(expr.Fraction, num, den)
	if !pariMode {
		return frac
	}
	name := "floor"
	if expr.CanBeNegative(num) || expr.CanBeNegative(den) {
		name = "truncate"
	}
	return expr.NewFunction(name, frac)
}

// update folds one operation into the running formula: it looks up the
// symbolic value currently associated with the source cell (if any),
// combines it with the target's current value per the operation's
// meaning, and stores the (normalized) result back under the target's
// key. Operations with no symbolic meaning here (loop control, CLR,
// DBG) make update report false.
func (g *Generator) update(op program.Operation) bool {
	source, ok := g.operandToExpr(op.Source)
	if !ok {
		return false
	}
	target, ok := g.operandToExpr(op.Target)
	if !ok {
		return false
	}
	if source.Type == expr.Function {
		if v, ok := g.formula.Get(source); ok {
			source = v
		}
	}
	prevTarget, _ := g.formula.Get(target)
	if prevTarget == nil {
		prevTarget = target
	}

	var res *expr.Expr
	switch op.Type {
	case program.Nop:
		res = prevTarget
	case program.Mov:
		res = source
	case program.Add:
		res = expr.NewBinary(expr.Sum, prevTarget, source)
	case program.Sub:
		res = expr.NewBinary(expr.Difference, prevTarget, source)
	case program.Mul:
		res = expr.NewBinary(expr.Product, prevTarget, source)
	case program.Div:
		res = fraction(prevTarget, source, g.pariMode)
	case program.Pow:
		pow := expr.NewBinary(expr.Power, prevTarget, source)
		if g.pariMode && expr.CanBeNegative(source) {
			res = expr.NewFunction("truncate", pow)
		} else {
			res = pow
		}
	case program.Mod:
		if g.pariMode && (expr.CanBeNegative(prevTarget) || expr.CanBeNegative(source)) {
			res = expr.NewBinary(expr.Difference, prevTarget,
				expr.NewBinary(expr.Product, source, fraction(prevTarget, source, g.pariMode)))
		} else {
			res = expr.NewBinary(expr.Modulus, prevTarget, source)
		}
	case program.Bin:
		if g.pariMode && expr.CanBeNegative(source) {
			return false
		}
		res = expr.NewFunction("binomial", prevTarget, source)
	case program.Gcd:
		res = expr.NewFunction("gcd", prevTarget, source)
	case program.Min:
		res = expr.NewFunction("min", prevTarget, source)
	case program.Max:
		res = expr.NewFunction("max", prevTarget, source)
	case program.Trn:
		res = expr.NewFunction("max",
			expr.NewBinary(expr.Difference, prevTarget, source),
			expr.NewConstant(number.Zero))
	case program.Seq:
		if op.Source.Type != program.Constant {
			return false
		}
		id, err := op.Source.Value.AsInt64()
		if err != nil {
			return false
		}
		name := fmt.Sprintf("A%06d", id)
		if g.seqSource != nil {
			name = g.seqSource.Name(id)
		}
		res = expr.NewFunction(name, prevTarget)
	default:
		return false
	}

	g.formula.Set(target, expr.Normalize(res))
	return true
}

func (g *Generator) updateProgram(p *program.Program) bool {
	for _, op := range p.Ops {
		if !g.update(op) {
			return false
		}
	}
	return true
}

// resolve replaces every FUNCTION(name,arg) reference appearing in right
// (other than a self-reference equal to left) by the formula's current
// definition of name, with arg substituted for the parameter — i.e. it
// inlines one level of call, stopping at self-reference or an unknown
// name so recursive definitions are preserved rather than unrolled.
func resolve(f *formula.Formula, left, right *expr.Expr) *expr.Expr {
	if right.Type == expr.Function {
		lookup := expr.NewFunction(right.Name, expr.Param())
		if !expr.Equal(lookup, left) {
			if rhs, ok := f.Get(lookup); ok {
				replacement := expr.ReplaceAll(rhs, expr.Param(), right.Children[0])
				return expr.Normalize(replacement)
			}
		}
	}
	if len(right.Children) == 0 {
		return right
	}
	children := make([]*expr.Expr, len(right.Children))
	for i, c := range right.Children {
		children[i] = resolve(f, left, c)
	}
	return &expr.Expr{Type: right.Type, Name: right.Name, Value: right.Value, Children: children}
}

// getNumInitialTermsNeeded computes how many literal base-case terms a
// function needs before its general (recursive-capable) definition
// takes over. A recursive function needs enough initial terms to cover
// both the literal references already present in the formula, and the
// cells the loop carries state through shifted by how negative the loop
// counter runs before the loop starts.
func getNumInitialTermsNeeded(cell int64, funcName string, f *formula.Formula, ie *inceval.Evaluator, interpreter *interp.Interpreter) int64 {
	m := mem.New()
	interpreter.Run(ie.GetPreLoop(), &m)
	loopCounterOffset := int64(0)
	if v, err := m.Get(ie.GetLoopCounterCell()).AsInt64(); err == nil && v < 0 {
		loopCounterOffset = -v
	}
	numStateful := int64(len(ie.GetStatefulCells()))
	globalNumTerms := loopCounterOffset + numStateful
	localNumTerms := f.GetNumInitialTermsNeeded(funcName)

	for _, op := range ie.GetLoopBody().Ops {
		if op.Type == program.Mov && op.Target.Type == program.Direct &&
			op.Target.CellIndex() == cell && op.Source.Type == program.Constant {
			if localNumTerms < 1 {
				localNumTerms = 1
			}
			break
		}
	}

	if f.IsRecursive(funcName) {
		if localNumTerms > globalNumTerms {
			return localNumTerms
		}
		return globalNumTerms
	}
	return localNumTerms
}

// initFormula seeds the formula with one entry per memory cell: cell 0
// (the input) maps to n itself. In non-IE mode every other cell starts
// at the constant 0 (a loop-free program computes them from scratch).
// In IE mode every other cell starts as its own value one iteration
// back — cellName(n-1) — establishing the recurrence the loop body's
// straight-line update() calls will build on.
func (g *Generator) initFormula(numCells int64, useIE bool) {
	g.formula = formula.New()
	for cell := int64(0); cell < numCells; cell++ {
		key, _ := g.operandToExpr(program.NewDirect(cell))
		if cell == 0 {
			g.formula.Set(key, expr.Param())
			continue
		}
		if useIE {
			prev := expr.NewBinary(expr.Difference, expr.Param(), expr.NewConstant(number.One))
			g.formula.Set(key, expr.ReplaceAll(key, expr.Param(), prev))
		} else {
			g.formula.Set(key, expr.NewConstant(number.Zero))
		}
	}
}

// generateSingle compiles p (with no SEQ-dependency expansion) into
// g.formula, returning false whenever any step of the contract fails.
func (g *Generator) generateSingle(p *program.Program) bool {
	if p.HasIndirectOperand() {
		return false
	}
	numCells := p.LargestDirectCell() + 1

	interpreter := interp.New(settings.Default())
	ie := inceval.New(interpreter)
	useIE := ie.Init(p)

	if useIE {
		// The cell-naming and initial-term scheme below assumes the
		// loop counts down the input cell itself.
		if ie.GetLoopCounterCell() != 0 {
			return false
		}
		for _, op := range ie.GetPreLoop().Ops {
			if op.Type == program.Mul || op.Type == program.Div {
				return false
			}
		}
	}

	g.cellNames = make(map[int64]string, numCells)
	for cell := int64(0); cell < numCells; cell++ {
		g.cellNames[cell] = memoryCellToName(cell)
	}

	g.initFormula(numCells, false)
	if useIE {
		if !g.updateProgram(ie.GetPreLoop()) {
			return false
		}
		paramKey, _ := g.operandToExpr(program.NewDirect(0))
		saved, _ := g.formula.Get(paramKey)
		g.initFormula(numCells, true)
		g.formula.Set(paramKey, saved)
	}

	main := p
	if useIE {
		main = ie.GetLoopBody()
	}
	if !g.updateProgram(main) {
		return false
	}

	if useIE {
		frozen := g.formula.Clone()
		for _, e := range g.formula.Entries() {
			g.formula.Set(e.Key, expr.Normalize(resolve(frozen, e.Key, e.Value)))
		}

		if !g.applyPostLoop(ie) {
			return false
		}
	}

	g.formula = g.formula.CollectEntries(g.cellName(program.OutputCell))

	if useIE {
		g.addInitialTerms(ie, interpreter, numCells)
		g.resolveIdentities()
		g.formula = g.formula.CollectEntries(g.cellName(program.OutputCell))
	}

	if !g.withinComplexityLimits() {
		return false
	}

	g.compactHelperNames(numCells)

	if g.pariMode {
		g.convertInitialTermsToIf()
	}
	return true
}

// applyPostLoop folds the post-loop code into the formula: a plain
// direct-to-direct MOV rebinds a cell's key to another cell's current
// expression directly (no arithmetic wrapper), anything else goes
// through the ordinary update() path. Once any arithmetic has run, a
// further direct MOV is no longer allowed to rebind a key verbatim.
func (g *Generator) applyPostLoop(ie *inceval.Evaluator) bool {
	hasArithmetic := false
	wroteOutput := false
	for _, op := range ie.GetPostLoop().Ops {
		meta := program.GetMetadata(op.Type)
		target, ok := g.operandToExpr(op.Target)
		if !ok {
			return false
		}
		readsOutput := op.Source.Type == program.Direct && op.Source.CellIndex() == program.OutputCell
		writesOutputAndReads := op.Target.Type == program.Direct && op.Target.CellIndex() == program.OutputCell && meta.ReadsTarget
		if !wroteOutput && (readsOutput || writesOutputAndReads) {
			return false
		}
		if op.Type == program.Mov && op.Source.Type == program.Direct {
			if hasArithmetic {
				return false
			}
			if op.Target.Type == program.Direct && op.Target.CellIndex() == program.OutputCell {
				wroteOutput = true
			}
			source, _ := g.operandToExpr(op.Source)
			g.formula.Set(target, source)
		} else {
			if !g.update(op) {
				return false
			}
			hasArithmetic = true
		}
	}
	return true
}

// addInitialTerms records, for every cell, the literal base-case terms
// f(0), f(1), ... that getNumInitialTermsNeeded asks for, since a
// recursive definition alone can't bootstrap its own first values. The
// value recorded for f(k) is the cell's value after k loop iterations,
// with the post-loop applied.
func (g *Generator) addInitialTerms(ie *inceval.Evaluator, interpreter *interp.Interpreter, numCells int64) {
	numTerms := make([]int64, numCells)
	maxTerms := int64(0)
	for cell := int64(0); cell < numCells; cell++ {
		numTerms[cell] = getNumInitialTermsNeeded(cell, g.cellName(cell), g.formula, ie, interpreter)
		if numTerms[cell] > maxTerms {
			maxTerms = numTerms[cell]
		}
	}

	for offset := int64(0); offset < maxTerms; offset++ {
		state := ie.GetLoopState()
		interpreter.Run(ie.GetPostLoop(), &state)
		for cell := int64(0); cell < numCells; cell++ {
			if offset >= numTerms[cell] {
				continue
			}
			index := expr.NewConstant(number.FromInt64(offset))
			key := expr.NewFunction(g.cellName(cell), index)
			g.formula.Set(key, expr.NewConstant(state.Get(cell)))
		}
		if err := ie.Next(); err != nil {
			return
		}
	}
}

// resolveIdentities removes a helper function that turns out to be a
// pure alias of another (f(n) = g(n), with neither side further
// constrained) by renaming it away entirely.
func (g *Generator) resolveIdentities() {
	for _, e := range g.formula.Entries() {
		if expr.IsSimpleFunction(e.Key) && expr.IsSimpleFunction(e.Value) {
			g.formula.Delete(e.Key)
			g.formula.ReplaceName(e.Value.Name, e.Key.Name)
		}
	}
}

// withinComplexityLimits rejects formulas with more than two distinct
// defined functions, or more than one recursive function, or a
// recursive function with more than one distinct callee — generated
// formulas beyond this shape are not considered worth emitting; a
// simpler closed form or a flagged miss is preferable to an unreadable
// mutual recursion.
func (g *Generator) withinComplexityLimits() bool {
	deps := g.formula.GetFunctionDeps(true)
	keys := map[string]bool{}
	for _, e := range g.formula.Entries() {
		if e.Key.Type == expr.Function {
			keys[e.Key.Name] = true
		}
	}
	recursive := map[string]bool{}
	calleesOf := map[string]map[string]bool{}
	for pair := range deps {
		if pair[0] == pair[1] {
			recursive[pair[0]] = true
		}
		if calleesOf[pair[0]] == nil {
			calleesOf[pair[0]] = map[string]bool{}
		}
		calleesOf[pair[0]][pair[1]] = true
	}
	if len(keys) > 2 {
		return false
	}
	if len(recursive) > 1 {
		return false
	}
	for r := range recursive {
		if len(calleesOf[r]) > 1 {
			return false
		}
	}
	return true
}

// compactHelperNames closes gaps in the helper function numbering left
// by cells the formula no longer references, so e.g. a surviving "c"
// and "f" become "b" and "c".
func (g *Generator) compactHelperNames(numCells int64) {
	changed := true
	for changed {
		changed = false
		for cell := int64(1); cell < numCells; cell++ {
			from := memoryCellToName(cell)
			to := memoryCellToName(cell - 1)
			if g.formula.ContainsFunctionDef(from) && !g.formula.ContainsFunctionDef(to) {
				g.formula.ReplaceName(from, to)
				changed = true
			}
		}
	}
}

// convertInitialTermsToIf folds a literal base case f(k) into the
// general definition of f as an IF node, since PARI/GP has no separate
// notion of a piecewise sequence definition.
func (g *Generator) convertInitialTermsToIf() {
	for _, e := range g.formula.Entries() {
		if e.Key.Type != expr.Function || len(e.Key.Children) != 1 || e.Key.Children[0].Type != expr.Constant {
			continue
		}
		general := expr.NewFunction(e.Key.Name, expr.Param())
		generalRHS, ok := g.formula.Get(general)
		if !ok {
			continue
		}
		g.formula.Set(general, expr.NewIf(e.Key.Children[0], e.Value, generalRHS))
		g.formula.Delete(e.Key)
	}
}

// addProgramIds walks p (and, recursively, every program a SEQ
// instruction in it refers to) collecting the set of OEIS ids it
// depends on.
func addProgramIds(p *program.Program, ids map[int64]bool, src SequenceSource) bool {
	for _, op := range p.Ops {
		if op.Type != program.Seq || op.Source.Type != program.Constant {
			continue
		}
		id, err := op.Source.Value.AsInt64()
		if err != nil {
			return false
		}
		if ids[id] {
			continue
		}
		ids[id] = true
		q, ok := src.ProgramFor(id)
		if !ok {
			return false
		}
		if !addProgramIds(q, ids, src) {
			return false
		}
	}
	return true
}

// addFormula merges extension's entries into main, first renaming any
// of extension's helper functions whose name collides with one main
// already defines, so the two formulas can coexist in one namespace.
func addFormula(main, extension *formula.Formula) {
	numCells := int64(len(main.Entries())+len(extension.Entries())) + 1
	for i := int64(0); i < numCells; i++ {
		from := memoryCellToName(i)
		if main.ContainsFunctionDef(from) && extension.ContainsFunctionDef(from) {
			for j := int64(1); j < numCells; j++ {
				to := memoryCellToName(j)
				if !main.ContainsFunctionDef(to) && !extension.ContainsFunctionDef(to) {
					extension.ReplaceName(from, to)
					break
				}
			}
		}
	}
	for _, e := range extension.Entries() {
		main.Set(e.Key, e.Value)
	}
}

// Generate compiles p into a formula. When withDeps is true, every
// sequence p refers to via SEQ is compiled too and folded into the
// result under its own name, so the result is self-contained. It
// requires a SequenceSource to have been attached via
// WithSequenceSource. Generate returns false whenever p (or one of its
// dependencies) is not expressible as a formula — an ordinary outcome,
// not an error.
func (g *Generator) Generate(p *program.Program, withDeps bool) (*formula.Formula, bool) {
	if !g.generateSingle(p) {
		return nil, false
	}
	result := g.formula.Clone()
	if !withDeps {
		return result, true
	}
	if g.seqSource == nil {
		return nil, false
	}

	ids := map[int64]bool{}
	if !addProgramIds(p, ids, g.seqSource) {
		return nil, false
	}
	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, id := range sorted {
		p2, ok := g.seqSource.ProgramFor(id)
		if !ok {
			return nil, false
		}
		if !g.generateSingle(p2) {
			return nil, false
		}
		from := g.cellName(program.InputCell)
		to := g.seqSource.Name(id)
		g.formula.ReplaceName(from, to)
		addFormula(result, g.formula)
	}
	return result, true
}
