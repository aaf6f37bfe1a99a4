// Package interp implements the Interpreter: sequential execution of a
// program.Program over mem.Memory, bounded by a cycle budget and a
// maximum memory index.
package interp

import (
	"loda/internal/errs"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/program"
	"loda/internal/settings"
)

// cost is the cycle price of each instruction class. Loop control and
// moves are cheap; arithmetic that can blow up operand size costs more.
var cost = map[program.OpType]int64{
	program.Nop: 1,
	program.Mov: 1,
	program.Add: 1,
	program.Sub: 1,
	program.Mul: 2,
	program.Div: 2,
	program.Mod: 2,
	program.Pow: 3,
	program.Gcd: 3,
	program.Bin: 3,
	program.Min: 1,
	program.Max: 1,
	program.Trn: 1,
	program.Seq: 5,
	program.Lpb: 1,
	program.Lpe: 1,
	program.Clr: 1,
	program.Dbg: 1,
}

// SeqResolver resolves the `seq t,s` instruction: given the OEIS id held
// in its source operand, it evaluates that external program on the
// target cell's current value and returns the result. Interpreter.Run
// without a resolver rejects SEQ with UnsupportedOperand; supplying one
// is how the Sequence store collaborator (§6) is wired into execution.
type SeqResolver interface {
	ResolveSeq(id int64, input number.Number) (number.Number, error)
}

// Interpreter executes programs. It is not safe for concurrent use by
// multiple goroutines; each caller needing concurrent evaluation must
// construct its own Interpreter.
type Interpreter struct {
	settings settings.Settings
	seq      SeqResolver
}

// New builds an Interpreter bound to the given settings' cycle and
// memory ceilings, with no SEQ resolver.
func New(s settings.Settings) *Interpreter {
	return &Interpreter{settings: s}
}

// WithSeqResolver returns a copy of the Interpreter that resolves `seq`
// instructions through r.
func (ip *Interpreter) WithSeqResolver(r SeqResolver) *Interpreter {
	return &Interpreter{settings: ip.settings, seq: r}
}

// loopFrame tracks one active LPB: the window to compare, the Memory
// snapshot of that window taken at loop entry / after the last
// iteration, and the whole Memory at the start of the current iteration,
// which is restored when the loop ends.
type loopFrame struct {
	counterCell int64
	window      int64
	baseline    mem.Memory
	saved       mem.Memory
	bodyStart   int
}

// Run executes p against m in place and returns the number of cycles
// consumed. It fails with *errs.CyclesExceeded if the budget is
// exhausted, or *errs.MemoryExceeded if a write addresses a cell beyond
// the memory ceiling.
func (ip *Interpreter) Run(p *program.Program, m *mem.Memory) (int64, error) {
	var cycles int64
	var frames []loopFrame

	pc := 0
	for pc < len(p.Ops) {
		op := p.Ops[pc]

		cycles += cost[op.Type]
		if cycles > ip.settings.MaxCycles {
			return cycles, &errs.CyclesExceeded{MaxCycles: ip.settings.MaxCycles}
		}

		if err := checkCeiling(op, ip.settings.MaxMemory); err != nil {
			return cycles, err
		}

		switch op.Type {
		case program.Lpb:
			counter := op.Target.CellIndex()
			if counterIsInfinite(m, counter) {
				pc = matchingLpe(p, pc) + 1
				continue
			}
			window, err := windowOf(op, m)
			if err != nil {
				return cycles, err
			}
			frames = append(frames, loopFrame{
				counterCell: counter,
				window:      window,
				baseline:    m.Fragment(counter, window),
				saved:       m.Fragment(0, ip.settings.MaxMemory+1),
				bodyStart:   pc + 1,
			})
			pc++
			continue

		case program.Lpe:
			if len(frames) == 0 {
				return cycles, &errs.Internal{Message: "lpe without matching lpb at runtime"}
			}
			top := &frames[len(frames)-1]
			current := m.Fragment(top.counterCell, top.window)
			if counterIsInfinite(m, top.counterCell) {
				frames = frames[:len(frames)-1]
				pc++
				continue
			}
			// Repeat only while the window strictly decreases and stays
			// nonnegative; otherwise undo the last iteration and exit.
			progress := current.IsLess(top.baseline, top.window)
			for i := int64(0); progress && i < top.window; i++ {
				if v := current.Get(i); !v.IsInfinite() && v.Sign() < 0 {
					progress = false
				}
			}
			if progress {
				top.baseline = current
				top.saved = m.Fragment(0, ip.settings.MaxMemory+1)
				pc = top.bodyStart
				continue
			}
			*m = top.saved
			frames = frames[:len(frames)-1]
			pc++
			continue

		default:
			if err := ip.execSimple(op, m); err != nil {
				return cycles, err
			}
			pc++
		}
	}
	return cycles, nil
}

func counterIsInfinite(m *mem.Memory, cell int64) bool {
	return m.Get(cell).IsInfinite()
}

// matchingLpe returns the index of the Lpe that closes the Lpb at
// lpbIdx, counting nested Lpb/Lpe pairs. p is assumed well-formed.
func matchingLpe(p *program.Program, lpbIdx int) int {
	depth := 0
	for i := lpbIdx; i < len(p.Ops); i++ {
		switch p.Ops[i].Type {
		case program.Lpb:
			depth++
		case program.Lpe:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(p.Ops) - 1
}

func windowOf(op program.Operation, m *mem.Memory) (int64, error) {
	if op.Source.Type == program.Constant {
		w, err := op.Source.Value.AsInt64()
		if err != nil || w < 1 {
			return 1, nil
		}
		return w, nil
	}
	w, err := resolveOperand(op.Source, m).AsInt64()
	if err != nil || w < 1 {
		return 1, nil
	}
	return w, nil
}

func checkCeiling(op program.Operation, maxMemory int64) error {
	check := func(o program.Operand) error {
		if o.Type == program.Direct || o.Type == program.Indirect {
			if i := o.CellIndex(); i > maxMemory {
				return &errs.MemoryExceeded{MaxMemory: maxMemory, Attempted: i}
			}
		}
		return nil
	}
	if err := check(op.Target); err != nil {
		return err
	}
	return check(op.Source)
}

// resolveOperand dereferences an operand to its Number value.
func resolveOperand(o program.Operand, m *mem.Memory) number.Number {
	switch o.Type {
	case program.Constant:
		return o.Value
	case program.Direct:
		return m.Get(o.CellIndex())
	case program.Indirect:
		idx, err := m.Get(o.CellIndex()).AsInt64()
		if err != nil {
			return number.Infinity
		}
		return m.Get(idx)
	default:
		panic("interp: unknown operand type")
	}
}

// targetCell returns the concrete cell index a target operand writes to.
func targetCell(o program.Operand, m *mem.Memory) (int64, error) {
	switch o.Type {
	case program.Direct:
		return o.CellIndex(), nil
	case program.Indirect:
		idx, err := m.Get(o.CellIndex()).AsInt64()
		if err != nil {
			return 0, &errs.UnsupportedOperand{Context: "indirect target address is infinite"}
		}
		return idx, nil
	default:
		return 0, &errs.Internal{Message: "target operand must not be constant"}
	}
}

func (ip *Interpreter) execSimple(op program.Operation, m *mem.Memory) error {
	tgt, err := targetCell(op.Target, m)
	if err != nil {
		return err
	}
	src := resolveOperand(op.Source, m)
	prev := m.Get(tgt)

	switch op.Type {
	case program.Nop, program.Dbg:
		return nil
	case program.Mov:
		m.Set(tgt, src)
	case program.Add:
		m.Set(tgt, number.Add(prev, src))
	case program.Sub:
		m.Set(tgt, number.Sub(prev, src))
	case program.Mul:
		m.Set(tgt, number.Mul(prev, src))
	case program.Div:
		m.Set(tgt, number.Div(prev, src))
	case program.Mod:
		m.Set(tgt, number.Mod(prev, src))
	case program.Pow:
		m.Set(tgt, number.Pow(prev, src))
	case program.Gcd:
		m.Set(tgt, number.Gcd(prev, src))
	case program.Bin:
		m.Set(tgt, number.Bin(prev, src))
	case program.Min:
		m.Set(tgt, number.Min(prev, src))
	case program.Max:
		m.Set(tgt, number.Max(prev, src))
	case program.Trn:
		m.Set(tgt, number.Trn(prev, src))
	case program.Clr:
		length, err := src.AsInt64()
		if err != nil {
			return &errs.Internal{Message: "clr length must be finite"}
		}
		m.Clear(tgt, length)
	case program.Seq:
		if ip.seq == nil {
			return &errs.UnsupportedOperand{Context: "seq requires a SeqResolver; none configured"}
		}
		id, err := src.AsInt64()
		if err != nil {
			return &errs.Internal{Message: "seq source id must be finite"}
		}
		result, err := ip.seq.ResolveSeq(id, prev)
		if err != nil {
			return err
		}
		m.Set(tgt, result)
	default:
		return &errs.Internal{Message: "unhandled operation type"}
	}
	return nil
}

// Eval runs p with input cell 0 set to 0,1,2,...,numTerms-1 and collects
// the output cell after each run, using a fresh Memory per term.
func (ip *Interpreter) Eval(p *program.Program, numTerms int) ([]number.Number, error) {
	result := make([]number.Number, 0, numTerms)
	for n := 0; n < numTerms; n++ {
		m := mem.New()
		m.Set(program.InputCell, number.FromInt64(int64(n)))
		if _, err := ip.Run(p, &m); err != nil {
			return result, err
		}
		result = append(result, m.Get(program.OutputCell))
	}
	return result, nil
}
