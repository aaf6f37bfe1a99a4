// Package inceval implements the Incremental Evaluator: it splits a
// single-loop program into pre-loop, body and post-loop sub-programs and
// then advances the sequence one term at a time by re-running only the
// body against a carried-forward Memory, instead of restarting the whole
// program from input 0 on every term.
package inceval

import (
	"loda/internal/interp"
	"loda/internal/mem"
	"loda/internal/program"
)

// Evaluator holds the (preLoop, body, postLoop) split of a program plus
// the running state needed to advance it one term at a time. It is not
// safe for concurrent use; a caller wanting to fork its progress must
// clone the LoopState explicitly and build a fresh Evaluator around the
// clone.
type Evaluator struct {
	interpreter *interp.Interpreter

	preLoop  *program.Program
	body     *program.Program
	postLoop *program.Program

	counterCell   int64
	statefulCells map[int64]bool

	loopState mem.Memory
	iteration int64
}

// New builds an Evaluator bound to an Interpreter used to run the
// pre-loop and (later) the post-loop.
func New(ip *interp.Interpreter) *Evaluator {
	return &Evaluator{interpreter: ip}
}

// GetPreLoop, GetLoopBody, GetPostLoop, GetLoopCounterCell,
// GetStatefulCells and GetLoopState expose the partition Init computed,
// matching the collaborator surface the formula generator needs.
func (e *Evaluator) GetPreLoop() *program.Program     { return e.preLoop }
func (e *Evaluator) GetLoopBody() *program.Program    { return e.body }
func (e *Evaluator) GetPostLoop() *program.Program    { return e.postLoop }
func (e *Evaluator) GetLoopCounterCell() int64        { return e.counterCell }
func (e *Evaluator) GetStatefulCells() map[int64]bool { return e.statefulCells }
func (e *Evaluator) GetLoopState() mem.Memory         { return e.loopState }

// Init attempts to partition p into exactly one top-level loop's
// (preLoop, body, postLoop). It returns false — not an error — when p
// does not meet the incremental-evaluation preconditions; that is a
// normal, expected outcome for many programs, not a fault.
func (e *Evaluator) Init(p *program.Program) bool {
	pre, body, post, counterCell, ok := splitSingleLoop(p)
	if !ok {
		return false
	}
	if !preLoopPreservesMonotonicity(pre, counterCell) {
		return false
	}
	if body.HasIndirectOperand() {
		return false
	}
	if containsClr(body) {
		return false
	}
	if !postLoopRespectsContract(post) {
		return false
	}

	e.preLoop = pre
	e.body = body
	e.postLoop = post
	e.counterCell = counterCell
	e.statefulCells = computeStatefulCells(body)
	e.loopState = mem.New()
	e.iteration = 0

	if e.interpreter != nil {
		if _, err := e.interpreter.Run(pre, &e.loopState); err != nil {
			return false
		}
	}
	return true
}

// splitSingleLoop requires p to contain exactly one top-level LPB/LPE
// pair (nested loops inside the body are fine; a second top-level loop,
// or any crossing/imbalance, is not) and returns its three parts.
func splitSingleLoop(p *program.Program) (pre, body, post *program.Program, counterCell int64, ok bool) {
	var lpbIdx, lpeIdx = -1, -1
	depth := 0
	topLevelLoops := 0
	for i, op := range p.Ops {
		switch op.Type {
		case program.Lpb:
			if depth == 0 {
				topLevelLoops++
				lpbIdx = i
			}
			depth++
		case program.Lpe:
			depth--
			if depth == 0 {
				lpeIdx = i
			}
		}
	}
	if topLevelLoops != 1 || lpbIdx < 0 || lpeIdx < 0 {
		return nil, nil, nil, 0, false
	}

	pre = &program.Program{Ops: append([]program.Operation(nil), p.Ops[:lpbIdx]...)}
	body = &program.Program{Ops: append([]program.Operation(nil), p.Ops[lpbIdx+1:lpeIdx]...)}
	post = &program.Program{Ops: append([]program.Operation(nil), p.Ops[lpeIdx+1:]...)}
	counterCell = p.Ops[lpbIdx].Target.CellIndex()
	return pre, body, post, counterCell, true
}

// preLoopPreservesMonotonicity rejects a pre-loop that overwrites the
// counter cell with a value unrelated to the input (a MOV from a
// constant, or a CLR) — such a rewrite destroys the one-to-one
// correspondence between the loop counter and the evaluation input.
func preLoopPreservesMonotonicity(pre *program.Program, counterCell int64) bool {
	for _, op := range pre.Ops {
		if op.Target.Type != program.Direct || op.Target.CellIndex() != counterCell {
			continue
		}
		switch op.Type {
		case program.Mov:
			if op.Source.Type == program.Constant {
				return false
			}
		case program.Clr:
			return false
		}
	}
	return true
}

func containsClr(body *program.Program) bool {
	for _, op := range body.Ops {
		if op.Type == program.Clr {
			return true
		}
	}
	return false
}

// postLoopRespectsContract enforces: the post-loop must not read the
// output cell before writing it, and it may not perform a direct-source
// MOV once any arithmetic operation has run.
func postLoopRespectsContract(post *program.Program) bool {
	wroteOutput := false
	hasArithmetic := false
	for _, op := range post.Ops {
		meta := program.GetMetadata(op.Type)
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
		} else if meta.Arity >= 1 {
			hasArithmetic = true
			if op.Target.Type == program.Direct && op.Target.CellIndex() == program.OutputCell {
				wroteOutput = true
			}
		}
	}
	return true
}

// computeStatefulCells finds every Direct cell whose first appearance in
// body, scanning operations in order, is as a read rather than a write:
// such a cell carries state across iterations instead of being fully
// recomputed each time.
func computeStatefulCells(body *program.Program) map[int64]bool {
	const (
		unknown = iota
		wasRead
		wasWritten
	)
	state := map[int64]int{}
	mark := func(cell int64, as int) {
		if state[cell] == unknown {
			state[cell] = as
		}
	}
	for _, op := range body.Ops {
		meta := program.GetMetadata(op.Type)
		if meta.ReadsTarget && op.Target.Type == program.Direct {
			mark(op.Target.CellIndex(), wasRead)
		}
		if op.Source.Type == program.Direct {
			mark(op.Source.CellIndex(), wasRead)
		}
		if meta.Arity >= 1 && op.Target.Type == program.Direct {
			mark(op.Target.CellIndex(), wasWritten)
		}
	}
	stateful := map[int64]bool{}
	for cell, s := range state {
		if s == wasRead {
			stateful[cell] = true
		}
	}
	return stateful
}

// Next advances the evaluator by one loop iteration: it runs the body
// once against the running LoopState and bumps the iteration index.
// After k calls to Next followed by running PostLoop on the accumulated
// LoopState, the output cell equals what a full interpreter run of the
// original program on input k would have produced.
func (e *Evaluator) Next() error {
	if _, err := e.interpreter.Run(e.body, &e.loopState); err != nil {
		return err
	}
	e.iteration++
	return nil
}

// Iteration returns how many times Next has been called.
func (e *Evaluator) Iteration() int64 {
	return e.iteration
}
