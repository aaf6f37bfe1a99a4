// Package errs defines LODA's error taxonomy: the small set of failure
// kinds the core can produce, and a colorized reporter for surfacing them
// from the CLI. NotExpressible is deliberately not part of this taxonomy
// as an error value — it is a normal outcome the formula generator
// returns as a boolean, never as something a caller must recover from.
// OutOfRange lives alongside the type it guards, number.OutOfRangeError,
// rather than here.
package errs

import "fmt"

// ParseError reports a malformed program: an assembly line the parser
// could not make sense of.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// UnsupportedOperand reports an indirect operand where the contract
// forbids one (e.g. inside an incremental-evaluator loop body).
type UnsupportedOperand struct {
	Context string
}

func (e *UnsupportedOperand) Error() string {
	return "unsupported operand: " + e.Context
}

// CyclesExceeded reports that the interpreter's cycle ceiling was hit
// before the program terminated.
type CyclesExceeded struct {
	MaxCycles int64
}

func (e *CyclesExceeded) Error() string {
	return fmt.Sprintf("exceeded cycle budget of %d", e.MaxCycles)
}

// MemoryExceeded reports that a write addressed a cell beyond the
// configured memory ceiling.
type MemoryExceeded struct {
	MaxMemory int64
	Attempted int64
}

func (e *MemoryExceeded) Error() string {
	return fmt.Sprintf("memory index %d exceeds ceiling of %d", e.Attempted, e.MaxMemory)
}

// Internal signals a contract violation inside the core: a state the
// implementation should make unreachable. It is never expected from
// caller input and should be treated as a bug report.
type Internal struct {
	Message string
}

func (e *Internal) Error() string {
	return "internal error: " + e.Message
}
