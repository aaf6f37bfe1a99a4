package program

// OpType enumerates the public instruction set from the specification,
// plus NOP and DBG which are accepted but inert.
type OpType int

const (
	Nop OpType = iota
	Mov
	Add
	Sub
	Mul
	Div
	Mod
	Pow
	Gcd
	Bin
	Min
	Max
	Trn
	Seq
	Lpb
	Lpe
	Clr
	Dbg
)

// Metadata describes one instruction: its short name, arity, whether it
// is emitted by external generators, whether it reads its target before
// writing it, and a mining frequency weight. It is the single source of
// truth consumed by the parser, printer, interpreter and formula
// generator.
type Metadata struct {
	Type            OpType
	Name            string
	Arity           int // 0, 1 or 2 operands
	Public          bool
	ReadsTarget     bool // instruction reads its own target before writing
	MiningFrequency int
}

var metadataTable = map[OpType]Metadata{
	Nop: {Nop, "nop", 0, true, false, 1},
	Mov: {Mov, "mov", 2, true, false, 30},
	Add: {Add, "add", 2, true, true, 30},
	Sub: {Sub, "sub", 2, true, true, 30},
	Mul: {Mul, "mul", 2, true, true, 15},
	Div: {Div, "div", 2, true, true, 15},
	Mod: {Mod, "mod", 2, true, true, 5},
	Pow: {Pow, "pow", 2, true, true, 5},
	Gcd: {Gcd, "gcd", 2, true, true, 3},
	Bin: {Bin, "bin", 2, true, true, 3},
	Min: {Min, "min", 2, true, true, 3},
	Max: {Max, "max", 2, true, true, 3},
	Trn: {Trn, "trn", 2, true, true, 3},
	Seq: {Seq, "seq", 2, true, true, 2},
	Lpb: {Lpb, "lpb", 2, true, false, 5},
	Lpe: {Lpe, "lpe", 0, true, false, 5},
	Clr: {Clr, "clr", 2, true, false, 2},
	Dbg: {Dbg, "dbg", 0, false, false, 0},
}

// GetMetadata returns the Metadata for an OpType. It panics for an
// unregistered type, which indicates a contract violation in the core.
func GetMetadata(t OpType) Metadata {
	m, ok := metadataTable[t]
	if !ok {
		panic("program: no metadata registered for operation type")
	}
	return m
}

// Operation is one instruction: a type, a target operand and a source
// operand. The target is never Constant.
type Operation struct {
	Type    OpType
	Target  Operand
	Source  Operand
	Comment string
}

// String renders an operation in assembly syntax.
func (op Operation) String() string {
	meta := GetMetadata(op.Type)
	s := meta.Name
	switch {
	case meta.Arity == 0:
		// no operands
	case op.Type == Lpb:
		s += " " + op.Target.String()
		if op.Source.Type != Constant || op.Source.Value.String() != "1" {
			s += "," + op.Source.String()
		}
	case meta.Arity == 1:
		s += " " + op.Target.String()
	case meta.Arity == 2:
		s += " " + op.Target.String() + "," + op.Source.String()
	}
	if op.Comment != "" {
		s += " ; " + op.Comment
	}
	return s
}
