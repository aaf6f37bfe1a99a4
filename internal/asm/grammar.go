package asm

// Operand is a bare integer ("5"), a direct cell ("$5") or an indirect
// cell ("$$5"), distinguished by how many leading "$" tokens it has.
type Operand struct {
	Prefix *string `[ @Cell ]`
	Value  string  `@Integer`
}

// Instruction is a mnemonic with zero, one or two operands.
type Instruction struct {
	Mnemonic string   `@Ident`
	Target   *Operand `[ @@`
	Source   *Operand `  [ "," @@ ] ]`
}

// InstructionLine is an instruction, optionally followed by a comment.
// The lexer elides newlines, so a comment on the line after an
// instruction attaches to that instruction as well.
type InstructionLine struct {
	Instruction *Instruction `@@`
	Comment     *string      `[ @Comment ]`
}

// Line is either an instruction (with an optional trailing comment) or
// a standalone comment line.
type Line struct {
	WithInstruction *InstructionLine `  @@`
	CommentOnly     *string          `| @Comment`
}

// File is a whole assembly source: a sequence of lines.
type File struct {
	Lines []*Line `@@*`
}
