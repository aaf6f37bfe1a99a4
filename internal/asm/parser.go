package asm

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"loda/internal/errs"
	"loda/internal/number"
	"loda/internal/program"
)

var mnemonicToOp = buildMnemonicTable()

func buildMnemonicTable() map[string]program.OpType {
	all := []program.OpType{
		program.Nop, program.Mov, program.Add, program.Sub, program.Mul,
		program.Div, program.Mod, program.Pow, program.Gcd, program.Bin,
		program.Min, program.Max, program.Trn, program.Seq, program.Lpb,
		program.Lpe, program.Clr, program.Dbg,
	}
	table := make(map[string]program.OpType, len(all))
	for _, t := range all {
		table[program.GetMetadata(t).Name] = t
	}
	return table
}

// Parse reads and parses a LODA assembly file from path.
func Parse(path string) (*program.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseString(path, string(src))
}

// ParseString parses LODA assembly source held in src; filename is used
// only to annotate error positions.
func ParseString(filename, src string) (*program.Program, error) {
	parser, err := participle.Build[File](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
	)
	if err != nil {
		return nil, &errs.Internal{Message: "asm: failed to build parser: " + err.Error()}
	}

	f, err := parser.ParseString(filename, src)
	if err != nil {
		if pe, ok := err.(participle.Error); ok {
			pos := pe.Position()
			return nil, &errs.ParseError{Line: pos.Line, Column: pos.Column, Message: pe.Message()}
		}
		return nil, &errs.ParseError{Message: err.Error()}
	}

	p := program.New()
	for _, line := range f.Lines {
		if line.WithInstruction == nil {
			continue // standalone comment line: not represented in Program
		}
		op, err := translateInstruction(line.WithInstruction.Instruction)
		if err != nil {
			return nil, &errs.ParseError{Message: err.Error()}
		}
		if line.WithInstruction.Comment != nil {
			op.Comment = strings.TrimSpace(strings.TrimPrefix(*line.WithInstruction.Comment, ";"))
		}
		p.Append(op)
	}
	return p, nil
}

func toOperand(o *Operand) (program.Operand, error) {
	v, err := strconv.ParseInt(o.Value, 10, 64)
	if err != nil {
		return program.Operand{}, fmt.Errorf("asm: malformed integer %q: %w", o.Value, err)
	}
	if o.Prefix == nil {
		return program.NewConstant(number.FromInt64(v)), nil
	}
	switch *o.Prefix {
	case "$":
		if v < 0 {
			return program.Operand{}, fmt.Errorf("asm: cell index may not be negative: %d", v)
		}
		return program.NewDirect(v), nil
	case "$$":
		if v < 0 {
			return program.Operand{}, fmt.Errorf("asm: cell index may not be negative: %d", v)
		}
		return program.NewIndirect(v), nil
	default:
		return program.Operand{}, fmt.Errorf("asm: unknown cell prefix %q", *o.Prefix)
	}
}

func translateInstruction(in *Instruction) (program.Operation, error) {
	name := strings.ToLower(in.Mnemonic)
	opType, ok := mnemonicToOp[name]
	if !ok {
		return program.Operation{}, fmt.Errorf("asm: unknown instruction %q", in.Mnemonic)
	}
	meta := program.GetMetadata(opType)

	target := program.NewDirect(0)
	source := program.NewConstant(number.One)

	switch {
	case meta.Arity == 0:
		if in.Target != nil {
			return program.Operation{}, fmt.Errorf("asm: %s takes no operands", name)
		}
	case opType == program.Lpb:
		if in.Target == nil {
			return program.Operation{}, fmt.Errorf("asm: lpb requires a target operand")
		}
		t, err := toOperand(in.Target)
		if err != nil {
			return program.Operation{}, err
		}
		target = t
		if in.Source != nil {
			s, err := toOperand(in.Source)
			if err != nil {
				return program.Operation{}, err
			}
			source = s
		}
	case meta.Arity == 1:
		if in.Target == nil {
			return program.Operation{}, fmt.Errorf("asm: %s requires one operand", name)
		}
		t, err := toOperand(in.Target)
		if err != nil {
			return program.Operation{}, err
		}
		target = t
	case meta.Arity == 2:
		if in.Target == nil || in.Source == nil {
			return program.Operation{}, fmt.Errorf("asm: %s requires two operands", name)
		}
		t, err := toOperand(in.Target)
		if err != nil {
			return program.Operation{}, err
		}
		s, err := toOperand(in.Source)
		if err != nil {
			return program.Operation{}, err
		}
		target, source = t, s
	}

	return program.Operation{Type: opType, Target: target, Source: source}, nil
}
