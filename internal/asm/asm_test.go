package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"loda/internal/number"
	"loda/internal/program"
)

func buildFibonacci() *program.Program {
	p := program.New()
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(3), Source: program.NewConstant(number.One)})
	p.Append(program.Operation{Type: program.Lpb, Target: program.NewDirect(0), Source: program.NewConstant(number.One)})
	p.Append(program.Operation{Type: program.Sub, Target: program.NewDirect(0), Source: program.NewConstant(number.One)})
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(2), Source: program.NewDirect(1)})
	p.Append(program.Operation{Type: program.Add, Target: program.NewDirect(1), Source: program.NewDirect(3)})
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(3), Source: program.NewDirect(2)})
	p.Append(program.Operation{Type: program.Lpe})
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(0), Source: program.NewDirect(1)})
	return p
}

func TestParseStringMatchesHandBuiltProgram(t *testing.T) {
	src := `
mov $3,1
lpb $0
  sub $0,1
  mov $2,$1
  add $1,$3
  mov $3,$2
lpe
mov $0,$1
`
	got, err := ParseString("fib.asm", src)
	assert.NoError(t, err)
	assert.True(t, program.Equal(buildFibonacci(), got))
}

func TestParseStringDefaultsLpbWindowToOne(t *testing.T) {
	got, err := ParseString("t.asm", "lpb $0\nsub $0,1\nlpe\n")
	assert.NoError(t, err)
	assert.True(t, got.Ops[0].Source.Equal(program.NewConstant(number.One)))
}

func TestParseStringHandlesIndirectOperand(t *testing.T) {
	got, err := ParseString("t.asm", "mov $$1,5\n")
	assert.NoError(t, err)
	assert.Equal(t, program.Indirect, got.Ops[0].Target.Type)
	assert.Equal(t, int64(1), got.Ops[0].Target.CellIndex())
}

func TestParseStringCapturesTrailingComment(t *testing.T) {
	got, err := ParseString("t.asm", "mov $1,$0 ; copy input\n")
	assert.NoError(t, err)
	assert.Equal(t, "copy input", got.Ops[0].Comment)
}

func TestParseStringSkipsStandaloneCommentLines(t *testing.T) {
	got, err := ParseString("t.asm", "; a header comment\nmov $1,$0\n")
	assert.NoError(t, err)
	assert.Len(t, got.Ops, 1)
}

func TestParseStringRejectsUnknownMnemonic(t *testing.T) {
	_, err := ParseString("t.asm", "frobnicate $0,1\n")
	assert.Error(t, err)
}

func TestRoundTripParsePrint(t *testing.T) {
	original := buildFibonacci()
	var buf strings.Builder
	assert.NoError(t, Print(original, &buf))
	reparsed, err := ParseString("fib.asm", buf.String())
	assert.NoError(t, err)
	assert.True(t, program.Equal(original, reparsed), "parse(print(p)) should equal p:\n%s", buf.String())
}
