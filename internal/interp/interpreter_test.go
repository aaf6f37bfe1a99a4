package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/program"
	"loda/internal/settings"
)

func buildIdentity() *program.Program {
	p := program.New()
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(1), Source: program.NewDirect(0)})
	return p
}

func buildSquares() *program.Program {
	p := program.New()
	p.Append(program.Operation{Type: program.Mul, Target: program.NewDirect(0), Source: program.NewDirect(0)})
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(1), Source: program.NewDirect(0)})
	return p
}

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

func toStrings(ns []number.Number) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.String()
	}
	return out
}

func TestEvalIdentity(t *testing.T) {
	ip := New(settings.Default())
	seq, err := ip.Eval(buildIdentity(), 8)
	assert.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7"}, toStrings(seq))
}

func TestEvalSquares(t *testing.T) {
	ip := New(settings.Default())
	seq, err := ip.Eval(buildSquares(), 8)
	assert.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "4", "9", "16", "25", "36", "49"}, toStrings(seq))
}

func TestEvalFibonacci(t *testing.T) {
	ip := New(settings.Default())
	seq, err := ip.Eval(buildFibonacci(), 8)
	assert.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "1", "2", "3", "5", "8", "13"}, toStrings(seq))
}

func TestDivisionByZeroSaturatesToInfinity(t *testing.T) {
	p := program.New()
	p.Append(program.Operation{Type: program.Div, Target: program.NewDirect(0), Source: program.NewConstant(number.Zero)})

	ip := New(settings.Default())
	m := mem.New()
	m.Set(0, number.FromInt64(5))
	_, err := ip.Run(p, &m)
	assert.NoError(t, err)
	assert.True(t, m.Get(0).IsInfinite())
}

func TestNonProgressingLoopExceedsCycles(t *testing.T) {
	p := program.New()
	p.Append(program.Operation{Type: program.Lpb, Target: program.NewDirect(0), Source: program.NewConstant(number.One)})
	p.Append(program.Operation{Type: program.Nop})
	p.Append(program.Operation{Type: program.Lpe})

	s := settings.Default()
	s.MaxCycles = 1000
	ip := New(s)
	m := mem.New()
	m.Set(0, number.FromInt64(1))
	_, err := ip.Run(p, &m)
	assert.Error(t, err)
	var cyclesErr interface{ Error() string }
	assert.ErrorAs(t, err, &cyclesErr)
}

func TestLoopSkippedWhenCounterInfinite(t *testing.T) {
	p := program.New()
	p.Append(program.Operation{Type: program.Lpb, Target: program.NewDirect(0), Source: program.NewConstant(number.One)})
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(1), Source: program.NewConstant(number.One)})
	p.Append(program.Operation{Type: program.Lpe})

	ip := New(settings.Default())
	m := mem.New()
	m.Set(0, number.Infinity)
	_, err := ip.Run(p, &m)
	assert.NoError(t, err)
	assert.True(t, number.Equal(number.Zero, m.Get(1)))
}

func TestMemoryCeilingExceeded(t *testing.T) {
	p := program.New()
	p.Append(program.Operation{Type: program.Mov, Target: program.NewDirect(500), Source: program.NewConstant(number.One)})

	s := settings.Default()
	s.MaxMemory = 10
	ip := New(s)
	m := mem.New()
	_, err := ip.Run(p, &m)
	assert.Error(t, err)
}
