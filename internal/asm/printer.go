package asm

import (
	"io"

	"loda/internal/program"
)

// Print renders p as LODA assembly text, one instruction per line with
// two-space loop indentation — the same format ParseString accepts.
func Print(p *program.Program, w io.Writer) error {
	_, err := io.WriteString(w, p.String())
	return err
}
