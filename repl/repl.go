// Package repl SPDX-License-Identifier: Apache-2.0
package repl

import (
	"bufio"
	"fmt"
	"io"

	"loda/internal/asm"
	"loda/internal/errs"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/program"
	"loda/internal/settings"

	"loda/internal/interp"
)

const PROMPT = ">> "

// Start runs an interactive loop: each line is a complete LODA assembly
// program (instructions separated by ";;" since newlines end the
// prompt), evaluated once against input 0 unless prefixed "in=<n> ".
// It returns once in is exhausted (Ctrl-D at a terminal).
func Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	ip := interp.New(settings.Default())

	for {
		fmt.Fprint(out, PROMPT)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		source, input := splitInput(line)
		if source == "" {
			continue
		}

		p, err := asm.ParseString("<repl>", source)
		if err != nil {
			reportError(out, source, err)
			continue
		}
		if werr := p.CheckWellFormed(); werr != nil {
			fmt.Fprintf(out, "error: %s\n", werr.Error())
			continue
		}

		m := mem.New()
		m.Set(program.InputCell, input)
		if _, err := ip.Run(p, &m); err != nil {
			fmt.Fprintf(out, "error: %s\n", err.Error())
			continue
		}
		fmt.Fprintln(out, m.Get(program.OutputCell).String())
	}
}

// splitInput strips a leading "in=<n> " prefix, returning the remaining
// source and the input value it named (zero if absent). ";;" inside the
// line is treated as a newline, so a whole program fits on one prompt
// line.
func splitInput(line string) (source string, input number.Number) {
	input = number.Zero
	const prefix = "in="
	if len(line) > len(prefix) && line[:len(prefix)] == prefix {
		rest := line[len(prefix):]
		i := 0
		for i < len(rest) && rest[i] != ' ' {
			i++
		}
		if n, err := number.Parse(rest[:i]); err == nil {
			input = n
		}
		line = rest[i:]
	}
	return expandSeparators(line), input
}

func expandSeparators(line string) string {
	out := make([]byte, 0, len(line))
	for i := 0; i < len(line); i++ {
		if i+1 < len(line) && line[i] == ';' && line[i+1] == ';' {
			out = append(out, '\n')
			i++
			continue
		}
		out = append(out, line[i])
	}
	return string(out)
}

func reportError(out io.Writer, source string, err error) {
	reporter := errs.NewReporter("<repl>", source)
	fmt.Fprint(out, reporter.Report(err))
}
