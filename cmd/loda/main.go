// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"loda/internal/asm"
	"loda/internal/errs"
	"loda/internal/formulagen"
	"loda/internal/inceval"
	"loda/internal/interp"
	"loda/internal/mem"
	"loda/internal/number"
	"loda/internal/oeisstore"
	"loda/internal/program"
	"loda/internal/settings"
	"loda/repl"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if os.Args[1] == "repl" {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd(os.Args[2:])
	case "eval":
		evalCmd(os.Args[2:])
	case "formula":
		formulaCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: loda run <file.asm> [input]")
	fmt.Println("       loda eval <file.asm> [n]")
	fmt.Println("       loda formula <file.asm> [--pari]")
	fmt.Println("       loda repl")
}

func parseFile(path string) *program.Program {
	p, err := asm.Parse(path)
	if err != nil {
		source, _ := os.ReadFile(path)
		reporter := errs.NewReporter(path, string(source))
		fmt.Fprint(os.Stderr, reporter.Report(err))
		os.Exit(1)
	}
	if werr := p.CheckWellFormed(); werr != nil {
		color.Red("%s: %s", path, werr.Error())
		os.Exit(1)
	}
	return p
}

func newInterpreter() *interp.Interpreter {
	s := settings.Default()
	return interp.New(s).WithSeqResolver(oeisstore.NewDirStore(seqDir(), s))
}

// seqDir is the directory DirStore resolves `seq` dependencies under:
// $LODA_PROGRAMS_DIR if set, otherwise "programs" relative to the
// current working directory.
func seqDir() string {
	if dir := os.Getenv("LODA_PROGRAMS_DIR"); dir != "" {
		return dir
	}
	return "programs"
}

func runCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	p := parseFile(args[0])

	input := number.Zero
	if len(args) > 1 {
		n, err := number.Parse(args[1])
		if err != nil {
			color.Red("invalid input %q: %s", args[1], err)
			os.Exit(1)
		}
		input = n
	}

	ip := newInterpreter()
	m := mem.New()
	m.Set(program.InputCell, input)
	if _, err := ip.Run(p, &m); err != nil {
		color.Red("%s", err.Error())
		os.Exit(1)
	}
	fmt.Println(m.Get(program.OutputCell).String())
}

func evalCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	p := parseFile(args[0])

	n := settings.Default().NumTerms
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			color.Red("invalid term count %q: %s", args[1], err)
			os.Exit(1)
		}
		n = v
	}

	ip := newInterpreter()
	terms, err := evalTerms(ip, p, n)
	if err != nil {
		color.Red("%s", err.Error())
		os.Exit(1)
	}
	printTerms(terms)
}

// evalTerms produces n terms of p, using the incremental evaluator when
// p's shape permits it and falling back to independent full runs
// otherwise. (The Formula Generator likewise reads the initial terms it
// needs from the incremental evaluator, without a full-run fallback.)
func evalTerms(ip *interp.Interpreter, p *program.Program, n int) ([]number.Number, error) {
	ie := inceval.New(ip)
	if !ie.Init(p) {
		return ip.Eval(p, n)
	}

	post := ie.GetPostLoop()
	terms := make([]number.Number, 0, n)
	for k := 0; k < n; k++ {
		loopState := ie.GetLoopState()
		if _, err := ip.Run(post, &loopState); err != nil {
			return terms, err
		}
		terms = append(terms, loopState.Get(program.OutputCell))
		if err := ie.Next(); err != nil {
			return terms, err
		}
	}
	return terms, nil
}

func printTerms(terms []number.Number) {
	for i, t := range terms {
		if i > 0 {
			fmt.Print(",")
		}
		fmt.Print(t.String())
	}
	fmt.Println()
}

func formulaCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	pariMode := false
	for _, a := range args[1:] {
		if a == "--pari" {
			pariMode = true
		}
	}
	p := parseFile(args[0])

	gen := formulagen.New(pariMode).WithSequenceSource(oeisstore.NewDirStore(seqDir(), settings.Default()))
	f, ok := gen.Generate(p, true)
	if !ok {
		fmt.Println("not expressible as a formula")
		os.Exit(2)
	}
	for _, e := range f.Entries() {
		fmt.Printf("%s = %s\n", e.Key.String(), e.Value.String())
	}
}
