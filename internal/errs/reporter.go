package errs

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders errors the way the CLI shows them to a user: a
// colored level tag, the message, and — for ParseError — a caret
// pointing at the offending column in the source line.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter for a named source and its text.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Report formats err for display. ParseErrors get a caret-annotated
// source excerpt; everything else gets a plain colored message.
func (r *Reporter) Report(err error) string {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	if pe, ok := err.(*ParseError); ok {
		return r.reportParseError(pe, bold, red)
	}
	return fmt.Sprintf("%s %s\n", red("error:"), err.Error())
}

func (r *Reporter) reportParseError(pe *ParseError, bold, red func(...interface{}) string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s\n", red("error:"), pe.Message))
	b.WriteString(fmt.Sprintf("  %s %s:%d:%d\n", color.New(color.Faint).Sprint("-->"), r.filename, pe.Line, pe.Column))
	if pe.Line >= 1 && pe.Line <= len(r.lines) {
		line := r.lines[pe.Line-1]
		b.WriteString(fmt.Sprintf("  %s %s\n", bold(fmt.Sprintf("%d", pe.Line)), line))
		caret := strings.Repeat(" ", max(0, pe.Column-1)) + "^"
		b.WriteString("  " + strings.Repeat(" ", len(fmt.Sprintf("%d", pe.Line))) + " " + red(caret) + "\n")
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
