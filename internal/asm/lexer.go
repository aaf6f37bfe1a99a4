// Package asm implements the LODA assembly text format: a participle
// grammar and lexer that parse one instruction per line into a
// program.Program, and a printer that renders a Program back to the
// same text form.
package asm

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes LODA assembly: a mnemonic, an optional target and
// source operand (each a bare integer, "$i" or "$$i"), separated by a
// comma, with an optional trailing "; comment". Whitespace, including
// newlines, is insignificant.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Cell", `\${1,2}`, nil},
		{"Comma", `,`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
