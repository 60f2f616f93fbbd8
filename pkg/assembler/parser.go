// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"strconv"
	"strings"

	"github.com/corewood/sicxe/pkg/encoding"
)

// SymbolLookup is the narrow interface the expression evaluator needs
// from a symbol table -- it is satisfied directly by *symtab.Table,
// but kept narrow so this package never has to import symtab just to
// evaluate an EQU/ORG/RESW/RESB expression.
type SymbolLookup interface {
	Lookup(name string) (int32, bool)
}

// ParseLine splits raw into a SourceLine, per spec.md §4.1: a label
// exists iff the line does not start with whitespace, in which case
// the first token is the label and the second the opcode; otherwise
// the first token is the opcode. The operand is everything after the
// opcode, trimmed, with internal content (commas, quotes) untouched.
// Blank lines and lines whose first non-whitespace character is "#"
// return ok=false.
func ParseLine(raw string, cursor Cursor) (line SourceLine, ok bool) {
	if trimmed := strings.TrimLeft(raw, " \t"); trimmed == "" || trimmed[0] == '#' {
		return SourceLine{}, false
	}

	hasLabel := raw[0] != ' ' && raw[0] != '\t'

	remaining := raw
	var label, opcode string

	if hasLabel {
		label, remaining = splitWord(remaining)
		opcode, remaining = splitWord(remaining)
	} else {
		opcode, remaining = splitWord(remaining)
	}

	if opcode == "" {
		return SourceLine{}, false
	}

	format4 := strings.HasPrefix(opcode, "+")
	if format4 {
		opcode = opcode[1:]
	}

	operand := strings.TrimSpace(remaining)

	return SourceLine{
		Label:   label,
		Opcode:  opcode,
		Operand: operand,
		Format4: format4,
		Cursor:  cursor,
	}, true
}

// splitWord consumes leading whitespace, then a run of non-whitespace
// characters, returning that run and everything after it unconsumed.
func splitWord(s string) (word, rest string) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}

	start := i
	for i < len(s) && s[i] != ' ' && s[i] != '\t' {
		i++
	}

	return s[start:i], s[i:]
}

// EvaluateExpression evaluates an EQU/ORG/RESW/RESB operand, per
// spec.md §4.1: two precedence levels (+- low, */ high), leaves are a
// decimal literal, a "0x"-prefixed hex literal, or a defined symbol.
// The expression is scanned left to right and split at its first "+"
// or "-" (failing that, its first "*" or "/"), each side evaluated
// recursively, so a chain of same-level operators groups to the right:
// "5-3-1" evaluates as 5-(3-1). The scan for an operator starts at
// index 1 so a leading unary "-" is never mistaken for a binary
// operator.
func EvaluateExpression(expr string, syms SymbolLookup, cursor Cursor) (int32, error) {
	expression := strings.TrimSpace(expr)

	if expression == "" {
		return 0, &SyntaxError{Pos: cursor, Message: "empty expression"}
	}

	for i := 1; i < len(expression); i++ {
		if expression[i] != '+' && expression[i] != '-' {
			continue
		}

		leftVal, err := EvaluateExpression(expression[:i], syms, cursor)
		if err != nil {
			return 0, err
		}

		rightVal, err := EvaluateExpression(expression[i+1:], syms, cursor)
		if err != nil {
			return 0, err
		}

		if expression[i] == '+' {
			return leftVal + rightVal, nil
		}
		return leftVal - rightVal, nil
	}

	for i := 1; i < len(expression); i++ {
		if expression[i] != '*' && expression[i] != '/' {
			continue
		}

		leftVal, err := EvaluateExpression(expression[:i], syms, cursor)
		if err != nil {
			return 0, err
		}

		rightVal, err := EvaluateExpression(expression[i+1:], syms, cursor)
		if err != nil {
			return 0, err
		}

		if expression[i] == '*' {
			return leftVal * rightVal, nil
		}

		if rightVal == 0 {
			return 0, &ExpressionError{Pos: cursor, Message: "division by zero"}
		}
		return leftVal / rightVal, nil
	}

	return parseOperand(expression, syms, cursor)
}

// parseOperand evaluates a single leaf: a hex literal ("0x..."), a
// decimal literal (optionally signed), or a defined symbol.
func parseOperand(token string, syms SymbolLookup, cursor Cursor) (int32, error) {
	token = strings.TrimSpace(token)

	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		v, err := encoding.DecodeHex(token)
		if err != nil {
			return 0, &SyntaxError{Pos: cursor, Message: "invalid hex literal " + token}
		}
		return int32(v), nil
	}

	if v, err := strconv.ParseInt(token, 10, 32); err == nil {
		return int32(v), nil
	}

	if v, ok := syms.Lookup(token); ok {
		return v, nil
	}

	return 0, &UndefinedSymbol{Pos: cursor, Symbol: token}
}
