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

import "testing"

type fakeSymbols map[string]int32

func (f fakeSymbols) Lookup(name string) (int32, bool) {
	v, ok := f[name]
	return v, ok
}

func TestParseLineLabelDetection(t *testing.T) {
	tests := []struct {
		Name      string
		Raw       string
		WantLabel string
		WantOp    string
		WantOper  string
		Want4     bool
	}{
		{"with-label", "COPY   STL    RETADR", "COPY", "STL", "RETADR", false},
		{"no-label", "       LDA    FIVE", "", "LDA", "FIVE", false},
		{"format4", "       +JSUB  RDREC", "", "JSUB", "RDREC", true},
		{"no-operand", "       RSUB", "", "RSUB", "", false},
		{"indexed", "       LDA    BUFFER,X", "", "LDA", "BUFFER,X", false},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			line, ok := ParseLine(test.Raw, Cursor{Line: 1})
			if !ok {
				t.Fatalf("expected ParseLine to succeed on %q", test.Raw)
			}

			if line.Label != test.WantLabel || line.Opcode != test.WantOp || line.Operand != test.WantOper {
				t.Fatalf("got {%q %q %q} want {%q %q %q}",
					line.Label, line.Opcode, line.Operand, test.WantLabel, test.WantOp, test.WantOper)
			}

			if line.Format4 != test.Want4 {
				t.Fatalf("format4: got %v want %v", line.Format4, test.Want4)
			}
		})
	}
}

func TestParseLineSkipsBlankAndComment(t *testing.T) {
	for _, raw := range []string{"", "   ", "# a full-line comment"} {
		if _, ok := ParseLine(raw, Cursor{Line: 1}); ok {
			t.Fatalf("expected ParseLine(%q) to be skipped", raw)
		}
	}
}

func TestEvaluateExpressionArithmetic(t *testing.T) {
	syms := fakeSymbols{"FIVE": 5, "BUFFER": 0x2000}

	tests := []struct {
		Name string
		Expr string
		Want int32
	}{
		{"decimal", "42", 42},
		{"hex", "0x1F", 0x1F},
		{"symbol", "FIVE", 5},
		{"addition", "FIVE+3", 8},
		{"multiplication", "FIVE*3", 15},
		{"symbol-offset", "BUFFER+0x10", 0x2010},
		{"negative-literal", "-5", -5},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			got, err := EvaluateExpression(test.Expr, syms, Cursor{Line: 1})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.Want {
				t.Fatalf("got %d want %d", got, test.Want)
			}
		})
	}
}

func TestEvaluateExpressionDivisionByZero(t *testing.T) {
	syms := fakeSymbols{}

	_, err := EvaluateExpression("5/0", syms, Cursor{Line: 3})
	if err == nil {
		t.Fatal("expected an ExpressionError")
	}

	if _, ok := err.(*ExpressionError); !ok {
		t.Fatalf("want *ExpressionError, got %T", err)
	}
}

func TestEvaluateExpressionUndefinedSymbol(t *testing.T) {
	syms := fakeSymbols{}

	_, err := EvaluateExpression("MISSING", syms, Cursor{Line: 5})
	if err == nil {
		t.Fatal("expected an UndefinedSymbol error")
	}

	if _, ok := err.(*UndefinedSymbol); !ok {
		t.Fatalf("want *UndefinedSymbol, got %T", err)
	}
}
