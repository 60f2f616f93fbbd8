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
	"strings"
	"testing"

	"github.com/corewood/sicxe/pkg/optab"
)

func mustStandardOptab(t *testing.T) *optab.Table {
	t.Helper()
	ot, err := optab.Standard()
	if err != nil {
		t.Fatalf("optab.Standard: %v", err)
	}
	return ot
}

func TestPass1BlockLayout(t *testing.T) {
	source := `PROG   START  0x1000
       LDA    FIVE
       USE    CDATA
FIVE   WORD   5
       USE
       STA    FIVE
       END    PROG
`

	result, errs := RunPass1(strings.NewReader(source), mustStandardOptab(t))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := map[string]int32{"PROG": 0x1000, "FIVE": 0x1006}
	for name, addr := range want {
		got, ok := result.Symtab.Lookup(name)
		if !ok || got != addr {
			t.Fatalf("%s: want %#x have %#x ok=%v", name, addr, got, ok)
		}
	}

	b0, _ := result.Final.Get(0)
	b1, _ := result.Final.Get(1)
	if b0.Length != 6 {
		t.Fatalf("block 0: want length 6 have %d", b0.Length)
	}
	if b1.Start != 0x1006 || b1.Length != 3 {
		t.Fatalf("block 1: want start 0x1006 length 3, have start %#x length %d", b1.Start, b1.Length)
	}
	if total := result.Final.TotalLength(); total != 9 {
		t.Fatalf("want total length 9 have %d", total)
	}
}

func TestPass1DuplicateSymbolIsNonFatal(t *testing.T) {
	source := `PROG   START  0
DUP    LDA    DUP
DUP    STA    DUP
       END    PROG
`

	result, errs := RunPass1(strings.NewReader(source), mustStandardOptab(t))
	if len(errs) != 1 {
		t.Fatalf("want 1 DuplicateSymbol warning, have %d: %v", len(errs), errs)
	}
	if _, ok := errs[0].(*DuplicateSymbol); !ok {
		t.Fatalf("want *DuplicateSymbol, have %T", errs[0])
	}

	addr, ok := result.Symtab.Lookup("DUP")
	if !ok || addr != 0 {
		t.Fatalf("first definition should win: want 0 have %#x ok=%v", addr, ok)
	}
}

func TestPass1LiteralPoolFlush(t *testing.T) {
	source := `PROG   START  0
       LDA    =X'05'
       LDA    =X'05'
       LTORG
       STA    =C'EOF'
       END    PROG
`

	result, errs := RunPass1(strings.NewReader(source), mustStandardOptab(t))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	addr, ok := result.Littab.Address("=X'05'")
	if !ok {
		t.Fatal("=X'05' should have been assigned an address at LTORG")
	}
	if addr != 6 {
		t.Fatalf("=X'05' should sit right after the two 3-byte LDA instructions: want 6 have %#x", addr)
	}

	length, _ := result.Littab.Length("=X'05'")
	if length != 3 {
		t.Fatalf("X'05' floors to 3 bytes: have %d", length)
	}

	// =C'EOF' is only referenced after LTORG, so it is flushed by END's
	// implicit literal-pool flush rather than by the explicit LTORG.
	eofAddr, ok := result.Littab.Address("=C'EOF'")
	if !ok || eofAddr != 12 {
		t.Fatalf("=C'EOF' should be flushed at END, right after the STA: want 12 have %#x ok=%v", eofAddr, ok)
	}
}

func TestPass1EquStar(t *testing.T) {
	source := `PROG   START  0
       LDA    FIVE
HERE   EQU    *
       STA    FIVE
FIVE   WORD   5
       END    PROG
`

	result, errs := RunPass1(strings.NewReader(source), mustStandardOptab(t))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	addr, ok := result.Symtab.Lookup("HERE")
	if !ok || addr != 3 {
		t.Fatalf("EQU * should capture the location counter after the first LDA: want 3 have %#x ok=%v", addr, ok)
	}
}
