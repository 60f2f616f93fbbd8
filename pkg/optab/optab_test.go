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

package optab_test

import (
	"strings"
	"testing"

	"github.com/corewood/sicxe/pkg/optab"
)

func TestLoadClassifiesFormats(t *testing.T) {
	table, err := optab.Load(strings.NewReader("LDA 00\nCLEAR B4\nFIX C4\n"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		Mnemonic   string
		WantOpcode byte
		WantFormat optab.Format
	}{
		{"LDA", 0x00, optab.Format3},
		{"CLEAR", 0xB4, optab.Format2},
		{"FIX", 0xC4, optab.Format1},
	}

	for _, test := range tests {
		opcode, ok := table.Opcode(test.Mnemonic)
		if !ok {
			t.Fatalf("%s: not found", test.Mnemonic)
		}

		if opcode != test.WantOpcode {
			t.Fatalf("%s: want opcode %#02x have %#02x", test.Mnemonic, test.WantOpcode, opcode)
		}

		format, _ := table.BaseFormat(test.Mnemonic)
		if format != test.WantFormat {
			t.Fatalf("%s: want format %d have %d", test.Mnemonic, test.WantFormat, format)
		}
	}

	if table.Exists("NOSUCH") {
		t.Fatal("NOSUCH should not exist")
	}
}

func TestLoadMasksLowTwoBits(t *testing.T) {
	table, err := optab.Load(strings.NewReader("LDA 03\n"))
	if err != nil {
		t.Fatal(err)
	}

	opcode, _ := table.Opcode("LDA")
	if opcode != 0x00 {
		t.Fatalf("want opcode masked to 0x00 have %#02x", opcode)
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	if _, err := optab.Load(strings.NewReader("LDA\n")); err == nil {
		t.Fatal("expected error for missing opcode field")
	}
}

func TestStandardHasFullInstructionSet(t *testing.T) {
	table, err := optab.Standard()
	if err != nil {
		t.Fatal(err)
	}

	for _, mnemonic := range []string{"LDA", "STA", "COMP", "JSUB", "RSUB", "ADDR", "CLEAR", "TIXR", "FIX", "FLOAT", "SHIFTL"} {
		if !table.Exists(mnemonic) {
			t.Fatalf("standard optab missing %s", mnemonic)
		}
	}
}
