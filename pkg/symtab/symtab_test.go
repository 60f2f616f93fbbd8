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

package symtab_test

import (
	"testing"

	"github.com/corewood/sicxe/pkg/symtab"
)

func TestInsertLookup(t *testing.T) {
	table := symtab.New()

	if !table.Insert("ZERO", 0x10, 0) {
		t.Fatal("first insert should succeed")
	}

	if table.Insert("ZERO", 0x20, 0) {
		t.Fatal("duplicate insert should fail, first definition wins")
	}

	addr, ok := table.Lookup("ZERO")
	if !ok || addr != 0x10 {
		t.Fatalf("want 0x10 (first definition) have %#x ok=%v", addr, ok)
	}

	block, ok := table.BlockOf("ZERO")
	if !ok || block != 0 {
		t.Fatalf("want block 0 have %d ok=%v", block, ok)
	}
}

func TestUpdateAddressAbsolutizes(t *testing.T) {
	table := symtab.New()
	table.Insert("BUFFER", 0x08, 2)
	table.UpdateAddress("BUFFER", 0x48)

	addr, _ := table.Lookup("BUFFER")
	if addr != 0x48 {
		t.Fatalf("want 0x48 have %#x", addr)
	}
}

func TestUpdateAddressOfMissingSymbolIsNoop(t *testing.T) {
	table := symtab.New()
	table.UpdateAddress("NOSUCH", 0x99)

	if table.Exists("NOSUCH") {
		t.Fatal("UpdateAddress must not create missing symbols")
	}
}

func TestAllIsSorted(t *testing.T) {
	table := symtab.New()
	table.Insert("ZERO", 0, 0)
	table.Insert("ALPHA", 0, 0)
	table.Insert("MID", 0, 0)

	names := table.All()
	want := []string{"ALPHA", "MID", "ZERO"}

	for i, name := range want {
		if names[i] != name {
			t.Fatalf("want %v have %v", want, names)
		}
	}
}
