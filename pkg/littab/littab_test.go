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

package littab_test

import (
	"testing"

	"github.com/corewood/sicxe/pkg/littab"
)

func TestLengthRules(t *testing.T) {
	tests := []struct {
		Name      string
		Canonical string
		Want      int
	}{
		{"char-three", "=C'EOF'", 3},
		{"char-floor", "=C'AB'", 3},
		{"hex-floor", "=X'05'", 3},
		{"hex-two-bytes-floored", "=X'0005'", 3},
		{"hex-three-bytes", "=X'010203'", 3},
		{"hex-four-bytes", "=X'01020304'", 4},
		{"numeric", "=5", 3},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			table := littab.New()
			table.Insert(test.Canonical)

			have, ok := table.Length(test.Canonical)
			if !ok {
				t.Fatal("literal should exist after insert")
			}

			if have != test.Want {
				t.Fatalf("want:%d have:%d", test.Want, have)
			}
		})
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	table := littab.New()
	table.Insert("=C'EOF'")
	table.Insert("=C'EOF'")

	if len(table.All()) != 1 {
		t.Fatalf("want 1 literal have %d", len(table.All()))
	}
}

func TestUnassignedOrderAndFlush(t *testing.T) {
	table := littab.New()
	table.Insert("=C'EOF'")
	table.Insert("=X'05'")

	unassigned := table.Unassigned()
	if len(unassigned) != 2 || unassigned[0].Canonical != "=C'EOF'" || unassigned[1].Canonical != "=X'05'" {
		t.Fatalf("want insertion order [=C'EOF' =X'05'] have %v", unassigned)
	}

	table.AssignAddress("=C'EOF'", 0x2000)
	table.AssignAddress("=X'05'", 0x2003)

	if len(table.Unassigned()) != 0 {
		t.Fatal("both literals should be assigned")
	}

	addr, ok := table.Address("=C'EOF'")
	if !ok || addr != 0x2000 {
		t.Fatalf("want 0x2000 have %#x ok=%v", addr, ok)
	}
}
