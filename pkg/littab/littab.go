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

// Package littab holds the assembler's literal pool: an
// insertion-ordered set of literals, each assigned an address when its
// pool is flushed (LTORG or END).
package littab

import (
	"fmt"
	"strings"
)

// Literal is one entry in the pool. Canonical includes the leading
// "="; Value is the text after it, left exactly as written in source
// (e.g. "C'EOF'", "X'05'", "5") -- decoding into bytes happens once,
// at Pass 2 object-code generation time, not here.
type Literal struct {
	Canonical string
	Value     string
	Address   int32
	Assigned  bool
	Length    int
}

// Table is the literal pool, insertion order preserved.
type Table struct {
	order []string
	byKey map[string]*Literal
}

// New returns an empty literal table.
func New() *Table {
	return &Table{byKey: make(map[string]*Literal)}
}

// Insert adds canonical (e.g. "=C'EOF'") if not already present.
// Idempotent: a literal used twice in source occupies one pool slot.
func (t *Table) Insert(canonical string) {
	if _, exists := t.byKey[canonical]; exists {
		return
	}

	value := strings.TrimPrefix(canonical, "=")

	lit := &Literal{
		Canonical: canonical,
		Value:     value,
		Address:   -1,
		Assigned:  false,
		Length:    length(value),
	}

	t.byKey[canonical] = lit
	t.order = append(t.order, canonical)
}

// length computes a literal's byte length from its raw value text, per
// spec.md §3: C'...' -> character count; X'...' -> ceil(hexdigits/2);
// anything else -> a word. Every literal is then floored to 3 bytes --
// the "WORD-sized minimum" spec.md §3 calls out, preserved verbatim
// from the reference implementation (it floors unconditionally, even
// a 1-byte X'...' literal comes out as 3).
func length(value string) int {
	actual := 3

	switch {
	case len(value) >= 3 && value[0] == 'C' && value[1] == '\'':
		start := strings.IndexByte(value, '\'')
		end := strings.LastIndexByte(value, '\'')
		if start >= 0 && end > start {
			actual = end - start - 1
		}
	case len(value) >= 3 && value[0] == 'X' && value[1] == '\'':
		start := strings.IndexByte(value, '\'')
		end := strings.LastIndexByte(value, '\'')
		if start >= 0 && end > start {
			digits := end - start - 1
			actual = (digits + 1) / 2
		}
	}

	if actual < 3 {
		return 3
	}
	return actual
}

// Exists reports whether canonical has been inserted.
func (t *Table) Exists(canonical string) bool {
	_, ok := t.byKey[canonical]
	return ok
}

// AssignAddress sets canonical's address and marks it assigned. Used
// exclusively by LTORG/END pool-flush processing.
func (t *Table) AssignAddress(canonical string, address int32) {
	if lit, ok := t.byKey[canonical]; ok {
		lit.Address = address
		lit.Assigned = true
	}
}

// Address returns canonical's assigned address.
func (t *Table) Address(canonical string) (int32, bool) {
	lit, ok := t.byKey[canonical]
	if !ok || !lit.Assigned {
		return -1, false
	}
	return lit.Address, true
}

// Length returns canonical's byte length.
func (t *Table) Length(canonical string) (int, bool) {
	lit, ok := t.byKey[canonical]
	if !ok {
		return 0, false
	}
	return lit.Length, true
}

// Value returns canonical's raw value text (without the leading "=").
func (t *Table) Value(canonical string) (string, bool) {
	lit, ok := t.byKey[canonical]
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// Unassigned returns every literal not yet given an address, in
// insertion order -- the order LTORG/END must flush them in.
func (t *Table) Unassigned() []*Literal {
	var out []*Literal
	for _, canonical := range t.order {
		if lit := t.byKey[canonical]; !lit.Assigned {
			out = append(out, lit)
		}
	}
	return out
}

// All returns every literal in insertion order.
func (t *Table) All() []*Literal {
	out := make([]*Literal, 0, len(t.order))
	for _, canonical := range t.order {
		out = append(out, t.byKey[canonical])
	}
	return out
}

// Dump renders the literal table in the fixed-width format of
// spec.md §6 / original_source's LITTAB::writeToFile.
func (t *Table) Dump() string {
	out := ""
	for _, lit := range t.All() {
		addrCol := "unassigned"
		if lit.Assigned {
			addrCol = fmt.Sprintf("0x%04X", uint32(lit.Address)&0xFFFF)
		}
		out += fmt.Sprintf("%-20s%-20s%-15s%d\n", lit.Canonical, lit.Value, addrCol, lit.Length)
	}
	return out
}
