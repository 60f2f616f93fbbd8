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

// Package symtab holds the assembler's symbol table: a mapping from
// symbol name to (address, program-block id). Addresses are
// block-relative until Pass 1's block-finalization step rewrites them
// to absolute, via UpdateAddress.
package symtab

import (
	"fmt"
	"sort"
)

type entry struct {
	address int32
	block   int
}

// Table is the mutable symbol table built up during Pass 1 and
// absolutized once at END. It is read-only from Pass 2's perspective
// even though nothing at the type level enforces that beyond this
// comment -- the whole pipeline is single-threaded and sequential
// (spec.md §5), so a runtime lock would add nothing.
type Table struct {
	entries map[string]entry
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{entries: make(map[string]entry)}
}

// Insert adds symbol at address within block. Returns false if symbol
// already exists -- the caller should treat that as a non-fatal
// DuplicateSymbol warning (spec.md §7): the first definition wins.
func (t *Table) Insert(symbol string, address int32, block int) bool {
	if _, exists := t.entries[symbol]; exists {
		return false
	}

	t.entries[symbol] = entry{address: address, block: block}
	return true
}

// Lookup returns symbol's address (block-relative before
// finalization, absolute after) and whether it exists.
func (t *Table) Lookup(symbol string) (int32, bool) {
	e, ok := t.entries[symbol]
	return e.address, ok
}

// BlockOf returns the block-id symbol was defined in.
func (t *Table) BlockOf(symbol string) (int, bool) {
	e, ok := t.entries[symbol]
	return e.block, ok
}

// Exists reports whether symbol has been defined.
func (t *Table) Exists(symbol string) bool {
	_, ok := t.entries[symbol]
	return ok
}

// UpdateAddress overwrites symbol's stored address. Used exclusively
// by block finalization to replace block-relative offsets with
// absolute addresses -- never by ordinary Pass 1 symbol definition.
func (t *Table) UpdateAddress(symbol string, address int32) {
	if e, ok := t.entries[symbol]; ok {
		e.address = address
		t.entries[symbol] = e
	}
}

// All returns every defined symbol name, sorted, so dumps and
// round-trip comparisons (spec.md §8) are deterministic regardless of
// Go's randomized map iteration order.
func (t *Table) All() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Dump renders the symbol table in the fixed-width format of
// spec.md §6 / original_source's SYMTAB::writeToFile: name (20, left),
// "0xADDR" (15, left), block (decimal).
func (t *Table) Dump() string {
	out := ""
	for _, name := range t.All() {
		e := t.entries[name]
		out += fmt.Sprintf("%-20s%-15s%d\n", name, fmt.Sprintf("0x%04X", uint32(e.address)&0xFFFF), e.block)
	}
	return out
}
