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

// Package block models SIC/XE program blocks: named, independently
// counted regions of the output program. Pass 1 builds a Layout
// (block-relative bookkeeping); Finalize converts it to a FinalLayout
// once the program's total shape is known, at END. Keeping these as
// two distinct types is the type-level discipline spec.md §9
// recommends for block-relative vs. absolute addresses.
package block

import "sort"

// DefaultBlock is the name of the implicit block every program starts
// in, always block-id 0.
const DefaultBlock = "DEFAULT"

// Block is one program block's identity and, once known, its place in
// the final layout.
type Block struct {
	Name   string
	ID     int
	Start  int32
	Length int32
}

// Layout tracks blocks as Pass 1 encounters them: dense, unique ids in
// first-encounter order, DEFAULT always id 0.
type Layout struct {
	byName map[string]*Block
	order  []*Block
}

// NewLayout returns a Layout seeded with the implicit DEFAULT block.
func NewLayout() *Layout {
	l := &Layout{byName: make(map[string]*Block)}
	l.Use(DefaultBlock)
	return l
}

// Use returns the named block, creating it with the next dense id if
// it has not been seen before.
func (l *Layout) Use(name string) *Block {
	if b, ok := l.byName[name]; ok {
		return b
	}

	b := &Block{Name: name, ID: len(l.order)}
	l.byName[name] = b
	l.order = append(l.order, b)
	return b
}

// Blocks returns every block in id order.
func (l *Layout) Blocks() []*Block {
	out := make([]*Block, len(l.order))
	copy(out, l.order)
	return out
}

// FinalLayout is the immutable, absolutized block layout produced once
// at END: every block's Start is fixed, and Pass 2 addresses every
// byte of object code through it.
type FinalLayout struct {
	byID []Block
}

// Finalize lays blocks out in id order starting at programStart,
// per spec.md §4.5: block[0].start = programStart, block[i].start =
// block[i-1].start + block[i-1].length for i > 0. lengths maps each
// block's id to its final location-counter value.
func Finalize(l *Layout, programStart int32, lengths map[int]int32) *FinalLayout {
	blocks := l.Blocks()
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })

	final := &FinalLayout{byID: make([]Block, len(blocks))}

	addr := programStart
	for _, b := range blocks {
		length := lengths[b.ID]
		final.byID[b.ID] = Block{Name: b.Name, ID: b.ID, Start: addr, Length: length}
		addr += length
	}

	return final
}

// Get returns the finalized block with the given id.
func (f *FinalLayout) Get(id int) (Block, bool) {
	if id < 0 || id >= len(f.byID) {
		return Block{}, false
	}
	return f.byID[id], true
}

// Absolute converts a (block-id, block-relative offset) pair into an
// absolute program address -- the address function spec.md §4.6 calls
// for, used for every emitted object-code byte and modification
// record.
func (f *FinalLayout) Absolute(id int, offset int32) int32 {
	b, ok := f.Get(id)
	if !ok {
		return offset
	}
	return b.Start + offset
}

// All returns every finalized block, in id order.
func (f *FinalLayout) All() []Block {
	out := make([]Block, len(f.byID))
	copy(out, f.byID)
	return out
}

// TotalLength sums every block's length -- the program's total length
// for the object file's header record.
func (f *FinalLayout) TotalLength() int32 {
	var total int32
	for _, b := range f.byID {
		total += b.Length
	}
	return total
}
