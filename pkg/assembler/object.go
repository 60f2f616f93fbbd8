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
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/corewood/sicxe/pkg/encoding"
)

// Header is the object program's "H" record: name, start address, and
// total length.
type Header struct {
	Name   string
	Start  int32
	Length int32
}

// Text is one "T" record: up to 30 bytes of contiguous object code
// starting at Start.
type Text struct {
	Start int32
	Code  []byte
}

// Modification is one "M" record: an address field at Start needing
// relocation, HalfBytes hex digits wide (5 for a format-4 address
// field, 6 for a WORD).
type Modification struct {
	Start     int32
	HalfBytes int
}

// End is the object program's "E" record: the first executable
// address.
type End struct {
	FirstExec int32
}

// Program is the complete assembled object program, per spec.md §6.
type Program struct {
	Header Header
	Text   []Text
	Mod    []Modification
	End    End
}

// String renders p as H/T/M/E record lines, one per line, in the exact
// column layout spec.md §6 specifies.
func (p *Program) String() string {
	var b strings.Builder

	name := p.Header.Name
	if len(name) > 6 {
		name = name[:6]
	}
	fmt.Fprintf(&b, "H%-6s%s%s\n", name, encoding.ToHex(int64(p.Header.Start), 6), encoding.ToHex(int64(p.Header.Length), 6))

	for _, t := range p.Text {
		fmt.Fprintf(&b, "T%s%02X%s\n", encoding.ToHex(int64(t.Start), 6), len(t.Code), strings.ToUpper(hex.EncodeToString(t.Code)))
	}

	for _, m := range p.Mod {
		fmt.Fprintf(&b, "M%s%s\n", encoding.ToHex(int64(m.Start), 6), encoding.ToHex(int64(m.HalfBytes), 2))
	}

	fmt.Fprintf(&b, "E%s\n", encoding.ToHex(int64(p.End.FirstExec), 6))

	return b.String()
}

// textBuilder accumulates object code into Text records, enforcing the
// 30-byte cap and the contiguity rule from spec.md §4.8: a new record
// starts whenever the next byte's address does not immediately follow
// the current record, or appending the code would take the current
// record past 30 bytes.
type textBuilder struct {
	records []Text
	current *Text
}

const maxTextRecordBytes = 30

func (tb *textBuilder) append(addr int32, code []byte) {
	if len(code) == 0 {
		return
	}

	if tb.current == nil || tb.current.Start+int32(len(tb.current.Code)) != addr || len(tb.current.Code)+len(code) > maxTextRecordBytes {
		tb.flush()
		tb.current = &Text{Start: addr}
	}

	tb.current.Code = append(tb.current.Code, code...)
}

func (tb *textBuilder) flush() {
	if tb.current != nil && len(tb.current.Code) > 0 {
		tb.records = append(tb.records, *tb.current)
	}
	tb.current = nil
}
