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
	"fmt"
	"strings"
)

// IntermediateDump renders result's line stream in the fixed-width
// format of spec.md §6, with every location resolved through the
// finalized block layout to an absolute address -- matching
// original_source's Pass1::writeIntFile/printIntFile, which prints
// absolute addresses even though Pass 1 itself only ever tracks
// block-relative offsets internally.
func IntermediateDump(result *Pass1Result) string {
	var b strings.Builder

	for _, line := range result.Lines {
		locCol := strings.Repeat(" ", 10)
		if line.HasLocation {
			locCol = fmt.Sprintf("0x%08X", uint32(result.Final.Absolute(line.Block, line.Location)))
		}

		label := line.Label
		if label == "*" {
			label = ""
		}

		fmt.Fprintf(&b, "%-10s%-10s%-10s%-20s\n", locCol, label, line.Opcode, line.Operand)
	}

	return b.String()
}
