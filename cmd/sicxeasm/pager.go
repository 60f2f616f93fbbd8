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

// Adapted from cmd/golc3/term.go: the teacher used raw-terminal mode
// to drive an interactive LC3 machine debugger, out of scope here
// since executing the object program is a non-goal. Repurposed to page
// through the listing file a screen at a time instead. The termios
// ioctl request numbers differ across GOOS, so the raw-mode toggle
// itself lives in pager_linux.go/pager_darwin.go.
package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var termRestore unix.Termios

const defaultPageRows = 24

func pageRows() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Row == 0 {
		return defaultPageRows
	}
	return int(ws.Row) - 1
}

// pageText writes text to stdout a screenful at a time when stdout is
// a terminal, advancing on space/"n" and quitting on "q"; it falls
// back to a single unpaged dump otherwise.
func pageText(text string) {
	if !isTerminal(os.Stdout) {
		fmt.Print(text)
		return
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	rows := pageRows()

	enterRawTerm()
	defer exitRawTerm()

	buf := make([]byte, 1)

	for start := 0; start < len(lines); start += rows {
		end := start + rows
		if end > len(lines) {
			end = len(lines)
		}

		for _, line := range lines[start:end] {
			fmt.Print(line, "\r\n")
		}

		if end >= len(lines) {
			break
		}

		fmt.Print("-- more --\r")
		if _, err := os.Stdin.Read(buf); err != nil || buf[0] == 'q' {
			break
		}
	}
}
