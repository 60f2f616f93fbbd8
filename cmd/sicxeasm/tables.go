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

package main

import (
	"fmt"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/corewood/sicxe/pkg/assembler"
	"github.com/corewood/sicxe/pkg/block"
)

var prettyTables bool

var tablesCmd = &cobra.Command{
	Use:   "tables <file>",
	Short: "Run Pass 1 and dump SYMTAB/LITTAB/block state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTables(args[0])
	},
}

func init() {
	tablesCmd.Flags().BoolVar(&prettyTables, "pretty", false, "pretty-print table state with github.com/k0kubun/pp instead of the plain fixed-width dump")
}

func runTables(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	ot, err := loadOptab()
	if err != nil {
		return err
	}

	result, errs := assembler.RunPass1(file, ot)
	if result == nil {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return fmt.Errorf("pass 1 failed for %s", path)
	}

	// A source with no END never finalizes its block layout (pass1.go's
	// handleEnd is the only place Final is set), so Final may be nil
	// here -- guard rather than let All() panic on a malformed source.
	var blocks []block.Block
	if result.Final != nil {
		blocks = result.Final.All()
	}

	if prettyTables {
		pp.Fprintf(os.Stdout, "SYMTAB: %v\n", result.Symtab)
		pp.Fprintf(os.Stdout, "LITTAB: %v\n", result.Littab)
		pp.Fprintf(os.Stdout, "BLOCKS: %v\n", blocks)
		return nil
	}

	fmt.Println("SYMTAB")
	fmt.Print(result.Symtab.Dump())
	fmt.Println("\nLITTAB")
	fmt.Print(result.Littab.Dump())
	fmt.Println("\nBLOCKS")
	if result.Final == nil {
		fmt.Println("(unavailable: source has no END, block layout was never finalized)")
	}
	for _, b := range blocks {
		fmt.Printf("%-10s id=%d start=0x%04X length=0x%04X\n", b.Name, b.ID, b.Start, b.Length)
	}

	return nil
}
