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
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/corewood/sicxe/pkg/assembler"
)

var (
	outPath     string
	intfilePath string
	symtabPath  string
	littabPath  string
	listingPath string
	pageListing bool
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <file>",
	Short: "Assemble a SIC/XE source file into an object program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssemble(args[0])
	},
}

func init() {
	assembleCmd.Flags().StringVar(&outPath, "out", "", "object file path (default: source with extension replaced by .obj)")
	assembleCmd.Flags().StringVar(&intfilePath, "intfile", "", "write the intermediate-line dump to this path")
	assembleCmd.Flags().StringVar(&symtabPath, "symtab", "", "write the SYMTAB dump to this path")
	assembleCmd.Flags().StringVar(&littabPath, "littab", "", "write the LITTAB dump to this path")
	assembleCmd.Flags().StringVar(&listingPath, "listing", "", "write the listing file to this path")
	assembleCmd.Flags().BoolVar(&pageListing, "page", false, "page the listing through an interactive pager instead of (or in addition to) writing it")
}

func runAssemble(path string) error {
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
		glog.Errorf("pass 1 could not produce any output")
		for _, e := range errs {
			glog.Errorf("%v", e)
		}
		return fmt.Errorf("assembly of %s failed", path)
	}

	program, listing, passErrs := assembler.RunPass2(result, ot)
	errs = append(errs, passErrs...)

	if len(errs) > 0 {
		glog.V(1).Infof("%s: %d diagnostic(s) reported", path, len(errs))
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".obj"
	}
	if err := os.WriteFile(outPath, []byte(program.String()), 0666); err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}

	if intfilePath != "" {
		if err := os.WriteFile(intfilePath, []byte(assembler.IntermediateDump(result)), 0666); err != nil {
			return fmt.Errorf("writing intermediate file: %w", err)
		}
	}

	if symtabPath != "" {
		if err := os.WriteFile(symtabPath, []byte(result.Symtab.Dump()), 0666); err != nil {
			return fmt.Errorf("writing symtab dump: %w", err)
		}
	}

	if littabPath != "" {
		if err := os.WriteFile(littabPath, []byte(result.Littab.Dump()), 0666); err != nil {
			return fmt.Errorf("writing littab dump: %w", err)
		}
	}

	listingText := strings.Join(listing, "\n") + "\n"

	if listingPath != "" {
		if err := os.WriteFile(listingPath, []byte(listingText), 0666); err != nil {
			return fmt.Errorf("writing listing file: %w", err)
		}
	}

	if pageListing {
		pageText(listingText)
	}

	return nil
}
