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

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/corewood/sicxe/pkg/optab"
)

var optabPath string

var rootCmd = &cobra.Command{
	Use:   "sicxeasm [file]",
	Short: "A two-pass SIC/XE assembler",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runAssemble(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&optabPath, "optab", "",
		"path to an OPTAB file (defaults to the embedded standard SIC/XE table)",
	)

	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(tablesCmd)
}

// Execute runs the root command and returns the process exit code,
// per spec.md §6's exit-code contract: 0 on success, 1 when the command
// returns any error (an unreadable file, a failed Pass 1, a failed
// write).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		glog.Errorf("%v", err)
		return 1
	}
	return 0
}

func loadOptab() (*optab.Table, error) {
	if optabPath == "" {
		return optab.Standard()
	}

	file, err := os.Open(optabPath)
	if err != nil {
		return nil, fmt.Errorf("opening optab %q: %w", optabPath, err)
	}
	defer file.Close()

	return optab.Load(file)
}
