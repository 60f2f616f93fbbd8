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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/golang/glog"

	"github.com/corewood/sicxe/pkg/block"
	"github.com/corewood/sicxe/pkg/littab"
	"github.com/corewood/sicxe/pkg/optab"
	"github.com/corewood/sicxe/pkg/symtab"
)

// Pass1Result is everything Pass 2 needs: the intermediate line stream
// (block-relative), the symbol and literal tables (absolutized), and
// the finalized block layout that converts between the two.
type Pass1Result struct {
	ProgramName  string
	StartAddress int32
	FirstExec    int32
	Lines        []IntermediateLine
	Symtab       *symtab.Table
	Littab       *littab.Table
	Final        *block.FinalLayout
}

// pass1 carries the mutable state threaded through a single run of
// Pass 1, kept as a struct rather than a pile of closures so each
// directive handler reads as a short method.
type pass1 struct {
	optab  *optab.Table
	symtab *symtab.Table
	littab *littab.Table
	layout *block.Layout

	locctr       map[int]int32
	literalBlock map[string]int
	currentBlock int
	final        *block.FinalLayout

	programName  string
	startAddress int32
	firstExecOp  string

	lines []IntermediateLine
	errs  []error
}

// RunPass1 reads src line by line, assigning block-relative addresses
// to every label and literal and recording an intermediate line for
// every source line that survives parsing. Errors are accumulated, not
// fatal -- spec.md §7's policy is that Pass 1 degrades and continues,
// except for a genuinely unreadable source stream.
func RunPass1(src io.Reader, ot *optab.Table) (*Pass1Result, []error) {
	p := &pass1{
		optab:        ot,
		symtab:       symtab.New(),
		littab:       littab.New(),
		layout:       block.NewLayout(),
		locctr:       map[int]int32{0: 0},
		literalBlock: map[string]int{},
		currentBlock: 0,
	}

	scanner := bufio.NewScanner(src)
	lineNum := 0
	done := false

	for !done && scanner.Scan() {
		lineNum++
		raw := scanner.Text()

		line, ok := ParseLine(raw, Cursor{Line: lineNum})
		if !ok {
			continue
		}

		switch strings.ToUpper(line.Opcode) {
		case "START":
			p.handleStart(line)
		case "END":
			p.handleEnd(line)
			done = true
		case "USE":
			p.handleUse(line)
		case "LTORG":
			p.flushLiterals(line.Cursor)
		case "ORG":
			p.handleOrg(line)
		case "EQU":
			p.handleEqu(line)
		case "BASE", "NOBASE":
			p.handleBaseDirective(line)
		case "WORD", "RESW", "RESB", "BYTE":
			p.handleDirective(line)
		default:
			p.handleInstruction(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, append(p.errs, fmt.Errorf("reading source: %w", err))
	}

	return &Pass1Result{
		ProgramName:  p.programName,
		StartAddress: p.startAddress,
		FirstExec:    p.firstExecValue(),
		Lines:        p.lines,
		Symtab:       p.symtab,
		Littab:       p.littab,
		Final:        p.final,
	}, p.errs
}

func (p *pass1) firstExecValue() int32 {
	if p.firstExecOp == "" {
		if p.final != nil {
			return p.final.Absolute(0, 0)
		}
		return p.startAddress
	}

	if v, ok := p.symtab.Lookup(p.firstExecOp); ok {
		return v
	}

	p.warn(&UndefinedSymbol{Pos: Cursor{}, Symbol: p.firstExecOp})
	return p.startAddress
}

func (p *pass1) warn(err error) {
	p.errs = append(p.errs, err)
	glog.Warningf("%v", err)
}

func (p *pass1) insertLabel(label string, addr int32) {
	if label == "" {
		return
	}
	if !p.symtab.Insert(label, addr, p.currentBlock) {
		p.warn(&DuplicateSymbol{Symbol: label})
	}
}

func (p *pass1) handleStart(line SourceLine) {
	value, err := EvaluateExpression(orDefault(line.Operand, "0"), p.symtab, line.Cursor)
	if err != nil {
		p.warn(err)
		value = 0
	}

	p.programName = line.Label
	p.startAddress = value
	p.insertLabel(line.Label, p.locctr[p.currentBlock])

	p.lines = append(p.lines, IntermediateLine{
		Block: p.currentBlock, Label: line.Label, Opcode: "START", Operand: line.Operand,
	})

	glog.V(1).Infof("program %q starts at %#x", line.Label, value)
}

func (p *pass1) handleEnd(line SourceLine) {
	p.flushLiterals(line.Cursor)

	lengths := make(map[int]int32, len(p.locctr))
	for id, loc := range p.locctr {
		lengths[id] = loc
	}

	final := block.Finalize(p.layout, p.startAddress, lengths)
	p.final = final

	for _, name := range p.symtab.All() {
		relAddr, _ := p.symtab.Lookup(name)
		blk, _ := p.symtab.BlockOf(name)
		p.symtab.UpdateAddress(name, final.Absolute(blk, relAddr))
	}

	for _, lit := range p.littab.All() {
		if !lit.Assigned {
			continue
		}
		blk := p.literalBlock[lit.Canonical]
		p.littab.AssignAddress(lit.Canonical, final.Absolute(blk, lit.Address))
	}

	p.firstExecOp = strings.TrimSpace(line.Operand)

	p.lines = append(p.lines, IntermediateLine{
		Block: p.currentBlock, Label: line.Label, Opcode: "END", Operand: line.Operand,
	})

	for _, b := range final.All() {
		glog.V(1).Infof("block %q (id %d): start %#x length %#x", b.Name, b.ID, b.Start, b.Length)
	}
}

func (p *pass1) handleUse(line SourceLine) {
	name := strings.TrimSpace(line.Operand)
	if name == "" {
		name = block.DefaultBlock
	}

	b := p.layout.Use(name)
	p.currentBlock = b.ID
	if _, ok := p.locctr[p.currentBlock]; !ok {
		p.locctr[p.currentBlock] = 0
	}

	p.lines = append(p.lines, IntermediateLine{
		Block: p.currentBlock, Opcode: "USE", Operand: name,
	})

	glog.V(1).Infof("block transition to %q (id %d)", name, p.currentBlock)
}

func (p *pass1) handleOrg(line SourceLine) {
	value, err := EvaluateExpression(line.Operand, p.symtab, line.Cursor)
	if err != nil {
		p.warn(err)
		value = p.locctr[p.currentBlock]
	}

	p.locctr[p.currentBlock] = value

	p.lines = append(p.lines, IntermediateLine{
		Location: value, Block: p.currentBlock, Opcode: "ORG", Operand: line.Operand, HasLocation: true,
	})
}

func (p *pass1) handleEqu(line SourceLine) {
	var value int32
	var err error

	if strings.TrimSpace(line.Operand) == "*" {
		value = p.locctr[p.currentBlock]
	} else {
		value, err = EvaluateExpression(line.Operand, p.symtab, line.Cursor)
		if err != nil {
			p.warn(err)
			value = 0
		}
	}

	p.insertLabel(line.Label, value)

	p.lines = append(p.lines, IntermediateLine{
		Location: value, Block: p.currentBlock, Label: line.Label, Opcode: "EQU", Operand: line.Operand, HasLocation: true,
	})
}

func (p *pass1) handleBaseDirective(line SourceLine) {
	p.lines = append(p.lines, IntermediateLine{
		Block: p.currentBlock, Opcode: strings.ToUpper(line.Opcode), Operand: line.Operand,
	})
}

func (p *pass1) handleDirective(line SourceLine) {
	directive := strings.ToUpper(line.Opcode)
	loc := p.locctr[p.currentBlock]

	p.insertLabel(line.Label, loc)

	length, err := getDirectiveLength(directive, line.Operand, line.Cursor, p.symtab)
	if err != nil {
		p.warn(err)
		length = 0
	}

	p.lines = append(p.lines, IntermediateLine{
		Location: loc, Block: p.currentBlock, Label: line.Label, Opcode: directive, Operand: line.Operand, HasLocation: true,
	})

	p.locctr[p.currentBlock] = loc + length
}

func (p *pass1) handleInstruction(line SourceLine) {
	mnemonic := strings.ToUpper(line.Opcode)
	loc := p.locctr[p.currentBlock]

	baseFormat, exists := p.optab.BaseFormat(mnemonic)
	if !exists {
		p.warn(&SyntaxError{Pos: line.Cursor, Message: fmt.Sprintf("unknown mnemonic %q", line.Opcode)})
		p.lines = append(p.lines, IntermediateLine{
			Location: loc, Block: p.currentBlock, Label: line.Label, Opcode: line.Opcode, Operand: line.Operand, HasLocation: true,
		})
		return
	}

	length := int32(baseFormat)
	if line.Format4 {
		length = 4
	}

	p.insertLabel(line.Label, loc)

	if strings.HasPrefix(strings.TrimSpace(line.Operand), "=") {
		p.littab.Insert(strings.TrimSpace(line.Operand))
	}

	p.lines = append(p.lines, IntermediateLine{
		Location: loc, Block: p.currentBlock, Label: line.Label, Opcode: mnemonic, Operand: line.Operand,
		HasLocation: true, Format4: line.Format4,
	})

	p.locctr[p.currentBlock] = loc + length
}

// flushLiterals assigns addresses to every literal inserted since the
// last flush, in insertion order, and records a pseudo intermediate
// line (label "*") for each so Pass 2 knows to emit its bytes here.
func (p *pass1) flushLiterals(cursor Cursor) {
	for _, lit := range p.littab.Unassigned() {
		addr := p.locctr[p.currentBlock]
		p.littab.AssignAddress(lit.Canonical, addr)
		p.literalBlock[lit.Canonical] = p.currentBlock

		p.lines = append(p.lines, IntermediateLine{
			Location: addr, Block: p.currentBlock, Label: "*", Opcode: "*", Operand: lit.Canonical, HasLocation: true,
		})

		p.locctr[p.currentBlock] = addr + int32(lit.Length)
	}
}

// getDirectiveLength implements spec.md §4.5's directive length table.
func getDirectiveLength(directive, operand string, cursor Cursor, syms SymbolLookup) (int32, error) {
	switch directive {
	case "WORD":
		return 3, nil
	case "RESW":
		n, err := EvaluateExpression(operand, syms, cursor)
		if err != nil {
			return 0, err
		}
		return 3 * n, nil
	case "RESB":
		return EvaluateExpression(operand, syms, cursor)
	case "BYTE":
		return byteDirectiveLength(operand, cursor)
	default:
		return 0, &SyntaxError{Pos: cursor, Message: fmt.Sprintf("unknown directive %q", directive)}
	}
}

func byteDirectiveLength(operand string, cursor Cursor) (int32, error) {
	operand = strings.TrimSpace(operand)

	switch {
	case strings.HasPrefix(operand, "C'") && strings.HasSuffix(operand, "'"):
		return int32(len(operand) - 3), nil
	case strings.HasPrefix(operand, "X'") && strings.HasSuffix(operand, "'"):
		digits := len(operand) - 3
		return int32((digits + 1) / 2), nil
	default:
		return 0, &SyntaxError{Pos: cursor, Message: fmt.Sprintf("malformed BYTE operand %q", operand)}
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
