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
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/corewood/sicxe/pkg/block"
	"github.com/corewood/sicxe/pkg/encoding"
	"github.com/corewood/sicxe/pkg/littab"
	"github.com/corewood/sicxe/pkg/optab"
	"github.com/corewood/sicxe/pkg/symtab"
)

// dispMode tags which displacement form a format-3 reference was
// encoded with -- the "short decision procedure
// returning a tagged variant" spec.md §9 asks for, kept as a pure
// function (selectDisplacement) independent of any encoder state.
type dispMode int

const (
	modeImmediate dispMode = iota
	modePCRelative
	modeBaseRelative
	modeDirect
)

// selectDisplacement picks the cheapest addressing form that reaches
// target: PC-relative (±2048 of the next instruction) first, then
// base-relative (0..4095 above base) if a base register is set,
// falling back to a direct, truncated 12-bit field with modeDirect --
// the caller reports that fallback as an OutOfRange warning.
func selectDisplacement(target, nextInsnAddr, base int32, hasBase bool) (dispMode, int32) {
	pcDisp := target - nextInsnAddr
	if pcDisp >= -2048 && pcDisp <= 2047 {
		return modePCRelative, encoding.Mask12(pcDisp)
	}

	if hasBase {
		baseDisp := target - base
		if baseDisp >= 0 && baseDisp <= 4095 {
			return modeBaseRelative, encoding.Mask12(baseDisp)
		}
	}

	return modeDirect, encoding.Mask12(target)
}

var registerNumbers = map[string]byte{
	"A": 0, "X": 1, "L": 2, "B": 3, "S": 4, "T": 5, "F": 6,
}

func registerNum(name string) (byte, bool) {
	r, ok := registerNumbers[strings.ToUpper(strings.TrimSpace(name))]
	return r, ok
}

// pass2 carries the mutable state threaded through a single run of
// Pass 2: the tables Pass 1 built, the finalized block layout, and the
// current base-register setting (set by BASE, cleared by NOBASE).
type pass2 struct {
	optab  *optab.Table
	symtab *symtab.Table
	littab *littab.Table
	final  *block.FinalLayout

	base    int32
	hasBase bool

	errs []error
}

func (p2 *pass2) warn(err error) {
	p2.errs = append(p2.errs, err)
	glog.Warningf("%v", err)
}

// RunPass2 walks Pass 1's intermediate lines and produces the object
// program and a listing, per spec.md §4.6.
func RunPass2(result *Pass1Result, ot *optab.Table) (*Program, []string, []error) {
	p2 := &pass2{optab: ot, symtab: result.Symtab, littab: result.Littab, final: result.Final}

	tb := &textBuilder{}
	var mods []Modification
	var listing []string

	for _, line := range result.Lines {
		switch line.Opcode {
		case "START", "END", "EQU", "ORG":
			listing = append(listing, p2.listingLine(line, nil))

		case "USE":
			// Block switches are never address-contiguous with what
			// came before, even when the next block's start address
			// happens to match -- flush so the two blocks' code never
			// shares a text record.
			tb.flush()
			listing = append(listing, p2.listingLine(line, nil))

		case "BASE":
			val, _, err := p2.resolveValue(strings.TrimSpace(line.Operand))
			if err != nil {
				p2.warn(err)
			} else {
				p2.base, p2.hasBase = val, true
			}
			listing = append(listing, p2.listingLine(line, nil))

		case "NOBASE":
			p2.hasBase = false
			listing = append(listing, p2.listingLine(line, nil))

		case "*":
			code := p2.encodeLiteral(line)
			p2.emit(tb, line, code)
			listing = append(listing, p2.listingLine(line, code))

		case "WORD", "BYTE", "RESW", "RESB":
			code, mod, err := p2.encodeDirective(line)
			if err != nil {
				p2.warn(err)
			}
			p2.emit(tb, line, code)
			if mod != nil {
				mods = append(mods, *mod)
			}
			listing = append(listing, p2.listingLine(line, code))

		default:
			absAddr := p2.final.Absolute(line.Block, line.Location)
			nextAddr := absAddr + instructionLength(ot, line.Opcode, line.Format4)

			code, mod, err := p2.encodeInstruction(line, absAddr, nextAddr)
			if err != nil {
				p2.warn(err)
			}
			p2.emit(tb, line, code)
			if mod != nil {
				mods = append(mods, *mod)
			}
			listing = append(listing, p2.listingLine(line, code))
		}
	}

	tb.flush()

	program := &Program{
		Header: Header{Name: result.ProgramName, Start: result.StartAddress, Length: p2.final.TotalLength()},
		Text:   tb.records,
		Mod:    mods,
		End:    End{FirstExec: result.FirstExec},
	}

	return program, listing, p2.errs
}

// emit feeds code into tb at line's absolute address, when there is
// any code to feed.
func (p2 *pass2) emit(tb *textBuilder, line IntermediateLine, code []byte) {
	if len(code) == 0 {
		return
	}
	tb.append(p2.final.Absolute(line.Block, line.Location), code)
}

func instructionLength(ot *optab.Table, mnemonic string, format4 bool) int32 {
	if format4 {
		return 4
	}
	f, _ := ot.BaseFormat(mnemonic)
	return int32(f)
}

func (p2 *pass2) encodeInstruction(line IntermediateLine, absAddr, nextAddr int32) ([]byte, *Modification, error) {
	baseFormat, ok := p2.optab.BaseFormat(line.Opcode)
	if !ok {
		return nil, nil, &SyntaxError{Message: fmt.Sprintf("unknown mnemonic %q", line.Opcode)}
	}

	switch {
	case baseFormat == optab.Format1:
		opcode, _ := p2.optab.Opcode(line.Opcode)
		return []byte{opcode}, nil, nil
	case baseFormat == optab.Format2:
		return p2.encodeFormat2(line)
	case line.Format4:
		return p2.encodeFormat4(line, absAddr)
	default:
		return p2.encodeFormat3(line, nextAddr)
	}
}

func (p2 *pass2) encodeFormat2(line IntermediateLine) ([]byte, *Modification, error) {
	opcode, _ := p2.optab.Opcode(line.Opcode)

	parts := strings.Split(line.Operand, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	r1, ok := registerNum(parts[0])
	if !ok {
		p2.warn(&EncodingError{Message: fmt.Sprintf("unknown register %q", parts[0])})
	}

	var r2 byte
	if len(parts) > 1 {
		switch line.Opcode {
		case "SHIFTL", "SHIFTR":
			n, err := strconv.ParseInt(parts[1], 10, 8)
			if err != nil {
				return nil, nil, &EncodingError{Message: fmt.Sprintf("invalid shift count %q", parts[1])}
			}
			r2 = byte(n-1) & 0xF
		default:
			var ok2 bool
			r2, ok2 = registerNum(parts[1])
			if !ok2 {
				p2.warn(&EncodingError{Message: fmt.Sprintf("unknown register %q", parts[1])})
			}
		}
	}

	return []byte{opcode, (r1 << 4) | (r2 & 0xF)}, nil, nil
}

func (p2 *pass2) encodeFormat3(line IntermediateLine, nextAddr int32) ([]byte, *Modification, error) {
	opcode, _ := p2.optab.Opcode(line.Opcode)
	operand := strings.TrimSpace(line.Operand)

	mode, operandSym, indexed := parseOperandAddressing(operand)

	n, i := byte(1), byte(1)
	switch mode {
	case "immediate":
		n, i = 0, 1
	case "indirect":
		n, i = 1, 0
	}
	if operand == "" {
		n, i = 1, 1
	}

	var disp int32
	var bbit, pbit byte

	switch {
	case operand == "":
		disp = 0

	case mode == "immediate":
		// Per spec.md §9's decided reading of the reference
		// implementation: immediate mode always encodes
		// disp = value & 0xFFF, never the PC/base-relative ladder,
		// regardless of whether value is a numeral, a literal, or a
		// symbol.
		val, _, err := p2.resolveValue(operandSym)
		if err != nil {
			p2.warn(err)
			val = 0
		}
		disp = encoding.Mask12(val)

	default:
		target, _, err := p2.resolveValue(operandSym)
		if err != nil {
			p2.warn(err)
			target = 0
		}

		selected, d := selectDisplacement(target, nextAddr, p2.base, p2.hasBase)
		disp = d
		switch selected {
		case modePCRelative:
			pbit = 1
		case modeBaseRelative:
			bbit = 1
		case modeDirect:
			p2.warn(&OutOfRange{Target: target})
		}
	}

	xbit := byte(0)
	if indexed {
		xbit = 1
	}

	byte1 := (opcode & 0xFC) | (n << 1) | i
	byte2 := (xbit << 7) | (bbit << 6) | (pbit << 5) | byte((disp>>8)&0xF)
	byte3 := byte(disp & 0xFF)

	return []byte{byte1, byte2, byte3}, nil, nil
}

func (p2 *pass2) encodeFormat4(line IntermediateLine, absAddr int32) ([]byte, *Modification, error) {
	opcode, _ := p2.optab.Opcode(line.Opcode)
	operand := strings.TrimSpace(line.Operand)

	mode, operandSym, indexed := parseOperandAddressing(operand)

	n, i := byte(1), byte(1)
	switch mode {
	case "immediate":
		n, i = 0, 1
	case "indirect":
		n, i = 1, 0
	}
	if operand == "" {
		n, i = 1, 1
	}

	var addr int32
	var symbolic bool

	if operand != "" {
		val, isSym, err := p2.resolveValue(operandSym)
		if err != nil {
			p2.warn(err)
			val = 0
		}
		addr = val
		symbolic = isSym
	}
	addr = encoding.Mask20(addr)

	xbit := byte(0)
	if indexed {
		xbit = 1
	}

	byte1 := (opcode & 0xFC) | (n << 1) | i
	byte2 := (xbit << 7) | (1 << 4) | byte((addr>>16)&0xF)
	byte3 := byte((addr >> 8) & 0xFF)
	byte4 := byte(addr & 0xFF)

	var mod *Modification
	if symbolic {
		mod = &Modification{Start: absAddr + 1, HalfBytes: 5}
	}

	return []byte{byte1, byte2, byte3, byte4}, mod, nil
}

// parseOperandAddressing splits operand into its addressing mode
// ("immediate", "indirect", or "simple"), the symbol/value part with
// any "#"/"@" sigil stripped, and whether it carries a ",X" index
// suffix.
func parseOperandAddressing(operand string) (mode, symbolPart string, indexed bool) {
	trimmed := strings.TrimSpace(operand)

	if strings.HasSuffix(strings.ToUpper(trimmed), ",X") {
		indexed = true
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-2])
	}

	switch {
	case strings.HasPrefix(trimmed, "#"):
		return "immediate", trimmed[1:], indexed
	case strings.HasPrefix(trimmed, "@"):
		return "indirect", trimmed[1:], indexed
	default:
		return "simple", trimmed, indexed
	}
}

// resolveValue resolves a format-3/4 operand to its value, reporting
// whether the value came from a symbol or literal reference (true) as
// opposed to a bare numeral (false) -- the distinction encodeFormat4
// needs to decide when a modification record is required.
func (p2 *pass2) resolveValue(operandSym string) (int32, bool, error) {
	trimmed := strings.TrimSpace(operandSym)

	if strings.HasPrefix(trimmed, "=") {
		if addr, ok := p2.littab.Address(trimmed); ok {
			return addr, true, nil
		}
		if !p2.littab.Exists(trimmed) {
			return 0, true, &SyntaxError{Message: fmt.Sprintf("literal %q was never inserted into the pool", trimmed)}
		}
		return 0, true, &SyntaxError{Message: fmt.Sprintf("literal %q was never assigned an address", trimmed)}
	}

	if isNumericOnly(trimmed) {
		v, _ := parseNumericOnly(trimmed)
		return v, false, nil
	}

	if addr, ok := p2.symtab.Lookup(trimmed); ok {
		return addr, true, nil
	}

	return 0, true, &UndefinedSymbol{Symbol: trimmed}
}

func isNumericOnly(s string) bool {
	s = strings.TrimSpace(s)
	_, ok := parseNumericOnly(s)
	return ok
}

func parseNumericOnly(s string) (int32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := encoding.DecodeHex(s)
		return int32(v), err == nil
	}

	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err == nil
}

func (p2 *pass2) encodeDirective(line IntermediateLine) ([]byte, *Modification, error) {
	switch line.Opcode {
	case "WORD":
		val, err := EvaluateExpression(line.Operand, p2.symtab, Cursor{})
		if err != nil {
			return nil, nil, err
		}

		code := bigEndianBytes(int64(val), 3)

		var mod *Modification
		if !isNumericOnly(line.Operand) {
			mod = &Modification{Start: p2.final.Absolute(line.Block, line.Location), HalfBytes: 6}
		}
		return code, mod, nil

	case "BYTE":
		code, err := decodeByteDirective(line.Operand)
		return code, nil, err

	case "RESW", "RESB":
		return nil, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported directive %q", line.Opcode)
	}
}

func decodeByteDirective(operand string) ([]byte, error) {
	operand = strings.TrimSpace(operand)

	switch {
	case strings.HasPrefix(operand, "C'") && strings.HasSuffix(operand, "'"):
		return []byte(operand[2 : len(operand)-1]), nil
	case strings.HasPrefix(operand, "X'") && strings.HasSuffix(operand, "'"):
		digits := operand[2 : len(operand)-1]
		return hex.DecodeString(encoding.EvenPad(digits))
	default:
		return nil, &SyntaxError{Message: fmt.Sprintf("malformed BYTE operand %q", operand)}
	}
}

// encodeLiteral decodes a literal pool entry's raw value into exactly
// lit.Length bytes: C'...' is padded on the right with zero bytes,
// X'...' and bare numerals are padded on the left, matching the
// big-endian, WORD-sized-minimum convention spec.md §3/§4.4 describes.
func (p2 *pass2) encodeLiteral(line IntermediateLine) []byte {
	canonical := line.Operand
	value, ok := p2.littab.Value(canonical)
	length, lenOK := p2.littab.Length(canonical)
	if !ok || !lenOK {
		p2.warn(&SyntaxError{Message: fmt.Sprintf("literal %q not found in pool", canonical)})
		return nil
	}

	switch {
	case strings.HasPrefix(value, "C'") && strings.HasSuffix(value, "'"):
		raw := []byte(value[2 : len(value)-1])
		return padRight(raw, length)

	case strings.HasPrefix(value, "X'") && strings.HasSuffix(value, "'"):
		digits := value[2 : len(value)-1]
		raw, err := hex.DecodeString(encoding.EvenPad(digits))
		if err != nil {
			p2.warn(&SyntaxError{Message: fmt.Sprintf("invalid hex literal %q", value)})
			return make([]byte, length)
		}
		return padLeft(raw, length)

	default:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			p2.warn(&SyntaxError{Message: fmt.Sprintf("invalid literal %q", value)})
			return make([]byte, length)
		}
		return bigEndianBytes(n, length)
	}
}

func padRight(raw []byte, length int) []byte {
	if len(raw) >= length {
		return raw[:length]
	}
	return append(append([]byte{}, raw...), make([]byte, length-len(raw))...)
}

func padLeft(raw []byte, length int) []byte {
	if len(raw) >= length {
		return raw[len(raw)-length:]
	}
	out := make([]byte, length)
	copy(out[length-len(raw):], raw)
	return out
}

func bigEndianBytes(n int64, length int) []byte {
	out := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		out[i] = byte(n & 0xFF)
		n >>= 8
	}
	return out
}

func (p2 *pass2) listingLine(line IntermediateLine, code []byte) string {
	locCol := strings.Repeat(" ", 10)
	if line.HasLocation {
		abs := p2.final.Absolute(line.Block, line.Location)
		locCol = fmt.Sprintf("0x%08X", uint32(abs))
	}

	label := line.Label
	if label == "*" {
		label = ""
	}

	objCol := strings.ToUpper(hex.EncodeToString(code))

	return fmt.Sprintf("%-10s%-10s%-10s%-20s%s", locCol, label, line.Opcode, line.Operand, objCol)
}
