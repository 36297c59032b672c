/*
Copyright (C) 2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package asm

// The operand locator re-derives field offsets of a previously emitted
// instruction by replaying its prefix and opcode bytes. It is a minimal
// disassembler restricted to exactly the opcodes this package emits; every
// opcode case added to an insn_*.go file needs a matching case here, or
// patching and relocation verification silently break.

// query selects which field of the instruction to locate.
type query uint8

const (
	locEnd query = iota // offset just past the instruction
	locDisp32
	locImm
	locCall // rel32 field of a call/jump
)

// LocateEnd returns the offset just past the instruction starting at pc.
func (b *CodeBuffer) LocateEnd(pc int) int { return locateOperand(b.bytes, pc, locEnd) }

// LocateDisp32 returns the offset of the instruction's 4-byte displacement.
// Panics if the instruction has none.
func (b *CodeBuffer) LocateDisp32(pc int) int { return locateOperand(b.bytes, pc, locDisp32) }

// LocateImm returns the offset of the instruction's trailing immediate.
// Panics if the instruction has none.
func (b *CodeBuffer) LocateImm(pc int) int { return locateOperand(b.bytes, pc, locImm) }

// LocateCallTarget returns the offset of the rel32 field of a call or
// jump instruction.
func (b *CodeBuffer) LocateCallTarget(pc int) int { return locateOperand(b.bytes, pc, locCall) }

func locateOperand(code []byte, pc int, which query) int {
	ip := pc
	var (
		rexW     bool
		hasModRM bool
		immSize  int
		isBranch bool // rel32 branch/call form
		rel8     bool
	)

	// prefix replay
prefixes:
	for {
		switch code[ip] {
		case 0x66, 0x67, 0x2E, 0x36, 0x3E, 0x26, 0x64, 0x65, 0xF0, 0xF2, 0xF3:
			ip++
		default:
			b := code[ip]
			if b >= 0x40 && b <= 0x4F {
				if b&0x08 != 0 {
					rexW = true
				}
				ip++
				continue
			}
			break prefixes
		}
	}

	switch b := code[ip]; {
	case b == 0xC5:
		// 2-byte VEX: all emitted forms have a ModRM
		ip += 3 // C5, payload, opcode
		hasModRM = true
	case b == 0xC4:
		if code[ip+1]&0x1F == byte(Map0F3A) {
			immSize = 1
		}
		ip += 4 // C4, two payload bytes, opcode
		hasModRM = true
	case b == 0x62:
		if code[ip+1]&0x03 == byte(Map0F3A) {
			immSize = 1
		}
		ip += 5 // 62, P0, P1, P2, opcode
		hasModRM = true
	case b == 0x0F:
		ip++
		second := code[ip]
		switch {
		case second >= 0x80 && second <= 0x8F:
			// jcc rel32
			ip++
			isBranch = true
		case second == 0x0B:
			// ud2
			ip++
		default:
			switch second {
			case 0x10, 0x11, 0x1F, 0x28, 0x29, 0x2A, 0x2C, 0x2D, 0x2E, 0x2F,
				0x51, 0x54, 0x57, 0x58, 0x59, 0x5A, 0x5C, 0x5E,
				0x6E, 0x6F, 0x76, 0x7E, 0x7F,
				0xAF, 0xB0, 0xB1, 0xB6, 0xB7, 0xB8, 0xBC, 0xBD, 0xBE, 0xBF,
				0xC1, 0xD6, 0xEF, 0xFE:
				ip++
				hasModRM = true
			default:
				if second >= 0x40 && second <= 0x4F {
					// cmovcc
					ip++
					hasModRM = true
				} else if second >= 0x90 && second <= 0x9F {
					// setcc
					ip++
					hasModRM = true
				} else {
					panic("asm: locate: unknown 0F opcode")
				}
			}
		}
	case b == 0x01 || b == 0x03 || b == 0x09 || b == 0x0B || b == 0x11 || b == 0x13 ||
		b == 0x19 || b == 0x1B || b == 0x21 || b == 0x23 || b == 0x29 || b == 0x2B ||
		b == 0x31 || b == 0x33 || b == 0x39 || b == 0x3B ||
		b == 0x63 || b == 0x84 || b == 0x85 || b == 0x86 || b == 0x87 ||
		b == 0x88 || b == 0x89 || b == 0x8A || b == 0x8B || b == 0x8D:
		ip++
		hasModRM = true
	case b >= 0x50 && b <= 0x5F:
		// push/pop
		ip++
	case b == 0x68:
		ip++
		immSize = 4
	case b == 0x6A:
		ip++
		immSize = 1
	case b == 0x69:
		ip++
		hasModRM = true
		immSize = 4
	case b == 0x6B:
		ip++
		hasModRM = true
		immSize = 1
	case b >= 0x70 && b <= 0x7F:
		// jcc rel8
		ip++
		rel8 = true
	case b == 0x81:
		ip++
		hasModRM = true
		immSize = 4
	case b == 0x83:
		ip++
		hasModRM = true
		immSize = 1
	case b == 0x90:
		ip++
	case b >= 0xB8 && b <= 0xBF:
		ip++
		if rexW {
			immSize = 8
		} else {
			immSize = 4
		}
	case b == 0xC1:
		ip++
		hasModRM = true
		immSize = 1
	case b == 0xC2:
		ip++
		immSize = 2
	case b == 0xC3:
		ip++
	case b == 0xC6:
		ip++
		hasModRM = true
		immSize = 1
	case b == 0xC7:
		ip++
		hasModRM = true
		immSize = 4
	case b == 0xCC || b == 0xF4:
		ip++
	case b == 0xD1 || b == 0xD3:
		ip++
		hasModRM = true
	case b == 0xE8 || b == 0xE9:
		ip++
		isBranch = true
	case b == 0xEB:
		ip++
		rel8 = true
	case b == 0xF6:
		ip++
		hasModRM = true
		if (code[ip]>>3)&7 <= 1 {
			immSize = 1 // test /0,/1 carry imm8
		}
	case b == 0xF7:
		ip++
		hasModRM = true
		if (code[ip]>>3)&7 <= 1 {
			immSize = 4 // test /0,/1 carry imm32
		}
	case b == 0xFF:
		ip++
		hasModRM = true
	default:
		panic("asm: locate: unknown opcode")
	}

	if isBranch {
		switch which {
		case locCall, locImm:
			return ip
		case locEnd:
			return ip + 4
		}
		panic("asm: locate: branch has no displacement operand")
	}
	if rel8 {
		if which == locEnd {
			return ip + 1
		}
		panic("asm: locate: rel8 branch has no 32-bit operand")
	}

	disp32Off := -1
	if hasModRM {
		modrm := code[ip]
		ip++
		mod := modrm >> 6
		rm := modrm & 7
		if mod != 3 {
			base := byte(0xFF)
			if rm == 4 {
				base = code[ip] & 7 // SIB
				ip++
			}
			switch {
			case mod == 1:
				ip++
			case mod == 2, mod == 0 && rm == 5, mod == 0 && rm == 4 && base == 5:
				disp32Off = ip
				ip += 4
			}
		}
	}

	immOff := -1
	if immSize > 0 {
		immOff = ip
		ip += immSize
	}

	switch which {
	case locEnd:
		return ip
	case locDisp32:
		if disp32Off < 0 {
			panic("asm: locate: instruction has no disp32")
		}
		return disp32Off
	case locImm:
		if immOff < 0 {
			panic("asm: locate: instruction has no immediate")
		}
		return immOff
	case locCall:
		panic("asm: locate: not a call or jump")
	}
	panic("asm: locate: bad query")
}
