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

// emitOperand encodes the ModRM/SIB/displacement bytes for a memory
// operand, choosing the shortest legal form. regField is the 3-bit
// ModRM.reg value (low register bits or an opcode digit). postLen is the
// number of immediate bytes the instruction appends after the
// displacement; the rip-relative correction needs it because pc-relative
// displacements are measured from the end of the instruction.
//
// Rules enforced here:
//   - a relocation forces the disp32 form, never disp8 and never the
//     no-displacement shorthand;
//   - base RBP/R13 (encoding 5) cannot use the no-displacement shorthand,
//     that encoding means rip-relative/absolute;
//   - base RSP/R12 (encoding 4) escapes through a SIB byte;
//   - EVEX instructions compress disp8 by the tuple scale, legacy forms
//     use the plain signed-byte range.
func (a *Assembler) emitOperand(regField uint8, adr Address, postLen int, at *Attributes) {
	adr.validate()
	regField &= 7
	b := a.buf
	switch {
	case adr.hasBase() && adr.hasIndex():
		sib := byte(adr.Scale)<<6 | adr.Index.enc3()<<3 | adr.Base.enc3()
		if adr.Disp == 0 && !adr.hasReloc() && adr.Base.enc3() != 5 {
			// [base + index*scale]
			b.emitBytes(0x04|regField<<3, sib)
		} else if d8, ok := a.disp8Form(adr, at); ok {
			// [base + index*scale + disp8]
			b.emitBytes(0x44|regField<<3, sib, byte(d8))
		} else {
			// [base + index*scale + disp32]
			b.emitBytes(0x84|regField<<3, sib)
			a.emitDisp32(adr)
		}
	case adr.hasBase():
		base3 := adr.Base.enc3()
		if base3 == 4 {
			// RSP/R12 base: SIB escape with index=100 ("no index")
			if adr.Disp == 0 && !adr.hasReloc() {
				b.emitBytes(0x04|regField<<3, 0x24)
			} else if d8, ok := a.disp8Form(adr, at); ok {
				b.emitBytes(0x44|regField<<3, 0x24, byte(d8))
			} else {
				b.emitBytes(0x84|regField<<3, 0x24)
				a.emitDisp32(adr)
			}
		} else if adr.Disp == 0 && !adr.hasReloc() && base3 != 5 {
			// [base], not available for RBP/R13
			b.emit8(regField<<3 | base3)
		} else if d8, ok := a.disp8Form(adr, at); ok {
			// [base + disp8]
			b.emitBytes(0x40|regField<<3|base3, byte(d8))
		} else {
			// [base + disp32]
			b.emit8(0x80 | regField<<3 | base3)
			a.emitDisp32(adr)
		}
	case adr.hasIndex():
		// [index*scale + disp32], no base
		sib := byte(adr.Scale)<<6 | adr.Index.enc3()<<3 | 0x05
		b.emitBytes(0x04|regField<<3, sib)
		a.emitDisp32(adr)
	default:
		if adr.hasReloc() {
			// [rip + disp32]
			b.emit8(regField<<3 | 0x05)
			a.emitRiprel(adr, postLen)
		} else {
			// [disp32] absolute needs the SIB escape: plain rm=101 would
			// mean rip-relative
			b.emitBytes(0x04|regField<<3, 0x25)
			b.emit32(uint32(adr.Disp))
		}
	}
}

// disp8Form decides whether the displacement is representable as one byte.
// Relocated displacements never are.
func (a *Assembler) disp8Form(adr Address, at *Attributes) (int8, bool) {
	if adr.hasReloc() {
		return 0, false
	}
	if at != nil && at.isEVEX {
		return compressDisp(adr.Disp, at)
	}
	if fitsDisp8(adr.Disp) {
		return int8(adr.Disp), true
	}
	return 0, false
}

func (a *Assembler) emitDisp32(adr Address) {
	if adr.hasReloc() {
		a.buf.relocate(adr.Reloc, adr.Target)
	}
	a.buf.emit32(uint32(adr.Disp))
}

// emitRiprel writes a pc-relative disp32 whose base point is the end of
// the instruction: target - (address after displacement + trailing
// immediate bytes).
func (a *Assembler) emitRiprel(adr Address, postLen int) {
	a.buf.relocate(adr.Reloc, adr.Target)
	next := int64(a.buf.Base) + int64(a.buf.Offset()) + 4 + int64(postLen)
	rel := int64(adr.Target) - next
	if rel != int64(int32(rel)) {
		panic("asm: rip-relative displacement out of range")
	}
	a.buf.emit32(uint32(int32(rel)))
}
