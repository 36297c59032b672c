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

// VerifyRelocations enables the self-consistency cross-check between the
// operand locator and the recorded relocation marks. Diagnostic only;
// production emission never depends on it.
var VerifyRelocations = false

// CheckRelocation re-decodes every relocated instruction and asserts that
// the locator finds a 32 or 64-bit field strictly inside it. A panic here
// means an emitter wrote a relocation without a matching locator case.
func (b *CodeBuffer) CheckRelocation() {
	b.Relocations(func(r Relocation) bool {
		b.checkOneRelocation(r)
		return true
	})
}

func (b *CodeBuffer) checkOneRelocation(r Relocation) {
	end := b.LocateEnd(r.Offset)
	if end <= r.Offset || end > len(b.bytes) {
		panic("asm: relocation check: bad instruction bounds")
	}
	var field int
	switch r.Kind {
	case RelocCall, RelocStaticCall, RelocOptVirtualCall, RelocRuntimeCall:
		field = b.LocateCallTarget(r.Offset)
	default:
		// either a rip-relative disp32 or an imm64 literal
		field = locateAnyField(b.bytes, r.Offset)
	}
	if field <= r.Offset || field >= end {
		panic("asm: relocation check: field outside instruction")
	}
}

func locateAnyField(code []byte, pc int) (off int) {
	defer func() {
		if recover() != nil {
			// no disp32: the literal must live in the immediate field
			off = locateOperand(code, pc, locImm)
		}
	}()
	return locateOperand(code, pc, locDisp32)
}
