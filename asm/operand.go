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

// Scale is the index multiplier of an x86 memory operand.
type Scale uint8

const (
	Scale1 Scale = 0
	Scale2 Scale = 1
	Scale4 Scale = 2
	Scale8 Scale = 3
)

// ScaleFor converts an element size in bytes to the SIB scale bits.
func ScaleFor(size int) Scale {
	switch size {
	case 1:
		return Scale1
	case 2:
		return Scale2
	case 4:
		return Scale4
	case 8:
		return Scale8
	}
	panic("asm: illegal scale factor")
}

// Address is a memory operand: [base + index*scale + disp]. A relocation
// kind other than RelocNone marks the displacement as symbolic; the emitter
// then always uses the disp32 form and attaches a relocation record at the
// instruction mark.
type Address struct {
	Base   Register
	Index  Register // may be an XMM register for gather/scatter forms
	Scale  Scale
	Disp   int32
	Reloc  RelocKind
	Target uint64 // absolute target for rip-relative/literal addressing
}

// NewAddress builds [base + disp].
func NewAddress(base Register, disp int32) Address {
	assertGPR(base)
	return Address{Base: base, Index: NoReg, Disp: disp}
}

// NewIndexedAddress builds [base + index*scale + disp]. The index register
// must not be RSP: its encoding slot in the SIB byte is reserved to mean
// "no index".
func NewIndexedAddress(base, index Register, scale Scale, disp int32) Address {
	assertGPR(base)
	if index.isGPR() && index.Enc() == RSP.Enc() {
		panic("asm: illegal use of RSP as index register")
	}
	return Address{Base: base, Index: index, Scale: scale, Disp: disp}
}

// NewLiteralAddress builds an absolute address operand carrying a
// relocation. With no base/index the emitter encodes it rip-relative.
func NewLiteralAddress(target uint64, kind RelocKind) Address {
	return Address{Base: NoReg, Index: NoReg, Target: target, Reloc: kind}
}

func (a Address) hasBase() bool  { return a.Base.IsValid() }
func (a Address) hasIndex() bool { return a.Index.IsValid() }
func (a Address) hasReloc() bool { return a.Reloc != RelocNone }

// validate is called on every emission; malformed operands are programmer
// errors, never runtime conditions.
func (a Address) validate() {
	if a.hasIndex() {
		if a.Index.isGPR() && a.Index.Enc() == RSP.Enc() {
			panic("asm: illegal use of RSP as index register")
		}
		if a.Index.isMask() {
			panic("asm: opmask register cannot index memory")
		}
	}
	if a.hasBase() && !a.Base.isGPR() {
		panic("asm: base must be a general purpose register")
	}
}
