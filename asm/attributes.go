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

// VectorLen selects the vector width of a SIMD instruction.
type VectorLen uint8

const (
	VL128 VectorLen = 0
	VL256 VectorLen = 1
	VL512 VectorLen = 2
)

// EVEXInput is the input element size used for disp8*N compression of
// tuple types whose scale depends on it (T1S, T1F).
type EVEXInput uint8

const (
	Input8bit  EVEXInput = 0
	Input16bit EVEXInput = 1
	Input32bit EVEXInput = 2
	Input64bit EVEXInput = 3
)

// Attributes carries the per-instruction encoding parameters. A fresh value
// is constructed at every emission call site and discarded when the
// instruction completes; it never persists across instructions.
//
// The prefix selector records its mode decision in the two unexported
// fields so the operand emitter downstream knows whether disp8*N
// compression applies.
type Attributes struct {
	VLen VectorLen

	// RexVexW is the W bit. RexVexWReverted marks instructions whose W is
	// fixed by the opcode regardless of the natural operand width.
	RexVexW         bool
	RexVexWReverted bool

	// EVEXRequired marks instructions that only exist in EVEX form.
	EVEXRequired bool

	// NoRegMask forbids a write mask on this instruction form.
	NoRegMask bool

	// Write mask and merge/zero semantics. K0 (or NoReg) means unmasked.
	MaskReg Register
	Zeroing bool

	// Disp8*N compression inputs.
	Tuple     TupleType
	Input     EVEXInput
	Broadcast bool // embedded broadcast (memory operand repeated)

	// Selector results, valid after prefix emission.
	isEVEX     bool
	legacyMode bool
}

// VecAttrs builds attributes for a plain VEX/EVEX-selectable vector
// instruction of the given length.
func VecAttrs(vlen VectorLen) Attributes {
	return Attributes{VLen: vlen, MaskReg: K0}
}

// EvexAttrs builds attributes for an EVEX-only instruction with disp8*N
// metadata.
func EvexAttrs(vlen VectorLen, tuple TupleType, input EVEXInput) Attributes {
	return Attributes{VLen: vlen, EVEXRequired: true, Tuple: tuple, Input: input, MaskReg: K0}
}

// WithMask returns a copy with a write mask attached.
func (at Attributes) WithMask(k Register, zeroing bool) Attributes {
	assertMask(k)
	if at.NoRegMask && k.Enc() != 0 {
		panic("asm: instruction form forbids a register mask")
	}
	at.MaskReg = k
	at.Zeroing = zeroing
	return at
}

// WithW returns a copy with the W bit forced.
func (at Attributes) WithW(w bool) Attributes {
	at.RexVexW = w
	return at
}

// WithWReverted returns a copy whose W bit is pinned by the opcode
// ("W-reverted": kept even where the natural width differs).
func (at Attributes) WithWReverted(w bool) Attributes {
	at.RexVexW = w
	at.RexVexWReverted = true
	return at
}

// WithBroadcast returns a copy with embedded broadcast enabled.
func (at Attributes) WithBroadcast() Attributes {
	at.Broadcast = true
	return at
}

// IsEVEX reports whether the selector chose the EVEX encoding. Only valid
// after the instruction's prefix has been emitted.
func (at *Attributes) IsEVEX() bool { return at.isEVEX }

// IsLegacyMode reports whether the selector fell back to a non-EVEX
// encoding. Only valid after the instruction's prefix has been emitted.
func (at *Attributes) IsLegacyMode() bool { return at.legacyMode }

func (at *Attributes) maskEnc() uint8 {
	if !at.MaskReg.IsValid() {
		return 0
	}
	return at.MaskReg.Enc()
}
