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

// RegKind classifies the register file a Register belongs to.
type RegKind uint8

const (
	KindNone RegKind = iota
	KindGPR          // general purpose, RAX..R15
	KindXMM          // vector, XMM0..XMM31 (YMM/ZMM views share encodings)
	KindMask         // opmask, K0..K7
)

// Register identifies a physical register by its hardware encoding (0-31)
// and register file. Immutable value type.
type Register struct {
	enc  uint8
	kind RegKind
}

// NoReg is the absent-register sentinel (e.g. "no index register").
var NoReg = Register{}

func gpr(enc uint8) Register  { return Register{enc, KindGPR} }
func xmm(enc uint8) Register  { return Register{enc, KindXMM} }
func mask(enc uint8) Register { return Register{enc, KindMask} }

// General purpose registers (64-bit names; 32/16/8-bit views share encodings).
var (
	RAX = gpr(0)
	RCX = gpr(1)
	RDX = gpr(2)
	RBX = gpr(3)
	RSP = gpr(4)
	RBP = gpr(5)
	RSI = gpr(6)
	RDI = gpr(7)
	R8  = gpr(8)
	R9  = gpr(9)
	R10 = gpr(10)
	R11 = gpr(11)
	R12 = gpr(12)
	R13 = gpr(13)
	R14 = gpr(14)
	R15 = gpr(15)
)

// Vector registers. Encodings 16-31 are only reachable through EVEX.
var (
	XMM0  = xmm(0)
	XMM1  = xmm(1)
	XMM2  = xmm(2)
	XMM3  = xmm(3)
	XMM4  = xmm(4)
	XMM5  = xmm(5)
	XMM6  = xmm(6)
	XMM7  = xmm(7)
	XMM8  = xmm(8)
	XMM9  = xmm(9)
	XMM10 = xmm(10)
	XMM11 = xmm(11)
	XMM12 = xmm(12)
	XMM13 = xmm(13)
	XMM14 = xmm(14)
	XMM15 = xmm(15)
	XMM16 = xmm(16)
	XMM17 = xmm(17)
	XMM18 = xmm(18)
	XMM19 = xmm(19)
	XMM20 = xmm(20)
	XMM21 = xmm(21)
	XMM22 = xmm(22)
	XMM23 = xmm(23)
	XMM24 = xmm(24)
	XMM25 = xmm(25)
	XMM26 = xmm(26)
	XMM27 = xmm(27)
	XMM28 = xmm(28)
	XMM29 = xmm(29)
	XMM30 = xmm(30)
	XMM31 = xmm(31)
)

// Opmask registers. K0 as a write mask means "no masking".
var (
	K0 = mask(0)
	K1 = mask(1)
	K2 = mask(2)
	K3 = mask(3)
	K4 = mask(4)
	K5 = mask(5)
	K6 = mask(6)
	K7 = mask(7)
)

// IsValid reports whether r names an actual register (not NoReg).
func (r Register) IsValid() bool { return r.kind != KindNone }

// Kind returns the register file.
func (r Register) Kind() RegKind { return r.kind }

// Enc returns the full hardware encoding (0-31).
func (r Register) Enc() uint8 {
	if r.kind == KindNone {
		panic("asm: Enc on NoReg")
	}
	return r.enc
}

// enc3 returns the low 3 bits for the ModRM/SIB fields.
func (r Register) enc3() uint8 { return r.enc & 7 }

// NeedsREX reports whether the encoding requires a REX/VEX extension bit.
func (r Register) NeedsREX() bool { return r.kind != KindNone && r.enc >= 8 }

// NeedsEVEX reports whether the encoding is only reachable through EVEX
// (vector registers 16-31).
func (r Register) NeedsEVEX() bool { return r.kind != KindNone && r.enc >= 16 }

func (r Register) isGPR() bool  { return r.kind == KindGPR }
func (r Register) isXMM() bool  { return r.kind == KindXMM }
func (r Register) isMask() bool { return r.kind == KindMask }

func assertGPR(r Register) {
	if !r.isGPR() {
		panic("asm: general purpose register required")
	}
}

func assertXMM(r Register) {
	if !r.isXMM() {
		panic("asm: vector register required")
	}
}

func assertMask(r Register) {
	if !r.isMask() {
		panic("asm: opmask register required")
	}
}
