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

// SIMDPrefix is the pp field: the mandatory legacy prefix folded into
// VEX/EVEX (none, 66, F3, F2).
type SIMDPrefix uint8

const (
	PrefixNone SIMDPrefix = 0
	Prefix66   SIMDPrefix = 1
	PrefixF3   SIMDPrefix = 2
	PrefixF2   SIMDPrefix = 3
)

// OpcodeMap is the mm field selecting the opcode map (0F, 0F38, 0F3A).
type OpcodeMap uint8

const (
	Map0F   OpcodeMap = 1
	Map0F38 OpcodeMap = 2
	Map0F3A OpcodeMap = 3
)

// --- legacy REX ---

// prefixAndEncode emits a REX prefix for a register-register form as
// needed and returns the ModRM byte (mod=11). wide selects REX.W.
func (a *Assembler) prefixAndEncode(reg, rm Register, wide bool) byte {
	if reg.NeedsEVEX() || rm.NeedsEVEX() {
		panic("asm: register encoding above 15 requires an EVEX instruction")
	}
	var rex byte
	if wide {
		rex |= 0x08
	}
	if reg.NeedsREX() {
		rex |= 0x04
	}
	if rm.NeedsREX() {
		rex |= 0x01
	}
	if rex != 0 {
		a.buf.emit8(0x40 | rex)
	}
	return 0xC0 | reg.enc3()<<3 | rm.enc3()
}

// prefixOpReg emits REX for the mov-reg-imm style forms where the register
// lives in the opcode's low 3 bits.
func (a *Assembler) prefixOpReg(rm Register, wide bool) {
	var rex byte
	if wide {
		rex |= 0x08
	}
	if rm.NeedsREX() {
		rex |= 0x01
	}
	if rex != 0 {
		a.buf.emit8(0x40 | rex)
	}
}

// rexMem emits a REX prefix for a memory form. reg may be NoReg when the
// ModRM.reg field carries an opcode digit.
func (a *Assembler) rexMem(reg Register, adr Address, wide bool) {
	if reg.NeedsEVEX() {
		panic("asm: register encoding above 15 requires an EVEX instruction")
	}
	var rex byte
	if wide {
		rex |= 0x08
	}
	if reg.NeedsREX() {
		rex |= 0x04
	}
	if adr.hasIndex() && adr.Index.Enc()&8 != 0 {
		rex |= 0x02
	}
	if adr.hasBase() && adr.Base.NeedsREX() {
		rex |= 0x01
	}
	if rex != 0 {
		a.buf.emit8(0x40 | rex)
	}
}

// legacySIMDPrefix emits the mandatory prefix, REX and opcode-map escape
// bytes for a pre-AVX SSE form (register-register).
func (a *Assembler) legacySIMDPrefix(pre SIMDPrefix, opc OpcodeMap, reg, rm Register, wide bool) byte {
	a.emitSIMDPrefixByte(pre)
	modrm := a.prefixAndEncode(reg, rm, wide)
	a.emitOpcodeEscape(opc)
	return modrm
}

// legacySIMDPrefixMem is the memory-operand variant of legacySIMDPrefix.
func (a *Assembler) legacySIMDPrefixMem(pre SIMDPrefix, opc OpcodeMap, reg Register, adr Address, wide bool) {
	a.emitSIMDPrefixByte(pre)
	a.rexMem(reg, adr, wide)
	a.emitOpcodeEscape(opc)
}

func (a *Assembler) emitSIMDPrefixByte(pre SIMDPrefix) {
	switch pre {
	case Prefix66:
		a.buf.emit8(0x66)
	case PrefixF3:
		a.buf.emit8(0xF3)
	case PrefixF2:
		a.buf.emit8(0xF2)
	}
}

func (a *Assembler) emitOpcodeEscape(opc OpcodeMap) {
	switch opc {
	case Map0F:
		a.buf.emit8(0x0F)
	case Map0F38:
		a.buf.emitBytes(0x0F, 0x38)
	case Map0F3A:
		a.buf.emitBytes(0x0F, 0x3A)
	default:
		panic("asm: bad opcode map")
	}
}

// --- encoding mode selection ---

// needsEVEX is the single authority on the legacy/VEX vs EVEX decision.
// The original logic was scattered across call sites; centralizing it here
// makes the monotonicity rule checkable: any register encoding >= 16, a
// 512-bit vector length, an EVEX-only opcode, embedded broadcast or a
// non-zero write mask all force the 4-byte EVEX form.
func (a *Assembler) needsEVEX(at *Attributes, regs ...Register) bool {
	evex := at.EVEXRequired || at.VLen == VL512 || at.Broadcast
	if !evex {
		for _, r := range regs {
			if r.NeedsEVEX() {
				evex = true
				break
			}
		}
	}
	if !evex && at.MaskReg.IsValid() && at.MaskReg.Enc() != 0 {
		evex = true
	}
	if evex {
		a.cpu.require(FeatAVX512F, "AVX512F")
		if at.VLen != VL512 {
			a.cpu.require(FeatAVX512VL, "AVX512VL")
		}
	}
	return evex
}

// vexPrefixAndEncode selects and emits the prefix for a three-operand SIMD
// register form (dst = ModRM.reg, nds = vvvv, src = ModRM.rm) and returns
// the ModRM byte. The selector's decision is recorded on the attributes.
func (a *Assembler) vexPrefixAndEncode(dst, nds, src Register, pre SIMDPrefix, opc OpcodeMap, at *Attributes) byte {
	if a.needsEVEX(at, dst, nds, src) {
		at.isEVEX = true
		// in the register form the rm register's bit 4 travels in X
		a.evexPrefix(dst.Enc(), src.Enc(), src.Enc()>>1, vvvvEnc(nds), pre, opc, at)
	} else {
		at.legacyMode = true
		a.vexPrefix(dst.NeedsREX(), false, src.NeedsREX(), vvvvEnc(nds), pre, opc, at)
	}
	return 0xC0 | dst.enc3()<<3 | src.enc3()
}

// vexPrefixMem selects and emits the prefix for a SIMD memory form; the
// caller follows up with emitOperand(dst, adr, ...).
func (a *Assembler) vexPrefixMem(dst, nds Register, adr Address, pre SIMDPrefix, opc OpcodeMap, at *Attributes) {
	adr.validate()
	regs := []Register{dst, nds}
	if adr.hasIndex() && adr.Index.isXMM() {
		regs = append(regs, adr.Index)
	}
	if a.needsEVEX(at, regs...) {
		at.isEVEX = true
		var base, idx uint8
		if adr.hasBase() {
			base = adr.Base.Enc()
		}
		if adr.hasIndex() {
			idx = adr.Index.Enc()
		}
		a.evexPrefix(dst.Enc(), base, idx, vvvvEnc(nds), pre, opc, at)
	} else {
		at.legacyMode = true
		x := adr.hasIndex() && adr.Index.Enc()&8 != 0
		b := adr.hasBase() && adr.Base.NeedsREX()
		a.vexPrefix(dst.NeedsREX(), x, b, vvvvEnc(nds), pre, opc, at)
	}
}

func vvvvEnc(nds Register) uint8 {
	if !nds.IsValid() {
		return 0
	}
	return nds.Enc()
}

// vexPrefix emits the 2 or 3-byte VEX prefix. r/x/b are the extension
// bits (true = register encoding bit 3 set); stored inverted on the wire.
func (a *Assembler) vexPrefix(r, x, b bool, vvvv uint8, pre SIMDPrefix, opc OpcodeMap, at *Attributes) {
	if at.VLen == VL512 {
		panic("asm: 512-bit vector length is EVEX-only")
	}
	l := byte(0)
	if at.VLen == VL256 {
		l = 0x04
	}
	if !x && !b && !at.RexVexW && opc == Map0F {
		// two-byte form
		b1 := (^vvvv&0x0F)<<3 | l | byte(pre)
		if !r {
			b1 |= 0x80
		}
		a.buf.emitBytes(0xC5, b1)
		return
	}
	b1 := byte(opc) & 0x1F
	if !r {
		b1 |= 0x80
	}
	if !x {
		b1 |= 0x40
	}
	if !b {
		b1 |= 0x20
	}
	b2 := (^vvvv&0x0F)<<3 | l | byte(pre)
	if at.RexVexW {
		b2 |= 0x80
	}
	a.buf.emitBytes(0xC4, b1, b2)
}

// evexPrefix packs the 4-byte EVEX prefix (62 P0 P1 P2).
//
// regEnc is the full encoding of the ModRM.reg register (R + R'),
// rmEnc the ModRM.rm register or memory base (B), idxEnc the index
// register (X; for the register form the caller passes rmEnc>>1 so the rm
// register's bit 4 lands in X), vEnc the non-destructive source
// (vvvv + V').
func (a *Assembler) evexPrefix(regEnc, rmEnc, idxEnc, vEnc uint8, pre SIMDPrefix, opc OpcodeMap, at *Attributes) {
	if at.NoRegMask && at.maskEnc() != 0 && at.Zeroing {
		panic("asm: zeroing with a forbidden register mask")
	}
	p0 := byte(opc) & 0x03
	if regEnc&0x08 == 0 {
		p0 |= 0x80 // ~R
	}
	if idxEnc&0x08 == 0 {
		p0 |= 0x40 // ~X
	}
	if rmEnc&0x08 == 0 {
		p0 |= 0x20 // ~B
	}
	if regEnc&0x10 == 0 {
		p0 |= 0x10 // ~R'
	}
	p1 := byte(0x04) // fixed bit
	if at.RexVexW {
		p1 |= 0x80
	}
	p1 |= (^vEnc & 0x0F) << 3
	p1 |= byte(pre)
	p2 := byte(at.VLen) << 5
	if at.Zeroing {
		if at.maskEnc() == 0 {
			panic("asm: zeroing requires a write mask")
		}
		p2 |= 0x80
	}
	if at.Broadcast {
		p2 |= 0x10
	}
	if vEnc&0x10 == 0 {
		p2 |= 0x08 // ~V'
	}
	p2 |= at.maskEnc() & 0x07
	a.buf.emitBytes(0x62, p0, p1, p2)
}
