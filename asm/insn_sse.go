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

// Legacy (pre-AVX) SSE/SSE2 instructions. These never consult the EVEX
// machinery: displacements use the plain disp8/disp32 range check.

// emitSSERR encodes pre 0F op /r for two XMM registers.
func (a *Assembler) emitSSERR(pre SIMDPrefix, op byte, dst, src Register) {
	assertXMM(dst)
	assertXMM(src)
	a.cpu.require(FeatSSE2, "SSE2")
	a.start()
	modrm := a.legacySIMDPrefix(pre, Map0F, dst, src, false)
	a.buf.emitBytes(op, modrm)
}

// emitSSERM encodes pre 0F op /r for XMM, [mem].
func (a *Assembler) emitSSERM(pre SIMDPrefix, op byte, dst Register, adr Address) {
	assertXMM(dst)
	a.cpu.require(FeatSSE2, "SSE2")
	a.start()
	a.legacySIMDPrefixMem(pre, Map0F, dst, adr, false)
	a.buf.emit8(op)
	a.emitOperand(dst.enc3(), adr, 0, nil)
}

// --- moves ---

// Movss emits MOVSS xmm, xmm (F3 0F 10 /r).
func (a *Assembler) Movss(dst, src Register) { a.emitSSERR(PrefixF3, 0x10, dst, src) }

// Movsd emits MOVSD xmm, xmm (F2 0F 10 /r).
func (a *Assembler) Movsd(dst, src Register) { a.emitSSERR(PrefixF2, 0x10, dst, src) }

// MovsdMem emits MOVSD xmm, [mem].
func (a *Assembler) MovsdMem(dst Register, src Address) { a.emitSSERM(PrefixF2, 0x10, dst, src) }

// MovsdToMem emits MOVSD [mem], xmm (F2 0F 11 /r).
func (a *Assembler) MovsdToMem(dst Address, src Register) { a.emitSSERM(PrefixF2, 0x11, src, dst) }

// Movaps emits MOVAPS xmm, xmm (0F 28 /r).
func (a *Assembler) Movaps(dst, src Register) { a.emitSSERR(PrefixNone, 0x28, dst, src) }

// Movdqa emits MOVDQA xmm, xmm (66 0F 6F /r).
func (a *Assembler) Movdqa(dst, src Register) { a.emitSSERR(Prefix66, 0x6F, dst, src) }

// Movdqu emits MOVDQU xmm, [mem] (F3 0F 6F /r).
func (a *Assembler) MovdquMem(dst Register, src Address) { a.emitSSERM(PrefixF3, 0x6F, dst, src) }

// MovdquToMem emits MOVDQU [mem], xmm (F3 0F 7F /r).
func (a *Assembler) MovdquToMem(dst Address, src Register) { a.emitSSERM(PrefixF3, 0x7F, src, dst) }

// MovqXmmGpr emits MOVQ r64, xmm (66 REX.W 0F 7E /r).
func (a *Assembler) MovqXmmGpr(dst, src Register) {
	assertGPR(dst)
	assertXMM(src)
	a.cpu.require(FeatSSE2, "SSE2")
	a.start()
	a.buf.emit8(0x66)
	modrm := a.prefixAndEncode(src, dst, true)
	a.buf.emitBytes(0x0F, 0x7E, modrm)
}

// MovqGprXmm emits MOVQ xmm, r64 (66 REX.W 0F 6E /r).
func (a *Assembler) MovqGprXmm(dst, src Register) {
	assertXMM(dst)
	assertGPR(src)
	a.cpu.require(FeatSSE2, "SSE2")
	a.start()
	a.buf.emit8(0x66)
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0x6E, modrm)
}

// MovqXmmMem emits MOVQ xmm, [m64] (F3 0F 7E /r).
func (a *Assembler) MovqXmmMem(dst Register, src Address) { a.emitSSERM(PrefixF3, 0x7E, dst, src) }

// MovqXmmToMem emits MOVQ [m64], xmm (66 0F D6 /r).
func (a *Assembler) MovqXmmToMem(dst Address, src Register) { a.emitSSERM(Prefix66, 0xD6, src, dst) }

// --- scalar double arithmetic ---

// Addsd emits ADDSD xmm, xmm (F2 0F 58 /r).
func (a *Assembler) Addsd(dst, src Register) { a.emitSSERR(PrefixF2, 0x58, dst, src) }

// Subsd emits SUBSD xmm, xmm (F2 0F 5C /r).
func (a *Assembler) Subsd(dst, src Register) { a.emitSSERR(PrefixF2, 0x5C, dst, src) }

// Mulsd emits MULSD xmm, xmm (F2 0F 59 /r).
func (a *Assembler) Mulsd(dst, src Register) { a.emitSSERR(PrefixF2, 0x59, dst, src) }

// Divsd emits DIVSD xmm, xmm (F2 0F 5E /r).
func (a *Assembler) Divsd(dst, src Register) { a.emitSSERR(PrefixF2, 0x5E, dst, src) }

// Sqrtsd emits SQRTSD xmm, xmm (F2 0F 51 /r).
func (a *Assembler) Sqrtsd(dst, src Register) { a.emitSSERR(PrefixF2, 0x51, dst, src) }

// AddsdMem emits ADDSD xmm, [m64].
func (a *Assembler) AddsdMem(dst Register, src Address) { a.emitSSERM(PrefixF2, 0x58, dst, src) }

// --- compares / converts ---

// Ucomisd emits UCOMISD xmm, xmm (66 0F 2E /r).
func (a *Assembler) Ucomisd(dst, src Register) { a.emitSSERR(Prefix66, 0x2E, dst, src) }

// Ucomiss emits UCOMISS xmm, xmm (0F 2E /r).
func (a *Assembler) Ucomiss(dst, src Register) { a.emitSSERR(PrefixNone, 0x2E, dst, src) }

// Cvtsi2sdq emits CVTSI2SD xmm, r64 (F2 REX.W 0F 2A /r).
func (a *Assembler) Cvtsi2sdq(dst, src Register) {
	assertXMM(dst)
	assertGPR(src)
	a.cpu.require(FeatSSE2, "SSE2")
	a.start()
	a.buf.emit8(0xF2)
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0x2A, modrm)
}

// Cvttsd2siq emits CVTTSD2SI r64, xmm (F2 REX.W 0F 2C /r).
func (a *Assembler) Cvttsd2siq(dst, src Register) {
	assertGPR(dst)
	assertXMM(src)
	a.cpu.require(FeatSSE2, "SSE2")
	a.start()
	a.buf.emit8(0xF2)
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0x2C, modrm)
}

// Cvtsd2ss emits CVTSD2SS xmm, xmm (F2 0F 5A /r).
func (a *Assembler) Cvtsd2ss(dst, src Register) { a.emitSSERR(PrefixF2, 0x5A, dst, src) }

// --- logicals ---

// Xorps emits XORPS xmm, xmm (0F 57 /r).
func (a *Assembler) Xorps(dst, src Register) { a.emitSSERR(PrefixNone, 0x57, dst, src) }

// Xorpd emits XORPD xmm, xmm (66 0F 57 /r).
func (a *Assembler) Xorpd(dst, src Register) { a.emitSSERR(Prefix66, 0x57, dst, src) }

// Andps emits ANDPS xmm, xmm (0F 54 /r).
func (a *Assembler) Andps(dst, src Register) { a.emitSSERR(PrefixNone, 0x54, dst, src) }

// Pxor emits PXOR xmm, xmm (66 0F EF /r).
func (a *Assembler) Pxor(dst, src Register) { a.emitSSERR(Prefix66, 0xEF, dst, src) }

// Pcmpeqd emits PCMPEQD xmm, xmm (66 0F 76 /r).
func (a *Assembler) Pcmpeqd(dst, src Register) { a.emitSSERR(Prefix66, 0x76, dst, src) }

// Paddd emits PADDD xmm, xmm (66 0F FE /r).
func (a *Assembler) Paddd(dst, src Register) { a.emitSSERR(Prefix66, 0xFE, dst, src) }
