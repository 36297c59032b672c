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

// EVEX-only (AVX-512) instruction forms. All of these carry EVEXRequired
// attributes: the selector never falls back to VEX, regardless of operand
// encodings.

// emitEvexRR encodes a register form that exists only under EVEX.
func (a *Assembler) emitEvexRR(pre SIMDPrefix, opc OpcodeMap, op byte, dst, nds, src Register, at Attributes, tuple TupleType, input EVEXInput) {
	a.start()
	at.EVEXRequired = true
	at.Tuple = tuple
	at.Input = input
	modrm := a.vexPrefixAndEncode(dst, nds, src, pre, opc, &at)
	a.buf.emitBytes(op, modrm)
}

// emitEvexRM encodes a memory form that exists only under EVEX; the
// displacement goes through disp8*N compression.
func (a *Assembler) emitEvexRM(pre SIMDPrefix, opc OpcodeMap, op byte, dst, nds Register, adr Address, at Attributes, tuple TupleType, input EVEXInput) {
	a.start()
	at.EVEXRequired = true
	at.Tuple = tuple
	at.Input = input
	a.vexPrefixMem(dst, nds, adr, pre, opc, &at)
	a.buf.emit8(op)
	a.emitOperand(dst.enc3(), adr, 0, &at)
}

// --- typed full-width moves ---

// Evmovdqul emits VMOVDQU32 dst, src (EVEX.F3.0F.W0 6F /r).
func (a *Assembler) Evmovdqul(dst, src Register, at Attributes) {
	a.emitEvexRR(PrefixF3, Map0F, 0x6F, dst, NoReg, src, at, TupleFVM, Input32bit)
}

// Evmovdquq emits VMOVDQU64 dst, src (EVEX.F3.0F.W1 6F /r).
func (a *Assembler) Evmovdquq(dst, src Register, at Attributes) {
	a.emitEvexRR(PrefixF3, Map0F, 0x6F, dst, NoReg, src, at.WithW(true), TupleFVM, Input64bit)
}

// EvmovdqulMem emits VMOVDQU32 dst, [mem].
func (a *Assembler) EvmovdqulMem(dst Register, src Address, at Attributes) {
	a.emitEvexRM(PrefixF3, Map0F, 0x6F, dst, NoReg, src, at, TupleFVM, Input32bit)
}

// EvmovdqulToMem emits VMOVDQU32 [mem], src (EVEX.F3.0F.W0 7F /r).
// Storing with a zeroing mask is illegal: masked stores merge.
func (a *Assembler) EvmovdqulToMem(dst Address, src Register, at Attributes) {
	if at.Zeroing {
		panic("asm: masked store cannot zero")
	}
	a.emitEvexRM(PrefixF3, Map0F, 0x7F, src, NoReg, dst, at, TupleFVM, Input32bit)
}

// EvmovdquqMem emits VMOVDQU64 dst, [mem].
func (a *Assembler) EvmovdquqMem(dst Register, src Address, at Attributes) {
	a.emitEvexRM(PrefixF3, Map0F, 0x6F, dst, NoReg, src, at.WithW(true), TupleFVM, Input64bit)
}

// --- integer arithmetic, W1 re-typed ---

// Evpxorq emits VPXORQ dst, nds, src (EVEX.66.0F.W1 EF /r).
func (a *Assembler) Evpxorq(dst, nds, src Register, at Attributes) {
	a.emitEvexRR(Prefix66, Map0F, 0xEF, dst, nds, src, at.WithW(true), TupleFV, Input64bit)
}

// Evpaddq emits VPADDQ dst, nds, src under EVEX (66.0F.W1 D4 /r).
func (a *Assembler) Evpaddq(dst, nds, src Register, at Attributes) {
	a.emitEvexRR(Prefix66, Map0F, 0xD4, dst, nds, src, at.WithW(true), TupleFV, Input64bit)
}

// EvpadddMem emits VPADDD dst, nds, [mem] under EVEX, honoring embedded
// broadcast attributes ({1to16} forms).
func (a *Assembler) EvpadddMem(dst, nds Register, src Address, at Attributes) {
	a.emitEvexRM(Prefix66, Map0F, 0xFE, dst, nds, src, at, TupleFV, Input32bit)
}

// --- compares into opmask ---

// Evpcmpeqd emits VPCMPEQD k, nds, src (EVEX.66.0F.W0 76 /r): the AVX-512
// compare writes an opmask register, not a vector.
func (a *Assembler) Evpcmpeqd(kdst, nds, src Register, at Attributes) {
	assertMask(kdst)
	assertXMM(nds)
	assertXMM(src)
	at.NoRegMask = true
	a.emitEvexRR(Prefix66, Map0F, 0x76, kdst, nds, src, at, TupleFV, Input32bit)
}

// EvpcmpgtdMem emits VPCMPGTD k, nds, [mem] (EVEX.66.0F.W0 66 /r).
func (a *Assembler) EvpcmpgtdMem(kdst, nds Register, src Address, at Attributes) {
	assertMask(kdst)
	assertXMM(nds)
	at.NoRegMask = true
	a.emitEvexRM(Prefix66, Map0F, 0x66, kdst, nds, src, at, TupleFV, Input32bit)
}

// --- ternary logic ---

// Vpternlogd emits VPTERNLOGD dst, nds, src, imm8
// (EVEX.66.0F3A.W0 25 /r ib).
func (a *Assembler) Vpternlogd(dst, nds, src Register, imm uint8, at Attributes) {
	a.start()
	at.EVEXRequired = true
	at.Tuple = TupleFV
	at.Input = Input32bit
	modrm := a.vexPrefixAndEncode(dst, nds, src, Prefix66, Map0F3A, &at)
	a.buf.emitBytes(0x25, modrm, imm)
}

// VpternlogdMem is the memory-source form of Vpternlogd. The trailing
// immediate shifts the rip-relative correction by one byte.
func (a *Assembler) VpternlogdMem(dst, nds Register, src Address, imm uint8, at Attributes) {
	a.start()
	at.EVEXRequired = true
	at.Tuple = TupleFV
	at.Input = Input32bit
	a.vexPrefixMem(dst, nds, src, Prefix66, Map0F3A, &at)
	a.buf.emit8(0x25)
	a.emitOperand(dst.enc3(), src, 1, &at)
	a.buf.emit8(imm)
}

// --- broadcast from GPR ---

// EvpbroadcastdGpr emits VPBROADCASTD dst, r32 (EVEX.66.0F38.W0 7C /r).
func (a *Assembler) EvpbroadcastdGpr(dst, src Register, at Attributes) {
	assertXMM(dst)
	assertGPR(src)
	a.emitEvexRR(Prefix66, Map0F38, 0x7C, dst, NoReg, src, at, TupleT1S, Input32bit)
}

// --- gather (VSIB addressing) ---

// Evgatherdps emits VGATHERDPS dst{k}, [base + xmmindex*scale + disp]
// (EVEX.66.0F38.W0 92 /vsib). The write mask is mandatory and is consumed
// (cleared) by the hardware; the index register's bit 4 travels in V'.
func (a *Assembler) Evgatherdps(dst Register, adr Address, at Attributes) {
	assertXMM(dst)
	if !adr.hasIndex() || !adr.Index.isXMM() {
		panic("asm: gather requires a vector index register")
	}
	if at.maskEnc() == 0 {
		panic("asm: gather requires a non-K0 write mask")
	}
	if at.Zeroing {
		panic("asm: gather cannot zero-mask")
	}
	if dst.Enc() == adr.Index.Enc() {
		panic("asm: gather destination must differ from the index register")
	}
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at.EVEXRequired = true
	at.Tuple = TupleT1S
	at.Input = Input32bit
	at.isEVEX = true
	var base uint8
	if adr.hasBase() {
		base = adr.Base.Enc()
	}
	// vvvv must be 1111; the index's bit 4 is carried via V'
	vprime := adr.Index.Enc() & 0x10
	a.evexPrefix(dst.Enc(), base, adr.Index.Enc(), vprime, Prefix66, Map0F38, &at)
	a.buf.emit8(0x92)
	a.emitOperand(dst.enc3(), adr, 0, &at)
}
