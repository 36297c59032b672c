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

// AVX/AVX2 instructions. Each takes an Attributes value constructed fresh
// at the call site; the prefix selector upgrades to EVEX transparently
// when the operands or attributes demand it (register encoding >= 16,
// 512-bit length, write mask, broadcast).

// emitVexRR encodes a three-operand register form and fills in the
// instruction's disp8*N tuple metadata (unused unless EVEX is selected).
func (a *Assembler) emitVexRR(pre SIMDPrefix, opc OpcodeMap, op byte, dst, nds, src Register, at Attributes, tuple TupleType, input EVEXInput) {
	a.cpu.require(FeatAVX, "AVX")
	a.start()
	at.Tuple = tuple
	at.Input = input
	modrm := a.vexPrefixAndEncode(dst, nds, src, pre, opc, &at)
	a.buf.emitBytes(op, modrm)
}

// emitVexRM encodes a memory-source form.
func (a *Assembler) emitVexRM(pre SIMDPrefix, opc OpcodeMap, op byte, dst, nds Register, adr Address, at Attributes, tuple TupleType, input EVEXInput) {
	a.cpu.require(FeatAVX, "AVX")
	a.start()
	at.Tuple = tuple
	at.Input = input
	a.vexPrefixMem(dst, nds, adr, pre, opc, &at)
	a.buf.emit8(op)
	a.emitOperand(dst.enc3(), adr, 0, &at)
}

// --- packed float arithmetic ---

// Vaddps emits VADDPS dst, nds, src (VEX/EVEX.0F 58 /r).
func (a *Assembler) Vaddps(dst, nds, src Register, at Attributes) {
	a.emitVexRR(PrefixNone, Map0F, 0x58, dst, nds, src, at, TupleFV, Input32bit)
}

// Vaddpd emits VADDPD dst, nds, src (66.0F 58 /r, W1 under EVEX).
func (a *Assembler) Vaddpd(dst, nds, src Register, at Attributes) {
	a.emitVexRR(Prefix66, Map0F, 0x58, dst, nds, src, at.WithW(true), TupleFV, Input64bit)
}

// VaddpsMem emits VADDPS dst, nds, [mem].
func (a *Assembler) VaddpsMem(dst, nds Register, src Address, at Attributes) {
	a.emitVexRM(PrefixNone, Map0F, 0x58, dst, nds, src, at, TupleFV, Input32bit)
}

// Vsubps emits VSUBPS dst, nds, src (0F 5C /r).
func (a *Assembler) Vsubps(dst, nds, src Register, at Attributes) {
	a.emitVexRR(PrefixNone, Map0F, 0x5C, dst, nds, src, at, TupleFV, Input32bit)
}

// Vmulps emits VMULPS dst, nds, src (0F 59 /r).
func (a *Assembler) Vmulps(dst, nds, src Register, at Attributes) {
	a.emitVexRR(PrefixNone, Map0F, 0x59, dst, nds, src, at, TupleFV, Input32bit)
}

// Vdivps emits VDIVPS dst, nds, src (0F 5E /r).
func (a *Assembler) Vdivps(dst, nds, src Register, at Attributes) {
	a.emitVexRR(PrefixNone, Map0F, 0x5E, dst, nds, src, at, TupleFV, Input32bit)
}

// --- logicals / integer ---

// Vxorps emits VXORPS dst, nds, src (0F 57 /r).
func (a *Assembler) Vxorps(dst, nds, src Register, at Attributes) {
	a.emitVexRR(PrefixNone, Map0F, 0x57, dst, nds, src, at, TupleFV, Input32bit)
}

// Vpxor emits VPXOR dst, nds, src (66.0F EF /r). Under EVEX this form is
// W0 (vpxord).
func (a *Assembler) Vpxor(dst, nds, src Register, at Attributes) {
	a.emitVexRR(Prefix66, Map0F, 0xEF, dst, nds, src, at, TupleFV, Input32bit)
}

// Vpaddd emits VPADDD dst, nds, src (66.0F FE /r).
func (a *Assembler) Vpaddd(dst, nds, src Register, at Attributes) {
	a.emitVexRR(Prefix66, Map0F, 0xFE, dst, nds, src, at, TupleFV, Input32bit)
}

// VpadddMem emits VPADDD dst, nds, [mem]. With broadcast attributes the
// memory operand is a single dword repeated.
func (a *Assembler) VpadddMem(dst, nds Register, src Address, at Attributes) {
	a.emitVexRM(Prefix66, Map0F, 0xFE, dst, nds, src, at, TupleFV, Input32bit)
}

// Vpaddq emits VPADDQ dst, nds, src (66.0F D4 /r, W1 under EVEX).
func (a *Assembler) Vpaddq(dst, nds, src Register, at Attributes) {
	a.emitVexRR(Prefix66, Map0F, 0xD4, dst, nds, src, at.WithW(true), TupleFV, Input64bit)
}

// Vpand emits VPAND dst, nds, src (66.0F DB /r).
func (a *Assembler) Vpand(dst, nds, src Register, at Attributes) {
	a.emitVexRR(Prefix66, Map0F, 0xDB, dst, nds, src, at, TupleFV, Input32bit)
}

// Vpcmpeqd emits VPCMPEQD dst, nds, src (66.0F 76 /r). AVX-512 replaces
// this form with a mask-destination compare; keep it VEX-only.
func (a *Assembler) Vpcmpeqd(dst, nds, src Register, at Attributes) {
	if a.needsEVEX(&at, dst, nds, src) {
		panic("asm: vpcmpeqd has no EVEX form, use Evpcmpeqd")
	}
	a.emitVexRR(Prefix66, Map0F, 0x76, dst, nds, src, at, TupleFVM, Input32bit)
}

// --- moves / broadcast ---

// Vmovdqu emits VMOVDQU dst, src (F3.0F 6F /r). For encodings >= 16 or
// 512-bit operands use Evmovdqul instead (the EVEX form re-types to
// vmovdqu32).
func (a *Assembler) Vmovdqu(dst, src Register, at Attributes) {
	a.emitVexRR(PrefixF3, Map0F, 0x6F, dst, NoReg, src, at, TupleFVM, Input32bit)
}

// VmovdquMem emits VMOVDQU dst, [mem].
func (a *Assembler) VmovdquMem(dst Register, src Address, at Attributes) {
	a.emitVexRM(PrefixF3, Map0F, 0x6F, dst, NoReg, src, at, TupleFVM, Input32bit)
}

// VmovdquToMem emits VMOVDQU [mem], src (F3.0F 7F /r).
func (a *Assembler) VmovdquToMem(dst Address, src Register, at Attributes) {
	a.emitVexRM(PrefixF3, Map0F, 0x7F, src, NoReg, dst, at, TupleFVM, Input32bit)
}

// Vbroadcastss emits VBROADCASTSS dst, src (66.0F38 18 /r).
func (a *Assembler) Vbroadcastss(dst, src Register, at Attributes) {
	a.emitVexRR(Prefix66, Map0F38, 0x18, dst, NoReg, src, at, TupleT1S, Input32bit)
}

// VbroadcastssMem emits VBROADCASTSS dst, [m32].
func (a *Assembler) VbroadcastssMem(dst Register, src Address, at Attributes) {
	a.emitVexRM(Prefix66, Map0F38, 0x18, dst, NoReg, src, at, TupleT1S, Input32bit)
}

// Vpbroadcastd emits VPBROADCASTD dst, src (66.0F38 58 /r).
func (a *Assembler) Vpbroadcastd(dst, src Register, at Attributes) {
	a.cpu.require(FeatAVX2, "AVX2")
	a.emitVexRR(Prefix66, Map0F38, 0x58, dst, NoReg, src, at, TupleT1S, Input32bit)
}

// --- opmask register instructions (VEX-encoded, AVX-512F) ---

// emitKOp encodes the two-source opmask ALU family
// (VEX.L1.0F.W0 op k1, k2, k3).
func (a *Assembler) emitKOp(op byte, dst, nds, src Register) {
	assertMask(dst)
	assertMask(src)
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at := Attributes{VLen: VL256} // L1 selects the word-width form
	a.vexPrefix(false, false, false, vvvvEnc(nds), PrefixNone, Map0F, &at)
	a.buf.emitBytes(op, 0xC0|dst.enc3()<<3|src.enc3())
}

// Kandw emits KANDW k1, k2, k3 (VEX.L1.0F.W0 41 /r).
func (a *Assembler) Kandw(dst, nds, src Register) { assertMask(nds); a.emitKOp(0x41, dst, nds, src) }

// Korw emits KORW k1, k2, k3 (VEX.L1.0F.W0 45 /r).
func (a *Assembler) Korw(dst, nds, src Register) { assertMask(nds); a.emitKOp(0x45, dst, nds, src) }

// Kxorw emits KXORW k1, k2, k3 (VEX.L1.0F.W0 47 /r).
func (a *Assembler) Kxorw(dst, nds, src Register) { assertMask(nds); a.emitKOp(0x47, dst, nds, src) }

// Knotw emits KNOTW k1, k2 (VEX.L0.0F.W0 44 /r).
func (a *Assembler) Knotw(dst, src Register) {
	assertMask(dst)
	assertMask(src)
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at := Attributes{VLen: VL128}
	a.vexPrefix(false, false, false, 0, PrefixNone, Map0F, &at)
	a.buf.emitBytes(0x44, 0xC0|dst.enc3()<<3|src.enc3())
}

// Kortestw emits KORTESTW k1, k2 (VEX.L0.0F.W0 98 /r), setting ZF/CF.
func (a *Assembler) Kortestw(dst, src Register) {
	assertMask(dst)
	assertMask(src)
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at := Attributes{VLen: VL128}
	a.vexPrefix(false, false, false, 0, PrefixNone, Map0F, &at)
	a.buf.emitBytes(0x98, 0xC0|dst.enc3()<<3|src.enc3())
}

// Kmovw emits KMOVW k1, k2 (VEX.L0.0F.W0 90 /r).
func (a *Assembler) Kmovw(dst, src Register) {
	assertMask(dst)
	assertMask(src)
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at := Attributes{VLen: VL128}
	a.vexPrefix(false, false, false, 0, PrefixNone, Map0F, &at)
	a.buf.emitBytes(0x90, 0xC0|dst.enc3()<<3|src.enc3())
}

// KmovwFromGpr emits KMOVW k, r32 (VEX.L0.0F.W0 92 /r).
func (a *Assembler) KmovwFromGpr(dst, src Register) {
	assertMask(dst)
	assertGPR(src)
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at := Attributes{VLen: VL128}
	a.vexPrefix(false, false, src.NeedsREX(), 0, PrefixNone, Map0F, &at)
	a.buf.emitBytes(0x92, 0xC0|dst.enc3()<<3|src.enc3())
}

// KmovwToGpr emits KMOVW r32, k (VEX.L0.0F.W0 93 /r).
func (a *Assembler) KmovwToGpr(dst, src Register) {
	assertGPR(dst)
	assertMask(src)
	a.cpu.require(FeatAVX512F, "AVX512F")
	a.start()
	at := Attributes{VLen: VL128}
	a.vexPrefix(dst.NeedsREX(), false, false, 0, PrefixNone, Map0F, &at)
	a.buf.emitBytes(0x93, 0xC0|dst.enc3()<<3|src.enc3())
}
