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

// Legacy integer instructions. Register forms use the "op reg, r/m"
// direction (base opcode + 3), so Addl(EAX, ECX) assembles to 03 C1.

// prefixAndEncodeDigit is prefixAndEncode for forms whose ModRM.reg field
// is an opcode digit instead of a register.
func (a *Assembler) prefixAndEncodeDigit(digit uint8, rm Register, wide bool) byte {
	if rm.NeedsEVEX() {
		panic("asm: register encoding above 15 requires an EVEX instruction")
	}
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
	return 0xC0 | digit<<3 | rm.enc3()
}

// emitArithRR encodes one ALU reg,reg form: op /r.
func (a *Assembler) emitArithRR(op byte, reg, rm Register, wide bool) {
	assertGPR(reg)
	assertGPR(rm)
	a.start()
	modrm := a.prefixAndEncode(reg, rm, wide)
	a.buf.emitBytes(op, modrm)
}

// emitArithImm encodes the 81/83 immediate family with sign compression.
func (a *Assembler) emitArithImm(digit uint8, dst Register, imm int32, wide bool) {
	assertGPR(dst)
	a.start()
	modrm := a.prefixAndEncodeDigit(digit, dst, wide)
	if fitsDisp8(imm) {
		a.buf.emitBytes(0x83, modrm, byte(int8(imm)))
	} else {
		a.buf.emitBytes(0x81, modrm)
		a.buf.emit32(uint32(imm))
	}
}

// emitArithRM encodes op reg, [mem] (load-operate direction, op+3 base).
func (a *Assembler) emitArithRM(op byte, reg Register, adr Address, wide bool) {
	assertGPR(reg)
	a.start()
	a.rexMem(reg, adr, wide)
	a.buf.emit8(op)
	a.emitOperand(reg.enc3(), adr, 0, nil)
}

// emitArithMR encodes op [mem], reg (store-operate direction, op+1 base).
func (a *Assembler) emitArithMR(op byte, adr Address, reg Register, wide bool) {
	assertGPR(reg)
	a.start()
	a.rexMem(reg, adr, wide)
	a.buf.emit8(op)
	a.emitOperand(reg.enc3(), adr, 0, nil)
}

// --- add/sub/and/or/xor/cmp/adc/sbb/test ---

func (a *Assembler) Addl(dst, src Register)          { a.emitArithRR(0x03, dst, src, false) }
func (a *Assembler) Addq(dst, src Register)          { a.emitArithRR(0x03, dst, src, true) }
func (a *Assembler) AddlImm(dst Register, imm int32) { a.emitArithImm(0, dst, imm, false) }
func (a *Assembler) AddqImm(dst Register, imm int32) { a.emitArithImm(0, dst, imm, true) }
func (a *Assembler) AddqMem(dst Register, src Address) { a.emitArithRM(0x03, dst, src, true) }
func (a *Assembler) AddqToMem(dst Address, src Register) { a.emitArithMR(0x01, dst, src, true) }

func (a *Assembler) Adcq(dst, src Register)          { a.emitArithRR(0x13, dst, src, true) }
func (a *Assembler) Sbbq(dst, src Register)          { a.emitArithRR(0x1B, dst, src, true) }

func (a *Assembler) Subl(dst, src Register)          { a.emitArithRR(0x2B, dst, src, false) }
func (a *Assembler) Subq(dst, src Register)          { a.emitArithRR(0x2B, dst, src, true) }
func (a *Assembler) SublImm(dst Register, imm int32) { a.emitArithImm(5, dst, imm, false) }
func (a *Assembler) SubqImm(dst Register, imm int32) { a.emitArithImm(5, dst, imm, true) }
func (a *Assembler) SubqMem(dst Register, src Address) { a.emitArithRM(0x2B, dst, src, true) }

func (a *Assembler) Andl(dst, src Register)          { a.emitArithRR(0x23, dst, src, false) }
func (a *Assembler) Andq(dst, src Register)          { a.emitArithRR(0x23, dst, src, true) }
func (a *Assembler) AndlImm(dst Register, imm int32) { a.emitArithImm(4, dst, imm, false) }
func (a *Assembler) AndqImm(dst Register, imm int32) { a.emitArithImm(4, dst, imm, true) }

func (a *Assembler) Orl(dst, src Register)          { a.emitArithRR(0x0B, dst, src, false) }
func (a *Assembler) Orq(dst, src Register)          { a.emitArithRR(0x0B, dst, src, true) }
func (a *Assembler) OrlImm(dst Register, imm int32) { a.emitArithImm(1, dst, imm, false) }
func (a *Assembler) OrqImm(dst Register, imm int32) { a.emitArithImm(1, dst, imm, true) }
func (a *Assembler) OrqToMem(dst Address, src Register) { a.emitArithMR(0x09, dst, src, true) }

func (a *Assembler) Xorl(dst, src Register)          { a.emitArithRR(0x33, dst, src, false) }
func (a *Assembler) Xorq(dst, src Register)          { a.emitArithRR(0x33, dst, src, true) }
func (a *Assembler) XorlImm(dst Register, imm int32) { a.emitArithImm(6, dst, imm, false) }

func (a *Assembler) Cmpl(dst, src Register)          { a.emitArithRR(0x3B, dst, src, false) }
func (a *Assembler) Cmpq(dst, src Register)          { a.emitArithRR(0x3B, dst, src, true) }
func (a *Assembler) CmplImm(dst Register, imm int32) { a.emitArithImm(7, dst, imm, false) }
func (a *Assembler) CmpqImm(dst Register, imm int32) { a.emitArithImm(7, dst, imm, true) }
func (a *Assembler) CmpqMem(dst Register, src Address) { a.emitArithRM(0x3B, dst, src, true) }

// Testl emits TEST r/m32, r32 (85 /r).
func (a *Assembler) Testl(dst, src Register) {
	assertGPR(dst)
	assertGPR(src)
	a.start()
	modrm := a.prefixAndEncode(src, dst, false)
	a.buf.emitBytes(0x85, modrm)
}

// Testq emits TEST r/m64, r64.
func (a *Assembler) Testq(dst, src Register) {
	assertGPR(dst)
	assertGPR(src)
	a.start()
	modrm := a.prefixAndEncode(src, dst, true)
	a.buf.emitBytes(0x85, modrm)
}

// TestlImm emits TEST r/m32, imm32 (F7 /0).
func (a *Assembler) TestlImm(dst Register, imm int32) {
	a.start()
	modrm := a.prefixAndEncodeDigit(0, dst, false)
	a.buf.emitBytes(0xF7, modrm)
	a.buf.emit32(uint32(imm))
}

// --- mov ---

// Movl emits MOV r32, r32 (8B /r).
func (a *Assembler) Movl(dst, src Register) { a.emitArithRR(0x8B, dst, src, false) }

// Movq emits MOV r64, r64 (REX.W 8B /r).
func (a *Assembler) Movq(dst, src Register) { a.emitArithRR(0x8B, dst, src, true) }

// MovlMem emits MOV r32, [mem].
func (a *Assembler) MovlMem(dst Register, src Address) { a.emitArithRM(0x8B, dst, src, false) }

// MovqMem emits MOV r64, [mem].
func (a *Assembler) MovqMem(dst Register, src Address) { a.emitArithRM(0x8B, dst, src, true) }

// MovlToMem emits MOV [mem], r32 (89 /r).
func (a *Assembler) MovlToMem(dst Address, src Register) { a.emitArithMR(0x89, dst, src, false) }

// MovqToMem emits MOV [mem], r64.
func (a *Assembler) MovqToMem(dst Address, src Register) { a.emitArithMR(0x89, dst, src, true) }

// MovbToMem emits MOV [mem], r8 (88 /r).
func (a *Assembler) MovbToMem(dst Address, src Register) {
	assertGPR(src)
	a.start()
	a.rexMem(src, dst, false)
	a.buf.emit8(0x88)
	a.emitOperand(src.enc3(), dst, 0, nil)
}

// MovlImm emits MOV r32, imm32 (B8+r id).
func (a *Assembler) MovlImm(dst Register, imm int32) {
	assertGPR(dst)
	a.start()
	a.prefixOpReg(dst, false)
	a.buf.emit8(0xB8 | dst.enc3())
	a.buf.emit32(uint32(imm))
}

// MovqImm64 emits MOV r64, imm64 (REX.W B8+r io).
func (a *Assembler) MovqImm64(dst Register, imm uint64) {
	assertGPR(dst)
	a.start()
	a.prefixOpReg(dst, true)
	a.buf.emit8(0xB8 | dst.enc3())
	a.buf.emit64(imm)
}

// MovqLiteral emits MOV r64, imm64 with a relocation bound to the
// instruction mark, for addresses that may be patched later.
func (a *Assembler) MovqLiteral(dst Register, target uint64, kind RelocKind) {
	assertGPR(dst)
	a.start()
	a.prefixOpReg(dst, true)
	a.buf.emit8(0xB8 | dst.enc3())
	a.buf.relocate(kind, target)
	a.buf.emit64(target)
}

// MovlImmToMem emits MOV [mem], imm32 (C7 /0 id).
func (a *Assembler) MovlImmToMem(dst Address, imm int32) {
	a.start()
	a.rexMem(NoReg, dst, false)
	a.buf.emit8(0xC7)
	a.emitOperand(0, dst, 4, nil)
	a.buf.emit32(uint32(imm))
}

// MovqImmToMem emits MOV [mem], sign-extended imm32 (REX.W C7 /0 id).
func (a *Assembler) MovqImmToMem(dst Address, imm int32) {
	a.start()
	a.rexMem(NoReg, dst, true)
	a.buf.emit8(0xC7)
	a.emitOperand(0, dst, 4, nil)
	a.buf.emit32(uint32(imm))
}

// Movsxd emits MOVSXD r64, r/m32 (REX.W 63 /r).
func (a *Assembler) Movsxd(dst, src Register) { a.emitArithRR(0x63, dst, src, true) }

// Movzbl emits MOVZX r32, r/m8 (0F B6 /r).
func (a *Assembler) Movzbl(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, false)
	a.buf.emitBytes(0x0F, 0xB6, modrm)
}

// Movzwl emits MOVZX r32, r/m16 (0F B7 /r).
func (a *Assembler) Movzwl(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, false)
	a.buf.emitBytes(0x0F, 0xB7, modrm)
}

// Movsbl emits MOVSX r32, r/m8 (0F BE /r).
func (a *Assembler) Movsbl(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, false)
	a.buf.emitBytes(0x0F, 0xBE, modrm)
}

// Movswl emits MOVSX r32, r/m16 (0F BF /r).
func (a *Assembler) Movswl(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, false)
	a.buf.emitBytes(0x0F, 0xBF, modrm)
}

// MovzblMem emits MOVZX r32, byte [mem].
func (a *Assembler) MovzblMem(dst Register, src Address) {
	assertGPR(dst)
	a.start()
	a.rexMem(dst, src, false)
	a.buf.emitBytes(0x0F, 0xB6)
	a.emitOperand(dst.enc3(), src, 0, nil)
}

// --- lea ---

// Leaq emits LEA r64, [mem] (REX.W 8D /r).
func (a *Assembler) Leaq(dst Register, src Address) {
	if src.hasReloc() {
		panic("asm: lea cannot carry a relocation, use MovqLiteral")
	}
	a.emitArithRM(0x8D, dst, src, true)
}

// Leal emits LEA r32, [mem].
func (a *Assembler) Leal(dst Register, src Address) {
	if src.hasReloc() {
		panic("asm: lea cannot carry a relocation, use MovqLiteral")
	}
	a.emitArithRM(0x8D, dst, src, false)
}

// --- unary groups ---

// Incq emits INC r/m64 (REX.W FF /0).
func (a *Assembler) Incq(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(0, dst, true)
	a.buf.emitBytes(0xFF, modrm)
}

// Decq emits DEC r/m64 (REX.W FF /1).
func (a *Assembler) Decq(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(1, dst, true)
	a.buf.emitBytes(0xFF, modrm)
}

// Incl emits INC r/m32 (FF /0).
func (a *Assembler) Incl(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(0, dst, false)
	a.buf.emitBytes(0xFF, modrm)
}

// Decl emits DEC r/m32 (FF /1).
func (a *Assembler) Decl(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(1, dst, false)
	a.buf.emitBytes(0xFF, modrm)
}

// Negq emits NEG r/m64 (REX.W F7 /3).
func (a *Assembler) Negq(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(3, dst, true)
	a.buf.emitBytes(0xF7, modrm)
}

// Notq emits NOT r/m64 (REX.W F7 /2).
func (a *Assembler) Notq(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(2, dst, true)
	a.buf.emitBytes(0xF7, modrm)
}

// Idivq emits IDIV r/m64 (REX.W F7 /7), RDX:RAX by operand.
func (a *Assembler) Idivq(src Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(7, src, true)
	a.buf.emitBytes(0xF7, modrm)
}

// Imulq emits IMUL r64, r/m64 (REX.W 0F AF /r).
func (a *Assembler) Imulq(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0xAF, modrm)
}

// ImulqImm emits IMUL r64, r/m64, imm (6B ib or 69 id).
func (a *Assembler) ImulqImm(dst, src Register, imm int32) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, true)
	if fitsDisp8(imm) {
		a.buf.emitBytes(0x6B, modrm, byte(int8(imm)))
	} else {
		a.buf.emitBytes(0x69, modrm)
		a.buf.emit32(uint32(imm))
	}
}

// --- shifts ---

func (a *Assembler) shiftImm(digit uint8, dst Register, imm uint8, wide bool) {
	a.start()
	modrm := a.prefixAndEncodeDigit(digit, dst, wide)
	if imm == 1 {
		a.buf.emitBytes(0xD1, modrm)
	} else {
		a.buf.emitBytes(0xC1, modrm, imm)
	}
}

// ShlqImm emits SHL r/m64, imm8 (C1 /4, D1 /4 for 1).
func (a *Assembler) ShlqImm(dst Register, imm uint8) { a.shiftImm(4, dst, imm, true) }

// ShrqImm emits SHR r/m64, imm8 (C1 /5).
func (a *Assembler) ShrqImm(dst Register, imm uint8) { a.shiftImm(5, dst, imm, true) }

// SarqImm emits SAR r/m64, imm8 (C1 /7).
func (a *Assembler) SarqImm(dst Register, imm uint8) { a.shiftImm(7, dst, imm, true) }

// ShllImm emits SHL r/m32, imm8.
func (a *Assembler) ShllImm(dst Register, imm uint8) { a.shiftImm(4, dst, imm, false) }

// ShlqCL emits SHL r/m64, CL (D3 /4).
func (a *Assembler) ShlqCL(dst Register) {
	a.start()
	modrm := a.prefixAndEncodeDigit(4, dst, true)
	a.buf.emitBytes(0xD3, modrm)
}

// --- stack ---

// Pushq emits PUSH r64 (50+r).
func (a *Assembler) Pushq(src Register) {
	assertGPR(src)
	a.start()
	a.prefixOpReg(src, false)
	a.buf.emit8(0x50 | src.enc3())
}

// Popq emits POP r64 (58+r).
func (a *Assembler) Popq(dst Register) {
	assertGPR(dst)
	a.start()
	a.prefixOpReg(dst, false)
	a.buf.emit8(0x58 | dst.enc3())
}

// PushqImm emits PUSH imm (6A ib / 68 id).
func (a *Assembler) PushqImm(imm int32) {
	a.start()
	if fitsDisp8(imm) {
		a.buf.emitBytes(0x6A, byte(int8(imm)))
	} else {
		a.buf.emit8(0x68)
		a.buf.emit32(uint32(imm))
	}
}

// --- exchange / conditional move ---

// Xchgq emits XCHG r64, r64 (87 /r).
func (a *Assembler) Xchgq(dst, src Register) { a.emitArithRR(0x87, dst, src, true) }

// Cmovq emits CMOVcc r64, r/m64 (0F 40+cc /r).
func (a *Assembler) Cmovq(cc Condition, dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0x40|byte(cc), modrm)
}

// Setb emits SETcc r/m8 (0F 90+cc /0). Encodings 4-7 need a REX prefix
// to address SPL/BPL/SIL/DIL instead of the legacy high-byte registers.
func (a *Assembler) Setb(cc Condition, dst Register) {
	assertGPR(dst)
	a.start()
	if dst.Enc() >= 8 {
		a.buf.emit8(0x41)
	} else if dst.Enc() >= 4 {
		a.buf.emit8(0x40)
	}
	a.buf.emitBytes(0x0F, 0x90|byte(cc), 0xC0|dst.enc3())
}

// --- atomic primitives ---

// LockCmpxchgq emits LOCK CMPXCHG [mem], r64 (F0 REX.W 0F B1 /r).
func (a *Assembler) LockCmpxchgq(dst Address, src Register) {
	assertGPR(src)
	a.start()
	a.buf.emit8(0xF0)
	a.rexMem(src, dst, true)
	a.buf.emitBytes(0x0F, 0xB1)
	a.emitOperand(src.enc3(), dst, 0, nil)
}

// LockXaddq emits LOCK XADD [mem], r64 (F0 REX.W 0F C1 /r).
func (a *Assembler) LockXaddq(dst Address, src Register) {
	assertGPR(src)
	a.start()
	a.buf.emit8(0xF0)
	a.rexMem(src, dst, true)
	a.buf.emitBytes(0x0F, 0xC1)
	a.emitOperand(src.enc3(), dst, 0, nil)
}

// LockOrqToMem emits LOCK OR [mem], r64, the fetch-free variant of an
// atomic bit set.
func (a *Assembler) LockOrqToMem(dst Address, src Register) {
	assertGPR(src)
	a.start()
	a.buf.emit8(0xF0)
	a.rexMem(src, dst, true)
	a.buf.emit8(0x09)
	a.emitOperand(src.enc3(), dst, 0, nil)
}

// --- bit scan family ---

// Popcntq emits POPCNT r64, r/m64 (F3 REX.W 0F B8 /r).
func (a *Assembler) Popcntq(dst, src Register) {
	a.cpu.require(FeatPOPCNT, "POPCNT")
	a.start()
	a.buf.emit8(0xF3)
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0xB8, modrm)
}

// Tzcntq emits TZCNT r64, r/m64 (F3 REX.W 0F BC /r).
func (a *Assembler) Tzcntq(dst, src Register) {
	a.cpu.require(FeatBMI1, "BMI1")
	a.start()
	a.buf.emit8(0xF3)
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0xBC, modrm)
}

// Lzcntq emits LZCNT r64, r/m64 (F3 REX.W 0F BD /r).
func (a *Assembler) Lzcntq(dst, src Register) {
	a.cpu.require(FeatLZCNT, "LZCNT")
	a.start()
	a.buf.emit8(0xF3)
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0xBD, modrm)
}

// Bsfq emits BSF r64, r/m64 (REX.W 0F BC /r).
func (a *Assembler) Bsfq(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0xBC, modrm)
}

// Bsrq emits BSR r64, r/m64 (REX.W 0F BD /r).
func (a *Assembler) Bsrq(dst, src Register) {
	a.start()
	modrm := a.prefixAndEncode(dst, src, true)
	a.buf.emitBytes(0x0F, 0xBD, modrm)
}
