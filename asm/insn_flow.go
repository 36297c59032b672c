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

// Condition holds the 4-bit x86 condition code used by Jcc/SETcc/CMOVcc.
type Condition uint8

const (
	CondO  Condition = 0x0
	CondNO Condition = 0x1
	CondB  Condition = 0x2
	CondAE Condition = 0x3
	CondE  Condition = 0x4
	CondNE Condition = 0x5
	CondBE Condition = 0x6
	CondA  Condition = 0x7
	CondS  Condition = 0x8
	CondNS Condition = 0x9
	CondP  Condition = 0xA
	CondNP Condition = 0xB
	CondL  Condition = 0xC
	CondGE Condition = 0xD
	CondLE Condition = 0xE
	CondG  Condition = 0xF
)

// Jcc emits a conditional jump to a label (0F 80+cc rel32) with a fixup
// patched at bind time.
func (a *Assembler) Jcc(cc Condition, label uint8) {
	a.start()
	a.buf.emitBytes(0x0F, 0x80|byte(cc))
	a.buf.addFixup(label, 4)
	a.buf.emit32(0)
}

// JccShort emits a conditional jump (70+cc rel8).
func (a *Assembler) JccShort(cc Condition, label uint8) {
	a.start()
	a.buf.emit8(0x70 | byte(cc))
	a.buf.addFixup(label, 1)
	a.buf.emit8(0)
}

// Jmp emits JMP rel32 (E9) to a label.
func (a *Assembler) Jmp(label uint8) {
	a.start()
	a.buf.emit8(0xE9)
	a.buf.addFixup(label, 4)
	a.buf.emit32(0)
}

// JmpShort emits JMP rel8 (EB).
func (a *Assembler) JmpShort(label uint8) {
	a.start()
	a.buf.emit8(0xEB)
	a.buf.addFixup(label, 1)
	a.buf.emit8(0)
}

// JmpReg emits JMP r64 (FF /4).
func (a *Assembler) JmpReg(target Register) {
	assertGPR(target)
	a.start()
	a.prefixOpReg(target, false)
	a.buf.emitBytes(0xFF, 0xE0|target.enc3())
}

// Call emits CALL rel32 (E8) to an absolute target with the given
// relocation kind; the rel32 is measured from the instruction end.
func (a *Assembler) Call(target uint64, kind RelocKind) {
	a.start()
	a.buf.emit8(0xE8)
	a.buf.relocate(kind, target)
	next := int64(a.buf.Base) + int64(a.buf.Offset()) + 4
	rel := int64(target) - next
	if rel != int64(int32(rel)) {
		panic("asm: call target out of rel32 range")
	}
	a.buf.emit32(uint32(int32(rel)))
}

// CallLabel emits CALL rel32 to a local label.
func (a *Assembler) CallLabel(label uint8) {
	a.start()
	a.buf.emit8(0xE8)
	a.buf.addFixup(label, 4)
	a.buf.emit32(0)
}

// CallReg emits CALL r64 (FF /2).
func (a *Assembler) CallReg(target Register) {
	assertGPR(target)
	a.start()
	a.prefixOpReg(target, false)
	a.buf.emitBytes(0xFF, 0xD0|target.enc3())
}

// CallMem emits CALL [mem] (FF /2).
func (a *Assembler) CallMem(target Address) {
	a.start()
	a.rexMem(NoReg, target, false)
	a.buf.emit8(0xFF)
	a.emitOperand(2, target, 0, nil)
}

// Ret emits RET (C3).
func (a *Assembler) Ret() {
	a.start()
	a.buf.emit8(0xC3)
}

// RetImm emits RET imm16 (C2 iw).
func (a *Assembler) RetImm(imm uint16) {
	a.start()
	a.buf.emit8(0xC2)
	a.buf.emit16(imm)
}

// Int3 emits the breakpoint trap (CC).
func (a *Assembler) Int3() {
	a.start()
	a.buf.emit8(0xCC)
}

// Hlt emits HLT (F4).
func (a *Assembler) Hlt() {
	a.start()
	a.buf.emit8(0xF4)
}

// Ud2 emits the invalid-opcode trap (0F 0B).
func (a *Assembler) Ud2() {
	a.start()
	a.buf.emitBytes(0x0F, 0x0B)
}

// Nop emits len bytes of no-ops using the recommended multi-byte forms.
func (a *Assembler) Nop(length int) {
	for length > 0 {
		a.start()
		switch {
		case length >= 8:
			// 0F 1F 84 00 disp32: nop [rax+rax*1+0]
			a.buf.emitBytes(0x0F, 0x1F, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00)
			length -= 8
		case length >= 4:
			a.buf.emitBytes(0x0F, 0x1F, 0x40, 0x00)
			length -= 4
		case length >= 2:
			a.buf.emitBytes(0x66, 0x90)
			length -= 2
		default:
			a.buf.emit8(0x90)
			length--
		}
	}
}

// TestPollMem emits the safepoint poll: TEST EAX, [poll page] with a poll
// relocation (85 /r rip-relative).
func (a *Assembler) TestPollMem(pollPage uint64, kind RelocKind) {
	if kind != RelocPoll && kind != RelocPollReturn {
		panic("asm: poll test requires a poll relocation kind")
	}
	a.start()
	a.buf.emit8(0x85)
	a.emitOperand(RAX.enc3(), NewLiteralAddress(pollPage, kind), 0, nil)
}
