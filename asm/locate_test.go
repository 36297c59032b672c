package asm

import "testing"

// TestLocateEndRoundTrip emits one instruction per case and checks that the
// locator finds exactly the emitted length.
func TestLocateEndRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		emit func(*Assembler)
	}{
		{"add rr", func(a *Assembler) { a.Addq(RAX, RCX) }},
		{"add imm8", func(a *Assembler) { a.AddqImm(RSP, 8) }},
		{"add imm32", func(a *Assembler) { a.AddqImm(RSP, 0x1000) }},
		{"mov imm32", func(a *Assembler) { a.MovlImm(RAX, 7) }},
		{"mov imm64", func(a *Assembler) { a.MovqImm64(R9, 0x123456789A) }},
		{"mov rm", func(a *Assembler) { a.MovqMem(RBX, NewAddress(RBP, 0x40)) }},
		{"mov rm disp32", func(a *Assembler) { a.MovqMem(RBX, NewAddress(R12, 0x1234)) }},
		{"mov sib", func(a *Assembler) { a.MovqMem(RBX, NewIndexedAddress(RAX, RCX, Scale8, 8)) }},
		{"mov abs", func(a *Assembler) { a.MovqMem(RBX, Address{Disp: 0x100}) }},
		{"mov imm to mem", func(a *Assembler) { a.MovqImmToMem(NewAddress(RDI, 0x80), 42) }},
		{"lea", func(a *Assembler) { a.Leaq(RAX, NewIndexedAddress(RSP, RBX, Scale4, 4)) }},
		{"test imm", func(a *Assembler) { a.TestlImm(RCX, 0x55) }},
		{"neg", func(a *Assembler) { a.Negq(RDX) }},
		{"imul imm", func(a *Assembler) { a.ImulqImm(RAX, RCX, 1000) }},
		{"shift", func(a *Assembler) { a.ShlqImm(RAX, 5) }},
		{"shift by 1", func(a *Assembler) { a.ShlqImm(RAX, 1) }},
		{"push", func(a *Assembler) { a.Pushq(R15) }},
		{"push imm", func(a *Assembler) { a.PushqImm(0x1234) }},
		{"setcc", func(a *Assembler) { a.Setb(CondE, RSI) }},
		{"cmov", func(a *Assembler) { a.Cmovq(CondL, RAX, RCX) }},
		{"movzx", func(a *Assembler) { a.MovzblMem(RAX, NewAddress(RSI, 1)) }},
		{"cmpxchg", func(a *Assembler) { a.LockCmpxchgq(NewAddress(RDI, 0), RSI) }},
		{"xadd", func(a *Assembler) { a.LockXaddq(NewAddress(RDI, 8), RAX) }},
		{"popcnt", func(a *Assembler) { a.Popcntq(RAX, RCX) }},
		{"call reg", func(a *Assembler) { a.CallReg(RAX) }},
		{"call mem", func(a *Assembler) { a.CallMem(NewAddress(RBX, 0x20)) }},
		{"jmp reg", func(a *Assembler) { a.JmpReg(R11) }},
		{"ret", func(a *Assembler) { a.Ret() }},
		{"ret imm", func(a *Assembler) { a.RetImm(16) }},
		{"nop8", func(a *Assembler) { a.Nop(8) }},
		{"movsd", func(a *Assembler) { a.Movsd(XMM0, XMM1) }},
		{"movsd mem", func(a *Assembler) { a.MovsdMem(XMM0, NewAddress(RSP, 0x100)) }},
		{"movq x2g", func(a *Assembler) { a.MovqXmmGpr(RAX, XMM3) }},
		{"cvt", func(a *Assembler) { a.Cvtsi2sdq(XMM0, RAX) }},
		{"vex rr", func(a *Assembler) { a.Vaddps(XMM0, XMM1, XMM2, VecAttrs(VL256)) }},
		{"vex rm", func(a *Assembler) { a.VaddpsMem(XMM0, XMM1, NewAddress(RAX, 0x40), VecAttrs(VL128)) }},
		{"vex w1", func(a *Assembler) { a.Vaddpd(XMM0, XMM1, XMM2, VecAttrs(VL128)) }},
		{"vex 0f38", func(a *Assembler) { a.Vpbroadcastd(XMM0, XMM1, VecAttrs(VL128)) }},
		{"evex rr", func(a *Assembler) { a.Evpaddq(XMM20, XMM1, XMM2, VecAttrs(VL512)) }},
		{"evex rm d8", func(a *Assembler) { a.EvmovdqulMem(XMM1, NewAddress(RAX, 64), VecAttrs(VL512)) }},
		{"evex rm d32", func(a *Assembler) { a.EvmovdqulMem(XMM1, NewAddress(RAX, 60), VecAttrs(VL512)) }},
		{"ternlog imm", func(a *Assembler) { a.Vpternlogd(XMM0, XMM1, XMM2, 0xCA, VecAttrs(VL512)) }},
		{"ternlog mem imm", func(a *Assembler) {
			a.VpternlogdMem(XMM0, XMM1, NewAddress(RAX, 0x40), 0xCA, VecAttrs(VL512))
		}},
		{"kop", func(a *Assembler) { a.Kxorw(K1, K2, K3) }},
	}
	for _, c := range cases {
		a := newAsm(0x1000)
		a.Nop(2) // non-zero start offset
		start := a.Offset()
		c.emit(a)
		end := a.Offset()
		if got := a.Buffer().LocateEnd(start); got != end {
			t.Errorf("%s: LocateEnd=%d, instruction ends at %d (% X)",
				c.name, got, end, a.Buffer().Bytes()[start:end])
		}
	}
}

// TestLocateDisp32 checks the displacement field offset for every shape
// that emits one.
func TestLocateDisp32(t *testing.T) {
	cases := []struct {
		name string
		emit func(*Assembler)
		off  int // disp32 offset relative to instruction start
	}{
		{"base+disp32", func(a *Assembler) { a.MovqMem(RBX, NewAddress(RAX, 0x1000)) }, 3},
		{"sib+disp32", func(a *Assembler) { a.MovqMem(RBX, NewIndexedAddress(RAX, RCX, Scale4, 0x1000)) }, 4},
		{"abs", func(a *Assembler) { a.MovqMem(RBX, Address{Disp: 0x100}) }, 4},
		{"riprel", func(a *Assembler) { a.MovqMem(RAX, NewLiteralAddress(0x5000, RelocExternalWord)) }, 3},
		{"riprel+imm", func(a *Assembler) { a.MovlImmToMem(NewLiteralAddress(0x5000, RelocInternalWord), 7) }, 2},
		{"evex disp32", func(a *Assembler) { a.EvmovdqulMem(XMM1, NewAddress(RAX, 60), VecAttrs(VL512)) }, 6},
	}
	for _, c := range cases {
		a := newAsm(0x1000)
		c.emit(a)
		if got := a.Buffer().LocateDisp32(0); got != c.off {
			t.Errorf("%s: LocateDisp32=%d, expected %d (% X)", c.name, got, c.off, a.Buffer().Bytes())
		}
	}
	// no displacement at all must panic
	assertPanics(t, func() {
		a := newAsm(0)
		a.Addq(RAX, RCX)
		a.Buffer().LocateDisp32(0)
	}, "disp32 on reg-reg form")
}

// TestLocateImm checks immediate field offsets, including the imm64
// literal form.
func TestLocateImm(t *testing.T) {
	cases := []struct {
		name string
		emit func(*Assembler)
		off  int
	}{
		{"mov imm32", func(a *Assembler) { a.MovlImm(RAX, 7) }, 1},
		{"mov imm64", func(a *Assembler) { a.MovqImm64(RAX, 7) }, 2},
		{"literal", func(a *Assembler) { a.MovqLiteral(RAX, 0x5000, RelocExternalWord) }, 2},
		{"add imm8", func(a *Assembler) { a.AddqImm(RAX, 1) }, 3},
		{"add imm32", func(a *Assembler) { a.AddqImm(RAX, 0x1000) }, 3},
		{"mem imm", func(a *Assembler) { a.MovqImmToMem(NewAddress(RDI, 0x80), 42) }, 7},
		{"ternlog", func(a *Assembler) { a.Vpternlogd(XMM0, XMM1, XMM2, 0xCA, VecAttrs(VL512)) }, 6},
	}
	for _, c := range cases {
		a := newAsm(0x1000)
		c.emit(a)
		if got := a.Buffer().LocateImm(0); got != c.off {
			t.Errorf("%s: LocateImm=%d, expected %d (% X)", c.name, got, c.off, a.Buffer().Bytes())
		}
	}
}

// TestLocateCallTarget checks the rel32 field of branch forms.
func TestLocateCallTarget(t *testing.T) {
	a := newAsm(0x1000)
	a.Call(0x2000, RelocRuntimeCall)
	if got := a.Buffer().LocateCallTarget(0); got != 1 {
		t.Errorf("call rel32 at %d, expected 1", got)
	}

	a = newAsm(0)
	l := a.Buffer().ReserveLabel()
	a.Jcc(CondE, l)
	a.Buffer().BindLabel(l)
	if got := a.Buffer().LocateCallTarget(0); got != 2 {
		t.Errorf("jcc rel32 at %d, expected 2", got)
	}
	if got := a.Buffer().LocateEnd(0); got != 6 {
		t.Errorf("jcc end at %d, expected 6", got)
	}
}

// TestCheckRelocation runs the debug cross-check over a buffer carrying
// every relocation-producing form.
func TestCheckRelocation(t *testing.T) {
	a := newAsm(0x1000)
	a.MovqLiteral(RAX, 0x5000, RelocExternalWord)
	a.MovqMem(RCX, NewLiteralAddress(0x5000, RelocExternalWord))
	a.Call(0x2000, RelocStaticCall)
	a.MovlImmToMem(NewLiteralAddress(0x5000, RelocInternalWord), 7)
	a.TestPollMem(0x8000, RelocPollReturn)
	a.Buffer().CheckRelocation()
}

// TestVerifyRelocationsFlag checks the per-instruction verification hook.
func TestVerifyRelocationsFlag(t *testing.T) {
	VerifyRelocations = true
	defer func() { VerifyRelocations = false }()
	a := newAsm(0x1000)
	a.MovqLiteral(RAX, 0x5000, RelocExternalWord)
	a.Addq(RAX, RCX) // triggers the check of the previous instruction
	a.Ret()
}
