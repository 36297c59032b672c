package asm

import (
	"bytes"
	"testing"
)

// newAsm builds an assembler over a fresh buffer at the given base.
func newAsm(base uint64) *Assembler {
	return New(NewCodeBuffer(base), AllFeatures())
}

// assertBytes checks the full buffer content against the expected encoding.
func assertBytes(t *testing.T, a *Assembler, expected []byte, ctx string) {
	t.Helper()
	got := a.Buffer().Bytes()
	if !bytes.Equal(got, expected) {
		t.Errorf("%s: expected % X, got % X", ctx, expected, got)
	}
}

// assertPanics checks that fn panics.
func assertPanics(t *testing.T, fn func(), ctx string) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", ctx)
		}
	}()
	fn()
}

// TestLegacyAddRegReg checks the canonical reg,reg direction: opcode 03,
// ModRM C0 | dst<<3 | src.
func TestLegacyAddRegReg(t *testing.T) {
	a := newAsm(0)
	a.Addl(RAX, RCX)
	assertBytes(t, a, []byte{0x03, 0xC1}, "add eax, ecx")

	a = newAsm(0)
	a.Addq(RAX, RCX)
	assertBytes(t, a, []byte{0x48, 0x03, 0xC1}, "add rax, rcx")

	a = newAsm(0)
	a.Addq(R8, R15)
	assertBytes(t, a, []byte{0x4D, 0x03, 0xC7}, "add r8, r15")
}

// TestArithImmCompression checks the 83/81 sign compression split.
func TestArithImmCompression(t *testing.T) {
	a := newAsm(0)
	a.AddqImm(RSP, 8)
	assertBytes(t, a, []byte{0x48, 0x83, 0xC4, 0x08}, "add rsp, 8")

	a = newAsm(0)
	a.SubqImm(RSP, 0x1000)
	assertBytes(t, a, []byte{0x48, 0x81, 0xEC, 0x00, 0x10, 0x00, 0x00}, "sub rsp, 0x1000")

	a = newAsm(0)
	a.AddqImm(RAX, -128)
	assertBytes(t, a, []byte{0x48, 0x83, 0xC0, 0x80}, "add rax, -128")
}

// TestMovImmediates covers the B8+r family with and without REX.W.
func TestMovImmediates(t *testing.T) {
	a := newAsm(0)
	a.MovlImm(RAX, 0x12345678)
	assertBytes(t, a, []byte{0xB8, 0x78, 0x56, 0x34, 0x12}, "mov eax, imm32")

	a = newAsm(0)
	a.MovqImm64(RCX, 0x1122334455667788)
	assertBytes(t, a, []byte{0x48, 0xB9, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, "mov rcx, imm64")

	a = newAsm(0)
	a.MovlImm(R9, 1)
	assertBytes(t, a, []byte{0x41, 0xB9, 0x01, 0x00, 0x00, 0x00}, "mov r9d, 1")
}

// TestAddressingShapes walks every ModRM/SIB shape the operand emitter
// produces, including the RBP/R13 and RSP/R12 special encodings.
func TestAddressingShapes(t *testing.T) {
	cases := []struct {
		name     string
		adr      Address
		expected []byte
	}{
		{"[rax]", NewAddress(RAX, 0), []byte{0x48, 0x8B, 0x18}},
		{"[rbp]", NewAddress(RBP, 0), []byte{0x48, 0x8B, 0x5D, 0x00}},
		{"[r13]", NewAddress(R13, 0), []byte{0x49, 0x8B, 0x5D, 0x00}},
		{"[rsp]", NewAddress(RSP, 0), []byte{0x48, 0x8B, 0x1C, 0x24}},
		{"[r12]", NewAddress(R12, 0), []byte{0x49, 0x8B, 0x1C, 0x24}},
		{"[rax+0x40]", NewAddress(RAX, 0x40), []byte{0x48, 0x8B, 0x58, 0x40}},
		{"[rax-1]", NewAddress(RAX, -1), []byte{0x48, 0x8B, 0x58, 0xFF}},
		{"[rax+0x1000]", NewAddress(RAX, 0x1000), []byte{0x48, 0x8B, 0x98, 0x00, 0x10, 0x00, 0x00}},
		{"[rsp+8]", NewAddress(RSP, 8), []byte{0x48, 0x8B, 0x5C, 0x24, 0x08}},
		{"[rax+rcx*4]", NewIndexedAddress(RAX, RCX, Scale4, 0), []byte{0x48, 0x8B, 0x1C, 0x88}},
		{"[rax+rcx*4+8]", NewIndexedAddress(RAX, RCX, Scale4, 8), []byte{0x48, 0x8B, 0x5C, 0x88, 0x08}},
		{"[rax+r12]", NewIndexedAddress(RAX, R12, Scale1, 0), []byte{0x4A, 0x8B, 0x1C, 0x20}},
		{"[rbp+rcx]", NewIndexedAddress(RBP, RCX, Scale1, 0), []byte{0x48, 0x8B, 0x5C, 0x0D, 0x00}},
		{"[abs disp32]", Address{Base: NoReg, Index: NoReg, Disp: 0x100}, []byte{0x48, 0x8B, 0x1C, 0x25, 0x00, 0x01, 0x00, 0x00}},
	}
	for _, c := range cases {
		a := newAsm(0)
		a.MovqMem(RBX, c.adr)
		assertBytes(t, a, c.expected, c.name)
	}
}

// TestRSPIndexRejected checks that the reserved "no index" encoding cannot
// be requested as a real index register, while R12 stays legal.
func TestRSPIndexRejected(t *testing.T) {
	assertPanics(t, func() { NewIndexedAddress(RAX, RSP, Scale1, 0) }, "rsp index")
	// R12 shares the low 3 bits with RSP but is a valid index
	NewIndexedAddress(RAX, R12, Scale1, 0)
}

// TestRelocationAtInstMark checks that relocations bind to the start of the
// instruction, never to the literal's own offset.
func TestRelocationAtInstMark(t *testing.T) {
	a := newAsm(0x1000)
	a.Nop(3) // padding so the instruction mark is not 0
	mark := a.Offset()
	a.MovqLiteral(RAX, 0xCAFEBABE, RelocExternalWord)
	r, ok := a.Buffer().RelocationAt(mark)
	if !ok {
		t.Fatalf("no relocation at instruction mark %d", mark)
	}
	if r.Kind != RelocExternalWord || r.Target != 0xCAFEBABE {
		t.Errorf("bad relocation record: %+v", r)
	}
	// the literal itself starts 2 bytes in (48 B8), must not carry a record
	if _, ok := a.Buffer().RelocationAt(mark + 2); ok {
		t.Errorf("relocation recorded at literal offset instead of mark")
	}
	if n := a.Buffer().RelocationCount(); n != 1 {
		t.Errorf("expected 1 relocation, got %d", n)
	}
}

// TestCallRel32 checks the end-of-instruction-relative call displacement.
func TestCallRel32(t *testing.T) {
	a := newAsm(0x1000)
	a.Call(0x2000, RelocRuntimeCall)
	// rel32 = 0x2000 - (0x1000 + 5)
	assertBytes(t, a, []byte{0xE8, 0xFB, 0x0F, 0x00, 0x00}, "call 0x2000")
	r, ok := a.Buffer().RelocationAt(0)
	if !ok || r.Kind != RelocRuntimeCall {
		t.Fatalf("missing call relocation: %+v ok=%v", r, ok)
	}
}

// TestRiprelCorrection checks that a trailing immediate shifts the
// rip-relative displacement base to the true instruction end.
func TestRiprelCorrection(t *testing.T) {
	target := uint64(0x5000)
	a := newAsm(0x1000)
	a.MovqMem(RAX, NewLiteralAddress(target, RelocExternalWord))
	// 48 8B 05 disp32; next = 0x1000+7
	assertBytes(t, a, []byte{0x48, 0x8B, 0x05, 0xF9, 0x3F, 0x00, 0x00}, "mov rax, [rip+x]")

	// C7 05 disp32 imm32: displacement measured past the imm32
	a = newAsm(0x1000)
	a.MovlImmToMem(NewLiteralAddress(target, RelocInternalWord), 7)
	// next = 0x1000 + 2 (opcode+modrm) + 4 (disp) + 4 (imm) = 0x100A
	assertBytes(t, a, []byte{0xC7, 0x05, 0xF6, 0x3F, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00}, "mov dword [rip+x], 7")
}

// TestLabelFixups covers short and near forward branches.
func TestLabelFixups(t *testing.T) {
	a := newAsm(0)
	l := a.Buffer().ReserveLabel()
	a.JccShort(CondE, l)
	a.Nop(1)
	a.Buffer().BindLabel(l)
	a.Ret()
	assertBytes(t, a, []byte{0x74, 0x01, 0x90, 0xC3}, "je short fwd")

	a = newAsm(0)
	l = a.Buffer().ReserveLabel()
	a.Jmp(l)
	a.Nop(2)
	a.Buffer().BindLabel(l)
	assertBytes(t, a, []byte{0xE9, 0x02, 0x00, 0x00, 0x00, 0x66, 0x90}, "jmp near fwd")

	// backward branch through DefineLabel
	a = newAsm(0)
	back := a.Buffer().DefineLabel()
	a.Nop(1)
	a.JccShort(CondNE, back)
	a.Buffer().ResolveFixups()
	assertBytes(t, a, []byte{0x90, 0x75, 0xFD}, "jne short back")
}

// TestAtomicForms spot-checks the lock-prefixed encodings.
func TestAtomicForms(t *testing.T) {
	a := newAsm(0)
	a.LockCmpxchgq(NewAddress(RDI, 0), RSI)
	assertBytes(t, a, []byte{0xF0, 0x48, 0x0F, 0xB1, 0x37}, "lock cmpxchg [rdi], rsi")

	a = newAsm(0)
	a.LockXaddq(NewAddress(RDI, 8), RAX)
	assertBytes(t, a, []byte{0xF0, 0x48, 0x0F, 0xC1, 0x47, 0x08}, "lock xadd [rdi+8], rax")
}

// TestFeatureGate checks that missing CPU features reject emission.
func TestFeatureGate(t *testing.T) {
	a := New(NewCodeBuffer(0), NewFeatures(FeatSSE2))
	assertPanics(t, func() { a.Popcntq(RAX, RCX) }, "popcnt without feature")
	assertPanics(t, func() { a.Vaddps(XMM0, XMM1, XMM2, VecAttrs(VL128)) }, "avx without feature")

	// implication closure: AVX512F brings the AVX/SSE lineage
	f := NewFeatures(FeatAVX512F)
	if !f.SupportsAVX() || !f.SupportsSSE41() {
		t.Errorf("AVX512F must imply AVX and SSE lineage")
	}
}

// TestSSEForms spot-checks legacy SIMD prefix ordering (mandatory prefix,
// then REX, then 0F escape).
func TestSSEForms(t *testing.T) {
	a := newAsm(0)
	a.Movsd(XMM0, XMM1)
	assertBytes(t, a, []byte{0xF2, 0x0F, 0x10, 0xC1}, "movsd xmm0, xmm1")

	a = newAsm(0)
	a.Addsd(XMM2, XMM9)
	assertBytes(t, a, []byte{0xF2, 0x41, 0x0F, 0x58, 0xD1}, "addsd xmm2, xmm9")

	a = newAsm(0)
	a.MovqXmmGpr(RAX, XMM0)
	assertBytes(t, a, []byte{0x66, 0x48, 0x0F, 0x7E, 0xC0}, "movq rax, xmm0")

	a = newAsm(0)
	a.MovsdMem(XMM3, NewAddress(RSP, 0x10))
	assertBytes(t, a, []byte{0xF2, 0x0F, 0x10, 0x5C, 0x24, 0x10}, "movsd xmm3, [rsp+16]")
}

// TestPollRelocationKinds checks the safepoint poll shape and its kind
// restriction.
func TestPollRelocationKinds(t *testing.T) {
	a := newAsm(0x1000)
	a.TestPollMem(0x8000, RelocPoll)
	r, ok := a.Buffer().RelocationAt(0)
	if !ok || r.Kind != RelocPoll {
		t.Fatalf("missing poll relocation")
	}
	assertPanics(t, func() { a.TestPollMem(0x8000, RelocCall) }, "poll with call kind")
}
