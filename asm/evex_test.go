package asm

import "testing"

// TestVexTwoByteForm checks the compact C5 prefix for plain 0F-map forms.
func TestVexTwoByteForm(t *testing.T) {
	a := newAsm(0)
	a.Vaddps(XMM0, XMM1, XMM2, VecAttrs(VL128))
	assertBytes(t, a, []byte{0xC5, 0xF0, 0x58, 0xC2}, "vaddps xmm0, xmm1, xmm2")

	a = newAsm(0)
	a.Vaddps(XMM0, XMM1, XMM2, VecAttrs(VL256))
	assertBytes(t, a, []byte{0xC5, 0xF4, 0x58, 0xC2}, "vaddps ymm0, ymm1, ymm2")

	// a high destination clears the inverted R bit
	a = newAsm(0)
	a.Vaddps(XMM8, XMM1, XMM2, VecAttrs(VL128))
	assertBytes(t, a, []byte{0xC5, 0x70, 0x58, 0xC2}, "vaddps xmm8, xmm1, xmm2")
}

// TestVexThreeByteForm checks fallback to C4 when W or B/X is needed.
func TestVexThreeByteForm(t *testing.T) {
	// W1 forces the three-byte form
	a := newAsm(0)
	a.Vaddpd(XMM0, XMM1, XMM2, VecAttrs(VL128))
	assertBytes(t, a, []byte{0xC4, 0xE1, 0xF1, 0x58, 0xC2}, "vaddpd xmm0, xmm1, xmm2")

	// a high rm register sets B (inverted)
	a = newAsm(0)
	a.Vaddps(XMM0, XMM1, XMM9, VecAttrs(VL128))
	assertBytes(t, a, []byte{0xC4, 0xC1, 0x70, 0x58, 0xC1}, "vaddps xmm0, xmm1, xmm9")
}

// TestEVEXSelectionMonotonicity checks that any register encoding >= 16, a
// 512-bit length, a broadcast or a non-K0 mask forces the 62 prefix, and
// that nothing else does.
func TestEVEXSelectionMonotonicity(t *testing.T) {
	cases := []struct {
		name string
		emit func(*Assembler)
		evex bool
	}{
		{"plain xmm", func(a *Assembler) { a.Vpxor(XMM0, XMM1, XMM2, VecAttrs(VL128)) }, false},
		{"plain ymm", func(a *Assembler) { a.Vpxor(XMM0, XMM1, XMM15, VecAttrs(VL256)) }, false},
		{"dst >= 16", func(a *Assembler) { a.Vpxor(XMM16, XMM1, XMM2, VecAttrs(VL128)) }, true},
		{"nds >= 16", func(a *Assembler) { a.Vpxor(XMM0, XMM17, XMM2, VecAttrs(VL128)) }, true},
		{"src >= 16", func(a *Assembler) { a.Vpxor(XMM0, XMM1, XMM31, VecAttrs(VL128)) }, true},
		{"512-bit", func(a *Assembler) { a.Vpxor(XMM0, XMM1, XMM2, VecAttrs(VL512)) }, true},
		{"write mask", func(a *Assembler) { a.Vpxor(XMM0, XMM1, XMM2, VecAttrs(VL128).WithMask(K1, false)) }, true},
		{"k0 mask stays legacy", func(a *Assembler) { a.Vpxor(XMM0, XMM1, XMM2, VecAttrs(VL128).WithMask(K0, false)) }, false},
		{"evex-only opcode", func(a *Assembler) { a.Evpxorq(XMM0, XMM1, XMM2, VecAttrs(VL128)) }, true},
		{"broadcast mem", func(a *Assembler) {
			a.VpadddMem(XMM0, XMM1, NewAddress(RAX, 0), VecAttrs(VL128).WithBroadcast())
		}, true},
	}
	for _, c := range cases {
		a := newAsm(0)
		c.emit(a)
		first := a.Buffer().Bytes()[0]
		if c.evex && first != 0x62 {
			t.Errorf("%s: expected EVEX prefix, got % X", c.name, a.Buffer().Bytes())
		}
		if !c.evex && first == 0x62 {
			t.Errorf("%s: unexpected EVEX prefix: % X", c.name, a.Buffer().Bytes())
		}
	}
}

// TestEVEXHighRegister checks the full 4-byte prefix for a 512-bit add with
// a destination above 15: register index 20 forces EVEX no matter what.
func TestEVEXHighRegister(t *testing.T) {
	a := newAsm(0)
	a.Vaddps(XMM20, XMM1, XMM2, VecAttrs(VL512))
	assertBytes(t, a, []byte{0x62, 0xE1, 0x74, 0x48, 0x58, 0xE2}, "vaddps zmm20, zmm1, zmm2")
}

// TestEVEXMaskAndZeroing checks aaa and z bits in P2.
func TestEVEXMaskAndZeroing(t *testing.T) {
	a := newAsm(0)
	a.Evmovdqul(XMM1, XMM2, VecAttrs(VL512).WithMask(K3, true))
	// P2 = z | L'L=10 | ~V' | aaa=011
	assertBytes(t, a, []byte{0x62, 0xF1, 0x7E, 0xCB, 0x6F, 0xCA}, "vmovdqu32 zmm1{k3}{z}, zmm2")

	// zeroing without a mask is rejected
	assertPanics(t, func() {
		a := newAsm(0)
		a.Evmovdqul(XMM1, XMM2, Attributes{VLen: VL512, MaskReg: K0, Zeroing: true, EVEXRequired: true})
	}, "zeroing without mask")

	// masked stores merge, zeroing is illegal
	assertPanics(t, func() {
		a := newAsm(0)
		a.EvmovdqulToMem(NewAddress(RAX, 0), XMM1, VecAttrs(VL512).WithMask(K1, true))
	}, "zeroing store")
}

// TestDisp8Compression checks the disp8*N form for compressible
// displacements and the disp32 fallback otherwise.
func TestDisp8Compression(t *testing.T) {
	// [rax+64] under FVM/512 scales by 64: compressed to disp8 = 1
	a := newAsm(0)
	a.EvmovdqulMem(XMM1, NewAddress(RAX, 64), VecAttrs(VL512))
	assertBytes(t, a, []byte{0x62, 0xF1, 0x7E, 0x48, 0x6F, 0x48, 0x01}, "vmovdqu32 zmm1, [rax+64]")

	// 60 is not a multiple of 64: disp32 fallback
	a = newAsm(0)
	a.EvmovdqulMem(XMM1, NewAddress(RAX, 60), VecAttrs(VL512))
	assertBytes(t, a, []byte{0x62, 0xF1, 0x7E, 0x48, 0x6F, 0x88, 0x3C, 0x00, 0x00, 0x00}, "vmovdqu32 zmm1, [rax+60]")

	// quotient out of the signed-8-bit range: disp32 fallback
	a = newAsm(0)
	a.EvmovdqulMem(XMM1, NewAddress(RAX, 64*200), VecAttrs(VL512))
	b := a.Buffer().Bytes()
	if len(b) != 10 || b[5]&0xC0 != 0x80 {
		t.Errorf("quotient overflow must use disp32: % X", b)
	}

	// broadcast re-scales to the element size
	a = newAsm(0)
	a.EvpadddMem(XMM0, XMM1, NewAddress(RAX, 16), VecAttrs(VL512).WithBroadcast())
	got := a.Buffer().Bytes()
	// modrm mod=01, disp8 = 16/4 = 4
	if got[len(got)-1] != 0x04 || got[len(got)-2]&0xC0 != 0x40 {
		t.Errorf("broadcast disp8 must scale by element size: % X", got)
	}
}

// TestCompressDispUnit exercises the compressor directly across the tuple
// table rows.
func TestCompressDispUnit(t *testing.T) {
	cases := []struct {
		name  string
		at    Attributes
		scale int32
	}{
		{"FV W0 128", Attributes{Tuple: TupleFV, VLen: VL128, isEVEX: true}, 16},
		{"FV W0 512", Attributes{Tuple: TupleFV, VLen: VL512, isEVEX: true}, 64},
		{"FV W0 bcst", Attributes{Tuple: TupleFV, VLen: VL512, Broadcast: true, isEVEX: true}, 4},
		{"FV W1 bcst", Attributes{Tuple: TupleFV, VLen: VL512, RexVexW: true, Broadcast: true, isEVEX: true}, 8},
		{"T1S 32-bit", Attributes{Tuple: TupleT1S, Input: Input32bit, VLen: VL512, isEVEX: true}, 4},
		{"T1S 64-bit", Attributes{Tuple: TupleT1S, Input: Input64bit, VLen: VL128, isEVEX: true}, 8},
		{"FVM 256", Attributes{Tuple: TupleFVM, VLen: VL256, isEVEX: true}, 32},
		{"HV bcst", Attributes{Tuple: TupleHV, Broadcast: true, VLen: VL256, isEVEX: true}, 4},
	}
	for _, c := range cases {
		at := c.at
		if got := dispScale(&at); got != c.scale {
			t.Errorf("%s: scale %d, expected %d", c.name, got, c.scale)
			continue
		}
		// multiples of the scale round-trip through the compressed byte
		for _, q := range []int32{-128, -1, 0, 1, 127} {
			d := q * c.scale
			c8, ok := compressDisp(d, &at)
			if !ok || int32(c8)*c.scale != d {
				t.Errorf("%s: disp %d did not round-trip (byte %d ok=%v)", c.name, d, c8, ok)
			}
		}
		// non-multiples and out-of-range quotients must fail
		if c.scale > 1 {
			if _, ok := compressDisp(c.scale+1, &at); ok {
				t.Errorf("%s: non-multiple must not compress", c.name)
			}
		}
		if _, ok := compressDisp(128*c.scale, &at); ok {
			t.Errorf("%s: quotient 128 must not compress", c.name)
		}
	}
}

// TestDispTableGuards checks the unsupported-combination and legacy-query
// panics.
func TestDispTableGuards(t *testing.T) {
	// T4 at 128-bit is a zero entry
	assertPanics(t, func() {
		at := Attributes{Tuple: TupleT4, VLen: VL128, isEVEX: true}
		dispScale(&at)
	}, "zero table entry")

	// the table must never be consulted for non-EVEX instructions
	assertPanics(t, func() {
		at := Attributes{Tuple: TupleFV, VLen: VL128}
		dispScale(&at)
	}, "legacy query")
}

// TestVpcmpeqdSplit checks the VEX-only compare rejects EVEX operands and
// the mask-destination form handles them.
func TestVpcmpeqdSplit(t *testing.T) {
	a := newAsm(0)
	a.Vpcmpeqd(XMM0, XMM1, XMM2, VecAttrs(VL128))
	assertBytes(t, a, []byte{0xC5, 0xF1, 0x76, 0xC2}, "vpcmpeqd xmm0, xmm1, xmm2")

	assertPanics(t, func() {
		a := newAsm(0)
		a.Vpcmpeqd(XMM0, XMM1, XMM20, VecAttrs(VL128))
	}, "vpcmpeqd with high register")

	a = newAsm(0)
	a.Evpcmpeqd(K1, XMM1, XMM20, VecAttrs(VL512))
	if a.Buffer().Bytes()[0] != 0x62 {
		t.Errorf("mask-destination compare must be EVEX: % X", a.Buffer().Bytes())
	}
}

// TestGatherVSIB checks the operand restrictions of the gather form.
func TestGatherVSIB(t *testing.T) {
	adr := NewIndexedAddress(RAX, XMM2, Scale4, 0)
	a := newAsm(0)
	a.Evgatherdps(XMM1, adr, VecAttrs(VL512).WithMask(K2, false))
	if a.Buffer().Bytes()[0] != 0x62 {
		t.Errorf("gather must be EVEX: % X", a.Buffer().Bytes())
	}

	assertPanics(t, func() {
		a := newAsm(0)
		a.Evgatherdps(XMM1, NewAddress(RAX, 0), VecAttrs(VL512).WithMask(K2, false))
	}, "gather without vector index")
	assertPanics(t, func() {
		a := newAsm(0)
		a.Evgatherdps(XMM1, adr, VecAttrs(VL512))
	}, "gather without mask")
	assertPanics(t, func() {
		a := newAsm(0)
		a.Evgatherdps(XMM2, adr, VecAttrs(VL512).WithMask(K2, false))
	}, "gather dst aliases index")
}

// TestOpmaskOps spot-checks the VEX-encoded opmask ALU.
func TestOpmaskOps(t *testing.T) {
	a := newAsm(0)
	a.Kandw(K1, K2, K3)
	// VEX.L1.0F.W0: C5, ~vvvv(2)=1101<<3 | L1 | pp0
	assertBytes(t, a, []byte{0xC5, 0xEC, 0x41, 0xCB}, "kandw k1, k2, k3")

	a = newAsm(0)
	a.KmovwFromGpr(K1, RAX)
	assertBytes(t, a, []byte{0xC5, 0xF8, 0x92, 0xC8}, "kmovw k1, eax")
}
