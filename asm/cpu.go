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

import "golang.org/x/sys/cpu"

// Feature bits for the CPU capability set.
const (
	FeatSSE2 uint64 = 1 << iota
	FeatSSE3
	FeatSSSE3
	FeatSSE41
	FeatSSE42
	FeatPOPCNT
	FeatLZCNT
	FeatBMI1
	FeatBMI2
	FeatAVX
	FeatAVX2
	FeatFMA
	FeatAVX512F
	FeatAVX512VL
	FeatAVX512BW
	FeatAVX512DQ
	FeatAVX512CD
)

// Features is the read-only CPU capability set. It is constructed once at
// startup and passed by value into every Assembler; it is never mutated
// afterwards. Emitting an instruction whose feature bit is missing panics.
type Features struct {
	bits uint64
}

// NewFeatures builds a capability set from feature bits.
func NewFeatures(bits uint64) Features {
	// AVX-512 implies the AVX/SSE lineage it extends.
	if bits&FeatAVX512F != 0 {
		bits |= FeatAVX | FeatAVX2
	}
	if bits&FeatAVX != 0 {
		bits |= FeatSSE2 | FeatSSE3 | FeatSSSE3 | FeatSSE41 | FeatSSE42
	}
	return Features{bits}
}

// DetectFeatures builds the capability set of the host CPU. Only useful
// when the emitted code will run in this process.
func DetectFeatures() Features {
	var bits uint64
	set := func(cond bool, bit uint64) {
		if cond {
			bits |= bit
		}
	}
	set(cpu.X86.HasSSE2, FeatSSE2)
	set(cpu.X86.HasSSE3, FeatSSE3)
	set(cpu.X86.HasSSSE3, FeatSSSE3)
	set(cpu.X86.HasSSE41, FeatSSE41)
	set(cpu.X86.HasSSE42, FeatSSE42)
	set(cpu.X86.HasPOPCNT, FeatPOPCNT)
	set(cpu.X86.HasBMI1, FeatBMI1)
	set(cpu.X86.HasBMI2, FeatBMI2)
	set(cpu.X86.HasAVX, FeatAVX)
	set(cpu.X86.HasAVX2, FeatAVX2)
	set(cpu.X86.HasFMA, FeatFMA)
	set(cpu.X86.HasAVX512F, FeatAVX512F)
	set(cpu.X86.HasAVX512VL, FeatAVX512VL)
	set(cpu.X86.HasAVX512BW, FeatAVX512BW)
	set(cpu.X86.HasAVX512DQ, FeatAVX512DQ)
	set(cpu.X86.HasAVX512CD, FeatAVX512CD)
	// x/sys/cpu has no LZCNT flag; ABM came in together with BMI1 on
	// everything we emit for.
	set(cpu.X86.HasBMI1, FeatLZCNT)
	return NewFeatures(bits)
}

// AllFeatures returns a capability set with every feature enabled.
// Used by tests and by cross-emission (encoding for a different target).
func AllFeatures() Features {
	return Features{^uint64(0)}
}

func (f Features) has(bit uint64) bool { return f.bits&bit != 0 }

func (f Features) SupportsSSE2() bool     { return f.has(FeatSSE2) }
func (f Features) SupportsSSE41() bool    { return f.has(FeatSSE41) }
func (f Features) SupportsSSE42() bool    { return f.has(FeatSSE42) }
func (f Features) SupportsPOPCNT() bool   { return f.has(FeatPOPCNT) }
func (f Features) SupportsLZCNT() bool    { return f.has(FeatLZCNT) }
func (f Features) SupportsBMI1() bool     { return f.has(FeatBMI1) }
func (f Features) SupportsBMI2() bool     { return f.has(FeatBMI2) }
func (f Features) SupportsAVX() bool      { return f.has(FeatAVX) }
func (f Features) SupportsAVX2() bool     { return f.has(FeatAVX2) }
func (f Features) SupportsFMA() bool      { return f.has(FeatFMA) }
func (f Features) SupportsEVEX() bool     { return f.has(FeatAVX512F) }
func (f Features) SupportsAVX512VL() bool { return f.has(FeatAVX512VL) }
func (f Features) SupportsAVX512BW() bool { return f.has(FeatAVX512BW) }
func (f Features) SupportsAVX512DQ() bool { return f.has(FeatAVX512DQ) }
func (f Features) SupportsAVX512CD() bool { return f.has(FeatAVX512CD) }

// require panics when the given feature is missing. Feature violations are
// compiler-generator bugs, not runtime conditions.
func (f Features) require(bit uint64, what string) {
	if !f.has(bit) {
		panic("asm: CPU feature not available: " + what)
	}
}
