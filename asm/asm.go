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

/*
Package asm emits x86-64 machine code into an in-memory code buffer.

It covers legacy (REX), VEX (AVX/AVX2) and EVEX (AVX-512) instruction
encodings, including disp8*N displacement compression, relocation records
bound to instruction marks, forward-branch fixups and an operand locator
that re-derives field offsets from already emitted bytes.

One Assembler owns one CodeBuffer; neither is safe for concurrent use.
All misuse (illegal operand combinations, missing CPU features, immediates
out of range) panics immediately: a malformed instruction stream has no
safe degraded mode.
*/
package asm

// Assembler binds a code buffer to an immutable CPU capability set and
// exposes one emission method per instruction/operand-shape combination.
type Assembler struct {
	buf *CodeBuffer
	cpu Features
}

// New creates an assembler writing into buf, gated by the given features.
func New(buf *CodeBuffer, cpu Features) *Assembler {
	return &Assembler{buf: buf, cpu: cpu}
}

// Buffer returns the underlying code buffer.
func (a *Assembler) Buffer() *CodeBuffer { return a.buf }

// Features returns the capability set the assembler was built with.
func (a *Assembler) Features() Features { return a.cpu }

// Offset returns the current emission offset.
func (a *Assembler) Offset() int { return a.buf.Offset() }

// start opens a new instruction: every public emission method calls this
// first so relocations and the locator agree on instruction boundaries.
// With VerifyRelocations set, the previous instruction's relocation (if
// any) is cross-checked against the locator before moving on.
func (a *Assembler) start() int {
	if VerifyRelocations && a.buf.instMark >= 0 {
		if r, ok := a.buf.RelocationAt(a.buf.instMark); ok {
			a.buf.checkOneRelocation(r)
		}
	}
	return a.buf.setMark()
}
