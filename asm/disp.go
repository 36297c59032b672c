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

// TupleType classifies an EVEX memory operand's element layout. The values
// are base row indices into dispScaleTable; the mod index (0-3) derived
// from W/broadcast/input-size is added to the base row.
type TupleType uint8

const (
	TupleFV  TupleType = 0  // full vector, rows +0..+3 = W0, W0+bcst, W1, W1+bcst
	TupleHV  TupleType = 4  // half vector, rows +0..+1
	TupleFVM TupleType = 6  // full vector memory
	TupleT1S TupleType = 7  // tuple1 scalar, rows +0..+3 = 8/16/32/64-bit input
	TupleT1F TupleType = 11 // tuple1 fixed, rows +0..+1 = 32/64-bit
	TupleT2  TupleType = 13
	TupleT4  TupleType = 14
	TupleT8  TupleType = 15
	TupleHVM TupleType = 16
	TupleQVM TupleType = 17
	TupleOVM TupleType = 18
	TupleM128 TupleType = 19
	TupleDUP TupleType = 20
	tupleRows          = 21
)

// dispScaleTable is the disp8*N scale per (tuple row, vector length),
// following tables 2-34/2-35 of the vendor encoding manual. Zero means the
// combination is unsupported and must never be indexed; it is a fatal error
// to reach such an entry, and legacy (non-EVEX) instructions must never
// consult the table at all.
var dispScaleTable = [tupleRows][3]int32{
	// FV
	{16, 32, 64}, // W0
	{4, 4, 4},    // W0, broadcast (32-bit element)
	{16, 32, 64}, // W1
	{8, 8, 8},    // W1, broadcast (64-bit element)
	// HV
	{8, 16, 32},
	{4, 4, 4}, // broadcast
	// FVM
	{16, 32, 64},
	// T1S by input size
	{1, 1, 1},
	{2, 2, 2},
	{4, 4, 4},
	{8, 8, 8},
	// T1F by input size
	{4, 4, 4},
	{8, 8, 8},
	// T2, T4, T8
	{8, 8, 8},
	{0, 16, 16},
	{0, 0, 32},
	// HVM, QVM, OVM
	{8, 16, 32},
	{4, 8, 16},
	{2, 4, 8},
	// M128
	{16, 16, 16},
	// DUP
	{8, 32, 64},
}

// modIndex derives the row offset within a tuple's block, mirroring the
// per-tuple selection rules of the manual.
func modIndex(at *Attributes) int {
	switch at.Tuple {
	case TupleFV:
		idx := 0
		if at.RexVexW {
			idx = 2
		}
		if at.Broadcast {
			idx++
		}
		return idx
	case TupleHV:
		if at.Broadcast {
			return 1
		}
		return 0
	case TupleT1S:
		return int(at.Input)
	case TupleT1F:
		switch at.Input {
		case Input32bit:
			return 0
		case Input64bit:
			return 1
		}
		panic("asm: T1F tuple requires a 32 or 64-bit input size")
	default:
		return 0
	}
}

// dispScale returns the disp8*N scale for the attributes. Must only be
// called for a genuine EVEX instruction.
func dispScale(at *Attributes) int32 {
	if !at.isEVEX {
		panic("asm: disp8*N scale queried for a non-EVEX instruction")
	}
	row := int(at.Tuple) + modIndex(at)
	if row >= tupleRows {
		panic("asm: tuple row out of range")
	}
	n := dispScaleTable[row][at.VLen]
	if n == 0 {
		panic("asm: unsupported tuple/vector length combination")
	}
	return n
}

// compressDisp rewrites a raw displacement into its disp8*N form. It
// reports false when the displacement is not a multiple of the scale or
// the quotient exceeds the signed 8-bit range; the caller must then fall
// back to disp32.
func compressDisp(disp int32, at *Attributes) (int8, bool) {
	n := dispScale(at)
	if disp%n != 0 {
		return 0, false
	}
	q := disp / n
	if q < -128 || q > 127 {
		return 0, false
	}
	return int8(q), true
}

// fitsDisp8 is the legacy/VEX range check: no scaling, plain signed byte.
func fitsDisp8(disp int32) bool { return disp >= -128 && disp < 128 }
