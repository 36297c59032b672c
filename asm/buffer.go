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

import (
	"encoding/binary"

	"github.com/google/btree"
	"github.com/google/uuid"
)

// Fixup records a forward reference to a not-yet-bound label that must be
// patched once the label position is known.
type Fixup struct {
	CodePos int   // offset of the rel field in the buffer
	LabelID uint8 // target label
	Size    uint8 // 1=rel8, 4=rel32
}

// CodeBuffer is the byte sink one compilation context writes into.
// Single-threaded per buffer: one assembler owns one buffer, no locking.
type CodeBuffer struct {
	ID   uuid.UUID // identifies the blob in dumps and diagnostics
	Base uint64    // virtual address of byte 0, used for rip-relative math

	bytes    []byte
	instMark int // offset of the current instruction's first byte, -1 outside

	relocs *btree.BTreeG[Relocation]

	labels    [64]int32 // bound offset per label, -1 = unbound
	labelNext uint8
	fixups    [128]Fixup
	fixupNext uint8
}

// NewCodeBuffer creates an empty buffer loaded (virtually) at base.
func NewCodeBuffer(base uint64) *CodeBuffer {
	b := &CodeBuffer{
		ID:       uuid.New(),
		Base:     base,
		instMark: -1,
		relocs:   btree.NewG[Relocation](8, relocLess),
	}
	for i := range b.labels {
		b.labels[i] = -1
	}
	return b
}

// Offset returns the current write position.
func (b *CodeBuffer) Offset() int { return len(b.bytes) }

// Bytes returns the emitted code. The slice aliases the buffer.
func (b *CodeBuffer) Bytes() []byte { return b.bytes }

// setMark records the start of a new instruction. Every emission method
// calls this first; relocations always bind to the latest mark.
func (b *CodeBuffer) setMark() int {
	b.instMark = len(b.bytes)
	return b.instMark
}

// InstMark returns the offset of the instruction currently being emitted.
func (b *CodeBuffer) InstMark() int {
	if b.instMark < 0 {
		panic("asm: no instruction mark set")
	}
	return b.instMark
}

func (b *CodeBuffer) emit8(v byte)  { b.bytes = append(b.bytes, v) }
func (b *CodeBuffer) emitBytes(vs ...byte) { b.bytes = append(b.bytes, vs...) }

func (b *CodeBuffer) emit16(v uint16) {
	b.bytes = binary.LittleEndian.AppendUint16(b.bytes, v)
}

func (b *CodeBuffer) emit32(v uint32) {
	b.bytes = binary.LittleEndian.AppendUint32(b.bytes, v)
}

func (b *CodeBuffer) emit64(v uint64) {
	b.bytes = binary.LittleEndian.AppendUint64(b.bytes, v)
}

// patch32 overwrites 4 bytes at off. Used by label binding and relocation
// patching; off must point into already emitted code.
func (b *CodeBuffer) patch32(off int, v uint32) {
	if off < 0 || off+4 > len(b.bytes) {
		panic("asm: patch offset out of range")
	}
	binary.LittleEndian.PutUint32(b.bytes[off:], v)
}

// relocate attaches a relocation record at the current instruction mark.
// Never at the literal's own offset: the patcher needs the owning
// instruction to re-derive field positions.
func (b *CodeBuffer) relocate(kind RelocKind, target uint64) {
	if kind == RelocNone {
		return
	}
	b.relocs.ReplaceOrInsert(Relocation{Offset: b.InstMark(), Kind: kind, Target: target})
}

// RelocationAt returns the relocation bound to the instruction starting at
// offset, if any.
func (b *CodeBuffer) RelocationAt(offset int) (Relocation, bool) {
	return b.relocs.Get(Relocation{Offset: offset})
}

// Relocations visits all relocation records in ascending offset order.
func (b *CodeBuffer) Relocations(fn func(Relocation) bool) {
	b.relocs.Ascend(fn)
}

// RelocationCount returns the number of attached relocation records.
func (b *CodeBuffer) RelocationCount() int { return b.relocs.Len() }

// --- labels (forward branch targets) ---

// DefineLabel allocates a label bound to the current position.
func (b *CodeBuffer) DefineLabel() uint8 {
	id := b.labelNext
	if int(id) >= len(b.labels) {
		panic("asm: out of labels")
	}
	b.labelNext++
	b.labels[id] = int32(len(b.bytes))
	return id
}

// ReserveLabel allocates a label ID for later placement via BindLabel.
func (b *CodeBuffer) ReserveLabel() uint8 {
	id := b.labelNext
	if int(id) >= len(b.labels) {
		panic("asm: out of labels")
	}
	b.labelNext++
	return id
}

// BindLabel sets the position of a reserved label and patches every fixup
// already recorded against it.
func (b *CodeBuffer) BindLabel(id uint8) {
	b.labels[id] = int32(len(b.bytes))
	for i := uint8(0); i < b.fixupNext; i++ {
		f := &b.fixups[i]
		if f.LabelID == id {
			b.resolveFixup(f)
		}
	}
}

// addFixup records a forward reference at the current position.
func (b *CodeBuffer) addFixup(id uint8, size uint8) {
	if int(b.fixupNext) >= len(b.fixups) {
		panic("asm: out of fixup slots")
	}
	b.fixups[b.fixupNext] = Fixup{CodePos: len(b.bytes), LabelID: id, Size: size}
	b.fixupNext++
}

func (b *CodeBuffer) resolveFixup(f *Fixup) {
	target := b.labels[f.LabelID]
	if target < 0 {
		panic("asm: undefined label")
	}
	rel := int32(target) - (int32(f.CodePos) + int32(f.Size))
	switch f.Size {
	case 1:
		if rel < -128 || rel > 127 {
			panic("asm: rel8 branch target out of range")
		}
		b.bytes[f.CodePos] = byte(int8(rel))
	case 4:
		b.patch32(f.CodePos, uint32(rel))
	default:
		panic("asm: bad fixup size")
	}
}

// ResolveFixups patches all outstanding forward references. Panics on any
// still-undefined label.
func (b *CodeBuffer) ResolveFixups() {
	for i := uint8(0); i < b.fixupNext; i++ {
		b.resolveFixup(&b.fixups[i])
	}
	b.fixupNext = 0
}
