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
package gcmark

import "sync/atomic"

// MarkBitmap keeps one mark bit per object slot. Setting is an atomic
// first-setter-wins race; bits are never cleared within a phase. The bitmap
// is the sole serialization point between workers discovering the same
// object.
type MarkBitmap struct {
	words []uint64
}

// NewMarkBitmap creates a cleared bitmap covering the heap.
func NewMarkBitmap(h *Heap) *MarkBitmap {
	return &MarkBitmap{words: make([]uint64, (h.Size()+1+63)/64)}
}

// TryMark sets the bit for id and reports whether this caller set it first.
// A false return means another worker already owns scanning the object.
func (b *MarkBitmap) TryMark(id ObjectID) bool {
	w := &b.words[uint32(id)/64]
	bit := uint64(1) << (uint32(id) % 64)
	for {
		old := atomic.LoadUint64(w)
		if old&bit != 0 {
			return false
		}
		if atomic.CompareAndSwapUint64(w, old, old|bit) {
			return true
		}
	}
}

// IsMarked reports whether the bit for id is set.
func (b *MarkBitmap) IsMarked(id ObjectID) bool {
	return atomic.LoadUint64(&b.words[uint32(id)/64])&(uint64(1)<<(uint32(id)%64)) != 0
}

// CountMarked returns the number of set bits. Diagnostic only, not safe
// against concurrent TryMark for an exact snapshot.
func (b *MarkBitmap) CountMarked() int {
	n := 0
	for i := range b.words {
		w := atomic.LoadUint64(&b.words[i])
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}
