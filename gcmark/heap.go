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

// ObjectID is a narrow object reference. 0 is the null reference; every
// other value indexes directly into the heap's object table.
type ObjectID uint32

// NullRef is the null narrow reference.
const NullRef ObjectID = 0

// neutralHeader is the header word of an object with no lock, hash or bias
// state. Any other header value must be preserved before compaction would
// overwrite it.
const neutralHeader uint64 = 0x1

// Class carries the per-type metadata the marker cares about: the holder
// object that keeps the defining class loader alive.
type Class struct {
	Name   string
	Holder ObjectID
}

// Object is the minimal heap object model. Elems != nil makes the object a
// reference array; plain objects keep their reference fields in Fields.
// Archive objects come in two flavors: closed (pre-marked, never scanned)
// and open (marked normally but the header is never preserved).
type Object struct {
	Header uint64
	Class  *Class
	Fields []ObjectID
	Elems  []ObjectID

	ClosedArchive bool
	OpenArchive   bool
	IsString      bool
}

// IsArray reports whether the object is a reference array. An empty array
// allocated with zero elements still counts.
func (o *Object) IsArray() bool { return o.Elems != nil }

// mustPreserve reports whether the header word encodes state (lock, hash,
// bias pattern) that would be lost if the word is reused during compaction.
func mustPreserve(header uint64) bool { return header != neutralHeader }

// Heap is the object table. Index 0 is reserved for the null reference.
// The heap is frozen during a mark phase: no allocation, no resizing of
// arrays, so object lengths observed at task creation stay valid.
type Heap struct {
	objects []Object
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{objects: make([]Object, 1)}
}

// Alloc adds an object and returns its reference.
func (h *Heap) Alloc(obj Object) ObjectID {
	if obj.Header == 0 {
		obj.Header = neutralHeader
	}
	h.objects = append(h.objects, obj)
	return ObjectID(len(h.objects) - 1)
}

// AllocObject adds a plain object referencing the given fields.
func (h *Heap) AllocObject(cls *Class, fields ...ObjectID) ObjectID {
	return h.Alloc(Object{Class: cls, Fields: fields})
}

// AllocArray adds a reference array of the given length with all elements
// null. Elements are filled in via Resolve before marking starts.
func (h *Heap) AllocArray(cls *Class, length int) ObjectID {
	return h.Alloc(Object{Class: cls, Elems: make([]ObjectID, length)})
}

// Size returns the number of allocated objects, null slot excluded.
func (h *Heap) Size() int { return len(h.objects) - 1 }

// Resolve decodes a narrow reference into its object.
func (h *Heap) Resolve(id ObjectID) *Object {
	if id == NullRef || int(id) >= len(h.objects) {
		panic("gcmark: resolve of invalid object reference")
	}
	return &h.objects[id]
}

// IterateFields visits every reference field of a plain object.
func (h *Heap) IterateFields(obj *Object, fn func(ObjectID)) {
	for _, f := range obj.Fields {
		fn(f)
	}
}

// IterateRange visits the elements of a reference array in [from, to).
func (h *Heap) IterateRange(obj *Object, from, to int, fn func(ObjectID)) {
	if from < 0 || to > len(obj.Elems) || from > to {
		panic("gcmark: array iteration range out of bounds")
	}
	for _, e := range obj.Elems[from:to] {
		fn(e)
	}
}
