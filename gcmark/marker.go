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

// ObjArrayTask resumes scanning a reference array at Index. Tasks never go
// stale: array lengths are frozen for the whole mark phase.
type ObjArrayTask struct {
	Array ObjectID
	Index int
}

// Marker is one worker's view of the mark phase. The bitmap, preserved
// table and overflow stacks are shared; the local segments and the dedup
// queue belong to this worker alone.
type Marker struct {
	heap      *Heap
	bitmap    *MarkBitmap
	preserved *PreservedMarks
	objs      *MarkStack[ObjectID]
	arrays    *MarkStack[ObjArrayTask]
	dedup     *DedupQueue
}

// NewMarker creates a worker marker over the shared phase state.
func NewMarker(h *Heap, bm *MarkBitmap, pm *PreservedMarks, objs *OverflowStack[ObjectID], arrays *OverflowStack[ObjArrayTask], dedup *DedupQueue) *Marker {
	return &Marker{
		heap:      h,
		bitmap:    bm,
		preserved: pm,
		objs:      NewMarkStack(objs),
		arrays:    NewMarkStack(arrays),
		dedup:     dedup,
	}
}

// MarkObject transitions id from white to grey. Returns true iff this
// worker won the race and now owns scanning the object. Closed archive
// objects are black by construction and always return false.
func (m *Marker) MarkObject(id ObjectID) bool {
	obj := m.heap.Resolve(id)
	if obj.ClosedArchive {
		return false
	}
	if !m.bitmap.TryMark(id) {
		return false
	}
	// Only the winner reaches this point, so the preserved table sees one
	// writer per object.
	if mustPreserve(obj.Header) && !obj.OpenArchive {
		m.preserved.Push(id, obj.Header)
	}
	if Settings.DedupEnabled && obj.IsString {
		m.dedup.Enqueue(id)
	}
	Stats.Marked.Add(1)
	return true
}

// MarkAndPush marks the referenced object and queues it for scanning when
// this worker won the mark.
func (m *Marker) MarkAndPush(id ObjectID) {
	if id == NullRef {
		return
	}
	if m.MarkObject(id) {
		m.objs.Push(id)
		Stats.Pushed.Add(1)
	} else if Settings.VerifyDuringGC {
		if obj := m.heap.Resolve(id); !obj.ClosedArchive && !m.bitmap.IsMarked(id) {
			panic("gcmark: lost mark race but object is unmarked")
		}
	}
}

// FollowObject scans one grey object. Arrays are not scanned inline; they
// become a task at index 0 so element scanning happens in bounded chunks.
func (m *Marker) FollowObject(id ObjectID) {
	obj := m.heap.Resolve(id)
	if obj.IsArray() {
		m.FollowArray(id)
		return
	}
	m.heap.IterateFields(obj, m.MarkAndPush)
	if Settings.VerifyDuringGC {
		m.verifyFollowed(obj)
	}
}

// FollowArray defers element scanning to the chunk processor: the array's
// class metadata is followed now, the elements become a task at index 0.
func (m *Marker) FollowArray(id ObjectID) {
	obj := m.heap.Resolve(id)
	m.FollowClass(obj.Class)
	if len(obj.Elems) > 0 {
		m.arrays.Push(ObjArrayTask{Array: id, Index: 0})
	}
}

// FollowClass ties class loader liveness to the liveness of instances.
func (m *Marker) FollowClass(cls *Class) {
	if cls != nil {
		m.MarkAndPush(cls.Holder)
	}
}

// FollowArrayChunk scans one stride of an array task. The continuation for
// the remainder is pushed before the current chunk is scanned, so an idle
// worker can steal it immediately.
func (m *Marker) FollowArrayChunk(t ObjArrayTask) {
	obj := m.heap.Resolve(t.Array)
	length := len(obj.Elems)
	stride := Settings.ObjArrayMarkingStride
	if length-t.Index < stride {
		stride = length - t.Index
	}
	end := t.Index + stride
	if end < length {
		m.arrays.Push(ObjArrayTask{Array: t.Array, Index: end})
	}
	m.heap.IterateRange(obj, t.Index, end, m.MarkAndPush)
	Stats.ArrayChunks.Add(1)
	if Settings.VerifyDuringGC {
		m.verifyRange(obj, t.Index, end)
	}
}

// Drain processes work until both queues are empty. Plain objects are
// drained fully before each single array chunk, which bounds stack growth
// from array fan-out while still progressing on arrays every iteration.
func (m *Marker) Drain() {
	for {
		for {
			id, ok := m.objs.Pop()
			if !ok {
				break
			}
			m.FollowObject(id)
		}
		if t, ok := m.arrays.Pop(); ok {
			m.FollowArrayChunk(t)
		}
		if m.IsEmpty() {
			return
		}
	}
}

// IsEmpty reports whether this worker sees no remaining work on either
// queue, shared overflow included.
func (m *Marker) IsEmpty() bool {
	return m.objs.IsEmpty() && m.arrays.IsEmpty()
}

// FlushLocal publishes this worker's local segments to the shared overflow.
func (m *Marker) FlushLocal() {
	m.objs.Flush()
	m.arrays.Flush()
}

// verifyFollowed re-iterates the fields of a scanned object and asserts
// every referenced object ended up marked.
func (m *Marker) verifyFollowed(obj *Object) {
	m.heap.IterateFields(obj, m.verifyRef)
}

func (m *Marker) verifyRange(obj *Object, from, to int) {
	m.heap.IterateRange(obj, from, to, m.verifyRef)
}

func (m *Marker) verifyRef(id ObjectID) {
	if id == NullRef {
		return
	}
	if obj := m.heap.Resolve(id); !obj.ClosedArchive && !m.bitmap.IsMarked(id) {
		panic("gcmark: followed object references an unmarked object")
	}
}
