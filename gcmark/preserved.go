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

import "github.com/launix-de/NonLockingReadMap"

// PreservedMark remembers the original header word of one object whose
// header would otherwise be lost during compaction.
type PreservedMark struct {
	Ref    ObjectID
	Header uint64
}

/* implement NonLockingReadMap */
func (p PreservedMark) GetKey() ObjectID  { return p.Ref }
func (p PreservedMark) ComputeSize() uint { return 16 }

// PreservedMarks is the phase-scoped table of headers to restore. Each
// entry is written exactly once, by the worker that won the mark race for
// the object, so writes for a given key never contend with each other.
type PreservedMarks struct {
	m NonLockingReadMap.NonLockingReadMap[PreservedMark, ObjectID]
}

// NewPreservedMarks creates an empty table.
func NewPreservedMarks() *PreservedMarks {
	return &PreservedMarks{m: NonLockingReadMap.New[PreservedMark, ObjectID]()}
}

// Push records the original header of ref.
func (p *PreservedMarks) Push(ref ObjectID, header uint64) {
	p.m.Set(&PreservedMark{Ref: ref, Header: header})
}

// Get looks up the preserved header for ref.
func (p *PreservedMarks) Get(ref ObjectID) (uint64, bool) {
	e := p.m.Get(ref)
	if e == nil {
		return 0, false
	}
	return e.Header, true
}

// Count returns the number of preserved headers.
func (p *PreservedMarks) Count() int { return len(p.m.GetAll()) }

// RestoreAll writes every preserved header back into its object. Runs at
// phase end after all workers have stopped; returns the number restored.
func (p *PreservedMarks) RestoreAll(h *Heap) int {
	entries := p.m.GetAll()
	for _, e := range entries {
		h.Resolve(e.Ref).Header = e.Header
	}
	return len(entries)
}
