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

type overflowNode[T any] struct {
	batch []T
	next  *overflowNode[T]
}

// OverflowStack is the shared spill target for all workers' local mark
// segments. Lock-free Treiber stack of batches: multi-producer push,
// multi-consumer pop, a whole batch per operation.
type OverflowStack[T any] struct {
	head atomic.Pointer[overflowNode[T]]
}

// PushBatch moves a batch onto the shared stack. The caller must not reuse
// the slice afterwards.
func (s *OverflowStack[T]) PushBatch(batch []T) {
	if len(batch) == 0 {
		return
	}
	n := &overflowNode[T]{batch: batch}
	for {
		old := s.head.Load()
		n.next = old
		if s.head.CompareAndSwap(old, n) {
			return
		}
	}
}

// PopBatch removes one batch, most recently pushed first.
func (s *OverflowStack[T]) PopBatch() ([]T, bool) {
	for {
		old := s.head.Load()
		if old == nil {
			return nil, false
		}
		if s.head.CompareAndSwap(old, old.next) {
			return old.batch, true
		}
	}
}

// Empty reports whether no batch is currently available. Momentary answer
// under concurrency; the termination protocol rechecks after all workers
// report idle.
func (s *OverflowStack[T]) Empty() bool { return s.head.Load() == nil }

// MarkStack is one worker's bounded local segment backed by a shared
// overflow stack. Not safe for concurrent use; sharing happens only through
// the overflow structure.
type MarkStack[T any] struct {
	local  []T
	shared *OverflowStack[T]
}

// NewMarkStack creates a local stack of the configured segment size spilling
// into shared.
func NewMarkStack[T any](shared *OverflowStack[T]) *MarkStack[T] {
	segment := Settings.LocalSegmentSize
	if segment < 2 {
		segment = 2
	}
	return &MarkStack[T]{local: make([]T, 0, segment), shared: shared}
}

// Push adds one entry. When the local segment is full, the older half moves
// to the shared overflow so idle workers can steal it.
func (s *MarkStack[T]) Push(v T) {
	if len(s.local) == cap(s.local) {
		half := len(s.local) / 2
		spill := make([]T, half)
		copy(spill, s.local[:half])
		s.shared.PushBatch(spill)
		n := copy(s.local, s.local[half:])
		s.local = s.local[:n]
	}
	s.local = append(s.local, v)
}

// Pop removes one entry, trying the shared overflow before the local
// segment. Overflow-first draining keeps shared memory bounded and feeds
// stolen work back promptly.
func (s *MarkStack[T]) Pop() (T, bool) {
	if batch, ok := s.shared.PopBatch(); ok {
		v := batch[len(batch)-1]
		if len(batch) > 1 {
			s.shared.PushBatch(batch[:len(batch)-1])
		}
		return v, true
	}
	if n := len(s.local); n > 0 {
		v := s.local[n-1]
		s.local = s.local[:n-1]
		return v, true
	}
	var zero T
	return zero, false
}

// Flush spills the whole local segment to the shared overflow. Used to
// publish seeded roots before workers start.
func (s *MarkStack[T]) Flush() {
	if len(s.local) == 0 {
		return
	}
	spill := make([]T, len(s.local))
	copy(spill, s.local)
	s.shared.PushBatch(spill)
	s.local = s.local[:0]
}

// IsEmpty reports whether both the local segment and the shared overflow
// hold no entries.
func (s *MarkStack[T]) IsEmpty() bool {
	return len(s.local) == 0 && s.shared.Empty()
}

// LocalLen returns the local segment fill. Diagnostic.
func (s *MarkStack[T]) LocalLen() int { return len(s.local) }
