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

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/jtolds/gls"
)

type markError struct {
	r     interface{}
	stack string
}

func (e markError) Error() string {
	return fmt.Sprint(e.r) + "\n" + e.stack
}

// MarkPhase owns the shared state of one stop-the-world mark phase.
type MarkPhase struct {
	Heap      *Heap
	Bitmap    *MarkBitmap
	Preserved *PreservedMarks

	objs   OverflowStack[ObjectID]
	arrays OverflowStack[ObjArrayTask]

	dedupSink func([]ObjectID)
}

// NewMarkPhase prepares the shared structures for one phase over h. The
// dedup sink may be nil when deduplication is off.
func NewMarkPhase(h *Heap, dedupSink func([]ObjectID)) *MarkPhase {
	return &MarkPhase{
		Heap:      h,
		Bitmap:    NewMarkBitmap(h),
		Preserved: NewPreservedMarks(),
		dedupSink: dedupSink,
	}
}

// NewWorker creates a marker bound to this phase's shared state.
func (p *MarkPhase) NewWorker() *Marker {
	return NewMarker(p.Heap, p.Bitmap, p.Preserved, &p.objs, &p.arrays, NewDedupQueue(p.dedupSink))
}

// Run marks everything reachable from roots with the configured number of
// workers and blocks until global termination. Marking always runs to
// completion; a worker panic is re-raised after all workers stopped.
func (p *MarkPhase) Run(roots []ObjectID) {
	// Seed through a marker so roots get marked and preserved exactly like
	// any other object, then publish them for stealing.
	seeder := p.NewWorker()
	for _, r := range roots {
		seeder.MarkAndPush(r)
	}
	seeder.FlushLocal()
	seeder.dedup.Flush()

	workers := workerCount()
	var idle atomic.Int32
	errs := make(chan markError, workers)
	for i := 0; i < workers; i++ {
		gls.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					errs <- markError{r, string(debug.Stack())}
					// unblock termination: a crashed worker counts idle
					idle.Add(1)
					return
				}
				errs <- markError{}
			}()
			p.workerLoop(&idle, int32(workers))
		})
	}
	var failed *markError
	for i := 0; i < workers; i++ {
		if e := <-errs; e.r != nil && failed == nil {
			failed = &e
		}
	}
	if failed != nil {
		panic(*failed)
	}
}

// workerLoop alternates draining with the idle-count termination protocol:
// a worker only goes idle with empty local segments, and work is only ever
// produced by non-idle workers, so all-idle plus empty overflow is stable.
func (p *MarkPhase) workerLoop(idle *atomic.Int32, workers int32) {
	m := p.NewWorker()
	defer m.dedup.Flush()
	for {
		m.Drain()
		idle.Add(1)
		for {
			if !p.objs.Empty() || !p.arrays.Empty() {
				idle.Add(-1)
				break
			}
			if idle.Load() == workers {
				return
			}
			runtime.Gosched()
		}
	}
}

// ParallelMark is the convenience entry: mark the heap from roots and
// return the phase state for inspection and header restoration.
func ParallelMark(h *Heap, roots []ObjectID) *MarkPhase {
	p := NewMarkPhase(h, nil)
	p.Run(roots)
	return p
}
