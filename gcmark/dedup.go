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

// dedupBatch is flushed to the sink once this many strings queued up.
const dedupBatch = 64

// DedupQueue buffers string objects discovered by one worker for the
// deduplication service. The sink runs on the worker's goroutine; a nil
// sink turns the queue into a no-op.
type DedupQueue struct {
	buf  []ObjectID
	sink func([]ObjectID)
}

// NewDedupQueue creates a per-worker queue feeding sink.
func NewDedupQueue(sink func([]ObjectID)) *DedupQueue {
	return &DedupQueue{sink: sink}
}

// Enqueue adds a candidate string object.
func (q *DedupQueue) Enqueue(id ObjectID) {
	if q == nil || q.sink == nil {
		return
	}
	q.buf = append(q.buf, id)
	if len(q.buf) >= dedupBatch {
		q.Flush()
	}
}

// Flush hands the buffered candidates to the sink.
func (q *DedupQueue) Flush() {
	if q == nil || q.sink == nil || len(q.buf) == 0 {
		return
	}
	batch := make([]ObjectID, len(q.buf))
	copy(batch, q.buf)
	q.buf = q.buf[:0]
	q.sink(batch)
}
