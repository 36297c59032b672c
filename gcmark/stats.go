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

// StatsT collects phase counters. Single atomics, no mutex; read after the
// phase or accept momentary values.
type StatsT struct {
	Marked      atomic.Int64 // mark races won
	Pushed      atomic.Int64 // objects queued for scanning
	ArrayChunks atomic.Int64 // array chunk tasks processed
}

var Stats StatsT

// Reset clears the counters. Call between phases, never during one.
func (s *StatsT) Reset() {
	s.Marked.Store(0)
	s.Pushed.Store(0)
	s.ArrayChunks.Store(0)
}
