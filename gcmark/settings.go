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
	"runtime"

	"github.com/docker/go-units"
)

type SettingsT struct {
	ObjArrayMarkingStride int  // elements scanned per array chunk
	LocalSegmentSize      int  // entries per worker-local mark segment
	Workers               int  // 0 = NumCPU
	VerifyDuringGC        bool // re-iterate fields after follow, assert marked
	DedupEnabled          bool // enqueue string objects for deduplication
}

var Settings SettingsT = SettingsT{512, 4096, 0, false, false}

// markEntrySize is the assumed per-entry footprint when a segment size is
// given in bytes.
const markEntrySize = 16

// SetLocalSegmentSize parses a human-readable size ("64KiB", "1MB") and
// derives the local segment entry count from it.
func SetLocalSegmentSize(size string) error {
	bytes, err := units.RAMInBytes(size)
	if err != nil {
		return err
	}
	entries := int(bytes / markEntrySize)
	if entries < 2 {
		entries = 2
	}
	Settings.LocalSegmentSize = entries
	return nil
}

// workerCount resolves the configured worker count.
func workerCount() int {
	if Settings.Workers > 0 {
		return Settings.Workers
	}
	return runtime.NumCPU()
}
