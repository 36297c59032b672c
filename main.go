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
package main

import "os"
import "fmt"
import "flag"
import "runtime"
import "crypto/rand"
import "runtime/pprof"
import "github.com/google/uuid"
import "github.com/launix-de/govm/asm"
import "github.com/launix-de/govm/gcmark"

// emitDemo assembles a small counting loop and returns the buffer.
func emitDemo() *asm.CodeBuffer {
	a := asm.New(asm.NewCodeBuffer(0x1000), asm.AllFeatures())
	a.MovlImm(asm.RAX, 0)
	a.MovlImm(asm.RCX, 16)
	loop := a.Buffer().DefineLabel()
	a.Addq(asm.RAX, asm.RCX)
	a.Decq(asm.RCX)
	a.JccShort(asm.CondNE, loop)
	a.Ret()
	a.Buffer().ResolveFixups()
	return a.Buffer()
}

// markDemo builds a linked list with an array spine and marks it.
func markDemo(objects int) *gcmark.MarkPhase {
	h := gcmark.NewHeap()
	ids := make([]gcmark.ObjectID, objects)
	prev := gcmark.NullRef
	for i := range ids {
		ids[i] = h.AllocObject(nil, prev)
		prev = ids[i]
	}
	spine := h.AllocArray(nil, objects)
	copy(h.Resolve(spine).Elems, ids)
	return gcmark.ParallelMark(h, []gcmark.ObjectID{spine})
}

func main() {
	fmt.Print(`govm Copyright (C) 2026   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;

`)

	// init random generator for UUIDs
	uuid.SetRand(rand.Reader)

	dumpdir := ""
	flag.StringVar(&dumpdir, "dump", "", "Folder to dump assembled code blobs into")

	segsize := ""
	flag.StringVar(&segsize, "segsize", "", "Local mark segment size (e.g. 64KiB)")

	objects := 100000
	flag.IntVar(&objects, "objects", 100000, "Heap size for the mark demo")

	flag.IntVar(&gcmark.Settings.Workers, "workers", runtime.NumCPU(), "Number of mark workers")

	profile := ""
	flag.StringVar(&profile, "profile", "", "Write CPU profile to file")

	flag.Parse()

	if segsize != "" {
		if err := gcmark.SetLocalSegmentSize(segsize); err != nil {
			fmt.Println("invalid -segsize:", err)
			os.Exit(1)
		}
	}

	// init profiling
	if profile != "" {
		f, err := os.Create(profile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	buf := emitDemo()
	fmt.Printf("assembled %d bytes at base %#x\n", buf.Offset(), buf.Base)
	if dumpdir != "" {
		if err := buf.DumpFile(dumpdir); err != nil {
			panic(err)
		}
		fmt.Println("dumped into " + dumpdir)
	}

	gcmark.Stats.Reset()
	p := markDemo(objects)
	fmt.Printf("marked %d of %d objects (%d array chunks)\n",
		p.Bitmap.CountMarked(), objects+1, gcmark.Stats.ArrayChunks.Load())
}
