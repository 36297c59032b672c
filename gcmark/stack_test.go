package gcmark

import (
	"sync"
	"testing"
)

// TestMarkStackLIFO checks plain push/pop without spilling.
func TestMarkStackLIFO(t *testing.T) {
	withSettings(t, SettingsT{ObjArrayMarkingStride: 512, LocalSegmentSize: 16})
	var shared OverflowStack[int]
	s := NewMarkStack(&shared)
	for i := 1; i <= 10; i++ {
		s.Push(i)
	}
	for i := 10; i >= 1; i-- {
		v, ok := s.Pop()
		if !ok || v != i {
			t.Fatalf("pop %d ok=%v, expected %d", v, ok, i)
		}
	}
	if _, ok := s.Pop(); ok {
		t.Errorf("pop from empty stack succeeded")
	}
}

// TestMarkStackSpill fills past the local segment and checks that half the
// segment moved to the shared overflow.
func TestMarkStackSpill(t *testing.T) {
	withSettings(t, SettingsT{ObjArrayMarkingStride: 512, LocalSegmentSize: 8})
	var shared OverflowStack[int]
	s := NewMarkStack(&shared)
	for i := 0; i < 9; i++ { // 9th push overflows an 8-entry segment
		s.Push(i)
	}
	if shared.Empty() {
		t.Fatalf("overflow empty after spill")
	}
	if s.LocalLen() != 5 { // kept half plus the new entry
		t.Errorf("local length %d after spill, expected 5", s.LocalLen())
	}
	// every pushed value must come back exactly once
	seen := make(map[int]bool)
	for {
		v, ok := s.Pop()
		if !ok {
			break
		}
		if seen[v] {
			t.Errorf("value %d popped twice", v)
		}
		seen[v] = true
	}
	if len(seen) != 9 {
		t.Errorf("recovered %d values, expected 9", len(seen))
	}
	if !s.IsEmpty() {
		t.Errorf("stack not empty after full drain")
	}
}

// TestMarkStackOverflowFirst checks that pop prefers shared work over the
// local segment.
func TestMarkStackOverflowFirst(t *testing.T) {
	withSettings(t, SettingsT{ObjArrayMarkingStride: 512, LocalSegmentSize: 8})
	var shared OverflowStack[int]
	s := NewMarkStack(&shared)
	s.Push(1)
	shared.PushBatch([]int{100, 101})
	v, ok := s.Pop()
	if !ok || v != 101 {
		t.Errorf("pop %d, expected shared value 101", v)
	}
	v, ok = s.Pop()
	if !ok || v != 100 {
		t.Errorf("pop %d, expected requeued shared value 100", v)
	}
	v, ok = s.Pop()
	if !ok || v != 1 {
		t.Errorf("pop %d, expected local value 1", v)
	}
}

// TestMarkStackFlush publishes local entries for stealing.
func TestMarkStackFlush(t *testing.T) {
	withSettings(t, SettingsT{ObjArrayMarkingStride: 512, LocalSegmentSize: 8})
	var shared OverflowStack[int]
	s := NewMarkStack(&shared)
	s.Push(1)
	s.Push(2)
	s.Flush()
	if s.LocalLen() != 0 || shared.Empty() {
		t.Fatalf("flush did not publish local entries")
	}
	other := NewMarkStack(&shared)
	if v, ok := other.Pop(); !ok || v != 2 {
		t.Errorf("steal got %d ok=%v, expected 2", v, ok)
	}
}

// TestOverflowStackConcurrent hammers the Treiber stack from both sides.
func TestOverflowStackConcurrent(t *testing.T) {
	var s OverflowStack[int]
	const producers = 4
	const batches = 200
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for b := 0; b < batches; b++ {
				s.PushBatch([]int{p*batches + b})
			}
		}(p)
	}
	var mu sync.Mutex
	got := make(map[int]bool)
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < producers*batches/4; {
				if batch, ok := s.PopBatch(); ok {
					mu.Lock()
					for _, v := range batch {
						got[v] = true
					}
					mu.Unlock()
					i += len(batch)
				}
			}
		}()
	}
	wg.Wait()
	if len(got) != producers*batches {
		t.Errorf("recovered %d values, expected %d", len(got), producers*batches)
	}
}
