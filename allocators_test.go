// allocators_test.go: Tests for the budgeted and pooled allocators
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestLimitedAllocator_Budget(t *testing.T) {
	a := NewLimitedAllocator(100)

	first := a.Alloc(60)
	if len(first) != 60 {
		t.Fatalf("Alloc(60) returned %d bytes", len(first))
	}
	if a.Alloc(41) != nil {
		t.Error("Alloc beyond the budget should fail")
	}
	second := a.Alloc(40)
	if len(second) != 40 || a.InUse() != 100 {
		t.Fatalf("Alloc(40) = %d bytes, in use %d", len(second), a.InUse())
	}

	a.Free(first)
	if a.InUse() != 40 {
		t.Errorf("InUse() after Free = %d, want 40", a.InUse())
	}
	a.Free(nil)
	a.Free(second)
	a.Free(make([]byte, 10)) // foreign buffer clamps at zero
	if a.InUse() != 0 {
		t.Errorf("InUse() = %d, want 0", a.InUse())
	}

	if a.Alloc(-1) != nil {
		t.Error("negative sizes should fail")
	}
	if NewLimitedAllocator(-5).Budget() != 0 {
		t.Error("a negative budget should clamp to zero")
	}
}

func TestLimitedAllocator_Concurrent(t *testing.T) {
	const goroutines, size = 8, 16
	a := NewLimitedAllocator(goroutines * size)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				buf := a.Alloc(size)
				if buf == nil {
					t.Error("one buffer per goroutine must always fit")
					return
				}
				a.Free(buf)
			}
		}()
	}
	wg.Wait()

	if a.InUse() != 0 {
		t.Errorf("InUse() = %d after all buffers were freed", a.InUse())
	}
}

func TestPoolAllocator_SizeClasses(t *testing.T) {
	tests := []struct {
		size    int
		wantCap int
	}{
		{0, 64},
		{1, 64},
		{64, 64},
		{65, 128},
		{1000, 1024},
		{65536, 65536},
		{65537, 65537},
	}

	p := NewPoolAllocator()
	for _, tt := range tests {
		buf := p.Alloc(tt.size)
		if len(buf) != tt.size || cap(buf) != tt.wantCap {
			t.Errorf("Alloc(%d): len %d cap %d, want len %d cap %d", tt.size, len(buf), cap(buf), tt.size, tt.wantCap)
		}
		p.Free(buf)
	}

	if p.Alloc(-1) != nil {
		t.Error("negative sizes should fail")
	}
}

func TestPoolAllocator_FreeZeroesBuffers(t *testing.T) {
	p := NewPoolAllocator()

	buf := p.Alloc(100)
	copy(buf, "secret")
	p.Free(buf)

	// Whatever the pool hands back next must not carry old contents.
	next := p.Alloc(100)
	if bytes.Contains(next[:cap(next)], []byte("secret")) {
		t.Error("pooled buffer leaked previous contents")
	}

	p.Free(make([]byte, 100)) // not a class size, ignored
	p.Free(nil)
}

func TestPoolAllocator_AsPlatformAllocator(t *testing.T) {
	platform := NewPlatform(StdBindings())
	if err := platform.SetAllocator(NewPoolAllocator()); err != nil {
		t.Fatalf("SetAllocator failed: %v", err)
	}
	buf := platform.Alloc(32)
	n := platform.Snprintf(buf, "id=%d", 7)
	if string(buf[:n]) != "id=7" {
		t.Errorf("buffer = %q", buf[:n])
	}
	platform.Free(buf)

	if platform.SlotNames()[SlotAlloc] != "pool" {
		t.Errorf("alloc slot = %q, want pool", platform.SlotNames()[SlotAlloc])
	}
}

func TestLogPrinter(t *testing.T) {
	var logs bytes.Buffer
	printer := NewLogPrinter(zerolog.New(&logs), zerolog.InfoLevel)

	platform := NewPlatform(StdBindings())
	if err := platform.SetFormatter(printer); err != nil {
		t.Fatalf("SetFormatter failed: %v", err)
	}

	n, err := platform.Printf("ready after %d ms\n", 12)
	if err != nil || n != len("ready after 12 ms\n") {
		t.Errorf("Printf = %d, %v", n, err)
	}
	line := logs.String()
	if !strings.Contains(line, `"message":"ready after 12 ms"`) || !strings.Contains(line, `"component":"atlas"`) {
		t.Errorf("unexpected log line: %s", line)
	}

	// Buffer and stream formatting are unchanged.
	var w bytes.Buffer
	if _, err := platform.Fprintf(&w, "x=%d", 1); err != nil || w.String() != "x=1" {
		t.Errorf("Fprintf wrote %q (%v)", w.String(), err)
	}
	if platform.SlotNames()[SlotPrintf] != "zerolog" {
		t.Errorf("printf slot = %q, want zerolog", platform.SlotNames()[SlotPrintf])
	}
}
