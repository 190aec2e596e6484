// benchmark_test.go - Atlas Benchmark Tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"testing"
)

// Lock/Unlock through the registry, the path every caller pays for
func BenchmarkThreadingLockUnlock(b *testing.B) {
	threading := NewThreading(NativeMutex{})
	var h MutexHandle
	if err := threading.Init(&h); err != nil {
		b.Fatalf("Init failed: %v", err)
	}
	defer threading.Destroy(&h)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = threading.Lock(&h)
		_ = threading.Unlock(&h)
	}
}

// Baseline without the registry indirection
func BenchmarkNativeMutexDirect(b *testing.B) {
	var m NativeMutex
	var h MutexHandle
	if err := m.Init(&h); err != nil {
		b.Fatalf("Init failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Lock(&h)
		_ = m.Unlock(&h)
	}
}

func BenchmarkThreadingLockUnlockParallel(b *testing.B) {
	threading := NewThreading(NativeMutex{})
	var h MutexHandle
	if err := threading.Init(&h); err != nil {
		b.Fatalf("Init failed: %v", err)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = threading.Lock(&h)
			_ = threading.Unlock(&h)
		}
	})
}

func BenchmarkPlatformAllocFree(b *testing.B) {
	cases := []struct {
		name      string
		allocator Allocator
	}{
		{"std", StdAllocator{}},
		{"pool", NewPoolAllocator()},
		{"limited", NewLimitedAllocator(1 << 20)},
	}

	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			p := NewPlatform(StdBindings())
			if err := p.SetAllocator(tc.allocator); err != nil {
				b.Fatalf("SetAllocator failed: %v", err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf := p.Alloc(256)
				p.Free(buf)
			}
		})
	}
}

func BenchmarkPlatformSnprintf(b *testing.B) {
	p := NewPlatform(StdBindings())
	buf := make([]byte, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Snprintf(buf, "handle %d of %s", i, "bench")
	}
}

func BenchmarkLookupMutexBackend(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = LookupMutexBackend("Native")
	}
}
