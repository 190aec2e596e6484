// allocators.go: Budgeted and pooled allocators
//
// LimitedAllocator models a constrained target with a fixed heap budget.
// PoolAllocator recycles buffers in power-of-two size classes.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// LimitedAllocator hands out at most Budget bytes at a time. Alloc returns nil
// once the budget would be exceeded; Free credits cap(buf) back.
// It is safe for concurrent use.
type LimitedAllocator struct {
	budget int64
	used   atomic.Int64
}

// NewLimitedAllocator creates an allocator with a budget of n bytes.
func NewLimitedAllocator(n int64) *LimitedAllocator {
	if n < 0 {
		n = 0
	}
	return &LimitedAllocator{budget: n}
}

// Name implements Named.
func (l *LimitedAllocator) Name() string { return "limited" }

// Alloc implements Allocator.
func (l *LimitedAllocator) Alloc(size int) []byte {
	if size < 0 {
		return nil
	}
	n := int64(size)
	for {
		used := l.used.Load()
		if used+n > l.budget {
			return nil
		}
		if l.used.CompareAndSwap(used, used+n) {
			return make([]byte, size)
		}
	}
}

// Free implements Allocator.
func (l *LimitedAllocator) Free(buf []byte) {
	n := int64(cap(buf))
	if n == 0 {
		return
	}
	for {
		used := l.used.Load()
		next := used - n
		if next < 0 {
			next = 0
		}
		if l.used.CompareAndSwap(used, next) {
			return
		}
	}
}

// InUse returns the number of bytes currently allocated.
func (l *LimitedAllocator) InUse() int64 { return l.used.Load() }

// Budget returns the configured budget.
func (l *LimitedAllocator) Budget() int64 { return l.budget }

const (
	minPoolClass = 6  // 64 B
	maxPoolClass = 16 // 64 KiB
)

// PoolAllocator recycles buffers between 64 B and 64 KiB through sync.Pool,
// one pool per power-of-two size class. Larger requests go straight to the
// heap. Released buffers are zeroed before they are pooled.
type PoolAllocator struct {
	pools [maxPoolClass - minPoolClass + 1]sync.Pool
}

// NewPoolAllocator creates an empty pool allocator.
func NewPoolAllocator() *PoolAllocator {
	p := &PoolAllocator{}
	for i := range p.pools {
		size := 1 << (i + minPoolClass)
		p.pools[i].New = func() any {
			b := make([]byte, size)
			return &b
		}
	}
	return p
}

// Name implements Named.
func (p *PoolAllocator) Name() string { return "pool" }

// Alloc implements Allocator.
func (p *PoolAllocator) Alloc(size int) []byte {
	if size < 0 {
		return nil
	}
	class := sizeClass(size)
	if class > maxPoolClass {
		return make([]byte, size)
	}
	bp := p.pools[class-minPoolClass].Get().(*[]byte)
	return (*bp)[:size]
}

// Free implements Allocator. Buffers not obtained from Alloc are ignored.
func (p *PoolAllocator) Free(buf []byte) {
	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	class := bits.TrailingZeros(uint(c))
	if class < minPoolClass || class > maxPoolClass {
		return
	}
	buf = buf[:c]
	clear(buf)
	p.pools[class-minPoolClass].Put(&buf)
}

// sizeClass returns the smallest class whose buffers hold size bytes.
func sizeClass(size int) int {
	if size <= 1<<minPoolClass {
		return minPoolClass
	}
	return bits.Len(uint(size - 1))
}
