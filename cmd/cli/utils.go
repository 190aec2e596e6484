// Utility functions for the Atlas CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/atlas"
	"github.com/agilira/go-errors"
)

var platformSlots = []string{
	atlas.SlotAlloc, atlas.SlotFree,
	atlas.SlotSnprintf, atlas.SlotFprintf, atlas.SlotPrintf,
	atlas.SlotExit,
}

// selftestBufferSize is the size of the buffer each worker allocates per iteration.
const selftestBufferSize = 64

// printf writes command output through the platform registry.
func (m *Manager) printf(format string, args ...any) {
	_, _ = m.platform.Fprintf(m.out, format, args...)
}

func (m *Manager) printConfig(cfg atlas.Config) {
	m.printf("  mutex_backend:    %s\n", cfg.MutexBackend)
	m.printf("  platform_backend: %s\n", cfg.PlatformBackend)
	m.printf("  seal:             %v\n", cfg.Seal)
	m.printf("  audit.enabled:    %v\n", cfg.Audit.Enabled)
	if cfg.Audit.Enabled {
		m.printf("  audit.output:     %s\n", cfg.Audit.OutputFile)
		m.printf("  audit.min_level:  %s\n", cfg.Audit.MinLevel)
		m.printf("  audit.buffer:     %d\n", cfg.Audit.BufferSize)
		m.printf("  audit.flush:      %v\n", cfg.Audit.FlushInterval)
	}
}

func (m *Manager) printStats(stats *atlas.AuditStats) {
	m.printf("Backend: %s (schema v%d)\n", stats.Backend, stats.SchemaVersion)
	m.printf("Total events: %d\n", stats.TotalEvents)
	m.printf("Storage size: %d bytes\n", stats.StorageSize)
	if stats.OldestEvent != nil && stats.NewestEvent != nil {
		m.printf("Range: %s .. %s\n",
			stats.OldestEvent.Format(time.RFC3339), stats.NewestEvent.Format(time.RFC3339))
	}
	for _, k := range sortedKeys(stats.EventsByLevel) {
		m.printf("  level %-9s %d\n", k, stats.EventsByLevel[k])
	}
	for _, k := range sortedKeys(stats.EventsByRegistry) {
		m.printf("  registry %-9s %d\n", k, stats.EventsByRegistry[k])
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// newAllocator builds the allocator named by the selftest --allocator flag.
// The limited allocator gets exactly one buffer per goroutine.
func newAllocator(name string, goroutines int) (atlas.Allocator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "std":
		return atlas.StdAllocator{}, nil
	case "pool":
		return atlas.NewPoolAllocator(), nil
	case "limited":
		return atlas.NewLimitedAllocator(int64(goroutines * selftestBufferSize)), nil
	default:
		return nil, errors.New(atlas.ErrCodeUnknownBackend, "unknown allocator '"+name+"'")
	}
}

type selftestResult struct {
	Counter       int64
	Expected      int64
	AllocFailures int64
	Duration      time.Duration
}

// runSelftest increments a shared counter goroutines*iterations times under a
// single handle, allocating and formatting a scratch buffer on every
// iteration. It returns the first mutex error any worker observed.
func runSelftest(t *atlas.Threading, p *atlas.Platform, goroutines, iterations int) (selftestResult, error) {
	res := selftestResult{Expected: int64(goroutines) * int64(iterations)}

	var h atlas.MutexHandle
	if err := t.Init(&h); err != nil {
		return res, err
	}

	var (
		wg            sync.WaitGroup
		allocFailures atomic.Int64
		errCh         = make(chan error, goroutines)
	)

	start := time.Now()
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				buf := p.Alloc(selftestBufferSize)
				if buf == nil {
					allocFailures.Add(1)
				} else {
					p.Snprintf(buf, "worker %d iteration %d", id, i)
					p.Free(buf)
				}

				if err := t.Lock(&h); err != nil {
					errCh <- err
					return
				}
				res.Counter++
				if err := t.Unlock(&h); err != nil {
					errCh <- err
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errCh)

	res.Duration = time.Since(start)
	res.AllocFailures = allocFailures.Load()

	destroyErr := t.Destroy(&h)
	if err := <-errCh; err != nil {
		return res, err
	}
	return res, destroyErr
}
