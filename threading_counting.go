// threading_counting.go: Call-counting mutex decorator
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import "sync/atomic"

// MutexStats is a snapshot of CountingMutex counters.
type MutexStats struct {
	Inits    int64 `json:"inits"`
	Destroys int64 `json:"destroys"`
	Locks    int64 `json:"locks"`
	Unlocks  int64 `json:"unlocks"`
	Failures int64 `json:"failures"`
}

// CountingMutex wraps another backend and counts calls per operation.
// It adds no locking of its own; counters are atomics.
type CountingMutex struct {
	next Mutex

	inits    atomic.Int64
	destroys atomic.Int64
	locks    atomic.Int64
	unlocks  atomic.Int64
	failures atomic.Int64
}

// NewCountingMutex wraps next. A nil next wraps the fail-fast stub.
func NewCountingMutex(next Mutex) *CountingMutex {
	if next == nil {
		next = FailFastMutex{}
	}
	return &CountingMutex{next: next}
}

// Name implements Named.
func (c *CountingMutex) Name() string { return "counting(" + backendName(c.next) + ")" }

// Init implements Mutex.
func (c *CountingMutex) Init(h *MutexHandle) error {
	c.inits.Add(1)
	return c.track(c.next.Init(h))
}

// Destroy implements Mutex.
func (c *CountingMutex) Destroy(h *MutexHandle) error {
	c.destroys.Add(1)
	return c.track(c.next.Destroy(h))
}

// Lock implements Mutex.
func (c *CountingMutex) Lock(h *MutexHandle) error {
	c.locks.Add(1)
	return c.track(c.next.Lock(h))
}

// Unlock implements Mutex.
func (c *CountingMutex) Unlock(h *MutexHandle) error {
	c.unlocks.Add(1)
	return c.track(c.next.Unlock(h))
}

func (c *CountingMutex) track(err error) error {
	if err != nil {
		c.failures.Add(1)
	}
	return err
}

// Stats returns the current counters.
func (c *CountingMutex) Stats() MutexStats {
	return MutexStats{
		Inits:    c.inits.Load(),
		Destroys: c.destroys.Load(),
		Locks:    c.locks.Load(),
		Unlocks:  c.unlocks.Load(),
		Failures: c.failures.Load(),
	}
}
