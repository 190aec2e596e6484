// threading_native.go: Native and fail-fast mutex backends
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"sync"
	"sync/atomic"
)

// nativeState is the handle state owned by NativeMutex.
type nativeState struct {
	mu     sync.Mutex
	locked atomic.Bool
}

// NativeMutex forwards each operation to a sync.Mutex stored in the handle.
//
// sync.Mutex cannot report errors and aborts the process on misuse, so the
// conditions it would die on are reported as ErrMutex instead: using a handle
// this backend did not initialize, unlocking an unlocked mutex and destroying
// a locked one. Lock ordering and fairness are those of sync.Mutex.
type NativeMutex struct{}

// Name implements Named.
func (NativeMutex) Name() string { return "native" }

// Init implements Mutex. Initializing a live, unlocked handle resets it.
func (NativeMutex) Init(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	if s, ok := h.state.(*nativeState); ok && s.locked.Load() {
		return ErrMutex
	}
	h.state = &nativeState{}
	return nil
}

// Destroy implements Mutex.
func (NativeMutex) Destroy(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	s, ok := h.state.(*nativeState)
	if !ok || s.locked.Load() {
		return ErrMutex
	}
	h.state = nil
	return nil
}

// Lock implements Mutex.
func (NativeMutex) Lock(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	s, ok := h.state.(*nativeState)
	if !ok {
		return ErrMutex
	}
	s.mu.Lock()
	s.locked.Store(true)
	return nil
}

// Unlock implements Mutex.
func (NativeMutex) Unlock(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	s, ok := h.state.(*nativeState)
	if !ok {
		return ErrMutex
	}
	// locked is only ever true while mu is held, so winning the swap
	// grants the right to release mu exactly once.
	if !s.locked.CompareAndSwap(true, false) {
		return ErrMutex
	}
	s.mu.Unlock()
	return nil
}

// FailFastMutex is bound when no mutex implementation exists. Every
// operation reports ErrBadInput.
type FailFastMutex struct{}

// Name implements Named.
func (FailFastMutex) Name() string { return "failfast" }

// Init implements Mutex.
func (FailFastMutex) Init(*MutexHandle) error { return ErrBadInput }

// Destroy implements Mutex.
func (FailFastMutex) Destroy(*MutexHandle) error { return ErrBadInput }

// Lock implements Mutex.
func (FailFastMutex) Lock(*MutexHandle) error { return ErrBadInput }

// Unlock implements Mutex.
func (FailFastMutex) Unlock(*MutexHandle) error { return ErrBadInput }
