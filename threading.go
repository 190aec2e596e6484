// threading.go: Mutex services registry for Atlas
//
// The registry holds the active mutex backend and forwards the four mutex
// operations to it. Call sites never know which backend is bound.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"sync/atomic"

	"github.com/agilira/go-errors"
)

// MutexHandle is an opaque lock instance. Its state belongs to the backend
// that initialized it; the registry only passes the pointer through.
//
// A MutexHandle is usually embedded by value in the object it protects.
// Its lifetime is bounded by explicit Init and Destroy calls; the zero value
// is a handle that was never initialized.
type MutexHandle struct {
	state any
}

// State returns the backend-defined state stored in the handle.
func (h *MutexHandle) State() any { return h.state }

// SetState stores backend-defined state in the handle. Only backends should
// call it, from their Init and Destroy implementations.
func (h *MutexHandle) SetState(v any) { h.state = v }

// Mutex is the capability implemented by a mutex backend.
//
// Every method returns nil on success, an error carrying ErrCodeBadInput when
// the handle is nil, and an error carrying ErrCodeMutexError when the
// underlying primitive fails. Ordering and fairness are whatever the backend
// provides.
type Mutex interface {
	Init(h *MutexHandle) error
	Destroy(h *MutexHandle) error
	Lock(h *MutexHandle) error
	Unlock(h *MutexHandle) error
}

// MutexFunc is a single mutex operation supplied by an embedding application.
type MutexFunc func(h *MutexHandle) error

// MutexFuncs adapts four caller-supplied functions to the Mutex interface.
type MutexFuncs struct {
	InitFunc    MutexFunc
	DestroyFunc MutexFunc
	LockFunc    MutexFunc
	UnlockFunc  MutexFunc
}

// Init implements Mutex.
func (f MutexFuncs) Init(h *MutexHandle) error { return f.InitFunc(h) }

// Destroy implements Mutex.
func (f MutexFuncs) Destroy(h *MutexHandle) error { return f.DestroyFunc(h) }

// Lock implements Mutex.
func (f MutexFuncs) Lock(h *MutexHandle) error { return f.LockFunc(h) }

// Unlock implements Mutex.
func (f MutexFuncs) Unlock(h *MutexHandle) error { return f.UnlockFunc(h) }

func (f MutexFuncs) complete() bool {
	return f.InitFunc != nil && f.DestroyFunc != nil && f.LockFunc != nil && f.UnlockFunc != nil
}

// validateMutex rejects backends that would dereference nil on the first
// call: a nil interface, a nil *MutexFuncs, or MutexFuncs with a missing
// function.
func validateMutex(m Mutex) error {
	switch f := m.(type) {
	case nil:
		return errors.New(ErrCodeInvalidBinding, "threading: mutex backend cannot be nil")
	case MutexFuncs:
		if !f.complete() {
			return errors.New(ErrCodeInvalidBinding, "threading: all four mutex functions are required")
		}
	case *MutexFuncs:
		if f == nil || !f.complete() {
			return errors.New(ErrCodeInvalidBinding, "threading: all four mutex functions are required")
		}
	}
	return nil
}

// Threading is the mutex services registry.
//
// Configure it (SetAlt, SetMutex) before any goroutine starts using it: the
// backend swap is a plain assignment and is not synchronized with concurrent
// calls. After configuration the registry is read-only and safe to share, as
// long as the bound backend is itself safe for concurrent use.
type Threading struct {
	backend Mutex
	name    string
	sealed  atomic.Bool
	audit   *AuditLogger
}

// NewThreading creates a registry bound to backend.
// A nil or incomplete backend binds the fail-fast stub.
func NewThreading(backend Mutex) *Threading {
	if validateMutex(backend) != nil {
		backend = FailFastMutex{}
	}
	return &Threading{backend: backend, name: backendName(backend)}
}

// WithAudit records every successful reconfiguration of t in al.
func (t *Threading) WithAudit(al *AuditLogger) *Threading {
	t.audit = al
	return t
}

// Init brings h into a valid, unlocked state.
func (t *Threading) Init(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	return t.backend.Init(h)
}

// Destroy releases the backend resources held by h.
func (t *Threading) Destroy(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	return t.backend.Destroy(h)
}

// Lock blocks until the calling goroutine holds h.
func (t *Threading) Lock(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	return t.backend.Lock(h)
}

// Unlock releases h.
func (t *Threading) Unlock(h *MutexHandle) error {
	if h == nil {
		return ErrBadInput
	}
	return t.backend.Unlock(h)
}

// SetAlt replaces all four bindings with the supplied functions in a single
// assignment. Every function must be non-nil.
func (t *Threading) SetAlt(init, destroy, lock, unlock MutexFunc) error {
	f := MutexFuncs{InitFunc: init, DestroyFunc: destroy, LockFunc: lock, UnlockFunc: unlock}
	return t.swap(f, "alt")
}

// SetMutex replaces the active backend with m.
func (t *Threading) SetMutex(m Mutex) error {
	return t.swap(m, backendName(m))
}

func (t *Threading) swap(m Mutex, name string) error {
	if err := validateMutex(m); err != nil {
		return err
	}
	if t.sealed.Load() {
		return errors.New(ErrCodeRegistrySealed, "threading: registry is sealed")
	}
	old := t.name
	t.backend = m
	t.name = name
	t.audit.LogBindingChange("threading", "mutex", old, name)
	return nil
}

// Backend returns the active backend.
func (t *Threading) Backend() Mutex { return t.backend }

// BackendName returns the name of the active backend ("native", "failfast",
// "alt", or the name reported by a custom backend).
func (t *Threading) BackendName() string { return t.name }

// Seal makes the registry read-only. It returns true if this call sealed it.
func (t *Threading) Seal() bool {
	if t.sealed.Swap(true) {
		return false
	}
	t.audit.LogSeal("threading")
	return true
}

// Sealed reports whether the registry is sealed.
func (t *Threading) Sealed() bool { return t.sealed.Load() }

// Named is implemented by backends that report a name for diagnostics.
type Named interface {
	Name() string
}

func backendName(v any) string {
	if n, ok := v.(Named); ok {
		return n.Name()
	}
	switch v.(type) {
	case MutexFuncs, *MutexFuncs:
		return "alt"
	}
	return "custom"
}

var defaultThreading = NewThreading(defaultMutexBackend())

// DefaultThreading returns the process-wide mutex registry.
func DefaultThreading() *Threading { return defaultThreading }

// MutexInit initializes h with the process-wide backend.
func MutexInit(h *MutexHandle) error { return defaultThreading.Init(h) }

// MutexDestroy destroys h with the process-wide backend.
func MutexDestroy(h *MutexHandle) error { return defaultThreading.Destroy(h) }

// MutexLock locks h with the process-wide backend.
func MutexLock(h *MutexHandle) error { return defaultThreading.Lock(h) }

// MutexUnlock unlocks h with the process-wide backend.
func MutexUnlock(h *MutexHandle) error { return defaultThreading.Unlock(h) }

// SetThreadingAlt replaces the process-wide mutex bindings. It must run
// before any goroutine uses the Mutex* functions.
func SetThreadingAlt(init, destroy, lock, unlock MutexFunc) error {
	return defaultThreading.SetAlt(init, destroy, lock, unlock)
}

// SetMutexBackend replaces the process-wide mutex backend.
func SetMutexBackend(m Mutex) error { return defaultThreading.SetMutex(m) }
