// catalog.go: Named backend catalogue
//
// Backends are registered under a name so that configuration (files,
// environment, flags) can select them without importing their packages.
// Names are case-insensitive. Duplicate names are rejected.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agilira/go-errors"
)

var (
	catalogMu        sync.RWMutex
	mutexBackends    = map[string]Mutex{"native": NativeMutex{}, "failfast": FailFastMutex{}}
	platformBackends = map[string]PlatformBindings{"std": StdBindings(), "stub": StubBindings()}
)

func normalizeBackendName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RegisterMutexBackend makes m selectable by name.
//
// Example:
//
//	func init() {
//	    _ = atlas.RegisterMutexBackend("rtos", rtosMutex{})
//	}
func RegisterMutexBackend(name string, m Mutex) error {
	name = normalizeBackendName(name)
	if name == "" {
		return errors.New(ErrCodeInvalidBinding, "mutex backend name cannot be empty")
	}
	if err := validateMutex(m); err != nil {
		return err
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()

	if _, exists := mutexBackends[name]; exists {
		return errors.New(ErrCodeInvalidBinding,
			fmt.Sprintf("mutex backend '%s' already registered", name))
	}
	mutexBackends[name] = m
	return nil
}

// LookupMutexBackend returns the backend registered under name.
func LookupMutexBackend(name string) (Mutex, error) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	m, ok := mutexBackends[normalizeBackendName(name)]
	if !ok {
		return nil, errors.New(ErrCodeUnknownBackend,
			fmt.Sprintf("no mutex backend registered as '%s'", name))
	}
	return m, nil
}

// MutexBackends returns the registered mutex backend names, sorted.
func MutexBackends() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	return sortedKeys(mutexBackends)
}

// RegisterPlatformBackend makes b selectable by name. Every slot of b must be
// set; b.Name is replaced by name.
func RegisterPlatformBackend(name string, b PlatformBindings) error {
	name = normalizeBackendName(name)
	if name == "" {
		return errors.New(ErrCodeInvalidBinding, "platform backend name cannot be empty")
	}
	if b.Alloc == nil || b.Free == nil || b.Snprintf == nil || b.Fprintf == nil || b.Printf == nil || b.Exit == nil {
		return errors.New(ErrCodeInvalidBinding, "platform backend must bind all six slots")
	}
	b.Name = name

	catalogMu.Lock()
	defer catalogMu.Unlock()

	if _, exists := platformBackends[name]; exists {
		return errors.New(ErrCodeInvalidBinding,
			fmt.Sprintf("platform backend '%s' already registered", name))
	}
	platformBackends[name] = b
	return nil
}

// LookupPlatformBackend returns the bindings registered under name.
func LookupPlatformBackend(name string) (PlatformBindings, error) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()

	b, ok := platformBackends[normalizeBackendName(name)]
	if !ok {
		return PlatformBindings{}, errors.New(ErrCodeUnknownBackend,
			fmt.Sprintf("no platform backend registered as '%s'", name))
	}
	return b, nil
}

// PlatformBackends returns the registered platform backend names, sorted.
func PlatformBackends() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	return sortedKeys(platformBackends)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
