// catalog_test.go: Tests for the named backend catalogue
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"slices"
	"testing"
)

func TestCatalog_BuiltinBackends(t *testing.T) {
	for _, name := range []string{"native", "failfast"} {
		if !slices.Contains(MutexBackends(), name) {
			t.Errorf("mutex backend %q not registered", name)
		}
	}
	for _, name := range []string{"std", "stub"} {
		if !slices.Contains(PlatformBackends(), name) {
			t.Errorf("platform backend %q not registered", name)
		}
	}
	if !slices.IsSorted(MutexBackends()) || !slices.IsSorted(PlatformBackends()) {
		t.Error("backend names should be sorted")
	}
}

func TestCatalog_LookupIsCaseInsensitive(t *testing.T) {
	m, err := LookupMutexBackend("  NATIVE ")
	if err != nil {
		t.Fatalf("LookupMutexBackend failed: %v", err)
	}
	if backendName(m) != "native" {
		t.Errorf("looked up %q", backendName(m))
	}

	b, err := LookupPlatformBackend("Stub")
	if err != nil || b.Name != "stub" {
		t.Errorf("LookupPlatformBackend = %q, %v", b.Name, err)
	}

	if _, err := LookupMutexBackend("pthread"); !HasCode(err, ErrCodeUnknownBackend) {
		t.Errorf("unknown mutex backend = %v", err)
	}
	if _, err := LookupPlatformBackend("newlib"); !HasCode(err, ErrCodeUnknownBackend) {
		t.Errorf("unknown platform backend = %v", err)
	}
}

func TestCatalog_Register(t *testing.T) {
	counting := NewCountingMutex(NativeMutex{})
	if err := RegisterMutexBackend("Catalog-Test-Counting", counting); err != nil {
		t.Fatalf("RegisterMutexBackend failed: %v", err)
	}
	if err := RegisterMutexBackend("catalog-test-counting", NativeMutex{}); !HasCode(err, ErrCodeInvalidBinding) {
		t.Errorf("duplicate registration = %v, want invalid binding", err)
	}
	if err := RegisterMutexBackend("", NativeMutex{}); !HasCode(err, ErrCodeInvalidBinding) {
		t.Errorf("empty name = %v", err)
	}
	if err := RegisterMutexBackend("catalog-test-nil", nil); !HasCode(err, ErrCodeInvalidBinding) {
		t.Errorf("nil backend = %v", err)
	}

	m, err := LookupMutexBackend("catalog-test-counting")
	if err != nil || m != Mutex(counting) {
		t.Errorf("lookup after registration = %v, %v", m, err)
	}

	b := StdBindings()
	if err := RegisterPlatformBackend("catalog-test-std", b); err != nil {
		t.Fatalf("RegisterPlatformBackend failed: %v", err)
	}
	got, _ := LookupPlatformBackend("catalog-test-std")
	if got.Name != "catalog-test-std" {
		t.Errorf("registered bindings named %q", got.Name)
	}

	b.Exit = nil
	if err := RegisterPlatformBackend("catalog-test-partial", b); !HasCode(err, ErrCodeInvalidBinding) {
		t.Errorf("partial bindings = %v, want invalid binding", err)
	}
}
