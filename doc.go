// Package atlas provides pluggable runtime services for library code: a mutex
// services registry and a resource services registry.
//
// Library code calls atlas instead of sync, fmt, os or the allocator
// directly. An embedding application decides at startup which concrete
// implementation backs each call, without the library being rebuilt.
//
// # Mutex Services
//
// A MutexHandle is an opaque lock instance, usually embedded by value in the
// object it protects. Its lifetime is bounded by explicit calls:
//
//	type session struct {
//		mu    atlas.MutexHandle
//		count int
//	}
//
//	s := &session{}
//	if err := atlas.MutexInit(&s.mu); err != nil {
//		return err
//	}
//	defer atlas.MutexDestroy(&s.mu)
//
//	if err := atlas.MutexLock(&s.mu); err != nil {
//		return err
//	}
//	s.count++
//	if err := atlas.MutexUnlock(&s.mu); err != nil {
//		return err
//	}
//
// Every operation returns an error carrying ErrCodeBadInput for a nil handle,
// or ErrCodeMutexError when the underlying primitive fails.
//
// The default backend is NativeMutex, built on sync.Mutex. Builds tagged
// atlas_nothreads bind FailFastMutex instead, and every mutex operation then
// fails with ErrCodeBadInput until the application installs an implementation:
//
//	err := atlas.SetThreadingAlt(myInit, myDestroy, myLock, myUnlock)
//
// # Resource Services
//
// Six independent bindings cover allocation, release, formatting into a
// buffer, formatting to a stream, formatting to the console and process
// termination:
//
//	buf := atlas.Alloc(128)
//	defer atlas.Free(buf)
//	n := atlas.Snprintf(buf, "session %d", id)
//
// Each binding is replaced on its own (SetAlloc, SetPrintf, ...) or in
// groups (Platform.SetAllocator, Platform.SetFormatter). Builds tagged
// atlas_nostd start with the inert stubs: Alloc returns nil, the formatters
// produce nothing and Exit returns.
//
// # Configuration
//
// Both registries are configured before the first concurrent use; the
// setters are plain assignments. Apply selects backends by catalogue name
// from a Config assembled from flags, ATLAS_* environment variables and a
// YAML, TOML or JSON file:
//
//	cfg, err := atlas.LoadConfigMultiSource("atlas.yaml")
//	if err != nil {
//		return err
//	}
//	audit, err := atlas.Apply(cfg)
//	if err != nil {
//		return err
//	}
//	defer audit.Close()
//
// Sealing a registry (Config.Seal or Threading.Seal) rejects every later
// setter with ErrCodeRegistrySealed.
//
// # Audit Trail
//
// With auditing enabled every binding change and seal is recorded in SQLite
// (or JSONL when the output file ends in .jsonl), each event carrying a
// SHA-256 checksum. The mutex and resource call paths never touch the audit
// logger.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package atlas
