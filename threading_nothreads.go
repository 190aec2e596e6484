// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

//go:build atlas_nothreads

package atlas

// ThreadingEnabled is true when the native mutex backend is compiled in as
// the process-wide default. Built with atlas_nothreads, the fail-fast stub is
// bound until SetThreadingAlt or SetMutexBackend supplies an implementation.
const ThreadingEnabled = false

func defaultMutexBackend() Mutex { return FailFastMutex{} }
