// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

//go:build !atlas_nothreads

package atlas

// ThreadingEnabled is true when the native mutex backend is compiled in as
// the process-wide default.
const ThreadingEnabled = true

func defaultMutexBackend() Mutex { return NativeMutex{} }
