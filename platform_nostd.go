// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

//go:build atlas_nostd

package atlas

// StdEnabled is true when the Go runtime backends are the process-wide
// resource service defaults. Built with atlas_nostd every slot starts on its
// uninitialized stub and must be configured by the embedding application.
const StdEnabled = false

func defaultPlatformBindings() PlatformBindings { return StubBindings() }
