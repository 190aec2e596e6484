// platform_backends.go: Built-in resource service backends
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"fmt"
	"io"
	"os"

	"github.com/agilira/go-errors"
)

// ErrCodeBadStream is returned by the std Fprintf binding for a nil writer.
const ErrCodeBadStream = "ATLAS_PLATFORM_BAD_STREAM"

// StdBindings returns bindings backed by the Go runtime, fmt and os.
func StdBindings() PlatformBindings {
	a := StdAllocator{}
	f := StdFormatter{}
	return PlatformBindings{
		Name:     "std",
		Alloc:    a.Alloc,
		Free:     a.Free,
		Snprintf: f.Snprintf,
		Fprintf:  f.Fprintf,
		Printf:   f.Printf,
		Exit:     StdTerminator{}.Exit,
	}
}

// StubBindings returns the uninitialized stubs: allocation always fails,
// release is a no-op, formatters write nothing and return 0, exit returns.
func StubBindings() PlatformBindings {
	return PlatformBindings{
		Name:     "stub",
		Alloc:    func(int) []byte { return nil },
		Free:     func([]byte) {},
		Snprintf: func([]byte, string, ...any) int { return 0 },
		Fprintf:  func(io.Writer, string, ...any) (int, error) { return 0, nil },
		Printf:   func(string, ...any) (int, error) { return 0, nil },
		Exit:     func(int) {},
	}
}

// StdAllocator allocates from the Go heap. Free is a no-op; the garbage
// collector reclaims released buffers.
type StdAllocator struct{}

// Name implements Named.
func (StdAllocator) Name() string { return "std" }

// Alloc implements Allocator. Negative sizes fail.
func (StdAllocator) Alloc(size int) []byte {
	if size < 0 {
		return nil
	}
	return make([]byte, size)
}

// Free implements Allocator.
func (StdAllocator) Free([]byte) {}

// StubAllocator never has memory.
type StubAllocator struct{}

// Name implements Named.
func (StubAllocator) Name() string { return "stub" }

// Alloc implements Allocator.
func (StubAllocator) Alloc(int) []byte { return nil }

// Free implements Allocator.
func (StubAllocator) Free([]byte) {}

// StdFormatter formats with fmt. Printf writes to Console, or os.Stdout when
// Console is nil.
type StdFormatter struct {
	Console io.Writer
}

// Name implements Named.
func (StdFormatter) Name() string { return "std" }

// Snprintf implements Formatter.
func (StdFormatter) Snprintf(buf []byte, format string, args ...any) int {
	s := fmt.Sprintf(format, args...)
	copy(buf, s)
	return len(s)
}

// Fprintf implements Formatter.
func (StdFormatter) Fprintf(w io.Writer, format string, args ...any) (int, error) {
	if w == nil {
		return 0, errors.New(ErrCodeBadStream, "platform: nil output stream")
	}
	return fmt.Fprintf(w, format, args...)
}

// Printf implements Formatter.
func (f StdFormatter) Printf(format string, args ...any) (int, error) {
	if f.Console != nil {
		return fmt.Fprintf(f.Console, format, args...)
	}
	return fmt.Fprintf(os.Stdout, format, args...)
}

// StdTerminator exits through os.Exit.
type StdTerminator struct{}

// Name implements Named.
func (StdTerminator) Name() string { return "std" }

// Exit implements Terminator.
func (StdTerminator) Exit(status int) { os.Exit(status) }

// TerminatorFunc adapts a function to Terminator.
type TerminatorFunc func(status int)

// Exit implements Terminator.
func (f TerminatorFunc) Exit(status int) { f(status) }
