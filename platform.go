// platform.go: Resource services registry for Atlas
//
// Six independent bindings (allocate, release, three formatters and
// terminate) that library code calls instead of the Go runtime, fmt or os
// directly. Each binding is replaced on its own.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"io"
	"sync/atomic"

	"github.com/agilira/go-errors"
)

// AllocFunc allocates size bytes. A nil result means no memory.
type AllocFunc func(size int) []byte

// FreeFunc releases a buffer obtained from the matching AllocFunc.
// It must accept nil.
type FreeFunc func(buf []byte)

// SnprintfFunc formats into buf, writing at most len(buf) bytes, and returns
// the length of the complete formatted output.
type SnprintfFunc func(buf []byte, format string, args ...any) int

// FprintfFunc formats to an arbitrary stream.
type FprintfFunc func(w io.Writer, format string, args ...any) (int, error)

// PrintfFunc formats to the default console.
type PrintfFunc func(format string, args ...any) (int, error)

// ExitFunc terminates the process with status.
type ExitFunc func(status int)

// Allocator groups allocate and release, which are usually replaced together.
type Allocator interface {
	Alloc(size int) []byte
	Free(buf []byte)
}

// Formatter groups the three formatted output operations.
type Formatter interface {
	Snprintf(buf []byte, format string, args ...any) int
	Fprintf(w io.Writer, format string, args ...any) (int, error)
	Printf(format string, args ...any) (int, error)
}

// Terminator terminates the process.
type Terminator interface {
	Exit(status int)
}

// PlatformBindings is a complete set of resource service bindings.
type PlatformBindings struct {
	Name     string
	Alloc    AllocFunc
	Free     FreeFunc
	Snprintf SnprintfFunc
	Fprintf  FprintfFunc
	Printf   PrintfFunc
	Exit     ExitFunc
}

// Slot names, as reported by Platform.SlotNames and the audit trail.
const (
	SlotAlloc    = "alloc"
	SlotFree     = "free"
	SlotSnprintf = "snprintf"
	SlotFprintf  = "fprintf"
	SlotPrintf   = "printf"
	SlotExit     = "exit"
)

// Platform is the resource services registry.
//
// Like Threading, it must be configured before concurrent use; the setters
// are plain assignments. Calls through an unconfigured slot never
// dereference nil: a slot left nil falls back to the uninitialized stub.
type Platform struct {
	b      PlatformBindings
	names  map[string]string
	sealed atomic.Bool
	audit  *AuditLogger
}

// NewPlatform creates a registry bound to b. Nil slots in b are bound to the
// uninitialized stubs.
func NewPlatform(b PlatformBindings) *Platform {
	p := &Platform{names: make(map[string]string, 6)}
	p.bindAll(fillStubs(b))
	return p
}

// WithAudit records every successful reconfiguration of p in al.
func (p *Platform) WithAudit(al *AuditLogger) *Platform {
	p.audit = al
	return p
}

func fillStubs(b PlatformBindings) PlatformBindings {
	stub := StubBindings()
	if b.Name == "" {
		b.Name = "custom"
	}
	if b.Alloc == nil {
		b.Alloc = stub.Alloc
	}
	if b.Free == nil {
		b.Free = stub.Free
	}
	if b.Snprintf == nil {
		b.Snprintf = stub.Snprintf
	}
	if b.Fprintf == nil {
		b.Fprintf = stub.Fprintf
	}
	if b.Printf == nil {
		b.Printf = stub.Printf
	}
	if b.Exit == nil {
		b.Exit = stub.Exit
	}
	return b
}

func (p *Platform) bindAll(b PlatformBindings) {
	p.b = b
	for _, slot := range []string{SlotAlloc, SlotFree, SlotSnprintf, SlotFprintf, SlotPrintf, SlotExit} {
		p.names[slot] = b.Name
	}
}

// Alloc allocates size bytes through the bound allocator.
func (p *Platform) Alloc(size int) []byte { return p.b.Alloc(size) }

// Free releases buf through the bound allocator.
func (p *Platform) Free(buf []byte) { p.b.Free(buf) }

// Snprintf formats into buf through the bound formatter.
func (p *Platform) Snprintf(buf []byte, format string, args ...any) int {
	return p.b.Snprintf(buf, format, args...)
}

// Fprintf formats to w through the bound formatter.
func (p *Platform) Fprintf(w io.Writer, format string, args ...any) (int, error) {
	return p.b.Fprintf(w, format, args...)
}

// Printf formats to the console through the bound formatter.
func (p *Platform) Printf(format string, args ...any) (int, error) {
	return p.b.Printf(format, args...)
}

// Exit terminates through the bound terminator.
func (p *Platform) Exit(status int) { p.b.Exit(status) }

// SetAlloc replaces the allocate binding only.
func (p *Platform) SetAlloc(fn AllocFunc) error {
	if fn == nil {
		return nilBinding(SlotAlloc)
	}
	return p.set(SlotAlloc, "custom", func() { p.b.Alloc = fn })
}

// SetFree replaces the release binding only.
func (p *Platform) SetFree(fn FreeFunc) error {
	if fn == nil {
		return nilBinding(SlotFree)
	}
	return p.set(SlotFree, "custom", func() { p.b.Free = fn })
}

// SetSnprintf replaces the format-to-buffer binding only.
func (p *Platform) SetSnprintf(fn SnprintfFunc) error {
	if fn == nil {
		return nilBinding(SlotSnprintf)
	}
	return p.set(SlotSnprintf, "custom", func() { p.b.Snprintf = fn })
}

// SetFprintf replaces the format-to-stream binding only.
func (p *Platform) SetFprintf(fn FprintfFunc) error {
	if fn == nil {
		return nilBinding(SlotFprintf)
	}
	return p.set(SlotFprintf, "custom", func() { p.b.Fprintf = fn })
}

// SetPrintf replaces the format-to-console binding only.
func (p *Platform) SetPrintf(fn PrintfFunc) error {
	if fn == nil {
		return nilBinding(SlotPrintf)
	}
	return p.set(SlotPrintf, "custom", func() { p.b.Printf = fn })
}

// SetExit replaces the terminate binding only.
func (p *Platform) SetExit(fn ExitFunc) error {
	if fn == nil {
		return nilBinding(SlotExit)
	}
	return p.set(SlotExit, "custom", func() { p.b.Exit = fn })
}

// SetAllocator binds both allocate and release to a.
func (p *Platform) SetAllocator(a Allocator) error {
	if a == nil {
		return nilBinding("allocator")
	}
	name := backendName(a)
	if err := p.set(SlotAlloc, name, func() { p.b.Alloc = a.Alloc }); err != nil {
		return err
	}
	return p.set(SlotFree, name, func() { p.b.Free = a.Free })
}

// SetFormatter binds the three formatters to f.
func (p *Platform) SetFormatter(f Formatter) error {
	if f == nil {
		return nilBinding("formatter")
	}
	name := backendName(f)
	if err := p.set(SlotSnprintf, name, func() { p.b.Snprintf = f.Snprintf }); err != nil {
		return err
	}
	if err := p.set(SlotFprintf, name, func() { p.b.Fprintf = f.Fprintf }); err != nil {
		return err
	}
	return p.set(SlotPrintf, name, func() { p.b.Printf = f.Printf })
}

// SetTerminator binds terminate to t.
func (p *Platform) SetTerminator(t Terminator) error {
	if t == nil {
		return nilBinding("terminator")
	}
	return p.set(SlotExit, backendName(t), func() { p.b.Exit = t.Exit })
}

// SetBindings replaces every slot at once. All six functions are required.
func (p *Platform) SetBindings(b PlatformBindings) error {
	if b.Alloc == nil || b.Free == nil || b.Snprintf == nil || b.Fprintf == nil || b.Printf == nil || b.Exit == nil {
		return errors.New(ErrCodeInvalidBinding, "platform: all six bindings are required")
	}
	if p.sealed.Load() {
		return errSealed("platform")
	}
	if b.Name == "" {
		b.Name = "custom"
	}
	old := p.names[SlotAlloc]
	p.bindAll(b)
	p.audit.LogBindingChange("platform", "all", old, b.Name)
	return nil
}

func (p *Platform) set(slot, name string, assign func()) error {
	if p.sealed.Load() {
		return errSealed("platform")
	}
	old := p.names[slot]
	assign()
	p.names[slot] = name
	p.audit.LogBindingChange("platform", slot, old, name)
	return nil
}

// SlotNames returns the backend name bound to each slot.
func (p *Platform) SlotNames() map[string]string {
	out := make(map[string]string, len(p.names))
	for k, v := range p.names {
		out[k] = v
	}
	return out
}

// Seal makes the registry read-only. It returns true if this call sealed it.
func (p *Platform) Seal() bool {
	if p.sealed.Swap(true) {
		return false
	}
	p.audit.LogSeal("platform")
	return true
}

// Sealed reports whether the registry is sealed.
func (p *Platform) Sealed() bool { return p.sealed.Load() }

func nilBinding(slot string) error {
	return errors.New(ErrCodeInvalidBinding, "platform: "+slot+" binding cannot be nil")
}

func errSealed(registry string) error {
	return errors.New(ErrCodeRegistrySealed, registry+": registry is sealed")
}

var defaultPlatform = NewPlatform(defaultPlatformBindings())

// DefaultPlatform returns the process-wide resource services registry.
func DefaultPlatform() *Platform { return defaultPlatform }

// Alloc allocates through the process-wide registry.
func Alloc(size int) []byte { return defaultPlatform.Alloc(size) }

// Free releases through the process-wide registry.
func Free(buf []byte) { defaultPlatform.Free(buf) }

// Snprintf formats into buf through the process-wide registry.
func Snprintf(buf []byte, format string, args ...any) int {
	return defaultPlatform.Snprintf(buf, format, args...)
}

// Fprintf formats to w through the process-wide registry.
func Fprintf(w io.Writer, format string, args ...any) (int, error) {
	return defaultPlatform.Fprintf(w, format, args...)
}

// Printf formats to the console through the process-wide registry.
func Printf(format string, args ...any) (int, error) {
	return defaultPlatform.Printf(format, args...)
}

// Exit terminates through the process-wide registry.
func Exit(status int) { defaultPlatform.Exit(status) }

// SetAlloc replaces the process-wide allocate binding.
func SetAlloc(fn AllocFunc) error { return defaultPlatform.SetAlloc(fn) }

// SetFree replaces the process-wide release binding.
func SetFree(fn FreeFunc) error { return defaultPlatform.SetFree(fn) }

// SetSnprintf replaces the process-wide format-to-buffer binding.
func SetSnprintf(fn SnprintfFunc) error { return defaultPlatform.SetSnprintf(fn) }

// SetFprintf replaces the process-wide format-to-stream binding.
func SetFprintf(fn FprintfFunc) error { return defaultPlatform.SetFprintf(fn) }

// SetPrintf replaces the process-wide format-to-console binding.
func SetPrintf(fn PrintfFunc) error { return defaultPlatform.SetPrintf(fn) }

// SetExit replaces the process-wide terminate binding.
func SetExit(fn ExitFunc) error { return defaultPlatform.SetExit(fn) }
