// audit_test.go: Tests for the reconfiguration audit trail
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestAuditLogger(t *testing.T, file string, minLevel AuditLevel) *AuditLogger {
	t.Helper()
	al, err := NewAuditLogger(AuditConfig{
		Enabled:    true,
		OutputFile: filepath.Join(t.TempDir(), file),
		MinLevel:   minLevel,
		BufferSize: 100,
	})
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	t.Cleanup(func() { _ = al.Close() })
	return al
}

func readJSONLEvents(t *testing.T, path string) []AuditEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open audit file: %v", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("Invalid audit line %q: %v", scanner.Text(), err)
		}
		events = append(events, e)
	}
	return events
}

func TestAuditLogger_RegistryChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	al, err := NewAuditLogger(AuditConfig{Enabled: true, OutputFile: path, BufferSize: 100})
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}

	threading := NewThreading(NativeMutex{}).WithAudit(al)
	platform := NewPlatform(StdBindings()).WithAudit(al)

	if err := threading.SetMutex(NewCountingMutex(NativeMutex{})); err != nil {
		t.Fatalf("SetMutex failed: %v", err)
	}
	if err := platform.SetAllocator(NewPoolAllocator()); err != nil {
		t.Fatalf("SetAllocator failed: %v", err)
	}
	threading.Seal()

	// Rejected and forwarding calls leave no trace.
	_ = threading.SetMutex(FailFastMutex{})
	_ = platform.SetPrintf(nil)
	var h MutexHandle
	_ = threading.Init(&h)
	_ = platform.Alloc(8)

	if err := al.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := readJSONLEvents(t, path)
	want := []struct {
		event, registry, slot, oldBackend, newBackend string
	}{
		{"binding_change", "threading", "mutex", "native", "counting(native)"},
		{"binding_change", "platform", SlotAlloc, "std", "pool"},
		{"binding_change", "platform", SlotFree, "std", "pool"},
		{"registry_sealed", "threading", "", "", ""},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		e := events[i]
		if e.Event != w.event || e.Registry != w.registry || e.Slot != w.slot ||
			e.OldBackend != w.oldBackend || e.NewBackend != w.newBackend {
			t.Errorf("event %d = %+v, want %+v", i, e, w)
		}
		if !VerifyChecksum(e) {
			t.Errorf("event %d failed checksum verification", i)
		}
		if e.ProcessID != os.Getpid() {
			t.Errorf("event %d process id = %d", i, e.ProcessID)
		}
	}
}

func TestAuditLogger_SecurityLevelForDisablingBackends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "security.jsonl")
	al, err := NewAuditLogger(AuditConfig{Enabled: true, OutputFile: path, MinLevel: AuditSecurity})
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}

	threading := NewThreading(NativeMutex{}).WithAudit(al)
	platform := NewPlatform(StdBindings()).WithAudit(al)

	_ = threading.SetMutex(NewCountingMutex(NativeMutex{})) // critical, filtered
	_ = threading.SetMutex(FailFastMutex{})                 // security
	_ = platform.SetBindings(StubBindings())                // security

	if err := al.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events := readJSONLEvents(t, path)
	if len(events) != 2 {
		t.Fatalf("got %d events above the security threshold, want 2", len(events))
	}
	for _, e := range events {
		if e.Level != AuditSecurity {
			t.Errorf("event %+v logged below security level", e)
		}
	}
	if events[1].Slot != "all" || events[1].NewBackend != "stub" {
		t.Errorf("SetBindings event = %+v", events[1])
	}
}

func TestAuditLogger_TamperDetection(t *testing.T) {
	e := AuditEvent{
		Timestamp:  time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC),
		Level:      AuditCritical,
		Event:      "binding_change",
		Registry:   "platform",
		Slot:       SlotExit,
		OldBackend: "std",
		NewBackend: "custom",
	}
	e.Checksum = checksum(e)

	if !VerifyChecksum(e) {
		t.Fatal("untouched event should verify")
	}

	// The same instant in another zone still verifies.
	moved := e
	moved.Timestamp = e.Timestamp.In(time.FixedZone("CET", 3600))
	if !VerifyChecksum(moved) {
		t.Error("checksum should not depend on the time zone")
	}

	tampered := e
	tampered.NewBackend = "stub"
	if VerifyChecksum(tampered) {
		t.Error("tampered event should fail verification")
	}
}

func TestAuditLogger_NilIsSafe(t *testing.T) {
	var al *AuditLogger

	al.Log(AuditSecurity, "x", "y", "", "", "", nil)
	al.LogBindingChange("threading", "mutex", "a", "b")
	al.LogSeal("platform")
	al.LogConfigApplied("test", nil)
	if err := al.Flush(); err != nil {
		t.Errorf("Flush on nil logger = %v", err)
	}
	if err := al.Close(); err != nil {
		t.Errorf("Close on nil logger = %v", err)
	}
	if _, err := al.Stats(); !HasCode(err, ErrCodeAuditError) {
		t.Errorf("Stats on nil logger = %v", err)
	}
}

func TestAuditLogger_CloseIsIdempotent(t *testing.T) {
	al := newTestAuditLogger(t, "close.db", AuditInfo)
	if err := al.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := al.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestAuditLogger_FlushInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticker.jsonl")
	al, err := NewAuditLogger(AuditConfig{
		Enabled:       true,
		OutputFile:    path,
		BufferSize:    1000,
		FlushInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	defer al.Close()

	al.LogSeal("threading")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("buffered event was not flushed by the ticker")
}

func TestAuditLevel_String(t *testing.T) {
	tests := []struct {
		level AuditLevel
		want  string
	}{
		{AuditInfo, "INFO"},
		{AuditWarn, "WARN"},
		{AuditCritical, "CRITICAL"},
		{AuditSecurity, "SECURITY"},
		{AuditLevel(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("AuditLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestParseAuditLevel(t *testing.T) {
	tests := map[string]AuditLevel{
		"info":       AuditInfo,
		"WARN":       AuditWarn,
		"warning":    AuditWarn,
		" Critical ": AuditCritical,
		"security":   AuditSecurity,
	}
	for in, want := range tests {
		got, err := ParseAuditLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseAuditLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAuditLevel("debug"); !HasCode(err, ErrCodeInvalidConfig) {
		t.Errorf("ParseAuditLevel(debug) = %v, want invalid config", err)
	}
}
