// audit.go: Audit trail for runtime-service reconfiguration
//
// Every successful setter on an audited registry produces an event. The
// mutex and resource call paths never touch the audit logger.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
	AuditSecurity
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	case AuditSecurity:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// ParseAuditLevel converts a level name (case-insensitive) to an AuditLevel.
func ParseAuditLevel(s string) (AuditLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return AuditInfo, nil
	case "warn", "warning":
		return AuditWarn, nil
	case "critical":
		return AuditCritical, nil
	case "security":
		return AuditSecurity, nil
	}
	return AuditInfo, errors.New(ErrCodeInvalidConfig, fmt.Sprintf("unknown audit level '%s'", s))
}

// AuditEvent is a single recorded reconfiguration.
type AuditEvent struct {
	Timestamp   time.Time      `json:"timestamp"`
	Level       AuditLevel     `json:"level"`
	Event       string         `json:"event"`
	Registry    string         `json:"registry"`
	Slot        string         `json:"slot,omitempty"`
	OldBackend  string         `json:"old_backend,omitempty"`
	NewBackend  string         `json:"new_backend,omitempty"`
	ProcessID   int            `json:"process_id"`
	ProcessName string         `json:"process_name"`
	Context     map[string]any `json:"context,omitempty"`
	Checksum    string         `json:"checksum"`
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled       bool          `json:"enabled"`
	OutputFile    string        `json:"output_file"`
	MinLevel      AuditLevel    `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// DefaultAuditConfig returns the audit defaults: disabled, SQLite storage in
// the shared audit database, flushing every five seconds.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       false,
		OutputFile:    "",
		MinLevel:      AuditInfo,
		BufferSize:    256,
		FlushInterval: 5 * time.Second,
	}
}

// AuditLogger buffers audit events and writes them to a storage backend.
// A nil *AuditLogger is valid and discards everything.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closeOnce   sync.Once
	processID   int
	processName string
}

// NewAuditLogger creates an audit logger. The backend is SQLite unless
// OutputFile ends in .jsonl; if SQLite cannot be opened JSONL is used.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultAuditConfig().BufferSize
	}

	backend, err := createAuditBackend(config)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAuditError, "failed to initialize audit backend")
	}

	logger := &AuditLogger{
		config:      config,
		backend:     backend,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: filepath.Base(os.Args[0]),
	}

	if config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}

	return logger, nil
}

// Log records an event.
func (al *AuditLogger) Log(level AuditLevel, event, registry, slot, oldBackend, newBackend string, context map[string]any) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	auditEvent := AuditEvent{
		Timestamp:   timecache.CachedTime(),
		Level:       level,
		Event:       event,
		Registry:    registry,
		Slot:        slot,
		OldBackend:  oldBackend,
		NewBackend:  newBackend,
		ProcessID:   al.processID,
		ProcessName: al.processName,
		Context:     context,
	}
	auditEvent.Checksum = checksum(auditEvent)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, auditEvent)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe() // a failed write keeps the events buffered for the next flush
	}
	al.bufferMu.Unlock()
}

// LogBindingChange records that slot of registry moved from oldBackend to
// newBackend. Replacing a binding with a stub or the fail-fast backend is
// logged at security level: it disables a facility.
func (al *AuditLogger) LogBindingChange(registry, slot, oldBackend, newBackend string) {
	level := AuditCritical
	if newBackend == "stub" || newBackend == "failfast" {
		level = AuditSecurity
	}
	al.Log(level, "binding_change", registry, slot, oldBackend, newBackend, nil)
}

// LogSeal records that registry was sealed.
func (al *AuditLogger) LogSeal(registry string) {
	al.Log(AuditInfo, "registry_sealed", registry, "", "", "", nil)
}

// LogConfigApplied records that a configuration was applied from source.
func (al *AuditLogger) LogConfigApplied(source string, context map[string]any) {
	al.Log(AuditInfo, "config_applied", "atlas", "", "", "", mergeContext(context, "source", source))
}

// Stats returns statistics from the storage backend.
func (al *AuditLogger) Stats() (*AuditStats, error) {
	if al == nil || al.backend == nil {
		return nil, errors.New(ErrCodeAuditError, "audit logging not enabled")
	}
	if err := al.Flush(); err != nil {
		return nil, err
	}
	return al.backend.GetStats()
}

// Flush immediately writes all buffered events.
func (al *AuditLogger) Flush() error {
	if al == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	return al.flushBufferUnsafe()
}

// Close flushes pending events and releases the backend. It is safe to call
// more than once.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	var err error
	al.closeOnce.Do(func() {
		close(al.stopCh)
		if al.flushTicker != nil {
			al.flushTicker.Stop()
		}
		if flushErr := al.Flush(); flushErr != nil {
			err = errors.Wrap(flushErr, ErrCodeAuditError, "failed to flush audit logger during close")
			return
		}
		if closeErr := al.backend.Close(); closeErr != nil {
			err = errors.Wrap(closeErr, ErrCodeAuditError, "failed to close audit backend")
		}
	})
	return err
}

func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush() // retried on the next tick
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes the buffer to the backend (caller must hold bufferMu).
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return errors.Wrap(err, ErrCodeAuditError, "failed to write audit events")
	}
	al.buffer = al.buffer[:0]
	return nil
}

// checksum is a SHA-256 over the identifying fields, for tamper detection.
func checksum(e AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		e.Timestamp.UTC().Format(time.RFC3339Nano),
		e.Event, e.Registry, e.Slot, e.OldBackend, e.NewBackend)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

// VerifyChecksum reports whether e still matches its recorded checksum.
func VerifyChecksum(e AuditEvent) bool { return checksum(e) == e.Checksum }

func mergeContext(ctx map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(ctx)+1)
	for k, v := range ctx {
		out[k] = v
	}
	out[key] = value
	return out
}
