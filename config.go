// config.go: Configuration for Atlas runtime services
//
// Selects the mutex and platform backends by catalogue name, the audit
// trail, and whether the registries are sealed after configuration.
// Sources, highest precedence first: command-line flags, environment,
// configuration file, defaults.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"fmt"
	"time"

	"github.com/agilira/go-errors"
)

// Config selects the runtime service backends.
type Config struct {
	// MutexBackend is a name registered with RegisterMutexBackend.
	// Default: "native", or "failfast" in atlas_nothreads builds.
	MutexBackend string

	// PlatformBackend is a name registered with RegisterPlatformBackend.
	// Default: "std", or "stub" in atlas_nostd builds.
	PlatformBackend string

	// Seal makes both registries read-only once the configuration is applied.
	Seal bool

	// Audit configures the reconfiguration audit trail. Disabled by default.
	Audit AuditConfig
}

// DefaultConfig returns the build-time defaults.
func DefaultConfig() Config {
	return Config{
		MutexBackend:    backendName(defaultMutexBackend()),
		PlatformBackend: defaultPlatformBindings().Name,
		Audit:           DefaultAuditConfig(),
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MutexBackend == "" {
		c.MutexBackend = d.MutexBackend
	}
	if c.PlatformBackend == "" {
		c.PlatformBackend = d.PlatformBackend
	}
	if c.Audit.BufferSize <= 0 {
		c.Audit.BufferSize = d.Audit.BufferSize
	}
	if c.Audit.FlushInterval == 0 {
		c.Audit.FlushInterval = d.Audit.FlushInterval
	}
	return c
}

// Validate checks that the configuration can be applied.
func (c Config) Validate() error {
	if _, err := LookupMutexBackend(c.MutexBackend); err != nil {
		return err
	}
	if _, err := LookupPlatformBackend(c.PlatformBackend); err != nil {
		return err
	}
	if c.Audit.MinLevel < AuditInfo || c.Audit.MinLevel > AuditSecurity {
		return errors.New(ErrCodeInvalidConfig, fmt.Sprintf("invalid audit level %d", c.Audit.MinLevel))
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New(ErrCodeInvalidConfig, "audit buffer size must be positive")
	}
	if c.Audit.FlushInterval < 0 {
		return errors.New(ErrCodeInvalidConfig, "audit flush interval cannot be negative")
	}
	if c.Audit.Enabled && c.Audit.FlushInterval > 0 && c.Audit.FlushInterval < 10*time.Millisecond {
		return errors.New(ErrCodeInvalidConfig, "audit flush interval should be at least 10ms")
	}
	return nil
}

// Apply configures the process-wide registries from c. It must run before
// any goroutine uses the runtime services. The returned audit logger is nil
// unless c.Audit.Enabled; the caller closes it.
func Apply(c Config) (*AuditLogger, error) {
	return ApplyTo(c, defaultThreading, defaultPlatform)
}

// ApplyTo configures t and p from c. On error neither registry changes:
// both keep their bindings and their previous audit logger.
func ApplyTo(c Config, t *Threading, p *Platform) (*AuditLogger, error) {
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if t.Sealed() {
		return nil, errSealed("threading")
	}
	if p.Sealed() {
		return nil, errSealed("platform")
	}

	m, _ := LookupMutexBackend(c.MutexBackend)
	b, _ := LookupPlatformBackend(c.PlatformBackend)

	var al *AuditLogger
	if c.Audit.Enabled {
		var err error
		if al, err = NewAuditLogger(c.Audit); err != nil {
			return nil, err
		}
	}

	prevThreadingAudit, prevPlatformAudit := t.audit, p.audit
	prevBackend, prevName := t.backend, t.name
	rollback := func(err error) (*AuditLogger, error) {
		t.backend, t.name = prevBackend, prevName
		t.audit, p.audit = prevThreadingAudit, prevPlatformAudit
		_ = al.Close()
		return nil, err
	}

	if al != nil {
		t.WithAudit(al)
		p.WithAudit(al)
	}
	if err := t.swap(m, normalizeBackendName(c.MutexBackend)); err != nil {
		return rollback(err)
	}
	if err := p.SetBindings(b); err != nil {
		return rollback(err)
	}

	al.LogConfigApplied("config", map[string]any{
		"mutex_backend":    c.MutexBackend,
		"platform_backend": c.PlatformBackend,
		"seal":             c.Seal,
	})

	if c.Seal {
		t.Seal()
		p.Seal()
	}
	return al, nil
}
