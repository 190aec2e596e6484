// Command handlers for the Atlas CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"

	"github.com/agilira/atlas"
	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// handleInfo prints the build defaults and the process-wide bindings.
func (m *Manager) handleInfo(ctx *orpheus.Context) error {
	verbose := ctx.GetFlagBool("verbose")
	threading := atlas.DefaultThreading()

	m.printf("Atlas Runtime Services\n")
	m.printf("Version: %s\n", Version)
	m.printf("Threading enabled: %v\n", atlas.ThreadingEnabled)
	m.printf("Standard platform: %v\n", atlas.StdEnabled)
	m.printf("Mutex backend: %s (sealed: %v)\n", threading.BackendName(), threading.Sealed())
	m.printf("Platform sealed: %v\n", m.platform.Sealed())
	m.printf("Audit logging: %v\n", m.auditLogger != nil)

	if verbose {
		names := m.platform.SlotNames()
		m.printf("\nPlatform bindings:\n")
		for _, slot := range platformSlots {
			m.printf("  %-9s %s\n", slot, names[slot])
		}
	}
	return nil
}

// handleBackends lists the mutex and platform backend catalogues.
func (m *Manager) handleBackends(ctx *orpheus.Context) error {
	m.printf("Mutex backends:\n")
	for _, name := range atlas.MutexBackends() {
		m.printf("  %s\n", name)
	}
	m.printf("Platform backends:\n")
	for _, name := range atlas.PlatformBackends() {
		m.printf("  %s\n", name)
	}
	return nil
}

// handleSelftest runs a contended counter through a private registry bound
// to the selected backend, wrapped in a counting decorator.
func (m *Manager) handleSelftest(ctx *orpheus.Context) error {
	backendName := ctx.GetFlagString("backend")
	allocatorName := ctx.GetFlagString("allocator")
	goroutines := ctx.GetFlagInt("goroutines")
	iterations := ctx.GetFlagInt("iterations")

	if goroutines <= 0 || iterations <= 0 {
		return errors.New(atlas.ErrCodeInvalidConfig, "goroutines and iterations must be positive")
	}

	backend, err := atlas.LookupMutexBackend(backendName)
	if err != nil {
		return err
	}
	allocator, err := newAllocator(allocatorName, goroutines)
	if err != nil {
		return err
	}

	counting := atlas.NewCountingMutex(backend)
	threading := atlas.NewThreading(counting).WithAudit(m.auditLogger)
	platform := atlas.NewPlatform(atlas.StdBindings()).WithAudit(m.auditLogger)
	if err := platform.SetAllocator(allocator); err != nil {
		return err
	}

	m.logger.Info().
		Str("backend", threading.BackendName()).
		Str("allocator", allocatorName).
		Int("goroutines", goroutines).
		Int("iterations", iterations).
		Msg("selftest started")

	result, err := runSelftest(threading, platform, goroutines, iterations)
	stats := counting.Stats()
	m.auditLogger.Log(atlas.AuditInfo, "cli_selftest", "threading", "", "", threading.BackendName(),
		map[string]any{"goroutines": goroutines, "iterations": iterations, "passed": err == nil})
	if err != nil {
		m.logger.Error().Err(err).Int64("failures", stats.Failures).Msg("selftest failed")
		return errors.Wrap(err, atlas.ErrCodeMutexError, "selftest failed")
	}

	m.printf("Counter: %d (expected %d)\n", result.Counter, result.Expected)
	m.printf("Lock/Unlock: %d/%d, failures: %d\n", stats.Locks, stats.Unlocks, stats.Failures)
	m.printf("Allocation failures: %d\n", result.AllocFailures)
	m.printf("Completed in %v\n", result.Duration)

	if result.Counter != result.Expected {
		return errors.New(atlas.ErrCodeMutexError,
			fmt.Sprintf("lost updates: counter %d, expected %d", result.Counter, result.Expected))
	}
	return nil
}

// handleConfigCheck validates a configuration file and prints the result.
func (m *Manager) handleConfigCheck(ctx *orpheus.Context) error {
	filePath := ctx.GetArg(0)
	if filePath == "" {
		return errors.New(atlas.ErrCodeInvalidConfig, "config file path required")
	}

	m.auditLogger.Log(atlas.AuditInfo, "cli_config_check", "atlas", "", "", "", map[string]any{"file": filePath})

	cfg, err := atlas.LoadConfigFile(filePath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, atlas.ErrCodeInvalidConfig, "configuration is invalid")
	}

	m.printf("Configuration %s is valid\n", filePath)
	m.printConfig(cfg)
	return nil
}

// handleConfigEnv prints the configuration resolved from the environment.
func (m *Manager) handleConfigEnv(ctx *orpheus.Context) error {
	cfg, err := atlas.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, atlas.ErrCodeInvalidConfig, "configuration is invalid")
	}
	m.printConfig(cfg)
	return nil
}

// handleAuditStats prints statistics for an audit trail.
func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	filePath := ctx.GetFlagString("file")

	auditLogger := m.auditLogger
	if filePath != "" || auditLogger == nil {
		config := atlas.DefaultAuditConfig()
		config.Enabled = true
		config.OutputFile = filePath
		config.FlushInterval = 0

		var err error
		auditLogger, err = atlas.NewAuditLogger(config)
		if err != nil {
			return err
		}
		defer func() {
			if err := auditLogger.Close(); err != nil {
				m.logger.Warn().Err(err).Msg("failed to close audit logger")
			}
		}()
	}

	stats, err := auditLogger.Stats()
	if err != nil {
		return err
	}
	m.printStats(stats)
	return nil
}
