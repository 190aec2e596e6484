// Package cli provides the command-line interface for Atlas runtime services.
//
// The CLI inspects the build defaults and the backend catalogue, runs a
// contended self-test against a chosen mutex backend and allocator, checks
// configuration files and reports audit trail statistics.
//
// Architecture:
// - Manager: CLI orchestration and command routing (Orpheus)
// - Handlers: command implementations
// - Utils: shared helpers for configuration and output
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"os"

	"github.com/agilira/atlas"
	"github.com/agilira/orpheus/pkg/orpheus"
	"github.com/rs/zerolog"
)

// Version is reported by --version and the info command.
const Version = "1.0.0"

// Manager provides the Atlas CLI, built on the Orpheus framework.
type Manager struct {
	app         *orpheus.App
	auditLogger *atlas.AuditLogger // Optional audit integration
	platform    *atlas.Platform
	out         io.Writer
	logger      zerolog.Logger
}

// NewManager creates a CLI manager writing to stdout and logging to stderr.
func NewManager() *Manager {
	app := orpheus.New("atlas").
		SetDescription("Pluggable runtime services: mutex and resource registries").
		SetVersion(Version)

	manager := &Manager{
		app:      app,
		platform: atlas.DefaultPlatform(),
		out:      os.Stdout,
		logger:   zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}

	manager.setupInfoCommands()
	manager.setupSelftestCommand()
	manager.setupConfigCommands()
	manager.setupAuditCommands()

	return manager
}

// WithAudit records CLI operations in auditLogger.
func (m *Manager) WithAudit(auditLogger *atlas.AuditLogger) *Manager {
	m.auditLogger = auditLogger
	return m
}

// WithOutput redirects command output to w.
func (m *Manager) WithOutput(w io.Writer) *Manager {
	m.out = w
	return m
}

// WithLogger replaces the diagnostic logger.
func (m *Manager) WithLogger(logger zerolog.Logger) *Manager {
	m.logger = logger
	return m
}

// Run executes the CLI application with the provided arguments.
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// Command Setup Methods

func (m *Manager) setupInfoCommands() {
	infoCmd := orpheus.NewCommand("info", "Build defaults and active bindings")
	infoCmd.SetHandler(m.handleInfo)
	infoCmd.AddBoolFlag("verbose", "v", false, "Show per-slot platform bindings")
	m.app.AddCommand(infoCmd)

	backendsCmd := orpheus.NewCommand("backends", "List the registered backends")
	backendsCmd.SetHandler(m.handleBackends)
	m.app.AddCommand(backendsCmd)
}

// setupSelftestCommand configures 'selftest', which hammers a shared counter
// through the mutex registry and the allocator through the platform registry.
func (m *Manager) setupSelftestCommand() {
	selftestCmd := orpheus.NewCommand("selftest", "Run a contended self-test").
		AddFlag("backend", "b", "native", "Mutex backend name").
		AddFlag("allocator", "a", "std", "Allocator (std|pool|limited)").
		SetHandler(m.handleSelftest)
	selftestCmd.AddIntFlag("goroutines", "g", 8, "Number of goroutines")
	selftestCmd.AddIntFlag("iterations", "i", 1000, "Iterations per goroutine")
	m.app.AddCommand(selftestCmd)
}

func (m *Manager) setupConfigCommands() {
	configCmd := orpheus.NewCommand("config", "Configuration file operations")

	// config check <file>
	configCmd.Subcommand("check", "Validate a configuration file", m.handleConfigCheck)

	// config env
	configCmd.Subcommand("env", "Show the configuration resolved from ATLAS_* variables", m.handleConfigEnv)

	m.app.AddCommand(configCmd)
}

func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail management")

	// audit stats [--file=audit.db]
	statsCmd := auditCmd.Subcommand("stats", "Show audit trail statistics", m.handleAuditStats)
	statsCmd.AddFlag("file", "f", "", "Audit output file (.db or .jsonl)")

	m.app.AddCommand(auditCmd)
}
