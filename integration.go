// integration.go: Command-line configuration for Atlas
//
// ConfigManager layers command-line flags, parsed with flash-flags, over the
// environment and configuration file sources loaded by LoadConfigMultiSource.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	goerrors "errors"
	"fmt"
	"os"

	flashflags "github.com/agilira/flash-flags"
	"github.com/agilira/go-errors"
)

// ErrHelpRequested is returned by ConfigManager.Load when the arguments ask
// for help. The caller prints usage and exits.
var ErrHelpRequested = errors.New(ErrCodeInvalidConfig, "help requested")

// Flag names understood by ConfigManager.
const (
	FlagConfig             = "config"
	FlagMutexBackend       = "mutex-backend"
	FlagPlatformBackend    = "platform-backend"
	FlagSeal               = "seal"
	FlagAudit              = "audit"
	FlagAuditFile          = "audit-file"
	FlagAuditLevel         = "audit-level"
	FlagAuditBufferSize    = "audit-buffer-size"
	FlagAuditFlushInterval = "audit-flush-interval"
)

// ConfigManager loads a Config from flags, environment, file and defaults.
type ConfigManager struct {
	appName        string
	appDescription string
	appVersion     string

	flags *flashflags.FlagSet
}

// NewConfigManager creates a configuration manager for appName.
func NewConfigManager(appName string) *ConfigManager {
	cm := &ConfigManager{appName: appName}
	cm.flags = cm.newFlagSet(DefaultConfig(), "")
	return cm
}

// SetDescription sets the application description for help text
func (cm *ConfigManager) SetDescription(description string) *ConfigManager {
	cm.appDescription = description
	cm.flags.SetDescription(description)
	return cm
}

// SetVersion sets the application version for help text
func (cm *ConfigManager) SetVersion(version string) *ConfigManager {
	cm.appVersion = version
	cm.flags.SetVersion(version)
	return cm
}

// Load resolves the configuration with precedence flags > environment >
// file > defaults. The file is named by --config or ATLAS_CONFIG_FILE.
func (cm *ConfigManager) Load(args []string) (Config, error) {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return DefaultConfig(), ErrHelpRequested
		}
	}

	// First pass only discovers the config file.
	probe := cm.newFlagSet(DefaultConfig(), "")
	if err := probe.Parse(args); err != nil {
		return DefaultConfig(), errors.Wrap(err, ErrCodeInvalidConfig, "failed to parse command-line flags")
	}
	configFile := probe.GetString(FlagConfig)

	base, err := LoadConfigMultiSource(configFile)
	if err != nil {
		return base, err
	}

	// Second pass: flags default to the file and environment values, so
	// only flags present on the command line change the result.
	cm.flags = cm.newFlagSet(base, configFile)
	if err := cm.flags.Parse(args); err != nil {
		return base, errors.Wrap(err, ErrCodeInvalidConfig, "failed to parse command-line flags")
	}

	cfg := base
	cfg.MutexBackend = normalizeBackendName(cm.flags.GetString(FlagMutexBackend))
	cfg.PlatformBackend = normalizeBackendName(cm.flags.GetString(FlagPlatformBackend))
	cfg.Seal = cm.flags.GetBool(FlagSeal)
	cfg.Audit.Enabled = cm.flags.GetBool(FlagAudit)
	cfg.Audit.OutputFile = cm.flags.GetString(FlagAuditFile)
	cfg.Audit.BufferSize = cm.flags.GetInt(FlagAuditBufferSize)
	cfg.Audit.FlushInterval = cm.flags.GetDuration(FlagAuditFlushInterval)
	level, err := ParseAuditLevel(cm.flags.GetString(FlagAuditLevel))
	if err != nil {
		return base, err
	}
	cfg.Audit.MinLevel = level

	return cfg, cfg.Validate()
}

// LoadOrExit loads the configuration from os.Args and exits on help or error.
func (cm *ConfigManager) LoadOrExit() Config {
	cfg, err := cm.Load(os.Args[1:])
	if err == nil {
		return cfg
	}
	if goerrors.Is(err, ErrHelpRequested) {
		cm.PrintUsage()
		os.Exit(0)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
	cm.PrintUsage()
	os.Exit(1)
	return cfg
}

// PrintUsage prints help information for all flags
func (cm *ConfigManager) PrintUsage() {
	cm.flags.PrintHelp()
}

// FlagNames returns the registered flag names.
func (cm *ConfigManager) FlagNames() []string {
	var names []string
	cm.flags.VisitAll(func(flag *flashflags.Flag) {
		names = append(names, flag.Name())
	})
	return names
}

func (cm *ConfigManager) newFlagSet(d Config, configFile string) *flashflags.FlagSet {
	fs := flashflags.New(cm.appName)
	if cm.appDescription != "" {
		fs.SetDescription(cm.appDescription)
	}
	if cm.appVersion != "" {
		fs.SetVersion(cm.appVersion)
	}
	fs.String(FlagConfig, configFile, "Configuration file (.yaml, .yml, .toml, .json)")
	fs.String(FlagMutexBackend, d.MutexBackend, "Mutex backend name")
	fs.String(FlagPlatformBackend, d.PlatformBackend, "Platform backend name")
	fs.Bool(FlagSeal, d.Seal, "Seal the registries after configuration")
	fs.Bool(FlagAudit, d.Audit.Enabled, "Enable the reconfiguration audit trail")
	fs.String(FlagAuditFile, d.Audit.OutputFile, "Audit output file (.db or .jsonl)")
	fs.String(FlagAuditLevel, d.Audit.MinLevel.String(), "Minimum audit level (info, warn, critical, security)")
	fs.Int(FlagAuditBufferSize, d.Audit.BufferSize, "Audit buffer size")
	fs.Duration(FlagAuditFlushInterval, d.Audit.FlushInterval, "Audit flush interval")
	return fs
}
