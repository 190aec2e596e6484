// env_config.go: Environment variable support for Atlas configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvMutexBackend       = "ATLAS_MUTEX_BACKEND"
	EnvPlatformBackend    = "ATLAS_PLATFORM_BACKEND"
	EnvSeal               = "ATLAS_SEAL"
	EnvConfigFile         = "ATLAS_CONFIG_FILE"
	EnvAuditEnabled       = "ATLAS_AUDIT_ENABLED"
	EnvAuditOutputFile    = "ATLAS_AUDIT_OUTPUT_FILE"
	EnvAuditMinLevel      = "ATLAS_AUDIT_MIN_LEVEL"
	EnvAuditBufferSize    = "ATLAS_AUDIT_BUFFER_SIZE"
	EnvAuditFlushInterval = "ATLAS_AUDIT_FLUSH_INTERVAL"
)

// LoadConfigFromEnv loads the configuration from ATLAS_* environment
// variables on top of the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(&cfg); err != nil {
		return cfg, errors.Wrap(err, ErrCodeInvalidConfig, "failed to load environment configuration")
	}
	return cfg, nil
}

// LoadConfigMultiSource loads configuration with precedence:
//  1. Environment variables (highest priority)
//  2. Configuration file, if configFile is not empty
//  3. Default values (lowest priority)
//
// When configFile is empty, ATLAS_CONFIG_FILE is consulted.
func LoadConfigMultiSource(configFile string) (Config, error) {
	cfg := DefaultConfig()

	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		fileCfg, err := LoadConfigFile(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, errors.Wrap(err, ErrCodeInvalidConfig, "failed to merge environment configuration")
	}
	return cfg, nil
}

// applyEnv overrides cfg with every ATLAS_* variable that is set.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvMutexBackend); v != "" {
		cfg.MutexBackend = normalizeBackendName(v)
	}
	if v := os.Getenv(EnvPlatformBackend); v != "" {
		cfg.PlatformBackend = normalizeBackendName(v)
	}
	if v := os.Getenv(EnvSeal); v != "" {
		cfg.Seal = parseBool(v)
	}
	return applyAuditEnv(&cfg.Audit)
}

func applyAuditEnv(audit *AuditConfig) error {
	if v := os.Getenv(EnvAuditEnabled); v != "" {
		audit.Enabled = parseBool(v)
	}
	if v := os.Getenv(EnvAuditOutputFile); v != "" {
		audit.OutputFile = v
	}
	if v := os.Getenv(EnvAuditMinLevel); v != "" {
		level, err := ParseAuditLevel(v)
		if err != nil {
			return err
		}
		audit.MinLevel = level
	}
	if v := os.Getenv(EnvAuditBufferSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.New(ErrCodeInvalidConfig, "invalid "+EnvAuditBufferSize+" value")
		}
		audit.BufferSize = n
	}
	if v := os.Getenv(EnvAuditFlushInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New(ErrCodeInvalidConfig, "invalid "+EnvAuditFlushInterval+" format")
		}
		audit.FlushInterval = d
	}
	return nil
}

// parseBool parses boolean values from environment variables
// Supports: true/false, 1/0, yes/no, on/off, enabled/disabled
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	default:
		return false
	}
}
