// env_config_test.go: Tests for environment and multi-source configuration
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvMutexBackend, " FailFast ")
	t.Setenv(EnvPlatformBackend, "stub")
	t.Setenv(EnvSeal, "yes")
	t.Setenv(EnvAuditEnabled, "true")
	t.Setenv(EnvAuditOutputFile, "/tmp/atlas-audit.jsonl")
	t.Setenv(EnvAuditMinLevel, "security")
	t.Setenv(EnvAuditBufferSize, "32")
	t.Setenv(EnvAuditFlushInterval, "250ms")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if cfg.MutexBackend != "failfast" || cfg.PlatformBackend != "stub" || !cfg.Seal {
		t.Errorf("backends = %+v", cfg)
	}
	a := cfg.Audit
	if !a.Enabled || a.OutputFile != "/tmp/atlas-audit.jsonl" || a.MinLevel != AuditSecurity ||
		a.BufferSize != 32 || a.FlushInterval != 250*time.Millisecond {
		t.Errorf("audit = %+v", a)
	}
}

func TestLoadConfigFromEnv_InvalidValues(t *testing.T) {
	tests := map[string]string{
		EnvAuditMinLevel:      "verbose",
		EnvAuditBufferSize:    "-1",
		EnvAuditFlushInterval: "soon",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfigFromEnv(); !HasCode(err, ErrCodeInvalidConfig) {
				t.Errorf("%s=%s: got %v, want invalid config", key, value, err)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", "on", "enabled"} {
		if !parseBool(v) {
			t.Errorf("parseBool(%q) = false", v)
		}
	}
	for _, v := range []string{"false", "0", "no", "off", "disabled", "maybe"} {
		if parseBool(v) {
			t.Errorf("parseBool(%q) = true", v)
		}
	}
}

func TestLoadConfigMultiSource_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.yaml")
	content := `
mutex_backend: failfast
platform_backend: stub
audit:
  enabled: true
  min_level: warn
  buffer_size: 64
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv(EnvMutexBackend, "native")

	cfg, err := LoadConfigMultiSource(path)
	if err != nil {
		t.Fatalf("LoadConfigMultiSource failed: %v", err)
	}
	if cfg.MutexBackend != "native" {
		t.Errorf("environment should win: MutexBackend = %s", cfg.MutexBackend)
	}
	if cfg.PlatformBackend != "stub" || !cfg.Audit.Enabled || cfg.Audit.MinLevel != AuditWarn || cfg.Audit.BufferSize != 64 {
		t.Errorf("file values lost: %+v", cfg)
	}
	if cfg.Audit.FlushInterval != DefaultAuditConfig().FlushInterval {
		t.Errorf("unset values should keep defaults, FlushInterval = %v", cfg.Audit.FlushInterval)
	}
}

func TestLoadConfigMultiSource_ConfigFileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.toml")
	if err := os.WriteFile(path, []byte("seal = true\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg, err := LoadConfigMultiSource("")
	if err != nil {
		t.Fatalf("LoadConfigMultiSource failed: %v", err)
	}
	if !cfg.Seal {
		t.Error("the file named by ATLAS_CONFIG_FILE should be loaded")
	}
}

func TestLoadConfigMultiSource_MissingFile(t *testing.T) {
	_, err := LoadConfigMultiSource(filepath.Join(t.TempDir(), "missing.yaml"))
	if !HasCode(err, ErrCodeInvalidConfig) {
		t.Errorf("missing file = %v, want invalid config", err)
	}
}
