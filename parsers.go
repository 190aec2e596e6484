// parsers.go: Configuration file parsers for Atlas
//
// Supported Formats:
// - YAML (.yml, .yaml) via go.yaml.in/yaml/v3
// - TOML (.toml) via github.com/BurntSushi/toml
// - JSON (.json) via encoding/json
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/agilira/go-errors"
	"go.yaml.in/yaml/v3"
)

// ConfigFormat represents a supported configuration file format.
type ConfigFormat int

const (
	FormatJSON ConfigFormat = iota
	FormatYAML
	FormatTOML
	FormatUnknown
)

// String returns the string representation of the config format.
func (cf ConfigFormat) String() string {
	switch cf {
	case FormatJSON:
		return "JSON"
	case FormatYAML:
		return "YAML"
	case FormatTOML:
		return "TOML"
	default:
		return "Unknown"
	}
}

// DetectFormat detects the configuration format from the file extension.
func DetectFormat(filePath string) ConfigFormat {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatUnknown
	}
}

// fileConfig is the on-disk shape of Config. Durations and levels are
// written as strings ("5s", "security"); pointers distinguish unset fields.
type fileConfig struct {
	MutexBackend    string          `json:"mutex_backend" yaml:"mutex_backend" toml:"mutex_backend"`
	PlatformBackend string          `json:"platform_backend" yaml:"platform_backend" toml:"platform_backend"`
	Seal            *bool           `json:"seal" yaml:"seal" toml:"seal"`
	Audit           fileAuditConfig `json:"audit" yaml:"audit" toml:"audit"`
}

type fileAuditConfig struct {
	Enabled       *bool  `json:"enabled" yaml:"enabled" toml:"enabled"`
	OutputFile    string `json:"output_file" yaml:"output_file" toml:"output_file"`
	MinLevel      string `json:"min_level" yaml:"min_level" toml:"min_level"`
	BufferSize    int    `json:"buffer_size" yaml:"buffer_size" toml:"buffer_size"`
	FlushInterval string `json:"flush_interval" yaml:"flush_interval" toml:"flush_interval"`
}

// LoadConfigFile reads a configuration file on top of the defaults. The
// format is chosen by extension.
func LoadConfigFile(path string) (Config, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return DefaultConfig(), errors.New(ErrCodeInvalidConfig, "unsupported config file format: "+path)
	}
	// #nosec G304 -- the path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig(), errors.Wrap(err, ErrCodeInvalidConfig, "failed to read config file")
	}
	return ParseConfig(data, format)
}

// ParseConfig decodes data in the given format on top of the defaults.
func ParseConfig(data []byte, format ConfigFormat) (Config, error) {
	cfg := DefaultConfig()

	var fc fileConfig
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &fc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &fc)
	case FormatTOML:
		_, err = toml.Decode(string(data), &fc)
	default:
		return cfg, errors.New(ErrCodeInvalidConfig, "unsupported format: "+format.String())
	}
	if err != nil {
		return cfg, errors.Wrap(err, ErrCodeInvalidConfig, "failed to parse "+format.String()+" config")
	}

	if err := fc.mergeInto(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (fc fileConfig) mergeInto(cfg *Config) error {
	if fc.MutexBackend != "" {
		cfg.MutexBackend = normalizeBackendName(fc.MutexBackend)
	}
	if fc.PlatformBackend != "" {
		cfg.PlatformBackend = normalizeBackendName(fc.PlatformBackend)
	}
	if fc.Seal != nil {
		cfg.Seal = *fc.Seal
	}

	a := fc.Audit
	if a.Enabled != nil {
		cfg.Audit.Enabled = *a.Enabled
	}
	if a.OutputFile != "" {
		cfg.Audit.OutputFile = a.OutputFile
	}
	if a.MinLevel != "" {
		level, err := ParseAuditLevel(a.MinLevel)
		if err != nil {
			return err
		}
		cfg.Audit.MinLevel = level
	}
	if a.BufferSize != 0 {
		cfg.Audit.BufferSize = a.BufferSize
	}
	if a.FlushInterval != "" {
		d, err := time.ParseDuration(a.FlushInterval)
		if err != nil {
			return errors.Wrap(err, ErrCodeInvalidConfig, "invalid audit flush_interval")
		}
		cfg.Audit.FlushInterval = d
	}
	return nil
}
