// Atlas CLI - runtime services diagnostics
//
// Resolves the runtime services configuration from global flags,
// ATLAS_* environment variables, the configuration file and the build
// defaults, applies it to the process-wide registries, then hands the
// remaining arguments to the Orpheus-powered CLI manager.
//
//	atlas --mutex-backend failfast --audit --audit-file trail.jsonl info -v
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/agilira/atlas"
	"github.com/agilira/atlas/cmd/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cm := atlas.NewConfigManager("atlas").
		SetDescription("Pluggable runtime services").
		SetVersion(cli.Version)

	configArgs, commandArgs := splitArgs(args, cm.FlagNames())
	cfg, err := cm.Load(configArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	auditLogger, err := atlas.Apply(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	manager := cli.NewManager().WithAudit(auditLogger)
	if err := manager.Run(commandArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// boolFlags take no separate value argument.
var boolFlags = map[string]bool{atlas.FlagSeal: true, atlas.FlagAudit: true}

// splitArgs moves the leading configuration flags (those in names) into
// configArgs. Parsing stops at the first argument that is not one of them,
// which is where the Orpheus command starts.
func splitArgs(args, names []string) (configArgs, commandArgs []string) {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			break
		}
		name, _, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !known[name] {
			break
		}
		configArgs = append(configArgs, arg)
		i++
		if !hasValue && !boolFlags[name] && i < len(args) {
			configArgs = append(configArgs, args[i])
			i++
		}
	}
	return configArgs, args[i:]
}
