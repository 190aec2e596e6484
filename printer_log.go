// printer_log.go: Console output routed to structured logging
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package atlas

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// LogPrinter is a Formatter whose console output becomes zerolog events, one
// per Printf call, so library diagnostics land in the application log.
// Snprintf and Fprintf behave like StdFormatter.
type LogPrinter struct {
	StdFormatter
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogPrinter creates a printer that logs at level through logger.
func NewLogPrinter(logger zerolog.Logger, level zerolog.Level) *LogPrinter {
	return &LogPrinter{logger: logger, level: level}
}

// Name implements Named.
func (p *LogPrinter) Name() string { return "zerolog" }

// Printf implements Formatter. The returned count is the length of the
// message as formatted, trailing newlines included.
func (p *LogPrinter) Printf(format string, args ...any) (int, error) {
	msg := fmt.Sprintf(format, args...)
	p.logger.WithLevel(p.level).Str("component", "atlas").Msg(strings.TrimRight(msg, "\n"))
	return len(msg), nil
}

