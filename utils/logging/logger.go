// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import "go.uber.org/zap"

// Logger defines the logging interface used throughout this module.
// It deliberately mirrors zap's level methods rather than wrapping
// them behind a format string, since every call site already has
// structured fields available (message/reply/session IDs).
type Logger interface {
	Fatal(msg string, ctx ...zap.Field)
	Error(msg string, ctx ...zap.Field)
	Warn(msg string, ctx ...zap.Field)
	Info(msg string, ctx ...zap.Field)
	Trace(msg string, ctx ...zap.Field)
	Debug(msg string, ctx ...zap.Field)
	Verbo(msg string, ctx ...zap.Field)

	// SetLogLevel changes the minimum level written to the log file.
	SetLogLevel(Level)
	// SetDisplayLevel changes the minimum level written to the console.
	SetDisplayLevel(Level)
	// GetLogLevel returns the current file log level.
	GetLogLevel() Level
	// GetDisplayLevel returns the current console display level.
	GetDisplayLevel() Level

	// Stop flushes and closes any underlying writers.
	Stop()
}
