// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import "go.uber.org/zap"

var _ Logger = NoLog{}

// NoLog is a Logger that discards everything. Useful as a default in
// tests and examples that don't care about log output.
type NoLog struct{}

func (NoLog) Fatal(string, ...zap.Field) {}
func (NoLog) Error(string, ...zap.Field) {}
func (NoLog) Warn(string, ...zap.Field)  {}
func (NoLog) Info(string, ...zap.Field)  {}
func (NoLog) Trace(string, ...zap.Field) {}
func (NoLog) Debug(string, ...zap.Field) {}
func (NoLog) Verbo(string, ...zap.Field) {}

func (NoLog) SetLogLevel(Level)     {}
func (NoLog) SetDisplayLevel(Level) {}
func (NoLog) GetLogLevel() Level     { return Off }
func (NoLog) GetDisplayLevel() Level { return Off }

func (NoLog) Stop() {}
