// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ Logger = (*log)(nil)

type log struct {
	wrappedCores   []WrappedCore
	internalLogger *zap.Logger
}

// WrappedCore pairs a zapcore.Core with the writer backing it and the
// atomic level gate controlling it, so SetLogLevel/SetDisplayLevel can
// adjust verbosity of a live logger without rebuilding it.
type WrappedCore struct {
	Core        zapcore.Core
	Writer      io.WriteCloser
	AtomicLevel zap.AtomicLevel
}

// NewWrappedCore builds a WrappedCore writing encoder-formatted
// entries at or above level to rw.
func NewWrappedCore(level Level, rw io.WriteCloser, encoder zapcore.Encoder) WrappedCore {
	atomicLevel := zap.NewAtomicLevelAt(zapLevel(level))
	core := zapcore.NewCore(encoder, zapcore.AddSync(rw), atomicLevel)
	return WrappedCore{AtomicLevel: atomicLevel, Core: core, Writer: rw}
}

// nopCloser adapts an io.Writer without a Close method (e.g. os.Stdout)
// to io.WriteCloser for use with NewWrappedCore.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// levelEncoderFor chooses the console level encoder for h: Colors gets
// zap's ANSI-colored level names, Plain (and any unrecognized mode)
// gets plain capitalized names. The file core always writes lowercase
// names regardless of h.
func levelEncoderFor(h Highlight) zapcore.LevelEncoder {
	if h == Colors {
		return zapcore.CapitalColorLevelEncoder
	}
	return zapcore.CapitalLevelEncoder
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case Off, Fatal:
		return zapcore.FatalLevel
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	case Info:
		return zapcore.InfoLevel
	case Debug, Trace, Verbo:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// newLog builds a Logger from cfg: a console core at cfg.DisplayLevel,
// and, if cfg.Directory is set, a rotating file core at cfg.LogLevel
// backed by lumberjack.
func newLog(cfg Config) (Logger, error) {
	var cores []WrappedCore

	consoleEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    levelEncoderFor(cfg.DisplayHighlight),
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	cores = append(cores, NewWrappedCore(cfg.DisplayLevel, nopCloser{os.Stdout}, consoleEncoder))

	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return nil, err
		}
		name := cfg.FileNamePrefix
		if name == "" {
			name = "relaybus"
		}
		lj := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Directory, name+".log"),
			MaxSize:    cfg.RotationSizeMB,
			MaxBackups: cfg.RotationMaxBackups,
			MaxAge:     cfg.RotationMaxAgeDays,
			Compress:   true,
		}
		jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		})
		cores = append(cores, NewWrappedCore(cfg.LogLevel, lj, jsonEncoder))
	}

	return newLogFromCores(cfg.LoggerName, cores...), nil
}

func newLogFromCores(prefix string, wrappedCores ...WrappedCore) Logger {
	cores := make([]zapcore.Core, len(wrappedCores))
	for i, wc := range wrappedCores {
		cores[i] = wc.Core
	}
	core := zapcore.NewTee(cores...)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if prefix != "" {
		logger = logger.Named(prefix)
	}
	return &log{internalLogger: logger, wrappedCores: wrappedCores}
}

// Should only be called from the [Level] methods below.
func (l *log) log(level Level, msg string, ctx ...zap.Field) {
	zl := zapLevel(level)
	if ce := l.internalLogger.Check(zl, msg); ce != nil {
		ce.Write(ctx...)
	}
}

func (l *log) Fatal(msg string, ctx ...zap.Field) {
	ctx = append(ctx, zap.Stringer("stacktrace", Stacktrace{Global: true}))
	l.log(Fatal, msg, ctx...)
}
func (l *log) Error(msg string, ctx ...zap.Field) { l.log(Error, msg, ctx...) }
func (l *log) Warn(msg string, ctx ...zap.Field)  { l.log(Warn, msg, ctx...) }
func (l *log) Info(msg string, ctx ...zap.Field)  { l.log(Info, msg, ctx...) }
func (l *log) Trace(msg string, ctx ...zap.Field) { l.log(Trace, msg, ctx...) }
func (l *log) Debug(msg string, ctx ...zap.Field) { l.log(Debug, msg, ctx...) }
func (l *log) Verbo(msg string, ctx ...zap.Field) { l.log(Verbo, msg, ctx...) }

func (l *log) SetLogLevel(level Level) {
	if len(l.wrappedCores) > 1 {
		l.wrappedCores[1].AtomicLevel.SetLevel(zapLevel(level))
	}
}

func (l *log) SetDisplayLevel(level Level) {
	if len(l.wrappedCores) > 0 {
		l.wrappedCores[0].AtomicLevel.SetLevel(zapLevel(level))
	}
}

func (l *log) GetLogLevel() Level {
	if len(l.wrappedCores) > 1 {
		return fromZapLevel(l.wrappedCores[1].AtomicLevel.Level())
	}
	return Off
}

func (l *log) GetDisplayLevel() Level {
	if len(l.wrappedCores) > 0 {
		return fromZapLevel(l.wrappedCores[0].AtomicLevel.Level())
	}
	return Off
}

func fromZapLevel(zl zapcore.Level) Level {
	switch zl {
	case zapcore.FatalLevel:
		return Fatal
	case zapcore.ErrorLevel:
		return Error
	case zapcore.WarnLevel:
		return Warn
	case zapcore.InfoLevel:
		return Info
	case zapcore.DebugLevel:
		return Debug
	default:
		return Info
	}
}

func (l *log) Stop() {
	for _, wc := range l.wrappedCores {
		_ = wc.Writer.Close()
	}
}
