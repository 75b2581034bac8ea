// Copyright (C) 2019-2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"fmt"
	"sync"
)

// Factory creates new Loggers, one per named message-bus session, and
// lets their levels be adjusted live.
type Factory interface {
	// Make creates a new logger with name [name].
	Make(name string) (Logger, error)

	// MakeSession creates a new logger scoped to session [sessionID].
	MakeSession(sessionID string) (Logger, error)

	// SetLogLevel sets the file log level for the named logger.
	SetLogLevel(name string, level Level) error
	// SetDisplayLevel sets the console display level for the named logger.
	SetDisplayLevel(name string, level Level) error
	// GetLogLevel returns the file log level for the named logger.
	GetLogLevel(name string) (Level, error)
	// GetDisplayLevel returns the console display level for the named logger.
	GetDisplayLevel(name string) (Level, error)
	// GetLoggerNames returns the names of all loggers created by this factory.
	GetLoggerNames() []string

	// Close stops and clears all of a Factory's instantiated loggers.
	Close()
}

// factory implements the Factory interface.
type factory struct {
	config Config
	lock   sync.RWMutex

	// Logger name --> the logger.
	loggers map[string]Logger
}

// NewFactory returns a new instance of a Factory producing loggers
// configured with the values set in config.
func NewFactory(config Config) Factory {
	return &factory{
		config:  config,
		loggers: make(map[string]Logger),
	}
}

// Assumes f.lock is held.
func (f *factory) makeLogger(config Config) (Logger, error) {
	if _, ok := f.loggers[config.LoggerName]; ok {
		return nil, fmt.Errorf("logger with name %q already exists", config.LoggerName)
	}
	l, err := newLog(config)
	if err != nil {
		return nil, err
	}
	f.loggers[config.LoggerName] = l
	return l, nil
}

func (f *factory) Make(name string) (Logger, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	config := f.config
	config.LoggerName = name
	return f.makeLogger(config)
}

func (f *factory) MakeSession(sessionID string) (Logger, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	config := f.config
	config.MsgPrefix = "session " + sessionID
	config.LoggerName = sessionID
	return f.makeLogger(config)
}

func (f *factory) SetLogLevel(name string, level Level) error {
	f.lock.RLock()
	defer f.lock.RUnlock()

	logger, ok := f.loggers[name]
	if !ok {
		return fmt.Errorf("logger with name %q not found", name)
	}
	logger.SetLogLevel(level)
	return nil
}

func (f *factory) SetDisplayLevel(name string, level Level) error {
	f.lock.RLock()
	defer f.lock.RUnlock()

	logger, ok := f.loggers[name]
	if !ok {
		return fmt.Errorf("logger with name %q not found", name)
	}
	logger.SetDisplayLevel(level)
	return nil
}

func (f *factory) GetLogLevel(name string) (Level, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	logger, ok := f.loggers[name]
	if !ok {
		return Off, fmt.Errorf("logger with name %q not found", name)
	}
	return logger.GetLogLevel(), nil
}

func (f *factory) GetDisplayLevel(name string) (Level, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	logger, ok := f.loggers[name]
	if !ok {
		return Off, fmt.Errorf("logger with name %q not found", name)
	}
	return logger.GetDisplayLevel(), nil
}

func (f *factory) GetLoggerNames() []string {
	f.lock.RLock()
	defer f.lock.RUnlock()

	names := make([]string, 0, len(f.loggers))
	for name := range f.loggers {
		names = append(names, name)
	}
	return names
}

func (f *factory) Close() {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, logger := range f.loggers {
		logger.Stop()
	}
	f.loggers = nil
}
