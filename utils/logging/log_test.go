// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFactoryMakeAndClose(t *testing.T) {
	factory := NewFactory(Config{
		Directory:    t.TempDir(),
		DisplayLevel: Info,
		LogLevel:     Debug,
	})
	defer factory.Close()

	l, err := factory.Make("session-a")
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = factory.Make("session-a")
	require.Error(t, err, "duplicate logger names must be rejected")

	require.NoError(t, factory.SetDisplayLevel("session-a", Error))
	level, err := factory.GetDisplayLevel("session-a")
	require.NoError(t, err)
	require.Equal(t, Error, level)

	require.ElementsMatch(t, []string{"session-a"}, factory.GetLoggerNames())
}

func TestFactoryMakeSessionScopesLoggerName(t *testing.T) {
	factory := NewFactory(Config{Directory: t.TempDir()})
	defer factory.Close()

	l, err := factory.MakeSession("sess-123")
	require.NoError(t, err)
	require.NotNil(t, l)

	require.Contains(t, factory.GetLoggerNames(), "sess-123")
}

func TestUnknownLoggerNameErrors(t *testing.T) {
	factory := NewFactory(Config{Directory: t.TempDir()})
	defer factory.Close()

	_, err := factory.GetLogLevel("missing")
	require.Error(t, err)
}

func TestConsoleOnlyLoggerDoesNotPanic(t *testing.T) {
	l, err := newLog(Config{LoggerName: "console-only", DisplayLevel: Info})
	require.NoError(t, err)
	defer l.Stop()

	l.Info("hello")
	l.SetLogLevel(Debug) // no file core configured; must be a no-op, not a panic
}

func TestLevelEncoderForHighlight(t *testing.T) {
	require.NotNil(t, levelEncoderFor(Plain))
	require.NotNil(t, levelEncoderFor(Colors))
}

func TestStacktraceCapturesCurrentGoroutine(t *testing.T) {
	st := Stacktrace{Global: false}
	require.Contains(t, st.String(), "TestStacktraceCapturesCurrentGoroutine")
}

func TestSanitizeStripsNewlines(t *testing.T) {
	require.Equal(t, "a\\nb", Sanitize("a\nb"))

	args := SanitizeArgs([]interface{}{"x\ny", 5})
	require.Equal(t, "x\\ny", args[0])
	require.Equal(t, 5, args[1])
}
