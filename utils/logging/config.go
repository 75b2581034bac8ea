// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// DefaultLogDirectory is where log files are written when no
// directory is configured explicitly.
var DefaultLogDirectory = fmt.Sprintf("~/.%s/logs", "relaybus")

// Config controls how a Logger built by Factory behaves.
type Config struct {
	// RotationSizeMB is the max size in megabytes of a log file before
	// it gets rotated (passed straight through to lumberjack).
	RotationSizeMB int
	// RotationMaxBackups is the max number of rotated files to retain.
	RotationMaxBackups int
	// RotationMaxAgeDays is the max age in days to retain a rotated file.
	RotationMaxAgeDays int

	LogLevel, DisplayLevel Level
	DisplayHighlight       Highlight

	// Directory is where log files are written. Empty disables file
	// logging entirely (console-only).
	Directory string
	// MsgPrefix and LoggerName are filled in per-logger by Factory.
	MsgPrefix, FileNamePrefix, LoggerName string
}

// DefaultConfig returns sensible defaults: debug-level file logging
// under DefaultLogDirectory, info-level console display.
func DefaultConfig() (Config, error) {
	dir, err := homedir.Expand(DefaultLogDirectory)
	return Config{
		RotationSizeMB:     8,
		RotationMaxBackups: 7,
		RotationMaxAgeDays: 30,
		DisplayLevel:       Info,
		DisplayHighlight:   Plain,
		LogLevel:           Debug,
		Directory:          dir,
	}, err
}

// AddFileNamePrefix adds the given prefixes to FileNamePrefix with
// prefixes separated by a period.
func (c *Config) AddFileNamePrefix(prefix ...string) {
	if len(prefix) > 0 {
		prefixStr := strings.Join(prefix, ".")
		if c.FileNamePrefix == "" {
			c.FileNamePrefix = prefixStr
			return
		}
		c.FileNamePrefix = fmt.Sprintf("%s.%s", c.FileNamePrefix, prefixStr)
	}
}
