// (c) 2021 Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/SudarsanSridharan16/vespa/throttle"
)

func TestLoadDefaultsFromFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	v := viper.New()
	require.NoError(t, BindFlags(fs, v))
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", v)
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Bus.Kind)
	require.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relaybus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
throttle:
  max-pending-count: 128
  weight: 4
bus:
  kind: ws
  url: ws://example.invalid/bus
`), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	v := viper.New()
	require.NoError(t, BindFlags(fs, v))
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(path, v)
	require.NoError(t, err)
	require.Equal(t, 128, cfg.Throttle.MaxPendingCount)
	require.Equal(t, "ws", cfg.Bus.Kind)
	require.Equal(t, "ws://example.invalid/bus", cfg.Bus.URL)
}

func TestThrottleConfigApplyToSkipsZeroValues(t *testing.T) {
	policy := throttle.NewDynamicPolicy()
	before := policy.GetMinWindowSize()

	ThrottleConfig{}.ApplyTo(policy)
	require.Equal(t, before, policy.GetMinWindowSize())

	ThrottleConfig{MinWindowSize: 5, WindowSizeBackOff: 0.5}.ApplyTo(policy)
	require.Equal(t, 5.0, policy.GetMinWindowSize())
	require.Equal(t, 0.5, policy.GetWindowSizeBackOff())
}
