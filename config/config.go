// (c) 2021 Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads relaybus's configuration from a YAML file,
// environment variables, and command-line flags, using the same
// spf13/viper + spf13/pflag combination the teacher's own node config
// package uses.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/SudarsanSridharan16/vespa/throttle"
)

// ThrottleConfig mirrors the tunables in throttle.DynamicPolicy's
// configuration surface (spec §4.3/§4.4). Zero values mean "use the
// policy's built-in default" and are left unset rather than applied.
type ThrottleConfig struct {
	WindowSizeIncrement     float64 `mapstructure:"window-size-increment"`
	MinWindowSize           float64 `mapstructure:"min-window-size"`
	MaxWindowSize           float64 `mapstructure:"max-window-size"`
	MaxPendingCount         int     `mapstructure:"max-pending-count"`
	Weight                  float64 `mapstructure:"weight"`
	WindowSizeBackOff       float64 `mapstructure:"window-size-back-off"`
	EfficiencyThreshold     float64 `mapstructure:"efficiency-threshold"`
	ResizeRate              float64 `mapstructure:"resize-rate"`
	WindowSizeDecrementStep float64 `mapstructure:"window-size-decrement-factor"`
	MaxThroughput           float64 `mapstructure:"max-throughput"`
}

// BusConfig configures the transport a Session dispatches through.
type BusConfig struct {
	// Kind is "memory" or "ws".
	Kind          string  `mapstructure:"kind"`
	URL           string  `mapstructure:"url"`
	LatencyMillis int     `mapstructure:"latency-millis"`
	JitterMillis  int     `mapstructure:"jitter-millis"`
	ErrorRate     float64 `mapstructure:"error-rate"`
}

// Config is the top-level relaybus configuration.
type Config struct {
	Throttle    ThrottleConfig `mapstructure:"throttle"`
	Bus         BusConfig      `mapstructure:"bus"`
	LogDir      string         `mapstructure:"log-dir"`
	LogLevel    string         `mapstructure:"log-level"`
	MetricsAddr string         `mapstructure:"metrics-addr"`
}

// BindFlags registers relaybus's flags on fs under the given prefix-free
// names, and binds them into v so Load can read either source.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.Float64("throttle.window-size-increment", 0, "additive probe step (0 = policy default)")
	fs.Float64("throttle.min-window-size", 0, "minimum window size (0 = policy default)")
	fs.Float64("throttle.max-window-size", 0, "maximum window size (0 = policy default)")
	fs.Int("throttle.max-pending-count", 0, "hard ceiling on pending messages (0 = unset)")
	fs.Float64("throttle.weight", 0, "relative resource share for this client (0 = policy default)")
	fs.Float64("throttle.window-size-back-off", 0, "back-off contraction factor in [0,1]")
	fs.Float64("throttle.efficiency-threshold", 0, "efficiency below which the window backs off")
	fs.Float64("throttle.resize-rate", 0, "window-fulls per measurement interval")
	fs.Float64("throttle.window-size-decrement-factor", 0, "relative back-off step")
	fs.Float64("throttle.max-throughput", 0, "known throughput ceiling, 0 = unknown")

	fs.String("bus.kind", "memory", `transport to dispatch through: "memory" or "ws"`)
	fs.String("bus.url", "", "websocket URL, required when bus.kind=ws")
	fs.Int("bus.latency-millis", 5, "simulated reply latency for the memory bus")
	fs.Int("bus.jitter-millis", 2, "simulated reply latency jitter for the memory bus")
	fs.Float64("bus.error-rate", 0, "fraction of memory-bus replies to simulate as errored")

	fs.String("log-dir", "", "directory for rotated log files; empty disables file logging")
	fs.String("log-level", "info", "file log level")
	fs.String("metrics-addr", ":9090", "address to serve /metrics and /healthz on")

	return v.BindPFlags(fs)
}

// Load reads configuration from path (if non-empty), environment
// variables prefixed RELAYBUS_, and any flags already bound into v,
// in increasing priority order, and unmarshals the result.
func Load(path string, v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("relaybus")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ApplyTo configures policy from c.Throttle. Zero-valued fields are
// left at the policy's own default rather than being applied, since
// zero is not a meaningful override for any of these tunables.
func (c ThrottleConfig) ApplyTo(policy *throttle.DynamicPolicy) {
	if c.WindowSizeIncrement > 0 {
		policy.SetWindowSizeIncrement(c.WindowSizeIncrement)
	}
	if c.MinWindowSize > 0 {
		policy.SetMinWindowSize(c.MinWindowSize)
	}
	if c.MaxWindowSize > 0 {
		policy.SetMaxWindowSize(c.MaxWindowSize)
	}
	if c.MaxPendingCount > 0 {
		policy.SetMaxPendingCount(c.MaxPendingCount)
	}
	if c.Weight > 0 {
		policy.SetWeight(c.Weight)
	}
	if c.WindowSizeBackOff > 0 {
		policy.SetWindowSizeBackOff(c.WindowSizeBackOff)
	}
	if c.EfficiencyThreshold > 0 {
		policy.SetEfficiencyThreshold(c.EfficiencyThreshold)
	}
	if c.ResizeRate > 0 {
		policy.SetResizeRate(c.ResizeRate)
	}
	if c.WindowSizeDecrementStep > 0 {
		policy.SetWindowSizeDecrementFactor(c.WindowSizeDecrementStep)
	}
	if c.MaxThroughput > 0 {
		policy.SetMaxThroughput(c.MaxThroughput)
	}
}
