// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable [Load] reads the config
// path from.
const EnvConfig = "PROBED_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for probed.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Server configures the probe listener and its access gate.
	Server ServerConfig `yaml:"server"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configures the daemon's slog handler.
	Logging LoggingConfig `yaml:"logging"`

	// Probes lists static variable probes registered at startup.
	Probes []ProbeConfig `yaml:"probes"`

	// FrameRate configures the built-in frame-rate monitor.
	FrameRate FrameRateConfig `yaml:"frame_rate"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Server  *ServerOverrides `yaml:"server,omitempty"`
	Metrics *MetricsConfig   `yaml:"metrics,omitempty"`
	Logging *LoggingConfig   `yaml:"logging,omitempty"`
}

// ServerConfig configures the probe listener.
type ServerConfig struct {
	// Host is the listen address. Default: 127.0.0.1
	Host string `yaml:"host"`

	// Port is the listen port. 0 picks a free port.
	// Default: 8765
	Port int `yaml:"port"`

	// PollInterval is the gate retry interval. Default: 100ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// AcquireTimeout bounds the wait for the gate before a request
	// is answered 503. Default: 2m
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`

	// ReadTimeout bounds reading a request head. Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// MaxHeadBytes bounds the request head. Default: 8192
	MaxHeadBytes int `yaml:"max_head_bytes"`

	// StrictOperations rejects operations other than read and write
	// with 400 instead of treating them as reads.
	// Default: false (development), true (production)
	StrictOperations bool `yaml:"strict_operations"`

	// ReusePort sets SO_REUSEPORT on the listener so a restarted
	// daemon can bind while the old one drains. Unix only.
	// Default: false
	ReusePort bool `yaml:"reuse_port"`
}

// ServerOverrides mirrors ServerConfig with every field optional, so
// an override can set a field to its zero value.
type ServerOverrides struct {
	Host             *string        `yaml:"host,omitempty"`
	Port             *int           `yaml:"port,omitempty"`
	PollInterval     *time.Duration `yaml:"poll_interval,omitempty"`
	AcquireTimeout   *time.Duration `yaml:"acquire_timeout,omitempty"`
	ReadTimeout      *time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout     *time.Duration `yaml:"write_timeout,omitempty"`
	MaxHeadBytes     *int           `yaml:"max_head_bytes,omitempty"`
	StrictOperations *bool          `yaml:"strict_operations,omitempty"`
	ReusePort        *bool          `yaml:"reuse_port,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Address is the listen address. Empty disables the endpoint.
	// Default: empty
	Address string `yaml:"address"`

	// Path is the HTTP path metrics are served on. Default: /metrics
	Path string `yaml:"path"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`

	// Format is "text" or "json".
	// Default: text (development), json (production)
	Format string `yaml:"format"`
}

// ProbeConfig declares a variable probe.
type ProbeConfig struct {
	// Name is the command the probe answers to.
	Name string `yaml:"name"`

	// Kind is string, number, or point. Writes to number and point
	// probes are converted and rejected when they do not parse.
	// Default: string
	Kind string `yaml:"kind"`

	// Value is the initial value. A probe with no value reports
	// "not found" until it is first written.
	Value *string `yaml:"value,omitempty"`
}

// FrameRateConfig configures the built-in frame-rate monitor.
type FrameRateConfig struct {
	// Enabled registers the monitor's probe. Default: false
	Enabled bool `yaml:"enabled"`

	// Probe is the probe name. Default: framerate
	Probe string `yaml:"probe"`

	// Window is the number of frame intervals the median covers.
	// Default: 240
	Window int `yaml:"window"`

	// Interval is the period of the daemon's frame ticker.
	// Default: 16ms
	Interval time.Duration `yaml:"interval"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8765,
			PollInterval:   100 * time.Millisecond,
			AcquireTimeout: 2 * time.Minute,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeadBytes:   8192,
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		FrameRate: FrameRateConfig{
			Probe:    "framerate",
			Window:   240,
			Interval: 16 * time.Millisecond,
		},
	}
}

// Load loads configuration from the PROBED_CONFIG environment variable.
//
// There are no fallbacks - if PROBED_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your probed.yaml config file, or use --config flag", EnvConfig)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// Values absent from the file keep their [Default]. The result is not
// validated; callers apply flag overrides and then call Validate.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: machine-readable logs and strict parsing.
		if overrides == nil {
			strict := true
			overrides = &ConfigOverrides{
				Server:  &ServerOverrides{StrictOperations: &strict},
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if server := overrides.Server; server != nil {
		if server.Host != nil {
			c.Server.Host = *server.Host
		}
		if server.Port != nil {
			c.Server.Port = *server.Port
		}
		if server.PollInterval != nil {
			c.Server.PollInterval = *server.PollInterval
		}
		if server.AcquireTimeout != nil {
			c.Server.AcquireTimeout = *server.AcquireTimeout
		}
		if server.ReadTimeout != nil {
			c.Server.ReadTimeout = *server.ReadTimeout
		}
		if server.WriteTimeout != nil {
			c.Server.WriteTimeout = *server.WriteTimeout
		}
		if server.MaxHeadBytes != nil {
			c.Server.MaxHeadBytes = *server.MaxHeadBytes
		}
		if server.StrictOperations != nil {
			c.Server.StrictOperations = *server.StrictOperations
		}
		if server.ReusePort != nil {
			c.Server.ReusePort = *server.ReusePort
		}
	}

	if overrides.Metrics != nil {
		if overrides.Metrics.Address != "" {
			c.Metrics.Address = overrides.Metrics.Address
		}
		if overrides.Metrics.Path != "" {
			c.Metrics.Path = overrides.Metrics.Path
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// addresses.
func (c *Config) expandVariables() {
	c.Server.Host = expandVars(c.Server.Host)
	c.Metrics.Address = expandVars(c.Metrics.Address)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var probeKinds = []string{"", "string", "number", "point"}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port))
	}
	if c.Server.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.poll_interval must be positive"))
	}
	if c.Server.AcquireTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.acquire_timeout must be positive"))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Server.MaxHeadBytes < 64 {
		errs = append(errs, fmt.Errorf("server.max_head_bytes must be at least 64, got %d", c.Server.MaxHeadBytes))
	}

	if c.Metrics.Address != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	formats := []string{"text", "json"}
	if !slices.Contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	seen := make(map[string]bool)
	for i, probe := range c.Probes {
		if probe.Name == "" {
			errs = append(errs, fmt.Errorf("probes[%d].name is required", i))
			continue
		}
		if strings.ContainsAny(probe.Name, "/ \t\r\n") {
			errs = append(errs, fmt.Errorf("probes[%d].name %q must not contain '/' or whitespace", i, probe.Name))
		}
		if seen[probe.Name] {
			errs = append(errs, fmt.Errorf("probes[%d].name %q is declared more than once", i, probe.Name))
		}
		if !slices.Contains(probeKinds, strings.ToLower(probe.Kind)) {
			errs = append(errs, fmt.Errorf("probes[%d].kind %q must be one of: string, number, point", i, probe.Kind))
		}
		seen[probe.Name] = true
	}

	if c.FrameRate.Enabled {
		if c.FrameRate.Probe == "" {
			errs = append(errs, fmt.Errorf("frame_rate.probe is required when frame_rate is enabled"))
		} else if seen[c.FrameRate.Probe] {
			errs = append(errs, fmt.Errorf("frame_rate.probe %q collides with a declared probe", c.FrameRate.Probe))
		}
		if c.FrameRate.Window <= 0 {
			errs = append(errs, fmt.Errorf("frame_rate.window must be positive"))
		}
		if c.FrameRate.Interval <= 0 {
			errs = append(errs, fmt.Errorf("frame_rate.interval must be positive"))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
