// Package config loads fidocore-agent configuration using koanf/v2: YAML
// file, then environment variable overrides, layered on top of built-in
// defaults.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete fidocore-agent configuration.
type Config struct {
	Device  DeviceConfig  `koanf:"device"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// DeviceConfig describes the simulated authenticator's identity and
// reported firmware version.
type DeviceConfig struct {
	// AAGUIDHex is the 16-byte aaguid, hex-encoded (32 hex characters).
	AAGUIDHex string `koanf:"aaguid"`

	// VersionMajor, VersionMinor, BuildNumber are reported in CTAPHID INIT
	// responses.
	VersionMajor byte `koanf:"version_major"`
	VersionMinor byte `koanf:"version_minor"`
	BuildNumber  byte `koanf:"build_number"`
}

// AAGUID decodes AAGUIDHex into its 16 raw bytes.
func (d DeviceConfig) AAGUID() ([]byte, error) {
	b, err := hex.DecodeString(d.AAGUIDHex)
	if err != nil {
		return nil, fmt.Errorf("device.aaguid: %w", err)
	}
	if len(b) != 16 {
		return nil, fmt.Errorf("device.aaguid: %w", ErrInvalidAAGUIDLength)
	}
	return b, nil
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// DefaultConfig returns a Config populated with sensible defaults: an
// all-zero aaguid, device version CA.FE.01 (matching ctaphid's Framer
// defaults), and text logging at info level.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			AAGUIDHex:    strings.Repeat("00", 16),
			VersionMajor: 0xCA,
			VersionMinor: 0xFE,
			BuildNumber:  0x01,
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// envPrefix is the environment variable prefix for fidocore-agent
// configuration. Variables are named FIDOCORE_<section>_<key>, e.g.
// FIDOCORE_METRICS_ADDR.
const envPrefix = "FIDOCORE_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (FIDOCORE_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms FIDOCORE_METRICS_ADDR -> metrics.addr. Only the
// first underscore separates section from key, so
// FIDOCORE_DEVICE_VERSION_MAJOR -> device.version_major.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"device.aaguid":        defaults.Device.AAGUIDHex,
		"device.version_major": defaults.Device.VersionMajor,
		"device.version_minor": defaults.Device.VersionMinor,
		"device.build_number":  defaults.Device.BuildNumber,
		"metrics.addr":         defaults.Metrics.Addr,
		"metrics.path":         defaults.Metrics.Path,
		"log.level":            defaults.Log.Level,
		"log.format":           defaults.Log.Format,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// Validation errors.
var (
	ErrInvalidAAGUIDLength = errors.New("aaguid must decode to exactly 16 bytes")
	ErrEmptyMetricsAddr    = errors.New("metrics.addr must not be empty")
	ErrInvalidLogFormat    = errors.New("log.format must be \"json\" or \"text\"")
)

// ValidLogFormats lists the recognized log format strings.
var ValidLogFormats = map[string]bool{"json": true, "text": true}

// Validate checks the configuration for logical errors, returning the
// first one encountered.
func Validate(cfg *Config) error {
	if _, err := cfg.Device.AAGUID(); err != nil {
		return err
	}
	if cfg.Metrics.Addr == "" {
		return ErrEmptyMetricsAddr
	}
	if cfg.Log.Format != "" && !ValidLogFormats[cfg.Log.Format] {
		return fmt.Errorf("%q: %w", cfg.Log.Format, ErrInvalidLogFormat)
	}
	return nil
}

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
