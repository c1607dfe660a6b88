// Package config provides YAML-based configuration loading for alohanet.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"alohanet/pkg/protocol"
)

// Config is the root application configuration shared by the channel and
// sender binaries.
type Config struct {
	// AppName optional logical name of the process
	AppName string `mapstructure:"app_name"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Transport selects the link implementation
	Transport TransportConfig `mapstructure:"transport"`

	// Net holds dial retry tuning
	Net NetConfig `mapstructure:"net"`

	// Channel holds arbiter-side settings
	Channel ChannelConfig `mapstructure:"channel"`

	// Sender holds contender-side settings
	Sender SenderConfig `mapstructure:"sender"`

	// Report controls statistics output
	Report ReportConfig `mapstructure:"report"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// TransportConfig selects the link kind: tcp, quic, or mem.
type TransportConfig struct {
	Kind string `mapstructure:"kind"`
}

// NetConfig contains dial retry tuning options.
type NetConfig struct {
	DialBackoffInitialMS int `mapstructure:"dial_backoff_initial_ms"`
	DialBackoffMaxMS     int `mapstructure:"dial_backoff_max_ms"`
	DialBackoffJitterMS  int `mapstructure:"dial_backoff_jitter_ms"`
}

// ChannelConfig holds arbiter settings.
type ChannelConfig struct {
	// Listen is the address the channel accepts stations on.
	Listen string `mapstructure:"listen"`
	// SlotTimeMS is the arbitration window duration in milliseconds.
	SlotTimeMS int `mapstructure:"slot_time_ms"`
}

// SenderConfig holds contender settings.
type SenderConfig struct {
	// ChannelAddr is the channel's dial address.
	ChannelAddr string `mapstructure:"channel_addr"`
	// File is the path of the file to transmit.
	File string `mapstructure:"file"`
	// FrameSize is the payload bytes per frame, at most protocol.MaxPayloadSize.
	FrameSize int `mapstructure:"frame_size"`
	// SlotTimeMS must match the channel's slot duration.
	SlotTimeMS int `mapstructure:"slot_time_ms"`
	// TimeoutS is the per-attempt acknowledgment wait in seconds.
	TimeoutS int `mapstructure:"timeout_s"`
	// Seed seeds the backoff random source.
	Seed int64 `mapstructure:"seed"`
	// MaxAttempts bounds transmissions per frame before the transfer fails.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// ReportConfig controls the machine-readable statistics dump.
type ReportConfig struct {
	// Format: json or cbor
	Format string `mapstructure:"format"`
	// Output is an optional file path; empty disables the dump.
	Output string `mapstructure:"output"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "alohanet",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/alohanet.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Transport: TransportConfig{Kind: "tcp"},
		Net:       NetConfig{DialBackoffInitialMS: 500, DialBackoffMaxMS: 30000, DialBackoffJitterMS: 100},
		Channel:   ChannelConfig{Listen: ":6342", SlotTimeMS: 100},
		Sender: SenderConfig{
			ChannelAddr: "127.0.0.1:6342",
			FrameSize:   1024,
			SlotTimeMS:  100,
			TimeoutS:    2,
			Seed:        1,
			MaxAttempts: 10,
		},
		Report: ReportConfig{Format: "json"},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment
// overrides. Environment variables use the prefix ALOHANET and `.`/`-`
// are replaced with `_`. Example: ALOHANET_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("ALOHANET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("transport.kind", cfg.Transport.Kind)
	v.SetDefault("net.dial_backoff_initial_ms", cfg.Net.DialBackoffInitialMS)
	v.SetDefault("net.dial_backoff_max_ms", cfg.Net.DialBackoffMaxMS)
	v.SetDefault("net.dial_backoff_jitter_ms", cfg.Net.DialBackoffJitterMS)
	v.SetDefault("channel.listen", cfg.Channel.Listen)
	v.SetDefault("channel.slot_time_ms", cfg.Channel.SlotTimeMS)
	v.SetDefault("sender.channel_addr", cfg.Sender.ChannelAddr)
	v.SetDefault("sender.file", cfg.Sender.File)
	v.SetDefault("sender.frame_size", cfg.Sender.FrameSize)
	v.SetDefault("sender.slot_time_ms", cfg.Sender.SlotTimeMS)
	v.SetDefault("sender.timeout_s", cfg.Sender.TimeoutS)
	v.SetDefault("sender.seed", cfg.Sender.Seed)
	v.SetDefault("sender.max_attempts", cfg.Sender.MaxAttempts)
	v.SetDefault("report.format", cfg.Report.Format)
	v.SetDefault("report.output", cfg.Report.Output)

	if path == "" {
		if envPath := os.Getenv("ALOHANET_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `alohanet`
		v.SetConfigName("alohanet")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".alohanet"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and fails fast on values the protocol
// cannot run with. It is called by Load and again by the binaries after
// flag overrides.
func (c *Config) Validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}

	switch strings.ToLower(strings.TrimSpace(c.Transport.Kind)) {
	case "", "tcp", "quic", "mem":
	default:
		return fmt.Errorf("invalid transport.kind: %q", c.Transport.Kind)
	}

	if c.Channel.SlotTimeMS <= 0 {
		return fmt.Errorf("channel.slot_time_ms must be positive, got %d", c.Channel.SlotTimeMS)
	}
	if c.Sender.SlotTimeMS <= 0 {
		return fmt.Errorf("sender.slot_time_ms must be positive, got %d", c.Sender.SlotTimeMS)
	}
	if c.Sender.TimeoutS <= 0 {
		return fmt.Errorf("sender.timeout_s must be positive, got %d", c.Sender.TimeoutS)
	}
	if c.Sender.MaxAttempts < 1 {
		return fmt.Errorf("sender.max_attempts must be at least 1, got %d", c.Sender.MaxAttempts)
	}
	if c.Sender.FrameSize < 1 || c.Sender.FrameSize > protocol.MaxPayloadSize {
		return fmt.Errorf("sender.frame_size must be in [1, %d], got %d",
			protocol.MaxPayloadSize, c.Sender.FrameSize)
	}

	switch strings.ToLower(strings.TrimSpace(c.Report.Format)) {
	case "", "json", "cbor":
	default:
		return fmt.Errorf("invalid report.format: %q", c.Report.Format)
	}
	return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
