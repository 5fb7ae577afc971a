// Copyright 2026 The Duovoice Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/duovoice/duovoice/lib/ref"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local runs against a test guild.
	Development Environment = "development"
	// Production is the long-running bot.
	Production Environment = "production"
)

// Config is the complete duovoice configuration.
type Config struct {
	// Environment selects which override section applies. Only settable
	// from the file.
	Environment Environment `yaml:"environment"`

	Discord   DiscordConfig   `yaml:"discord"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Per-environment overrides, applied after the base file.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains the fields that can differ per environment.
type Overrides struct {
	Log       *LogConfig       `yaml:"log,omitempty"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// DiscordConfig configures the platform connection.
type DiscordConfig struct {
	// Token is the bot token.
	Token string `yaml:"token" env:"TOKEN"`

	// APIURL is the versioned HTTP API root.
	// Default: https://discord.com/api/v10
	APIURL string `yaml:"api_url" env:"DUOVOICE_API_URL"`

	// GatewayURL skips gateway discovery when set.
	GatewayURL string `yaml:"gateway_url" env:"DUOVOICE_GATEWAY_URL"`

	// Compress requests zlib-stream compression on the gateway.
	// Default: true
	Compress bool `yaml:"compress" env:"DUOVOICE_GATEWAY_COMPRESS"`

	// RequestsPerSecond paces REST calls. Negative disables pacing.
	// Default: 45
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"DUOVOICE_REQUESTS_PER_SECOND"`
}

// RoomsConfig configures the room lifecycle.
type RoomsConfig struct {
	// TriggerChannelID is the voice channel whose joins create rooms.
	TriggerChannelID ref.ChannelID `yaml:"trigger_channel_id" env:"TRIGGER_CHANNEL_ID"`

	// CategoryID is the category new rooms are created under.
	CategoryID ref.ChannelID `yaml:"category_id" env:"CATEGORY_ID"`

	// LogCategory lists the category's rooms after each allocation.
	// Default: true
	LogCategory bool `yaml:"log_category" env:"DUOVOICE_LOG_CATEGORY"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level" env:"DUOVOICE_LOG_LEVEL"`

	// Format is json or text. Default: json
	Format string `yaml:"format" env:"DUOVOICE_LOG_FORMAT"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP/HTTP traces URL. Empty disables tracing.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"DUOVOICE_OTEL_ENDPOINT"`

	// ServiceName is reported as service.name. Default: duovoice
	ServiceName string `yaml:"service_name" env:"DUOVOICE_SERVICE_NAME"`
}

// LoadOptions selects the configuration sources.
type LoadOptions struct {
	// Path is the YAML file. If empty, DUOVOICE_CONFIG is consulted;
	// if that is empty too, no file is read.
	Path string

	// EnvFiles are .env files to load. If empty, ./.env is loaded when
	// it exists.
	EnvFiles []string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Environment: Development,
		Discord: DiscordConfig{
			APIURL:            "https://discord.com/api/v10",
			Compress:          true,
			RequestsPerSecond: 45,
		},
		Rooms: RoomsConfig{
			LogCategory: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "duovoice",
		},
	}
}

// Load builds the configuration from every source and validates it.
func Load(options LoadOptions) (*Config, error) {
	cfg := Default()

	path := options.Path
	if path == "" {
		path = os.Getenv("DUOVOICE_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := loadEnvFiles(options.EnvFiles); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadFile merges a YAML file into the config. Unknown keys are errors.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// loadEnvFiles loads .env files into the process environment without
// overriding variables that are already set.
func loadEnvFiles(paths []string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config: loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("config: loading env files %v: %w", paths, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the section for the selected
// environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &Overrides{Log: &LogConfig{Level: "info", Format: "json"}}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
	if overrides.Telemetry != nil {
		if overrides.Telemetry.OTLPEndpoint != "" {
			c.Telemetry.OTLPEndpoint = overrides.Telemetry.OTLPEndpoint
		}
		if overrides.Telemetry.ServiceName != "" {
			c.Telemetry.ServiceName = overrides.Telemetry.ServiceName
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token (TOKEN) is required"))
	}
	if c.Discord.APIURL == "" {
		errs = append(errs, fmt.Errorf("discord.api_url is required"))
	}
	if c.Rooms.TriggerChannelID.IsZero() {
		errs = append(errs, fmt.Errorf("rooms.trigger_channel_id (TRIGGER_CHANNEL_ID) is required"))
	}
	if c.Rooms.CategoryID.IsZero() {
		errs = append(errs, fmt.Errorf("rooms.category_id (CATEGORY_ID) is required"))
	}
	if !c.Rooms.TriggerChannelID.IsZero() && c.Rooms.TriggerChannelID == c.Rooms.CategoryID {
		errs = append(errs, fmt.Errorf("rooms.trigger_channel_id and rooms.category_id must differ"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
