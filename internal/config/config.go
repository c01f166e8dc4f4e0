package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion              = 1
	DefaultPath                = "/etc/isyhub/config.yaml"
	DefaultHTTPAddr            = "0.0.0.0:8080"
	DefaultDashboardDir        = "/var/lib/isyhub/dashboards"
	DefaultISYTimeoutSeconds   = 10
	DefaultISYRequestsPerSec   = 5
	DefaultMQTTPort            = 1883
	DefaultMQTTTopicPrefix     = "isyhub"
	DefaultMQTTIntervalSeconds = 30
)

// Config is the root of the YAML config file. Plugin sections are
// pointers: presence enables the plugin.
type Config struct {
	SchemaVersion int             `yaml:"schema_version"`
	Core          *CoreConfig     `yaml:"core"`
	ISY           *ISYConfig      `yaml:"isy"`
	MQTT          *MQTTConfig     `yaml:"mqtt"`
	Overview      *OverviewConfig `yaml:"overview"`
}

// CoreConfig configures the hub server itself. Plugins is an optional
// allowlist narrowing which configured plugins run; empty means all.
type CoreConfig struct {
	HTTPAddr     string   `yaml:"http_addr"`
	DashboardDir string   `yaml:"dashboard_dir"`
	Plugins      []string `yaml:"plugins"`
}

// ISYConfig configures the connection to the controller.
type ISYConfig struct {
	Host               string `yaml:"host"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	PasswordFile       string `yaml:"password_file"`
	UseHTTPS           bool   `yaml:"use_https"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RequestsPerSecond  int    `yaml:"requests_per_second"`
}

// MQTTConfig configures the state bridge to an MQTT broker.
type MQTTConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	TLS             bool   `yaml:"tls"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// OverviewConfig enables the hub-level overview dashboard plugin.
type OverviewConfig struct{}

// Load parses the YAML config file, applies defaults, and validates.
// Decoding is strict: unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core == nil {
		cfg.Core = &CoreConfig{}
	}
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Core.DashboardDir == "" {
		cfg.Core.DashboardDir = DefaultDashboardDir
	}

	if cfg.ISY != nil {
		if cfg.ISY.TimeoutSeconds == 0 {
			cfg.ISY.TimeoutSeconds = DefaultISYTimeoutSeconds
		}
		if cfg.ISY.RequestsPerSecond == 0 {
			cfg.ISY.RequestsPerSecond = DefaultISYRequestsPerSec
		}
	}

	if cfg.MQTT != nil {
		if cfg.MQTT.Port == 0 {
			cfg.MQTT.Port = DefaultMQTTPort
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
		}
		if cfg.MQTT.IntervalSeconds == 0 {
			cfg.MQTT.IntervalSeconds = DefaultMQTTIntervalSeconds
		}
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core == nil {
		return fmt.Errorf("core config is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}
	for _, name := range cfg.Core.Plugins {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("core.plugins must not contain empty names")
		}
	}

	if cfg.ISY != nil {
		if strings.TrimSpace(cfg.ISY.Host) == "" {
			return fmt.Errorf("isy.host is required")
		}
		if cfg.ISY.Username == "" {
			return fmt.Errorf("isy.username is required")
		}
		if cfg.ISY.Password == "" && cfg.ISY.PasswordFile == "" {
			return fmt.Errorf("isy.password or isy.password_file is required")
		}
		if cfg.ISY.Password != "" && cfg.ISY.PasswordFile != "" {
			return fmt.Errorf("isy.password and isy.password_file are mutually exclusive")
		}
	}

	if cfg.MQTT != nil {
		if strings.TrimSpace(cfg.MQTT.Host) == "" {
			return fmt.Errorf("mqtt.host is required")
		}
		if cfg.MQTT.TopicPrefix != "" && strings.HasSuffix(cfg.MQTT.TopicPrefix, "/") {
			return fmt.Errorf("mqtt.topic_prefix must not end with /")
		}
	}

	return nil
}

// ResolvePassword returns the controller password, reading the password
// file when configured.
func (c *ISYConfig) ResolvePassword() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	data, err := os.ReadFile(c.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("read isy password file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// EnabledPlugins returns the core.plugins allowlist as a set. allowAll
// reports an absent allowlist: every configured plugin runs.
func (c *Config) EnabledPlugins() (enabled map[string]bool, allowAll bool) {
	enabled = make(map[string]bool)
	if c == nil || c.Core == nil || len(c.Core.Plugins) == 0 {
		return enabled, true
	}
	for _, name := range c.Core.Plugins {
		enabled[name] = true
	}
	return enabled, false
}
