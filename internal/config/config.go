// Package config loads and persists the sdrctl client configuration.
// Precedence, lowest to highest: built-in defaults, the JSON config
// file, NETSDR_* environment variables, command-line flags (applied by
// the CLI layer after Load).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SSH holds the optional control-channel tunnel settings. The tunnel is
// used when Host is non-empty.
type SSH struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	KeyPath  string `json:"key_path,omitempty"`
}

// Config is the persisted client configuration.
type Config struct {
	// ControlAddr is the receiver's control host:port.
	ControlAddr string `json:"control_addr"`
	// DataPort is the local UDP port the IQ stream arrives on. 0 picks
	// an ephemeral port.
	DataPort int `json:"data_port"`
	// ReplyTimeout bounds each control-reply await, e.g. "5s".
	ReplyTimeout Duration `json:"reply_timeout"`
	// SampleRate is the IQ output rate configured during pre-setup.
	SampleRate uint32 `json:"sample_rate"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file,omitempty"`

	// TelemetryAddr is the listen address of the stats web server.
	TelemetryAddr string `json:"telemetry_addr"`
	// PlanPath points at the YAML channel plan, empty for none.
	PlanPath string `json:"plan_path,omitempty"`

	SSH SSH `json:"ssh,omitempty"`
}

// Duration marshals as a human-readable string ("5s") in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ControlAddr:   "netsdr.local:50000",
		DataPort:      60000,
		ReplyTimeout:  Duration(5 * time.Second),
		SampleRate:    196078,
		LogLevel:      "info",
		LogFormat:     "text",
		TelemetryAddr: "127.0.0.1:8090",
	}
}

// DefaultPath returns the default config file location,
// ~/.gonetsdr/config.json.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".gonetsdr", "config.json")
	}
	return filepath.Join(home, ".gonetsdr", "config.json")
}

// Load reads the config at path, creating it with defaults when it does
// not exist yet, then applies NETSDR_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := Save(path, cfg); err != nil {
			return Config{}, fmt.Errorf("write initial config: %w", err)
		}
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed. The
// file may hold an SSH password, so it is not group or world readable.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Validate checks value ranges after all override layers are applied.
func (c Config) Validate() error {
	if c.ControlAddr == "" {
		return fmt.Errorf("control_addr must not be empty")
	}
	if c.DataPort < 0 || c.DataPort > 65535 {
		return fmt.Errorf("data_port %d outside 0..65535", c.DataPort)
	}
	if c.ReplyTimeout < 0 {
		return fmt.Errorf("reply_timeout must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NETSDR_CONTROL_ADDR"); v != "" {
		c.ControlAddr = v
	}
	if v := os.Getenv("NETSDR_DATA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NETSDR_DATA_PORT %q: %w", v, err)
		}
		c.DataPort = port
	}
	if v := os.Getenv("NETSDR_REPLY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NETSDR_REPLY_TIMEOUT %q: %w", v, err)
		}
		c.ReplyTimeout = Duration(d)
	}
	if v := os.Getenv("NETSDR_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("NETSDR_SAMPLE_RATE %q: %w", v, err)
		}
		c.SampleRate = uint32(rate)
	}
	if v := os.Getenv("NETSDR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NETSDR_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("NETSDR_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("NETSDR_TELEMETRY_ADDR"); v != "" {
		c.TelemetryAddr = v
	}
	if v := os.Getenv("NETSDR_PLAN_PATH"); v != "" {
		c.PlanPath = v
	}
	return nil
}
