package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete configuration for the framebus CLI
type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Host      HostConfig      `json:"host" yaml:"host"`
	Child     ChildConfig     `json:"child" yaml:"child"`
	Transport TransportConfig `json:"transport" yaml:"transport"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
	Output string `json:"output" yaml:"output"` // stdout, stderr, file path
}

// HostConfig contains host bus configuration
type HostConfig struct {
	ListenAddr     string   `json:"listen_addr" yaml:"listen_addr"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// ChildConfig contains child bus configuration
type ChildConfig struct {
	HostURL string `json:"host_url" yaml:"host_url"`
	Origin  string `json:"origin" yaml:"origin"`
}

// TransportConfig contains websocket transport tuning
type TransportConfig struct {
	ReadLimit    int64         `json:"read_limit" yaml:"read_limit"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
	PingInterval time.Duration `json:"ping_interval" yaml:"ping_interval"`
	SendBuffer   int           `json:"send_buffer" yaml:"send_buffer"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	return nil
}

// Validate checks the logging configuration
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}
	return nil
}

// Validate checks the host configuration. It is only enforced when the
// host subcommand runs, so empty values are tolerated elsewhere.
func (c *HostConfig) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin is required")
	}
	for _, o := range c.AllowedOrigins {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("allowed origin cannot be empty")
		}
	}
	return nil
}

// Validate checks the child configuration, enforced by the child subcommand
func (c *ChildConfig) Validate() error {
	if c.HostURL == "" {
		return fmt.Errorf("host URL cannot be empty")
	}
	if c.Origin == "" {
		return fmt.Errorf("child origin cannot be empty")
	}
	return nil
}

// Validate checks the transport configuration
func (c *TransportConfig) Validate() error {
	if c.ReadLimit <= 0 {
		return fmt.Errorf("read limit must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("ping interval must be positive")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send buffer must be positive")
	}
	return nil
}
