package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load builds the configuration from defaults overlaid with environment
// variables. CLI flag overrides are applied by the caller afterwards.
func Load() (*Config, error) {
	cfg := Default()

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLogOutput); v != "" {
		cfg.Logging.Output = v
	}

	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.Host.ListenAddr = v
	}
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		cfg.Host.AllowedOrigins = splitOrigins(v)
	}

	if v := os.Getenv(EnvHostURL); v != "" {
		cfg.Child.HostURL = v
	}
	if v := os.Getenv(EnvChildOrigin); v != "" {
		cfg.Child.Origin = v
	}

	if v := os.Getenv(EnvReadLimit); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvReadLimit, err)
		}
		cfg.Transport.ReadLimit = n
	}
	if v := os.Getenv(EnvWriteTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvWriteTimeout, err)
		}
		cfg.Transport.WriteTimeout = d
	}
	if v := os.Getenv(EnvPingInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPingInterval, err)
		}
		cfg.Transport.PingInterval = d
	}
	if v := os.Getenv(EnvSendBuffer); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSendBuffer, err)
		}
		cfg.Transport.SendBuffer = n
	}

	return cfg, nil
}

// splitOrigins parses a comma-separated origin list, dropping empty entries
func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
