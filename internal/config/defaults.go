package config

import "time"

const (
	// Environment variable names
	EnvLogLevel       = "FRAMEBUS_LOG_LEVEL"
	EnvLogFormat      = "FRAMEBUS_LOG_FORMAT"
	EnvLogOutput      = "FRAMEBUS_LOG_OUTPUT"
	EnvListenAddr     = "FRAMEBUS_LISTEN_ADDR"
	EnvAllowedOrigins = "FRAMEBUS_ALLOWED_ORIGINS"
	EnvHostURL        = "FRAMEBUS_HOST_URL"
	EnvChildOrigin    = "FRAMEBUS_CHILD_ORIGIN"
	EnvReadLimit      = "FRAMEBUS_READ_LIMIT"
	EnvWriteTimeout   = "FRAMEBUS_WRITE_TIMEOUT"
	EnvPingInterval   = "FRAMEBUS_PING_INTERVAL"
	EnvSendBuffer     = "FRAMEBUS_SEND_BUFFER"
)

const (
	// Default logging settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stdout"

	// Default host settings
	DefaultListenAddr = "127.0.0.1:8790"

	// Default transport settings
	DefaultReadLimit    = 1 << 20 // 1 MiB per message
	DefaultWriteTimeout = 10 * time.Second
	DefaultPingInterval = 30 * time.Second
	DefaultSendBuffer   = 256
)

// DefaultLoggingConfig returns the default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  DefaultLogLevel,
		Format: DefaultLogFormat,
		Output: DefaultLogOutput,
	}
}

// DefaultHostConfig returns the default host configuration
func DefaultHostConfig() HostConfig {
	return HostConfig{
		ListenAddr:     DefaultListenAddr,
		AllowedOrigins: nil,
	}
}

// DefaultChildConfig returns the default child configuration
func DefaultChildConfig() ChildConfig {
	return ChildConfig{}
}

// DefaultTransportConfig returns the default transport configuration
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ReadLimit:    DefaultReadLimit,
		WriteTimeout: DefaultWriteTimeout,
		PingInterval: DefaultPingInterval,
		SendBuffer:   DefaultSendBuffer,
	}
}

// Default returns the complete default configuration
func Default() *Config {
	return &Config{
		Logging:   DefaultLoggingConfig(),
		Host:      DefaultHostConfig(),
		Child:     DefaultChildConfig(),
		Transport: DefaultTransportConfig(),
	}
}
