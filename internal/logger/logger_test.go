package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framebus/framebus/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{
			name: "json to stdout",
			cfg:  config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name: "text to stderr",
			cfg:  config.LoggingConfig{Level: "debug", Format: "text", Output: "stderr"},
		},
		{
			name:    "invalid level",
			cfg:     config.LoggingConfig{Level: "loud", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			cfg:     config.LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.NoError(t, log.Close())
		})
	}
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bus.log")
	log, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("test entry", "key", "value")
	require.NoError(t, log.Close())

	assert.FileExists(t, path)
}

func TestWithDoesNotOwnCloser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.log")
	log, err := New(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	defer log.Close()

	derived := log.With("component", "test")
	assert.NoError(t, derived.Close(), "closing a derived logger is a no-op")

	// The root logger's file handle is still usable.
	log.Info("still writable")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "info", want: LevelInfo},
		{input: "warn", want: LevelWarn},
		{input: "warning", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "silent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestGlobal(t *testing.T) {
	log, err := NewDefault()
	require.NoError(t, err)
	SetGlobal(log)

	assert.Same(t, log, Global())

	SetGlobal(nil)
	assert.NotNil(t, Global(), "global falls back to a default logger")
}
