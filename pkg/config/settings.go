package config

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variables that override Settings,
// e.g. NEBULA_LOG_LEVEL.
const EnvPrefix = "NEBULA"

// Settings are process-level options, independent of the connection
// configuration. They come from CLI flags and NEBULA_* environment variables.
type Settings struct {
	// Source selects the registered connector
	Source string `mapstructure:"source" default:"elasticsearch"`
	// LogLevel is a zap level name
	LogLevel string `mapstructure:"log_level" default:"info"`
	// LogEncoding is "json", "console" or "protocol"
	LogEncoding string `mapstructure:"log_encoding" default:"protocol"`
	// MetricsFile, when set, receives a Prometheus textfile on exit
	MetricsFile string `mapstructure:"metrics_file"`
	// Trace enables OpenTelemetry spans written to stderr
	Trace bool `mapstructure:"trace"`
	// RequestTimeout bounds check and discover
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"30s"`
}

// LoadSettings unmarshals settings from v and fills anything left unset with
// its default.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := defaults.Set(&s); err != nil {
		return nil, fmt.Errorf("failed to apply setting defaults: %w", err)
	}
	return &s, nil
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() *Settings {
	s := &Settings{}
	_ = defaults.Set(s)
	return s
}
