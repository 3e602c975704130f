// Package config loads a MiniMCP instance's static runtime settings from
// YAML. Grounded on the teacher's internal/server.ServerConfig (the
// StringLevel/logFormat custom-flag-type pattern, goccy/go-yaml as the
// decoder), trimmed down to the fields spec.md's configuration surface
// actually needs -- no source/auth/tool-kind polymorphic config here, since
// minimcp's handlers are registered in Go code, not declared in YAML.
package config

import (
	"fmt"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/go-playground/validator/v10"
)

// ServerConfig is the static configuration for one MiniMCP instance plus its
// transports.
type ServerConfig struct {
	// Name is reported as serverInfo.name during initialize.
	Name string `yaml:"name" validate:"required"`
	// Version is reported as serverInfo.version during initialize.
	Version string `yaml:"version"`
	// Instructions is passed to the client during initialize.
	Instructions string `yaml:"instructions"`

	// Address is the interface the HTTP transports listen on.
	Address string `yaml:"address"`
	// Port is the port the HTTP transports listen on.
	Port int `yaml:"port" validate:"gte=0,lte=65535"`

	// IdleTimeout bounds how long a message may run without making progress.
	// A zero duration falls back to minimcp.DefaultIdleTimeout.
	IdleTimeout time.Duration `yaml:"idleTimeout"`
	// MaxConcurrency bounds how many messages may be processed at once.
	// A zero value falls back to minimcp.DefaultMaxConcurrency.
	MaxConcurrency int64 `yaml:"maxConcurrency" validate:"gte=0"`
	// IncludeStackTrace attaches a Go stack trace to INTERNAL_ERROR
	// responses -- never enable this in production.
	IncludeStackTrace bool `yaml:"includeStackTrace"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel LogLevel `yaml:"logLevel"`
	// LoggingFormat is one of standard/json.
	LoggingFormat LoggingFormat `yaml:"loggingFormat"`
}

// LogLevel is a validated severity string, following the teacher's
// StringLevel pattern (a named string type with its own Set/String methods
// instead of a bare string field).
type LogLevel string

func (l LogLevel) String() string {
	if l == "" {
		return "info"
	}
	return strings.ToLower(string(l))
}

func (l *LogLevel) Set(v string) error {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		*l = LogLevel(v)
		return nil
	default:
		return fmt.Errorf(`log level must be one of "debug", "info", "warn", or "error"`)
	}
}

// LoggingFormat selects plain or JSON structured logging output.
type LoggingFormat string

func (f LoggingFormat) String() string {
	if f == "" {
		return "standard"
	}
	return strings.ToLower(string(f))
}

func (f *LoggingFormat) Set(v string) error {
	switch strings.ToLower(v) {
	case "standard", "json":
		*f = LoggingFormat(v)
		return nil
	default:
		return fmt.Errorf(`logging format must be one of "standard" or "json"`)
	}
}

var validate = validator.New()

// Load parses raw YAML bytes into a ServerConfig and validates it.
func Load(raw []byte) (ServerConfig, error) {
	var cfg ServerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.LogLevel.Set(cfg.LogLevel.String()); err != nil {
		return ServerConfig{}, err
	}
	if err := cfg.LoggingFormat.Set(cfg.LoggingFormat.String()); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
