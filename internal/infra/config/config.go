package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/mukuyev/elevator-control/internal/constants"
	"github.com/mukuyev/elevator-control/internal/domain"
)

// CarConfig carries the environment-tunable knobs for a car agent process.
// The CLI argv form described for the "car" command always takes precedence
// over these for the parameters it specifies explicitly (name, floor range,
// delay); these env vars only tune ambient behavior argv leaves unspecified.
type CarConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`

	ControllerAddress string        `env:"CONTROLLER_ADDRESS" envDefault:"127.0.0.1"`
	ControllerPort    int           `env:"CONTROLLER_PORT" envDefault:"3000"`
	DialTimeout       time.Duration `env:"DIAL_TIMEOUT" envDefault:"3s"`
	ReconnectBackoff  time.Duration `env:"RECONNECT_BACKOFF" envDefault:"1s"`

	ShmPollInterval time.Duration `env:"SHM_POLL_INTERVAL" envDefault:"10ms"`
}

// ControllerConfig carries the environment-tunable knobs for the controller
// process: its listening socket, metrics/websocket side listeners, and
// tracing.
type ControllerConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`

	ListenAddress string `env:"LISTEN_ADDRESS" envDefault:"127.0.0.1"`
	ListenPort    int    `env:"LISTEN_PORT" envDefault:"3000"`
	Backlog       int    `env:"LISTEN_BACKLOG" envDefault:"10"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsAddress string `env:"METRICS_ADDRESS" envDefault:"127.0.0.1:9090"`

	WebSocketEnabled bool   `env:"WEBSOCKET_ENABLED" envDefault:"false"`
	WebSocketAddress string `env:"WEBSOCKET_ADDRESS" envDefault:"127.0.0.1:9091"`
	WebSocketPath    string `env:"WEBSOCKET_PATH" envDefault:"/ws/status"`

	TracingEnabled bool `env:"TRACING_ENABLED" envDefault:"false"`
}

// SafetyConfig carries the environment-tunable knobs for the safety monitor
// process: how often it polls its car's block. The car to watch comes from
// argv, not from the environment.
type SafetyConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`

	PollInterval time.Duration `env:"SAFETY_POLL_INTERVAL" envDefault:"1s"`
}

// InitCarConfig parses a CarConfig from the environment and validates it.
func InitCarConfig() (*CarConfig, error) {
	cfg := CarConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse car environment variables: %w", err)
	}
	if err := validateCarConfig(&cfg); err != nil {
		return nil, fmt.Errorf("car configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// InitControllerConfig parses a ControllerConfig from the environment and
// validates it.
func InitControllerConfig() (*ControllerConfig, error) {
	cfg := ControllerConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse controller environment variables: %w", err)
	}
	if err := validateControllerConfig(&cfg); err != nil {
		return nil, fmt.Errorf("controller configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// InitSafetyConfig parses a SafetyConfig from the environment and validates
// it.
func InitSafetyConfig() (*SafetyConfig, error) {
	cfg := SafetyConfig{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse safety environment variables: %w", err)
	}
	if err := validateSafetyConfig(&cfg); err != nil {
		return nil, fmt.Errorf("safety configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func validateCarConfig(cfg *CarConfig) error {
	if cfg.ControllerPort <= 0 || cfg.ControllerPort > 65535 {
		return domain.NewValidationError("controller port must be between 1 and 65535", nil).
			WithContext("port", cfg.ControllerPort)
	}
	if cfg.DialTimeout <= 0 {
		return domain.NewValidationError("dial timeout must be positive", nil).
			WithContext("dial_timeout", cfg.DialTimeout)
	}
	if cfg.ShmPollInterval <= 0 {
		return domain.NewValidationError("shared memory poll interval must be positive", nil).
			WithContext("shm_poll_interval", cfg.ShmPollInterval)
	}
	return nil
}

func validateControllerConfig(cfg *ControllerConfig) error {
	if cfg.ListenPort <= 0 || cfg.ListenPort > 65535 {
		return domain.NewValidationError("listen port must be between 1 and 65535", nil).
			WithContext("port", cfg.ListenPort)
	}
	if cfg.Backlog <= 0 {
		return domain.NewValidationError("listen backlog must be positive", nil).
			WithContext("backlog", cfg.Backlog)
	}
	return nil
}

func validateSafetyConfig(cfg *SafetyConfig) error {
	if cfg.PollInterval <= 0 {
		return domain.NewValidationError("safety poll interval must be positive", nil).
			WithContext("poll_interval", cfg.PollInterval)
	}
	return nil
}

// ValidateFloorBounds checks a min/max floor pair read from argv against the
// system's absolute floor limits.
func ValidateFloorBounds(min, max domain.Floor) error {
	if min >= max {
		return domain.NewValidationError("min floor must be less than max floor", nil).
			WithContext("min_floor", min.Value()).
			WithContext("max_floor", max.Value())
	}
	if !min.IsValidAbsolute() {
		return domain.NewValidationError("min floor is below system minimum", nil).
			WithContext("min_floor", min.Value()).
			WithContext("system_minimum", constants.MinFloorValue)
	}
	if !max.IsValidAbsolute() {
		return domain.NewValidationError("max floor exceeds system maximum", nil).
			WithContext("max_floor", max.Value()).
			WithContext("system_maximum", constants.MaxFloorValue)
	}
	return nil
}
