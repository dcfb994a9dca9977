package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/envcast/envconfig"
)

// Environment keys for the envcast binary's own settings.
const (
	KeyPort                = "ENVCAST_PORT"
	KeyShutdownGracePeriod = "ENVCAST_SHUTDOWN_GRACE_PERIOD"
	KeyReadHeaderTimeout   = "ENVCAST_READ_HEADER_TIMEOUT"
	KeyWriteTimeout        = "ENVCAST_WRITE_TIMEOUT"
	KeyIdleTimeout         = "ENVCAST_IDLE_TIMEOUT"
	KeyRequestLogging      = "ENVCAST_REQUEST_LOGGING"
	KeyRateLimitRPS        = "ENVCAST_RATE_LIMIT_RPS"
	KeyRateLimitBurst      = "ENVCAST_RATE_LIMIT_BURST"
	KeyLogLevel            = "ENVCAST_LOG_LEVEL"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// Config aggregates the runtime settings of the envcast binary.
// Precedence: CLI flags > Environment variables > .env file > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	DotEnvPath     string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	LogLevel       *string
}

// Load resolves the settings through envconfig and applies CLI overrides.
func Load(overrides *CLIOverrides) (Config, error) {
	opts := envconfig.Options{
		Defaults: defaults(),
		TypeDefs: ExtraTypes(),
		Logger:   zap.NewNop(),
	}
	if overrides != nil {
		opts.DotEnvPath = overrides.DotEnvPath
	}

	values, err := envconfig.Resolve(opts)
	if err != nil {
		return Config{}, fmt.Errorf("resolve settings: %w", err)
	}

	cfg, err := fromValues(values)
	if err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaults doubles as the type declaration: each value's Go type selects
// the cast applied to the matching environment variable.
func defaults() map[string]any {
	return map[string]any{
		KeyPort:                defaultPort,
		KeyShutdownGracePeriod: 10 * time.Second,
		KeyReadHeaderTimeout:   5 * time.Second,
		KeyWriteTimeout:        15 * time.Second,
		KeyIdleTimeout:         60 * time.Second,
		KeyRequestLogging:      true,
		KeyRateLimitRPS:        defaultRateLimitRPS,
		KeyRateLimitBurst:      defaultRateLimitBurst,
		KeyLogLevel:            defaultLogLevel,
	}
}

func fromValues(values map[string]any) (Config, error) {
	var cfg Config
	var err error

	if cfg.Port, err = typed[string](values, KeyPort); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownGracePeriod, err = typed[time.Duration](values, KeyShutdownGracePeriod); err != nil {
		return Config{}, err
	}
	if cfg.ReadHeaderTimeout, err = typed[time.Duration](values, KeyReadHeaderTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = typed[time.Duration](values, KeyWriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.IdleTimeout, err = typed[time.Duration](values, KeyIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.EnableRequestLogging, err = typed[bool](values, KeyRequestLogging); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = typed[float64](values, KeyRateLimitRPS); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = typed[int](values, KeyRateLimitBurst); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = typed[string](values, KeyLogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func typed[T any](values map[string]any, key string) (T, error) {
	v, ok := values[key].(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: unexpected value type %T", key, values[key])
	}
	return v, nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("%s must not be empty", KeyPort)
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("%s must be >= 0", KeyRateLimitRPS)
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("%s must be >= 0", KeyRateLimitBurst)
	}
	return nil
}
