// Package config carries the tunable knobs of the estimation and
// refutation machinery. Defaults reproduce the documented behavior of the
// examples; environment variables override them for experimentation.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the complete configuration.
type Config struct {
	Bootstrap BootstrapConfig
	Refute    RefuteConfig
	LogLevel  string
}

// BootstrapConfig controls bootstrap standard-error estimation.
type BootstrapConfig struct {
	Iterations int
	Seed       int64
	Workers    int
}

// RefuteConfig holds the fixed seeds and thresholds of the refutation
// checks. Downstream pass/fail outcomes depend on these exact values;
// change them only deliberately.
type RefuteConfig struct {
	NoiseSeed       int64
	PlaceboSeed     int64
	PlaceboTimeSeed int64
	WeakInstrumentF float64
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Bootstrap: BootstrapConfig{
			Iterations: 500,
			Seed:       42,
			Workers:    runtime.NumCPU(),
		},
		Refute: RefuteConfig{
			NoiseSeed:       54321,
			PlaceboSeed:     99999,
			PlaceboTimeSeed: 22222,
			WeakInstrumentF: 10.0,
		},
		LogLevel: "INFO",
	}
}

// Load reads configuration from the environment, consulting a .env file
// when one is present, and validates it.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := Default()
	var err error

	if cfg.Bootstrap.Iterations, err = envInt("CAUSALKIT_BOOTSTRAP_N", cfg.Bootstrap.Iterations); err != nil {
		return nil, err
	}
	if cfg.Bootstrap.Seed, err = envInt64("CAUSALKIT_BOOTSTRAP_SEED", cfg.Bootstrap.Seed); err != nil {
		return nil, err
	}
	if cfg.Bootstrap.Workers, err = envInt("CAUSALKIT_BOOTSTRAP_WORKERS", cfg.Bootstrap.Workers); err != nil {
		return nil, err
	}
	if cfg.Refute.NoiseSeed, err = envInt64("CAUSALKIT_REFUTE_NOISE_SEED", cfg.Refute.NoiseSeed); err != nil {
		return nil, err
	}
	if cfg.Refute.PlaceboSeed, err = envInt64("CAUSALKIT_REFUTE_PLACEBO_SEED", cfg.Refute.PlaceboSeed); err != nil {
		return nil, err
	}
	if cfg.Refute.PlaceboTimeSeed, err = envInt64("CAUSALKIT_REFUTE_PLACEBO_TIME_SEED", cfg.Refute.PlaceboTimeSeed); err != nil {
		return nil, err
	}
	if cfg.Refute.WeakInstrumentF, err = envFloat("CAUSALKIT_WEAK_INSTRUMENT_F", cfg.Refute.WeakInstrumentF); err != nil {
		return nil, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Bootstrap.Iterations <= 0 {
		return fmt.Errorf("invalid config: bootstrap iterations must be positive, got %d", c.Bootstrap.Iterations)
	}
	if c.Bootstrap.Workers <= 0 {
		return fmt.Errorf("invalid config: bootstrap workers must be positive, got %d", c.Bootstrap.Workers)
	}
	if c.Refute.WeakInstrumentF <= 0 {
		return fmt.Errorf("invalid config: weak-instrument threshold must be positive, got %f", c.Refute.WeakInstrumentF)
	}
	return nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid config: %s=%q is not an integer", key, v)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid config: %s=%q is not an integer", key, v)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid config: %s=%q is not a number", key, v)
	}
	return f, nil
}
