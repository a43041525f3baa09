package config

import (
	"fmt"
	"time"
)

// LoggingConfig holds application logging configuration.
type LoggingConfig struct {
	// Level is the verbosity threshold (debug/info/warn/error).
	Level string `koanf:"level" validate:"required"`

	// Format selects the output format, "json" or "console".
	Format string `koanf:"format" validate:"required"`

	// SlowQueryThreshold is the duration beyond which a query is logged as
	// slow. Zero disables the slow query tracer. Env values must be
	// parseable durations such as "100ms" or "1s".
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate applies rules that go beyond struct tags.
func (c LoggingConfig) Validate() error {
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.Level)
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (must be json or console)", c.Format)
	}

	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("logging slow_query_threshold must be non-negative")
	}

	return nil
}
