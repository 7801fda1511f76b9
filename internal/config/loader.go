// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Enforce UTC timezone to prevent drift bugs in run timestamps.
//  2. Load .env file via godotenv (non-fatal if absent).
//  3. Use envconfig to process struct tags and populate the Config struct.
//  4. Validate the struct using go-playground/validator.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is a diagnostic error type returned by Load to aid debugging.
type ConfigError struct {
	Stage   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads, populates, and validates the loader configuration.
// A missing .env file is not an error; anything else is fatal to startup.
func Load() (*Config, error) {
	// All run timestamps are UTC; pin the process timezone so local-time
	// formatting can never leak into results.
	time.Local = time.UTC

	if err := godotenv.Load(); err != nil {
		// Only a missing file is tolerated; a malformed one is not.
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Stage: "dotenv", Message: "failed to load .env file", Err: err}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{Stage: "envconfig", Message: "failed to process environment", Err: err}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{Stage: "validate", Message: "invalid configuration", Err: err}
	}

	return &cfg, nil
}
