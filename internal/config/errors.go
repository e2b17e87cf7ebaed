package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrMissingKey marks a required configuration key that is absent.
	ErrMissingKey = errors.New("missing required config key")
	// ErrInvalidConfig marks a present but unusable configuration value.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures while reading configuration sources.
	ErrLoadConfig = errors.New("load config failed")
)
