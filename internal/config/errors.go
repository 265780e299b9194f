package config

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	ErrEmptyAddr    = fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	ErrEmptyDataDir = fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	ErrInvalidPool  = fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
)

// WrapLoad annotates an external loading error with the package sentinel.
func WrapLoad(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrLoadConfig, err)
}
