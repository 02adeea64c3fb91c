package config

import "errors"

// Sentinel error kinds. Validation problems wrap ErrInvalidConfig; file and
// environment problems wrap ErrLoadConfig.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrLoadConfig    = errors.New("failed to load configuration")
)
