package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNoSnapshot  = errors.New("no snapshot loaded")
	ErrNilSnapshot = errors.New("snapshot must not be nil")
)
