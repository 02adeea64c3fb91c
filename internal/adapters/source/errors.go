package source

import (
	"errors"
)

// Sentinel kinds for source errors.
var (
	ErrFetch  = errors.New("source fetch failed")
	ErrStatus = errors.New("source returned unexpected status")
	ErrDecode = errors.New("source payload could not be decoded")
)
