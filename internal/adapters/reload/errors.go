package reload

import "errors"

// Sentinel kinds for reload errors.
var (
	ErrStopped = errors.New("reloader stopped")
	ErrBusy    = errors.New("reload already pending")
)
