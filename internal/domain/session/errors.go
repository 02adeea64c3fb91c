package session

import "errors"

// ErrNotFound is returned for unknown or evicted session ids.
var ErrNotFound = errors.New("session not found")
