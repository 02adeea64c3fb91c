package rankcheck

// File permission constants.
const (
	reportFilePermission = 0o600
	directoryPermission  = 0o750
)

// Walk limits.
const (
	// maxPages stops a walk whose pagination never ends.
	maxPages = 10_000
	// maxBodyBytes bounds one response body.
	maxBodyBytes = 8 << 20
)
