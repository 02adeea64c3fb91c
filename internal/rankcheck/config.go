package rankcheck

import "time"

// Config holds configuration for one check run.
type Config struct {
	BaseURL string        // Base URL of the service
	Workers int           // Number of categories walked concurrently
	Timeout time.Duration // HTTP request timeout
	Report  string        // Optional JSON report file
	Verbose bool          // Log every page
}

// Report summarizes a check run.
type Report struct {
	SnapshotVersion string        `json:"snapshot_version"`
	Categories      int           `json:"categories"`
	PagesFetched    int           `json:"pages_fetched"`
	RowsChecked     int           `json:"rows_checked"`
	SessionChecked  bool          `json:"session_checked"`
	Failures        []string      `json:"failures,omitempty"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Duration        time.Duration `json:"duration"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool { return len(r.Failures) == 0 }
