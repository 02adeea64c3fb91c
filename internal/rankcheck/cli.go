package rankcheck

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/followrank/pkg/logger"
)

// Log file permission.
const logFilePermission = 0o600

// SetupLogging configures logging to stdout and, when logFile is set, to
// that file as well. The returned function closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	var w io.Writer = os.Stdout
	closer := func() error { return nil }
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file.Close
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

// ShowHelp prints usage information for the rank check tool.
func ShowHelp() {
	os.Stdout.WriteString(`followrank ranking check
========================

Walks every category and every page of a running followrank server and
verifies that the pages form one consistent ranking.

Checks:
  - rows are in descending follower order, ties in source order
  - ranks are continuous across pages
  - concatenated pages equal /entities?order=metric filtered by category
  - selecting a category returns a session to page 1

Usage:
  go run ./cmd/rankcheck [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -workers int
        Number of categories walked concurrently (default 4)
  -timeout duration
        HTTP request timeout (default 10s)
  -report string
        Write a JSON report to this file
  -log string
        Also write log output to this file
  -verbose
        Log every walked category
  -help
        Show this help message

Examples:
  # Check a local server
  go run ./cmd/rankcheck

  # Check a remote server and keep a report
  go run ./cmd/rankcheck -url http://ranking.internal:9080 -report out/check.json
`)
}
