package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/followrank/internal/rankcheck"
)

// Default configuration constants.
const (
	defaultWorkers     = 4
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		workers = flag.Int("workers", defaultWorkers, "Number of categories walked concurrently")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		report  = flag.String("report", "", "Write a JSON report to this file")
		logFile = flag.String("log", "", "Also write log output to this file")
		verbose = flag.Bool("verbose", false, "Log every walked category")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		rankcheck.ShowHelp()
		return
	}

	closeLog, err := rankcheck.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &rankcheck.Config{
		BaseURL: *baseURL,
		Workers: *workers,
		Timeout: *timeout,
		Report:  *report,
		Verbose: *verbose,
	}

	if _, err := rankcheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Check failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
