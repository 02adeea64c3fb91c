// Package rankcheck walks a running followrank server and verifies that
// every category's pages form one consistent ranking.
package rankcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/internal/domain/types"
	"github.com/okian/followrank/pkg/logger"
)

// Run executes the complete check. The report is returned even when
// verification fails so callers can inspect the failures.
func Run(ctx context.Context, config *Config) (*Report, error) {
	report := &Report{StartTime: time.Now()}
	log := logger.Get().Named("rankcheck")
	c := newClient(config.BaseURL, config.Timeout)

	log.Info(ctx, "starting ranking check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	// Step 1: Check service health
	if err := c.health(ctx); err != nil {
		return report, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}

	// Step 2: Read the full order and the categories
	all, err := c.entitiesByMetric(ctx)
	if err != nil {
		return report, fmt.Errorf("list entities: %w", err)
	}
	cats, err := c.categories(ctx)
	if err != nil {
		return report, fmt.Errorf("list categories: %w", err)
	}
	report.SnapshotVersion = all.SnapshotVersion
	report.Categories = len(cats.Categories)
	if cats.SnapshotVersion != all.SnapshotVersion {
		report.Failures = append(report.Failures,
			fmt.Sprintf("snapshot changed between /entities (%s) and /categories (%s)", all.SnapshotVersion, cats.SnapshotVersion))
	}
	if len(cats.Categories) == 0 || cats.Categories[0] != ranking.All {
		report.Failures = append(report.Failures, fmt.Sprintf("categories %v do not start with %q", cats.Categories, ranking.All))
	}

	// Step 3: Walk every category concurrently
	if err := walkCategories(ctx, c, config, cats.Categories, all.Rows, report); err != nil {
		return report, err
	}

	// Step 4: Check that a category selection resets a session to page 1
	if err := checkSession(ctx, c, cats.Categories, report); err != nil {
		return report, err
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if config.Report != "" {
		if err := saveReport(config.Report, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}
	displayFinalStats(ctx, log, report)

	if !report.OK() {
		for _, f := range report.Failures {
			log.Error(ctx, "check failed", logger.String("failure", f))
		}
		return report, fmt.Errorf("%w: %d problems", ErrVerification, len(report.Failures))
	}
	log.Info(ctx, "check completed successfully")
	return report, nil
}

// walkCategories fetches every page of every category with a worker pool.
func walkCategories(ctx context.Context, c *client, config *Config, categories []string, all []types.Row, report *Report) error {
	workers := max(config.Workers, 1)
	work := make(chan string, workers*2)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	log := logger.Get().Named("rankcheck")

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for category := range work {
				pages, err := walk(ctx, c, category)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("walk %q: %w", category, err)
					}
					mu.Unlock()
					continue
				}
				report.PagesFetched += len(pages)
				for _, p := range pages {
					report.RowsChecked += len(p.Rows)
				}
				report.Failures = append(report.Failures, verifyWalk(category, pages, expectedRows(all, category))...)
				mu.Unlock()

				if config.Verbose {
					log.Info(ctx, "category walked",
						logger.String("category", category),
						logger.Int("pages", len(pages)))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, category := range categories {
			select {
			case <-ctx.Done():
				return
			case work <- category:
			}
		}
	}()

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// walk follows pagination from page 1 to the last page.
func walk(ctx context.Context, c *client, category string) ([]types.View, error) {
	first, err := c.ranking(ctx, category, 1)
	if err != nil {
		return nil, err
	}
	pages := []types.View{first}
	last := min(first.Pagination.TotalPages, maxPages)
	for p := 2; p <= last; p++ {
		view, err := c.ranking(ctx, category, p)
		if err != nil {
			return nil, err
		}
		pages = append(pages, view)
	}
	return pages, nil
}

// checkSession moves a fresh session forward, selects a category and
// expects the first page back.
func checkSession(ctx context.Context, c *client, categories []string, report *Report) error {
	category := ranking.All
	if len(categories) > 1 {
		category = categories[1]
	}

	created, err := c.createSession(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer func() { _ = c.deleteSession(context.WithoutCancel(ctx), created.SessionID) }()

	paged, err := c.requestPage(ctx, created.SessionID, max(created.View.Pagination.TotalPages, 1))
	if err != nil {
		return fmt.Errorf("request page: %w", err)
	}
	filtered, err := c.selectCategory(ctx, created.SessionID, category)
	if err != nil {
		return fmt.Errorf("select category: %w", err)
	}
	report.SessionChecked = true
	report.Failures = append(report.Failures, verifySessionReset(paged, filtered, category)...)
	return nil
}

// saveReport writes the report as indented JSON.
func saveReport(filename string, report *Report) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, reportFilePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// displayFinalStats logs the final check statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, report *Report) {
	log.Info(ctx, "final statistics",
		logger.String("snapshotVersion", report.SnapshotVersion),
		logger.Int("categories", report.Categories),
		logger.Int("pagesFetched", report.PagesFetched),
		logger.Int("rowsChecked", report.RowsChecked),
		logger.Bool("sessionChecked", report.SessionChecked),
		logger.Int("failures", len(report.Failures)),
		logger.Duration("duration", report.Duration))
}
