// Package reload fetches snapshots from a source and publishes them.
//
// Requests coalesce: at most one reload is pending at any time and one
// worker performs them, so a burst of triggers costs a single fetch.
package reload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/okian/followrank/internal/adapters/source"
	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/pkg/logger"
	"github.com/okian/followrank/pkg/metrics"
)

// Reload results used as metric labels.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// Publisher receives validated snapshots.
type Publisher interface {
	Replace(snapshot *model.Snapshot) error
}

// Stats is a point-in-time view of reload activity.
type Stats struct {
	Attempts  int64
	Successes int64
	Failures  int64
	Rejected  int64
	LastError string
	LastAt    time.Time
}

// Reloader owns the reload worker and its optional cron schedule.
type Reloader struct {
	source    source.Source
	store     Publisher
	schedule  string
	onPublish func(ctx context.Context, snapshot *model.Snapshot)
	logger    logger.Logger

	requests chan struct{}
	loadMu   sync.Mutex // one load at a time across worker and ReloadNow
	cron     *cron.Cron

	started  atomic.Bool
	stopped  atomic.Bool
	shutdown chan struct{}
	done     chan struct{}

	attempts  atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	rejected  atomic.Int64
	lastMu    sync.Mutex
	lastErr   string
	lastAt    time.Time
}

// New creates a Reloader that loads from src into store.
func New(src source.Source, store Publisher, opts ...Option) *Reloader {
	r := &Reloader{
		source:   src,
		store:    store,
		logger:   logger.Get().Named("reload"),
		requests: make(chan struct{}, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the worker and, when configured, the cron schedule.
func (r *Reloader) Start(ctx context.Context) error {
	if r.stopped.Load() {
		return ErrStopped
	}
	if !r.started.CompareAndSwap(false, true) {
		return nil
	}
	if r.schedule != "" {
		r.cron = cron.New()
		if _, err := r.cron.AddFunc(r.schedule, r.scheduled); err != nil {
			r.cron = nil
			r.started.Store(false)
			return fmt.Errorf("reload schedule %q: %w", r.schedule, err)
		}
		r.cron.Start()
		r.logger.Info(ctx, "reload schedule active", logger.String("cron", r.schedule))
	}
	go r.run(ctx)
	return nil
}

func (r *Reloader) scheduled() {
	if err := r.Trigger(); err != nil && !errors.Is(err, ErrBusy) {
		r.logger.Debug(context.Background(), "scheduled reload skipped", logger.Error(err))
	}
}

// Trigger queues a reload. It returns ErrBusy if one is already pending.
func (r *Reloader) Trigger() error {
	if r.stopped.Load() {
		return ErrStopped
	}
	select {
	case r.requests <- struct{}{}:
		return nil
	default:
		return ErrBusy
	}
}

// ReloadNow loads synchronously and returns the published snapshot.
func (r *Reloader) ReloadNow(ctx context.Context) (*model.Snapshot, error) {
	if r.stopped.Load() {
		return nil, ErrStopped
	}
	return r.load(ctx)
}

func (r *Reloader) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case <-r.requests:
			if _, err := r.load(ctx); err != nil {
				r.logger.Warn(ctx, "reload failed, previous snapshot retained", logger.Error(err))
			}
		}
	}
}

// Stop ends the schedule and the worker. A load in progress is allowed to finish.
func (r *Reloader) Stop(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(r.shutdown)
	if r.cron != nil {
		cronDone := r.cron.Stop()
		select {
		case <-cronDone.Done():
		case <-ctx.Done():
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	if !r.started.Load() {
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// load fetches, validates and publishes one snapshot.
func (r *Reloader) load(ctx context.Context) (*model.Snapshot, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	r.attempts.Add(1)
	name := r.source.Name()
	start := time.Now()
	entities, err := r.source.Fetch(ctx)
	latency := float64(time.Since(start).Milliseconds())
	metrics.RecordSourceFetchLatency(name, latency)
	if err != nil {
		r.failures.Add(1)
		r.record(err)
		metrics.RecordReload(ResultFailure)
		metrics.RecordErrorByComponent("reload", "fetch")
		metrics.RecordErrorLatency("reload", "fetch", latency)
		return nil, fmt.Errorf("fetch from %s: %w", name, err)
	}

	snapshot, err := model.NewSnapshot(name, entities)
	if err != nil {
		r.rejected.Add(1)
		r.record(err)
		metrics.RecordReload(ResultRejected)
		var cv *model.ContractViolation
		if errors.As(err, &cv) {
			metrics.RecordContractViolation(cv.Field)
		}
		metrics.RecordErrorByComponent("reload", "contract_violation")
		return nil, fmt.Errorf("snapshot from %s rejected: %w", name, err)
	}

	if err := r.store.Replace(snapshot); err != nil {
		r.failures.Add(1)
		r.record(err)
		metrics.RecordReload(ResultFailure)
		return nil, fmt.Errorf("publish snapshot: %w", err)
	}

	r.successes.Add(1)
	r.record(nil)
	metrics.RecordReload(ResultSuccess)
	r.logger.Info(ctx, "snapshot published",
		logger.String("from", name),
		logger.String("version", snapshot.Version()),
		logger.Int("entities", snapshot.Len()),
		logger.Float64("fetch_ms", latency))

	if r.onPublish != nil {
		r.onPublish(ctx, snapshot)
	}
	return snapshot, nil
}

func (r *Reloader) record(err error) {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	r.lastAt = time.Now()
	if err != nil {
		r.lastErr = err.Error()
	} else {
		r.lastErr = ""
	}
}

// Stats returns reload counters.
func (r *Reloader) Stats() Stats {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	return Stats{
		Attempts:  r.attempts.Load(),
		Successes: r.successes.Load(),
		Failures:  r.failures.Load(),
		Rejected:  r.rejected.Load(),
		LastError: r.lastErr,
		LastAt:    r.lastAt,
	}
}
