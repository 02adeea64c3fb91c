// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/followrank/internal/adapters/reload"
	repository "github.com/okian/followrank/internal/adapters/repository"
	"github.com/okian/followrank/internal/adapters/source"
	"github.com/okian/followrank/internal/config"
	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/internal/domain/session"
	"github.com/okian/followrank/pkg/logger"
	"github.com/okian/followrank/pkg/metrics"
)

// View events recorded per session interaction.
const (
	eventCategorySelected = "category_selected"
	eventPageRequested    = "page_requested"
)

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.SnapshotStore
	cache    *ranking.Cache
	sessions *session.Registry
	source   source.Source
	reloader *reload.Reloader
	closers  []io.Closer

	// Configuration
	cfg      *config.Config
	override source.Source

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the service is built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithSource replaces the configured source kind with src.
// The fallback policy still applies on top of it.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		s.override = src
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service. Nothing is loaded until Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.cfg.CacheSize > 0 {
		s.cache = ranking.NewCache(
			ranking.WithCacheSize(s.cfg.CacheSize),
			ranking.WithCacheObserver(observeCache),
		)
	}
	s.store = repository.NewSnapshotStore(repository.WithCache(s.cache))

	sessions, err := session.NewRegistry(s.cfg.PageSize,
		session.WithMaxSize(s.cfg.SessionLimit),
		session.WithCache(s.cache),
	)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	s.sessions = sessions
	return s, nil
}

func observeCache(hit bool) {
	if hit {
		metrics.RecordCacheHit()
		return
	}
	metrics.RecordCacheMiss()
}

// Start opens the source, performs the first load synchronously and starts
// the reload worker. A failed first load is logged, never fatal.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting ranking service...")

	src, err := s.openSource(ctx)
	if err != nil {
		s.closeAll(ctx)
		return err
	}
	s.source = s.applyFallback(src)

	s.reloader = reload.New(s.source, s.store,
		reload.WithSchedule(s.cfg.ReloadCron),
		reload.WithOnPublish(s.onPublish),
		reload.WithLogger(s.logger.Named("reload")),
	)
	if _, err := s.reloader.ReloadNow(ctx); err != nil {
		s.logger.Warn(ctx, "initial load failed",
			logger.String("fallback", s.cfg.Fallback),
			logger.Int("entities", s.store.Count()),
			logger.Error(err))
	}
	if err := s.reloader.Start(ctx); err != nil {
		s.closeAll(ctx)
		return fmt.Errorf("start reloader: %w", err)
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "ranking service started",
		logger.String("from", s.source.Name()),
		logger.String("version", s.store.Version()),
		logger.Int("entities", s.store.Count()),
		logger.Int("pageSize", s.cfg.PageSize),
	)
	return nil
}

// openSource builds the primary source for the configured kind.
func (s *Service) openSource(ctx context.Context) (source.Source, error) {
	if s.override != nil {
		return s.override, nil
	}
	switch s.cfg.SourceKind {
	case config.SourceHTTP:
		return source.NewHTTPSource(s.cfg.SourceURL,
			source.WithTimeout(time.Duration(s.cfg.SourceTimeoutMS)*time.Millisecond),
			source.WithRate(s.cfg.SourceRatePerSec),
		), nil
	case config.SourceFile:
		return source.NewFileSource(s.cfg.SourceFile), nil
	case config.SourceSQLite:
		db, err := source.OpenSQLite(ctx, s.cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db)
		if err := s.seed(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	default:
		return source.Builtin(), nil
	}
}

// seed imports the seed file into an empty database.
func (s *Service) seed(ctx context.Context, db *source.SQLiteSource) error {
	if s.cfg.SeedFile == "" {
		return nil
	}
	n, err := db.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	entities, err := source.NewFileSource(s.cfg.SeedFile).Fetch(ctx)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	if err := db.Import(ctx, entities); err != nil {
		return fmt.Errorf("import seed file: %w", err)
	}
	s.logger.Info(ctx, "database seeded",
		logger.String("file", s.cfg.SeedFile),
		logger.Int("entities", len(entities)))
	return nil
}

func (s *Service) applyFallback(primary source.Source) source.Source {
	fallbackLog := s.logger.Named("source")
	switch s.cfg.Fallback {
	case config.FallbackBuiltin:
		return source.NewFallback(primary, source.Builtin(), fallbackLog)
	case config.FallbackEmpty:
		return source.NewFallback(primary, source.Empty(), fallbackLog)
	default:
		return primary
	}
}

func (s *Service) onPublish(ctx context.Context, snapshot *model.Snapshot) {
	n := s.sessions.Broadcast(snapshot)
	s.logger.Debug(ctx, "sessions moved to new snapshot",
		logger.String("version", snapshot.Version()),
		logger.Int("sessions", n))
}

// Stop gracefully shuts down the service.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping ranking service...")

	var err error
	if s.reloader != nil {
		err = s.reloader.Stop(ctx)
	}
	s.closeAll(ctx)

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
	return err
}

// closeAll releases opened resources. Caller holds s.mu.
func (s *Service) closeAll(ctx context.Context) {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn(ctx, "close failed", logger.Error(err))
		}
	}
	s.closers = nil
}

// View assembles one stateless page of the current snapshot.
func (s *Service) View(ctx context.Context, state ranking.ViewState) (ranking.Bundle, error) {
	start := time.Now()
	b, err := ranking.AssembleCached(s.cache, s.store.Current(), state, s.cfg.PageSize)
	if err != nil {
		return ranking.Bundle{}, err
	}
	metrics.RecordRecomputation(float64(time.Since(start).Microseconds()) / 1000)
	recordClamp(state.Page, b)
	return b, nil
}

func recordClamp(requested int, b ranking.Bundle) {
	if requested != b.EffectivePage {
		metrics.RecordPageClamp()
	}
}

// Categories returns the selectable categories of the current snapshot.
func (s *Service) Categories(_ context.Context) (string, []string) {
	return s.store.Categories()
}

// Entities returns the whole current snapshot, in source order or by metric.
func (s *Service) Entities(_ context.Context, byMetric bool) (string, []model.RankedEntity) {
	if byMetric {
		return s.store.Ordered()
	}
	snap := s.store.Current()
	return snap.Version(), snap.Entities()
}

// CreateSession starts a viewer session on the current snapshot.
func (s *Service) CreateSession(ctx context.Context, state ranking.ViewState) (string, ranking.Bundle, error) {
	id, ctl, err := s.sessions.Create(s.store.Current(), state)
	if err != nil {
		return "", ranking.Bundle{}, err
	}
	b := ctl.View()
	recordClamp(state.Page, b)
	s.logger.Debug(ctx, "session created", logger.String("session_id", id))
	return id, b, nil
}

// Session returns the current view of a session.
func (s *Service) Session(_ context.Context, id string) (ranking.Bundle, error) {
	ctl, err := s.sessions.Get(id)
	if err != nil {
		return ranking.Bundle{}, err
	}
	return ctl.View(), nil
}

// SelectCategory applies a category selection; the page resets to 1.
func (s *Service) SelectCategory(ctx context.Context, id, category string) (ranking.Bundle, error) {
	ctl, err := s.sessions.Get(id)
	if err != nil {
		return ranking.Bundle{}, err
	}
	metrics.RecordViewEvent(eventCategorySelected)
	b := ctl.SelectCategory(category)
	s.logger.Debug(ctx, "category selected",
		logger.String("session_id", id),
		logger.String("category", b.SelectedCategory),
		logger.Int("items", b.TotalItems))
	return b, nil
}

// RequestPage moves a session to page, clamped to the available range.
func (s *Service) RequestPage(ctx context.Context, id string, page int) (ranking.Bundle, error) {
	ctl, err := s.sessions.Get(id)
	if err != nil {
		return ranking.Bundle{}, err
	}
	metrics.RecordViewEvent(eventPageRequested)
	b := ctl.RequestPage(page)
	recordClamp(page, b)
	s.logger.Debug(ctx, "page requested",
		logger.String("session_id", id),
		logger.Int("requested", page),
		logger.Int("effective", b.EffectivePage))
	return b, nil
}

// DeleteSession ends a session.
func (s *Service) DeleteSession(_ context.Context, id string) error {
	return s.sessions.Delete(id)
}

// Reload queues a reload, or performs it synchronously when wait is set.
// A queued reload returns a nil snapshot.
func (s *Service) Reload(ctx context.Context, wait bool) (*model.Snapshot, error) {
	s.mu.RLock()
	r := s.reloader
	started := s.started
	s.mu.RUnlock()

	if r == nil || !started {
		return nil, reload.ErrStopped
	}
	if !wait {
		return nil, r.Trigger()
	}
	return r.ReloadNow(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, categories := s.store.Categories()
	sessions := s.sessions.Len()
	stats := map[string]any{
		"started":          s.started,
		"page_size":        s.cfg.PageSize,
		"source_kind":      s.cfg.SourceKind,
		"fallback":         s.cfg.Fallback,
		"snapshot_version": version,
		"entities":         s.store.Count(),
		"categories":       len(categories) - 1,
		"sessions":         sessions,
	}
	if snap, err := s.store.Require(); err == nil {
		stats["loaded_at"] = snap.LoadedAt().Format(time.RFC3339)
		stats["loaded_from"] = snap.Source()
	}
	if s.cache != nil {
		hits, misses := s.cache.Stats()
		stats["cache_entries"] = s.cache.Len()
		stats["cache_hits"] = hits
		stats["cache_misses"] = misses
	}
	if s.reloader != nil {
		rs := s.reloader.Stats()
		stats["reload_attempts"] = rs.Attempts
		stats["reload_successes"] = rs.Successes
		stats["reload_failures"] = rs.Failures
		stats["reload_rejected"] = rs.Rejected
		if rs.LastError != "" {
			stats["reload_last_error"] = rs.LastError
		}
	}
	if s.started {
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	metrics.UpdateSessionsActive(sessions)
	return stats
}
