// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/okian/followrank/internal/adapters/reload"
	"github.com/okian/followrank/internal/adapters/source"
	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/session"
)

const requestIDHeader = "X-Request-Id"

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankingDependencies
	SessionDependencies
	ReloadDependencies
	StatsProvider
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	rankingHandler  *RankingHandler
	sessionsHandler *SessionsHandler
	reloadHandler   *ReloadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{reloadPerMinute: defaultReloadPerMinute}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		rankingHandler:  NewRankingHandler(deps),
		sessionsHandler: NewSessionsHandler(deps),
		reloadHandler:   NewReloadHandler(deps, o.reloadPerMinute),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}
	r.Use(RequestID)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Get("/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	r.Get("/categories", MetricsMiddleware(s.rankingHandler.HandleGetCategories, "categories"))
	r.Get("/entities", MetricsMiddleware(s.rankingHandler.HandleGetEntities, "entities"))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions_create"))
		r.Get("/{id}", MetricsMiddleware(s.sessionsHandler.HandleGet, "sessions_get"))
		r.Delete("/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions_delete"))
		r.Post("/{id}/category", MetricsMiddleware(s.sessionsHandler.HandleSelectCategory, "sessions_category"))
		r.Post("/{id}/page", MetricsMiddleware(s.sessionsHandler.HandleRequestPage, "sessions_page"))
	})

	r.Post("/reload", MetricsMiddleware(s.reloadHandler.HandleReload, "reload"))
}

// NewRouter returns a chi router with every API route registered.
func NewRouter(ctx context.Context, deps Dependencies, opts ...Option) *chi.Mux {
	mux := chi.NewRouter()
	NewServer(deps, opts...).Register(ctx, mux)
	return mux
}

// Option configures NewServer.
type Option func(*options)

type options struct {
	reloadPerMinute int
}

// WithReloadRate caps manual reload requests per minute.
func WithReloadRate(perMinute int) Option {
	return func(o *options) {
		if perMinute > 0 {
			o.reloadPerMinute = perMinute
		}
	}
}

// RequestID echoes X-Request-Id or assigns a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status code and error body.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound), errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, reload.ErrBusy):
		return http.StatusTooManyRequests, "reload_pending"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, model.ErrContractViolation):
		return http.StatusBadGateway, "contract_violation"
	case errors.Is(err, source.ErrFetch), errors.Is(err, source.ErrStatus), errors.Is(err, source.ErrDecode):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, reload.ErrStopped), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
