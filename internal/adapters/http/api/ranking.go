package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/internal/domain/types"
)

// RankingDependencies defines the stateless read operations.
type RankingDependencies interface {
	View(ctx context.Context, state ranking.ViewState) (ranking.Bundle, error)
	Categories(ctx context.Context) (version string, categories []string)
	Entities(ctx context.Context, byMetric bool) (version string, entities []model.RankedEntity)
}

// RankingHandler serves views computed from query parameters.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleGetRanking handles GET /ranking?category=&page= requests.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	q := r.URL.Query()
	page, err := parsePage(q.Get("page"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	b, err := h.deps.View(r.Context(), ranking.ViewState{Category: q.Get("category"), Page: page})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.ViewFromBundle(b))
}

// HandleGetCategories handles GET /categories requests.
func (h *RankingHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	version, categories := h.deps.Categories(r.Context())
	writeJSON(w, http.StatusOK, types.CategoriesResponse{SnapshotVersion: version, Categories: categories})
}

// HandleGetEntities handles GET /entities?order=source|metric requests.
func (h *RankingHandler) HandleGetEntities(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_entities"
	switch order := r.URL.Query().Get("order"); order {
	case "", types.OrderSource:
		version, entities := h.deps.Entities(r.Context(), false)
		writeJSON(w, http.StatusOK, types.EntitiesInSourceOrder(version, entities))
	case types.OrderMetric:
		version, entities := h.deps.Entities(r.Context(), true)
		writeJSON(w, http.StatusOK, types.EntitiesInMetricOrder(version, entities))
	default:
		writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown order %q", order)))
	}
}

// parsePage reads a page parameter. Missing means 1; out-of-range integers
// are left for the paginator to clamp.
func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("page must be an integer, got %q", raw)
	}
	return n, nil
}
