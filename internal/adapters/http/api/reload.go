package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/types"
)

const defaultReloadPerMinute = 6

// ReloadDependencies triggers snapshot reloads.
type ReloadDependencies interface {
	// Reload queues a reload, or performs it when wait is true.
	Reload(ctx context.Context, wait bool) (*model.Snapshot, error)
}

// ReloadHandler handles manual reload requests.
type ReloadHandler struct {
	deps    ReloadDependencies
	limiter *rate.Limiter
}

// NewReloadHandler creates a reload handler allowing perMinute requests.
func NewReloadHandler(deps ReloadDependencies, perMinute int) *ReloadHandler {
	if perMinute <= 0 {
		perMinute = defaultReloadPerMinute
	}
	return &ReloadHandler{
		deps:    deps,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

// HandleReload handles POST /reload[?wait=true].
func (h *ReloadHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.reload"
	wait := false
	if raw := r.URL.Query().Get("wait"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("wait must be a boolean, got %q", raw)))
			return
		}
		wait = v
	}
	if !h.limiter.Allow() {
		writeFailure(w, NewKind(op, ErrBackpressure))
		return
	}

	snap, err := h.deps.Reload(r.Context(), wait)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if !wait || snap == nil {
		writeJSON(w, http.StatusAccepted, types.ReloadResponse{Status: "queued"})
		return
	}
	writeJSON(w, http.StatusOK, types.ReloadResponse{
		Status:          "reloaded",
		SnapshotVersion: snap.Version(),
		Entities:        snap.Len(),
	})
}
