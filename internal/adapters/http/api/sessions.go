package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/internal/domain/types"
)

const maxBodyBytes = 1 << 16

// SessionDependencies defines the stateful viewer operations.
type SessionDependencies interface {
	CreateSession(ctx context.Context, state ranking.ViewState) (string, ranking.Bundle, error)
	Session(ctx context.Context, id string) (ranking.Bundle, error)
	SelectCategory(ctx context.Context, id, category string) (ranking.Bundle, error)
	RequestPage(ctx context.Context, id string, page int) (ranking.Bundle, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionsHandler maps renderer events onto per-viewer controllers.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// HandleCreate handles POST /sessions. The body is optional.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	var req types.SessionCreateRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id, b, err := h.deps.CreateSession(r.Context(), ranking.ViewState{Category: req.Category, Page: req.Page})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, types.SessionResponse{SessionID: id, View: types.ViewFromBundle(b)})
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_session"
	id := chi.URLParam(r, "id")
	b, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.SessionResponse{SessionID: id, View: types.ViewFromBundle(b)})
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_session"
	if err := h.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSelectCategory handles POST /sessions/{id}/category, the categorySelected event.
func (h *SessionsHandler) HandleSelectCategory(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_category"
	var req types.CategoryRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id := chi.URLParam(r, "id")
	b, err := h.deps.SelectCategory(r.Context(), id, req.Category)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.SessionResponse{SessionID: id, View: types.ViewFromBundle(b)})
}

// HandleRequestPage handles POST /sessions/{id}/page, the pageRequested event.
func (h *SessionsHandler) HandleRequestPage(w http.ResponseWriter, r *http.Request) {
	const op = "api.request_page"
	var req types.PageRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	id := chi.URLParam(r, "id")
	b, err := h.deps.RequestPage(r.Context(), id, req.Page)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.SessionResponse{SessionID: id, View: types.ViewFromBundle(b)})
}

// decodeBody reads a JSON object into v. An empty body is accepted only when optional.
func decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			if optional {
				return nil
			}
			return errors.New("request body is required")
		}
		return err
	}
	return nil
}
