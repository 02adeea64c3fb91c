package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/followrank/internal/adapters/http/api"
	"github.com/okian/followrank/internal/adapters/reload"
	"github.com/okian/followrank/internal/adapters/source"
	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/internal/domain/session"
	"github.com/okian/followrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDeps serves the builtin accounts through the real engine.
type fakeDeps struct {
	snap      *model.Snapshot
	sessions  *session.Registry
	reloadErr error
	reloads   int
}

func newFakeDeps() *fakeDeps {
	snap, err := model.NewSnapshot("builtin", source.BuiltinAccounts())
	if err != nil {
		panic(err)
	}
	reg, err := session.NewRegistry(10)
	if err != nil {
		panic(err)
	}
	return &fakeDeps{snap: snap, sessions: reg}
}

func (f *fakeDeps) View(_ context.Context, state ranking.ViewState) (ranking.Bundle, error) {
	return ranking.Assemble(f.snap, state, 10)
}

func (f *fakeDeps) Categories(context.Context) (string, []string) {
	return f.snap.Version(), ranking.ExtractCategories(f.snap.Entities())
}

func (f *fakeDeps) Entities(_ context.Context, byMetric bool) (string, []model.RankedEntity) {
	if byMetric {
		return f.snap.Version(), ranking.SortByMetric(f.snap.Entities())
	}
	return f.snap.Version(), f.snap.Entities()
}

func (f *fakeDeps) CreateSession(_ context.Context, state ranking.ViewState) (string, ranking.Bundle, error) {
	id, ctl, err := f.sessions.Create(f.snap, state)
	if err != nil {
		return "", ranking.Bundle{}, err
	}
	return id, ctl.View(), nil
}

func (f *fakeDeps) Session(_ context.Context, id string) (ranking.Bundle, error) {
	ctl, err := f.sessions.Get(id)
	if err != nil {
		return ranking.Bundle{}, err
	}
	return ctl.View(), nil
}

func (f *fakeDeps) SelectCategory(_ context.Context, id, category string) (ranking.Bundle, error) {
	ctl, err := f.sessions.Get(id)
	if err != nil {
		return ranking.Bundle{}, err
	}
	return ctl.SelectCategory(category), nil
}

func (f *fakeDeps) RequestPage(_ context.Context, id string, page int) (ranking.Bundle, error) {
	ctl, err := f.sessions.Get(id)
	if err != nil {
		return ranking.Bundle{}, err
	}
	return ctl.RequestPage(page), nil
}

func (f *fakeDeps) DeleteSession(_ context.Context, id string) error {
	return f.sessions.Delete(id)
}

func (f *fakeDeps) Reload(_ context.Context, wait bool) (*model.Snapshot, error) {
	f.reloads++
	if f.reloadErr != nil {
		return nil, f.reloadErr
	}
	if !wait {
		return nil, nil
	}
	return f.snap, nil
}

func (f *fakeDeps) GetStats() map[string]any {
	return map[string]any{"entities": f.snap.Len()}
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		panic(fmt.Sprintf("decode %q: %v", w.Body.String(), err))
	}
	return v
}

func rowIDs(v types.View) []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.ID
	}
	return out
}

func TestRankingEndpoints(t *testing.T) {
	Convey("Given a router over the builtin accounts", t, func() {
		deps := newFakeDeps()
		router := api.NewRouter(context.Background(), deps)

		Convey("When GET /ranking has no parameters", func() {
			w := do(router, http.MethodGet, "/ranking", "")

			Convey("Then page 1 of all categories is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				v := decode[types.View](w)
				So(v.SelectedCategory, ShouldEqual, ranking.All)
				So(rowIDs(v), ShouldResemble, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"})
				So(v.Pagination.TotalPages, ShouldEqual, 2)
				So(v.Pagination.HasNext, ShouldBeTrue)
				So(w.Header().Get("X-Request-Id"), ShouldNotBeEmpty)
			})
		})

		Convey("When GET /ranking asks for osaka", func() {
			w := do(router, http.MethodGet, "/ranking?category=osaka&page=1", "")

			Convey("Then only osaka rows are returned", func() {
				v := decode[types.View](w)
				So(rowIDs(v), ShouldResemble, []string{"2", "8"})
				So(v.Pagination.TotalPages, ShouldEqual, 1)
			})
		})

		Convey("When GET /ranking asks for a page past the end", func() {
			w := do(router, http.MethodGet, "/ranking?page=5", "")

			Convey("Then the last page is returned", func() {
				v := decode[types.View](w)
				So(v.Pagination.Page, ShouldEqual, 2)
				So(rowIDs(v), ShouldResemble, []string{"11", "12"})
				So(v.Rows[0].Rank, ShouldEqual, 11)
			})
		})

		Convey("When GET /ranking has a non-integer page", func() {
			w := do(router, http.MethodGet, "/ranking?page=two", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[map[string]string](w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When a request id is supplied", func() {
			req := httptest.NewRequest(http.MethodGet, "/categories", http.NoBody)
			req.Header.Set("X-Request-Id", "abc-123")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Convey("Then it is echoed", func() {
				So(w.Header().Get("X-Request-Id"), ShouldEqual, "abc-123")
			})
		})

		Convey("When GET /categories", func() {
			w := do(router, http.MethodGet, "/categories", "")

			Convey("Then the sentinel comes first followed by regions in first-seen order", func() {
				resp := decode[types.CategoriesResponse](w)
				So(resp.Categories, ShouldResemble, []string{"all", "tokyo", "osaka", "kyoto", "nagoya", "fukuoka", "sapporo"})
				So(resp.SnapshotVersion, ShouldEqual, deps.snap.Version())
			})
		})

		Convey("When GET /entities in both orders", func() {
			src := decode[types.EntitiesResponse](do(router, http.MethodGet, "/entities", ""))
			byMetric := decode[types.EntitiesResponse](do(router, http.MethodGet, "/entities?order=metric", ""))
			bad := do(router, http.MethodGet, "/entities?order=random", "")

			Convey("Then both list every entity", func() {
				So(src.Count, ShouldEqual, 12)
				So(src.Order, ShouldEqual, types.OrderSource)
				So(src.Rows[0].Rank, ShouldEqual, 0)
				So(byMetric.Order, ShouldEqual, types.OrderMetric)
				So(byMetric.Rows[11].Rank, ShouldEqual, 12)
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When an unknown method is used", func() {
			w := do(router, http.MethodPut, "/ranking", "")

			Convey("Then the router rejects it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When GET /stats", func() {
			w := do(router, http.MethodGet, "/stats", "")

			Convey("Then the provider's stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](w)["entities"], ShouldEqual, float64(12))
			})
		})

		Convey("When GET /healthz", func() {
			_ = do(router, http.MethodGet, "/ranking", "")
			w := do(router, http.MethodGet, "/healthz", "")

			Convey("Then Prometheus metrics are exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "followrank_ranking_http_requests_total")
			})
		})
	})
}

func TestSessionEndpoints(t *testing.T) {
	Convey("Given a router with session support", t, func() {
		deps := newFakeDeps()
		router := api.NewRouter(context.Background(), deps)

		created := do(router, http.MethodPost, "/sessions", "")
		So(created.Code, ShouldEqual, http.StatusCreated)
		sess := decode[types.SessionResponse](created)
		base := "/sessions/" + sess.SessionID

		Convey("When the session is created", func() {
			Convey("Then it starts on page 1 of all categories", func() {
				So(sess.SessionID, ShouldNotBeEmpty)
				So(created.Header().Get("Location"), ShouldEqual, base)
				So(sess.View.Pagination.Page, ShouldEqual, 1)
				So(sess.View.SelectedCategory, ShouldEqual, ranking.All)
			})
		})

		Convey("When the viewer moves to page 2 and then selects kyoto", func() {
			page := decode[types.SessionResponse](do(router, http.MethodPost, base+"/page", `{"page": 2}`))
			So(page.View.Pagination.Page, ShouldEqual, 2)
			cat := decode[types.SessionResponse](do(router, http.MethodPost, base+"/category", `{"category": "kyoto"}`))

			Convey("Then the page resets to 1", func() {
				So(cat.View.Pagination.Page, ShouldEqual, 1)
				So(rowIDs(cat.View), ShouldResemble, []string{"3", "9"})
			})

			Convey("And GET returns the same state", func() {
				got := decode[types.SessionResponse](do(router, http.MethodGet, base, ""))
				So(got.View, ShouldResemble, cat.View)
			})
		})

		Convey("When a session is created with an initial state", func() {
			w := do(router, http.MethodPost, "/sessions", `{"category": "tokyo", "page": 3}`)

			Convey("Then the state is applied and the page clamped", func() {
				resp := decode[types.SessionResponse](w)
				So(resp.View.SelectedCategory, ShouldEqual, "tokyo")
				So(resp.View.Pagination.Page, ShouldEqual, 1)
				So(rowIDs(resp.View), ShouldResemble, []string{"1", "7"})
			})
		})

		Convey("When the page body is malformed", func() {
			w := do(router, http.MethodPost, base+"/page", `{"page": "x"}`)
			empty := do(router, http.MethodPost, base+"/category", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(empty.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the session is deleted", func() {
			del := do(router, http.MethodDelete, base, "")
			after := do(router, http.MethodGet, base, "")
			again := do(router, http.MethodDelete, base, "")

			Convey("Then later requests report not found", func() {
				So(del.Code, ShouldEqual, http.StatusNoContent)
				So(after.Code, ShouldEqual, http.StatusNotFound)
				So(decode[map[string]string](after)["code"], ShouldEqual, "not_found")
				So(again.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When an unknown session is addressed", func() {
			w := do(router, http.MethodPost, "/sessions/nope/page", `{"page": 1}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestReloadEndpoint(t *testing.T) {
	Convey("Given a router with a reload limit of 60 per minute", t, func() {
		deps := newFakeDeps()
		router := api.NewRouter(context.Background(), deps, api.WithReloadRate(60))

		Convey("When a reload is queued", func() {
			w := do(router, http.MethodPost, "/reload", "")

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode[types.ReloadResponse](w).Status, ShouldEqual, "queued")
			})

			Convey("And an immediate second request is throttled", func() {
				again := do(router, http.MethodPost, "/reload", "")
				So(again.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.reloads, ShouldEqual, 1)
			})
		})

		Convey("When a reload is awaited", func() {
			w := do(router, http.MethodPost, "/reload?wait=true", "")

			Convey("Then the new snapshot is reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				resp := decode[types.ReloadResponse](w)
				So(resp.Status, ShouldEqual, "reloaded")
				So(resp.Entities, ShouldEqual, 12)
				So(resp.SnapshotVersion, ShouldEqual, deps.snap.Version())
			})
		})

		Convey("When a reload is already pending", func() {
			deps.reloadErr = reload.ErrBusy
			w := do(router, http.MethodPost, "/reload", "")

			Convey("Then it is reported as too many requests", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode[map[string]string](w)["code"], ShouldEqual, "reload_pending")
			})
		})

		Convey("When the source delivers a malformed snapshot", func() {
			deps.reloadErr = fmt.Errorf("snapshot rejected: %w", &model.ContractViolation{Field: "id", Index: 3, ID: "4", Reason: "duplicate id"})
			w := do(router, http.MethodPost, "/reload?wait=true", "")

			Convey("Then it is a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decode[map[string]string](w)["code"], ShouldEqual, "contract_violation")
			})
		})

		Convey("When the upstream is down", func() {
			deps.reloadErr = fmt.Errorf("fetch: %w", source.ErrStatus)
			w := do(router, http.MethodPost, "/reload?wait=1", "")

			Convey("Then it is a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(decode[map[string]string](w)["code"], ShouldEqual, "upstream_error")
			})
		})

		Convey("When wait is not a boolean", func() {
			w := do(router, http.MethodPost, "/reload?wait=soon", "")

			Convey("Then it is a bad request and no reload happens", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.reloads, ShouldEqual, 0)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the op error helpers", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are both visible to errors.Is", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("And NewKind has no cause", func() {
			err := api.NewKind("api.op", api.ErrBackpressure)
			So(errors.Is(err, api.ErrBackpressure), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: backpressure")
		})

		Convey("And Wrap keeps nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(errors.Is(api.Wrap("api.op", cause), cause), ShouldBeTrue)
		})
	})
}
