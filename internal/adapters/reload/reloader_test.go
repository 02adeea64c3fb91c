package reload

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/followrank/internal/adapters/repository"
	"github.com/okian/followrank/internal/adapters/source"
	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// stubSource returns whatever fetch yields and counts calls.
type stubSource struct {
	mu    sync.Mutex
	fetch func() ([]model.RankedEntity, error)
	calls atomic.Int64
	gate  chan struct{} // when set, Fetch blocks until it is closed
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) ([]model.RankedEntity, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetch()
}

func builtin() ([]model.RankedEntity, error) { return source.BuiltinAccounts(), nil }

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestReloader(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Convey("Given a reloader over a healthy source", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store := repository.NewSnapshotStore()
		src := &stubSource{fetch: builtin}
		var published atomic.Int64
		r := New(src, store, WithOnPublish(func(context.Context, *model.Snapshot) { published.Add(1) }))

		Convey("When reloading synchronously", func() {
			snap, err := r.ReloadNow(ctx)

			Convey("Then the snapshot is published and reported", func() {
				So(err, ShouldBeNil)
				So(store.Current(), ShouldEqual, snap)
				So(store.Count(), ShouldEqual, 12)
				So(published.Load(), ShouldEqual, 1)
				st := r.Stats()
				So(st.Attempts, ShouldEqual, 1)
				So(st.Successes, ShouldEqual, 1)
				So(st.LastError, ShouldBeEmpty)
			})
		})

		Convey("When triggered through the worker", func() {
			So(r.Start(ctx), ShouldBeNil)
			So(r.Trigger(), ShouldBeNil)

			Convey("Then a snapshot is eventually published", func() {
				So(waitFor(func() bool { return store.Count() == 12 }), ShouldBeTrue)
				So(r.Stop(context.Background()), ShouldBeNil)
			})
		})

		Convey("When the source fails after a good load", func() {
			first, err := r.ReloadNow(ctx)
			So(err, ShouldBeNil)
			src.fetch = func() ([]model.RankedEntity, error) { return nil, source.ErrFetch }
			_, err = r.ReloadNow(ctx)

			Convey("Then the previous snapshot is retained", func() {
				So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
				So(store.Current(), ShouldEqual, first)
				So(r.Stats().Failures, ShouldEqual, 1)
				So(r.Stats().LastError, ShouldContainSubstring, "stub")
			})
		})

		Convey("When the source returns a malformed list", func() {
			first, _ := r.ReloadNow(ctx)
			src.fetch = func() ([]model.RankedEntity, error) {
				bad := source.BuiltinAccounts()
				bad[3].MetricValue = -1
				return bad, nil
			}
			_, err := r.ReloadNow(ctx)

			Convey("Then it is rejected as a contract violation and nothing changes", func() {
				So(errors.Is(err, model.ErrContractViolation), ShouldBeTrue)
				So(store.Current(), ShouldEqual, first)
				So(r.Stats().Rejected, ShouldEqual, 1)
				So(published.Load(), ShouldEqual, 1)
			})
		})

		Convey("When stopped", func() {
			So(r.Start(ctx), ShouldBeNil)
			So(r.Stop(context.Background()), ShouldBeNil)

			Convey("Then further requests are refused", func() {
				So(errors.Is(r.Trigger(), ErrStopped), ShouldBeTrue)
				_, err := r.ReloadNow(ctx)
				So(errors.Is(err, ErrStopped), ShouldBeTrue)
				So(errors.Is(r.Start(ctx), ErrStopped), ShouldBeTrue)
				So(r.Stop(context.Background()), ShouldBeNil)
			})
		})
	})

	Convey("Given a reloader whose fetch is blocked", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		gate := make(chan struct{})
		src := &stubSource{fetch: builtin, gate: gate}
		r := New(src, repository.NewSnapshotStore())
		So(r.Start(ctx), ShouldBeNil)

		Convey("When many triggers arrive while one load runs", func() {
			So(r.Trigger(), ShouldBeNil)
			So(waitFor(func() bool { return src.calls.Load() == 1 }), ShouldBeTrue)

			So(r.Trigger(), ShouldBeNil)
			busy := 0
			for n := 0; n < 5; n++ {
				if errors.Is(r.Trigger(), ErrBusy) {
					busy++
				}
			}
			close(gate)

			Convey("Then they coalesce into a single pending reload", func() {
				So(busy, ShouldEqual, 5)
				So(waitFor(func() bool { return r.Stats().Successes == 2 }), ShouldBeTrue)
				So(src.calls.Load(), ShouldEqual, 2)
				So(r.Stop(context.Background()), ShouldBeNil)
			})
		})
	})

	Convey("Given an invalid schedule", t, func() {
		r := New(&stubSource{fetch: builtin}, repository.NewSnapshotStore(), WithSchedule("not a cron"))

		Convey("Then Start fails", func() {
			So(r.Start(context.Background()), ShouldNotBeNil)
		})
	})

	Convey("Given a valid schedule", t, func() {
		r := New(&stubSource{fetch: builtin}, repository.NewSnapshotStore(), WithSchedule("@every 1h"))

		Convey("Then Start and Stop succeed", func() {
			So(r.Start(context.Background()), ShouldBeNil)
			So(r.Stop(context.Background()), ShouldBeNil)
		})
	})
}
