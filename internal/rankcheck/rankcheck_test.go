package rankcheck_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/followrank/internal/adapters/http/api"
	service "github.com/okian/followrank/internal/app"
	"github.com/okian/followrank/internal/rankcheck"
	"github.com/okian/followrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running server with the builtin accounts", t, func() {
		svc, err := service.New()
		So(err, ShouldBeNil)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		srv := httptest.NewServer(api.NewRouter(ctx, svc))
		defer srv.Close()

		Convey("When the check runs with a report file", func() {
			out := filepath.Join(t.TempDir(), "reports", "check.json")
			report, err := rankcheck.Run(ctx, &rankcheck.Config{
				BaseURL: srv.URL + "/",
				Workers: 3,
				Timeout: 5 * time.Second,
				Report:  out,
			})

			Convey("Then every category and page passes", func() {
				So(err, ShouldBeNil)
				So(report.OK(), ShouldBeTrue)
				So(report.Categories, ShouldEqual, 7)
				So(report.PagesFetched, ShouldEqual, 8)
				So(report.RowsChecked, ShouldEqual, 24)
				So(report.SessionChecked, ShouldBeTrue)
			})

			Convey("And the report is written as JSON", func() {
				data, err := os.ReadFile(out)
				So(err, ShouldBeNil)
				var saved rankcheck.Report
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved.SnapshotVersion, ShouldEqual, report.SnapshotVersion)
			})
		})
	})

	Convey("Given a server that fails its health check", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("When the check runs", func() {
			_, err := rankcheck.Run(context.Background(), &rankcheck.Config{BaseURL: srv.URL, Timeout: time.Second})

			Convey("Then it reports the service as unhealthy", func() {
				So(errors.Is(err, rankcheck.ErrUnhealthy), ShouldBeTrue)
				So(errors.Is(err, rankcheck.ErrStatus), ShouldBeTrue)
			})
		})
	})
}
