package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the service defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.namespace, ShouldEqual, "followrank")
			})

			Convey("And the global refresh interval is the default", func() {
				So(GaugeRefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.customLabels["env"], ShouldEqual, "test")
			})

			Convey("And zero values leave defaults untouched", func() {
				m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()),
					WithNamespace(""), WithRefreshInterval(0), WithHistogramBuckets(nil))
				So(m.namespace, ShouldEqual, "followrank")
				So(m.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestRecordingHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording engine activity", func() {
			before := testutil.ToFloat64(globalManager.recomputations)
			RecordRecomputation(0.4)
			RecordCacheHit()
			RecordCacheMiss()
			RecordPageClamp()
			RecordViewEvent("page_requested")

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.recomputations), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.viewEvents.WithLabelValues("page_requested")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When a snapshot is published", func() {
			at := time.Unix(1_700_000_000, 0)
			UpdateSnapshot(12, 5, at)
			RecordReload("success")
			RecordContractViolation("id")
			RecordSourceFetchLatency("http", 12)

			Convey("Then the gauges reflect it", func() {
				So(testutil.ToFloat64(globalManager.snapshotEntities), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.snapshotCategories), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.snapshotLastUnix), ShouldEqual, 1_700_000_000)
				So(testutil.ToFloat64(globalManager.snapshotReloads.WithLabelValues("success")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When sessions change", func() {
			UpdateSessionsActive(3)
			RecordSessionCreated()
			RecordSessionEvicted()

			Convey("Then the session gauge is set", func() {
				So(testutil.ToFloat64(globalManager.sessionsActive), ShouldEqual, 3)
			})
		})

		Convey("When HTTP, error and system metrics are recorded", func() {
			RecordHTTPRequest("/ranking", "GET", "200")
			RecordHTTPRequestDuration("/ranking", "GET", "200", 1.5)
			RecordErrorByComponent("reload", "fetch")
			RecordErrorByType("fetch", "warning")
			RecordErrorByEndpoint("/ranking", "GET", "bad_request")
			RecordErrorLatency("reload", "fetch", 3)
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(7)
			RecordSystemGCPauseTime(0.2)

			Convey("Then they are exported by the registry", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "followrank_ranking_http_requests_total")
				So(names, ShouldContain, "followrank_ranking_system_goroutine_count")
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldEqual, 1024)
			})
		})
	})
}
