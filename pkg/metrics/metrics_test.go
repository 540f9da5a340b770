package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "bulletin")
				So(manager.subsystem, ShouldEqual, "analytics")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithMetricsEnabled(false),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "unit")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(manager.enabled, ShouldBeFalse)
				So(manager.constLabels["env"], ShouldEqual, "test")
			})

			Convey("And collectors should carry the const label", func() {
				manager.authDecisions.WithLabelValues("allowed").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_unit_authorization_decisions_total") {
						found = true
						names := []string{}
						for _, l := range f.GetMetric()[0].GetLabel() {
							names = append(names, l.GetName())
						}
						So(names, ShouldContain, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording authorization decisions", func() {
			before := testutil.ToFloat64(globalManager.authDecisions.WithLabelValues("denied"))
			RecordAuthDecision("denied")
			RecordAuthDecision("denied")

			Convey("Then the counter should increase", func() {
				So(testutil.ToFloat64(globalManager.authDecisions.WithLabelValues("denied")), ShouldEqual, before+2)
			})
		})

		Convey("When recording a failed ranking query", func() {
			before := testutil.ToFloat64(globalManager.rankingQueryErrors.WithLabelValues("events"))
			RecordRankingQuery("events", 3.5, false)
			RecordRankingQuery("events", 1.0, true)

			Convey("Then only the failure should be counted as an error", func() {
				So(testutil.ToFloat64(globalManager.rankingQueryErrors.WithLabelValues("events")), ShouldEqual, before+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(42)
			UpdateQueueCapacity(1000)
			UpdateWorkerCount(4)

			Convey("Then gauges should hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 1000)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
			})
		})

		Convey("When recording the rest of the collectors", func() {
			So(func() {
				RecordHTTPRequest("top_events", "GET", "200")
				RecordHTTPRequestDuration("top_events", "GET", "200", 12)
				RecordErrorByEndpoint("top_events", "GET", "server_error")
				RecordErrorByType("server_error", "high")
				RecordErrorByComponent("worker", "store_error")
				RecordRouteDecision("bypass")
				RecordViewReceived("http")
				RecordViewDuplicate()
				RecordViewApplied("announcements")
				RecordViewFailed()
				RecordQueueRejected("full")
				RecordWorkerLatency(2)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it should not contain Go runtime metrics", func() {
				So(err, ShouldBeNil)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "go_"), ShouldBeFalse)
				}
			})
		})
	})
}
