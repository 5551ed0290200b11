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
		Convey("When creating with a custom registry and options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)
			manager.awards.WithLabelValues("tiered").Inc()

			Convey("Then collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "test_unit_awards_total")
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording awards", func() {
			before := testutil.ToFloat64(globalManager.awards.WithLabelValues("free_form"))
			RecordAward("free_form")
			RecordAward("free_form")

			Convey("Then the counter advances", func() {
				So(testutil.ToFloat64(globalManager.awards.WithLabelValues("free_form")), ShouldEqual, before+2)
			})
		})

		Convey("When recording rejections", func() {
			before := testutil.ToFloat64(globalManager.awardRejections.WithLabelValues("duplicate_award"))
			RecordAwardRejection("duplicate_award")

			Convey("Then they are counted by code", func() {
				So(testutil.ToFloat64(globalManager.awardRejections.WithLabelValues("duplicate_award")), ShouldEqual, before+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateLedgerRecords(42)
			UpdateLeaderboardSize(7)
			UpdateContingents(9)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.ledgerRecords), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.leaderboardSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.contingents), ShouldEqual, 9)
			})
		})

		Convey("When recording report, bus and HTTP metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordReportComputed()
					RecordReportCacheHit()
					RecordAggregationLatency(1.5)
					RecordLeaderboardLatency(12)
					RecordBusPublished()
					RecordBusPublishFailure()
					RecordBusDelivered()
					RecordHTTPRequest("/leaderboard", "GET", "200")
					RecordHTTPRequestDuration("/leaderboard", "GET", "200", 3)
					RecordRateLimited()
					RecordErrorByComponent("bus", "publish")
				}, ShouldNotPanic)
			})
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
