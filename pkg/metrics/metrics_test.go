package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func family(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func counterSum(f *dto.MetricFamily) float64 {
	sum := 0.0
	for _, m := range f.GetMetric() {
		sum += m.GetCounter().GetValue()
	}
	return sum
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created enabled with the default refresh", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			labels := map[string]string{"env": "test"}
			manager := NewManager(
				WithNames("ns", "sub"),
				WithLatencyBuckets(1, 2),
				WithRefreshInterval(3*time.Second),
				WithConstLabels(labels),
				WithPrometheusRegistry(registry),
			)
			labels["env"] = "changed"
			manager.RecordPageFetched()
			manager.RecordUpstreamRequest("reports/weekly/", 200, 1500*time.Microsecond)

			Convey("Then names and constant labels follow the options", func() {
				f := family(registry, "ns_sub_pages_fetched_total")
				So(f, ShouldNotBeNil)
				So(labelValue(f.GetMetric()[0], "env"), ShouldEqual, "test")
				So(manager.RefreshInterval(), ShouldEqual, 3*time.Second)
			})

			Convey("Then latency histograms use the given buckets", func() {
				f := family(registry, "ns_sub_upstream_request_duration_milliseconds")
				So(f, ShouldNotBeNil)
				buckets := f.GetMetric()[0].GetHistogram().GetBucket()
				So(len(buckets), ShouldEqual, 2)
				So(buckets[0].GetUpperBound(), ShouldEqual, 1.0)
				So(buckets[0].GetCumulativeCount(), ShouldEqual, uint64(0))
				So(buckets[1].GetCumulativeCount(), ShouldEqual, uint64(1))
			})
		})

		Convey("When only the subsystem is set", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithNames("", "cli"), WithPrometheusRegistry(registry)).RecordPageFetched()
			So(family(registry, "perfboard_cli_pages_fetched_total"), ShouldNotBeNil)
		})

		Convey("When the buckets are not increasing", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithLatencyBuckets(10, 5), WithPrometheusRegistry(registry))
			m.RecordUpstreamRequest("x", 200, time.Millisecond)

			Convey("Then the default buckets are kept", func() {
				f := family(registry, "perfboard_reports_upstream_request_duration_milliseconds")
				So(len(f.GetMetric()[0].GetHistogram().GetBucket()), ShouldEqual, 11)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording backend calls", func() {
			m.RecordUpstreamRequest("reports/weekly/", 200, 12*time.Millisecond)
			m.RecordUpstreamRequest("reports/weekly/", 0, time.Millisecond)
			m.RecordUpstreamError("reports/weekly/", "transport")

			Convey("Then counters carry endpoint and status labels", func() {
				f := family(registry, "perfboard_reports_upstream_requests_total")
				So(f, ShouldNotBeNil)
				So(counterSum(f), ShouldEqual, 2.0)
				codes := map[string]bool{}
				for _, metric := range f.GetMetric() {
					codes[labelValue(metric, "status_code")] = true
				}
				So(codes["200"], ShouldBeTrue)
				So(codes["none"], ShouldBeTrue)
				So(counterSum(family(registry, "perfboard_reports_upstream_errors_total")), ShouldEqual, 1.0)
			})
		})

		Convey("When recording report builds", func() {
			m.RecordRecordsNormalized(24)
			m.RecordRecordsNormalized(0)
			m.RecordReportBuild("weekly", OutcomeOK, 24, 40*time.Millisecond)
			m.RecordReportBuild("weekly", OutcomeSuperseded, 0, time.Millisecond)
			m.RecordBuildSuperseded()
			m.UpdateViewsInFlight(2)

			Convey("Then build metrics are visible", func() {
				So(counterSum(family(registry, "perfboard_reports_records_normalized_total")), ShouldEqual, 24.0)
				So(counterSum(family(registry, "perfboard_reports_report_builds_total")), ShouldEqual, 2.0)
				So(counterSum(family(registry, "perfboard_reports_report_builds_superseded_total")), ShouldEqual, 1.0)
				size := family(registry, "perfboard_reports_report_records")
				So(size.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 24.0)
				views := family(registry, "perfboard_reports_views_in_flight")
				So(views.GetMetric()[0].GetGauge().GetValue(), ShouldEqual, 2.0)
			})
		})

		Convey("When recording HTTP and runtime metrics", func() {
			So(func() {
				m.RecordHTTPRequest("/api/v1/summary", "GET", "200", 3.5)
				m.RecordErrorByType("upstream", "high")
				m.RecordErrorByEndpoint("/api/v1/summary", "GET", "upstream")
				m.UpdateSystem(1<<20, 12, time.Millisecond)
			}, ShouldNotPanic)
			So(counterSum(family(registry, "perfboard_reports_http_requests_total")), ShouldEqual, 1.0)
		})
	})

	Convey("Given a disabled manager", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))
		m.RecordPageFetched()
		m.RecordUpstreamRequest("x", 200, time.Millisecond)

		Convey("Then nothing is recorded", func() {
			So(counterSum(family(registry, "perfboard_reports_pages_fetched_total")), ShouldEqual, 0.0)
			So(family(registry, "perfboard_reports_upstream_requests_total"), ShouldBeNil)
		})
	})
}

func TestGlobalManager(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When reconfigured", func() {
			m := Configure(WithNames(DefaultNamespace, ""))

			Convey("Then package shortcuts record on the fresh registry", func() {
				So(Global(), ShouldEqual, m)
				RecordPageFetched()
				RecordUpstreamRequest("performance/summary/", 200, time.Millisecond)
				RecordUpstreamError("performance/summary/", "status")
				RecordRecordsNormalized(3)
				RecordReportBuild("summary", OutcomeOK, 3, time.Millisecond)
				RecordBuildSuperseded()
				UpdateViewsInFlight(0)
				RecordHTTPRequest("/healthz", "GET", "200", 1)
				RecordErrorByType("validation", "low")
				RecordErrorByEndpoint("/healthz", "GET", "validation")
				UpdateSystem(1, 1, 0)
				So(counterSum(family(GetRegistry(), "perfboard_reports_pages_fetched_total")), ShouldEqual, 1.0)
			})
		})
	})
}
