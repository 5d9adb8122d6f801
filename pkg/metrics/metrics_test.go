package metrics

import (
	"context"
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

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "alscreen")
				So(manager.subsystem, ShouldEqual, "review")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("screening"),
				WithSubsystem("sim"),
				WithMetricPrefix("batch"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "screening")
				So(manager.metricPrefix, ShouldEqual, "batch")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.refreshInterval, ShouldEqual, 10*time.Second)
			})

			Convey("And metric names should carry the prefix", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "screening_sim_batch_undo_batches_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When passing empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithRefreshInterval(-1*time.Second),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "alscreen")
				So(manager.subsystem, ShouldEqual, "review")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.refreshInterval, ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording review loop metrics", func() {
			before := testutil.ToFloat64(globalManager.cyclesCompleted)
			RecordCycleCompleted(12.5)
			RecordCycleCompleted(3.0)

			Convey("Then the cycle counter should advance", func() {
				So(testutil.ToFloat64(globalManager.cyclesCompleted), ShouldEqual, before+2)
			})
		})

		Convey("When recording labels by origin", func() {
			before := testutil.ToFloat64(globalManager.labelsAppended.WithLabelValues("model", "relevant"))
			RecordLabelAppended("model", "relevant")

			Convey("Then the labelled counter should advance", func() {
				So(testutil.ToFloat64(globalManager.labelsAppended.WithLabelValues("model", "relevant")), ShouldEqual, before+1)
			})
		})

		Convey("When updating progress", func() {
			UpdateProgress(4, 10, 3, 90)

			Convey("Then the gauges should hold the values", func() {
				So(testutil.ToFloat64(globalManager.currentCycle), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.labeledTotal), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.relevantFound), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.unlabeledTotal), ShouldEqual, 90)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordModelFallback("classifier")
				RecordModelError("query")
				RecordUndo()
				RecordFeatureCache(10, 2)
				RecordFeatureExtractionLatency(5)
				RecordPersist(1.5)
				RecordPersistError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(2)
				RecordWorkerError()
				UpdateQueueSize(3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordHTTPRequest("/stats", "GET", "200")
				RecordHTTPRequestDuration("/stats", "GET", "200", 1.0)
				RecordErrorByComponent("", "")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it should expose alscreen metrics", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		done := make(chan bool, 10)

		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordLabelAppended("model", "irrelevant")
					UpdateQueueSize(j)
					RecordCycleCompleted(float64(j))
				}
				done <- true
			}()
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		So(true, ShouldBeTrue) // If we get here, no panics occurred
	})
}

func TestMetricsEnabled(t *testing.T) {
	Convey("Given metrics switched off", t, func() {
		SetEnabled(false)
		defer SetEnabled(true)

		Convey("When recording through the package helpers", func() {
			before := testutil.ToFloat64(globalManager.undoBatches)
			RecordUndo()
			UpdateProgress(99, 99, 99, 99)

			Convey("Then nothing should change", func() {
				So(testutil.ToFloat64(globalManager.undoBatches), ShouldEqual, before)
				So(testutil.ToFloat64(globalManager.currentCycle), ShouldNotEqual, 99)
			})
		})
	})

	Convey("Given a manager created disabled", t, func() {
		manager := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(prometheus.NewRegistry()))
		So(manager.Enabled(), ShouldBeFalse)

		manager.RefreshSystemMetrics()
		So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldEqual, 0)
	})
}

func TestSystemCollector(t *testing.T) {
	Convey("Given a manager with a short refresh interval", t, func() {
		manager := NewManager(
			WithRefreshInterval(5*time.Millisecond),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("When the collector runs until cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				manager.RunSystemCollector(ctx)
				close(done)
			}()
			time.Sleep(20 * time.Millisecond)
			cancel()
			<-done

			Convey("Then the system gauges should be sampled", func() {
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldBeGreaterThan, 0)
				So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldBeGreaterThan, 0)
			})
		})
	})
}
