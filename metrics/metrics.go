// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "asnet"

// Rotation result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector records sketch and capture activity as Prometheus metrics.
// It implements sketch.Observer, and OnBatch matches capture.WithOnBatch.
//
// Metrics are registered on the Registerer passed to NewCollector, never on
// the global default registry.
type Collector struct {
	sketches        prometheus.Gauge       // sketches created
	appended        prometheus.Counter     // rows written to a sketch buffer
	skipped         prometheus.Counter     // all-zero rows ignored
	rotations       *prometheus.CounterVec // shrink steps by result
	rotationSeconds prometheus.Histogram   // shrink step duration
	batches         prometheus.Counter     // capture batches processed
	loss            prometheus.Gauge       // mean loss of the last batch
}

// NewCollector creates the metrics and registers them on reg.
// Registering two collectors on the same registry panics, as with promauto.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		sketches: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "sketch",
			Name:      "sketches",
			Help:      "Number of Frequent Directions sketches created.",
		}),
		appended: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sketch",
			Name:      "rows_appended_total",
			Help:      "Rows written into sketch buffers.",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sketch",
			Name:      "rows_skipped_total",
			Help:      "All-zero rows ignored by sketches.",
		}),
		rotations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sketch",
			Name:      "rotations_total",
			Help:      "Shrink steps performed, by result.",
		}, []string{"result"}),
		rotationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "sketch",
			Name:      "rotation_seconds",
			Help:      "Duration of sketch shrink steps.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
		batches: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "capture",
			Name:      "batches_total",
			Help:      "Batches driven through forward and backward.",
		}),
		loss: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "capture",
			Name:      "loss",
			Help:      "Mean loss of the most recent batch.",
		}),
	}
}

// RecordCreate implements sketch.Observer.
func (c *Collector) RecordCreate(int, int) { c.sketches.Inc() }

// RecordAppend implements sketch.Observer.
func (c *Collector) RecordAppend() { c.appended.Inc() }

// RecordSkip implements sketch.Observer.
func (c *Collector) RecordSkip() { c.skipped.Inc() }

// RecordRotate implements sketch.Observer.
func (c *Collector) RecordRotate(d time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.rotations.WithLabelValues(result).Inc()
	c.rotationSeconds.Observe(d.Seconds())
}

// OnBatch counts a processed batch and records its loss. It never fails.
func (c *Collector) OnBatch(_ int, loss float64) error {
	c.batches.Inc()
	c.loss.Set(loss)
	return nil
}

// Sketches returns the sketch gauge.
func (c *Collector) Sketches() prometheus.Gauge { return c.sketches }

// Appended returns the appended-rows counter.
func (c *Collector) Appended() prometheus.Counter { return c.appended }

// Skipped returns the skipped-rows counter.
func (c *Collector) Skipped() prometheus.Counter { return c.skipped }

// Rotations returns the rotation counter, labelled by result.
func (c *Collector) Rotations() *prometheus.CounterVec { return c.rotations }

// RotationSeconds returns the rotation duration histogram.
func (c *Collector) RotationSeconds() prometheus.Histogram { return c.rotationSeconds }

// Batches returns the processed-batches counter.
func (c *Collector) Batches() prometheus.Counter { return c.batches }

// Loss returns the last-loss gauge.
func (c *Collector) Loss() prometheus.Gauge { return c.loss }
