/*
   Copyright 2026 The Fapilog Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sample is one exported measurement for external metric consumers.
type Sample struct {
	Name   string
	Value  float64
	Labels map[string]string
}

// Stats holds the pipeline's accounting counters. Unlike the prometheus
// collectors these are readable, which DrainResult needs.
type Stats struct {
	Submitted atomic.Uint64
	Processed atomic.Uint64
	Dropped   atomic.Uint64
	Filtered  atomic.Uint64
	Retried   atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Submitted uint64
	Processed uint64
	Dropped   uint64
	Filtered  uint64
	Retried   uint64
}

// Metrics bundles the pipeline's prometheus collectors, the readable
// Stats counters, and a bounded export channel for external consumers.
//
// All methods are safe on a nil receiver so optional instrumentation
// call sites stay unconditional.
type Metrics struct {
	stats Stats

	submitted   prometheus.Counter
	processed   prometheus.Counter
	dropped     prometheus.Counter
	filtered    prometheus.Counter
	retried     prometheus.Counter
	rotations   prometheus.Counter
	diagnostics prometheus.Counter

	queueDepth     prometheus.Gauge
	queueHighWater prometheus.Gauge

	stageLatency *prometheus.HistogramVec
	sinkLatency  *prometheus.HistogramVec
	flushLatency prometheus.Histogram

	export chan Sample
}

// New builds a Metrics instance registered on reg. A nil reg gets a
// private registry, which keeps independent pipelines from colliding on
// the default one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	m := &Metrics{
		submitted: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_events_submitted_total",
			Help: "Log records submitted to the queue.",
		}),
		processed: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_events_processed_total",
			Help: "Log records written to at least one sink.",
		}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_events_dropped_total",
			Help: "Log records dropped by backpressure or pipeline faults.",
		}),
		filtered: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_events_filtered_total",
			Help: "Log records dropped by filter stages.",
		}),
		retried: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_sink_retries_total",
			Help: "Sink write retries.",
		}),
		rotations: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_file_rotations_total",
			Help: "Rotating-file sink rotations.",
		}),
		diagnostics: f.NewCounter(prometheus.CounterOpts{
			Name: "fapilog_diagnostics_total",
			Help: "Internal diagnostics emitted.",
		}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "fapilog_queue_depth",
			Help: "Current queue depth.",
		}),
		queueHighWater: f.NewGauge(prometheus.GaugeOpts{
			Name: "fapilog_queue_depth_high_watermark",
			Help: "Maximum observed queue depth.",
		}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fapilog_stage_latency_seconds",
			Help:    "Per-stage processing latency.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"stage"}),
		sinkLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fapilog_sink_write_latency_seconds",
			Help:    "Per-sink write/batch latency.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"sink"}),
		flushLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fapilog_flush_latency_seconds",
			Help:    "Flush barrier completion latency.",
			Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
		export: make(chan Sample, 1024),
	}
	return m
}

// Samples exposes the bounded export channel. The pipeline never blocks
// on it: when the consumer lags, samples are discarded.
func (m *Metrics) Samples() <-chan Sample {
	if m == nil {
		return nil
	}
	return m.export
}

func (m *Metrics) publish(name string, value float64, labels map[string]string) {
	select {
	case m.export <- Sample{Name: name, Value: value, Labels: labels}:
	default:
	}
}

// IncSubmitted counts one submitted record.
func (m *Metrics) IncSubmitted() {
	if m == nil {
		return
	}
	m.stats.Submitted.Add(1)
	m.submitted.Inc()
}

// IncProcessed counts one record written to at least one sink.
func (m *Metrics) IncProcessed() {
	if m == nil {
		return
	}
	m.stats.Processed.Add(1)
	m.processed.Inc()
}

// IncDropped counts n dropped records.
func (m *Metrics) IncDropped(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.stats.Dropped.Add(n)
	m.dropped.Add(float64(n))
}

// IncFiltered counts one filter-dropped record.
func (m *Metrics) IncFiltered() {
	if m == nil {
		return
	}
	m.stats.Filtered.Add(1)
	m.filtered.Inc()
}

// IncRetried counts one sink write retry.
func (m *Metrics) IncRetried() {
	if m == nil {
		return
	}
	m.stats.Retried.Add(1)
	m.retried.Inc()
}

// IncRotations counts one file rotation.
func (m *Metrics) IncRotations() {
	if m == nil {
		return
	}
	m.rotations.Inc()
	m.publish("fapilog_file_rotations_total", 1, nil)
}

// IncDiagnostics counts one emitted diagnostic.
func (m *Metrics) IncDiagnostics() {
	if m == nil {
		return
	}
	m.diagnostics.Inc()
}

// SetQueueDepth records the current and high-water queue depth.
func (m *Metrics) SetQueueDepth(depth, highWater int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
	m.queueHighWater.Set(float64(highWater))
}

// ObserveStage records one stage execution latency.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveSink records one sink write latency.
func (m *Metrics) ObserveSink(sink string, d time.Duration) {
	if m == nil {
		return
	}
	m.sinkLatency.WithLabelValues(sink).Observe(d.Seconds())
	m.publish("fapilog_sink_write_latency_seconds", d.Seconds(), map[string]string{"sink": sink})
}

// ObserveFlush records one flush barrier latency.
func (m *Metrics) ObserveFlush(d time.Duration) {
	if m == nil {
		return
	}
	m.flushLatency.Observe(d.Seconds())
	m.publish("fapilog_flush_latency_seconds", d.Seconds(), nil)
}

// Stats returns a snapshot of the accounting counters.
func (m *Metrics) Stats() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Submitted: m.stats.Submitted.Load(),
		Processed: m.stats.Processed.Load(),
		Dropped:   m.stats.Dropped.Load(),
		Filtered:  m.stats.Filtered.Load(),
		Retried:   m.stats.Retried.Load(),
	}
}
