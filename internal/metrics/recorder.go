// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package metrics exposes Prometheus instruments for batch runs and harvested
// scores. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/moldyngo/internal/objective"
)

const namespace = "moldyngo"

// Batch outcomes used as the status label of the batches counter.
const (
	StatusSucceeded   = "succeeded"
	StatusNonzeroExit = "nonzero_exit"
	StatusFailed      = "failed"
	StatusCanceled    = "canceled"
)

// Recorder owns a private Prometheus registry and the instruments on it.
type Recorder struct {
	registry  *prometheus.Registry
	batches   *prometheus.CounterVec
	molecules *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lines     *prometheus.CounterVec
}

// New builds a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batch driver invocations by objective and outcome.",
		}, []string{"objective", "status"}),
		molecules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "molecules_total",
			Help:      "Molecules returned to the caller by objective and outcome.",
		}, []string{"objective", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one Forward call, from launch to harvest.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"objective"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "driver_lines_total",
			Help:      "Output lines read from batch drivers.",
		}, []string{"objective"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.batches, r.molecules, r.duration, r.lines,
	)
	return r
}

// Registry returns the registry the instruments are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveBatch records one finished batch.
func (r *Recorder) ObserveBatch(kind, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.batches.WithLabelValues(kind, status).Inc()
	r.duration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveScores counts present and Missing entries of scores.
func (r *Recorder) ObserveScores(kind string, scores objective.ScoreMap) {
	if r == nil {
		return
	}
	present, missing := scores.Counts()
	r.molecules.WithLabelValues(kind, "scored").Add(float64(present))
	r.molecules.WithLabelValues(kind, "missing").Add(float64(missing))
}

// LineObserver returns a callback that counts driver output lines.
func (r *Recorder) LineObserver(kind string) func(string) {
	if r == nil {
		return nil
	}
	c := r.lines.WithLabelValues(kind)
	return func(string) { c.Inc() }
}
