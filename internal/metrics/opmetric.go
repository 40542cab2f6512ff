// Copyright (c) 2015 Western Digital Corporation or its affiliates.  All rights reserved.
// SPDX-License-Identifier: MIT

// Package metrics has helpers for tracking operations with prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/westerndigitalcorporation/tierdb/internal/core"
)

// OpMetric tracks counts and latencies of operations, such as writes or chunk
// migrations.
//
// OpMetric creates three metric vectors under the given subsystem:
//   - A counter with the given name, label "result" and any additional labels.
//     Start increments it with "result"="all"; Failed and TooBusy increment it
//     with "result"="failed" and "too_busy".
//   - A summary with the given name + "_latency". End observes the latency
//     only if neither Failed nor TooBusy was called.
//   - A gauge with the given name + "_pending", the number of operations that
//     have started but not ended.
//
// Suggested usage:
//
//	var opm = metrics.NewOpMetric("db", "ops", "op")
//
//	func (d *DB) Something() (err error) {
//		op := opm.Start("something")
//		defer op.EndWithError(&err)
//		...
//	}
type OpMetric struct {
	counters  *prometheus.CounterVec
	latencies *prometheus.SummaryVec
	pending   *prometheus.GaugeVec
}

// NewOpMetric returns a new op metric registered with the default registry.
// It must only be called once per subsystem and name, typically from a
// package level var.
func NewOpMetric(subsystem, name string, labels ...string) *OpMetric {
	labelsWithResult := append([]string{"result"}, labels...)
	return &OpMetric{
		counters: promauto.NewCounterVec(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      name,
			Help:      "operation counts by result",
		}, labelsWithResult),
		latencies: promauto.NewSummaryVec(prometheus.SummaryOpts{
			Subsystem: subsystem,
			Name:      name + "_latency",
			Help:      "latency of successful operations in seconds",
		}, labels),
		pending: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      name + "_pending",
			Help:      "operations in progress",
		}, labels),
	}
}

// Start marks that a new operation has started and begins measuring the latency.
func (m *OpMetric) Start(values ...string) *Op {
	op := &Op{opm: m, values: values}
	op.Result("all") // this resets start, so set it below
	op.start = time.Now()
	m.pending.WithLabelValues(values...).Inc()
	return op
}

// Count returns the counter value for the given result and label values.
func (m *OpMetric) Count(result string, values ...string) uint64 {
	valuesWithResult := append([]string{result}, values...)
	var value dto.Metric
	if m.counters.WithLabelValues(valuesWithResult...).Write(&value) != nil {
		return 0
	}
	return uint64(value.GetCounter().GetValue())
}

// Pending returns the number of operations that have started but not ended.
func (m *OpMetric) Pending(values ...string) int64 {
	var value dto.Metric
	if m.pending.WithLabelValues(values...).Write(&value) != nil {
		return 0
	}
	return int64(value.GetGauge().GetValue())
}

// String returns a one line summary of the operation's latency and results.
func (m *OpMetric) String(values ...string) string {
	out := SummaryString(m.latencies.WithLabelValues(values...))
	return out + fmt.Sprintf(" / %d total / %d rejected / %d failed / %d pending",
		m.Count("all", values...), m.Count("too_busy", values...), m.Count("failed", values...), m.Pending(values...))
}

// Op is a single operation being measured.
type Op struct {
	start  time.Time
	opm    *OpMetric
	values []string
}

// Failed records that the operation returned an error.
func (op *Op) Failed() {
	op.Result("failed")
}

// TooBusy records that the operation was rejected for lack of resources.
func (op *Op) TooBusy() {
	op.Result("too_busy")
}

// Result records an arbitrary result.
func (op *Op) Result(result string) {
	op.start = time.Time{} // End won't record latency
	valuesWithResult := append([]string{result}, op.values...)
	op.opm.counters.WithLabelValues(valuesWithResult...).Inc()
}

// End records the elapsed time since Start.
func (op *Op) End() {
	if !op.start.IsZero() {
		op.opm.latencies.WithLabelValues(op.values...).Observe(time.Since(op.start).Seconds())
	}
	op.opm.pending.WithLabelValues(op.values...).Dec()
}

// EndWithError classifies *err, which may be nil: core.ErrTooBusy counts as
// TooBusy, any other error as Failed. It always calls End.
func (op *Op) EndWithError(err *error) {
	if err != nil && *err != nil {
		if core.ErrTooBusy.Is(*err) {
			op.TooBusy()
		} else {
			op.Failed()
		}
	}
	op.End()
}

// SummaryString formats the sample count and quantiles of a summary.
func SummaryString(obs prometheus.Observer) string {
	sum, ok := obs.(prometheus.Summary)
	if !ok {
		return ""
	}
	var value dto.Metric
	if sum.Write(&value) != nil || value.Summary == nil {
		return ""
	}
	out := fmt.Sprintf("count=%d;", value.Summary.GetSampleCount())
	for _, q := range value.Summary.Quantile {
		out += fmt.Sprintf(" %gth=%.3f;", q.GetQuantile()*100, q.GetValue())
	}
	return out[:len(out)-1]
}
