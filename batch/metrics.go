/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeWorkersGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "evalrunner_batch_active_workers",
			Help: "Number of workers currently draining the batch queue",
		},
		[]string{"batch"},
	)

	scalingCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalrunner_batch_scaling_events_total",
			Help: "Total number of scaling operations that took effect",
		},
		[]string{"batch", "action"},
	)

	resultCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalrunner_batch_results_total",
			Help: "Total number of results recorded, by status and error type",
		},
		[]string{"batch", "status", "error_type"},
	)

	requeueCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evalrunner_batch_requeues_total",
			Help: "Total number of attempts put back on the queue",
		},
		[]string{"batch", "reason"},
	)
)

// Requeue reasons.
const (
	requeueRetry     = "retry"
	requeueRateLimit = "rate_limit"
)

// poolMetrics holds the metric children for one batch name.
type poolMetrics struct {
	batch         string
	activeWorkers prometheus.Gauge
}

func newPoolMetrics(batch string) *poolMetrics {
	return &poolMetrics{
		batch:         batch,
		activeWorkers: activeWorkersGauge.With(prometheus.Labels{"batch": batch}),
	}
}

func (m *poolMetrics) setActive(n int) {
	m.activeWorkers.Set(float64(n))
}

func (m *poolMetrics) scaled(ev ScalingEvent) {
	scalingCounter.With(prometheus.Labels{
		"batch":  m.batch,
		"action": ev.Action.String(),
	}).Inc()
}

func (m *poolMetrics) recorded(status Status, errorType string) {
	resultCounter.With(prometheus.Labels{
		"batch":      m.batch,
		"status":     string(status),
		"error_type": errorType,
	}).Inc()
}

func (m *poolMetrics) requeued(reason string) {
	requeueCounter.With(prometheus.Labels{
		"batch":  m.batch,
		"reason": reason,
	}).Inc()
}
