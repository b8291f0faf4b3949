/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type metricsItem string

func (i metricsItem) ID() string { return string(i) }

func TestRun_RecordsMetrics(t *testing.T) {
	const name = "metrics-test"
	var calls atomic.Int32

	_, err := Run(context.Background(), []metricsItem{"a", "b"}, func(_ context.Context, it metricsItem) (*string, error) {
		if it == "b" && calls.Add(1) == 1 {
			return nil, errors.New("connection reset")
		}
		out := string(it)
		return &out, nil
	},
		WithName(name),
		WithWorkers(1),
		WithPollInterval(5*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	success := testutil.ToFloat64(resultCounter.With(prometheus.Labels{"batch": name, "status": "success", "error_type": ""}))
	if success != 2 {
		t.Errorf("success results = %v, want 2", success)
	}
	retries := testutil.ToFloat64(requeueCounter.With(prometheus.Labels{"batch": name, "reason": requeueRetry}))
	if retries != 1 {
		t.Errorf("retry requeues = %v, want 1", retries)
	}
	if active := testutil.ToFloat64(activeWorkersGauge.With(prometheus.Labels{"batch": name})); active != 0 {
		t.Errorf("active workers after run = %v, want 0", active)
	}
}
