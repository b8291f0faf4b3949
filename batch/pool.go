/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/evalrunner/workqueue"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "chainguard.dev/evalrunner/batch"

type pool[I Item, P any] struct {
	// ctx is the batch context. Invocations and backoff sleeps run on it,
	// so a retired worker still finishes the attempt it is holding.
	ctx     context.Context
	cfg     config
	invoke  InvokeFunc[I, P]
	queue   *workqueue.Queue[I]
	results *resultSet[P]
	scaler  *scaler
	metrics *poolMetrics
	tracer  trace.Tracer

	group  errgroup.Group
	nextID int // guarded by scaler.mu; spawn is only called with it held
}

// Run processes items with an adaptive pool of workers and returns one
// result per item, in input order. Individual failures are reported as
// results, never as errors. An error is returned only for invalid options
// or when ctx ends before the queue drained; the partial results are
// returned alongside it.
func Run[I Item, P any](ctx context.Context, items []I, invoke InvokeFunc[I, P], opts ...Option) ([]Result[P], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid batch options: %w", err)
	}
	if invoke == nil {
		return nil, errors.New("invalid batch options: nil invoke function")
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID()
	}

	p := &pool[I, P]{
		ctx:     ctx,
		cfg:     cfg,
		invoke:  invoke,
		queue:   workqueue.New[I](),
		results: newResultSet[P](),
		metrics: newPoolMetrics(cfg.name),
		tracer:  otel.Tracer(tracerName),
	}
	p.scaler = newScaler(cfg, p.spawn)
	p.scaler.onScale = p.observeScaling
	p.scaler.onActive = p.metrics.setActive

	if len(items) == 0 {
		return p.results.ordered(ids), nil
	}

	log := clog.FromContext(ctx).With("batch", cfg.name)
	log.Infof("Processing %d items with %d workers (min %d, max retries %d)",
		len(items), cfg.workers, cfg.minWorkers, cfg.maxRetries)

	for _, item := range items {
		p.queue.Push(workqueue.Attempt[I]{Item: item})
	}
	p.scaler.start()

	waitErr := p.queue.Wait(ctx)

	p.scaler.stop()
	_ = p.group.Wait()
	p.metrics.setActive(0)

	results := p.results.ordered(ids)
	if waitErr != nil {
		log.Warnf("Batch interrupted with %d items outstanding: %v", p.queue.Unfinished(), waitErr)
		return results, waitErr
	}
	log.Infof("Batch complete: %d results", len(results))
	return results, nil
}

// spawn starts a worker goroutine. It is called by the scaler with its
// lock held.
func (p *pool[I, P]) spawn() *worker {
	p.nextID++
	ctx, cancel := context.WithCancel(p.ctx)
	w := &worker{id: p.nextID, ctx: ctx, cancel: cancel}
	p.group.Go(func() error {
		defer cancel()
		p.work(w)
		return nil
	})
	return w
}

func (p *pool[I, P]) observeScaling(ev ScalingEvent) {
	p.metrics.scaled(ev)
	clog.FromContext(p.ctx).With("batch", p.cfg.name).
		With("worker", ev.WorkerID).
		With("active_workers", ev.ActiveWorkers).
		Infof("Scaling %s: %s", ev.Action, ev.Reason)
	if p.cfg.onScale != nil {
		p.cfg.onScale(ev)
	}
}
