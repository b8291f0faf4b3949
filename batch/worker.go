/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"fmt"
	"runtime/debug"

	"chainguard.dev/evalrunner/agents/executor/retry"
	"chainguard.dev/evalrunner/workqueue"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// work drains the queue until the worker is retired or the pool stops.
func (p *pool[I, P]) work(w *worker) {
	log := clog.FromContext(p.ctx).With("batch", p.cfg.name).With("worker", w.id)
	log.Debug("Worker started")
	defer log.Debug("Worker stopped")

	for {
		if w.ctx.Err() != nil || !p.scaler.isRunning() {
			return
		}
		a, ok := p.queue.Pop(w.ctx, p.cfg.pollInterval)
		if !ok {
			continue
		}
		if exit := p.process(w, a); exit {
			return
		}
	}
}

// process drives one attempt to a recorded result or a requeue. It always
// marks the queue slot done and reports whether the worker should exit.
func (p *pool[I, P]) process(w *worker, a workqueue.Attempt[I]) (exit bool) {
	defer p.queue.Done()

	id := a.Item.ID()
	log := clog.FromContext(p.ctx).With("batch", p.cfg.name).
		With("worker", w.id).
		With("instance_id", id).
		With("attempt", a.Count)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Worker recovered from panic: %v\n%s", r, debug.Stack())
			exit = false
		}
	}()

	if p.results.has(id) {
		log.Debug("Result already recorded, dropping duplicate attempt")
		return false
	}

	out, err := p.call(a)
	if p.ctx.Err() != nil {
		// The batch is being torn down; nothing recorded for this attempt.
		return true
	}

	switch {
	case err == nil && out != nil:
		p.record(Result[P]{InstanceID: id, Status: StatusSuccess, Output: out, Attempts: a.Count + 1})
		if streak := p.scaler.recordSuccess(); streak%scaleUpStreak == 0 {
			p.scaler.scaleUp()
		}
		return false

	case err == nil:
		log.Warn("Invocation returned no result")
		p.record(Result[P]{
			InstanceID: id,
			Status:     StatusError,
			Error: &ErrorInfo{
				ErrorType:    ErrorTypeNullResult,
				ErrorMessage: "invocation returned no result",
			},
			Attempts: a.Count + 1,
		})
		return false
	}

	info := NewErrorInfo(err)
	log = log.With("error_type", info.ErrorType)

	if retry.IsRateLimited(err) {
		if p.scaler.scaleDown(w, fmt.Sprintf("rate limited on %s", id)) {
			log.Warnf("Rate limited, retiring worker and requeueing: %v", err)
			p.queue.Push(a)
			p.metrics.requeued(requeueRateLimit)
			return true
		}
		backoff := retry.LinearBackoff(p.cfg.backoffUnit, a.Count)
		log.Warnf("Rate limited, backing off %v: %v", backoff, err)
		if retry.Sleep(p.ctx, backoff) != nil {
			return true
		}
	}

	if a.Count < p.cfg.maxRetries {
		log.Warnf("Invocation failed, requeueing: %v", err)
		p.queue.Push(a.Next())
		p.metrics.requeued(requeueRetry)
		return false
	}

	log.Errorf("Invocation failed after %d attempts: %v", a.Count+1, err)
	p.record(Result[P]{InstanceID: id, Status: StatusError, Error: info, Attempts: a.Count + 1})
	return false
}

// call invokes the remote unit of work inside a span. A panic in the
// invoke function is returned as a *PanicError.
func (p *pool[I, P]) call(a workqueue.Attempt[I]) (out *P, err error) {
	ctx, span := p.tracer.Start(withAttempt(p.ctx, a.Count), "batch.invoke",
		trace.WithAttributes(
			attribute.String("batch", p.cfg.name),
			attribute.String("instance_id", a.Item.ID()),
			attribute.Int("attempt", a.Count),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &PanicError{Value: r, Stack: string(debug.Stack())}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	return p.invoke(ctx, a.Item)
}

func (p *pool[I, P]) record(r Result[P]) {
	if !p.results.record(r) {
		return
	}
	var errType string
	if r.Error != nil {
		errType = r.Error.ErrorType
	}
	p.metrics.recorded(r.Status, errType)
}
