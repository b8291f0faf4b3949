/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workqueue

import (
	"context"
	"sync"
	"time"
)

// Attempt pairs a work item with the number of times it has been retried.
type Attempt[I any] struct {
	Item  I
	Count int
}

// Next returns the attempt that follows a retryable failure.
func (a Attempt[I]) Next() Attempt[I] {
	return Attempt[I]{Item: a.Item, Count: a.Count + 1}
}

// Queue is an unbounded FIFO of attempts. Push never blocks. All methods
// are safe for concurrent use.
type Queue[I any] struct {
	mu         sync.Mutex
	items      []Attempt[I]
	unfinished int

	// ready is closed and replaced whenever an item is pushed.
	ready chan struct{}
	// drained is closed and replaced whenever unfinished drops to zero.
	drained chan struct{}
}

// New creates an empty Queue.
func New[I any]() *Queue[I] {
	return &Queue[I]{
		ready:   make(chan struct{}),
		drained: make(chan struct{}),
	}
}

// Push appends an attempt to the back of the queue.
func (q *Queue[I]) Push(a Attempt[I]) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, a)
	q.unfinished++
	close(q.ready)
	q.ready = make(chan struct{})
}

// Pop removes the attempt at the front of the queue. It waits up to
// timeout for one to become available and reports false on timeout or
// when ctx is done.
func (q *Queue[I]) Pop(ctx context.Context, timeout time.Duration) (Attempt[I], bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			a := q.items[0]
			var zero Attempt[I]
			q.items[0] = zero
			q.items = q.items[1:]
			q.mu.Unlock()
			return a, true
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-timer.C:
			return Attempt[I]{}, false
		case <-ctx.Done():
			return Attempt[I]{}, false
		}
	}
}

// Done marks one popped attempt as finished. It panics if called more
// times than attempts were pushed.
func (q *Queue[I]) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		panic("workqueue: Done called more times than Push")
	}
	q.unfinished--
	if q.unfinished == 0 {
		close(q.drained)
		q.drained = make(chan struct{})
	}
}

// Wait blocks until every pushed attempt has been marked done.
func (q *Queue[I]) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		if q.unfinished == 0 {
			q.mu.Unlock()
			return nil
		}
		drained := q.drained
		q.mu.Unlock()

		select {
		case <-drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Len returns the number of attempts waiting to be popped.
func (q *Queue[I]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Unfinished returns the number of pushed attempts not yet marked done.
func (q *Queue[I]) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}
