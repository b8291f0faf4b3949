/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package batch runs many independent remote invocations through an
adaptive pool of workers.

# Overview

Run seeds a workqueue.Queue with one attempt per item, starts the
configured number of workers and blocks until every attempt (including
retries) has been processed. Each worker pops an attempt, invokes the
remote unit of work and classifies the outcome:

  - success: the result is recorded and the success streak grows; every
    fifth consecutive success the pool tries to add a worker back
  - nil payload: a terminal NullResult failure
  - rate-limited error: the pool tries to retire the worker that saw it
    and requeues the attempt unchanged; if retiring is refused the worker
    backs off linearly and falls through to normal retry accounting
  - other error: requeued with an incremented attempt count until
    MaxRetries is exhausted, then recorded as a terminal failure; a panic
    in the invoke function is reported as a PanicError and handled here

Results come back in input order. Items that never produced a result get
a StatusMissing placeholder, so callers always see one entry per item.

# Scaling

The pool never shrinks below MinWorkers and never grows beyond the
initial worker count. Two scaling operations are at least the scaling
cooldown apart; the first one of a batch is not delayed.

# Usage

	results, err := batch.Run(ctx, examples, client.Invoke,
		batch.WithWorkers(5),
		batch.WithMinWorkers(1),
		batch.WithMaxRetries(3),
	)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Status != batch.StatusSuccess {
			log.Printf("%s: %s", r.InstanceID, r.Error.ErrorType)
		}
	}

# Thread Safety

InvokeFunc is called from multiple goroutines at once and must be safe
for concurrent use. Scaling hooks run outside the pool's lock but may be
called concurrently from different workers.
*/
package batch
