/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workqueue provides an in-memory FIFO of work attempts with
// completion tracking.
//
// A Queue pairs every pushed item with an unfinished counter, so callers
// can Pop an attempt, requeue it (Push) and only then mark the original
// slot Done. Wait returns once every pushed attempt has been marked done,
// which makes requeues safe: the counter never reaches zero while a
// retry is still in flight.
//
//	q := workqueue.New[string]()
//	q.Push(workqueue.Attempt[string]{Item: "a"})
//
//	go func() {
//		for {
//			a, ok := q.Pop(ctx, time.Second)
//			if !ok {
//				continue
//			}
//			process(a)
//			q.Done()
//		}
//	}()
//
//	if err := q.Wait(ctx); err != nil {
//		return err
//	}
package workqueue
