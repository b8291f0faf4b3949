/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workqueue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"chainguard.dev/evalrunner/workqueue"
	"github.com/google/go-cmp/cmp"
)

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()
	q := workqueue.New[string]()
	for _, s := range []string{"a", "b", "c"} {
		q.Push(workqueue.Attempt[string]{Item: s})
	}
	// A requeue goes to the back, behind fresh work.
	first, ok := q.Pop(context.Background(), time.Second)
	if !ok {
		t.Fatal("Pop() = false, want true")
	}
	q.Push(first.Next())
	q.Done()

	var got []workqueue.Attempt[string]
	for q.Len() > 0 {
		a, ok := q.Pop(context.Background(), time.Second)
		if !ok {
			t.Fatal("Pop() = false, want true")
		}
		got = append(got, a)
		q.Done()
	}

	want := []workqueue.Attempt[string]{
		{Item: "b"},
		{Item: "c"},
		{Item: "a", Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pop order (-want +got):\n%s", diff)
	}
}

func TestQueue_PopTimeout(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()

	start := time.Now()
	if _, ok := q.Pop(context.Background(), 20*time.Millisecond); ok {
		t.Fatal("Pop() on empty queue = true, want false")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Pop() returned after %v, want at least the timeout", elapsed)
	}
}

func TestQueue_PopContextCancelled(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok := q.Pop(ctx, time.Minute); ok {
		t.Fatal("Pop() with cancelled context = true, want false")
	}
}

func TestQueue_PopWakesOnPush(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()

	got := make(chan workqueue.Attempt[int], 1)
	go func() {
		a, ok := q.Pop(context.Background(), 5*time.Second)
		if ok {
			got <- a
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(workqueue.Attempt[int]{Item: 42, Count: 2})

	select {
	case a := <-got:
		if a.Item != 42 || a.Count != 2 {
			t.Errorf("Pop() = %+v, want {42 2}", a)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not wake up after Push")
	}
}

func TestQueue_WaitCountsRequeues(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()
	q.Push(workqueue.Attempt[int]{Item: 1})

	waited := make(chan error, 1)
	go func() { waited <- q.Wait(context.Background()) }()

	a, _ := q.Pop(context.Background(), time.Second)
	// Requeue before marking the original slot done.
	q.Push(a.Next())
	q.Done()

	select {
	case <-waited:
		t.Fatal("Wait() returned while a requeued attempt was outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	if _, ok := q.Pop(context.Background(), time.Second); !ok {
		t.Fatal("Pop() = false, want requeued attempt")
	}
	q.Done()

	select {
	case err := <-waited:
		if err != nil {
			t.Errorf("Wait() = %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after the queue drained")
	}
	if got := q.Unfinished(); got != 0 {
		t.Errorf("Unfinished() = %d, want 0", got)
	}
}

func TestQueue_WaitEmpty(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()
	if err := q.Wait(context.Background()); err != nil {
		t.Errorf("Wait() on empty queue = %v, want nil", err)
	}
}

func TestQueue_WaitContextCancelled(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()
	q.Push(workqueue.Attempt[int]{Item: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := q.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("Wait() = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestQueue_DoneWithoutPushPanics(t *testing.T) {
	t.Parallel()
	q := workqueue.New[int]()
	defer func() {
		if recover() == nil {
			t.Error("Done() on empty queue did not panic")
		}
	}()
	q.Done()
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	t.Parallel()
	const producers, perProducer = 4, 50
	q := workqueue.New[int]()

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				q.Push(workqueue.Attempt[int]{Item: p*perProducer + i})
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := make(map[int]bool)
	for range 3 {
		go func() {
			for {
				a, ok := q.Pop(ctx, 10*time.Millisecond)
				if !ok {
					if ctx.Err() != nil {
						return
					}
					continue
				}
				mu.Lock()
				seen[a.Item] = true
				mu.Unlock()
				q.Done()
			}
		}()
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	if err := q.Wait(waitCtx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != producers*perProducer {
		t.Errorf("consumed %d distinct items, want %d", len(seen), producers*perProducer)
	}
}
