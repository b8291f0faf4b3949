/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// scaleUpStreak is the number of consecutive successes required before
// the pool grows by one worker.
const scaleUpStreak = 5

// Action is a scaling operation that took effect.
type Action string

const (
	// ActionScaleUp indicates a worker was added.
	ActionScaleUp Action = "scale_up"

	// ActionScaleDown indicates a worker was retired.
	ActionScaleDown Action = "scale_down"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// ScalingEvent describes a change in the number of active workers.
type ScalingEvent struct {
	Action Action
	// WorkerID is the worker that was added or retired.
	WorkerID int
	// ActiveWorkers is the worker count after the change.
	ActiveWorkers int
	Reason        string
}

// worker is the handle the scaler keeps for every live worker goroutine.
type worker struct {
	id     int
	ctx    context.Context
	cancel context.CancelFunc
}

// scaler owns the pool's shared scaling state. Every read-modify-write of
// the counters and of the live worker list happens under mu, so the list
// and the count always change together.
type scaler struct {
	mu          sync.Mutex
	running     bool
	active      int
	streak      int
	lastScaling time.Time
	workers     []*worker

	minWorkers int
	maxWorkers int
	cooldown   time.Duration

	// spawn starts a worker goroutine. It is called with mu held.
	spawn   func() *worker
	now     func() time.Time
	onScale func(ScalingEvent)
	// onActive observes every change of active. It is called with mu held
	// so observers see the changes in order.
	onActive func(int)
}

func newScaler(cfg config, spawn func() *worker) *scaler {
	return &scaler{
		minWorkers: cfg.minWorkers,
		maxWorkers: cfg.workers,
		cooldown:   cfg.scalingCooldown,
		spawn:      spawn,
		now:        time.Now,
	}
}

// start launches the initial workers and marks the pool running.
func (s *scaler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true
	for range s.maxWorkers {
		s.workers = append(s.workers, s.spawn())
	}
	s.active = len(s.workers)
	s.observeActive()
}

// stop marks the pool not running and cancels every live worker.
func (s *scaler) stop() {
	s.mu.Lock()
	s.running = false
	workers := s.workers
	s.workers = nil
	s.mu.Unlock()

	for _, w := range workers {
		w.cancel()
	}
}

func (s *scaler) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// activeWorkers returns the current worker count.
func (s *scaler) activeWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// recordSuccess extends the success streak and returns its new length.
func (s *scaler) recordSuccess() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streak++
	return s.streak
}

// coolingDown reports whether the last scaling operation is too recent.
// Callers must hold mu.
func (s *scaler) coolingDown() bool {
	return !s.lastScaling.IsZero() && s.now().Sub(s.lastScaling) < s.cooldown
}

// scaleUp adds one worker if the pool is running, outside the cooldown,
// below its ceiling and the success streak is long enough.
func (s *scaler) scaleUp() bool {
	s.mu.Lock()
	if !s.running || s.coolingDown() || s.active >= s.maxWorkers || s.streak < scaleUpStreak {
		s.mu.Unlock()
		return false
	}

	w := s.spawn()
	s.workers = append(s.workers, w)
	s.active++
	s.observeActive()
	ev := ScalingEvent{
		Action:        ActionScaleUp,
		WorkerID:      w.id,
		ActiveWorkers: s.active,
		Reason:        fmt.Sprintf("%d consecutive successes", s.streak),
	}
	s.streak = 0
	s.lastScaling = s.now()
	s.mu.Unlock()

	s.emit(ev)
	return true
}

// scaleDown retires one worker: target if it is still live, otherwise the
// most recently added one. It refuses once stopped, inside the cooldown or
// at the floor.
func (s *scaler) scaleDown(target *worker, reason string) bool {
	s.mu.Lock()
	if !s.running || s.coolingDown() || s.active <= s.minWorkers || len(s.workers) == 0 {
		s.mu.Unlock()
		return false
	}

	s.streak = 0
	s.lastScaling = s.now()

	idx := len(s.workers) - 1
	if target != nil {
		if i := slices.Index(s.workers, target); i >= 0 {
			idx = i
		}
	}
	w := s.workers[idx]
	s.workers = slices.Delete(s.workers, idx, idx+1)
	w.cancel()
	s.active--
	s.observeActive()
	ev := ScalingEvent{
		Action:        ActionScaleDown,
		WorkerID:      w.id,
		ActiveWorkers: s.active,
		Reason:        reason,
	}
	s.mu.Unlock()

	s.emit(ev)
	return true
}

// observeActive reports the worker count. Callers must hold mu.
func (s *scaler) observeActive() {
	if s.onActive != nil {
		s.onActive(s.active)
	}
}

func (s *scaler) emit(ev ScalingEvent) {
	if s.onScale != nil {
		s.onScale(ev)
	}
}
