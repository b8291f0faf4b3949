/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package batch

import (
	"errors"
	"fmt"
	"time"
)

// Default pool values.
const (
	DefaultWorkers         = 5
	DefaultMinWorkers      = 1
	DefaultMaxRetries      = 3
	DefaultScalingCooldown = 10 * time.Second
	DefaultPollInterval    = time.Second
	DefaultBackoffUnit     = 2 * time.Second

	defaultName = "default"
)

// Option configures a batch run.
type Option func(*config)

type config struct {
	name            string
	workers         int
	minWorkers      int
	maxRetries      int
	scalingCooldown time.Duration
	pollInterval    time.Duration
	backoffUnit     time.Duration
	onScale         func(ScalingEvent)
}

func newConfig(opts ...Option) (config, error) {
	cfg := config{
		name:            defaultName,
		workers:         DefaultWorkers,
		minWorkers:      DefaultMinWorkers,
		maxRetries:      DefaultMaxRetries,
		scalingCooldown: DefaultScalingCooldown,
		pollInterval:    DefaultPollInterval,
		backoffUnit:     DefaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch {
	case c.workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.workers)
	case c.minWorkers < 1:
		return fmt.Errorf("min workers must be at least 1, got %d", c.minWorkers)
	case c.minWorkers > c.workers:
		return fmt.Errorf("min workers (%d) cannot exceed workers (%d)", c.minWorkers, c.workers)
	case c.maxRetries < 0:
		return errors.New("max retries cannot be negative")
	case c.scalingCooldown < 0:
		return errors.New("scaling cooldown cannot be negative")
	case c.pollInterval <= 0:
		return errors.New("poll interval must be positive")
	case c.backoffUnit < 0:
		return errors.New("backoff unit cannot be negative")
	}
	return nil
}

// WithName sets the label the pool's metrics are recorded under.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithWorkers sets the initial number of workers. It is also the ceiling
// the pool grows back to after scaling down.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithMinWorkers sets the floor below which the pool never scales down.
func WithMinWorkers(n int) Option {
	return func(c *config) { c.minWorkers = n }
}

// WithMaxRetries sets how many times a generic failure is retried before
// a terminal failure is recorded.
func WithMaxRetries(n int) Option {
	return func(c *config) { c.maxRetries = n }
}

// WithScalingCooldown sets the minimum time between two scaling operations.
func WithScalingCooldown(d time.Duration) Option {
	return func(c *config) { c.scalingCooldown = d }
}

// WithPollInterval sets how long an idle worker waits on the queue before
// checking whether it should keep running.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) { c.pollInterval = d }
}

// WithBackoffUnit sets the unit of the linear backoff applied when a
// rate-limited worker could not be retired. The delay is unit*(attempt+1).
func WithBackoffUnit(d time.Duration) Option {
	return func(c *config) { c.backoffUnit = d }
}

// WithScalingHook registers a callback invoked after every scaling
// operation that took effect.
func WithScalingHook(fn func(ScalingEvent)) Option {
	return func(c *config) { c.onScale = fn }
}
