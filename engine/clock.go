// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

// StepClock drives an Engine's StepOnce using a single cooperatively
// re-armed timer, rather than a free-running ticker, so that a slow
// step never queues up a backlog of pending ticks. When the engine's
// Config carries a StartStep, the clock never arms itself; callers are
// expected to invoke StepOnce directly, matching the deterministic test
// setup described for this engine.
type StepClock struct {
	engine *Engine
	logger *logrus.Entry
	stop   chan struct{}
	done   chan struct{}
}

// NewStepClock returns a StepClock for engine.
func NewStepClock(engine *Engine) *StepClock {
	return &StepClock{
		engine: engine,
		logger: logrus.WithField("component", "step-clock"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run blocks, stepping engine once per slot until ctx is cancelled or
// Stop is called. It is a no-op if the engine's config suppresses the
// clock via StartStep.
func (c *StepClock) Run(ctx context.Context) {
	defer close(c.done)

	if c.engine.cfg.StartStep != nil {
		return
	}

	timer := time.NewTimer(c.remaining())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-timer.C:
			c.engine.StepOnce(ctx)
			timer.Reset(c.remaining())
		}
	}
}

// Stop halts a running clock. Safe to call at most once.
func (c *StepClock) Stop() {
	close(c.stop)
	<-c.done
}

// remaining is the duration until the next step is due, computed from
// the network-wide start time and the configured step duration so that
// independently started processes converge on the same step boundaries.
func (c *StepClock) remaining() time.Duration {
	cfg := c.engine.cfg
	nextStep := c.engine.Step() + 1
	dueAt := time.Unix(int64(cfg.NetworkWideStartTime), 0).Add(cfg.StepDuration() * time.Duration(nextStep))

	d := dueAt.Sub(nowFunc())
	if d < 0 {
		return 0
	}
	return d
}
