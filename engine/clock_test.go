// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemainingCountsDownToTheNextSlotBoundary(t *testing.T) {
	e := &Engine{cfg: &Config{StepDurationSeconds: 4, NetworkWideStartTime: 1000}}
	e.step.Store(2)
	c := NewStepClock(e)

	defer func() { nowFunc = time.Now }()

	// Step 3 ends at 1000 + 4*3 = 1012.
	nowFunc = func() time.Time { return time.Unix(1009, 0) }
	require.Equal(t, 3*time.Second, c.remaining())

	nowFunc = func() time.Time { return time.Unix(1013, 0) }
	require.Equal(t, time.Duration(0), c.remaining())
}

func TestRunReturnsImmediatelyWhenStartStepSuppressesTheClock(t *testing.T) {
	start := uint64(7)
	e := &Engine{cfg: &Config{StepDurationSeconds: 1, StartStep: &start}}
	e.step.Store(start)
	c := NewStepClock(e)

	done := make(chan struct{})
	go func() {
		c.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("clock did not return with the step clock suppressed")
	}
	require.Equal(t, start, e.Step())
}
