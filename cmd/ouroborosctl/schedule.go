// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// printGenesisSchedule constructs an engine for scenario and prints the
// genesis leader schedule it computes over the scenario's declared
// stake, without stepping the engine. Useful for sanity-checking a
// scenario file's stake distribution before committing to a full run.
func printGenesisSchedule(s *Scenario) error {
	logger := logrus.WithField("component", "ouroborosctl")

	e, err := buildEngine(context.Background(), s, logger)
	if err != nil {
		return fmt.Errorf("ouroborosctl: %w", err)
	}

	schedule := e.Schedule()
	fmt.Printf("epoch 0 leader schedule (%d slots):\n", len(schedule))
	for slot, id := range schedule {
		fmt.Printf("  slot %3d -> %s\n", slot, id)
	}
	return nil
}
