// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadScenarioParsesValidatorsAndDefaults(t *testing.T) {
	s, err := LoadScenario("testdata/localnet.yaml")
	require.NoError(t, err)

	require.Len(t, s.Validators, 4)
	require.Equal(t, "scrape", s.PvssMethod)
	require.EqualValues(t, 1024, s.GasLimitBoundDivisor)
}

func TestLoadScenarioRejectsAnEmptyValidatorList(t *testing.T) {
	_, err := LoadScenario("testdata/does-not-exist.yaml")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stepDuration: 2\nsecurityParameterK: 1\nvalidators: []\n"), 0o600))
	_, err = LoadScenario(path)
	require.ErrorContains(t, err, "declares no validators")
}

func TestStakesParsesEveryValidatorID(t *testing.T) {
	s, err := LoadScenario("testdata/localnet.yaml")
	require.NoError(t, err)

	ids, balances, err := s.stakes()
	require.NoError(t, err)
	require.Len(t, ids, 4)
	require.Len(t, balances, 4)

	var total uint64
	for _, b := range balances {
		total += b
	}
	require.EqualValues(t, 100, total)
}

func TestBuildEngineConstructsAGenesisScheduleOverTheValidatorSet(t *testing.T) {
	s, err := LoadScenario("testdata/localnet.yaml")
	require.NoError(t, err)

	logger := logrus.WithField("component", "test")
	e, err := buildEngine(context.Background(), s, logger)
	require.NoError(t, err)

	ids, _, err := s.stakes()
	require.NoError(t, err)

	members := make(map[string]bool, len(ids))
	for _, id := range ids {
		members[id.Hex()] = true
	}

	schedule := e.Schedule()
	require.Len(t, schedule, 10) // k=1
	for slot, id := range schedule {
		require.Truef(t, members[id.Hex()], "slot %d assigned to %s, not a scenario validator", slot, id.Hex())
	}
}

func TestRunScenarioStepsTheConfiguredNumberOfTimes(t *testing.T) {
	s, err := LoadScenario("testdata/localnet.yaml")
	require.NoError(t, err)
	s.Steps = 5

	err = runScenario(context.Background(), s)
	require.NoError(t, err)
}
