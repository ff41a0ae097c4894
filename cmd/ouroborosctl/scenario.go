// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ouroboros/go-ouroboros/engine"
	"github.com/ouroboros/go-ouroboros/stakeholder"
)

// scenarioValidator is one operator-supplied validator entry: its id and
// its fixed stake, expressed in the scenario's devnet ledger.
type scenarioValidator struct {
	ID    string `yaml:"id"`
	Stake uint64 `yaml:"stake"`
}

// Scenario is the YAML shape a scenario file decodes into: an engine
// configuration plus the devnet-only extras (fixed stake per validator,
// which validator this process signs as, and how many steps to run)
// that have no place in the engine's own JSON config.
type Scenario struct {
	StepDurationSeconds  uint64              `yaml:"stepDuration"`
	SecurityParameterK   uint64              `yaml:"securityParameterK"`
	PvssMethod           string              `yaml:"pvssMethod"`
	GasLimitBoundDivisor uint64              `yaml:"gasLimitBoundDivisor"`
	Validators           []scenarioValidator `yaml:"validators"`
	Signer               string              `yaml:"signer"`
	Steps                uint64              `yaml:"steps"`
}

// LoadScenario reads and decodes a scenario file from path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ouroborosctl: reading scenario %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ouroborosctl: parsing scenario %s: %w", path, err)
	}
	if len(s.Validators) == 0 {
		return nil, fmt.Errorf("ouroborosctl: scenario %s declares no validators", path)
	}
	if s.GasLimitBoundDivisor == 0 {
		s.GasLimitBoundDivisor = 1024
	}
	return &s, nil
}

// stakes returns the scenario's validators as (id, stake) pairs, parsed
// to stakeholder types.
func (s *Scenario) stakes() ([]stakeholder.ID, map[stakeholder.ID]uint64, error) {
	ids := make([]stakeholder.ID, 0, len(s.Validators))
	balances := make(map[stakeholder.ID]uint64, len(s.Validators))
	for _, v := range s.Validators {
		id, err := stakeholder.IDFromHex(v.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("ouroborosctl: validator %q: %w", v.ID, err)
		}
		ids = append(ids, id)
		balances[id] = v.Stake
	}
	return ids, balances, nil
}

// decodeEngineConfigJSON marshals the scenario's engine-relevant fields
// (plus the already-dealt validator PVSS keys) to the engine's wire
// JSON shape, so building a Config takes the same decode path a real
// deployment's chain spec would, rather than reaching into Config's
// unexported fields.
func (s *Scenario) decodeEngineConfigJSON(specs []engine.ValidatorSpec) ([]byte, error) {
	type wireConfig struct {
		StepDurationSeconds  uint64                 `json:"stepDuration"`
		Validators           []engine.ValidatorSpec `json:"validators"`
		SecurityParameterK   uint64                 `json:"securityParameterK"`
		PvssMethod           string                 `json:"pvssMethod,omitempty"`
		StartStep            uint64                 `json:"startStep"`
		GasLimitBoundDivisor uint64                 `json:"gasLimitBoundDivisor"`
	}
	return json.Marshal(wireConfig{
		StepDurationSeconds:  s.StepDurationSeconds,
		Validators:           specs,
		SecurityParameterK:   s.SecurityParameterK,
		PvssMethod:           s.PvssMethod,
		StartStep:            0,
		GasLimitBoundDivisor: s.GasLimitBoundDivisor,
	})
}

// decodeEngineConfig is the package-level convenience wrapper used by
// buildEngine.
func decodeEngineConfig(specs []engine.ValidatorSpec, s *Scenario) (*engine.Config, error) {
	raw, err := s.decodeEngineConfigJSON(specs)
	if err != nil {
		return nil, err
	}
	var cfg engine.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
