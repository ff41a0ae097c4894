// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ouroboros/go-ouroboros/pvss"
	"github.com/ouroboros/go-ouroboros/stakeholder"
)

// ValidatorSpec is one entry in the configured validator set: its
// identifier, its PVSS public key, and (for the local participant
// only) its PVSS private key.
type ValidatorSpec struct {
	ID         stakeholder.ID `json:"id"`
	PublicKey  HexBytes       `json:"publicKey"`
	PrivateKey HexBytes       `json:"privateKey,omitempty"`
}

// HexBytes round-trips through JSON as a "0x"-prefixed hex string,
// matching the surrounding ledger's canonical encoding for opaque byte
// fields.
type HexBytes []byte

// MarshalJSON implements json.Marshaler.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(h))
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	*h = b
	return nil
}

// Config is the engine's recognised configuration, decoded from the
// surrounding ledger's JSON chain spec.
type Config struct {
	StepDurationSeconds  uint64          `json:"stepDuration"`
	Validators           []ValidatorSpec `json:"validators"`
	SecurityParameterK   uint64          `json:"securityParameterK"`
	NetworkWideStartTime uint64          `json:"networkWideStartTime,omitempty"`
	PvssMethod           pvssMethodJSON  `json:"pvssMethod,omitempty"`
	StartStep            *uint64         `json:"startStep,omitempty"`
	GasLimitBoundDivisor uint64          `json:"gasLimitBoundDivisor"`
	Eip155Transition     uint64          `json:"eip155Transition,omitempty"`
}

type pvssMethodJSON string

// StepDuration returns the configured per-slot duration.
func (c *Config) StepDuration() time.Duration {
	return time.Duration(c.StepDurationSeconds) * time.Second
}

// SlotSecurityParameter is 2k, the lookback distance for stake reads.
func (c *Config) SlotSecurityParameter() uint64 { return 2 * c.SecurityParameterK }

// EpochSlots is 10k, the number of slots in one epoch.
func (c *Config) EpochSlots() uint64 { return 10 * c.SecurityParameterK }

// Variant resolves the configured PVSS method, defaulting to SCRAPE.
func (c *Config) Variant() pvss.Variant {
	switch c.PvssMethod {
	case "simple":
		return pvss.Simple
	default:
		return pvss.SCRAPE
	}
}

// Validate checks the required fields and internal consistency of the
// configuration.
func (c *Config) Validate() error {
	if c.StepDurationSeconds == 0 {
		return fmt.Errorf("%w: stepDuration is required", ErrInvalidConfig)
	}
	if len(c.Validators) == 0 {
		return fmt.Errorf("%w: validators is required", ErrInvalidConfig)
	}
	if c.SecurityParameterK == 0 {
		return fmt.Errorf("%w: securityParameterK is required", ErrInvalidConfig)
	}
	if c.PvssMethod != "" && c.PvssMethod != "simple" && c.PvssMethod != "scrape" {
		return fmt.Errorf("%w: pvssMethod must be \"simple\" or \"scrape\"", ErrInvalidConfig)
	}
	return nil
}
