// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Package validators enumerates the current validator set and derives a
// stake snapshot from ledger balances as of some past slot, matching the
// stability requirement the leader schedule depends on.
package validators

import (
	"context"
	"errors"

	"github.com/ouroboros/go-ouroboros/stakeholder"
)

// LedgerReader is the collaborator this package depends on for
// historical balances. The engine supplies a concrete implementation
// backed by the surrounding ledger's state database; this package never
// reads state directly.
type LedgerReader interface {
	// BalanceAt returns id's balance as of the block numbered atStep. It
	// must return (zero, nil) rather than an error for an id with no
	// ledger account.
	BalanceAt(ctx context.Context, id stakeholder.ID, atStep uint64) (*stakeholder.Coin, error)
}

// Validator is a member of the configured validator set, independent of
// whether it currently holds any stake.
type Validator struct {
	ID stakeholder.ID
}

// ErrEmptySet is returned by Set.StakeSnapshotAt when the set has no
// members at all.
var ErrEmptySet = errors.New("validators: validator set is empty")

// Set is the configured validator set: the fixed list of participants
// eligible to be assigned slots, independent of stake.
type Set struct {
	members []Validator
}

// NewSet builds a Set from the given validator ids, in the order given.
func NewSet(ids []stakeholder.ID) *Set {
	members := make([]Validator, len(ids))
	for i, id := range ids {
		members[i] = Validator{ID: id}
	}
	return &Set{members: members}
}

// Members returns the configured validators, independent of stake.
func (s *Set) Members() []Validator {
	out := make([]Validator, len(s.members))
	copy(out, s.members)
	return out
}

// SecurityParam is the "k" security parameter: the stake view must be
// read 2k steps behind the current step, so that late-arriving
// transactions in the epoch that just ended cannot perturb the leader
// schedule for the epoch about to begin.
type SecurityParam uint64

// StakeSnapshotAt builds a stakeholder.Snapshot by reading each
// configured validator's ledger balance as of step atStep = currentStep
// - 2*k (saturating at 0). Validators with a zero balance at that point
// are excluded.
func (s *Set) StakeSnapshotAt(ctx context.Context, reader LedgerReader, currentStep uint64, k SecurityParam) (*stakeholder.Snapshot, error) {
	if len(s.members) == 0 {
		return nil, ErrEmptySet
	}

	lookback := 2 * uint64(k)
	atStep := uint64(0)
	if currentStep > lookback {
		atStep = currentStep - lookback
	}

	entries := make([]stakeholder.Entry, 0, len(s.members))
	total := new(stakeholder.Coin)
	for _, v := range s.members {
		balance, err := reader.BalanceAt(ctx, v.ID, atStep)
		if err != nil {
			return nil, err
		}
		if balance == nil || balance.IsZero() {
			continue
		}
		entries = append(entries, stakeholder.Entry{ID: v.ID, Stake: balance})
		total.Add(total, balance)
	}

	if total.IsZero() {
		return nil, stakeholder.ErrInvalidSnapshot
	}

	return stakeholder.NewSnapshot(entries, total)
}
