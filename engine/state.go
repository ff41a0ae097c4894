// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import "github.com/ouroboros/go-ouroboros/stakeholder"

// PvssPhase is the per-epoch PVSS stage. It transitions only in the
// order Commit -> CommitBroadcast -> Reveal -> Commit; the Recover
// phase of the full protocol is intentionally not modelled, matching
// the assumption that all participants are honest and available.
type PvssPhase int

const (
	PhaseCommit PvssPhase = iota
	PhaseCommitBroadcast
	PhaseReveal
)

func (p PvssPhase) String() string {
	switch p {
	case PhaseCommit:
		return "commit"
	case PhaseCommitBroadcast:
		return "commit-broadcast"
	case PhaseReveal:
		return "reveal"
	default:
		return "unknown"
	}
}

// LeaderSchedule is an ordered sequence of stakeholders, one per slot
// within an epoch, indexed by slot-within-epoch.
type LeaderSchedule []stakeholder.ID

// ProposerAt returns the scheduled proposer for the given step.
func (s LeaderSchedule) ProposerAt(step uint64) stakeholder.ID {
	return s[step%uint64(len(s))]
}

// BlockAssembler is notified after every step so it may attempt to
// assemble and seal a new block. StepOnce calls it synchronously, after
// the step counter and phase have been updated.
type BlockAssembler interface {
	AttemptSeal()
}

// ValidatorReporter is the external collaborator that records
// misbehavior observed during block verification.
type ValidatorReporter interface {
	ReportBenign(id stakeholder.ID)
	ReportMalicious(id stakeholder.ID)
}

// SignatureVerifier checks that a signature over a hash was produced by
// the given stakeholder, matching the surrounding ledger's signature
// scheme (e.g. ECDSA address recovery).
type SignatureVerifier interface {
	VerifyAddress(signer stakeholder.ID, signature []byte, hash [32]byte) (bool, error)
}

// Signer is the local participant's external key-management
// collaborator: the engine holds only the address, never the key
// material itself.
type Signer interface {
	Address() stakeholder.ID
	Sign(hash [32]byte) ([]byte, error)
}
