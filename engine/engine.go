// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Package engine is the Ouroboros engine state machine: step counting,
// PvssPhase transitions, leader-schedule recomputation, block sealing,
// and seal verification.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ouroboros/go-ouroboros/fts"
	"github.com/ouroboros/go-ouroboros/pvss"
	"github.com/ouroboros/go-ouroboros/stakeholder"
	"github.com/ouroboros/go-ouroboros/transport"
	"github.com/ouroboros/go-ouroboros/validators"
)

// Dependencies are the external collaborators the engine depends on but
// does not own: the ledger's historical balances, the PVSS transport,
// the block-assembly hook, the validator-misbehavior reporter, the
// signature verifier, and (optionally) this participant's own signer.
type Dependencies struct {
	Ledger      validators.LedgerReader
	Transport   transport.Transport
	Assembler   BlockAssembler
	Reporter    ValidatorReporter
	SigVerifier SignatureVerifier
	Signer      Signer // nil if this process has no signing key available
}

// Engine owns the step counter and the PvssPhase for one Ouroboros
// instance. All exported methods are safe for concurrent use.
type Engine struct {
	cfg     *Config
	deps    Dependencies
	valSet  *validators.Set
	logger  *logrus.Entry

	step     atomic.Uint64
	proposed atomic.Bool

	phaseMu sync.RWMutex
	phase   PvssPhase

	scheduleMu sync.RWMutex
	schedule   LeaderSchedule

	escrowMu sync.RWMutex
	escrow   *pvss.Escrow
}

// New constructs an Engine from validated configuration and its
// collaborators. The initial leader schedule is computed from the
// genesis seed (fts.GenesisSeed) over the balances as of the initial
// step minus 2k (saturating at 0), since there is no prior epoch's
// revealed secrets yet.
func New(ctx context.Context, cfg *Config, deps Dependencies) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Ledger == nil || deps.Transport == nil {
		return nil, fmt.Errorf("%w: ledger and transport are required", ErrInvalidConfig)
	}

	ids := make([]stakeholder.ID, len(cfg.Validators))
	for i, v := range cfg.Validators {
		ids[i] = v.ID
	}
	valSet := validators.NewSet(ids)

	initialStep := uint64(0)
	if cfg.StartStep != nil {
		initialStep = *cfg.StartStep
	}

	e := &Engine{
		cfg:    cfg,
		deps:   deps,
		valSet: valSet,
		logger: logrus.WithField("component", "engine"),
		phase:  PhaseCommit,
	}
	e.step.Store(initialStep)

	snap, err := valSet.StakeSnapshotAt(ctx, deps.Ledger, initialStep, validators.SecurityParam(cfg.SecurityParameterK))
	if err != nil {
		return nil, fmt.Errorf("engine: computing genesis stake snapshot: %w", err)
	}
	schedule, err := fts.Select([]byte(fts.GenesisSeed), snap, cfg.EpochSlots())
	if err != nil {
		return nil, fmt.Errorf("engine: computing genesis leader schedule: %w", err)
	}
	e.schedule = schedule

	publicKeys := make([][]byte, len(cfg.Validators))
	for i, v := range cfg.Validators {
		publicKeys[i] = v.PublicKey
	}
	escrow, err := pvss.NewEscrow(cfg.Variant(), publicKeys)
	if err != nil {
		return nil, fmt.Errorf("engine: dealing genesis pvss escrow: %w", err)
	}
	e.escrow = escrow

	return e, nil
}

// Step is the step counter's current value.
func (e *Engine) Step() uint64 { return e.step.Load() }

// Phase is the current PvssPhase.
func (e *Engine) Phase() PvssPhase {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()
	return e.phase
}

// Schedule is the current leader schedule.
func (e *Engine) Schedule() LeaderSchedule {
	e.scheduleMu.RLock()
	defer e.scheduleMu.RUnlock()
	out := make(LeaderSchedule, len(e.schedule))
	copy(out, e.schedule)
	return out
}

// EpochNumber is the current epoch, step / EpochSlots.
func (e *Engine) EpochNumber() uint64 {
	return e.Step() / e.cfg.EpochSlots()
}

func (e *Engine) slotInEpoch() uint64 {
	return e.Step() % e.cfg.EpochSlots()
}

// StepOnce performs one tick of the engine state machine:
//  1. increments the step counter,
//  2. performs at most one PvssPhase transition,
//  3. clears the already-proposed flag,
//  4. notifies the block assembler.
func (e *Engine) StepOnce(ctx context.Context) {
	e.step.Add(1)

	e.advancePhase(ctx)

	e.proposed.Store(false)

	if e.deps.Assembler != nil {
		e.deps.Assembler.AttemptSeal()
	}
}

func (e *Engine) advancePhase(ctx context.Context) {
	e.phaseMu.Lock()
	phase := e.phase
	switch {
	case phase == PhaseCommit:
		e.publishCommit(ctx)
		e.phase = PhaseCommitBroadcast
	case phase == PhaseCommitBroadcast && e.slotInEpoch() > 4*e.cfg.SecurityParameterK:
		e.publishSecret(ctx)
		e.phase = PhaseReveal
	case phase == PhaseReveal && e.slotInEpoch() == 0:
		e.phaseMu.Unlock()
		e.recomputeLeaderSchedule(ctx)
		e.phaseMu.Lock()
		e.phase = PhaseCommit
	}
	e.phaseMu.Unlock()
}

func (e *Engine) publishCommit(ctx context.Context) {
	e.escrowMu.RLock()
	escrow := e.escrow
	e.escrowMu.RUnlock()
	if escrow == nil {
		return
	}
	commitments, err := escrow.CommitmentBytes()
	if err != nil {
		e.logger.WithError(err).Warn("could not serialise commitments")
		return
	}
	shares, err := escrow.ShareBytes()
	if err != nil {
		e.logger.WithError(err).Warn("could not serialise shares")
		return
	}
	e.deps.Transport.PublishCommit(ctx, e.EpochNumber(), commitments, shares)
}

func (e *Engine) publishSecret(ctx context.Context) {
	e.escrowMu.RLock()
	escrow := e.escrow
	e.escrowMu.RUnlock()
	if escrow == nil {
		return
	}
	secret, err := escrow.SecretBytes()
	if err != nil {
		e.logger.WithError(err).Warn("could not serialise secret")
		return
	}
	e.deps.Transport.PublishSecret(ctx, e.EpochNumber(), secret)
}

// recomputeLeaderSchedule builds a new StakeSnapshot as of step-2k,
// derives the seed by XORing every stakeholder's revealed secret from
// the previous epoch into a fixed-width accumulator, runs FTS, and
// atomically replaces the schedule. The accumulator is always at least
// 32 bytes wide and extends to fit the longest secret, so every
// stakeholder's full entropy contribution is retained.
func (e *Engine) recomputeLeaderSchedule(ctx context.Context) {
	currentStep := e.Step()
	snap, err := e.valSet.StakeSnapshotAt(ctx, e.deps.Ledger, currentStep, validators.SecurityParam(e.cfg.SecurityParameterK))
	if err != nil {
		e.logger.WithError(err).Warn("could not compute stake snapshot for new epoch")
		return
	}

	lastEpoch := e.EpochNumber() - 1
	seed := make([]byte, 32)
	for _, entry := range snap.Entries {
		secret, ok := e.deps.Transport.ReadSecret(ctx, lastEpoch, [20]byte(entry.ID))
		if !ok {
			continue
		}
		if len(secret) > len(seed) {
			extended := make([]byte, len(secret))
			copy(extended, seed)
			seed = extended
		}
		for i, b := range secret {
			seed[i] ^= b
		}
	}

	schedule, err := fts.Select(seed, snap, e.cfg.EpochSlots())
	if err != nil {
		e.logger.WithError(err).Warn("could not run fts for new epoch")
		return
	}

	e.scheduleMu.Lock()
	e.schedule = schedule
	e.scheduleMu.Unlock()

	publicKeys := make([][]byte, len(e.cfg.Validators))
	for i, v := range e.cfg.Validators {
		publicKeys[i] = v.PublicKey
	}
	escrow, err := pvss.NewEscrow(e.cfg.Variant(), publicKeys)
	if err != nil {
		e.logger.WithError(err).Warn("could not deal new epoch's pvss escrow")
		return
	}
	e.escrowMu.Lock()
	e.escrow = escrow
	e.escrowMu.Unlock()
}

// proposerAt returns the scheduled proposer for step.
func (e *Engine) proposerAt(step uint64) stakeholder.ID {
	e.scheduleMu.RLock()
	defer e.scheduleMu.RUnlock()
	return e.schedule.ProposerAt(step)
}

// GenerateSeal attempts to seal header at the engine's current step.
// It refuses unless this participant's signer address is the
// schedule-derived proposer for the step.
func (e *Engine) GenerateSeal(header *BlockHeader) (*Seal, error) {
	if e.proposed.Load() {
		return nil, ErrAlreadyProposed
	}
	if e.deps.Signer == nil {
		return nil, ErrNoSigner
	}

	step := e.Step()
	if e.proposerAt(step) != e.deps.Signer.Address() {
		return nil, ErrNotProposer
	}

	signature, err := e.deps.Signer.Sign(header.BareHash)
	if err != nil {
		return nil, fmt.Errorf("engine: signing seal: %w", err)
	}

	if !e.proposed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyProposed
	}
	return &Seal{Step: step, Signature: signature}, nil
}
