// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ouroboros/go-ouroboros/engine"
	"github.com/ouroboros/go-ouroboros/stakeholder"
	"github.com/ouroboros/go-ouroboros/transport"
	"github.com/ouroboros/go-ouroboros/validators"
)

// loggingAssembler logs each AttemptSeal notification and, if this
// process holds a signing key and is the current step's proposer,
// generates and logs a seal. It stands in for the surrounding node's
// real block-assembly collaborator.
type loggingAssembler struct {
	e      *engine.Engine
	logger *logrus.Entry
}

// AttemptSeal implements engine.BlockAssembler.
func (a *loggingAssembler) AttemptSeal() {
	header := &engine.BlockHeader{
		BareHash: [32]byte{byte(a.e.Step()), byte(a.e.Step() >> 8)},
		Author:   a.e.Schedule().ProposerAt(a.e.Step()),
	}
	seal, err := a.e.GenerateSeal(header)
	switch {
	case err == nil:
		a.logger.WithFields(logrus.Fields{
			"step":   seal.Step,
			"epoch":  a.e.EpochNumber(),
			"phase":  a.e.Phase(),
			"author": header.Author,
		}).Info("sealed block")
	case errors.Is(err, engine.ErrNotProposer), errors.Is(err, engine.ErrNoSigner):
		// expected on every step this process is not the proposer.
	default:
		a.logger.WithError(err).Warn("could not seal block")
	}
}

// loggingReporter logs misbehavior reports rather than forwarding them
// to a real slashing module; the engine's contract ends at the binary
// report-malicious/report-benign hook.
type loggingReporter struct {
	logger *logrus.Entry
}

func (r *loggingReporter) ReportBenign(id stakeholder.ID) {
	r.logger.WithField("validator", id).Debug("reported benign")
}

func (r *loggingReporter) ReportMalicious(id stakeholder.ID) {
	r.logger.WithField("validator", id).Warn("reported malicious")
}

// buildEngine deals fresh devnet PVSS keys for every scenario validator,
// builds the engine's JSON-shaped Config from the scenario, and
// constructs an Engine wired to in-memory ledger/transport doubles and
// a logging assembler/reporter. The returned engine's step clock is
// always suppressed (StartStep is set): runCommand steps the engine
// itself rather than racing a wall-clock timer, and scheduleCommand
// does not step it at all.
func buildEngine(ctx context.Context, s *Scenario, logger *logrus.Entry) (*engine.Engine, error) {
	ids, balances, err := s.stakes()
	if err != nil {
		return nil, err
	}

	var localID stakeholder.ID
	hasLocal := false
	if s.Signer != "" {
		localID, err = stakeholder.IDFromHex(s.Signer)
		if err != nil {
			return nil, fmt.Errorf("signer: %w", err)
		}
		hasLocal = true
	}

	publics, localPrivate, err := devnetPvssKeys(ids, localID, hasLocal)
	if err != nil {
		return nil, fmt.Errorf("dealing devnet pvss keys: %w", err)
	}

	specs := make([]engine.ValidatorSpec, len(ids))
	for i, id := range ids {
		specs[i] = engine.ValidatorSpec{ID: id, PublicKey: publics[i]}
		if hasLocal && id == localID {
			specs[i].PrivateKey = localPrivate
		}
	}

	// The engine only recognises its configuration via its JSON wire
	// shape; even a devnet harness populates a Config by round-tripping
	// through that format rather than poking unexported fields.
	cfg, err := decodeEngineConfig(specs, s)
	if err != nil {
		return nil, fmt.Errorf("building engine config: %w", err)
	}

	var self [20]byte
	if hasLocal {
		self = localID
	}

	assembler := &loggingAssembler{logger: logger}
	deps := engine.Dependencies{
		Ledger:      newDevnetLedger(balances),
		Transport:   transport.NewMemoryTransport(self),
		Reporter:    &loggingReporter{logger: logger},
		Assembler:   assembler,
		SigVerifier: devnetVerifier{},
	}
	if hasLocal {
		deps.Signer = newDevnetSigner(localID)
	}

	e, err := engine.New(ctx, cfg, deps)
	if err != nil {
		return nil, fmt.Errorf("constructing engine: %w", err)
	}
	assembler.e = e

	logger.WithFields(logrus.Fields{
		"validators": len(ids),
		"k":          s.SecurityParameterK,
		"epochSlots": cfg.EpochSlots(),
	}).Info("engine constructed")

	return e, nil
}

// runScenario builds an Engine from scenario and drives it for the
// configured number of steps, logging each phase transition and
// sealing attempt. The step clock is suppressed so the run is
// deterministic and does not depend on wall-clock slot boundaries;
// steps are driven directly by this loop instead, coordinated through
// an errgroup so a context cancellation (e.g. Ctrl-C) unwinds the run
// cleanly mid-epoch.
func runScenario(ctx context.Context, s *Scenario) error {
	logger := logrus.WithField("component", "ouroborosctl")

	e, err := buildEngine(ctx, s, logger)
	if err != nil {
		return fmt.Errorf("ouroborosctl: %w", err)
	}

	logger.WithField("steps", s.Steps).Info("starting scenario")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := uint64(0); i < s.Steps; i++ {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			e.StepOnce(gctx)
			logger.WithFields(logrus.Fields{
				"step":  e.Step(),
				"epoch": e.EpochNumber(),
				"phase": e.Phase(),
			}).Debug("stepped")
		}
		return nil
	})

	return g.Wait()
}

var _ validators.LedgerReader = (*devnetLedger)(nil)
