// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import "fmt"

// VerifyBlock checks header's seal against the engine's current state
// and parent's seal. It enforces, in order: seal arity, that the seal's
// step is at most one beyond this engine's own step (FutureStep), that
// the author is genuinely the schedule-derived proposer for that step
// (NotProposer), and that the parent's step is strictly less than the
// block's step (DoubleVote). Gas-limit and chain-id rules are the
// surrounding ledger's own concern and are not re-checked here.
func (e *Engine) VerifyBlock(header, parent *BlockHeader) error {
	seal, err := DecodeSeal(header.SealFields)
	if err != nil {
		return err
	}

	if seal.Step > e.Step()+1 {
		if e.deps.Reporter != nil {
			e.deps.Reporter.ReportBenign(header.Author)
		}
		return fmt.Errorf("%w: seal step %d is ahead of local step %d", ErrFutureStep, seal.Step, e.Step())
	}

	expected := e.proposerAt(seal.Step)
	if expected != header.Author {
		return fmt.Errorf("%w: step %d is scheduled to %s, not %s", ErrNotProposer, seal.Step, expected, header.Author)
	}

	if e.deps.SigVerifier != nil {
		ok, err := e.deps.SigVerifier.VerifyAddress(header.Author, seal.Signature, header.BareHash)
		if err != nil {
			return fmt.Errorf("engine: verifying seal signature: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: seal signature does not recover to %s", ErrNotProposer, header.Author)
		}
	}

	if parent != nil {
		parentSeal, err := DecodeSeal(parent.SealFields)
		if err == nil && parentSeal.Step >= seal.Step {
			if e.deps.Reporter != nil {
				e.deps.Reporter.ReportMalicious(header.Author)
			}
			return fmt.Errorf("%w: step %d is not strictly after parent step %d", ErrDoubleVote, seal.Step, parentSeal.Step)
		}
	}

	return nil
}
