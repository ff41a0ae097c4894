// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import "errors"

// Error taxonomy for seal generation, block verification, and
// configuration.
var (
	// ErrInvalidSealArity is returned when a header's seal is not
	// exactly two fields.
	ErrInvalidSealArity = errors.New("engine: seal must have exactly two fields")

	// ErrNotProposer is returned when a block's signature does not
	// match the schedule-derived proposer for its step.
	ErrNotProposer = errors.New("engine: signature does not match the scheduled proposer")

	// ErrDoubleVote is returned when a block's step is not strictly
	// greater than its parent's step.
	ErrDoubleVote = errors.New("engine: step is not strictly greater than parent step")

	// ErrFutureStep is returned when a block's step exceeds the
	// engine's current step by more than one.
	ErrFutureStep = errors.New("engine: step is further in the future than current step + 1")

	// ErrTransportUnavailable names the condition in which the ledger
	// client has not yet registered, or the underlying call failed.
	// Transport reads report that condition as ok=false and writes log
	// it; neither returns this error.
	ErrTransportUnavailable = errors.New("engine: pvss transport unavailable")

	// ErrNoSigner is returned by GenerateSeal when no signer has been
	// configured; this is not a failure, just a reason sealing is
	// skipped for this participant.
	ErrNoSigner = errors.New("engine: no signer configured")

	// ErrAlreadyProposed is returned by GenerateSeal when this engine
	// has already sealed a block at the current step.
	ErrAlreadyProposed = errors.New("engine: already proposed at this step")

	// ErrInvalidConfig is returned by New when required configuration
	// is missing or internally inconsistent.
	ErrInvalidConfig = errors.New("engine: invalid configuration")
)
