// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/ouroboros/go-ouroboros/stakeholder"
)

// Seal is the two-field consensus seal: the step at which a block was
// produced and the proposer's signature over the header's bare hash.
type Seal struct {
	Step      uint64
	Signature []byte
}

// DecodeSeal parses a header's raw seal fields. The seal must have
// exactly two fields; any other arity is ErrInvalidSealArity.
func DecodeSeal(fields [][]byte) (Seal, error) {
	if len(fields) != 2 {
		return Seal{}, ErrInvalidSealArity
	}
	if len(fields[0]) != 8 {
		return Seal{}, fmt.Errorf("%w: malformed step field", ErrInvalidSealArity)
	}
	return Seal{
		Step:      binary.BigEndian.Uint64(fields[0]),
		Signature: append([]byte(nil), fields[1]...),
	}, nil
}

// Encode returns the two-field wire representation of the seal. The
// surrounding ledger's canonical header-encoding rules length-prefix
// each field; this module only produces the raw field values.
func (s Seal) Encode() [][]byte {
	var stepField [8]byte
	binary.BigEndian.PutUint64(stepField[:], s.Step)
	return [][]byte{stepField[:], s.Signature}
}

// BlockHeader is the minimal projection of the surrounding ledger's
// block header this engine depends on for sealing and verification.
type BlockHeader struct {
	SealFields [][]byte
	Author     stakeholder.ID
	BareHash   [32]byte
	Number     uint64
}
