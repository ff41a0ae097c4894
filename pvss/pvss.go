// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Package pvss implements the dealer side of Publicly Verifiable Secret
// Sharing for one epoch's randomness contribution: given the recipient
// validators' public keys, it produces a one-time secret plus the
// publicly verifiable commitments and encrypted shares by which a
// threshold of honest recipients could reconstruct it.
package pvss

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/drand/kyber"
	"github.com/drand/kyber/group/edwards25519"
	"github.com/drand/kyber/share"
	kyberpvss "github.com/drand/kyber/share/pvss"
)

// Variant selects which PVSS construction an escrow uses. The active
// variant is fixed once at configuration time and never changes mid-epoch.
type Variant int

const (
	// Simple requires only n >= 1 recipients; each share is verified
	// independently against the dealer's commitments.
	Simple Variant = iota
	// SCRAPE requires n >= 3 and t+2 <= n; verification runs as a single
	// pass over all shares rather than exposing per-share failures.
	SCRAPE
)

func (v Variant) String() string {
	switch v {
	case Simple:
		return "simple"
	case SCRAPE:
		return "scrape"
	default:
		return "unknown"
	}
}

// ErrParam is returned by NewEscrow when the chosen variant's arity
// constraint is violated by the number of recipients.
var ErrParam = errors.New("pvss: variant arity constraint violated")

// ErrInvalidPublicKey is returned when a recipient public key does not
// decode to a valid curve point.
var ErrInvalidPublicKey = errors.New("pvss: invalid recipient public key")

// Threshold computes t = ceil(n/2), the Cardano reconstruction threshold.
func Threshold(n int) int {
	return n/2 + n%2
}

var curve = edwards25519.NewBlakeSHA256Ed25519()

// Escrow is a dealer's live PVSS state for one epoch: the secret, the
// polynomial commitments, and the per-recipient encrypted shares. It is
// immutable once constructed and kept alive only for the duration of one
// epoch.
type Escrow struct {
	variant Variant
	n       int
	t       int

	h       kyber.Point
	secret  kyber.Scalar
	publics []kyber.Point

	commitPoly *share.PubPoly
	encShares  []*kyberpvss.PubVerShare
}

// NewEscrow deals a fresh secret to the given recipient public keys
// (each a marshalled curve point) under the requested variant. The
// threshold is always ceil(n/2); construction fails with ErrParam when
// the variant's arity requirement is not met.
func NewEscrow(variant Variant, recipientPublicKeys [][]byte) (*Escrow, error) {
	n := len(recipientPublicKeys)
	t := Threshold(n)

	switch variant {
	case Simple:
		if n < 1 {
			return nil, ErrParam
		}
	case SCRAPE:
		if n < 3 || t+2 > n {
			return nil, ErrParam
		}
	default:
		return nil, ErrParam
	}

	publics := make([]kyber.Point, n)
	for i, raw := range recipientPublicKeys {
		p := curve.Point()
		if err := p.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("%w: recipient %d: %v", ErrInvalidPublicKey, i, err)
		}
		publics[i] = p
	}

	secret := curve.Scalar().Pick(curve.RandomStream())
	h := curve.Point().Pick(curve.RandomStream())

	encShares, commitPoly, err := kyberpvss.EncShares(curve, h, publics, secret, t)
	if err != nil {
		return nil, fmt.Errorf("pvss: dealing shares: %w", err)
	}

	return &Escrow{
		variant:    variant,
		n:          n,
		t:          t,
		h:          h,
		secret:     secret,
		publics:    publics,
		commitPoly: commitPoly,
		encShares:  encShares,
	}, nil
}

// Threshold returns the reconstruction threshold for this escrow.
func (e *Escrow) Threshold() int { return e.t }

// N returns the number of recipients this escrow was dealt to.
func (e *Escrow) N() int { return e.n }

// SecretBytes returns the serialised one-time epoch secret. This is the
// value published in the Reveal phase, never before.
func (e *Escrow) SecretBytes() ([]byte, error) {
	return e.secret.MarshalBinary()
}

// CommitmentBytes returns the serialised polynomial commitments: the
// dealer's extra generator H followed by each coefficient commitment in
// order, fixed-width point encodings concatenated with no delimiter.
func (e *Escrow) CommitmentBytes() ([]byte, error) {
	var buf bytes.Buffer

	hb, err := e.h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(hb)

	_, commits := e.commitPoly.Info()
	for _, c := range commits {
		cb, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf.Write(cb)
	}
	return buf.Bytes(), nil
}

// ShareBytes returns the serialised encrypted shares, one per recipient
// in public-key order: a 4-byte big-endian share index, the encrypted
// share point, then the consistency proof's challenge, response, and two
// commitment points, all fixed-width curve encodings.
func (e *Escrow) ShareBytes() ([]byte, error) {
	var buf bytes.Buffer
	for _, es := range e.encShares {
		var idx [4]byte
		binary.BigEndian.PutUint32(idx[:], uint32(es.S.I))
		buf.Write(idx[:])

		for _, m := range []kyber.Marshaling{es.S.V, es.P.C, es.P.R, es.P.VG, es.P.VH} {
			b, err := m.MarshalBinary()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
	}
	return buf.Bytes(), nil
}

// VerifyEncrypted checks that every encrypted share is mutually
// consistent with its recipient's public key, the dealer's extra
// generator H, and the published commitments. Simple verifies shares
// independently and fails fast; SCRAPE runs a single batched pass over
// all shares and public keys, reporting only whether the whole set
// verified, never which share failed.
func (e *Escrow) VerifyEncrypted() bool {
	sH := make([]kyber.Point, len(e.encShares))
	for i, es := range e.encShares {
		sH[i] = e.commitPoly.Eval(es.S.I).V
	}

	if e.variant == SCRAPE {
		_, good, err := kyberpvss.VerifyEncShareBatch(curve, e.h, e.publics, sH, e.encShares)
		return err == nil && len(good) == len(e.encShares)
	}

	for i, es := range e.encShares {
		if err := kyberpvss.VerifyEncShare(curve, e.h, e.publics[i], sH[i], es); err != nil {
			return false
		}
	}
	return true
}
