// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"

	"github.com/drand/kyber/group/edwards25519"

	"github.com/ouroboros/go-ouroboros/stakeholder"
)

// devnetCurve is the PVSS curve used to deal each validator a keypair
// for the scenario run, matching pvss.NewEscrow's own curve choice.
var devnetCurve = edwards25519.NewBlakeSHA256Ed25519()

// devnetLedger is a LedgerReader backed by a fixed balance table: the
// devnet scenario has no real transaction history, so every historical
// read returns the same scenario-declared stake regardless of the
// requested step.
type devnetLedger struct {
	balances map[stakeholder.ID]uint64
}

func newDevnetLedger(balances map[stakeholder.ID]uint64) *devnetLedger {
	return &devnetLedger{balances: balances}
}

// BalanceAt implements validators.LedgerReader.
func (l *devnetLedger) BalanceAt(_ context.Context, id stakeholder.ID, _ uint64) (*stakeholder.Coin, error) {
	amount, ok := l.balances[id]
	if !ok {
		return stakeholder.ZeroCoin(), nil
	}
	c := new(stakeholder.Coin)
	c.SetUint64(amount)
	return c, nil
}

// devnetPvssKeys deals every configured validator a PVSS keypair over
// devnetCurve, returning the public keys in validator order and the
// private scalar owned by localID, if present.
func devnetPvssKeys(ids []stakeholder.ID, localID stakeholder.ID, hasLocal bool) (publics [][]byte, localPrivate []byte, err error) {
	publics = make([][]byte, len(ids))
	for i, id := range ids {
		secret := devnetCurve.Scalar().Pick(devnetCurve.RandomStream())
		point := devnetCurve.Point().Mul(secret, nil)

		pub, merr := point.MarshalBinary()
		if merr != nil {
			return nil, nil, merr
		}
		publics[i] = pub

		if hasLocal && id == localID {
			localPrivate, err = secret.MarshalBinary()
			if err != nil {
				return nil, nil, err
			}
		}
	}
	return publics, localPrivate, nil
}

// devnetSigner is a toy HMAC-based "signature" scheme for the devtool
// only: the engine's real signer is an external account-management
// collaborator, so the CLI stands in a deterministic, local-only
// substitute rather than wiring real key custody, in the spirit of a
// node's `--dev` ephemeral signer mode for local scenario runs.
type devnetSigner struct {
	addr stakeholder.ID
	key  [32]byte
}

func newDevnetSigner(addr stakeholder.ID) devnetSigner {
	return devnetSigner{addr: addr, key: devnetSignerKey(addr)}
}

func devnetSignerKey(id stakeholder.ID) [32]byte {
	return sha256.Sum256(append([]byte("ouroborosctl-devnet-signer-"), id.Bytes()...))
}

// Address implements engine.Signer.
func (s devnetSigner) Address() stakeholder.ID { return s.addr }

// Sign implements engine.Signer.
func (s devnetSigner) Sign(hash [32]byte) ([]byte, error) {
	mac := hmac.New(sha256.New, s.key[:])
	mac.Write(hash[:])
	return mac.Sum(nil), nil
}

// devnetVerifier implements engine.SignatureVerifier against the same
// toy HMAC scheme devnetSigner produces.
type devnetVerifier struct{}

// VerifyAddress implements engine.SignatureVerifier.
func (devnetVerifier) VerifyAddress(signer stakeholder.ID, signature []byte, hash [32]byte) (bool, error) {
	key := devnetSignerKey(signer)
	mac := hmac.New(sha256.New, key[:])
	mac.Write(hash[:])
	return hmac.Equal(mac.Sum(nil), signature), nil
}
