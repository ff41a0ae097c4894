// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Package fts implements Follow-the-Satoshi, the stake-weighted slot
// leader selection algorithm: given a snapshot of stake and a seed, it
// assigns each slot in an epoch to a stakeholder with probability
// proportional to that stakeholder's share of total stake.
package fts

import (
	"errors"
	"sort"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/sha3"

	"github.com/ouroboros/go-ouroboros/stakeholder"
)

// GenesisSeed is the hardcoded seed used for epoch 0, before any PVSS
// secret has ever been revealed. Value carried verbatim from the Cardano
// reference implementation.
const GenesisSeed = "vasa opasa skovoroda Ggurda boroda provoda"

// ErrNoStake is returned when the snapshot's total stake is zero.
var ErrNoStake = errors.New("fts: total stake is zero")

// ErrEmptySnapshot is returned when the snapshot has no entries.
var ErrEmptySnapshot = errors.New("fts: snapshot has no stakeholders")

type draw struct {
	slot uint64
	coin *stakeholder.Coin
}

// Select runs Follow-the-Satoshi over snapshot, returning one leader per
// slot in [0, epochSlots). seed may be nil, in which case GenesisSeed is
// used. The returned slice is indexed by slot number.
func Select(seed []byte, snapshot *stakeholder.Snapshot, epochSlots uint64) ([]stakeholder.ID, error) {
	if snapshot == nil || len(snapshot.Entries) == 0 {
		return nil, ErrEmptySnapshot
	}
	if snapshot.Total == nil || snapshot.Total.IsZero() {
		return nil, ErrNoStake
	}

	if len(seed) == 0 {
		seed = []byte(GenesisSeed)
	}

	stream, err := newSeededStream(seed)
	if err != nil {
		return nil, err
	}

	draws := make([]draw, epochSlots)
	for i := uint64(0); i < epochSlots; i++ {
		draws[i] = draw{slot: i, coin: stream.uniform(snapshot.Total)}
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].coin.Cmp(draws[j].coin) < 0 })

	leaders := make([]stakeholder.ID, epochSlots)
	maxCoins := new(stakeholder.Coin)
	di := 0
	for _, entry := range snapshot.Entries {
		maxCoins.Add(maxCoins, entry.Stake)
		for di < len(draws) && draws[di].coin.Cmp(maxCoins) < 0 {
			leaders[draws[di].slot] = entry.ID
			di++
		}
	}

	return leaders, nil
}

// seededStream is the chacha20-backed uniform-draw source. The seed's
// first 32 bytes are taken byte-wise as the stream key; ChaCha20 then
// interprets them as eight little-endian 32-bit words per RFC 8439, so
// the derived stream is identical on every platform regardless of
// alignment or native byte order. Seeds shorter than 32 bytes are
// expanded with SHA3-256 first.
type seededStream struct {
	cipher *chacha20.Cipher
}

func newSeededStream(seed []byte) (*seededStream, error) {
	key := make([]byte, chacha20.KeySize)
	if len(seed) >= chacha20.KeySize {
		copy(key, seed[:chacha20.KeySize])
	} else {
		digest := sha3.Sum256(seed)
		copy(key, digest[:])
	}

	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	return &seededStream{cipher: c}, nil
}

func (s *seededStream) fill(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	s.cipher.XORKeyStream(buf, buf)
}

// uniform draws a value uniformly distributed over [0, total) by
// rejection sampling: draw a value with the same bit-length as total,
// retrying whenever the draw is out of range. This avoids the modulo
// bias a naive `draw % total` would introduce.
func (s *seededStream) uniform(total *stakeholder.Coin) *stakeholder.Coin {
	bitLen := total.BitLen()
	byteLen := (bitLen + 7) / 8
	if byteLen == 0 {
		byteLen = 1
	}
	topBits := uint(bitLen % 8)

	buf := make([]byte, byteLen)
	result := new(stakeholder.Coin)
	for {
		s.fill(buf)
		if topBits != 0 {
			buf[0] &= byte(1<<topBits) - 1
		}
		result.SetBytes(buf)
		if result.Cmp(total) < 0 {
			return result
		}
	}
}
