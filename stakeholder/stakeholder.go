// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Package stakeholder defines the account identifier and coin amount types
// shared by every other package in this module.
package stakeholder

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/holiman/uint256"
)

// IDLength is the byte width of a StakeholderId, matching the ledger's
// native account identifier.
const IDLength = 20

// ID is a 20-byte account identifier.
type ID [IDLength]byte

// ErrInvalidID is returned when a hex string does not decode to exactly
// IDLength bytes.
var ErrInvalidID = errors.New("stakeholder: invalid id")

// IDFromHex parses a "0x"-prefixed or bare hex string into an ID.
func IDFromHex(s string) (ID, error) {
	var id ID
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != IDLength {
		return id, ErrInvalidID
	}
	copy(id[:], b)
	return id, nil
}

// Bytes returns the raw 20 bytes of the id.
func (id ID) Bytes() []byte { return id[:] }

// Hex returns the "0x"-prefixed lowercase hex encoding of the id.
func (id ID) Hex() string { return "0x" + hex.EncodeToString(id[:]) }

// String implements fmt.Stringer.
func (id ID) String() string { return id.Hex() }

// MarshalJSON implements json.Marshaler, encoding the id as its
// "0x"-prefixed hex string rather than a JSON array of bytes.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.Hex() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := IDFromHex(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Less reports whether id sorts strictly before other, byte-wise.
func (id ID) Less(other ID) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}

// Coin is a non-negative amount, 256 bits wide to match the ledger's
// native balance type.
type Coin = uint256.Int

// ZeroCoin returns a freshly allocated zero-valued Coin.
func ZeroCoin() *Coin { return new(Coin) }

// Entry pairs a stakeholder with the stake it held at the snapshot point.
type Entry struct {
	ID    ID
	Stake *Coin
}

// Snapshot is an ordered, zero-excluded view of stake as of some past
// slot: sorted ascending by ID, entries sum to Total, Total > 0.
type Snapshot struct {
	Entries []Entry
	Total   *Coin
}

// ErrInvalidSnapshot is returned by NewSnapshot when the declared total
// does not match the sum of the given entries, or the total is zero.
var ErrInvalidSnapshot = errors.New("stakeholder: invalid snapshot")

// NewSnapshot builds a Snapshot from unsorted (id, stake) pairs, dropping
// zero-stake entries, sorting the remainder by ID, and validating that
// the entries sum to exactly total.
func NewSnapshot(pairs []Entry, total *Coin) (*Snapshot, error) {
	if total == nil || total.IsZero() {
		return nil, ErrInvalidSnapshot
	}

	entries := make([]Entry, 0, len(pairs))
	for _, p := range pairs {
		if p.Stake == nil || p.Stake.IsZero() {
			continue
		}
		entries = append(entries, Entry{ID: p.ID, Stake: new(Coin).Set(p.Stake)})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID.Less(entries[j].ID) })

	sum := new(Coin)
	for _, e := range entries {
		sum.Add(sum, e.Stake)
	}
	if sum.Cmp(total) != 0 {
		return nil, fmt.Errorf("%w: entries sum to %s, declared total is %s", ErrInvalidSnapshot, sum.Dec(), total.Dec())
	}

	return &Snapshot{Entries: entries, Total: new(Coin).Set(total)}, nil
}

// Has reports whether id appears in the snapshot.
func (s *Snapshot) Has(id ID) bool {
	for _, e := range s.Entries {
		if e.ID == id {
			return true
		}
	}
	return false
}
