// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package transport

import (
	"context"
	"sync"
)

type commitKey struct {
	epoch  uint64
	sender [20]byte
}

type secretKey = commitKey

type commitValue struct {
	commitments []byte
	shares      []byte
}

// MemoryTransport is an in-process Transport used by tests and by
// cmd/ouroborosctl to exercise the engine without a real ledger client.
// Every publish is attributed to self, mirroring how the production
// contract attributes a write to the transaction's msg.sender. It never
// fails a write, so it is unsuitable for exercising the "no provider
// contract" code paths the production transport must handle; use a
// ContractTransport with no client registered for that instead.
type MemoryTransport struct {
	self [20]byte

	mu      sync.RWMutex
	commits map[commitKey]commitValue
	secrets map[secretKey][]byte
}

// NewMemoryTransport returns an empty MemoryTransport that attributes
// its own publishes to self.
func NewMemoryTransport(self [20]byte) *MemoryTransport {
	return &MemoryTransport{
		self:    self,
		commits: make(map[commitKey]commitValue),
		secrets: make(map[secretKey][]byte),
	}
}

var _ Transport = (*MemoryTransport)(nil)

// PublishCommit implements Transport.
func (m *MemoryTransport) PublishCommit(_ context.Context, epoch uint64, commitments, shares []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits[commitKey{epoch: epoch, sender: m.self}] = commitValue{commitments: commitments, shares: shares}
}

// PublishSecret implements Transport.
func (m *MemoryTransport) PublishSecret(_ context.Context, epoch uint64, secret []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[secretKey{epoch: epoch, sender: m.self}] = secret
}

// ReadCommit implements Transport.
func (m *MemoryTransport) ReadCommit(_ context.Context, epoch uint64, sender [20]byte) (commitments, shares []byte, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, found := m.commits[commitKey{epoch: epoch, sender: sender}]
	if !found {
		return nil, nil, false
	}
	return v.commitments, v.shares, true
}

// ReadSecret implements Transport.
func (m *MemoryTransport) ReadSecret(_ context.Context, epoch uint64, sender [20]byte) (secret []byte, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, found := m.secrets[secretKey{epoch: epoch, sender: sender}]
	if !found {
		return nil, false
	}
	return v, true
}
