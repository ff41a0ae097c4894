// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package transport

import (
	"context"
	"sync"
)

// DefaultContractAddress is where the PVSS contract is deployed on every
// network this engine runs against.
var DefaultContractAddress = [20]byte{19: 0x05}

// CallClient is the slice of the surrounding ledger's client this
// transport needs: submitting a contract transaction and performing a
// read-only contract call at the latest block. Both may block; neither
// is invoked while any transport lock is held beyond the client lookup.
type CallClient interface {
	TransactContract(ctx context.Context, to [20]byte, data []byte) error
	CallContract(ctx context.Context, to [20]byte, data []byte) ([]byte, error)
}

// ContractTransport publishes and reads PVSS material through the
// deployed on-chain contract. The ledger client registers itself after
// the engine is constructed and may unregister on shutdown; until a
// client is registered, reads report not-ok and writes are dropped with
// a log line.
type ContractTransport struct {
	address [20]byte

	mu     sync.RWMutex
	client CallClient
}

// NewContractTransport returns a ContractTransport bound to the contract
// at address, with no client registered yet.
func NewContractTransport(address [20]byte) *ContractTransport {
	return &ContractTransport{address: address}
}

var _ Transport = (*ContractTransport)(nil)

// RegisterClient attaches the ledger client subsequent calls go through.
func (c *ContractTransport) RegisterClient(client CallClient) {
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
}

// UnregisterClient detaches the ledger client; subsequent reads report
// not-ok and writes are dropped until a client registers again.
func (c *ContractTransport) UnregisterClient() {
	c.mu.Lock()
	c.client = nil
	c.mu.Unlock()
}

func (c *ContractTransport) currentClient() CallClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// PublishCommit implements Transport.
func (c *ContractTransport) PublishCommit(ctx context.Context, epoch uint64, commitments, shares []byte) {
	client := c.currentClient()
	if client == nil {
		logger.WithField("epoch", epoch).Warn("could not broadcast commitments and shares: no client registered")
		return
	}
	data := PackSaveCommitmentsAndShares(epoch, commitments, shares)
	if err := client.TransactContract(ctx, c.address, data); err != nil {
		logger.WithField("epoch", epoch).WithError(err).Warn("could not broadcast commitments and shares")
	}
}

// PublishSecret implements Transport.
func (c *ContractTransport) PublishSecret(ctx context.Context, epoch uint64, secret []byte) {
	client := c.currentClient()
	if client == nil {
		logger.WithField("epoch", epoch).Warn("could not broadcast secret: no client registered")
		return
	}
	data := PackSaveSecret(epoch, secret)
	if err := client.TransactContract(ctx, c.address, data); err != nil {
		logger.WithField("epoch", epoch).WithError(err).Warn("could not broadcast secret")
	}
}

// ReadCommit implements Transport.
func (c *ContractTransport) ReadCommit(ctx context.Context, epoch uint64, sender [20]byte) (commitments, shares []byte, ok bool) {
	client := c.currentClient()
	if client == nil {
		return nil, nil, false
	}
	ret, err := client.CallContract(ctx, c.address, PackGetCommitmentsAndShares(epoch, sender))
	if err != nil {
		return nil, nil, false
	}
	commitments, shares, err = UnpackCommitmentsAndShares(ret)
	if err != nil || len(commitments) == 0 {
		return nil, nil, false
	}
	return commitments, shares, true
}

// ReadSecret implements Transport.
func (c *ContractTransport) ReadSecret(ctx context.Context, epoch uint64, sender [20]byte) (secret []byte, ok bool) {
	client := c.currentClient()
	if client == nil {
		return nil, false
	}
	ret, err := client.CallContract(ctx, c.address, PackGetSecret(epoch, sender))
	if err != nil {
		return nil, false
	}
	secret, err = UnpackSecret(ret)
	if err != nil || len(secret) == 0 {
		return nil, false
	}
	return secret, true
}
