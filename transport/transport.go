// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

// Package transport abstracts the shared append-only ledger used to
// carry PVSS commitments, shares, and revealed secrets between
// participants. It models the on-chain contract described by the ABI in
// abi.go without implementing an EVM or an RPC client: callers supply a
// concrete Transport (the production one backed by a contract-call
// client, or MemoryTransport for tests and the devtool CLI).
package transport

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Transport is the PVSS transport contract: an append-only map from
// (epoch, sender) to (commitments, shares), and, separately, to secret.
//
// Reads are best-effort: they return ok=false when nothing has been
// published yet or the underlying client is unavailable. Writes are
// fire-and-forget: a failed write is logged by the implementation and
// never surfaced to the caller, because the step clock will retry in
// the next epoch's commit phase. Transport does not deduplicate,
// deserialise, or validate payloads; that is the engine's job after
// reading.
type Transport interface {
	PublishCommit(ctx context.Context, epoch uint64, commitments, shares []byte)
	PublishSecret(ctx context.Context, epoch uint64, secret []byte)
	ReadCommit(ctx context.Context, epoch uint64, sender [20]byte) (commitments, shares []byte, ok bool)
	ReadSecret(ctx context.Context, epoch uint64, sender [20]byte) (secret []byte, ok bool)
}

// logger is the package-level structured logger used by implementations
// to record swallowed write failures.
var logger = logrus.WithField("component", "pvss-transport")
