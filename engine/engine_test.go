// Copyright 2024 The go-ouroboros Authors
// This file is part of the go-ouroboros library.

package engine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/drand/kyber/group/edwards25519"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros/go-ouroboros/engine"
	"github.com/ouroboros/go-ouroboros/stakeholder"
)

var testCurve = edwards25519.NewBlakeSHA256Ed25519()

func generatedKeyPair(t *testing.T) (public, private []byte) {
	t.Helper()
	secret := testCurve.Scalar().Pick(testCurve.RandomStream())
	point := testCurve.Point().Mul(secret, nil)

	pub, err := point.MarshalBinary()
	require.NoError(t, err)
	priv, err := secret.MarshalBinary()
	require.NoError(t, err)
	return pub, priv
}

func mustID(t *testing.T, s string) stakeholder.ID {
	t.Helper()
	id, err := stakeholder.IDFromHex(s)
	require.NoError(t, err)
	return id
}

type fakeLedger struct {
	balances map[stakeholder.ID]*stakeholder.Coin
}

func (f *fakeLedger) BalanceAt(_ context.Context, id stakeholder.ID, _ uint64) (*stakeholder.Coin, error) {
	if b, ok := f.balances[id]; ok {
		return b, nil
	}
	return stakeholder.ZeroCoin(), nil
}

type fakeTransport struct {
	self stakeholder.ID

	mu      sync.Mutex
	secrets map[uint64]map[stakeholder.ID][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{secrets: make(map[uint64]map[stakeholder.ID][]byte)}
}

func (f *fakeTransport) PublishCommit(context.Context, uint64, []byte, []byte) {}

func (f *fakeTransport) PublishSecret(_ context.Context, epoch uint64, secret []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.secrets[epoch] == nil {
		f.secrets[epoch] = make(map[stakeholder.ID][]byte)
	}
	f.secrets[epoch][f.self] = secret
}

func (f *fakeTransport) ReadCommit(context.Context, uint64, [20]byte) ([]byte, []byte, bool) {
	return nil, nil, false
}

func (f *fakeTransport) ReadSecret(_ context.Context, epoch uint64, sender [20]byte) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	secret, ok := f.secrets[epoch][stakeholder.ID(sender)]
	return secret, ok
}

type fakeAssembler struct {
	calls int
}

func (a *fakeAssembler) AttemptSeal() { a.calls++ }

type fakeSigner struct {
	addr stakeholder.ID
}

func (s fakeSigner) Address() stakeholder.ID { return s.addr }
func (s fakeSigner) Sign(hash [32]byte) ([]byte, error) {
	return append([]byte{}, hash[:]...), nil
}

func testConfig(t *testing.T, ids []stakeholder.ID) *engine.Config {
	t.Helper()
	validators := make([]engine.ValidatorSpec, len(ids))
	for i, id := range ids {
		pub, priv := generatedKeyPair(t)
		validators[i] = engine.ValidatorSpec{ID: id, PublicKey: pub, PrivateKey: priv}
	}
	// Simple PVSS: these suites run with as few as one validator, which
	// SCRAPE's t+2 <= n arity would reject.
	return &engine.Config{
		StepDurationSeconds:  1,
		Validators:           validators,
		SecurityParameterK:   1,
		PvssMethod:           "simple",
		GasLimitBoundDivisor: 1024,
	}
}

func testLedger(ids []stakeholder.ID) *fakeLedger {
	balances := make(map[stakeholder.ID]*stakeholder.Coin, len(ids))
	for _, id := range ids {
		balances[id] = uint256.NewInt(10)
	}
	return &fakeLedger{balances: balances}
}

func TestNewComputesGenesisScheduleOverEveryValidator(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	ccc := mustID(t, "cccccccccccccccccccccccccccccccccccccccc")
	ids := []stakeholder.ID{aaa, bbb, ccc}

	cfg := testConfig(t, ids)
	deps := engine.Dependencies{Ledger: testLedger(ids), Transport: newFakeTransport()}

	e, err := engine.New(context.Background(), cfg, deps)
	require.NoError(t, err)
	require.Equal(t, engine.PhaseCommit, e.Phase())

	schedule := e.Schedule()
	require.Len(t, schedule, int(cfg.EpochSlots()))

	members := map[stakeholder.ID]bool{aaa: true, bbb: true, ccc: true}
	for slot, id := range schedule {
		require.Truef(t, members[id], "slot %d assigned to %s, not a configured validator", slot, id)
	}
}

func TestStepOnceIncrementsAndNotifiesAssembler(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	ccc := mustID(t, "cccccccccccccccccccccccccccccccccccccccc")
	ids := []stakeholder.ID{aaa, bbb, ccc}

	cfg := testConfig(t, ids)
	assembler := &fakeAssembler{}
	e, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
		Assembler: assembler,
	})
	require.NoError(t, err)

	require.Equal(t, uint64(0), e.Step())
	e.StepOnce(context.Background())
	require.Equal(t, uint64(1), e.Step())
	require.Equal(t, 1, assembler.calls)
}

func TestStepOnceCyclesPvssPhaseAcrossAnEpoch(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	ccc := mustID(t, "cccccccccccccccccccccccccccccccccccccccc")
	ids := []stakeholder.ID{aaa, bbb, ccc}

	cfg := testConfig(t, ids) // k=1: epoch = 10 slots, 4k = 4
	e, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
	})
	require.NoError(t, err)

	require.Equal(t, engine.PhaseCommit, e.Phase())

	e.StepOnce(context.Background()) // slot 1
	require.Equal(t, engine.PhaseCommitBroadcast, e.Phase())

	for i := 0; i < 4; i++ { // through slot 5
		e.StepOnce(context.Background())
	}
	require.Equal(t, engine.PhaseReveal, e.Phase())

	for i := 0; i < 4; i++ { // through slot 9
		e.StepOnce(context.Background())
	}
	require.Equal(t, engine.PhaseReveal, e.Phase())

	e.StepOnce(context.Background()) // slot 10, first of new epoch
	require.Equal(t, engine.PhaseCommit, e.Phase())
}

func TestGenerateSealEnforcesRealProposerCheck(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	ccc := mustID(t, "cccccccccccccccccccccccccccccccccccccccc")
	ids := []stakeholder.ID{aaa, bbb, ccc}

	cfg := testConfig(t, ids)

	probe, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
	})
	require.NoError(t, err)

	proposer := probe.Schedule().ProposerAt(probe.Step())
	var notProposer stakeholder.ID
	for _, id := range ids {
		if id != proposer {
			notProposer = id
			break
		}
	}

	e, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
		Signer:    fakeSigner{addr: notProposer},
	})
	require.NoError(t, err)

	_, err = e.GenerateSeal(&engine.BlockHeader{BareHash: [32]byte{1}, Author: notProposer})
	require.ErrorIs(t, err, engine.ErrNotProposer)
}

func TestGenerateSealRefusesASecondSealAtTheSameStep(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	ccc := mustID(t, "cccccccccccccccccccccccccccccccccccccccc")
	ids := []stakeholder.ID{aaa, bbb, ccc}

	cfg := testConfig(t, ids)

	probe, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
	})
	require.NoError(t, err)
	proposer := probe.Schedule().ProposerAt(probe.Step())

	e, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
		Signer:    fakeSigner{addr: proposer},
	})
	require.NoError(t, err)

	header := &engine.BlockHeader{BareHash: [32]byte{2}, Author: proposer}
	_, err = e.GenerateSeal(header)
	require.NoError(t, err)

	_, err = e.GenerateSeal(header)
	require.ErrorIs(t, err, engine.ErrAlreadyProposed)
}

func TestGenerateSealFailsWithNoSigner(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	ids := []stakeholder.ID{aaa}
	cfg := testConfig(t, ids)
	e, err := engine.New(context.Background(), cfg, engine.Dependencies{
		Ledger:    testLedger(ids),
		Transport: newFakeTransport(),
	})
	require.NoError(t, err)

	_, err = e.GenerateSeal(&engine.BlockHeader{Author: aaa})
	require.ErrorIs(t, err, engine.ErrNoSigner)
}
