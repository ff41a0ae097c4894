package validators_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ouroboros/go-ouroboros/stakeholder"
	"github.com/ouroboros/go-ouroboros/validators"
)

type fakeLedger struct {
	balances map[stakeholder.ID]*stakeholder.Coin
}

func (f *fakeLedger) BalanceAt(_ context.Context, id stakeholder.ID, _ uint64) (*stakeholder.Coin, error) {
	if b, ok := f.balances[id]; ok {
		return b, nil
	}
	return stakeholder.ZeroCoin(), nil
}

func mustID(t *testing.T, s string) stakeholder.ID {
	t.Helper()
	id, err := stakeholder.IDFromHex(s)
	require.NoError(t, err)
	return id
}

func TestStakeSnapshotMatchesValidatorsAndAccounts(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	set := validators.NewSet([]stakeholder.ID{aaa, bbb})
	ledger := &fakeLedger{balances: map[stakeholder.ID]*stakeholder.Coin{
		aaa: uint256.NewInt(10),
		bbb: uint256.NewInt(50),
	}}

	snap, err := set.StakeSnapshotAt(context.Background(), ledger, 1000, 10)
	require.NoError(t, err)
	require.True(t, snap.Has(aaa))
	require.True(t, snap.Has(bbb))

	for _, e := range snap.Entries {
		switch e.ID {
		case aaa:
			require.Equal(t, uint256.NewInt(10).Dec(), e.Stake.Dec())
		case bbb:
			require.Equal(t, uint256.NewInt(50).Dec(), e.Stake.Dec())
		}
	}
}

func TestValidatorsWithoutStakeAreExcluded(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bbb := mustID(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	set := validators.NewSet([]stakeholder.ID{aaa, bbb})
	ledger := &fakeLedger{balances: map[stakeholder.ID]*stakeholder.Coin{
		aaa: uint256.NewInt(10),
	}}

	snap, err := set.StakeSnapshotAt(context.Background(), ledger, 1000, 10)
	require.NoError(t, err)
	require.True(t, snap.Has(aaa))
	require.False(t, snap.Has(bbb))
}

func TestStakeSnapshotReadsAtTwoKStepsBehind(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	set := validators.NewSet([]stakeholder.ID{aaa})

	var observedStep uint64
	recorder := recordingLedger{balance: uint256.NewInt(1), onBalanceAt: func(atStep uint64) { observedStep = atStep }}

	_, err := set.StakeSnapshotAt(context.Background(), &recorder, 100, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(80), observedStep)
}

func TestStakeSnapshotSaturatesAtZeroForEarlySteps(t *testing.T) {
	aaa := mustID(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	set := validators.NewSet([]stakeholder.ID{aaa})

	var observedStep uint64
	recorder := recordingLedger{balance: uint256.NewInt(1), onBalanceAt: func(atStep uint64) { observedStep = atStep }}

	_, err := set.StakeSnapshotAt(context.Background(), &recorder, 5, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(0), observedStep)
}

func TestStakeSnapshotRejectsEmptySet(t *testing.T) {
	set := validators.NewSet(nil)
	_, err := set.StakeSnapshotAt(context.Background(), &fakeLedger{}, 100, 10)
	require.ErrorIs(t, err, validators.ErrEmptySet)
}

type recordingLedger struct {
	balance     *stakeholder.Coin
	onBalanceAt func(atStep uint64)
}

func (r *recordingLedger) BalanceAt(_ context.Context, _ stakeholder.ID, atStep uint64) (*stakeholder.Coin, error) {
	r.onBalanceAt(atStep)
	return r.balance, nil
}
