// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

func lockedStake(amount uint64, rate uint64, lastClaim uint64) *Stake {
	s := Empty()
	s.Amount = uint256.NewInt(amount)
	s.RewardRateBps = rate
	s.LastClaimTime = lastClaim
	s.Locked = true
	return s
}

func TestCalculateRewards(t *testing.T) {
	// 10% a year on 1e6 for a full year
	s := lockedStake(1_000_000, 1000, 100)
	r, err := CalculateRewards(s, 100+thor.SecondsPerYear)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(100_000), r)

	// nothing at the claim instant
	r, err = CalculateRewards(s, 100)
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	// floors
	r, err = CalculateRewards(s, 101)
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	// unlocked stakes accrue nothing
	s.Locked = false
	r, err = CalculateRewards(s, 100+thor.SecondsPerYear)
	require.NoError(t, err)
	assert.True(t, r.IsZero())
}

func TestCalculateRewardsOverflow(t *testing.T) {
	s := lockedStake(0, thor.MaxTierRewardRate, 0)
	s.Amount = new(uint256.Int).SetAllOne()
	_, err := CalculateRewards(s, 10)
	assert.ErrorIs(t, err, reverts.ErrArithmeticFault)
	assert.Equal(t, reverts.ArithmeticFault, reverts.KindOf(err))
}

func TestCalculateRewardsMatchesBigInt(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for range 500 {
		var amount, rate, elapsed uint64
		f.Fuzz(&amount)
		f.Fuzz(&rate)
		f.Fuzz(&elapsed)
		rate %= thor.MaxTierRewardRate + 1
		elapsed %= thor.MaxDuration

		s := lockedStake(amount, rate, 1)
		got, err := CalculateRewards(s, 1+elapsed)
		require.NoError(t, err)

		want := new(big.Int).SetUint64(amount)
		want.Mul(want, new(big.Int).SetUint64(rate))
		want.Mul(want, new(big.Int).SetUint64(elapsed))
		want.Div(want, new(big.Int).SetUint64(thor.BasisPoints*thor.SecondsPerYear))
		assert.Equal(t, want, got.ToBig())
	}
}

func TestFee(t *testing.T) {
	fee, err := Fee(uint256.NewInt(150), 100)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1), fee)

	// 150 units at 1% leave a principal of 148.5
	amount := new(uint256.Int).Mul(uint256.NewInt(150), uint256.NewInt(1e18))
	fee, err = Fee(amount, 100)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(15e17), fee)
	assert.Equal(t, new(uint256.Int).Mul(uint256.NewInt(1485), uint256.NewInt(1e17)), new(uint256.Int).Sub(amount, fee))

	_, err = Fee(new(uint256.Int).SetAllOne(), thor.MaxFee)
	assert.ErrorIs(t, err, reverts.ErrArithmeticFault)
}

func TestCanOpen(t *testing.T) {
	s := Empty()
	assert.NoError(t, s.CanOpen(0))

	s.CooldownEnd = 50
	assert.ErrorIs(t, s.CanOpen(49), reverts.ErrCooldownActive)
	assert.NoError(t, s.CanOpen(50))

	s.Locked = true
	assert.ErrorIs(t, s.CanOpen(100), reverts.ErrAlreadyStaked)
}

func TestService(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	svc := New(solidity.NewContext(thor.BytesToAddress([]byte("stakes")), state.NewStore(db, 1).NewState()))

	alice := thor.BytesToAddress([]byte("alice"))
	got, err := svc.Get(alice)
	require.NoError(t, err)
	assert.False(t, got.IsLocked())
	assert.True(t, got.Amount.IsZero())

	s := lockedStake(500, 100, 10)
	s.TierID = 2
	require.NoError(t, svc.Set(alice, s))
	got, err = svc.Get(alice)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	svc.Delete(alice)
	got, err = svc.Get(alice)
	require.NoError(t, err)
	assert.False(t, got.IsLocked())

	used, err := svc.HasBeenUsed(alice)
	require.NoError(t, err)
	assert.False(t, used)
	require.NoError(t, svc.MarkUsed(alice))
	used, err = svc.HasBeenUsed(alice)
	require.NoError(t, err)
	assert.True(t, used)

	revoked, err := svc.IsRevoked(alice)
	require.NoError(t, err)
	assert.False(t, revoked)
	require.NoError(t, svc.Revoke(alice))
	revoked, err = svc.IsRevoked(alice)
	require.NoError(t, err)
	assert.True(t, revoked)
}
