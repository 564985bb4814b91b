// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

const launchTime = 1_700_000_000

func newStore(t *testing.T) *state.Store {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.NewStore(db, 1)
}

func nativeStaker(store *state.Store) (*state.State, *staker.Staker) {
	st := store.NewState()
	return st, builtin.Staker.Native(st, nil, nil, xenv.NewManualClock(launchTime))
}

func unitsOf(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

func TestDevnet(t *testing.T) {
	store := newStore(t)
	g := NewDevnet(launchTime)
	assert.Equal(t, "devnet", g.Name())
	assert.Equal(t, uint64(launchTime), g.LaunchTime())
	assert.Equal(t, g.ID(), NewDevnet(launchTime).ID())

	applied, err := g.Apply(store)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = g.Apply(store)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = NewDevnet(launchTime + 1).Apply(store)
	assert.Error(t, err)

	id, err := StoredID(store)
	require.NoError(t, err)
	assert.Equal(t, g.ID(), id)

	st, s := nativeStaker(store)
	list, err := s.ListTiers()
	require.NoError(t, err)
	assert.Len(t, list, 3)

	info, err := s.TreasuryInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), info.FeeBps)
	assert.True(t, info.FeesEnabled)
	assert.Equal(t, DevAccounts()[1].Address, info.TreasuryAddress)
	assert.Equal(t, unitsOf(10_000_000), info.RewardPool.Total)

	vaultBalance, err := st.GetBalance(builtin.Vault.Address)
	require.NoError(t, err)
	assert.Equal(t, info.RewardPool.Available(), vaultBalance)

	auth := builtin.Authority.Native(st)
	for _, role := range authority.Roles {
		has, err := auth.HasRole(role, DevAccounts()[0].Address)
		require.NoError(t, err)
		assert.True(t, has, role.String())

		has, err = auth.HasRole(role, Executor)
		require.NoError(t, err)
		assert.False(t, has, role.String())
	}
	executorBalance, err := st.GetBalance(Executor)
	require.NoError(t, err)
	assert.True(t, executorBalance.IsZero())

	for _, acc := range DevAccounts() {
		bal, err := st.GetBalance(acc.Address)
		require.NoError(t, err)
		assert.Equal(t, unitsOf(1_000_000), bal)
	}
}

const customYAML = `
launchTime: 1700000000
config:
  votingPeriod: 3600
  maxDailyStake: "0x3635c9adc5dea00000"
roles:
  - role: admin
    address: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
  - role: treasurer
    address: "0xd3ae78222beadb038203be21ed5ce7c9b1bff602"
accounts:
  - address: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
    balance: "1000000000000000000000"
  - address: "0x000000000000000000000000000000000000abcd"
    balance: "1"
    contract: true
tiers:
  - id: 7
    minimumStake: "10000000000000000000"
    rewardRateBps: 800
    lockDuration: 86400
    maxRewardCap: "0x56bc75e2d63100000"
tokens:
  - "0x0000000000000000000000000000000000000777"
`

func TestLoadCustomNet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customYAML), 0o600))

	g, err := LoadCustomNet(path)
	require.NoError(t, err)
	assert.Equal(t, "customnet", g.Name())

	store := newStore(t)
	_, err = g.Apply(store)
	require.NoError(t, err)

	st, s := nativeStaker(store)
	votingPeriod, err := s.Params().GetUint64(thor.KeyVotingPeriod)
	require.NoError(t, err)
	assert.Equal(t, uint64(3600), votingPeriod)
	maxDaily, err := s.Params().GetUint256(thor.KeyMaxDailyStake)
	require.NoError(t, err)
	assert.Equal(t, unitsOf(1000), maxDaily)
	// untouched keys keep the default
	delay, err := s.Params().GetUint64(thor.KeyRecoveryDelay)
	require.NoError(t, err)
	assert.Equal(t, thor.InitialRecoveryDelay.Uint64(), delay)

	tier, err := s.GetTier(7)
	require.NoError(t, err)
	assert.True(t, tier.Active)
	assert.Equal(t, unitsOf(100), tier.MaxRewardCap)

	hasCode, err := st.HasCode(thor.MustParseAddress("0x000000000000000000000000000000000000abcd"))
	require.NoError(t, err)
	assert.True(t, hasCode)

	tokens, err := s.Tokens()
	require.NoError(t, err)
	assert.Equal(t, []thor.Address{thor.MustParseAddress("0x0000000000000000000000000000000000000777")}, tokens)

	info, err := s.TreasuryInfo()
	require.NoError(t, err)
	assert.True(t, info.RewardPool.Total.IsZero())

	_, err = LoadCustomNet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCustomNetValidation(t *testing.T) {
	admin := thor.BytesToAddress([]byte("admin"))
	valid := func() *CustomGenesis {
		return &CustomGenesis{
			LaunchTime: launchTime,
			Roles:      []Role{{Role: "admin", Address: admin}},
			Accounts:   []Account{{Address: admin, Balance: units(1)}},
			Tiers: []Tier{{
				ID: 1, MinimumStake: units(1), RewardRateBps: 100,
				LockDuration: thor.SecondsPerDay, MaxRewardCap: units(10),
			}},
		}
	}

	_, err := NewCustomNet(valid())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(g *CustomGenesis)
	}{
		{"no launch time", func(g *CustomGenesis) { g.LaunchTime = 0 }},
		{"no admin", func(g *CustomGenesis) { g.Roles[0].Role = "treasurer" }},
		{"unknown role", func(g *CustomGenesis) { g.Roles[0].Role = "root" }},
		{"zero role address", func(g *CustomGenesis) { g.Roles = append(g.Roles, Role{Role: "emergency"}) }},
		{"missing balance", func(g *CustomGenesis) { g.Accounts[0].Balance = nil }},
		{"duplicated account", func(g *CustomGenesis) { g.Accounts = append(g.Accounts, g.Accounts[0]) }},
		{"tier rate", func(g *CustomGenesis) { g.Tiers[0].RewardRateBps = thor.MaxTierRewardRate + 1 }},
		{"tier lock", func(g *CustomGenesis) { g.Tiers[0].LockDuration = 1 }},
		{"tier cap", func(g *CustomGenesis) { g.Tiers[0].MaxRewardCap = nil }},
		{"config", func(g *CustomGenesis) { g.Config = &staker.Config{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid()
			tt.mutate(g)
			_, err := NewCustomNet(g)
			assert.Error(t, err)
		})
	}
}

func TestGenesisCallFailureLeavesStoreEmpty(t *testing.T) {
	admin := thor.BytesToAddress([]byte("admin"))
	g, err := NewCustomNet(&CustomGenesis{
		LaunchTime: launchTime,
		Roles:      []Role{{Role: "admin", Address: admin}},
		Tiers: []Tier{
			{ID: 1, MinimumStake: units(1), RewardRateBps: 100, LockDuration: thor.SecondsPerDay, MaxRewardCap: units(10)},
			{ID: 1, MinimumStake: units(1), RewardRateBps: 100, LockDuration: thor.SecondsPerDay, MaxRewardCap: units(10)},
		},
	})
	require.NoError(t, err)

	store := newStore(t)
	_, err = g.Apply(store)
	assert.Error(t, err)

	id, err := StoredID(store)
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}
