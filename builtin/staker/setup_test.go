// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/stakes"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/builtin/vault"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	admin     = thor.BytesToAddress([]byte("admin"))
	emergency = thor.BytesToAddress([]byte("emergency"))
	recoverer = thor.BytesToAddress([]byte("recovery-admin"))
	treasurer = thor.BytesToAddress([]byte("treasurer"))

	testAddrs = Addresses{
		Staker:     thor.BytesToAddress([]byte("Staker")),
		Tiers:      thor.BytesToAddress([]byte("Tiers")),
		Treasury:   thor.BytesToAddress([]byte("Treasury")),
		Governance: thor.BytesToAddress([]byte("Governance")),
		Params:     thor.BytesToAddress([]byte("Params")),
		Tokens:     thor.BytesToAddress([]byte("Tokens")),
	}
	vaultAddr = thor.BytesToAddress([]byte("Vault"))

	genesisTime uint64 = 1_700_000_000
)

// units returns n whole units of 1e18.
func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.ActionDelay = 60
	cfg.MaxDailyStake = (*math.HexOrDecimal256)(units(10_000).ToBig())
	cfg.VotingPeriod = 7 * thor.SecondsPerDay
	cfg.ProposalThreshold = (*math.HexOrDecimal256)(units(100).ToBig())
	cfg.MinimumQuorum = (*math.HexOrDecimal256)(units(500).ToBig())
	cfg.ExecutionDelay = 2 * thor.SecondsPerDay
	cfg.RecoveryDelay = 3 * thor.SecondsPerDay
	cfg.CooldownPeriod = 7 * thor.SecondsPerDay
	return cfg
}

// StakerTest runs every call on its own Staker over a shared state, reverting the state
// when the call fails.
type StakerTest struct {
	t         *testing.T
	state     *state.State
	authority *authority.Authority
	vault     *vault.Vault
	clock     *xenv.ManualClock
	transfer  vault.Transferrer
	events    []*Event
}

func newTest(t *testing.T) *StakerTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.NewStore(db, 1).NewState()
	ts := &StakerTest{
		t:         t,
		state:     st,
		authority: authority.New(thor.BytesToAddress([]byte("Authority")), st),
		vault:     vault.New(vaultAddr, st),
		clock:     xenv.NewManualClock(genesisTime),
	}
	ts.transfer = ts.vault

	for role, addr := range map[authority.Role]thor.Address{
		authority.RoleAdmin:         admin,
		authority.RoleEmergency:     emergency,
		authority.RoleRecoveryAdmin: recoverer,
		authority.RoleTreasurer:     treasurer,
	} {
		_, err := ts.authority.Grant(role, addr)
		require.NoError(t, err)
	}
	require.NoError(t, testConfig().Apply(ts.staker().params))
	return ts
}

func (ts *StakerTest) staker() *Staker {
	return New(testAddrs, ts.state, ts.authority, ts.transfer, ts.clock)
}

// call runs fn atomically and keeps the events of a successful call.
func (ts *StakerTest) call(fn func(s *Staker) error) error {
	s := ts.staker()
	cp := ts.state.NewCheckpoint()
	if err := fn(s); err != nil {
		ts.state.RevertTo(cp)
		return err
	}
	ts.events = append(ts.events, s.Events()...)
	return nil
}

func (ts *StakerTest) view() *Staker {
	return ts.staker()
}

func (ts *StakerTest) Advance(d uint64) *StakerTest {
	ts.clock.Advance(d)
	return ts
}

func (ts *StakerTest) Fund(addr thor.Address, amount *uint256.Int) *StakerTest {
	bal, err := ts.state.GetBalance(addr)
	require.NoError(ts.t, err)
	require.NoError(ts.t, ts.state.SetBalance(addr, new(uint256.Int).Add(bal, amount)))
	return ts
}

func (ts *StakerTest) Balance(addr thor.Address) *uint256.Int {
	bal, err := ts.state.GetBalance(addr)
	require.NoError(ts.t, err)
	return bal
}

func (ts *StakerTest) CreateTier(id uint8, minStake *uint256.Int, rate uint64, lock uint64, compounding bool) *StakerTest {
	err := ts.call(func(s *Staker) error {
		return s.CreateTier(admin, id, &tiers.Params{
			MinimumStake:       minStake,
			RewardRateBps:      rate,
			LockDuration:       lock,
			MaxRewardCap:       units(1_000_000),
			CompoundingAllowed: compounding,
		})
	})
	require.NoError(ts.t, err)
	return ts
}

func (ts *StakerTest) FundPool(amount *uint256.Int) *StakerTest {
	ts.Fund(treasurer, amount)
	require.NoError(ts.t, ts.call(func(s *Staker) error { return s.AddToRewardPool(treasurer, amount) }))
	return ts
}

func (ts *StakerTest) OpenStake(addr thor.Address, amount *uint256.Int, tier uint8, compounding bool) error {
	return ts.call(func(s *Staker) error {
		_, err := s.OpenStake(addr, amount, tier, compounding)
		return err
	})
}

func (ts *StakerTest) Stake(addr thor.Address) *stakes.Stake {
	stake, err := ts.view().GetStake(addr)
	require.NoError(ts.t, err)
	return stake
}

func (ts *StakerTest) LastEvent() *Event {
	require.NotEmpty(ts.t, ts.events)
	return ts.events[len(ts.events)-1]
}

// AssertInvariants checks the accounting identities of the ledger.
func (ts *StakerTest) AssertInvariants(accounts ...thor.Address) *StakerTest {
	info, err := ts.view().TreasuryInfo()
	require.NoError(ts.t, err)

	sum := new(uint256.Int)
	for _, addr := range accounts {
		stake := ts.Stake(addr)
		if !stake.Locked {
			assert.True(ts.t, stake.Amount.IsZero(), "unlocked stake of %v holds value", addr)
			continue
		}
		assert.False(ts.t, stake.Amount.IsZero(), "locked stake of %v is empty", addr)
		sum.Add(sum, stake.Amount)
	}
	assert.Equal(ts.t, sum, info.TotalStaked, "total staked")
	assert.False(ts.t, info.RewardPool.Distributed.Gt(info.RewardPool.Total), "distributed exceeds pool")

	held := new(uint256.Int).Add(info.CollectedFees, info.RewardPool.Available())
	held.Add(held, info.TotalStaked)
	if !assert.Equal(ts.t, held, ts.Balance(vaultAddr), "vault balance") {
		ts.t.Log(spew.Sdump(info))
	}
	return ts
}

// TestSequence runs steps in order, mirroring a scripted scenario.
type TestSequence struct {
	ts    *StakerTest
	funcs []func(t *testing.T)
	mu    sync.Mutex
}

func NewSequence(ts *StakerTest) *TestSequence {
	return &TestSequence{ts: ts}
}

func (sq *TestSequence) AddFunc(f func(t *testing.T)) *TestSequence {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	sq.funcs = append(sq.funcs, f)
	return sq
}

func (sq *TestSequence) Advance(d uint64) *TestSequence {
	return sq.AddFunc(func(*testing.T) { sq.ts.Advance(d) })
}

func (sq *TestSequence) Expect(want error, fn func(s *Staker) error) *TestSequence {
	return sq.AddFunc(func(t *testing.T) {
		err := sq.ts.call(fn)
		if want == nil {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, want)
		}
	})
}

func (sq *TestSequence) Run(t *testing.T) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	for _, f := range sq.funcs {
		f(t)
	}
}
