// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
	"github.com/vechain/stakeledger/xenv"
)

var (
	admin     = thor.BytesToAddress([]byte("admin"))
	emergency = thor.BytesToAddress([]byte("emergency"))
	treasurer = thor.BytesToAddress([]byte("treasurer"))
	alice     = thor.BytesToAddress([]byte("alice"))
)

func units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

type testRuntime struct {
	*Runtime
	t     *testing.T
	clock *xenv.ManualClock
}

// newRuntime sets up roles, default params and tier 1, then funds accounts with 1000 units.
func newRuntime(t *testing.T, opts Options, accounts ...thor.Address) *testRuntime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := state.NewStore(db, 1)
	st := store.NewState()
	auth := builtin.Authority.Native(st)
	for _, g := range []struct {
		role authority.Role
		addr thor.Address
	}{
		{authority.RoleAdmin, admin},
		{authority.RoleEmergency, emergency},
		{authority.RoleTreasurer, treasurer},
	} {
		_, err := auth.Grant(g.role, g.addr)
		require.NoError(t, err)
	}
	require.NoError(t, staker.DefaultConfig().Apply(builtin.Params.Native(st)))
	for _, addr := range append([]thor.Address{treasurer}, accounts...) {
		require.NoError(t, st.SetBalance(addr, units(1000)))
	}
	stage, err := st.Stage()
	require.NoError(t, err)
	require.NoError(t, stage.Commit())

	clock := xenv.NewManualClock(1_700_000_000)
	rt := &testRuntime{Runtime: New(store, clock, opts), t: t, clock: clock}
	t.Cleanup(rt.Close)

	require.NoError(t, rt.CreateTier(context.Background(), admin, 1, &tiers.Params{
		MinimumStake:  units(10),
		RewardRateBps: 1000,
		LockDuration:  thor.SecondsPerYear,
		MaxRewardCap:  units(1000),
	}))
	return rt
}

func (rt *testRuntime) stake(addr thor.Address) *uint256.Int {
	var amount *uint256.Int
	require.NoError(rt.t, rt.View(func(s *staker.Staker) error {
		stake, err := s.GetStake(addr)
		if err != nil {
			return err
		}
		amount = stake.Amount
		return nil
	}))
	return amount
}

func (rt *testRuntime) totalStaked() *uint256.Int {
	var total *uint256.Int
	require.NoError(rt.t, rt.View(func(s *staker.Staker) error {
		info, err := s.TreasuryInfo()
		if err != nil {
			return err
		}
		total = info.TotalStaked
		return nil
	}))
	return total
}

func TestLostUpdate(t *testing.T) {
	rt := newRuntime(t, Options{}, alice)

	var succeeded atomic.Int32
	var g errgroup.Group
	for range 16 {
		g.Go(func() error {
			_, err := rt.OpenStake(context.Background(), alice, units(50), 1, false)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, reverts.ErrAlreadyStaked), errors.Is(err, reverts.ErrRateLimited):
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, units(50), rt.stake(alice))
	assert.Equal(t, units(50), rt.totalStaked())
}

func TestIndependentAccounts(t *testing.T) {
	accounts := make([]thor.Address, 32)
	for i := range accounts {
		accounts[i] = thor.BytesToAddress([]byte{byte(i + 1)})
	}
	rt := newRuntime(t, Options{}, accounts...)

	var g errgroup.Group
	for _, addr := range accounts {
		g.Go(func() error {
			_, err := rt.OpenStake(context.Background(), addr, units(100), 1, false)
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, addr := range accounts {
		assert.Equal(t, units(100), rt.stake(addr))
	}
	assert.Equal(t, units(3200), rt.totalStaked())
}

func TestFailedCallLeavesNoTrace(t *testing.T) {
	rt := newRuntime(t, Options{}, alice)

	_, err := rt.OpenStake(context.Background(), alice, units(5), 1, false)
	assert.ErrorIs(t, err, reverts.ErrBelowMinimumStake)

	// the limiter touch of the failed call was discarded
	_, err = rt.OpenStake(context.Background(), alice, units(50), 1, false)
	require.NoError(t, err)
}

func TestEvents(t *testing.T) {
	sink := &memSink{}
	rt := newRuntime(t, Options{Sinks: []EventSink{sink}}, alice)

	ch := make(chan []*staker.Event, 4)
	sub := rt.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	_, err := rt.OpenStake(context.Background(), alice, units(50), 1, false)
	require.NoError(t, err)

	select {
	case events := <-ch:
		require.Len(t, events, 1)
		assert.Equal(t, staker.EventStaked, events[0].Name)
		assert.Equal(t, alice, events[0].Account)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	// failures publish nothing
	_, err = rt.OpenStake(context.Background(), alice, units(50), 1, false)
	require.Error(t, err)
	assert.Empty(t, ch)

	// tier creation and the stake
	assert.Equal(t, []string{staker.EventTierCreated, staker.EventStaked}, sink.names())
}

type memSink struct {
	mu     sync.Mutex
	events []*staker.Event
}

func (m *memSink) WriteEvents(events []*staker.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *memSink) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.events))
	for _, ev := range m.events {
		names = append(names, ev.Name)
	}
	return names
}

// memBank keeps balances outside the ledger state. hook runs inside every transfer.
type memBank struct {
	mu       sync.Mutex
	balances map[thor.Address]*uint256.Int
	custody  *uint256.Int
	hook     func(ctx context.Context) error
}

func newMemBank(accounts ...thor.Address) *memBank {
	b := &memBank{balances: make(map[thor.Address]*uint256.Int), custody: new(uint256.Int)}
	for _, addr := range accounts {
		b.balances[addr] = units(1000)
	}
	return b
}

func (b *memBank) balance(addr thor.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

func (b *memBank) TransferIn(ctx context.Context, from thor.Address, amount *uint256.Int) error {
	if b.hook != nil {
		if err := b.hook(ctx); err != nil {
			return err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balances[from]
	if bal == nil || bal.Lt(amount) {
		return errors.New("insufficient funds")
	}
	bal.Sub(bal, amount)
	b.custody.Add(b.custody, amount)
	return nil
}

func (b *memBank) TransferOut(ctx context.Context, to thor.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.custody.Lt(amount) {
		return errors.New("custody underfunded")
	}
	b.custody.Sub(b.custody, amount)
	if b.balances[to] == nil {
		b.balances[to] = new(uint256.Int)
	}
	b.balances[to].Add(b.balances[to], amount)
	return nil
}

func TestReentrantCall(t *testing.T) {
	bank := newMemBank(alice)
	rt := newRuntime(t, Options{Bank: bank}, alice)

	var inner error
	bank.hook = func(ctx context.Context) error {
		_, inner = rt.ClaimRewards(ctx, alice)
		return inner
	}

	_, err := rt.OpenStake(context.Background(), alice, units(50), 1, false)
	assert.ErrorIs(t, err, reverts.ErrTransferFailed)
	assert.ErrorIs(t, inner, reverts.ErrReentrant)
	assert.Equal(t, units(1000), bank.balance(alice))
}

func TestCompensation(t *testing.T) {
	bank := newMemBank(alice)
	rt := newRuntime(t, Options{Bank: bank}, alice)

	boom := errors.New("boom")
	_, err := rt.Execute(context.Background(), "test", &Access{Accounts: []thor.Address{alice}, Writes: []Resource{Treasury, Issuance}}, func(s *staker.Staker) error {
		if _, err := s.OpenStake(alice, units(50), 1, false); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, units(1000), bank.balance(alice))
	assert.True(t, rt.stake(alice).IsZero())
	assert.True(t, rt.totalStaked().IsZero())

	// with the bank in place the happy path moves value out of the ledger state
	_, err = rt.OpenStake(context.Background(), alice, units(50), 1, false)
	require.NoError(t, err)
	assert.Equal(t, units(950), bank.balance(alice))
}

func TestLockTimeout(t *testing.T) {
	rt := newRuntime(t, Options{}, alice)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := rt.Execute(context.Background(), "hold", &Access{Accounts: []thor.Address{alice}}, func(*staker.Staker) error {
			close(entered)
			<-release
			return nil
		})
		done <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := rt.OpenStake(ctx, alice, units(50), 1, false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// an account on another stripe is not blocked
	bob := thor.BytesToAddress([]byte("bob"))
	for i := byte(0); stripeOf(bob) == stripeOf(alice); i++ {
		bob = thor.BytesToAddress([]byte{'b', i})
	}
	_, err = rt.Execute(context.Background(), "other", &Access{Accounts: []thor.Address{bob}}, func(*staker.Staker) error { return nil })
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestAdminOps(t *testing.T) {
	rt := newRuntime(t, Options{}, alice)
	ctx := context.Background()

	assert.ErrorIs(t, rt.SetPaused(ctx, alice, true), reverts.ErrUnauthorized)
	require.NoError(t, rt.SetPaused(ctx, emergency, true))
	_, err := rt.OpenStake(ctx, alice, units(50), 1, false)
	assert.ErrorIs(t, err, reverts.ErrPaused)
	require.NoError(t, rt.SetPaused(ctx, admin, false))

	assert.ErrorIs(t, rt.GrantRole(ctx, alice, authority.RoleTreasurer, alice), reverts.ErrUnauthorized)
	require.NoError(t, rt.GrantRole(ctx, admin, authority.RoleTreasurer, alice))
	require.NoError(t, rt.SetTreasuryAddress(ctx, admin, alice))
	// alice passes the role check now
	assert.ErrorIs(t, rt.WithdrawFees(ctx, alice, thor.Address{}, new(uint256.Int)), reverts.ErrZeroAmount)

	require.NoError(t, rt.RevokeRole(ctx, admin, authority.RoleTreasurer, alice))
	assert.ErrorIs(t, rt.WithdrawFees(ctx, alice, alice, uint256.NewInt(1)), reverts.ErrUnauthorized)
	assert.ErrorIs(t, rt.RevokeRole(ctx, admin, authority.RoleAdmin, admin), reverts.ErrInvalidParameter)
}
