// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package treasury keeps the fee schedule, collected fees, the reward pool and the total stake.
package treasury

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotTreasuryAddress = thor.BytesToBytes32([]byte("treasury-address"))
	slotFeeBps          = thor.BytesToBytes32([]byte("fee-bps"))
	slotFeesEnabled     = thor.BytesToBytes32([]byte("fees-enabled"))
	slotCollectedFees   = thor.BytesToBytes32([]byte("collected-fees"))
	slotPoolTotal       = thor.BytesToBytes32([]byte("reward-pool-total"))
	slotPoolDistributed = thor.BytesToBytes32([]byte("reward-pool-distributed"))
	slotTotalStaked     = thor.BytesToBytes32([]byte("total-staked"))
	slotLastUpdate      = thor.BytesToBytes32([]byte("last-update-time"))
)

// RewardPool is the funded reward capacity and the part already handed out.
type RewardPool struct {
	Total       *uint256.Int
	Distributed *uint256.Int
}

// Available returns Total - Distributed.
func (p *RewardPool) Available() *uint256.Int {
	return new(uint256.Int).Sub(p.Total, p.Distributed)
}

// Info is a snapshot of the treasury.
type Info struct {
	TreasuryAddress thor.Address
	FeeBps          uint64
	CollectedFees   *uint256.Int
	FeesEnabled     bool
	RewardPool      RewardPool
	TotalStaked     *uint256.Int
	LastUpdateTime  uint64
}

type Service struct {
	treasuryAddress *solidity.Address
	feeBps          *solidity.Slot[uint64]
	feesEnabled     *solidity.Slot[bool]
	collectedFees   *solidity.Uint256
	poolTotal       *solidity.Uint256
	poolDistributed *solidity.Uint256
	totalStaked     *solidity.Uint256
	lastUpdate      *solidity.Slot[uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		treasuryAddress: solidity.NewAddress(sctx, slotTreasuryAddress),
		feeBps:          solidity.NewSlot[uint64](sctx, slotFeeBps),
		feesEnabled:     solidity.NewSlot[bool](sctx, slotFeesEnabled),
		collectedFees:   solidity.NewUint256(sctx, slotCollectedFees),
		poolTotal:       solidity.NewUint256(sctx, slotPoolTotal),
		poolDistributed: solidity.NewUint256(sctx, slotPoolDistributed),
		totalStaked:     solidity.NewUint256(sctx, slotTotalStaked),
		lastUpdate:      solidity.NewSlot[uint64](sctx, slotLastUpdate),
	}
}

// Info returns the current treasury snapshot.
func (s *Service) Info() (*Info, error) {
	var (
		info Info
		err  error
	)
	if info.TreasuryAddress, err = s.treasuryAddress.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get treasury address")
	}
	if info.FeeBps, err = s.feeBps.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get fee")
	}
	if info.FeesEnabled, err = s.feesEnabled.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get fees flag")
	}
	if info.CollectedFees, err = s.collectedFees.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get collected fees")
	}
	if info.RewardPool.Total, err = s.poolTotal.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get reward pool")
	}
	if info.RewardPool.Distributed, err = s.poolDistributed.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get distributed rewards")
	}
	if info.TotalStaked, err = s.totalStaked.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get total staked")
	}
	if info.LastUpdateTime, err = s.lastUpdate.Get(); err != nil {
		return nil, errors.Wrap(err, "failed to get last update")
	}
	return &info, nil
}

// EffectiveFeeBps returns the fee applied to new stakes, zero when fees are disabled.
func (s *Service) EffectiveFeeBps() (uint64, error) {
	enabled, err := s.feesEnabled.Get()
	if err != nil || !enabled {
		return 0, err
	}
	return s.feeBps.Get()
}

func (s *Service) touch(now uint64) error {
	return s.lastUpdate.Set(now)
}

// CollectFee adds a deducted fee to the collected fees.
func (s *Service) CollectFee(amount *uint256.Int, now uint64) error {
	if amount.IsZero() {
		return nil
	}
	if err := s.collectedFees.Add(amount); err != nil {
		return reverts.Arith(err)
	}
	return s.touch(now)
}

// WithdrawFees removes amount from the collected fees.
func (s *Service) WithdrawFees(amount *uint256.Int, now uint64) error {
	if amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	collected, err := s.collectedFees.Get()
	if err != nil {
		return err
	}
	if amount.Gt(collected) {
		return reverts.ErrInsufficientBalance.Withf("requested %s, collected %s", amount, collected)
	}
	if err := s.collectedFees.Sub(amount); err != nil {
		return reverts.Arith(err)
	}
	return s.touch(now)
}

// Fund increases the reward pool.
func (s *Service) Fund(amount *uint256.Int, now uint64) error {
	if amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	if err := s.poolTotal.Add(amount); err != nil {
		return reverts.Arith(err)
	}
	return s.touch(now)
}

// Distribute consumes reward pool capacity. The distributed amount never exceeds the total.
func (s *Service) Distribute(amount *uint256.Int, now uint64) error {
	total, err := s.poolTotal.Get()
	if err != nil {
		return err
	}
	distributed, err := s.poolDistributed.Get()
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(distributed, amount)
	if overflow {
		return reverts.ErrArithmeticFault.Withf("distributed overflow")
	}
	if next.Gt(total) {
		return reverts.ErrInsufficientRewardPool.Withf("requested %s, available %s", amount, new(uint256.Int).Sub(total, distributed))
	}
	if err := s.poolDistributed.Set(next); err != nil {
		return err
	}
	return s.touch(now)
}

// AddStaked increases the total stake.
func (s *Service) AddStaked(amount *uint256.Int) error {
	return reverts.Arith(s.totalStaked.Add(amount))
}

// SubStaked decreases the total stake.
func (s *Service) SubStaked(amount *uint256.Int) error {
	return reverts.Arith(s.totalStaked.Sub(amount))
}

// SetFee sets the fee in basis points.
func (s *Service) SetFee(bps uint64, now uint64) error {
	if bps > thor.MaxFee {
		return reverts.ErrInvalidParameter.Withf("fee %d exceeds %d", bps, thor.MaxFee)
	}
	if err := s.feeBps.Set(bps); err != nil {
		return err
	}
	return s.touch(now)
}

// SetFeesEnabled toggles fee deduction on future stakes.
func (s *Service) SetFeesEnabled(enabled bool, now uint64) error {
	if err := s.feesEnabled.Set(enabled); err != nil {
		return err
	}
	return s.touch(now)
}

// SetTreasuryAddress sets the default destination of withdrawn fees.
func (s *Service) SetTreasuryAddress(addr thor.Address, now uint64) error {
	if addr.IsZero() {
		return reverts.ErrZeroAddress
	}
	s.treasuryAddress.Set(addr)
	return s.touch(now)
}
