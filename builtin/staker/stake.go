// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/builtin/staker/stakes"
	"github.com/vechain/stakeledger/thor"
)

// OpenStake locks amount in the tier. The fee is deducted from amount and the rest becomes
// the principal.
func (s *Staker) OpenStake(caller thor.Address, amount *uint256.Int, tierID uint8, compounding bool) (*stakes.Stake, error) {
	logger.Debug("opening stake", "account", caller, "amount", amount, "tier", tierID, "compounding", compounding)

	stake, err := s.openStake(caller, amount, tierID, compounding)
	if err != nil {
		logger.Info("open stake failed", "account", caller, "error", err)
		return nil, err
	}

	logger.Info("opened stake", "account", caller, "principal", stake.Amount)
	return stake, nil
}

func (s *Staker) openStake(caller thor.Address, amount *uint256.Int, tierID uint8, compounding bool) (*stakes.Stake, error) {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return nil, err
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return nil, err
	}
	if amount == nil || amount.IsZero() {
		return nil, reverts.ErrZeroAmount
	}

	tier, err := s.tierService.GetActive(tierID)
	if err != nil {
		return nil, err
	}
	if amount.Lt(tier.MinimumStake) {
		return nil, reverts.ErrBelowMinimumStake.Withf("minimum %s", tier.MinimumStake.Dec())
	}
	if compounding && !tier.CompoundingAllowed {
		return nil, reverts.ErrCompoundingNotAllowed
	}

	current, err := s.stakeService.Get(caller)
	if err != nil {
		return nil, err
	}
	if err := current.CanOpen(now); err != nil {
		return nil, err
	}
	if err := s.limiterService.Issue(amount, now); err != nil {
		return nil, err
	}

	feeBps, err := s.treasuryService.EffectiveFeeBps()
	if err != nil {
		return nil, err
	}
	fee, err := stakes.Fee(amount, feeBps)
	if err != nil {
		return nil, err
	}
	principal := new(uint256.Int).Sub(amount, fee)
	endTime, ok := thor.AddTime(now, tier.LockDuration)
	if !ok {
		return nil, reverts.ErrArithmeticFault.Withf("lock duration %d overflows", tier.LockDuration)
	}

	if err := s.transferIn(caller, amount); err != nil {
		return nil, err
	}
	if err := s.treasuryService.CollectFee(fee, now); err != nil {
		return nil, err
	}
	if err := s.treasuryService.AddStaked(principal); err != nil {
		return nil, err
	}

	stake := &stakes.Stake{
		Amount:             principal,
		StartTime:          now,
		EndTime:            endTime,
		LastClaimTime:      now,
		AccumulatedRewards: new(uint256.Int),
		TierID:             tierID,
		Locked:             true,
		Compounding:        compounding,
		RewardRateBps:      tier.RewardRateBps,
		MaxRewardCap:       new(uint256.Int).Set(tier.MaxRewardCap),
	}
	if err := s.stakeService.Set(caller, stake); err != nil {
		return nil, err
	}
	if err := s.stakeService.MarkUsed(caller); err != nil {
		return nil, err
	}

	s.emit(EventStaked, caller, uint64(tierID),
		"amount", principal,
		"fee", fee,
		"tierId", tierID,
		"compounding", compounding,
	)
	return stake, nil
}

// ClaimRewards settles the rewards accrued since the last claim. Compounding stakes add them
// to the principal, others are paid out. Both consume reward pool capacity.
func (s *Staker) ClaimRewards(caller thor.Address) (*uint256.Int, error) {
	logger.Debug("claiming rewards", "account", caller)

	rewards, err := s.claimRewards(caller)
	if err != nil {
		logger.Info("claim rewards failed", "account", caller, "error", err)
		return nil, err
	}

	logger.Info("claimed rewards", "account", caller, "rewards", rewards)
	return rewards, nil
}

func (s *Staker) claimRewards(caller thor.Address) (*uint256.Int, error) {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return nil, err
	}
	stake, err := s.stakeService.Get(caller)
	if err != nil {
		return nil, err
	}
	if !stake.IsLocked() {
		return nil, reverts.ErrNotStaked
	}
	rewards, err := stakes.CalculateRewards(stake, now)
	if err != nil {
		return nil, err
	}
	if rewards.IsZero() {
		return nil, reverts.ErrNoRewards
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return nil, err
	}
	if err := s.treasuryService.Distribute(rewards, now); err != nil {
		return nil, err
	}

	stake.LastClaimTime = now
	if _, overflow := stake.AccumulatedRewards.AddOverflow(stake.AccumulatedRewards, rewards); overflow {
		return nil, reverts.ErrArithmeticFault.Withf("accumulated rewards overflow")
	}
	if stake.Compounding {
		if _, overflow := stake.Amount.AddOverflow(stake.Amount, rewards); overflow {
			return nil, reverts.ErrArithmeticFault.Withf("principal overflow")
		}
		if err := s.treasuryService.AddStaked(rewards); err != nil {
			return nil, err
		}
	} else if err := s.transferOut(caller, rewards); err != nil {
		return nil, err
	}
	if err := s.stakeService.Set(caller, stake); err != nil {
		return nil, err
	}

	s.emit(EventRewardsClaimed, caller, uint64(stake.TierID),
		"amount", rewards,
		"tierId", stake.TierID,
		"compounded", stake.Compounding,
	)
	return rewards, nil
}

// Unstake closes the stake after its lock, or at any time during an emergency shutdown.
// Principal and final rewards are paid out together and the cooldown starts.
func (s *Staker) Unstake(caller thor.Address) (*uint256.Int, *uint256.Int, error) {
	logger.Debug("unstaking", "account", caller)

	principal, rewards, err := s.unstake(caller)
	if err != nil {
		logger.Info("unstake failed", "account", caller, "error", err)
		return nil, nil, err
	}

	logger.Info("unstaked", "account", caller, "principal", principal, "rewards", rewards)
	return principal, rewards, nil
}

func (s *Staker) unstake(caller thor.Address) (*uint256.Int, *uint256.Int, error) {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return nil, nil, err
	}
	stake, err := s.stakeService.Get(caller)
	if err != nil {
		return nil, nil, err
	}
	if !stake.IsLocked() {
		return nil, nil, reverts.ErrNotStaked
	}
	if !stake.CanUnlock(now) {
		shutdown, err := s.IsEmergencyShutdown()
		if err != nil {
			return nil, nil, err
		}
		if !shutdown {
			return nil, nil, reverts.ErrStillLocked.Withf("locked until %d", stake.EndTime)
		}
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return nil, nil, err
	}

	rewards, err := stakes.CalculateRewards(stake, now)
	if err != nil {
		return nil, nil, err
	}
	// the pool wide cap is checked before the per position one
	if !rewards.IsZero() {
		if err := s.treasuryService.Distribute(rewards, now); err != nil {
			return nil, nil, err
		}
	}
	if rewards.Gt(stake.MaxRewardCap) {
		return nil, nil, reverts.ErrRewardCapExceeded.Withf("rewards %s, cap %s", rewards.Dec(), stake.MaxRewardCap.Dec())
	}

	principal := stake.Amount
	payout, overflow := new(uint256.Int).AddOverflow(principal, rewards)
	if overflow {
		return nil, nil, reverts.ErrArithmeticFault.Withf("payout overflow")
	}
	if err := s.treasuryService.SubStaked(principal); err != nil {
		return nil, nil, err
	}
	cooldown, err := s.params.GetUint64(thor.KeyCooldownPeriod)
	if err != nil {
		return nil, nil, err
	}
	cooldownEnd, ok := thor.AddTime(now, cooldown)
	if !ok {
		return nil, nil, reverts.ErrArithmeticFault.Withf("cooldown period %d overflows", cooldown)
	}

	closed := stakes.Empty()
	closed.TierID = stake.TierID
	closed.StartTime = stake.StartTime
	closed.EndTime = stake.EndTime
	closed.LastClaimTime = now
	closed.CooldownEnd = cooldownEnd
	if _, overflow := closed.AccumulatedRewards.AddOverflow(stake.AccumulatedRewards, rewards); overflow {
		return nil, nil, reverts.ErrArithmeticFault.Withf("accumulated rewards overflow")
	}
	if err := s.stakeService.Set(caller, closed); err != nil {
		return nil, nil, err
	}
	if err := s.transferOut(caller, payout); err != nil {
		return nil, nil, err
	}

	s.emit(EventUnstaked, caller, uint64(stake.TierID),
		"amount", principal,
		"rewards", rewards,
	)
	return principal, rewards, nil
}

// SetEmergencyShutdown lets every locked stake be withdrawn before its lock ends.
func (s *Staker) SetEmergencyShutdown(caller thor.Address, enabled bool) error {
	logger.Debug("setting emergency shutdown", "caller", caller, "enabled", enabled)

	if err := s.enterAdmin(caller, authority.RoleEmergency); err != nil {
		logger.Info("set emergency shutdown failed", "caller", caller, "error", err)
		return err
	}
	if err := s.setEmergencyShutdown(caller, enabled); err != nil {
		return err
	}

	logger.Info("emergency shutdown set", "enabled", enabled)
	return nil
}

func (s *Staker) setEmergencyShutdown(caller thor.Address, enabled bool) error {
	if err := s.params.SetBool(thor.KeyEmergencyShutdown, enabled); err != nil {
		return err
	}
	s.emit(EventEmergencyShutdown, caller, 0, "enabled", enabled)
	return nil
}
