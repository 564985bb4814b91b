// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"github.com/holiman/uint256"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Stake is the position of one account. RewardRateBps and MaxRewardCap are captured from
// the tier when the stake is opened.
type Stake struct {
	Amount             *uint256.Int
	StartTime          uint64
	EndTime            uint64
	LastClaimTime      uint64
	AccumulatedRewards *uint256.Int
	TierID             uint8
	Locked             bool
	Compounding        bool
	CooldownEnd        uint64
	RewardRateBps      uint64
	MaxRewardCap       *uint256.Int
}

// Empty returns a stake in the NoStake state.
func Empty() *Stake {
	return &Stake{
		Amount:             new(uint256.Int),
		AccumulatedRewards: new(uint256.Int),
		MaxRewardCap:       new(uint256.Int),
	}
}

// IsLocked returns whether the stake currently locks value.
func (s *Stake) IsLocked() bool {
	return s != nil && s.Locked
}

// CanOpen reports why a new stake cannot be opened at now, or nil.
func (s *Stake) CanOpen(now uint64) error {
	if s.IsLocked() {
		return reverts.ErrAlreadyStaked
	}
	if now < s.CooldownEnd {
		return reverts.ErrCooldownActive.Withf("cooldown ends at %d", s.CooldownEnd)
	}
	return nil
}

// CanUnlock returns whether the lock has expired at now.
func (s *Stake) CanUnlock(now uint64) bool {
	return now >= s.EndTime
}

var yearBps = new(uint256.Int).Mul(uint256.NewInt(thor.BasisPoints), uint256.NewInt(thor.SecondsPerYear))

// CalculateRewards returns the rewards accrued since the last claim:
// floor(amount * rate * elapsed / (10000 * secondsPerYear)). The three factors are
// multiplied before the single division.
func CalculateRewards(s *Stake, now uint64) (*uint256.Int, error) {
	if !s.IsLocked() || now <= s.LastClaimTime {
		return new(uint256.Int), nil
	}
	elapsed := now - s.LastClaimTime

	r, overflow := new(uint256.Int).MulOverflow(s.Amount, uint256.NewInt(s.RewardRateBps))
	if overflow {
		return nil, reverts.ErrArithmeticFault.Withf("reward overflow")
	}
	if _, overflow = r.MulOverflow(r, uint256.NewInt(elapsed)); overflow {
		return nil, reverts.ErrArithmeticFault.Withf("reward overflow")
	}
	return r.Div(r, yearBps), nil
}

// Fee returns amount * feeBps / 10000.
func Fee(amount *uint256.Int, feeBps uint64) (*uint256.Int, error) {
	fee, overflow := new(uint256.Int).MulOverflow(amount, uint256.NewInt(feeBps))
	if overflow {
		return nil, reverts.ErrArithmeticFault.Withf("fee overflow")
	}
	return fee.Div(fee, uint256.NewInt(thor.BasisPoints)), nil
}
