// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tiers

import (
	"github.com/holiman/uint256"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

// Tier is a staking plan. The id to definition binding never changes once created.
type Tier struct {
	ID                 uint8
	MinimumStake       *uint256.Int
	RewardRateBps      uint64 // per year
	LockDuration       uint64 // seconds
	MaxRewardCap       *uint256.Int
	Active             bool
	CompoundingAllowed bool
	Created            bool
}

// Params are the mutable parameters of a tier.
type Params struct {
	MinimumStake       *uint256.Int
	RewardRateBps      uint64
	LockDuration       uint64
	MaxRewardCap       *uint256.Int
	CompoundingAllowed bool
}

// IsEmpty returns whether the tier was never created.
func (t *Tier) IsEmpty() bool {
	return t == nil || !t.Created
}

// Validate checks the parameter bounds.
func (p *Params) Validate() error {
	switch {
	case p.MinimumStake == nil || p.MinimumStake.IsZero():
		return reverts.ErrInvalidParameter.Withf("minimum stake must be positive")
	case p.MaxRewardCap == nil || p.MaxRewardCap.IsZero():
		return reverts.ErrInvalidParameter.Withf("max reward cap must be positive")
	case p.RewardRateBps > thor.MaxTierRewardRate:
		return reverts.ErrInvalidParameter.Withf("reward rate %d exceeds %d", p.RewardRateBps, thor.MaxTierRewardRate)
	case p.LockDuration < thor.MinDuration || p.LockDuration > thor.MaxDuration:
		return reverts.ErrInvalidParameter.Withf("lock duration %d out of [%d, %d]", p.LockDuration, thor.MinDuration, thor.MaxDuration)
	}
	return nil
}

func (t *Tier) apply(p *Params) {
	t.MinimumStake = new(uint256.Int).Set(p.MinimumStake)
	t.RewardRateBps = p.RewardRateBps
	t.LockDuration = p.LockDuration
	t.MaxRewardCap = new(uint256.Int).Set(p.MaxRewardCap)
	t.CompoundingAllowed = p.CompoundingAllowed
}
