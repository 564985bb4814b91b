// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/tiers"
	"github.com/vechain/stakeledger/thor"
)

// CreateTier binds a new tier id.
func (s *Staker) CreateTier(caller thor.Address, id uint8, p *tiers.Params) error {
	logger.Debug("creating tier", "caller", caller, "id", id)

	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		logger.Info("create tier failed", "id", id, "error", err)
		return err
	}
	t, err := s.tierService.Create(id, p)
	if err != nil {
		logger.Info("create tier failed", "id", id, "error", err)
		return err
	}
	s.emitTier(EventTierCreated, caller, t)

	logger.Info("created tier", "id", id)
	return nil
}

// UpdateTier changes the parameters of a tier. Open stakes keep the ones they captured.
func (s *Staker) UpdateTier(caller thor.Address, id uint8, p *tiers.Params) error {
	logger.Debug("updating tier", "caller", caller, "id", id)

	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		logger.Info("update tier failed", "id", id, "error", err)
		return err
	}
	t, err := s.tierService.Update(id, p)
	if err != nil {
		logger.Info("update tier failed", "id", id, "error", err)
		return err
	}
	s.emitTier(EventTierUpdated, caller, t)

	logger.Info("updated tier", "id", id)
	return nil
}

// DeactivateTier closes a tier to new stakes.
func (s *Staker) DeactivateTier(caller thor.Address, id uint8) error {
	logger.Debug("deactivating tier", "caller", caller, "id", id)

	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		logger.Info("deactivate tier failed", "id", id, "error", err)
		return err
	}
	if err := s.deactivateTier(caller, id); err != nil {
		logger.Info("deactivate tier failed", "id", id, "error", err)
		return err
	}

	logger.Info("deactivated tier", "id", id)
	return nil
}

func (s *Staker) deactivateTier(caller thor.Address, id uint8) error {
	if err := s.tierService.Deactivate(id); err != nil {
		return err
	}
	s.emit(EventTierDeactivated, caller, uint64(id), "tierId", id)
	return nil
}

func (s *Staker) emitTier(name string, caller thor.Address, t *tiers.Tier) {
	s.emit(name, caller, uint64(t.ID),
		"tierId", t.ID,
		"minStake", t.MinimumStake,
		"rate", t.RewardRateBps,
		"lock", t.LockDuration,
		"cap", t.MaxRewardCap,
		"compounding", t.CompoundingAllowed,
	)
}
