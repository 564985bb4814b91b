// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"

	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

// AddToRewardPool moves amount from caller into the reward pool. Anyone may fund it.
func (s *Staker) AddToRewardPool(caller thor.Address, amount *uint256.Int) error {
	logger.Debug("funding reward pool", "caller", caller, "amount", amount)

	if err := s.addToRewardPool(caller, amount); err != nil {
		logger.Info("fund reward pool failed", "caller", caller, "error", err)
		return err
	}

	logger.Info("funded reward pool", "caller", caller, "amount", amount)
	return nil
}

func (s *Staker) addToRewardPool(caller thor.Address, amount *uint256.Int) error {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return err
	}
	if err := s.transferIn(caller, amount); err != nil {
		return err
	}
	if err := s.treasuryService.Fund(amount, now); err != nil {
		return err
	}
	s.emit(EventRewardPoolFunded, caller, 0, "from", caller, "amount", amount)
	return nil
}

// WithdrawFees pays collected fees out to to, or to the treasury address when to is zero.
func (s *Staker) WithdrawFees(caller thor.Address, to thor.Address, amount *uint256.Int) error {
	logger.Debug("withdrawing fees", "caller", caller, "to", to, "amount", amount)

	if err := s.withdrawFees(caller, to, amount); err != nil {
		logger.Info("withdraw fees failed", "caller", caller, "error", err)
		return err
	}

	logger.Info("withdrew fees", "amount", amount)
	return nil
}

func (s *Staker) withdrawFees(caller thor.Address, to thor.Address, amount *uint256.Int) error {
	if err := s.enterAdmin(caller, authority.RoleTreasurer); err != nil {
		return err
	}
	if amount == nil {
		return reverts.ErrZeroAmount
	}
	if to.IsZero() {
		info, err := s.treasuryService.Info()
		if err != nil {
			return err
		}
		if info.TreasuryAddress.IsZero() {
			return reverts.ErrZeroAddress
		}
		to = info.TreasuryAddress
	}
	if err := s.treasuryService.WithdrawFees(amount, s.now()); err != nil {
		return err
	}
	if err := s.transferOut(to, amount); err != nil {
		return err
	}
	s.emit(EventFeesWithdrawn, caller, 0, "to", to, "amount", amount)
	return nil
}

// SetFee sets the fee deducted from new stakes.
func (s *Staker) SetFee(caller thor.Address, bps uint64) error {
	logger.Debug("setting fee", "caller", caller, "bps", bps)

	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		logger.Info("set fee failed", "caller", caller, "error", err)
		return err
	}
	if err := s.setFee(caller, bps); err != nil {
		logger.Info("set fee failed", "caller", caller, "error", err)
		return err
	}

	logger.Info("fee set", "bps", bps)
	return nil
}

func (s *Staker) setFee(caller thor.Address, bps uint64) error {
	if err := s.treasuryService.SetFee(bps, s.now()); err != nil {
		return err
	}
	s.emit(EventTreasuryFeeUpdated, caller, 0, "newFee", bps)
	return nil
}

// SetFeesEnabled toggles fee deduction for future stakes only.
func (s *Staker) SetFeesEnabled(caller thor.Address, enabled bool) error {
	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		logger.Info("toggle fees failed", "caller", caller, "error", err)
		return err
	}
	if err := s.setFeesEnabled(caller, enabled); err != nil {
		return err
	}

	logger.Info("fees toggled", "enabled", enabled)
	return nil
}

func (s *Staker) setFeesEnabled(caller thor.Address, enabled bool) error {
	if err := s.treasuryService.SetFeesEnabled(enabled, s.now()); err != nil {
		return err
	}
	s.emit(EventFeesToggled, caller, 0, "enabled", enabled)
	return nil
}

// SetTreasuryAddress sets the default destination of withdrawn fees.
func (s *Staker) SetTreasuryAddress(caller thor.Address, addr thor.Address) error {
	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		logger.Info("set treasury address failed", "caller", caller, "error", err)
		return err
	}
	if err := s.setTreasuryAddress(caller, addr); err != nil {
		logger.Info("set treasury address failed", "caller", caller, "error", err)
		return err
	}

	logger.Info("treasury address set", "address", addr)
	return nil
}

func (s *Staker) setTreasuryAddress(caller thor.Address, addr thor.Address) error {
	if err := s.treasuryService.SetTreasuryAddress(addr, s.now()); err != nil {
		return err
	}
	s.emit(EventTreasuryAddressUpdated, caller, 0, "address", addr)
	return nil
}

// WhitelistToken admits an auxiliary token.
func (s *Staker) WhitelistToken(caller thor.Address, token thor.Address) error {
	if err := s.enterAdmin(caller, authority.RoleAdmin); err != nil {
		return err
	}
	if token.IsZero() {
		return reverts.ErrZeroAddress
	}
	added, err := s.tokens.Whitelist(token)
	if err != nil {
		return err
	}
	if !added {
		return reverts.ErrAlreadyExists.Withf("token %v", token)
	}
	s.emit(EventTokenWhitelisted, caller, 0, "token", token)
	logger.Info("token whitelisted", "token", token)
	return nil
}

// CreditToken books an auxiliary token balance to account.
func (s *Staker) CreditToken(caller, token, account thor.Address, amount *uint256.Int) error {
	if err := s.enterAdmin(caller, authority.RoleAdmin, authority.RoleTreasurer); err != nil {
		return err
	}
	if amount == nil || amount.IsZero() {
		return reverts.ErrZeroAmount
	}
	if account.IsZero() {
		return reverts.ErrZeroAddress
	}
	ok, err := s.tokens.IsWhitelisted(token)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.ErrTokenNotWhitelisted.Withf("token %v", token)
	}
	if err := s.tokens.Credit(token, account, amount); err != nil {
		return reverts.Arith(err)
	}
	s.emit(EventTokenCredited, account, 0, "token", token, "amount", amount)
	return nil
}
