// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/recovery"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

// checkRecoveryTarget verifies that newAddress may receive a recovered position.
func (s *Staker) checkRecoveryTarget(newAddress thor.Address) error {
	if newAddress.IsZero() {
		return reverts.ErrZeroAddress
	}
	used, err := s.stakeService.HasBeenUsed(newAddress)
	if err != nil {
		return err
	}
	if used {
		return reverts.ErrAddressUsed.Withf("%v", newAddress)
	}
	hasCode, err := s.state.HasCode(newAddress)
	if err != nil {
		return err
	}
	if hasCode {
		return reverts.ErrContractAddress.Withf("%v", newAddress)
	}
	return nil
}

// RequestRecovery asks for the stake of caller to be moved to newAddress once the recovery
// delay has passed.
func (s *Staker) RequestRecovery(caller thor.Address, newAddress thor.Address) (*recovery.Request, error) {
	logger.Debug("requesting recovery", "account", caller, "newAddress", newAddress)

	req, err := s.requestRecovery(caller, newAddress)
	if err != nil {
		logger.Info("request recovery failed", "account", caller, "error", err)
		return nil, err
	}

	logger.Info("requested recovery", "account", caller, "readyAt", req.ReadyAt())
	return req, nil
}

func (s *Staker) requestRecovery(caller thor.Address, newAddress thor.Address) (*recovery.Request, error) {
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
	if newAddress == caller {
		return nil, reverts.ErrSelfRecovery
	}
	if err := s.checkRecoveryTarget(newAddress); err != nil {
		return nil, err
	}
	existing, err := s.recoveryService.Get(caller)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Pending {
		return nil, reverts.ErrAlreadyPending
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return nil, err
	}
	delay, err := s.params.GetUint64(thor.KeyRecoveryDelay)
	if err != nil {
		return nil, err
	}
	if _, ok := thor.AddTime(now, delay); !ok {
		return nil, reverts.ErrArithmeticFault.Withf("recovery delay %d overflows", delay)
	}
	req, err := s.recoveryService.Create(caller, newAddress, now, delay)
	if err != nil {
		return nil, err
	}
	s.emit(EventRecoveryRequested, caller, 0,
		"newAddress", newAddress,
		"requestTime", now,
		"requestHash", req.RequestHash,
	)
	return req, nil
}

// CancelRecoveryRequest deletes the pending request of caller.
func (s *Staker) CancelRecoveryRequest(caller thor.Address) error {
	logger.Debug("cancelling recovery", "account", caller)

	if err := s.cancelRecoveryRequest(caller); err != nil {
		logger.Info("cancel recovery failed", "account", caller, "error", err)
		return err
	}

	logger.Info("cancelled recovery", "account", caller)
	return nil
}

func (s *Staker) cancelRecoveryRequest(caller thor.Address) error {
	if err := s.enter(caller); err != nil {
		return err
	}
	req, err := s.recoveryService.Get(caller)
	if err != nil {
		return err
	}
	if req == nil || !req.Pending {
		return reverts.ErrNotPending
	}
	if err := s.limiterService.Touch(caller, s.now()); err != nil {
		return err
	}
	s.recoveryService.Delete(caller)
	s.emit(EventRecoveryCancelled, caller, 0, "newAddress", req.NewAddress)
	return nil
}

// ExecuteRecovery migrates the stake, rate limit timestamp and auxiliary balances of old to
// the requested address and revokes old for good.
func (s *Staker) ExecuteRecovery(caller thor.Address, old thor.Address) (thor.Address, error) {
	logger.Debug("executing recovery", "admin", caller, "account", old)

	newAddress, err := s.executeRecovery(caller, old)
	if err != nil {
		logger.Info("execute recovery failed", "account", old, "error", err)
		return thor.Address{}, err
	}

	logger.Info("executed recovery", "account", old, "newAddress", newAddress)
	return newAddress, nil
}

func (s *Staker) executeRecovery(caller thor.Address, old thor.Address) (thor.Address, error) {
	if err := s.enterAdmin(caller, authority.RoleRecoveryAdmin); err != nil {
		return thor.Address{}, err
	}
	req, err := s.recoveryService.Get(old)
	if err != nil {
		return thor.Address{}, err
	}
	if req == nil || !req.Pending {
		return thor.Address{}, reverts.ErrNotPending
	}
	if s.now() < req.ReadyAt() {
		return thor.Address{}, reverts.ErrDelayNotElapsed.Withf("ready at %d", req.ReadyAt())
	}
	// the target may have been used since the request
	if err := s.checkRecoveryTarget(req.NewAddress); err != nil {
		return thor.Address{}, err
	}

	stake, err := s.stakeService.Get(old)
	if err != nil {
		return thor.Address{}, err
	}
	if err := s.stakeService.Set(req.NewAddress, stake); err != nil {
		return thor.Address{}, err
	}
	s.stakeService.Delete(old)
	if err := s.limiterService.Migrate(old, req.NewAddress); err != nil {
		return thor.Address{}, err
	}
	if err := s.governanceService.MigrateVotes(old, req.NewAddress, s.now()); err != nil {
		return thor.Address{}, err
	}
	if err := s.tokens.Migrate(old, req.NewAddress); err != nil {
		return thor.Address{}, reverts.Arith(err)
	}
	if err := s.stakeService.MarkUsed(old); err != nil {
		return thor.Address{}, err
	}
	if err := s.stakeService.MarkUsed(req.NewAddress); err != nil {
		return thor.Address{}, err
	}
	if err := s.stakeService.Revoke(old); err != nil {
		return thor.Address{}, err
	}
	s.recoveryService.Delete(old)

	s.emit(EventRecoveryExecuted, old, 0, "newAddress", req.NewAddress, "admin", caller)
	return req.NewAddress, nil
}
