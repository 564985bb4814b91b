// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/authority"
	"github.com/vechain/stakeledger/builtin/staker/governance"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

// governanceTarget maps a proposal target address to the builtin it addresses.
func (s *Staker) governanceTarget(addr thor.Address) (governance.Target, bool) {
	switch addr {
	case s.addrs.Treasury:
		return governance.TargetTreasury, true
	case s.addrs.Params:
		return governance.TargetParams, true
	case s.addrs.Tiers:
		return governance.TargetTiers, true
	}
	return 0, false
}

// decodeProposal checks that the payload is an action addressed to target.
func (s *Staker) decodeProposal(target thor.Address, payload []byte) (*governance.Action, error) {
	kind, ok := s.governanceTarget(target)
	if !ok {
		return nil, reverts.ErrInvalidAction.Withf("target %v is not governable", target)
	}
	action, err := governance.DecodeAction(payload)
	if err != nil {
		return nil, err
	}
	if action.Op.Target() != kind {
		return nil, reverts.ErrInvalidAction.Withf("%v does not apply to %v", action.Op, target)
	}
	return action, nil
}

// votingWeight is the current locked amount of account.
func (s *Staker) votingWeight(account thor.Address) (*uint256.Int, error) {
	stake, err := s.stakeService.Get(account)
	if err != nil {
		return nil, err
	}
	if !stake.IsLocked() {
		return nil, reverts.ErrNotStaked
	}
	return stake.Amount, nil
}

// CreateProposal opens a proposal. hash must commit to target and payload.
func (s *Staker) CreateProposal(
	caller thor.Address,
	hash thor.Bytes32,
	description string,
	target thor.Address,
	payload []byte,
) (*governance.Proposal, error) {
	logger.Debug("creating proposal", "proposer", caller, "target", target)

	p, err := s.createProposal(caller, hash, description, target, payload)
	if err != nil {
		logger.Info("create proposal failed", "proposer", caller, "error", err)
		return nil, err
	}

	logger.Info("created proposal", "id", p.ID, "votingEnds", p.VotingEnds)
	return p, nil
}

func (s *Staker) createProposal(
	caller thor.Address,
	hash thor.Bytes32,
	description string,
	target thor.Address,
	payload []byte,
) (*governance.Proposal, error) {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return nil, err
	}
	if len(description) > thor.MaxDescriptionLength {
		return nil, reverts.ErrInvalidParameter.Withf("description longer than %d", thor.MaxDescriptionLength)
	}

	weight, err := s.votingWeight(caller)
	if err != nil {
		if errors.Is(err, reverts.ErrNotStaked) {
			return nil, reverts.ErrBelowProposalThreshold
		}
		return nil, err
	}
	threshold, err := s.params.GetUint256(thor.KeyProposalThreshold)
	if err != nil {
		return nil, err
	}
	if weight.Lt(threshold) {
		return nil, reverts.ErrBelowProposalThreshold.Withf("stake %s, threshold %s", weight.Dec(), threshold.Dec())
	}

	if governance.ProposalHash(target, payload) != hash {
		return nil, reverts.ErrProposalMismatch
	}
	if _, err := s.decodeProposal(target, payload); err != nil {
		return nil, err
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return nil, err
	}

	period, err := s.params.GetUint64(thor.KeyVotingPeriod)
	if err != nil {
		return nil, err
	}
	delay, err := s.params.GetUint64(thor.KeyExecutionDelay)
	if err != nil {
		return nil, err
	}
	votingEnds, ok := thor.AddTime(now, period)
	if !ok {
		return nil, reverts.ErrArithmeticFault.Withf("voting period %d overflows", period)
	}
	executionTime, ok := thor.AddTime(votingEnds, delay)
	if !ok {
		return nil, reverts.ErrArithmeticFault.Withf("execution delay %d overflows", delay)
	}
	p, err := s.governanceService.Create(caller, hash, description, target, payload, votingEnds, executionTime)
	if err != nil {
		return nil, err
	}
	s.emit(EventProposalCreated, caller, p.ID,
		"id", p.ID,
		"proposer", caller,
		"votingEnds", votingEnds,
		"proposalHash", hash,
	)
	return p, nil
}

// Vote casts the current stake of caller for or against the proposal.
func (s *Staker) Vote(caller thor.Address, id uint64, support bool) error {
	logger.Debug("voting", "voter", caller, "id", id, "support", support)

	if err := s.vote(caller, id, support); err != nil {
		logger.Info("vote failed", "voter", caller, "id", id, "error", err)
		return err
	}

	logger.Info("voted", "voter", caller, "id", id)
	return nil
}

func (s *Staker) vote(caller thor.Address, id uint64, support bool) error {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return err
	}
	weight, err := s.votingWeight(caller)
	if err != nil {
		return err
	}
	if _, err := s.governanceService.Vote(id, caller, support, weight, now); err != nil {
		return err
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return err
	}
	s.emit(EventProposalVoted, caller, id,
		"id", id,
		"support", support,
		"weight", weight,
	)
	return nil
}

// CancelProposal closes a proposal before voting ends. The proposer path is rate limited,
// admins are not.
func (s *Staker) CancelProposal(caller thor.Address, id uint64) error {
	logger.Debug("cancelling proposal", "caller", caller, "id", id)

	if err := s.cancelProposal(caller, id); err != nil {
		logger.Info("cancel proposal failed", "id", id, "error", err)
		return err
	}

	logger.Info("cancelled proposal", "id", id)
	return nil
}

func (s *Staker) cancelProposal(caller thor.Address, id uint64) error {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return err
	}
	p, err := s.governanceService.GetExisting(id)
	if err != nil {
		return err
	}
	if p.Proposer == caller {
		if err := s.limiterService.Touch(caller, now); err != nil {
			return err
		}
	} else if err := s.requireRole(caller, authority.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.governanceService.Cancel(id, now); err != nil {
		return err
	}
	s.emit(EventProposalCancelled, caller, id, "id", id)
	return nil
}

// VetoProposal blocks execution for good.
func (s *Staker) VetoProposal(caller thor.Address, id uint64) error {
	logger.Debug("vetoing proposal", "caller", caller, "id", id)

	if err := s.enterAdmin(caller, authority.RoleAdmin, authority.RoleEmergency); err != nil {
		logger.Info("veto proposal failed", "id", id, "error", err)
		return err
	}
	if _, err := s.governanceService.Veto(id); err != nil {
		logger.Info("veto proposal failed", "id", id, "error", err)
		return err
	}
	s.emit(EventProposalVetoed, caller, id, "id", id)

	logger.Info("vetoed proposal", "id", id)
	return nil
}

// ExecuteProposal applies the action of a passed proposal once. Anyone may execute.
func (s *Staker) ExecuteProposal(caller thor.Address, id uint64, target thor.Address, payload []byte) error {
	logger.Debug("executing proposal", "caller", caller, "id", id)

	if err := s.executeProposal(caller, id, target, payload); err != nil {
		logger.Info("execute proposal failed", "id", id, "error", err)
		return err
	}

	logger.Info("executed proposal", "id", id)
	return nil
}

func (s *Staker) executeProposal(caller thor.Address, id uint64, target thor.Address, payload []byte) error {
	now := s.now()
	if err := s.enter(caller); err != nil {
		return err
	}
	quorum, err := s.params.GetUint256(thor.KeyMinimumQuorum)
	if err != nil {
		return err
	}
	p, err := s.governanceService.CheckExecutable(id, target, payload, quorum, now)
	if err != nil {
		return err
	}
	action, err := s.decodeProposal(target, payload)
	if err != nil {
		return err
	}
	if err := s.limiterService.Touch(caller, now); err != nil {
		return err
	}
	if err := s.apply(caller, action); err != nil {
		return err
	}
	if err := s.governanceService.MarkExecuted(p); err != nil {
		return err
	}
	s.emit(EventProposalExecuted, caller, id, "id", id, "op", action.Op)
	return nil
}

// apply performs a governance action. Capability checks do not apply.
func (s *Staker) apply(caller thor.Address, a *governance.Action) error {
	switch a.Op {
	case governance.OpSetFee:
		return s.setFee(caller, a.Value.Uint64())
	case governance.OpSetFeesEnabled:
		return s.setFeesEnabled(caller, a.Flag())
	case governance.OpSetTreasuryAddress:
		return s.setTreasuryAddress(caller, a.Address)
	case governance.OpSetParam:
		if err := s.params.Set(a.Key, a.Value); err != nil {
			return err
		}
		s.emit(EventParamUpdated, caller, 0, "key", a.Key, "value", a.Value)
		return nil
	case governance.OpSetEmergencyShutdown:
		return s.setEmergencyShutdown(caller, a.Flag())
	case governance.OpDeactivateTier:
		return s.deactivateTier(caller, uint8(a.Value.Uint64()))
	}
	return reverts.ErrInvalidAction.Withf("unknown %v", a.Op)
}
