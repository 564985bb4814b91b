// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package governance stores proposals and votes and enforces the proposal lifecycle.
package governance

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/reverts"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotCount     = thor.BytesToBytes32([]byte("proposal-count"))
	slotProposals = thor.BytesToBytes32([]byte("proposals"))
	slotVoters    = thor.BytesToBytes32([]byte("proposal-voters"))
)

type proposalKey uint64

func (k proposalKey) Bytes() []byte {
	return thor.Uint64ToBytes32(uint64(k)).Bytes()
}

func voterKey(id uint64, voter thor.Address) thor.Bytes32 {
	return thor.Blake2b(thor.Uint64ToBytes32(id).Bytes(), voter.Bytes())
}

type Service struct {
	count     *solidity.Slot[uint64]
	proposals *solidity.Mapping[proposalKey, *Proposal]
	voters    *solidity.Mapping[thor.Bytes32, bool]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		count:     solidity.NewSlot[uint64](sctx, slotCount),
		proposals: solidity.NewMapping[proposalKey, *Proposal](sctx, slotProposals),
		voters:    solidity.NewMapping[thor.Bytes32, bool](sctx, slotVoters),
	}
}

// Count returns the number of proposals ever created. Ids run from 1 to Count.
func (s *Service) Count() (uint64, error) {
	return s.count.Get()
}

// Get returns the proposal, nil if it does not exist.
func (s *Service) Get(id uint64) (*Proposal, error) {
	p, err := s.proposals.Get(proposalKey(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get proposal")
	}
	return p, nil
}

// GetExisting returns the proposal or ErrProposalNotFound.
func (s *Service) GetExisting(id uint64) (*Proposal, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, reverts.ErrProposalNotFound.Withf("proposal %d", id)
	}
	return p, nil
}

func (s *Service) set(p *Proposal) error {
	if err := s.proposals.Set(proposalKey(p.ID), p); err != nil {
		return errors.Wrap(err, "failed to set proposal")
	}
	return nil
}

// HasVoted returns whether voter voted on the proposal.
func (s *Service) HasVoted(id uint64, voter thor.Address) (bool, error) {
	return s.voters.Get(voterKey(id, voter))
}

// Create assigns the next id and stores the proposal.
func (s *Service) Create(
	proposer thor.Address,
	hash thor.Bytes32,
	description string,
	target thor.Address,
	payload []byte,
	votingEnds uint64,
	executionTime uint64,
) (*Proposal, error) {
	count, err := s.count.Get()
	if err != nil {
		return nil, err
	}
	p := &Proposal{
		ID:            count + 1,
		ProposalHash:  hash,
		Description:   description,
		Target:        target,
		Payload:       payload,
		VotingEnds:    votingEnds,
		ExecutionTime: executionTime,
		VotesFor:      new(uint256.Int),
		VotesAgainst:  new(uint256.Int),
		TotalVotes:    new(uint256.Int),
		Proposer:      proposer,
	}
	if err := s.set(p); err != nil {
		return nil, err
	}
	if err := s.count.Set(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// Vote tallies weight for or against the proposal.
func (s *Service) Vote(id uint64, voter thor.Address, support bool, weight *uint256.Int, now uint64) (*Proposal, error) {
	p, err := s.GetExisting(id)
	if err != nil {
		return nil, err
	}
	switch {
	case p.Cancelled:
		return nil, reverts.ErrProposalCancelled
	case p.Vetoed:
		return nil, reverts.ErrProposalVetoed
	case now >= p.VotingEnds:
		return nil, reverts.ErrVotingClosed.Withf("voting ended at %d", p.VotingEnds)
	}
	voted, err := s.HasVoted(id, voter)
	if err != nil {
		return nil, err
	}
	if voted {
		return nil, reverts.ErrAlreadyVoted
	}

	tally := p.VotesAgainst
	if support {
		tally = p.VotesFor
	}
	if _, overflow := tally.AddOverflow(tally, weight); overflow {
		return nil, reverts.ErrArithmeticFault.Withf("vote overflow")
	}
	if _, overflow := p.TotalVotes.AddOverflow(p.TotalVotes, weight); overflow {
		return nil, reverts.ErrArithmeticFault.Withf("vote overflow")
	}
	if err := s.voters.Set(voterKey(id, voter), true); err != nil {
		return nil, err
	}
	return p, s.set(p)
}

// MigrateVotes marks to as having voted on every open proposal from has voted on.
func (s *Service) MigrateVotes(from, to thor.Address, now uint64) error {
	count, err := s.count.Get()
	if err != nil {
		return err
	}
	for id := uint64(1); id <= count; id++ {
		p, err := s.Get(id)
		if err != nil {
			return err
		}
		if p == nil || p.Cancelled || p.Vetoed || now >= p.VotingEnds {
			continue
		}
		voted, err := s.HasVoted(id, from)
		if err != nil {
			return err
		}
		if voted {
			if err := s.voters.Set(voterKey(id, to), true); err != nil {
				return err
			}
		}
	}
	return nil
}

// Cancel closes an open proposal.
func (s *Service) Cancel(id uint64, now uint64) (*Proposal, error) {
	p, err := s.GetExisting(id)
	if err != nil {
		return nil, err
	}
	switch {
	case p.Cancelled:
		return nil, reverts.ErrProposalCancelled
	case p.Executed:
		return nil, reverts.ErrAlreadyExecuted
	case now >= p.VotingEnds:
		return nil, reverts.ErrVotingClosed.Withf("voting ended at %d", p.VotingEnds)
	}
	p.Cancelled = true
	return p, s.set(p)
}

// Veto permanently blocks execution. It is allowed after voting ends, until execution.
func (s *Service) Veto(id uint64) (*Proposal, error) {
	p, err := s.GetExisting(id)
	if err != nil {
		return nil, err
	}
	switch {
	case p.Executed:
		return nil, reverts.ErrAlreadyExecuted
	case p.Vetoed:
		return nil, reverts.ErrProposalVetoed
	case p.Cancelled:
		return nil, reverts.ErrProposalCancelled
	}
	p.Vetoed = true
	return p, s.set(p)
}

// CheckExecutable verifies that the proposal may be executed with the given content at now.
func (s *Service) CheckExecutable(id uint64, target thor.Address, payload []byte, quorum *uint256.Int, now uint64) (*Proposal, error) {
	p, err := s.GetExisting(id)
	if err != nil {
		return nil, err
	}
	if ProposalHash(target, payload) != p.ProposalHash {
		return nil, reverts.ErrProposalMismatch
	}
	switch {
	case p.Executed:
		return nil, reverts.ErrAlreadyExecuted
	case p.Cancelled:
		return nil, reverts.ErrProposalCancelled
	case p.Vetoed:
		return nil, reverts.ErrProposalVetoed
	case now < p.VotingEnds:
		return nil, reverts.ErrVotingOpen.Withf("voting ends at %d", p.VotingEnds)
	case now < p.ExecutionTime:
		return nil, reverts.ErrDelayNotElapsed.Withf("executable at %d", p.ExecutionTime)
	case p.TotalVotes.Lt(quorum):
		return nil, reverts.ErrQuorumNotReached.Withf("votes %s, quorum %s", p.TotalVotes, quorum)
	case !p.VotesFor.Gt(p.VotesAgainst):
		return nil, reverts.ErrProposalRejected
	}
	return p, nil
}

// MarkExecuted records the execution.
func (s *Service) MarkExecuted(p *Proposal) error {
	p.Executed = true
	return s.set(p)
}
