// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package governance

import (
	"github.com/holiman/uint256"
	"github.com/vechain/stakeledger/thor"
)

// Status of a proposal at a given time.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusOpen
	StatusCancelled
	StatusVetoed
	StatusExpired
	StatusExecuted
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCancelled:
		return "cancelled"
	case StatusVetoed:
		return "vetoed"
	case StatusExpired:
		return "expired"
	case StatusExecuted:
		return "executed"
	}
	return "unknown"
}

type Proposal struct {
	ID            uint64
	ProposalHash  thor.Bytes32
	Description   string
	Target        thor.Address
	Payload       []byte
	VotingEnds    uint64
	ExecutionTime uint64
	VotesFor      *uint256.Int
	VotesAgainst  *uint256.Int
	TotalVotes    *uint256.Int
	Executed      bool
	Cancelled     bool
	Vetoed        bool
	Proposer      thor.Address
}

// Status returns the lifecycle state at now.
func (p *Proposal) Status(now uint64) Status {
	switch {
	case p == nil:
		return StatusUnknown
	case p.Executed:
		return StatusExecuted
	case p.Cancelled:
		return StatusCancelled
	case p.Vetoed:
		return StatusVetoed
	case now < p.VotingEnds:
		return StatusOpen
	}
	return StatusExpired
}
