// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/vechain/stakeledger/thor"
)

// Names of emitted events.
const (
	EventTierCreated            = "TierCreated"
	EventTierUpdated            = "TierUpdated"
	EventTierDeactivated        = "TierDeactivated"
	EventStaked                 = "Staked"
	EventUnstaked               = "Unstaked"
	EventRewardsClaimed         = "RewardsClaimed"
	EventRecoveryRequested      = "RecoveryRequested"
	EventRecoveryCancelled      = "RecoveryCancelled"
	EventRecoveryExecuted       = "RecoveryExecuted"
	EventProposalCreated        = "ProposalCreated"
	EventProposalCancelled      = "ProposalCancelled"
	EventProposalVoted          = "ProposalVoted"
	EventProposalExecuted       = "ProposalExecuted"
	EventProposalVetoed         = "ProposalVetoed"
	EventTreasuryFeeUpdated     = "TreasuryFeeUpdated"
	EventFeesToggled            = "FeesToggled"
	EventRewardPoolFunded       = "RewardPoolFunded"
	EventFeesWithdrawn          = "FeesWithdrawn"
	EventTreasuryAddressUpdated = "TreasuryAddressUpdated"
	EventParamUpdated           = "ParamUpdated"
	EventEmergencyShutdown      = "EmergencyShutdown"
	EventTokenWhitelisted       = "TokenWhitelisted"
	EventTokenCredited          = "TokenCredited"
)

// Event is a state change observed by a successful call. Events of a failed call are dropped.
type Event struct {
	Name        string            `json:"name"`
	Account     thor.Address      `json:"account"`
	Subject     uint64            `json:"subject"`
	BlockNumber uint32            `json:"blockNumber"`
	BlockTime   uint64            `json:"blockTime"`
	Data        map[string]string `json:"data,omitempty"`
}

// emit records an event. kv are alternating keys and values.
func (s *Staker) emit(name string, account thor.Address, subject uint64, kv ...any) {
	ev := &Event{
		Name:        name,
		Account:     account,
		Subject:     subject,
		BlockNumber: s.blk.Number,
		BlockTime:   s.blk.Time,
	}
	if len(kv) > 0 {
		ev.Data = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			ev.Data[fmt.Sprint(kv[i])] = formatValue(kv[i+1])
		}
	}
	s.events = append(s.events, ev)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case *uint256.Int:
		return val.Dec()
	case *big.Int:
		return val.String()
	case thor.Address:
		return val.String()
	case thor.Bytes32:
		return val.String()
	}
	return fmt.Sprint(v)
}

// Events returns the events recorded so far.
func (s *Staker) Events() []*Event {
	return s.events
}
