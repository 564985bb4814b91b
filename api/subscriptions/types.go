// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/thor"
)

// EventMessage is one committed event. Pos increases by one per event and resumes a
// stream with ?pos=.
type EventMessage struct {
	Pos uint64 `json:"pos"`
	*staker.Event
}

// EventFilter selects the events a subscriber receives. Zero fields match everything.
type EventFilter struct {
	Name    string
	Account *thor.Address
}

func (f *EventFilter) Match(ev *staker.Event) bool {
	if f.Name != "" && f.Name != ev.Name {
		return false
	}
	if f.Account != nil && *f.Account != ev.Account {
		return false
	}
	return true
}
