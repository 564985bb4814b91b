// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/stakeledger/thor"
)

// Event is a stored ledger event.
type Event struct {
	BlockNumber uint32
	Index       uint32
	BlockTime   uint64
	Name        string
	Account     thor.Address
	Subject     uint64
	Data        map[string]string
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events having every non-nil field.
type EventCriteria struct {
	Name    *string
	Account *thor.Address
	Subject *uint64
}

// EventFilter matches events meeting any of the criteria within the range.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
