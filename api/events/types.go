// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"math"

	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/thor"
)

type Range struct {
	Unit logdb.RangeType `json:"unit"`
	From *uint64         `json:"from,omitempty"`
	To   *uint64         `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type EventCriteria struct {
	Name    *string       `json:"name"`
	Account *thor.Address `json:"account"`
	Subject *uint64       `json:"subject"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

type LogMeta struct {
	BlockNumber uint32 `json:"blockNumber"`
	BlockTime   uint64 `json:"blockTime"`
	LogIndex    uint32 `json:"logIndex"`
}

type FilteredEvent struct {
	Name    string            `json:"name"`
	Account thor.Address      `json:"account"`
	Subject uint64            `json:"subject"`
	Data    map[string]string `json:"data,omitempty"`
	Meta    LogMeta           `json:"meta"`
}

func convertRange(r *Range) (*logdb.Range, error) {
	if r == nil {
		return nil, nil
	}
	unit := r.Unit
	if unit == "" {
		unit = logdb.Block
	}
	if unit != logdb.Block && unit != logdb.Time {
		return nil, fmt.Errorf("unit: unsupported %q", unit)
	}
	out := &logdb.Range{Unit: unit, To: math.MaxInt64}
	if r.From != nil {
		out.From = *r.From
	}
	if r.To != nil && *r.To < out.To {
		out.To = *r.To
	}
	return out, nil
}

func convertEventFilter(f *EventFilter) (*logdb.EventFilter, error) {
	rng, err := convertRange(f.Range)
	if err != nil {
		return nil, err
	}
	filter := &logdb.EventFilter{
		Range: rng,
		Order: f.Order,
	}
	if f.Options != nil {
		filter.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	for _, c := range f.CriteriaSet {
		filter.CriteriaSet = append(filter.CriteriaSet, &logdb.EventCriteria{
			Name:    c.Name,
			Account: c.Account,
			Subject: c.Subject,
		})
	}
	return filter, nil
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	return &FilteredEvent{
		Name:    e.Name,
		Account: e.Account,
		Subject: e.Subject,
		Data:    e.Data,
		Meta: LogMeta{
			BlockNumber: e.BlockNumber,
			BlockTime:   e.BlockTime,
			LogIndex:    e.Index,
		},
	}
}
