// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/thor"
)

var (
	alice = thor.BytesToAddress([]byte("alice"))
	bob   = thor.BytesToAddress([]byte("bob"))
)

func newEvent(name string, account thor.Address, subject uint64, block uint32) *staker.Event {
	return &staker.Event{
		Name:        name,
		Account:     account,
		Subject:     subject,
		BlockNumber: block,
		BlockTime:   uint64(block) * 10,
		Data:        map[string]string{"amount": "100"},
	}
}

func fixture(t *testing.T) *LogDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.WriteEvents([]*staker.Event{
		newEvent(staker.EventTierCreated, alice, 1, 1),
	}))
	require.NoError(t, db.WriteEvents([]*staker.Event{
		newEvent(staker.EventStaked, alice, 1, 2),
		newEvent(staker.EventStaked, bob, 1, 2),
	}))
	require.NoError(t, db.WriteEvents([]*staker.Event{
		newEvent(staker.EventProposalCreated, bob, 7, 5),
	}))
	require.NoError(t, db.WriteEvents(nil))
	return db
}

func names(events []*Event) []string {
	var out []string
	for _, ev := range events {
		out = append(out, ev.Name)
	}
	return out
}

func TestFilterEvents(t *testing.T) {
	db := fixture(t)
	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, uint32(2), all[2].BlockNumber)
	assert.Equal(t, uint32(1), all[2].Index)
	assert.Equal(t, bob, all[2].Account)
	assert.Equal(t, map[string]string{"amount": "100"}, all[2].Data)

	staked := staker.EventStaked
	subject := uint64(7)
	tests := []struct {
		name   string
		filter *EventFilter
		want   []string
	}{
		{
			"by name",
			&EventFilter{CriteriaSet: []*EventCriteria{{Name: &staked}}},
			[]string{staker.EventStaked, staker.EventStaked},
		},
		{
			"by account or subject",
			&EventFilter{CriteriaSet: []*EventCriteria{{Account: &alice}, {Subject: &subject}}},
			[]string{staker.EventTierCreated, staker.EventStaked, staker.EventProposalCreated},
		},
		{
			"block range",
			&EventFilter{Range: &Range{Unit: Block, From: 2, To: 4}},
			[]string{staker.EventStaked, staker.EventStaked},
		},
		{
			"time range open ended",
			&EventFilter{Range: &Range{Unit: Time, From: 50}},
			[]string{staker.EventProposalCreated},
		},
		{
			"desc with limit",
			&EventFilter{Order: DESC, Options: &Options{Offset: 1, Limit: 2}},
			[]string{staker.EventStaked, staker.EventStaked},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(events))
		})
	}
}

func TestSequenceResumes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.WriteEvents([]*staker.Event{newEvent(staker.EventStaked, alice, 1, 3)}))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.WriteEvents([]*staker.Event{newEvent(staker.EventUnstaked, alice, 1, 3)}))

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint32(1), events[1].Index)
}

func TestSequence(t *testing.T) {
	s := newSequence(5, 3)
	assert.Equal(t, uint32(5), s.BlockNumber())
	assert.Equal(t, uint32(3), s.Index())
	assert.Equal(t, newSequence(5, 4), s.next(5))
	assert.Equal(t, newSequence(6, 0), s.next(6))
	assert.Equal(t, newSequence(0, 0), sequence(-1).next(0))
	assert.Panics(t, func() { newSequence(1, 1<<31) })
}
