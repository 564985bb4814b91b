// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

type Commit struct {
	Events    int        `json:"events"`
	Timestamp *time.Time `json:"timestamp"`
}

type Status struct {
	Healthy           bool         `json:"healthy"`
	GenesisID         thor.Bytes32 `json:"genesisId"`
	LedgerTime        uint64       `json:"ledgerTime"`
	Paused            bool         `json:"paused"`
	EmergencyShutdown bool         `json:"emergencyShutdown"`
	LastCommit        *Commit      `json:"lastCommit"`
	Error             string       `json:"error,omitempty"`
}

// Health reports whether the ledger store is readable and holds the expected genesis.
type Health struct {
	store     *state.Store
	rt        *runtime.Runtime
	genesisID thor.Bytes32

	lock       sync.RWMutex
	lastCommit time.Time
	lastEvents int

	done chan struct{}
	goes co.Goes
}

func New(store *state.Store, rt *runtime.Runtime, genesisID thor.Bytes32) *Health {
	h := &Health{
		store:     store,
		rt:        rt,
		genesisID: genesisID,
		done:      make(chan struct{}),
	}
	ch := make(chan []*staker.Event, 16)
	sub := rt.SubscribeEvents(ch)
	h.goes.Go(func() { h.run(ch, sub) })
	return h
}

func (h *Health) run(ch <-chan []*staker.Event, sub event.Subscription) {
	defer sub.Unsubscribe()

	for {
		select {
		case <-h.done:
			return
		case <-sub.Err():
			return
		case events := <-ch:
			h.lock.Lock()
			h.lastCommit = time.Now()
			h.lastEvents = len(events)
			h.lock.Unlock()
		}
	}
}

func (h *Health) Close() {
	close(h.done)
	h.goes.Wait()
}

func (h *Health) Status() (*Status, error) {
	status := &Status{
		GenesisID:  h.genesisID,
		LedgerTime: h.rt.Clock().Now(),
	}

	h.lock.RLock()
	if !h.lastCommit.IsZero() {
		ts := h.lastCommit
		status.LastCommit = &Commit{Events: h.lastEvents, Timestamp: &ts}
	}
	h.lock.RUnlock()

	stored, err := genesis.StoredID(h.store)
	if err != nil {
		status.Error = errors.WithMessage(err, "read genesis id").Error()
		return status, nil
	}
	if stored != h.genesisID {
		status.Error = "store holds genesis " + stored.String()
		return status, nil
	}

	paused, err := builtin.Authority.Native(h.rt.State()).IsPaused()
	if err != nil {
		return nil, err
	}
	status.Paused = paused

	if err := h.rt.View(func(s *staker.Staker) error {
		shutdown, err := s.IsEmergencyShutdown()
		status.EmergencyShutdown = shutdown
		return err
	}); err != nil {
		return nil, err
	}

	status.Healthy = true
	return status, nil
}
